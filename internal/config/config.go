// Package config loads and validates configuration from the environment and an
// optional .env file using Viper.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	// RPCURL is the JSON-RPC endpoint of the survey system. Optional for
	// commands that only touch the local store.
	RPCURL      string `mapstructure:"SURVEYBRIDGE_RPC_URL"`
	RPCUsername string `mapstructure:"SURVEYBRIDGE_RPC_USERNAME"`
	// RPCPassword is overridden by a password saved with the credential store.
	RPCPassword string        `mapstructure:"SURVEYBRIDGE_RPC_PASSWORD"`
	RPCTimeout  time.Duration `mapstructure:"SURVEYBRIDGE_RPC_TIMEOUT"`
	// RPCRateLimit caps remote calls per second; 0 disables throttling.
	RPCRateLimit float64 `mapstructure:"SURVEYBRIDGE_RPC_RATE_LIMIT"`
	RPCBurst     int     `mapstructure:"SURVEYBRIDGE_RPC_BURST"`

	DBPath string `mapstructure:"SURVEYBRIDGE_DB_PATH"`
	// SecretKey is a 64-character hex AES-256 key for the credential store.
	// Empty disables stored credentials.
	SecretKey string `mapstructure:"SURVEYBRIDGE_SECRET_KEY"`
	LogLevel  string `mapstructure:"SURVEYBRIDGE_LOG_LEVEL"`

	NotifyConcurrency int    `mapstructure:"SURVEYBRIDGE_NOTIFY_CONCURRENCY"`
	AnswerLanguage    string `mapstructure:"SURVEYBRIDGE_ANSWER_LANGUAGE"`
	CSVDelimiter      string `mapstructure:"SURVEYBRIDGE_CSV_DELIMITER"`
	// TimeZone is the IANA zone remote timestamps are expressed in.
	TimeZone string `mapstructure:"SURVEYBRIDGE_TIMEZONE"`

	// Placeholder participant sent with every minted token.
	ParticipantFirstName string `mapstructure:"SURVEYBRIDGE_PARTICIPANT_FIRSTNAME"`
	ParticipantLastName  string `mapstructure:"SURVEYBRIDGE_PARTICIPANT_LASTNAME"`
	ParticipantEmail     string `mapstructure:"SURVEYBRIDGE_PARTICIPANT_EMAIL"`
}

// HasRPCEndpoint reports whether the survey system endpoint and username are configured.
func (c *Config) HasRPCEndpoint() bool {
	return c.RPCURL != "" && c.RPCUsername != ""
}

// Delimiter returns CSVDelimiter as a rune. Load guarantees it is a single character.
func (c *Config) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.CSVDelimiter)
	return r
}

// Location returns the time zone named by TimeZone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads .env from the working directory (if present), then builds and
// validates Config from the environment. Environment variables win over .env.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env-file path. A missing file is ignored.
func LoadFile(envFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: reading %s: %w", envFile, err)
		}
	}

	v.AutomaticEnv()

	v.SetDefault("SURVEYBRIDGE_RPC_URL", "")
	v.SetDefault("SURVEYBRIDGE_RPC_USERNAME", "")
	v.SetDefault("SURVEYBRIDGE_RPC_PASSWORD", "")
	v.SetDefault("SURVEYBRIDGE_RPC_TIMEOUT", "30s")
	v.SetDefault("SURVEYBRIDGE_RPC_RATE_LIMIT", 0)
	v.SetDefault("SURVEYBRIDGE_RPC_BURST", 1)
	v.SetDefault("SURVEYBRIDGE_DB_PATH", "surveybridge.db")
	v.SetDefault("SURVEYBRIDGE_SECRET_KEY", "")
	v.SetDefault("SURVEYBRIDGE_LOG_LEVEL", "info")
	v.SetDefault("SURVEYBRIDGE_NOTIFY_CONCURRENCY", 1)
	v.SetDefault("SURVEYBRIDGE_ANSWER_LANGUAGE", "en")
	v.SetDefault("SURVEYBRIDGE_CSV_DELIMITER", ",")
	v.SetDefault("SURVEYBRIDGE_TIMEZONE", "UTC")
	v.SetDefault("SURVEYBRIDGE_PARTICIPANT_FIRSTNAME", "Survey")
	v.SetDefault("SURVEYBRIDGE_PARTICIPANT_LASTNAME", "Participant")
	v.SetDefault("SURVEYBRIDGE_PARTICIPANT_EMAIL", "participant@example.invalid")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.RPCURL != "" {
		u, err := url.Parse(c.RPCURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config: SURVEYBRIDGE_RPC_URL %q must be an absolute http(s) URL", c.RPCURL)
		}
	}
	if c.RPCTimeout <= 0 {
		return errors.New("config: SURVEYBRIDGE_RPC_TIMEOUT must be positive")
	}
	if c.RPCRateLimit < 0 {
		return errors.New("config: SURVEYBRIDGE_RPC_RATE_LIMIT must not be negative")
	}
	if c.RPCBurst < 1 {
		return errors.New("config: SURVEYBRIDGE_RPC_BURST must be at least 1")
	}
	if c.NotifyConcurrency < 1 {
		return errors.New("config: SURVEYBRIDGE_NOTIFY_CONCURRENCY must be at least 1")
	}
	if utf8.RuneCountInString(c.CSVDelimiter) != 1 {
		return fmt.Errorf("config: SURVEYBRIDGE_CSV_DELIMITER %q must be a single character", c.CSVDelimiter)
	}
	if c.SecretKey != "" {
		key, err := hex.DecodeString(c.SecretKey)
		if err != nil || len(key) != 32 {
			return errors.New("config: SURVEYBRIDGE_SECRET_KEY must be 64 hex characters")
		}
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("config: SURVEYBRIDGE_TIMEZONE: %w", err)
	}
	return nil
}
