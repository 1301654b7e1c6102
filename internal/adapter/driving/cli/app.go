package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ericfisherdev/surveybridge/internal/adapter/driven/jsonrpc"
	sqliteadapter "github.com/ericfisherdev/surveybridge/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/surveybridge/internal/adapter/driven/survey"
	"github.com/ericfisherdev/surveybridge/internal/application"
	"github.com/ericfisherdev/surveybridge/internal/config"
	"github.com/ericfisherdev/surveybridge/internal/domain/port/driven"
	"github.com/ericfisherdev/surveybridge/internal/obs"
)

// errNoEndpoint is returned by commands that need the survey system when it is not configured.
var errNoEndpoint = errors.New("survey system not configured: set SURVEYBRIDGE_RPC_URL and SURVEYBRIDGE_RPC_USERNAME")

// app is the composition root shared by all commands. Adapters are created on
// first use so commands that only touch the local store never contact the
// survey system.
type app struct {
	envFile     string
	metricsFile string

	cfg      *config.Config
	registry *prometheus.Registry
	metrics  *obs.Metrics

	db     *sqliteadapter.DB
	rpc    *jsonrpc.Client
	survey *survey.Client
}

// load reads configuration and installs the logger and metrics registry.
func (a *app) load() error {
	cfg, err := config.LoadFile(a.envFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := obs.NewLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	a.registry = prometheus.NewRegistry()
	a.metrics = obs.NewMetrics(a.registry)

	slog.Debug("config loaded",
		"db_path", cfg.DBPath,
		"rpc_url", cfg.RPCURL,
		"rpc_username", cfg.RPCUsername,
	)
	return nil
}

// store opens the database and applies pending migrations.
func (a *app) store(ctx context.Context) (*sqliteadapter.DB, error) {
	if a.db != nil {
		return a.db, nil
	}

	db, err := sqliteadapter.NewDB(ctx, a.cfg.DBPath)
	if err != nil {
		return nil, err
	}

	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.Debug("database opened", "path", a.cfg.DBPath, "schema_version", version)

	a.db = db
	return db, nil
}

// credentials returns the encrypted credential store.
func (a *app) credentials(ctx context.Context) (*sqliteadapter.CredentialRepo, error) {
	db, err := a.store(ctx)
	if err != nil {
		return nil, err
	}

	key, err := sqliteadapter.ParseSecretKey(a.cfg.SecretKey)
	if err != nil {
		return nil, err
	}
	return sqliteadapter.NewCredentialRepo(db, key)
}

// surveySystem builds the survey-system adapter. A password saved in the
// credential store takes priority over SURVEYBRIDGE_RPC_PASSWORD.
func (a *app) surveySystem(ctx context.Context) (*survey.Client, error) {
	if a.survey != nil {
		return a.survey, nil
	}
	if !a.cfg.HasRPCEndpoint() {
		return nil, errNoEndpoint
	}

	password := a.cfg.RPCPassword
	if a.cfg.SecretKey != "" {
		creds, err := a.credentials(ctx)
		if err != nil {
			return nil, err
		}
		stored, err := creds.Get(ctx, driven.CredentialRPCPassword)
		if err != nil {
			slog.Warn("stored rpc password unavailable, using environment", "error", err)
		} else if stored != "" {
			password = stored
		}
	}

	a.rpc = jsonrpc.NewClient(a.cfg.RPCURL, a.cfg.RPCUsername, password,
		jsonrpc.WithHTTPClient(&http.Client{Timeout: a.cfg.RPCTimeout}),
		jsonrpc.WithRateLimit(a.cfg.RPCRateLimit, a.cfg.RPCBurst),
		jsonrpc.WithMetrics(a.metrics),
	)

	a.survey = survey.NewClient(a.rpc,
		survey.WithLanguage(a.cfg.AnswerLanguage),
		survey.WithCSVDelimiter(a.cfg.Delimiter()),
		survey.WithLocation(a.cfg.Location()),
		survey.WithPlaceholder(survey.Placeholder{
			FirstName: a.cfg.ParticipantFirstName,
			LastName:  a.cfg.ParticipantLastName,
			Email:     a.cfg.ParticipantEmail,
		}),
	)

	slog.Debug("survey client created", "rpc_url", a.cfg.RPCURL, "username", a.cfg.RPCUsername)
	return a.survey, nil
}

func (a *app) identityService(ctx context.Context) (*application.IdentityService, error) {
	db, err := a.store(ctx)
	if err != nil {
		return nil, err
	}
	remote, err := a.surveySystem(ctx)
	if err != nil {
		return nil, err
	}
	return application.NewIdentityService(sqliteadapter.NewUserRepo(db), remote), nil
}

func (a *app) notifyService(ctx context.Context) (*application.NotifyService, error) {
	db, err := a.store(ctx)
	if err != nil {
		return nil, err
	}
	remote, err := a.surveySystem(ctx)
	if err != nil {
		return nil, err
	}
	return application.NewNotifyService(
		remote,
		sqliteadapter.NewTokenRepo(db),
		sqliteadapter.NewEntityRepo(db),
		a.cfg.NotifyConcurrency,
		a.metrics,
	), nil
}

func (a *app) tokenService(ctx context.Context) (*application.TokenService, error) {
	db, err := a.store(ctx)
	if err != nil {
		return nil, err
	}
	remote, err := a.surveySystem(ctx)
	if err != nil {
		return nil, err
	}
	return application.NewTokenService(remote, sqliteadapter.NewTokenRepo(db)), nil
}

// close releases the session key, closes the database, and writes the
// metrics textfile when requested. It returns the first error encountered.
func (a *app) close(ctx context.Context) error {
	var firstErr error

	if a.rpc != nil {
		if err := a.rpc.Close(ctx); err != nil {
			slog.Warn("releasing session key failed", "error", err)
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			firstErr = err
		}
	}

	if a.metricsFile != "" && a.registry != nil {
		if err := prometheus.WriteToTextfile(a.metricsFile, a.registry); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("writing metrics textfile: %w", err)
		}
	}

	return firstErr
}
