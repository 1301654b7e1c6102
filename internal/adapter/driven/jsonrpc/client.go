// Package jsonrpc implements a session-keyed JSON-RPC client for the remote
// survey system. The session key is obtained lazily, prepended to every call,
// and refreshed once per call when the remote side reports it as invalid.
package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ericfisherdev/surveybridge/internal/obs"
)

const (
	methodGetSessionKey     = "get_session_key"
	methodReleaseSessionKey = "release_session_key"
)

// defaultHTTPClient enforces a 30-second timeout as a safety net alongside context cancellation.
var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

// request is the JSON body sent for every call.
type request struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
	ID     string `json:"id"`
}

// response is the outer frame of every reply. Result holds either the method's
// payload or a status envelope; Error is set by some servers instead.
type response struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

// Client calls remote methods with positional parameters. It is safe for
// concurrent use.
type Client struct {
	endpoint   string
	username   string
	password   string
	httpClient *http.Client
	limiter    *rate.Limiter // nil when unthrottled.
	metrics    *obs.Metrics
	session    session
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default 30-second-timeout HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit throttles outgoing calls to rps with the given burst.
// A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMetrics records call outcomes and logins.
func WithMetrics(m *obs.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a client for the JSON-RPC endpoint that authenticates as username.
func NewClient(endpoint, username, password string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		username:   username,
		password:   password,
		httpClient: defaultHTTPClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call invokes method with params and decodes the result into T. The session
// key is acquired on first use and prepended to params. If the remote system
// rejects the key, the client re-authenticates and retries exactly once.
//
// Errors are *TransportError, *AuthError, or *StatusError; a StatusError with
// Expired set means the retry was rejected as well.
func Call[T any](ctx context.Context, c *Client, method string, params ...any) (T, error) {
	return call[T](ctx, c, method, params, true)
}

// CallStatus invokes a method whose only result is a status envelope and
// treats the status "OK" as success.
func CallStatus(ctx context.Context, c *Client, method string, params ...any) error {
	res, err := call[statusResult](ctx, c, method, params, true)

	var se *StatusError
	if errors.As(err, &se) && strings.EqualFold(se.Status, "OK") {
		return nil
	}
	if err != nil {
		return err
	}
	if res.Status != nil && !strings.EqualFold(*res.Status, "OK") {
		return newStatusError(method, *res.Status)
	}
	return nil
}

// statusResult matches status envelopes that carry extra members.
type statusResult struct {
	Status *string `json:"status"`
}

func call[T any](ctx context.Context, c *Client, method string, params []any, allowRetry bool) (T, error) {
	var zero T

	key, err := c.session.acquire(ctx, c.login)
	if err != nil {
		return zero, err
	}

	args := make([]any, 0, len(params)+1)
	args = append(args, key)
	args = append(args, params...)

	v, err := exchange[T](ctx, c, method, args)
	if err == nil {
		return v, nil
	}

	var se *StatusError
	if !errors.As(err, &se) || !se.Expired {
		return zero, err
	}

	c.session.invalidate(key)
	if !allowRetry {
		slog.Warn("session key rejected after re-authentication", "method", method)
		return zero, err
	}

	slog.Info("session key expired, re-authenticating", "method", method)
	return call[T](ctx, c, method, params, false)
}

// Close releases the held session key, if any. The next call authenticates again.
func (c *Client) Close(ctx context.Context) error {
	key := c.session.clear()
	if key == "" {
		return nil
	}

	_, err := exchange[string](ctx, c, methodReleaseSessionKey, []any{key})
	if err != nil {
		return fmt.Errorf("releasing session key: %w", err)
	}
	return nil
}

// login requests a new session key with the configured credentials.
func (c *Client) login(ctx context.Context) (string, error) {
	key, err := exchange[string](ctx, c, methodGetSessionKey, []any{c.username, c.password})
	c.metrics.ObserveLogin(err)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return "", &AuthError{Status: se.Status}
		}
		return "", err
	}
	if key == "" {
		return "", &AuthError{Status: "empty session key"}
	}

	slog.Debug("session key acquired", "username", c.username)
	return key, nil
}

// exchange performs one HTTP round trip and decodes the result. It never retries.
func exchange[T any](ctx context.Context, c *Client, method string, params []any) (T, error) {
	start := time.Now()

	frame, err := c.post(ctx, method, params)
	if err != nil {
		c.metrics.ObserveRPC(method, obs.OutcomeTransport, time.Since(start))
		var zero T
		return zero, err
	}

	v, err := decodeResult[T](method, frame)
	c.metrics.ObserveRPC(method, outcomeOf(err), time.Since(start))

	slog.Debug("rpc call",
		"method", method,
		"duration", time.Since(start).Round(time.Millisecond),
		"error", err,
	)

	return v, err
}

func (c *Client) post(ctx context.Context, method string, params []any) (response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return response{}, &TransportError{Method: method, Err: err}
		}
	}

	if params == nil {
		params = []any{}
	}

	bodyBytes, err := json.Marshal(request{Method: method, Params: params, ID: uuid.NewString()})
	if err != nil {
		return response{}, fmt.Errorf("marshaling %s request: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return response{}, fmt.Errorf("creating %s request: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return response{}, &TransportError{Method: method, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return response{}, &TransportError{Method: method, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	var frame response
	if err := json.NewDecoder(resp.Body).Decode(&frame); err != nil {
		return response{}, &TransportError{Method: method, Err: fmt.Errorf("decoding response: %w", err)}
	}

	return frame, nil
}

// decodeResult resolves the two possible reply shapes. A non-null error member
// or a bare {"status": "..."} result is a status envelope; anything else is
// decoded as T. If T does not fit, a looser envelope carrying extra members is
// tried before the reply is reported as malformed.
func decodeResult[T any](method string, frame response) (T, error) {
	var zero T

	if status, ok := errorStatus(frame.Error); ok {
		return zero, newStatusError(method, status)
	}
	if status, ok := envelopeStatus(frame.Result); ok {
		return zero, newStatusError(method, status)
	}

	var v T
	if isNull(frame.Result) {
		return v, nil
	}

	decodeErr := json.Unmarshal(frame.Result, &v)
	if decodeErr == nil {
		return v, nil
	}

	var loose struct {
		Status *string `json:"status"`
	}
	if err := json.Unmarshal(frame.Result, &loose); err == nil && loose.Status != nil {
		return zero, newStatusError(method, *loose.Status)
	}

	return zero, &TransportError{Method: method, Err: fmt.Errorf("decoding result: %w", decodeErr)}
}

// envelopeStatus reports the message of a result that is exactly {"status": "<message>"}.
func envelopeStatus(raw json.RawMessage) (string, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || len(obj) != 1 {
		return "", false
	}

	rawStatus, ok := obj["status"]
	if !ok {
		return "", false
	}

	var status string
	if err := json.Unmarshal(rawStatus, &status); err != nil {
		return "", false
	}
	return status, true
}

// errorStatus extracts a message from the error member, which is either
// {"status": "..."}, {"message": "..."}, or a bare string.
func errorStatus(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}

	var obj struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Status != "" {
			return obj.Status, true
		}
		if obj.Message != "" {
			return obj.Message, true
		}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s, true
	}

	return string(raw), true
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func outcomeOf(err error) string {
	if err == nil {
		return obs.OutcomeOK
	}

	var se *StatusError
	if errors.As(err, &se) {
		if se.Expired {
			return obs.OutcomeExpired
		}
		return obs.OutcomeStatus
	}
	return obs.OutcomeTransport
}
