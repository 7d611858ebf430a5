package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/settleflow/payment-orchestrator/internal/commerce/metrics"
	"github.com/settleflow/payment-orchestrator/internal/commerce/ports"
)

// TokenCacheKey is where the admin bearer token lives in the token cache.
const TokenCacheKey = "commerce:admin_token"

const (
	defaultAuthRetries    = 3
	defaultBackoffBase    = time.Second
	defaultRequestTimeout = 30 * time.Second
)

// Response is the normalized outcome of a commerce-backend call. Every remote
// outcome is a value: callers branch on Success, never on a returned error.
// A transport-level failure carries StatusCode 0 and the error message in Data.
type Response struct {
	Success    bool
	StatusCode int
	Data       map[string]any
}

// Config holds the connection settings for the commerce backend.
type Config struct {
	BaseURL        string
	AdminEmail     string
	AdminPassword  string
	PublishableKey string
	TokenTTL       time.Duration
	RequestTimeout time.Duration
}

// Executor issues requests against the commerce backend. Satisfied by Client;
// stubbed in orchestrator tests.
type Executor interface {
	Execute(ctx context.Context, endpoint, method string, payload map[string]any, params map[string]string) Response
}

// Client is an authenticated HTTP client for the commerce backend. Store
// endpoints authenticate with the publishable key; admin endpoints use a
// bearer token resolved through the token cache.
type Client struct {
	cfg         Config
	httpClient  *http.Client
	cache       ports.TokenCache
	logger      *slog.Logger
	authRetries int
	backoffBase time.Duration
	metrics     *metrics.Metrics
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithAuthRetries overrides the login attempt ceiling.
func WithAuthRetries(retries int) Option {
	return func(c *Client) {
		c.authRetries = retries
	}
}

// WithBackoffBase overrides the first login retry delay.
func WithBackoffBase(base time.Duration) Option {
	return func(c *Client) {
		c.backoffBase = base
	}
}

// WithMetrics enables instrumentation of token refreshes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient wires a Client against the configured backend.
func NewClient(cfg Config, cache ports.TokenCache, logger *slog.Logger, opts ...Option) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	client := &Client{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: timeout},
		cache:       cache,
		logger:      logger,
		authRetries: defaultAuthRetries,
		backoffBase: defaultBackoffBase,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Authenticate resolves an admin bearer token: cache first, then a login call
// with bounded retries and exponential backoff. The token is cached with the
// configured TTL regardless of any server-declared expiry.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	if token, ok := c.cache.Get(ctx, TokenCacheKey); ok {
		c.logger.DebugContext(ctx, "using cached commerce token")
		return token, nil
	}

	for attempt := 0; attempt < c.authRetries; attempt++ {
		token, err := c.login(ctx)
		if err == nil {
			c.cache.Set(ctx, TokenCacheKey, token, c.cfg.TokenTTL)
			if c.metrics != nil {
				c.metrics.RecordAuthRefresh(ctx)
			}
			c.logger.InfoContext(ctx, "commerce token cached")
			return token, nil
		}

		c.logger.WarnContext(ctx, "commerce auth attempt failed",
			"attempt", attempt+1,
			"max_attempts", c.authRetries,
			"error", err,
		)

		if attempt < c.authRetries-1 {
			wait := c.backoffBase << attempt
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	return "", fmt.Errorf("commerce auth failed after %d attempts", c.authRetries)
}

func (c *Client) login(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{
		"email":    c.cfg.AdminEmail,
		"password": c.cfg.AdminPassword,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/auth/user/emailpass", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login returned status %d", resp.StatusCode)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if payload.Token == "" {
		return "", fmt.Errorf("login response carried no token")
	}

	return payload.Token, nil
}

// Execute issues a call against the commerce backend and classifies the
// outcome. Admin calls retry exactly once on 401 after invalidating the
// cached token; the retry ceiling is the loop bound, never recursion.
func (c *Client) Execute(ctx context.Context, endpoint, method string, payload map[string]any, params map[string]string) Response {
	isStore := strings.Contains(endpoint, "/store/")

	const maxAttempts = 2
	for attempt := 0; attempt < maxAttempts; attempt++ {
		retryable, resp := c.attempt(ctx, endpoint, method, payload, params, isStore)
		if !retryable {
			return resp
		}

		if resp.StatusCode == http.StatusUnauthorized && !isStore && attempt == 0 {
			c.cache.Delete(ctx, TokenCacheKey)
			c.logger.WarnContext(ctx, "commerce token rejected, retrying with fresh token", "endpoint", endpoint)
			continue
		}

		return resp
	}

	// Unreachable: the second pass always returns.
	return Response{Success: false, StatusCode: http.StatusUnauthorized}
}

// attempt performs one round trip. The bool is false when the outcome is
// terminal regardless of status (auth failure, transport failure).
func (c *Client) attempt(ctx context.Context, endpoint, method string, payload map[string]any, params map[string]string, isStore bool) (bool, Response) {
	headers := http.Header{}
	if isStore {
		headers.Set("x-publishable-api-key", c.cfg.PublishableKey)
	} else {
		token, err := c.Authenticate(ctx)
		if err != nil {
			return false, Response{
				Success:    false,
				StatusCode: http.StatusBadRequest,
				Data:       map[string]any{"message": "Authentication Failed"},
			}
		}
		headers.Set("Authorization", "Bearer "+token)
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return false, Response{Success: false, StatusCode: 0, Data: map[string]any{"message": err.Error()}}
		}
		body = bytes.NewReader(raw)
		headers.Set("Content-Type", "application/json")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+endpoint, body)
	if err != nil {
		return false, Response{Success: false, StatusCode: 0, Data: map[string]any{"message": err.Error()}}
	}
	req.Header = headers

	if len(params) > 0 {
		query := url.Values{}
		for key, value := range params {
			query.Set(key, value)
		}
		req.URL.RawQuery = query.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "commerce request error", "endpoint", endpoint, "error", err)
		return false, Response{Success: false, StatusCode: 0, Data: map[string]any{"message": err.Error()}}
	}
	defer resp.Body.Close()

	return true, c.classify(resp, endpoint)
}

func (c *Client) classify(resp *http.Response, endpoint string) Response {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		data := map[string]any{}
		if resp.StatusCode != http.StatusNoContent {
			data = decodeLoose(resp.Body)
		}
		return Response{Success: true, StatusCode: resp.StatusCode, Data: data}
	default:
		c.logger.WarnContext(resp.Request.Context(), "commerce request failed",
			"endpoint", endpoint,
			"status", resp.StatusCode,
		)
		return Response{Success: false, StatusCode: resp.StatusCode, Data: decodeLoose(resp.Body)}
	}
}

// decodeLoose parses a JSON object body, falling back to wrapping non-JSON
// text under a message key.
func decodeLoose(body io.Reader) map[string]any {
	raw, err := io.ReadAll(body)
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}
	}

	data := map[string]any{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return map[string]any{"message": string(raw)}
	}
	return data
}
