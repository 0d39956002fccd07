// Package api is the REST client for the storefront backend and its payment
// gateway. Authentication failures are handled here once, not at every call
// site: a 401 clears the session through the configured hook and surfaces as
// ErrUnauthorized.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
)

var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// TokenSource supplies the bearer token attached to every request.
type TokenSource interface {
	Token() string
}

type Client struct {
	baseURL        string
	httpc          *http.Client
	tokens         TokenSource
	onUnauthorized func()
	breaker        *gobreaker.CircuitBreaker[*domain.Transaction]
	sfg            singleflight.Group
	log            *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithUnauthorizedHandler installs the forced-logout hook invoked on 401.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func NewClient(baseURL string, tokens TokenSource, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpc: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tokens: tokens,
		log:    log,
	}

	// The payment path gets a circuit breaker so a flapping gateway fails
	// fast instead of piling up checkout attempts.
	c.breaker = gobreaker.NewCircuitBreaker[*domain.Transaction](gobreaker.Settings{
		Name:        "transactions",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	StatusCode int             `json:"statusCode"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return fmt.Errorf("%w: %s", ErrUnauthorized, env.Message)
	}
	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}

	if out != nil {
		data := env.Data
		if len(data) == 0 {
			data = raw
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}
