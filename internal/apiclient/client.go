// internal/apiclient/client.go
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	xerrors "carbon-portal/internal/pkg/errors"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// TokenSource supplies the bearer token attached to authenticated calls.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// UnauthorizedHandler is invoked when an authenticated call comes back 401.
type UnauthorizedHandler func(ctx context.Context)

// StatusError is a non-2xx answer (or success:false) that is neither a
// server failure nor an authenticated 401.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.StatusCode, e.Message)
}

// envelope mirrors response.Response on the wire.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type requestOptions struct {
	anonymous bool
	token     string
}

type RequestOption func(*requestOptions)

// Anonymous sends the call without a bearer token and keeps a 401 answer
// from triggering the unauthorized hook.
func Anonymous() RequestOption {
	return func(o *requestOptions) { o.anonymous = true }
}

// WithToken sends the call with token instead of reading the token source.
func WithToken(token string) RequestOption {
	return func(o *requestOptions) { o.token = token }
}

// Client is the shared request layer every API call goes through.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *zap.Logger

	mu             sync.RWMutex
	onUnauthorized UnauthorizedHandler
}

func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		logger:     logger,
	}
}

// OnUnauthorized installs the 401 hook, replacing any previous one.
func (c *Client) OnUnauthorized(h UnauthorizedHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = h
}

// Do sends a JSON request to path and decodes the envelope's data into out
// (out may be nil). Errors are ErrNetwork, ErrServer, ErrUnauthorized, a
// storage error from the token source, or *StatusError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	requestID := ulid.Make().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if !o.anonymous {
		token := o.token
		if token == "" {
			if token, err = c.tokens.AccessToken(ctx); err != nil {
				return err
			}
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("api call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %s %s: %v", xerrors.ErrNetwork, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", xerrors.ErrNetwork, err)
	}

	c.logger.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", requestID),
	)

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := messageOf(env, decodeErr, raw, resp.Status)
		switch {
		case resp.StatusCode == http.StatusUnauthorized && !o.anonymous:
			c.fireUnauthorized(ctx)
			return fmt.Errorf("%w: %s", xerrors.ErrUnauthorized, msg)
		case resp.StatusCode >= 500:
			return fmt.Errorf("%w: status %d: %s", xerrors.ErrServer, resp.StatusCode, msg)
		default:
			return &StatusError{StatusCode: resp.StatusCode, Message: msg}
		}
	}

	if decodeErr != nil {
		return fmt.Errorf("%w: malformed response body: %v", xerrors.ErrServer, decodeErr)
	}
	if !env.Success {
		return &StatusError{StatusCode: resp.StatusCode, Message: messageOf(env, nil, raw, "request rejected")}
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: malformed response data: %v", xerrors.ErrServer, err)
		}
	}
	return nil
}

func (c *Client) fireUnauthorized(ctx context.Context) {
	c.mu.RLock()
	h := c.onUnauthorized
	c.mu.RUnlock()
	if h != nil {
		h(ctx)
	}
}

func messageOf(env envelope, decodeErr error, raw []byte, fallback string) string {
	if decodeErr == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" && decodeErr != nil {
		if len(text) > 256 {
			text = text[:256]
		}
		return text
	}
	return fallback
}
