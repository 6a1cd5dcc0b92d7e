// Package api is the REST client of the booking API.
//
// Responses use the envelope {success, data, message, error}. The client
// decodes it once: callers receive either the decoded data or an *Error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/meeting-room-portal/internal/logging"
)

const maxResponseBytes = 8 << 20

// TokenSource supplies the bearer token attached to outgoing requests.
type TokenSource interface {
	Token(ctx context.Context) string
}

// UnauthorizedHandler runs synchronously for every 401 response, before the
// failing call returns.
type UnauthorizedHandler interface {
	HandleUnauthorized(ctx context.Context)
}

// UnauthorizedFunc adapts a function to UnauthorizedHandler.
type UnauthorizedFunc func(ctx context.Context)

// HandleUnauthorized calls f.
func (f UnauthorizedFunc) HandleUnauthorized(ctx context.Context) {
	f(ctx)
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	RequestID  func() string
}

// Envelope is the uniform response wrapper of the booking API.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Client performs authenticated requests against the booking API.
type Client struct {
	baseURL      string
	http         *http.Client
	tokens       TokenSource
	unauthorized UnauthorizedHandler
	requestID    func() string
	logger       *slog.Logger
}

// New constructs a Client. When cfg.HTTPClient is nil a client with
// cfg.Timeout (10s when unset) is created.
func New(cfg Config, tokens TokenSource, unauthorized UnauthorizedHandler, logger *slog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("api: invalid base URL %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	requestID := cfg.RequestID
	if requestID == nil {
		requestID = uuid.NewString
	}

	return &Client{
		baseURL:      base,
		http:         httpClient,
		tokens:       tokens,
		unauthorized: unauthorized,
		requestID:    requestID,
		logger:       logging.Default(logger),
	}, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get fetches path with the given query and decodes the envelope data into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", out)
}

// Post sends body as JSON.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out)
}

// Put sends body as JSON.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, body, out)
}

// Patch sends body as JSON.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPatch, path, body, out)
}

// Delete removes the resource at path.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, "", out)
}

// Upload posts form as multipart/form-data.
func (c *Client) Upload(ctx context.Context, path string, form Form, out any) error {
	body, contentType, err := form.encode()
	if err != nil {
		return &Error{Kind: KindTransport, Message: "failed to encode upload", Err: err}
	}
	return c.do(ctx, http.MethodPost, path, nil, body, contentType, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	if body == nil {
		return c.do(ctx, method, path, nil, nil, "application/json", out)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return &Error{Kind: KindTransport, Message: "failed to encode request", Err: err}
	}
	return c.do(ctx, method, path, nil, bytes.NewReader(payload), "application/json", out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	requestID := c.requestID()
	logger := logging.Component(ctx, c.logger, "api", method, "path", path, "request_id", requestID)

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return &Error{Kind: KindTransport, Message: "failed to build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.WarnContext(ctx, "request failed without response", "error", err)
		return &Error{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		logger.WarnContext(ctx, "failed to read response body", "status", resp.StatusCode, "error", err)
		return &Error{Kind: KindTransport, Status: resp.StatusCode, Err: err}
	}

	var envelope Envelope
	var decodeErr error
	if len(bytes.TrimSpace(raw)) > 0 {
		decodeErr = json.Unmarshal(raw, &envelope)
	} else {
		decodeErr = errors.New("empty response body")
	}

	logger = logger.With("status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		logger.InfoContext(ctx, "request unauthorized, clearing session")
		if c.unauthorized != nil {
			c.unauthorized.HandleUnauthorized(context.WithoutCancel(ctx))
		}
		return &Error{Kind: KindUnauthorized, Status: resp.StatusCode, Message: envelope.Message, Code: envelope.Error}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.WarnContext(ctx, "request rejected", "message", envelope.Message, "error_code", envelope.Error)
		return &Error{Kind: KindRejected, Status: resp.StatusCode, Message: envelope.Message, Code: envelope.Error}
	}

	if resp.StatusCode == http.StatusNoContent {
		logger.DebugContext(ctx, "request completed")
		return nil
	}
	if decodeErr != nil {
		logger.WarnContext(ctx, "failed to decode envelope", "error", decodeErr)
		return &Error{Kind: KindDecode, Status: resp.StatusCode, Err: decodeErr}
	}
	if !envelope.Success {
		logger.WarnContext(ctx, "request reported failure", "message", envelope.Message, "error_code", envelope.Error)
		return &Error{Kind: KindRejected, Status: resp.StatusCode, Message: envelope.Message, Code: envelope.Error}
	}

	if out != nil && len(envelope.Data) > 0 && !bytes.Equal(envelope.Data, []byte("null")) {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			logger.WarnContext(ctx, "failed to decode response data", "error", err)
			return &Error{Kind: KindDecode, Status: resp.StatusCode, Err: err}
		}
	}
	logger.DebugContext(ctx, "request completed")
	return nil
}
