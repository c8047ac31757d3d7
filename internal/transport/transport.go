// Package transport performs single HTTP requests against the MyPatients API:
// base URL resolution, bearer token attachment, error normalization and the
// 401 session teardown.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/mypatients/internal/observability/metrics"
	"github.com/wolfman30/mypatients/internal/session"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultUserAgent = "mypatients-go/0.1"

// Config controls how the transport behaves.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	UserAgent  string
	Logger     *slog.Logger
	Metrics    *metrics.ClientMetrics
}

// Request is one API call. A nil Body sends no body.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string
}

// Client issues requests on behalf of one session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	session    *session.Session
	logger     *slog.Logger
	metrics    *metrics.ClientMetrics
	tracer     trace.Tracer
}

// New creates a configured Client with sane defaults.
func New(cfg Config, sess *session.Session) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("transport: base URL is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("transport: invalid base URL: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if sess == nil {
		sess = session.New(nil, session.WithLogger(logger))
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		userAgent:  userAgent,
		session:    sess,
		logger:     logger,
		metrics:    cfg.Metrics,
		tracer:     otel.Tracer("mypatients.internal.transport"),
	}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Session returns the session the client authenticates with.
func (c *Client) Session() *session.Session { return c.session }

// Do performs the request and returns the raw 2xx body. Failures are *Error.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	ctx, span := c.tracer.Start(ctx, "transport.do", trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", req.Path),
	))
	defer span.End()

	token, err := c.session.Token(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.buildURL(req.Path, req.Query), body)
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	if req.Body != nil {
		ct := req.ContentType
		if ct == "" {
			ct = "application/json"
		}
		httpReq.Header.Set("Content-Type", ct)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.ObserveRequest(method, 0, time.Since(start).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, "no response")
		c.logger.Warn("api request failed",
			"method", method,
			"path", req.Path,
			"request_id", requestID,
			"error", err,
		)
		return nil, &Error{Msg: err.Error(), cause: err}
	}
	data, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	c.metrics.ObserveRequest(method, resp.StatusCode, time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if readErr != nil {
		span.RecordError(readErr)
		return nil, &Error{Msg: readErr.Error(), cause: readErr}
	}

	c.logger.Debug("api request",
		"method", method,
		"path", req.Path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}

	apiErr := decodeError(resp.StatusCode, data)
	span.SetStatus(codes.Error, apiErr.Msg)
	if resp.StatusCode == http.StatusUnauthorized {
		c.expire(ctx, token, req.Path)
	}
	return nil, apiErr
}

// expire runs teardown even when the caller's context is already done.
func (c *Client) expire(ctx context.Context, token, path string) {
	expired, err := c.session.Expire(context.WithoutCancel(ctx), token)
	if err != nil {
		c.logger.Error("session teardown failed", "path", path, "error", err)
		return
	}
	if expired {
		c.logger.Warn("session rejected by server", "path", path)
	}
}

func (c *Client) buildURL(path string, query url.Values) string {
	trimmedPath := "/" + strings.TrimLeft(path, "/")
	full := c.baseURL + trimmedPath
	if len(query) > 0 {
		full = full + "?" + query.Encode()
	}
	return full
}
