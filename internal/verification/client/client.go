// Package client calls the issuance service on behalf of verification.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"kubecred/internal/verification/metrics"
	dErrors "kubecred/pkg/domain-errors"
	"kubecred/pkg/platform/circuit"
	"kubecred/pkg/platform/sentinel"
	"kubecred/pkg/platform/tracer"
	"kubecred/pkg/requestcontext"
)

const maxResponseBytes = 1 << 20

// Client is an HTTP client for the issuance API. Every call is bounded by
// the configured timeout and guarded by a circuit breaker.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	breaker *circuit.Breaker
	tracer  tracer.Tracer
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		if b != nil {
			c.breaker = b
		}
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the issuance service at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL: baseURL,
		timeout: timeout,
		http:    &http.Client{},
		breaker: circuit.New("issuance"),
		tracer:  tracer.NewNoop(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type response struct {
	status int
	body   []byte
}

func (r *response) decode(v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return fmt.Errorf("%w: decode issuance response: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

// do sends one request. Transport failures, 5xx answers and an open circuit
// return sentinel.ErrUnavailable; a timeout returns a CodeTimeout domain error.
func (c *Client) do(ctx context.Context, operation, method, path string, body any) (resp *response, err error) {
	if !c.breaker.Allow() {
		c.metrics.ObserveUpstream(operation, "rejected", 0)
		return nil, fmt.Errorf("%w: issuance circuit open", sentinel.ErrUnavailable)
	}

	ctx, span := c.tracer.Start(ctx, operation,
		tracer.String(tracer.AttrCircuitState, c.breaker.State().String()),
	)
	defer func() { span.End(err) }()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode issuance request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build issuance request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	start := time.Now()
	httpResp, err := c.http.Do(req)
	if err != nil {
		c.recordFailure(ctx)
		if isTimeout(err) {
			c.metrics.ObserveUpstream(operation, "timeout", time.Since(start))
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "issuance service timed out")
		}
		c.metrics.ObserveUpstream(operation, "error", time.Since(start))
		return nil, fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		c.recordFailure(ctx)
		if isTimeout(err) {
			c.metrics.ObserveUpstream(operation, "timeout", time.Since(start))
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "issuance service timed out")
		}
		c.metrics.ObserveUpstream(operation, "error", time.Since(start))
		return nil, fmt.Errorf("%w: read issuance response: %w", sentinel.ErrUnavailable, err)
	}

	elapsed := time.Since(start)
	span.SetAttributes(
		tracer.Int(tracer.AttrHTTPStatus, httpResp.StatusCode),
		tracer.Duration(tracer.AttrLatencyMs, elapsed),
	)

	if httpResp.StatusCode >= http.StatusInternalServerError {
		c.recordFailure(ctx)
		c.metrics.ObserveUpstream(operation, "error", elapsed)
		return nil, fmt.Errorf("%w: issuance answered %d", sentinel.ErrUnavailable, httpResp.StatusCode)
	}

	c.breaker.RecordSuccess()
	outcome := "ok"
	if httpResp.StatusCode == http.StatusNotFound {
		outcome = "not_found"
	}
	c.metrics.ObserveUpstream(operation, outcome, elapsed)
	return &response{status: httpResp.StatusCode, body: payload}, nil
}

func (c *Client) recordFailure(ctx context.Context) {
	if change := c.breaker.RecordFailure(); change.Opened {
		c.metrics.IncCircuitOpened()
		c.logger.WarnContext(ctx, "issuance circuit opened", "breaker", c.breaker.Name())
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func credentialPath(id string) string {
	return "/api/credentials/" + url.PathEscape(id)
}
