package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/elee1766/lenschat/src/aisdk"
)

const (
	defaultTimeout = 120 * time.Second
	// maxResponseSize bounds how much of a response body is read.
	maxResponseSize = 10 << 20
)

// Config configures the provider HTTP client.
type Config struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *slog.Logger

	// RequestsPerMinute paces outbound requests. Zero disables pacing.
	RequestsPerMinute int
	BurstSize         int
}

// Client issues adapter requests over HTTP. It never retries.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	errors     *ErrorHandler
}

// NewClient creates a new provider client.
func NewClient(config Config) *Client {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "provider_client")

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if config.RequestsPerMinute > 0 {
		burst := config.BurstSize
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), burst)
	}

	return &Client{
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
		errors:     NewErrorHandler(logger),
	}
}

// Do sends req and returns the body of a 2xx response. Any other status is
// returned as an *APIError carrying the status code and raw body.
func (c *Client) Do(ctx context.Context, provider string, req *HTTPRequest) ([]byte, error) {
	logger := c.logger.With("method", "Do", "provider", provider)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Error("request failed", "error", err)
		return nil, fmt.Errorf("%s request failed: %w", provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	logger.Debug("response received", "status_code", resp.StatusCode, "bytes", len(body), "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(provider, resp.StatusCode, body, requestID(resp.Header))
	}
	return body, nil
}

// Complete builds the request with adapter, sends it and parses the reply.
func (c *Client) Complete(ctx context.Context, adapter Adapter, messages []*aisdk.Message, model *aisdk.ModelConfig, creds *aisdk.Credentials, opts Options) (string, error) {
	req, err := adapter.BuildRequest(messages, model, creds, opts)
	if err != nil {
		return "", c.errors.Handle(err, "build_request", slog.String("provider", adapter.ID()))
	}

	body, err := c.Do(ctx, adapter.ID(), req)
	if err != nil {
		return "", c.errors.Handle(err, "dispatch", slog.String("provider", adapter.ID()), slog.String("model", model.ModelID))
	}

	text, err := adapter.ParseResponse(body)
	if err != nil {
		return "", c.errors.Handle(err, "parse_response", slog.String("provider", adapter.ID()))
	}
	return text, nil
}

func requestID(h http.Header) string {
	for _, k := range []string{"X-Request-ID", "Request-Id", "X-Request-Id", "Anthropic-Request-Id"} {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return ""
}
