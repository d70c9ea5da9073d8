// internal/lmstudio/client.go
// Package: lmstudio
package lmstudio

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mwiater/lmbench/internal/logging"
	"github.com/mwiater/lmbench/internal/results"
)

const (
	// DefaultBaseURL is the LM Studio local server.
	DefaultBaseURL = "http://localhost:1234"
	// DefaultRequestTimeout bounds one chat completion.
	DefaultRequestTimeout = 300 * time.Second
	// FallbackModel is sent when the server lists no model.
	FallbackModel = "local-model"
)

// Client issues chat completions against an OpenAI-compatible LM Studio server.
// Every call is a single synchronous request; there are no retries.
type Client struct {
	// APIBase is the server root including /v1, e.g. "http://localhost:1234/v1".
	APIBase string

	api        *openai.Client
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout for completions.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHTTPClient replaces the tuned default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// NewClient returns a client for baseURL. Both "http://host:1234" and
// "http://host:1234/v1" are accepted.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		APIBase:    APIBase(baseURL),
		httpClient: newHTTPClient(),
		timeout:    DefaultRequestTimeout,
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	cfg := openai.DefaultConfig("lm-studio")
	cfg.BaseURL = c.APIBase
	cfg.HTTPClient = c.httpClient
	c.api = openai.NewClientWithConfig(cfg)
	return c
}

// APIBase normalises a server URL so it ends in /v1 without a trailing slash.
func APIBase(baseURL string) string {
	u := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if u == "" {
		u = DefaultBaseURL
	}
	if !strings.HasSuffix(u, "/v1") {
		u += "/v1"
	}
	return u
}

// Timeout returns the configured completion timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Send performs exactly one chat completion and returns the resulting record.
// Failures are never returned as errors: a timeout yields status "timeout"
// and anything else "error: <description>", with elapsed time measured up to
// the failure.
func (c *Client) Send(ctx context.Context, req results.Request) results.Record {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	sent := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, chatRequest(req))
	elapsed := time.Since(sent)
	received := time.Now()

	if err != nil {
		if isTimeout(ctx, err) {
			c.logger.Warn("request timeout", "model", req.Model, "elapsed", elapsed.Round(time.Millisecond))
			return results.NewFailure(req, sent, received, elapsed, results.Timeout())
		}
		c.logger.Error("request error", "model", req.Model, "error", err)
		return results.NewFailure(req, sent, received, elapsed, results.Failure(err.Error()))
	}
	if len(resp.Choices) == 0 {
		c.logger.Error("request error", "model", req.Model, "error", "no choices in response")
		return results.NewFailure(req, sent, received, elapsed, results.Failure("no choices in response"))
	}

	content := resp.Choices[0].Message.Content
	usage := results.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	c.logger.Info("request completed",
		"model", req.Model,
		"elapsed", elapsed.Round(time.Millisecond),
		"prompt_chars", len([]rune(req.Prompt)),
		"response_chars", len([]rune(content)),
	)
	return results.NewSuccess(req, sent, received, elapsed, content, usage)
}

// DetectModel returns the first model the server lists, or FallbackModel.
func (c *Client) DetectModel(ctx context.Context, timeout time.Duration) string {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	list, err := c.api.ListModels(ctx)
	if err != nil {
		c.logger.Warn("model detection failed, using fallback", "fallback", FallbackModel, "error", err)
		return FallbackModel
	}
	if len(list.Models) == 0 {
		c.logger.Warn("no models found, using fallback", "fallback", FallbackModel)
		return FallbackModel
	}
	c.logger.Info("model detected", "model", list.Models[0].ID)
	return list.Models[0].ID
}

// chatRequest builds the non-streaming completion body. go-openai drops
// zero-valued fields, so "stream": false is left to the server default and a
// temperature of 0 is sent as the smallest positive float32, which the
// library documents as its way of requesting zero.
func chatRequest(req results.Request) openai.ChatCompletionRequest {
	temp := float32(req.Temperature)
	if temp == 0 {
		temp = math.SmallestNonzeroFloat32
	}
	return openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: temp,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	}
}

// isTimeout distinguishes our own deadline from other failures. A cancelled
// parent context is an error, not a timeout.
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// newHTTPClient returns a tuned HTTP client with keep-alives. Request
// deadlines come from the context, not from http.Client.Timeout.
func newHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	return &http.Client{Transport: transport}
}
