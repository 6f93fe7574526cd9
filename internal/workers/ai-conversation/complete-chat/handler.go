// internal/workers/ai-conversation/complete-chat/handler.go
package completechat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	httpclient "asha-assistant/internal/common/http"
	"asha-assistant/internal/common/metrics"
)

const ComponentName = "complete-chat"

const maxResponseBytes = 2 << 20

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Client talks to an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	config      *Config
	client      *httpclient.Client
	diagnostics DiagnosticsRecorder
	logger      Logger
}

type Option func(*Client)

func WithDiagnostics(d DiagnosticsRecorder) Option {
	return func(c *Client) { c.diagnostics = d }
}

func NewClient(config *Config, hc *httpclient.Client, log Logger, opts ...Option) *Client {
	if hc == nil {
		// Deadlines come from the request context.
		hc = httpclient.NewClient(0)
	}
	c := &Client{
		config: config,
		client: hc,
		logger: log.With(map[string]interface{}{
			"component": ComponentName,
			"kind":      config.Kind,
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type callResult struct {
	content string
	err     error
}

// Complete returns the content of the first choice. It returns ErrProviderTimeout once
// the configured timeout passes, without waiting for the HTTP call to unwind.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	start := time.Now()

	if strings.TrimSpace(c.config.APIKey) == "" {
		err := authError(0, errors.New("api key is not configured"))
		c.observe(start, err)
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		content, err := c.call(callCtx, req)
		done <- callResult{content: content, err: err}
	}()

	var content string
	var err error
	select {
	case r := <-done:
		content, err = r.content, r.err
	case <-callCtx.Done():
		err = callCtx.Err()
	}
	if err != nil && callCtx.Err() != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s", ErrProviderTimeout, c.config.Timeout)
		} else {
			err = &ProviderError{Kind: KindNetwork, Err: callCtx.Err()}
		}
	}

	c.observe(start, err)
	return content, err
}

func (c *Client) call(ctx context.Context, req CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.config.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}

	payload := chatRequest{
		Model:       model,
		Messages:    req.Messages,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}
	if req.JSON {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", malformedError(fmt.Errorf("encode request: %w", err))
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &ProviderError{Kind: KindNetwork, Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", transportError(fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(raw)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return "", statusError(resp.StatusCode, snippet)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", malformedError(fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", malformedError(errors.New("response has no choices"))
	}
	content := parsed.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", malformedError(errors.New("first choice has empty content"))
	}
	return content, nil
}

func (c *Client) observe(start time.Time, err error) {
	elapsed := time.Since(start)
	kind := c.config.Kind

	result := "ok"
	if err != nil {
		result = string(KindOf(err))
	}
	metrics.LLMCalls.WithLabelValues(kind, result).Inc()
	metrics.LLMCallDuration.WithLabelValues(kind).Observe(elapsed.Seconds())

	if c.diagnostics != nil {
		c.diagnostics.Record("llm:"+kind, elapsed, err == nil)
	}

	if err != nil {
		c.logger.Warn("completion failed", map[string]interface{}{
			"result":    result,
			"error":     err.Error(),
			"latencyMs": elapsed.Milliseconds(),
		})
		return
	}
	c.logger.Info("completion succeeded", map[string]interface{}{
		"latencyMs": elapsed.Milliseconds(),
	})
}
