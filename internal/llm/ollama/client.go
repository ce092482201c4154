package ollama

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

	"resume-insight/internal/llm"
	"resume-insight/internal/shared/metrics"
	"resume-insight/internal/shared/telemetry"
)

const (
	defaultHost    = "http://localhost:11434"
	defaultTimeout = 30 * time.Second
	probeTimeout   = 5 * time.Second
)

// Client talks to a locally hosted Ollama server.
type Client struct {
	host       string
	model      string
	ledger     *llm.Ledger
	backoff    llm.BackoffPolicy
	httpClient *http.Client
}

// NewClient constructs a client for the given host and default model. The
// ledger is required so every invocation is accounted for.
func NewClient(host, model string, ledger *llm.Ledger) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("OLLAMA_MODEL is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("token ledger is required")
	}
	if strings.TrimSpace(host) == "" {
		host = defaultHost
	}
	return &Client{
		host:       strings.TrimRight(host, "/"),
		model:      model,
		ledger:     ledger,
		backoff:    llm.DefaultBackoff,
		httpClient: &http.Client{},
	}, nil
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Generate issues the prompt and returns the raw completion. Transient
// failures (connection refused, timeout, 429, 5xx) are retried with
// exponential backoff up to cfg.MaxRetries attempts; request errors fail
// immediately. On success a usage record with estimated token counts is
// appended to the ledger.
func (c *Client) Generate(ctx context.Context, prompt string, cfg llm.GenerateConfig) (llm.RawResponse, error) {
	cfg = c.withDefaults(cfg)

	retrier := llm.NewRetrier(c.backoff, cfg.MaxRetries)
	var attempts []llm.Attempt
	var lastErr error

	for retrier.Begin() {
		start := time.Now()
		text, err := c.generateOnce(ctx, prompt, cfg)
		metrics.ObserveLLMCallDurationMs(float64(time.Since(start).Milliseconds()))

		if err == nil {
			attempts = append(attempts, llm.Attempt{Number: retrier.Attempt()})
			c.ledger.Add(cfg.Model, llm.EstimateTokens(prompt), llm.EstimateTokens(text))
			retrier.Observe(nil)
			return llm.RawResponse{Text: text, Model: cfg.Model, Attempts: attempts}, nil
		}

		lastErr = err
		delay, retry := retrier.Observe(err)
		attempts = append(attempts, llm.Attempt{Number: retrier.Attempt(), Error: err.Error(), Backoff: delay})
		if !retry {
			break
		}

		metrics.IncLLMRetry()
		telemetry.Warn("llm.retry", map[string]any{
			"attempt":     retrier.Attempt(),
			"max_retries": cfg.MaxRetries,
			"backoff_ms":  delay.Milliseconds(),
			"model":       cfg.Model,
			"error":       err.Error(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return llm.RawResponse{Attempts: attempts}, fmt.Errorf("%w: %v", llm.ErrUnavailable, ctx.Err())
		}
	}

	if !llm.IsRetryable(lastErr) {
		return llm.RawResponse{Attempts: attempts}, lastErr
	}
	metrics.IncLLMExhausted()
	return llm.RawResponse{Attempts: attempts}, fmt.Errorf("%w after %d attempts: %v", llm.ErrUnavailable, len(attempts), lastErr)
}

func (c *Client) withDefaults(cfg llm.GenerateConfig) llm.GenerateConfig {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = c.model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	return cfg
}

func (c *Client) generateOnce(ctx context.Context, prompt string, cfg llm.GenerateConfig) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(generateRequest{
		Model:  cfg.Model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: cfg.Temperature,
			NumPredict:  cfg.MaxTokens,
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("ollama request timeout after %s: %w", cfg.Timeout, err)
		}
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ollama response read: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		return "", &llm.RequestError{Status: resp.StatusCode, Reason: errorReason(body)}
	default:
		// 429 and 5xx are transient as far as the retry budget is concerned.
		return "", fmt.Errorf("ollama status %d: %s", resp.StatusCode, errorReason(body))
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("ollama response parse: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama error: %s", parsed.Error)
	}
	return parsed.Response, nil
}

// errorReason extracts the error message from an Ollama error body,
// falling back to the raw body text.
func errorReason(body []byte) string {
	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		return parsed.Error
	}
	return strings.TrimSpace(string(body))
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Probe checks connectivity and model availability via the tags endpoint.
// It never returns an error: an unreachable host yields Reachable=false.
func (c *Client) Probe(ctx context.Context) llm.ProbeResult {
	result := llm.ProbeResult{Host: c.host}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		result.Message = fmt.Sprintf("probe request build failed: %v", err)
		return result
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.Message = fmt.Sprintf("cannot connect to Ollama at %s: %v", c.host, err)
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		result.Message = fmt.Sprintf("Ollama returned status %d", resp.StatusCode)
		return result
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		result.Message = fmt.Sprintf("tags response parse failed: %v", err)
		return result
	}

	result.Reachable = true
	for _, m := range tags.Models {
		result.AvailableModels = append(result.AvailableModels, m.Name)
		if m.Name == c.model || strings.SplitN(m.Name, ":", 2)[0] == c.model {
			result.ModelAvailable = true
		}
	}
	if result.ModelAvailable {
		result.Message = fmt.Sprintf("model %q available", c.model)
	} else {
		result.Message = fmt.Sprintf("model %q not found; pull it with: ollama pull %s", c.model, c.model)
	}
	return result
}

var _ llm.Client = (*Client)(nil)
