package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// GenerateConfig controls a single model invocation.
type GenerateConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
}

// Attempt records one try against the inference host, kept for diagnostics.
type Attempt struct {
	Number  int           `json:"number"`
	Error   string        `json:"error,omitempty"`
	Backoff time.Duration `json:"backoff,omitempty"`
}

// RawResponse is the model's untyped reply plus per-call diagnostics.
type RawResponse struct {
	Text     string
	Model    string
	Attempts []Attempt
}

// ProbeResult reports inference-host connectivity. A probe never errors for
// an unreachable host; it reports Reachable=false instead.
type ProbeResult struct {
	Reachable       bool     `json:"reachable"`
	Host            string   `json:"host"`
	Message         string   `json:"message"`
	AvailableModels []string `json:"available_models,omitempty"`
	ModelAvailable  bool     `json:"model_available"`
}

// Client abstracts the inference host.
type Client interface {
	Generate(ctx context.Context, prompt string, cfg GenerateConfig) (RawResponse, error)
	Probe(ctx context.Context) ProbeResult
}

// ErrUnavailable is returned when the host cannot be reached or the retry
// budget is exhausted on transient failures.
var ErrUnavailable = errors.New("llm unavailable")

// RequestError marks a non-retryable failure: the request itself is wrong
// (malformed payload, unknown model) and repeating it cannot help.
type RequestError struct {
	Status int
	Reason string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("llm request rejected (status %d): %s", e.Status, e.Reason)
}

// IsRetryable reports whether err should consume retry budget.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var reqErr *RequestError
	return !errors.As(err, &reqErr)
}
