package llm

import (
	"sync"
	"time"
)

// charsPerToken is the rough character-to-token ratio used for estimates.
// The inference host does not report exact counts for every model, so the
// ledger tracks approximations only; the numbers are not billing-accurate.
const charsPerToken = 4

// EstimateTokens approximates the token count of text.
func EstimateTokens(text string) int {
	return len(text) / charsPerToken
}

// UsageRecord is one LLM call's estimated token cost.
type UsageRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	Model          string    `json:"model"`
	PromptTokens   int       `json:"prompt_tokens"`
	ResponseTokens int       `json:"response_tokens"`
	TotalTokens    int       `json:"total_tokens"`
}

// UsageStats aggregates the ledger.
type UsageStats struct {
	TotalTokens   int           `json:"total_tokens"`
	RequestsCount int           `json:"requests_count"`
	Calls         []UsageRecord `json:"api_calls_log"`
}

// Ledger is an append-only, process-wide record of token usage. It is an
// owned value injected into clients rather than a package global so tests
// can use a fresh instance per case. Records are never deleted except by an
// explicit Reset.
type Ledger struct {
	mu      sync.Mutex
	records []UsageRecord
	total   int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Add appends one call's usage.
func (l *Ledger) Add(model string, promptTokens, responseTokens int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec := UsageRecord{
		Timestamp:      time.Now().UTC(),
		Model:          model,
		PromptTokens:   promptTokens,
		ResponseTokens: responseTokens,
		TotalTokens:    promptTokens + responseTokens,
	}
	l.records = append(l.records, rec)
	l.total += rec.TotalTokens
}

// Stats returns running totals and a copy of the call log.
func (l *Ledger) Stats() UsageStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return UsageStats{
		TotalTokens:   l.total,
		RequestsCount: len(l.records),
		Calls:         append([]UsageRecord(nil), l.records...),
	}
}

// Reset drops all records and totals.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
	l.total = 0
}
