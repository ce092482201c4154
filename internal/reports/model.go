// Package reports persists analysis results and score reports per user and
// serves their read endpoints. The analysis and scoring services hand over
// finished results; nothing here recomputes anything.
package reports

import (
	"encoding/json"
	"time"
)

// AnalysisRecord is one persisted analysis result.
type AnalysisRecord struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Kind      string          `json:"kind"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

// ScoreRecord is one persisted score report.
type ScoreRecord struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	Overall        int             `json:"overall_score"`
	Classification string          `json:"classification"`
	Report         json.RawMessage `json:"report"`
	CreatedAt      time.Time       `json:"created_at"`
}
