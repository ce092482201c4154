package reports

import "context"

// Repo defines persistence operations for analysis results and scores.
type Repo interface {
	SaveAnalysis(ctx context.Context, rec AnalysisRecord) error
	GetLatestAnalysis(ctx context.Context, userID, kind string) (AnalysisRecord, error)
	SaveScore(ctx context.Context, rec ScoreRecord) error
	GetScoreHistory(ctx context.Context, userID string, limit int) ([]ScoreRecord, error)
}
