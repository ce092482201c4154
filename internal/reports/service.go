package reports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"resume-insight/internal/analyzer"
	"resume-insight/internal/scorer"
)

// Service adapts the Repo to the recorder interfaces the analyzer and
// scorer consume, assigning IDs and serializing payloads.
type Service struct {
	Repo Repo
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// SaveAnalysis persists a finished analysis result.
func (s *Service) SaveAnalysis(ctx context.Context, userID string, res analyzer.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return err
	}
	createdAt := res.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return s.Repo.SaveAnalysis(ctx, AnalysisRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      string(res.Kind),
		Result:    payload,
		CreatedAt: createdAt,
	})
}

// SaveScore persists a finished score report.
func (s *Service) SaveScore(ctx context.Context, userID string, report scorer.ScoreReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	createdAt := report.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return s.Repo.SaveScore(ctx, ScoreRecord{
		ID:             uuid.NewString(),
		UserID:         userID,
		Overall:        report.Overall,
		Classification: report.Classification,
		Report:         payload,
		CreatedAt:      createdAt,
	})
}

// LatestAnalysis returns the newest stored analysis of a kind.
func (s *Service) LatestAnalysis(ctx context.Context, userID, kind string) (AnalysisRecord, error) {
	return s.Repo.GetLatestAnalysis(ctx, userID, kind)
}

// ScoreHistory returns up to limit stored scores, newest first.
func (s *Service) ScoreHistory(ctx context.Context, userID string, limit int) ([]ScoreRecord, error) {
	return s.Repo.GetScoreHistory(ctx, userID, limit)
}
