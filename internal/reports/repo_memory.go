package reports

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores records in memory and is safe for concurrent use.
// Used in tests and when no DATABASE_URL is configured.
type MemoryRepo struct {
	mu       sync.RWMutex
	analyses map[string][]AnalysisRecord
	scores   map[string][]ScoreRecord
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		analyses: make(map[string][]AnalysisRecord),
		scores:   make(map[string][]ScoreRecord),
	}
}

// SaveAnalysis stores the record.
func (r *MemoryRepo) SaveAnalysis(ctx context.Context, rec AnalysisRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyses[rec.UserID] = append(r.analyses[rec.UserID], rec)
	return nil
}

// GetLatestAnalysis returns the newest analysis of the given kind.
func (r *MemoryRepo) GetLatestAnalysis(ctx context.Context, userID, kind string) (AnalysisRecord, error) {
	if err := ctx.Err(); err != nil {
		return AnalysisRecord{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *AnalysisRecord
	for i := range r.analyses[userID] {
		rec := &r.analyses[userID][i]
		if rec.Kind != kind {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return AnalysisRecord{}, ErrNotFound
	}
	return *latest, nil
}

// SaveScore stores the record.
func (r *MemoryRepo) SaveScore(ctx context.Context, rec ScoreRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores[rec.UserID] = append(r.scores[rec.UserID], rec)
	return nil
}

// GetScoreHistory returns up to limit scores, newest first.
func (r *MemoryRepo) GetScoreHistory(ctx context.Context, userID string, limit int) ([]ScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]ScoreRecord(nil), r.scores[userID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
