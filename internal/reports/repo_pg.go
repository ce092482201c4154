package reports

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// SaveAnalysis inserts a new analysis record.
func (r *PGRepo) SaveAnalysis(ctx context.Context, rec AnalysisRecord) error {
	const query = `
INSERT INTO analyses (id, user_id, kind, result, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.Kind, []byte(rec.Result), rec.CreatedAt)
	return err
}

// GetLatestAnalysis returns the newest analysis of the given kind.
func (r *PGRepo) GetLatestAnalysis(ctx context.Context, userID, kind string) (AnalysisRecord, error) {
	const query = `
SELECT id, user_id, kind, result, created_at
FROM analyses
WHERE user_id = $1 AND kind = $2
ORDER BY created_at DESC
LIMIT 1`
	var rec AnalysisRecord
	var result []byte
	err := r.DB.QueryRowContext(ctx, query, userID, kind).Scan(
		&rec.ID, &rec.UserID, &rec.Kind, &result, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return AnalysisRecord{}, ErrNotFound
	}
	if err != nil {
		return AnalysisRecord{}, err
	}
	rec.Result = result
	return rec, nil
}

// SaveScore inserts a new score record.
func (r *PGRepo) SaveScore(ctx context.Context, rec ScoreRecord) error {
	const query = `
INSERT INTO scores (id, user_id, overall_score, classification, report, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.DB.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.Overall, rec.Classification, []byte(rec.Report), rec.CreatedAt)
	return err
}

// GetScoreHistory returns up to limit scores, newest first.
func (r *PGRepo) GetScoreHistory(ctx context.Context, userID string, limit int) ([]ScoreRecord, error) {
	const query = `
SELECT id, user_id, overall_score, classification, report, created_at
FROM scores
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.DB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScoreRecord
	for rows.Next() {
		var rec ScoreRecord
		var report []byte
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Overall, &rec.Classification, &report, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Report = report
		out = append(out, rec)
	}
	return out, rows.Err()
}
