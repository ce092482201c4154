package reports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoSaveAnalysis(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	rec := AnalysisRecord{
		ID:        "analysis-1",
		UserID:    "user-1",
		Kind:      "strengths",
		Result:    json.RawMessage(`{"kind":"strengths"}`),
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO analyses").
		WithArgs(rec.ID, rec.UserID, rec.Kind, []byte(rec.Result), rec.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.SaveAnalysis(context.Background(), rec); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetLatestAnalysisNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("SELECT id, user_id, kind, result, created_at").
		WithArgs("user-1", "skills").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "kind", "result", "created_at"}))

	if _, err := repo.GetLatestAnalysis(context.Background(), "user-1", "skills"); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoScoreHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "user_id", "overall_score", "classification", "report", "created_at"}).
		AddRow("score-2", "user-1", 86, "Good", []byte(`{"overall_score":86}`), now).
		AddRow("score-1", "user-1", 74, "Average", []byte(`{"overall_score":74}`), now.Add(-time.Hour))

	mock.ExpectQuery("SELECT id, user_id, overall_score, classification, report, created_at").
		WithArgs("user-1", 5).
		WillReturnRows(rows)

	records, err := repo.GetScoreHistory(context.Background(), "user-1", 5)
	if err != nil {
		t.Fatalf("GetScoreHistory: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].Overall != 86 || records[0].Classification != "Good" {
		t.Errorf("records[0] = %+v", records[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestMemoryRepoLatestAndHistory(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Now().UTC()

	for i, kind := range []string{"strengths", "strengths", "skills"} {
		err := repo.SaveAnalysis(ctx, AnalysisRecord{
			ID:        "a" + string(rune('0'+i)),
			UserID:    "user-1",
			Kind:      kind,
			Result:    json.RawMessage(`{}`),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("SaveAnalysis: %v", err)
		}
	}

	latest, err := repo.GetLatestAnalysis(ctx, "user-1", "strengths")
	if err != nil {
		t.Fatalf("GetLatestAnalysis: %v", err)
	}
	if latest.ID != "a1" {
		t.Errorf("latest.ID = %q, want a1", latest.ID)
	}
	if _, err := repo.GetLatestAnalysis(ctx, "user-1", "job_match"); err != ErrNotFound {
		t.Errorf("missing kind: err = %v, want ErrNotFound", err)
	}

	for i := 0; i < 3; i++ {
		err := repo.SaveScore(ctx, ScoreRecord{
			ID:        "s" + string(rune('0'+i)),
			UserID:    "user-1",
			Overall:   60 + i,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("SaveScore: %v", err)
		}
	}
	history, err := repo.GetScoreHistory(ctx, "user-1", 2)
	if err != nil {
		t.Fatalf("GetScoreHistory: %v", err)
	}
	if len(history) != 2 || history[0].ID != "s2" || history[1].ID != "s1" {
		t.Errorf("history = %+v", history)
	}
}
