package bootstrap

import (
	"context"
	"database/sql"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-insight/internal/analyzer"
	"resume-insight/internal/cache"
	"resume-insight/internal/extract"
	"resume-insight/internal/llm"
	"resume-insight/internal/llm/ollama"
	"resume-insight/internal/reports"
	"resume-insight/internal/scorer"
	"resume-insight/internal/shared/config"
	"resume-insight/internal/shared/server"
	"resume-insight/internal/shared/storage/db"
	"resume-insight/internal/shared/telemetry"
)

// App holds shared dependencies built once at startup.
type App struct {
	Config config.Config
	Router *gin.Engine

	DB     *sql.DB
	Cache  *cache.Store
	Ledger *llm.Ledger
	LLM    llm.Client

	ReportsRepo     reports.Repo
	ReportsService  *reports.Service
	AnalyzerService *analyzer.Service
	ScorerService   *scorer.Service

	AnalysisHandler *analyzer.Handler
	ScoreHandler    *scorer.Handler
	ReportsHandler  *reports.Handler
	ExtractHandler  *extract.Handler
}

// Build prepares dependencies and wires the router. A missing or unreachable
// database degrades to in-memory persistence instead of failing startup.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB := buildDB(ctx, cfg)

	store := cache.New(cache.Options{
		MemoryMaxEntries: cfg.CacheMemoryEntries,
		Dir:              cfg.CacheDir,
		DiskMaxBytes:     cfg.CacheDiskMaxBytes,
		DiskMaxAge:       cfg.CacheDiskMaxAge,
	})

	ledger := llm.NewLedger()
	client, err := ollama.NewClient(cfg.OllamaHost, cfg.OllamaModel, ledger)
	if err != nil {
		return nil, err
	}

	genCfg := llm.GenerateConfig{
		Model:       cfg.OllamaModel,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.RequestTimeout,
		MaxRetries:  cfg.MaxRetries,
	}

	var repo reports.Repo
	if sqlDB != nil {
		repo = &reports.PGRepo{DB: sqlDB}
	} else {
		repo = reports.NewMemoryRepo()
	}
	reportsSvc := &reports.Service{Repo: repo}

	analyzerSvc := &analyzer.Service{
		LLM:      client,
		Cache:    store,
		Recorder: reportsSvc,
		Config:   genCfg,
	}
	scorerSvc := &scorer.Service{
		LLM:      client,
		Cache:    store,
		Recorder: reportsSvc,
		Config:   genCfg,
	}

	app := &App{
		Config:          cfg,
		DB:              sqlDB,
		Cache:           store,
		Ledger:          ledger,
		LLM:             client,
		ReportsRepo:     repo,
		ReportsService:  reportsSvc,
		AnalyzerService: analyzerSvc,
		ScorerService:   scorerSvc,
		AnalysisHandler: analyzer.NewHandler(analyzerSvc, ledger, store),
		ScoreHandler:    scorer.NewHandler(scorerSvc),
		ReportsHandler:  reports.NewHandler(reportsSvc),
		ExtractHandler:  &extract.Handler{},
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		AnalysisHandler: app.AnalysisHandler,
		ScoreHandler:    app.ScoreHandler,
		ReportsHandler:  app.ReportsHandler,
		ExtractHandler:  app.ExtractHandler,
	})

	return app, nil
}

// Close releases held resources.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

func buildDB(ctx context.Context, cfg config.Config) *sql.DB {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil
	}
	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	conn, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Warn("db.connect_failed", map[string]any{"error": err.Error()})
		return nil
	}
	if err := db.RunMigrations(ctx, conn); err != nil {
		telemetry.Warn("db.migrate_failed", map[string]any{"error": err.Error()})
		conn.Close()
		return nil
	}
	return conn
}
