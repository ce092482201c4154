package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-insight/internal/analyzer"
	"resume-insight/internal/extract"
	"resume-insight/internal/reports"
	"resume-insight/internal/scorer"
	"resume-insight/internal/shared/config"
	"resume-insight/internal/shared/metrics"
	"resume-insight/internal/shared/server/middleware"
	"resume-insight/internal/shared/server/respond"
)

const llmRateLimitGroup = "LLM"

// RouterDeps carries the pre-built handlers wired into the engine.
type RouterDeps struct {
	Config          config.Config
	AnalysisHandler *analyzer.Handler
	ScoreHandler    *scorer.Handler
	ReportsHandler  *reports.Handler
	ExtractHandler  *extract.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Identity(),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())

	// Model-backed routes get a tighter budget than read-only ones.
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		GroupFor: llmRouteGroup,
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT":         {Rate: 10, Burst: 30},
			llmRateLimitGroup: {Rate: 1, Burst: 5},
		},
	}))

	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
	}
	if deps.ScoreHandler != nil {
		deps.ScoreHandler.RegisterRoutes(api)
	}
	if deps.ReportsHandler != nil {
		deps.ReportsHandler.RegisterRoutes(api)
	}
	if deps.ExtractHandler != nil {
		deps.ExtractHandler.RegisterRoutes(api)
	}

	return r
}

func llmRouteGroup(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return ""
	}
	path := c.FullPath()
	if strings.HasPrefix(path, "/api/v1/analysis/") || path == "/api/v1/score" {
		return llmRateLimitGroup
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
