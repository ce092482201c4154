package analyzer

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-insight/internal/cache"
	"resume-insight/internal/llm"
	"resume-insight/internal/shared/server/middleware"
	"resume-insight/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the analyzer service.
type Handler struct {
	Svc    *Service
	Ledger *llm.Ledger
	Cache  *cache.Store
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, ledger *llm.Ledger, store *cache.Store) *Handler {
	return &Handler{Svc: svc, Ledger: ledger, Cache: store}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analysis/comprehensive", h.comprehensive)
	rg.POST("/analysis/:kind", h.analyze)
	rg.GET("/llm/status", h.llmStatus)
	rg.GET("/llm/tokens", h.tokenStats)
	rg.POST("/llm/tokens/reset", h.resetTokens)
	rg.POST("/cache/clear", h.clearCache)
}

type analyzeRequest struct {
	ResumeText      string             `json:"resume_text"`
	TargetRole      string             `json:"target_role"`
	JobDescription  string             `json:"job_description"`
	ExperienceLevel string             `json:"experience_level"`
	SeverityWeights map[string]float64 `json:"severity_weights"`
}

func (h *Handler) analyze(c *gin.Context) {
	kind := Kind(c.Param("kind"))
	if !ValidKind(kind) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown analysis kind", nil)
		return
	}

	var body analyzeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	res, err := h.Svc.Analyze(c.Request.Context(), middleware.UserIDFromContext(c), Request{
		Kind:            kind,
		ResumeText:      body.ResumeText,
		TargetRole:      body.TargetRole,
		JobDescription:  body.JobDescription,
		ExperienceLevel: body.ExperienceLevel,
		SeverityWeights: body.SeverityWeights,
	})
	if err != nil {
		respondAnalysisError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"result": res, "cached": res.Cached})
}

func (h *Handler) comprehensive(c *gin.Context) {
	var body analyzeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	res, err := h.Svc.ComprehensiveAnalysis(c.Request.Context(), middleware.UserIDFromContext(c), body.ResumeText)
	if err != nil {
		respondAnalysisError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, res)
}

func (h *Handler) llmStatus(c *gin.Context) {
	respond.JSON(c, http.StatusOK, h.Svc.Probe(c.Request.Context()))
}

func (h *Handler) tokenStats(c *gin.Context) {
	respond.JSON(c, http.StatusOK, h.Ledger.Stats())
}

func (h *Handler) resetTokens(c *gin.Context) {
	h.Ledger.Reset()
	respond.JSON(c, http.StatusOK, gin.H{"status": "reset"})
}

func (h *Handler) clearCache(c *gin.Context) {
	removed := h.Cache.Clear(c.Query("prefix"))
	respond.JSON(c, http.StatusOK, gin.H{"removed": removed})
}

func respondAnalysisError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, llm.ErrUnavailable):
		respond.Error(c, http.StatusServiceUnavailable, "llm_unavailable", "language model is unreachable, try again later", nil)
	case errors.Is(err, ErrParseFailure):
		respond.Error(c, http.StatusBadGateway, "parse_failure", "model response could not be interpreted", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "analysis failed", nil)
	}
}
