package reports

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resume-insight/internal/analyzer"
	"resume-insight/internal/shared/server/middleware"
	"resume-insight/internal/shared/server/respond"
)

// Handler serves stored analysis and score history.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches report routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/analysis/latest", h.latestAnalysis)
	rg.GET("/score/history", h.scoreHistory)
}

func (h *Handler) latestAnalysis(c *gin.Context) {
	kind := c.Query("kind")
	if !analyzer.ValidKind(analyzer.Kind(kind)) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown analysis kind", nil)
		return
	}

	rec, err := h.Svc.LatestAnalysis(c.Request.Context(), middleware.UserIDFromContext(c), kind)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "no analysis stored for this kind", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load analysis", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, rec)
}

func (h *Handler) scoreHistory(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be between 1 and 100", nil)
			return
		}
		limit = n
	}

	records, err := h.Svc.ScoreHistory(c.Request.Context(), middleware.UserIDFromContext(c), limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load score history", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"scores": records})
}
