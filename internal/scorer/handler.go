package scorer

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-insight/internal/shared/server/middleware"
	"resume-insight/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the scorer service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches scoring routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/score", h.score)
}

type scoreRequest struct {
	ResumeText     string   `json:"resume_text"`
	TargetKeywords []string `json:"target_keywords"`
}

func (h *Handler) score(c *gin.Context) {
	var body scoreRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	report, err := h.Svc.Score(c.Request.Context(), middleware.UserIDFromContext(c), body.ResumeText, body.TargetKeywords)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "scoring failed", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, report)
}
