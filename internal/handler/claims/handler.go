package claims

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
)

type Service interface {
	Summaries(ctx context.Context, caller model.Caller) ([]model.ClaimsSummary, error)
	ForCompany(ctx context.Context, caller model.Caller, companyID uuid.UUID) (*model.ClaimsSummary, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	claims := r.Group("/claims")
	{
		claims.GET("", h.Summaries)
		claims.GET("/:company_id", h.ForCompany)
	}
}

func (h *Handler) Summaries(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}

	summaries, err := h.svc.Summaries(c.Request.Context(), caller)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(summaries))
}

func (h *Handler) ForCompany(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "company_id")
	if !ok {
		return
	}

	summary, err := h.svc.ForCompany(c.Request.Context(), caller, id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(summary))
}
