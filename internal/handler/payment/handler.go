package payment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/payment"
)

type Service interface {
	RecordPayment(ctx context.Context, caller model.Caller, in payment.RecordInput) (*model.Payment, error)
	ListPayments(ctx context.Context, caller model.Caller, visitID uuid.UUID) ([]*model.Payment, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.POST("", h.RecordPayment)
		payments.GET("", h.ListPayments)
	}
}

type RecordPaymentRequest struct {
	VisitID uuid.UUID       `json:"visit_id" binding:"required"`
	Type    string          `json:"type" binding:"required"`
	Amount  decimal.Decimal `json:"amount" binding:"money"`
}

type ListPaymentsQuery struct {
	VisitID string `form:"visit_id" binding:"required,uuid"`
}

func (h *Handler) RecordPayment(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	var req RecordPaymentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	p, err := h.svc.RecordPayment(c.Request.Context(), caller, payment.RecordInput{
		VisitID: req.VisitID,
		Type:    req.Type,
		Amount:  req.Amount,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(p))
}

func (h *Handler) ListPayments(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	var q ListPaymentsQuery
	if !handler.BindQuery(c, &q) {
		return
	}

	payments, err := h.svc.ListPayments(c.Request.Context(), caller, uuid.MustParse(q.VisitID))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(payments))
}
