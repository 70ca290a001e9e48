package visit

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/visit"
)

type Service interface {
	CreateVisit(ctx context.Context, caller model.Caller, in visit.CreateInput) (*model.VisitView, error)
	GetVisit(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.VisitView, error)
	ListVisits(ctx context.Context, caller model.Caller, page model.Page) ([]*model.VisitView, int64, error)
	UpdateStatus(ctx context.Context, caller model.Caller, id uuid.UUID, status string) (*model.VisitView, error)
	Reassign(ctx context.Context, caller model.Caller, id uuid.UUID, in visit.ReassignInput) (*model.VisitView, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	visits := r.Group("/visits")
	{
		visits.POST("", h.CreateVisit)
		visits.GET("", h.ListVisits)
		visits.GET("/:id", h.GetVisit)
		visits.PATCH("/:id/status", h.UpdateStatus)
		visits.PATCH("/:id/assignment", h.Reassign)
	}
}

type CreateVisitRequest struct {
	PatientID          uuid.UUID       `json:"patient_id" binding:"required"`
	DoctorID           uuid.UUID       `json:"doctor_id" binding:"required"`
	RoomID             uuid.UUID       `json:"room_id" binding:"required"`
	InsuranceCompanyID *uuid.UUID      `json:"insurance_company_id"`
	PaymentType        string          `json:"payment_type" binding:"required"`
	TotalAmount        decimal.Decimal `json:"total_amount" binding:"money"`
	PatientPaid        decimal.Decimal `json:"patient_paid" binding:"money"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ReassignRequest struct {
	DoctorID *uuid.UUID `json:"doctor_id"`
	RoomID   *uuid.UUID `json:"room_id"`
}

func (h *Handler) CreateVisit(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	var req CreateVisitRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	view, err := h.svc.CreateVisit(c.Request.Context(), caller, visit.CreateInput{
		PatientID:          req.PatientID,
		DoctorID:           req.DoctorID,
		RoomID:             req.RoomID,
		InsuranceCompanyID: req.InsuranceCompanyID,
		PaymentType:        req.PaymentType,
		TotalAmount:        req.TotalAmount,
		PatientPaid:        req.PatientPaid,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(view))
}

func (h *Handler) GetVisit(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	view, err := h.svc.GetVisit(c.Request.Context(), caller, id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(view))
}

func (h *Handler) ListVisits(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	page, ok := handler.Page(c)
	if !ok {
		return
	}

	views, total, err := h.svc.ListVisits(c.Request.Context(), caller, page)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewListResponse(views, total, page))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	view, err := h.svc.UpdateStatus(c.Request.Context(), caller, id, req.Status)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(view))
}

func (h *Handler) Reassign(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req ReassignRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	view, err := h.svc.Reassign(c.Request.Context(), caller, id, visit.ReassignInput{
		DoctorID: req.DoctorID,
		RoomID:   req.RoomID,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(view))
}
