package report

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
)

type Service interface {
	DailyIncome(ctx context.Context, caller model.Caller, date time.Time) (*model.DailyIncome, error)
	RangeIncome(ctx context.Context, caller model.Caller, start, end time.Time) ([]model.DailyIncome, error)
	DoctorRevenues(ctx context.Context, caller model.Caller, start, end time.Time) ([]model.DoctorRevenue, error)
	DoctorRevenue(ctx context.Context, caller model.Caller, doctorID uuid.UUID, start, end time.Time) (*model.DoctorRevenue, error)
}

type Handler struct {
	svc Service
	now func() time.Time
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reports := r.Group("/reports")
	{
		reports.GET("/daily", h.DailyIncome)
		reports.GET("/range", h.RangeIncome)
		reports.GET("/doctors", h.DoctorRevenues)
		reports.GET("/doctors/:id", h.DoctorRevenue)
	}
}

// DailyQuery defaults to today when date is omitted.
type DailyQuery struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

type RangeQuery struct {
	StartDate string `form:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"required,datetime=2006-01-02"`
}

func (q RangeQuery) bounds() (time.Time, time.Time) {
	start, _ := time.Parse(time.DateOnly, q.StartDate)
	end, _ := time.Parse(time.DateOnly, q.EndDate)
	return start, end
}

func (h *Handler) DailyIncome(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	var q DailyQuery
	if !handler.BindQuery(c, &q) {
		return
	}

	date := h.now().UTC()
	if q.Date != "" {
		date, _ = time.Parse(time.DateOnly, q.Date)
	}

	income, err := h.svc.DailyIncome(c.Request.Context(), caller, date)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(income))
}

func (h *Handler) RangeIncome(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	var q RangeQuery
	if !handler.BindQuery(c, &q) {
		return
	}

	start, end := q.bounds()
	days, err := h.svc.RangeIncome(c.Request.Context(), caller, start, end)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(days))
}

func (h *Handler) DoctorRevenues(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	var q RangeQuery
	if !handler.BindQuery(c, &q) {
		return
	}

	start, end := q.bounds()
	revenues, err := h.svc.DoctorRevenues(c.Request.Context(), caller, start, end)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(revenues))
}

func (h *Handler) DoctorRevenue(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var q RangeQuery
	if !handler.BindQuery(c, &q) {
		return
	}

	start, end := q.bounds()
	revenue, err := h.svc.DoctorRevenue(c.Request.Context(), caller, id, start, end)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(revenue))
}
