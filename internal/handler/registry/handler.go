package registry

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/registry"
)

// Handler serves master data: doctors, patients, rooms and insurance
// companies. All four share the same five routes.
type Handler struct {
	svc *registry.Service
}

func NewHandler(svc *registry.Service) *Handler {
	return &Handler{svc: svc}
}

type DoctorRequest struct {
	FullName  string `json:"full_name" binding:"required,max=200"`
	Specialty string `json:"specialty" binding:"max=100"`
	Code      string `json:"code" binding:"max=50"`
}

func (r DoctorRequest) input() registry.DoctorInput {
	return registry.DoctorInput{FullName: r.FullName, Specialty: r.Specialty, Code: r.Code}
}

type PatientRequest struct {
	FullName           string     `json:"full_name" binding:"required,max=200"`
	DateOfBirth        string     `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Phone              string     `json:"phone" binding:"max=50"`
	InsuranceCompanyID *uuid.UUID `json:"insurance_company_id"`
}

func (r PatientRequest) input() registry.PatientInput {
	in := registry.PatientInput{FullName: r.FullName, Phone: r.Phone, InsuranceCompanyID: r.InsuranceCompanyID}
	if dob, err := time.Parse(time.DateOnly, r.DateOfBirth); err == nil {
		in.DateOfBirth = &dob
	}
	return in
}

type NameRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	resource[DoctorRequest, *model.Doctor]{
		create: func(ctx context.Context, c model.Caller, req DoctorRequest) (*model.Doctor, error) {
			return h.svc.CreateDoctor(ctx, c, req.input())
		},
		get:  h.svc.GetDoctor,
		list: h.svc.ListDoctors,
		update: func(ctx context.Context, c model.Caller, id uuid.UUID, req DoctorRequest) (*model.Doctor, error) {
			return h.svc.UpdateDoctor(ctx, c, id, req.input())
		},
		remove: h.svc.DeleteDoctor,
	}.register(r.Group("/doctors"))

	resource[PatientRequest, *model.Patient]{
		create: func(ctx context.Context, c model.Caller, req PatientRequest) (*model.Patient, error) {
			return h.svc.CreatePatient(ctx, c, req.input())
		},
		get:  h.svc.GetPatient,
		list: h.svc.ListPatients,
		update: func(ctx context.Context, c model.Caller, id uuid.UUID, req PatientRequest) (*model.Patient, error) {
			return h.svc.UpdatePatient(ctx, c, id, req.input())
		},
		remove: h.svc.DeletePatient,
	}.register(r.Group("/patients"))

	resource[NameRequest, *model.Room]{
		create: func(ctx context.Context, c model.Caller, req NameRequest) (*model.Room, error) {
			return h.svc.CreateRoom(ctx, c, registry.RoomInput{Name: req.Name})
		},
		get:  h.svc.GetRoom,
		list: h.svc.ListRooms,
		update: func(ctx context.Context, c model.Caller, id uuid.UUID, req NameRequest) (*model.Room, error) {
			return h.svc.UpdateRoom(ctx, c, id, registry.RoomInput{Name: req.Name})
		},
		remove: h.svc.DeleteRoom,
	}.register(r.Group("/rooms"))

	resource[NameRequest, *model.InsuranceCompany]{
		create: func(ctx context.Context, c model.Caller, req NameRequest) (*model.InsuranceCompany, error) {
			return h.svc.CreateInsuranceCompany(ctx, c, registry.InsuranceCompanyInput{Name: req.Name})
		},
		get:  h.svc.GetInsuranceCompany,
		list: h.svc.ListInsuranceCompanies,
		update: func(ctx context.Context, c model.Caller, id uuid.UUID, req NameRequest) (*model.InsuranceCompany, error) {
			return h.svc.UpdateInsuranceCompany(ctx, c, id, registry.InsuranceCompanyInput{Name: req.Name})
		},
		remove: h.svc.DeleteInsuranceCompany,
	}.register(r.Group("/insurance-companies"))
}

// resource binds one entity's service calls to gin routes.
type resource[Req any, E any] struct {
	create func(context.Context, model.Caller, Req) (E, error)
	get    func(context.Context, model.Caller, uuid.UUID) (E, error)
	list   func(context.Context, model.Caller, model.Page) ([]E, int64, error)
	update func(context.Context, model.Caller, uuid.UUID, Req) (E, error)
	remove func(context.Context, model.Caller, uuid.UUID) error
}

func (res resource[Req, E]) register(g *gin.RouterGroup) {
	g.POST("", res.handleCreate)
	g.GET("", res.handleList)
	g.GET("/:id", res.handleGet)
	g.PUT("/:id", res.handleUpdate)
	g.DELETE("/:id", res.handleDelete)
}

func (res resource[Req, E]) handleCreate(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	var req Req
	if !handler.BindJSON(c, &req) {
		return
	}

	out, err := res.create(c.Request.Context(), caller, req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(out))
}

func (res resource[Req, E]) handleList(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	page, ok := handler.Page(c)
	if !ok {
		return
	}

	items, total, err := res.list(c.Request.Context(), caller, page)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewListResponse(items, total, page))
}

func (res resource[Req, E]) handleGet(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	out, err := res.get(c.Request.Context(), caller, id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(out))
}

func (res resource[Req, E]) handleUpdate(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req Req
	if !handler.BindJSON(c, &req) {
		return
	}

	out, err := res.update(c.Request.Context(), caller, id, req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(out))
}

func (res resource[Req, E]) handleDelete(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := res.remove(c.Request.Context(), caller, id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
