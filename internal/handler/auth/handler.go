package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/auth"
)

type Service interface {
	Login(ctx context.Context, clinicID uuid.UUID, username, password string) (*auth.TokenResponse, error)
	CreateUser(ctx context.Context, caller model.Caller, in auth.CreateUserInput) (*model.User, error)
	ListUsers(ctx context.Context, caller model.Caller, page model.Page) ([]*model.User, error)
	GetUser(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.User, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the public login route.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	login := r.Group("/auth")
	{
		login.POST("/login", h.Login)
	}
}

// RegisterUserRoutes mounts user management. The group must be guarded.
func (h *Handler) RegisterUserRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.POST("", h.CreateUser)
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
	}
}

type LoginRequest struct {
	ClinicID uuid.UUID `json:"clinic_id" binding:"required"`
	Username string    `json:"username" binding:"required"`
	Password string    `json:"password" binding:"required"`
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	FullName string `json:"full_name" binding:"max=200"`
	Role     string `json:"role" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	tokens, err := h.svc.Login(c.Request.Context(), req.ClinicID, req.Username, req.Password)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

func (h *Handler) CreateUser(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	var req CreateUserRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	user, err := h.svc.CreateUser(c.Request.Context(), caller, auth.CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(user))
}

func (h *Handler) ListUsers(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	page, ok := handler.Page(c)
	if !ok {
		return
	}

	users, err := h.svc.ListUsers(c.Request.Context(), caller, page)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(users))
}

func (h *Handler) GetUser(c *gin.Context) {
	caller, ok := handler.Caller(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	user, err := h.svc.GetUser(c.Request.Context(), caller, id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(user))
}
