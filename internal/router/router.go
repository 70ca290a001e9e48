package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// HandlerFunc adapts a plain registration function to Handler.
type HandlerFunc func(*gin.RouterGroup)

func (f HandlerFunc) RegisterRoutes(g *gin.RouterGroup) {
	f(g)
}

// Handlers are mounted under /api/v1, each behind its role guard. Users
// registers user management; Auth registers the public login route.
type Handlers struct {
	Health   Handler
	Metrics  Handler
	Auth     Handler
	Users    Handler
	Visits   Handler
	Payments Handler
	Reports  Handler
	Claims   Handler
	Registry Handler
}

type Config struct {
	Timeout     time.Duration
	RateLimit   rate.Limit
	RateBurst   int
	MaxBodySize int64
	CORS        middleware.CORSConfig
}

// Route group guards. Admin is allowed everywhere.
var (
	VisitRoles    = []model.Role{model.RoleReception, model.RoleDoctor, model.RoleAdmin}
	PaymentRoles  = []model.Role{model.RoleReception, model.RoleAccountant, model.RoleAdmin}
	ReportRoles   = []model.Role{model.RoleAccountant, model.RoleAdmin}
	ClaimsRoles   = []model.Role{model.RoleContractManager, model.RoleAccountant, model.RoleAdmin}
	RegistryRoles = []model.Role{model.RoleAdmin}
)

type Router struct {
	engine *gin.Engine
}

func NewRouter(config Config, auth *middleware.AuthMiddleware, m *metrics.Metrics, h Handlers) (*Router, error) {
	if err := middleware.RegisterValidators(middleware.DefaultValidationConfig()); err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Metrics(m),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORS),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
	)

	if h.Health != nil {
		h.Health.RegisterRoutes(&engine.RouterGroup)
	}
	if h.Metrics != nil {
		h.Metrics.RegisterRoutes(&engine.RouterGroup)
	}

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	api := engine.Group("/api/v1", limiter.RateLimit(), middleware.SizeLimit(config.MaxBodySize))

	mount(api, h.Auth)

	protected := api.Group("", auth.Authenticate())
	mount(protected.Group("", middleware.RequireRole(VisitRoles...)), h.Visits)
	mount(protected.Group("", middleware.RequireRole(PaymentRoles...)), h.Payments)
	mount(protected.Group("", middleware.RequireRole(ReportRoles...)), h.Reports)
	mount(protected.Group("", middleware.RequireRole(ClaimsRoles...)), h.Claims)
	admin := protected.Group("", middleware.RequireRole(RegistryRoles...))
	mount(admin, h.Registry)
	mount(admin, h.Users)

	return &Router{engine: engine}, nil
}

func mount(g *gin.RouterGroup, h Handler) {
	if h != nil {
		h.RegisterRoutes(g)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
