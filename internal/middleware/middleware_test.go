package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var tenant = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

type stubTokens struct{}

func (stubTokens) ValidateToken(token string) (model.Caller, error) {
	role, ok := model.ParseRole(token)
	if !ok {
		return model.Caller{}, apperrors.Unauthorized(errors.New("bad token"))
	}
	return model.Caller{TenantID: tenant, UserID: uuid.New(), Role: role}, nil
}

type stubClinics struct {
	active bool
	calls  int
}

func (s *stubClinics) IsActive(_ context.Context, id uuid.UUID) (bool, error) {
	s.calls++
	return s.active && id == tenant, nil
}

func serve(r *gin.Engine, method, path string, header map[string]string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.Response {
	t.Helper()
	var resp handler.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func protected(clinics ClinicChecker, roles ...model.Role) *gin.Engine {
	auth := NewAuthMiddleware(stubTokens{}, clinics, time.Minute)
	r := gin.New()
	r.GET("/secret", auth.Authenticate(), RequireRole(roles...), func(c *gin.Context) {
		caller, _ := handler.Caller(c)
		c.JSON(http.StatusOK, handler.NewSuccessResponse(caller.Role))
	})
	return r
}

func TestAuthenticate(t *testing.T) {
	clinics := &stubClinics{active: true}
	r := protected(clinics, model.RoleAccountant, model.RoleAdmin)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"invalid token", "Bearer nonsense", http.StatusUnauthorized},
		{"role not allowed", "Bearer Reception", http.StatusForbidden},
		{"allowed", "Bearer Accountant", http.StatusOK},
		{"scheme is case-insensitive", "bearer Admin", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := map[string]string{}
			if tt.header != "" {
				header["Authorization"] = tt.header
			}
			w := serve(r, http.MethodGet, "/secret", header, "")
			assert.Equal(t, tt.status, w.Code)
		})
	}

	assert.Equal(t, 1, clinics.calls, "clinic check is cached")
}

func TestAuthenticate_InactiveClinic(t *testing.T) {
	r := protected(&stubClinics{active: false}, model.RoleAdmin)

	w := serve(r, http.MethodGet, "/secret", map[string]string{"Authorization": "Bearer Admin"}, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decode(t, w).Message)
}

func TestRequireRole_WithoutAuthenticate(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequireRole(model.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/x", nil, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	w := serve(r, http.MethodGet, "/x", map[string]string{HeaderXRequestID: "abc-123"}, "")
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(HeaderXRequestID))

	w = serve(r, http.MethodGet, "/x", nil, "")
	_, err := uuid.Parse(w.Header().Get(HeaderXRequestID))
	assert.NoError(t, err)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := serve(r, http.MethodGet, "/boom", nil, "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decode(t, w).Message)
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(TimeoutConfig{Duration: 10 * time.Millisecond}))
	r.GET("/slow", func(c *gin.Context) { <-c.Request.Context().Done() })
	r.GET("/fast", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusGatewayTimeout, serve(r, http.MethodGet, "/slow", nil, "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/fast", nil, "").Code)
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 2})
	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, get("10.0.0.1"))
	assert.Equal(t, http.StatusOK, get("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, get("10.0.0.1"))
	assert.Equal(t, http.StatusOK, get("10.0.0.2"))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(CORSConfig{
		AllowOrigins: []string{"https://clinic.example"},
		AllowMethods: []string{http.MethodGet},
		MaxAge:       600,
	}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodOptions, "/x", map[string]string{"Origin": "https://clinic.example"}, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://clinic.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))

	w = serve(r, http.MethodGet, "/x", map[string]string{"Origin": "https://evil.example"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(SizeLimit(8))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(r, http.MethodPost, "/x", nil, "0123456789").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/x", nil, "0123").Code)
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(DefaultSecurityConfig()))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/x", nil, "")

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
}

type moneyRequest struct {
	Name   string          `json:"name" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"money"`
}

func TestRegisterValidators_JSONFieldNames(t *testing.T) {
	require.NoError(t, RegisterValidators(DefaultValidationConfig()))

	r := gin.New()
	r.POST("/x", func(c *gin.Context) {
		var req moneyRequest
		if !handler.BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusOK)
	})

	w := serve(r, http.MethodPost, "/x", map[string]string{"Content-Type": "application/json"}, `{"amount": "1.005"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "name", resp.Field)
	assert.Equal(t, "validation failed", resp.Message)

	w = serve(r, http.MethodPost, "/x", map[string]string{"Content-Type": "application/json"}, `{"name": "x", "amount": 12.5}`)
	assert.Equal(t, http.StatusOK, w.Code)
}
