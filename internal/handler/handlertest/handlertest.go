// Package handlertest serves handlers through a gin engine for tests.
package handlertest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
)

var (
	TenantID = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	UserID   = uuid.MustParse("9f1c1b1e-2f4e-4a8e-9d57-1d2f3c4b5a69")
)

func Caller(role model.Role) model.Caller {
	return model.Caller{TenantID: TenantID, UserID: UserID, Role: role}
}

// Engine mounts register under /api/v1. A non-nil caller is attached to
// every request as if it had been authenticated.
func Engine(t *testing.T, caller *model.Caller, register func(*gin.RouterGroup)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterValidators(middleware.DefaultValidationConfig()))

	r := gin.New()
	api := r.Group("/api/v1")
	if caller != nil {
		api.Use(func(c *gin.Context) {
			handler.SetCaller(c, *caller)
			c.Next()
		})
	}
	register(api)
	return r
}

// Do sends body, JSON-encoded unless it is a string, and records the answer.
func Do(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// Response is the envelope with its data left raw.
type Response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Field   string          `json:"field"`
	Data    json.RawMessage `json:"data"`
}

func Decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeData unmarshals the envelope's data into out.
func DecodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) Response {
	t.Helper()
	resp := Decode(t, w)
	require.NoError(t, json.Unmarshal(resp.Data, out), string(resp.Data))
	return resp
}
