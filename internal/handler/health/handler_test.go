package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		path   string
		err    error
		status int
		body   string
	}{
		{"live", "/health/live", nil, http.StatusOK, `"UP"`},
		{"ready", "/health/ready", nil, http.StatusOK, `"UP"`},
		{"db down", "/health/ready", errors.New("connection refused"), http.StatusServiceUnavailable, `"DOWN"`},
		{"live while db down", "/health/live", errors.New("connection refused"), http.StatusOK, `"UP"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			NewHandler(pinger{err: tt.err}).RegisterRoutes(&r.RouterGroup)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}
