package prometheus

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler exposes a registry in the Prometheus text format.
type Handler struct {
	gatherer prometheus.Gatherer
}

// New serves gatherer. A nil gatherer serves the default registry.
func New(gatherer prometheus.Gatherer) *Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handler{gatherer: gatherer}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/metrics", h.Handler())
}

func (h *Handler) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
}
