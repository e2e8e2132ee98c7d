// Package handler composes the HTTP routes and middleware of the service.
package handler

import (
	"net/http"

	"github.com/brizzai/oauth-login/internal/apidoc"
	"github.com/brizzai/oauth-login/internal/auth"
	"github.com/brizzai/oauth-login/internal/auth/middleware"
	"github.com/brizzai/oauth-login/internal/config"
	"github.com/brizzai/oauth-login/internal/logger"
	"github.com/brizzai/oauth-login/internal/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const openAPIPath = "/openapi.json"

// Handler manages HTTP request handling and middleware configuration.
type Handler struct {
	auth       *auth.Service
	metrics    *metrics.Metrics
	metricsCfg *config.MetricsConfig
	cors       *config.CORSConfig
}

type Params struct {
	fx.In

	Auth       *auth.Service
	Metrics    *metrics.Metrics      `optional:"true"`
	MetricsCfg *config.MetricsConfig `optional:"true"`
	CORS       *config.CORSConfig    `optional:"true"`
}

// NewHandler creates a new HTTP handler.
func NewHandler(params Params) *Handler {
	return &Handler{
		auth:       params.Auth,
		metrics:    params.Metrics,
		metricsCfg: params.MetricsCfg,
		cors:       params.CORS,
	}
}

// CreateHTTPHandler builds the mux and wraps it with the middleware stack.
func (h *Handler) CreateHTTPHandler() http.Handler {
	mux := http.NewServeMux()

	h.auth.RegisterRoutes(mux)
	logger.Info("Registered login routes", zap.String("provider", h.auth.ProviderName()))

	mux.Handle("GET "+openAPIPath, apidoc.Handler(apidoc.New(h.auth.ProviderName())))

	if h.metrics != nil && h.metricsCfg != nil && h.metricsCfg.Enabled {
		path := h.metricsCfg.Path
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, h.metrics.Handler())
		logger.Info("Enabled metrics endpoint", zap.String("path", path))
	}

	var origins []string
	if h.cors != nil {
		origins = h.cors.AllowOrigins
	}

	return middleware.Chain(mux,
		middleware.Recover,
		middleware.RequestLogger,
		middleware.CORS(origins),
	)
}
