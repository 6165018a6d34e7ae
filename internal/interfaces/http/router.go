package http

import (
	"net/http"

	"github.com/dreschagin/motion-camera/internal/interfaces/http/handler"
	"github.com/dreschagin/motion-camera/internal/interfaces/http/middleware"
	"github.com/dreschagin/motion-camera/pkg/config"
	"github.com/dreschagin/motion-camera/pkg/logger"
)

// Router настраивает маршруты локального HTTP сервера камеры
type Router struct {
	mux             *http.ServeMux
	healthHandler   *handler.HealthHandler
	statusHandler   *handler.StatusHandler
	capturesHandler *handler.CapturesHandler
	metricsHandler  http.Handler
	instrument      func(http.Handler) http.Handler
	rateLimiter     *middleware.IPRateLimiter
	server          config.ServerConfig
	logger          *logger.Logger
}

// NewRouter создает новый router. capturesHandler, metricsHandler, instrument и rateLimiter могут быть nil.
func NewRouter(
	healthHandler *handler.HealthHandler,
	statusHandler *handler.StatusHandler,
	capturesHandler *handler.CapturesHandler,
	metricsHandler http.Handler,
	instrument func(http.Handler) http.Handler,
	rateLimiter *middleware.IPRateLimiter,
	server config.ServerConfig,
	logger *logger.Logger,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		healthHandler:   healthHandler,
		statusHandler:   statusHandler,
		capturesHandler: capturesHandler,
		metricsHandler:  metricsHandler,
		instrument:      instrument,
		rateLimiter:     rateLimiter,
		server:          server,
		logger:          logger,
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	// Пробы и /metrics без авторизации
	rt.mux.HandleFunc("/healthz", rt.healthHandler.Liveness)
	rt.mux.HandleFunc("/readyz", rt.healthHandler.Readiness)
	if rt.metricsHandler != nil {
		rt.mux.Handle("/metrics", rt.metricsHandler)
	}

	api := func(h http.HandlerFunc) http.Handler {
		var wrapped http.Handler = h
		wrapped = middleware.Auth(middleware.AuthConfig{BearerToken: rt.server.AuthToken}, rt.logger)(wrapped)
		if rt.rateLimiter != nil {
			wrapped = middleware.RateLimit(rt.rateLimiter)(wrapped)
		}
		return wrapped
	}

	rt.mux.Handle("/api/v1/status", api(rt.statusHandler.GetStatus))
	if rt.capturesHandler != nil {
		rt.mux.Handle("/api/v1/captures", api(rt.capturesHandler.ListRecent))
	}

	// Применяем middleware
	var handler http.Handler = rt.mux
	if rt.instrument != nil {
		handler = rt.instrument(handler)
	}
	handler = middleware.Logger(rt.logger)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(rt.logger)(handler)

	return handler
}
