package app

import (
	httpserver "github.com/yungbote/kaical-backend/internal/http"
	"github.com/yungbote/kaical-backend/internal/observability"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, mw Middleware) *httpserver.Server {
	log.Info("Wiring router...")
	otelName := ""
	if cfg.Otel.Enabled {
		otelName = cfg.Otel.ServiceName
	}
	return httpserver.NewServer(httpserver.RouterConfig{
		Log:            log,
		ServiceName:    otelName,
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        metrics,
		AuthMiddleware: mw.Auth,
		UserHandler:    handlers.User,
		EventHandler:   handlers.Event,
		AIHandler:      handlers.AI,
		HealthHandler:  handlers.Health,
	})
}
