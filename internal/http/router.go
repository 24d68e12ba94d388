package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/kaical-backend/internal/http/handlers"
	httpMW "github.com/yungbote/kaical-backend/internal/http/middleware"
	"github.com/yungbote/kaical-backend/internal/observability"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware
	UserHandler    *httpH.UserHandler
	EventHandler   *httpH.EventHandler
	AIHandler      *httpH.AIHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins...))

	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")
	{
		// Assistant (public; the browser holds the conversation)
		if cfg.AIHandler != nil {
			api.POST("/ai/chat", cfg.AIHandler.Chat)
			api.POST("/ai/parse", cfg.AIHandler.Parse)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AIHandler != nil {
			protected.POST("/ai/reschedule", cfg.AIHandler.Reschedule)
			protected.GET("/ai/models", cfg.AIHandler.ListModels)
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.PATCH("/me/timezone", cfg.UserHandler.UpdateTimezone)
			protected.PUT("/me/google-account", cfg.UserHandler.LinkGoogleAccount)
			protected.DELETE("/me/google-account", cfg.UserHandler.UnlinkGoogleAccount)
		}

		// Events
		if cfg.EventHandler != nil {
			protected.GET("/events", cfg.EventHandler.List)
			protected.GET("/events/export.ics", cfg.EventHandler.ExportICS)
			protected.POST("/events", cfg.EventHandler.Create)
			protected.PUT("/events/:id", cfg.EventHandler.Update)
			protected.DELETE("/events/:id", cfg.EventHandler.Delete)
		}
	}

	return r
}
