package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/kaical-backend/internal/http/handlers"
	httpMW "github.com/yungbote/kaical-backend/internal/http/middleware"
	"github.com/yungbote/kaical-backend/internal/observability"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

func TestRouterHealthAndAuthGate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	r := NewRouter(RouterConfig{
		Log:            log,
		AuthMiddleware: httpMW.NewAuthMiddleware(log, nil, nil),
		UserHandler:    httpH.NewUserHandler(log, nil),
		HealthHandler:  httpH.NewHealthHandler(nil),
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(httpMW.HeaderRequestID) == "" {
		t.Fatalf("request id header missing")
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated /api/me: %d", rec.Code)
	}
}

func TestRouterExposesMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("METRICS_ENABLED", "true")
	m := observability.Init(logger.Nop())
	if m == nil {
		t.Fatalf("metrics not initialised")
	}
	r := NewRouter(RouterConfig{
		Log:           logger.Nop(),
		Metrics:       m,
		HealthHandler: httpH.NewHealthHandler(nil),
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthcheck", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `route="/healthcheck",status="200"`) {
		t.Fatalf("healthcheck not counted:\n%s", rec.Body.String())
	}
}

func TestServerShutdownBeforeRun(t *testing.T) {
	s := NewServer(RouterConfig{Log: logger.Nop()})
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	// A closed server refuses to start and reports it as a clean exit.
	if err := s.Run("127.0.0.1:0"); err != nil {
		t.Fatalf("Run after Shutdown: %v", err)
	}
}
