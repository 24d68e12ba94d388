package app

import (
	"github.com/yungbote/kaical-backend/internal/http/middleware"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, clients Clients, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, clients.Verifier, services.User),
	}
}
