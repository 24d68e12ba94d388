package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/kaical-backend/internal/http/handlers"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

type Handlers struct {
	User   *handlers.UserHandler
	Event  *handlers.EventHandler
	AI     *handlers.AIHandler
	Health *handlers.HealthHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	deps := map[string]handlers.Pinger{}
	if sqlDB, err := db.DB(); err == nil {
		deps["database"] = sqlDB
	}
	return Handlers{
		User:   handlers.NewUserHandler(log, services.User),
		Event:  handlers.NewEventHandler(log, services.Event, services.Export),
		AI:     handlers.NewAIHandler(log, services.Chat, services.Parse, services.Reschedule, services.Models),
		Health: handlers.NewHealthHandler(deps),
	}
}
