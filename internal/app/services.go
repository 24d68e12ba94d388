package app

import (
	"fmt"

	"github.com/yungbote/kaical-backend/internal/assistant"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
	"github.com/yungbote/kaical-backend/internal/services"
)

type Services struct {
	User       services.UserService
	Event      services.EventService
	Export     services.ExportService
	Chat       services.ChatService
	Parse      services.ParseService
	Reschedule services.RescheduleService
	Models     services.ModelService
}

func wireServices(log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	profile, err := assistant.LoadProfile(cfg.ProfilePath)
	if err != nil {
		return Services{}, fmt.Errorf("load assistant profile: %w", err)
	}

	// A nil *googlecal.Client must stay a nil interface.
	var gcal services.GoogleCalendar
	if clients.Calendar != nil {
		gcal = clients.Calendar
	}

	events := services.NewEventService(log, repos.Event, repos.GoogleAccount, gcal, clients.EventCache)
	return Services{
		User:       services.NewUserService(log, repos.User, repos.GoogleAccount),
		Event:      events,
		Export:     services.NewExportService(log, events),
		Chat:       services.NewChatService(log, profile, cfg.LLM, clients.Generator, cfg.ChatTimeout),
		Parse:      services.NewParseService(log, cfg.LLM, clients.FunctionCaller),
		Reschedule: services.NewRescheduleService(log, profile, cfg.LLM, clients.Generator, cfg.ChatTimeout),
		Models:     services.NewModelService(log, clients.ModelLister),
	}, nil
}
