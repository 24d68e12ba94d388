package domain

import (
	"github.com/yungbote/kaical-backend/internal/domain/calendar"
	"github.com/yungbote/kaical-backend/internal/domain/chat"
	"github.com/yungbote/kaical-backend/internal/domain/user"
)

type (
	User          = user.User
	GoogleAccount = user.GoogleAccount

	Event         = calendar.Event
	CalendarEvent = calendar.CalendarEvent
	SyncStatus    = calendar.SyncStatus

	ChatMessage = chat.Message
	ChatRole    = chat.Role
	Action      = chat.Action
	ActionType  = chat.ActionType
)

const (
	SyncStatusSynced = calendar.SyncStatusSynced
	SyncStatusFailed = calendar.SyncStatusFailed
	SyncStatusLocal  = calendar.SyncStatusLocal

	RoleUser      = chat.RoleUser
	RoleAssistant = chat.RoleAssistant

	ActionSchedule = chat.ActionSchedule
	ActionCancel   = chat.ActionCancel
)

// Models lists every gorm model AutoMigrate manages.
func Models() []any {
	return []any{
		&user.User{},
		&user.GoogleAccount{},
		&calendar.Event{},
	}
}
