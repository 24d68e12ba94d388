package chat

import "github.com/yungbote/kaical-backend/internal/domain/calendar"

type ActionType string

const (
	ActionSchedule ActionType = "schedule"
	ActionCancel   ActionType = "cancel"
)

// Action is the tagged variant returned to the client. Exactly one of Event
// (schedule) or EventID (cancel) is set.
type Action struct {
	Type    ActionType              `json:"type"`
	Event   *calendar.CalendarEvent `json:"event,omitempty"`
	EventID string                  `json:"eventId,omitempty"`
}

func ScheduleAction(ev calendar.CalendarEvent) *Action {
	return &Action{Type: ActionSchedule, Event: &ev}
}

func CancelAction(id string) *Action {
	return &Action{Type: ActionCancel, EventID: id}
}
