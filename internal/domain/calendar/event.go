package calendar

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SyncStatus string

const (
	SyncStatusSynced SyncStatus = "SYNCED"
	SyncStatusFailed SyncStatus = "FAILED"
	SyncStatusLocal  SyncStatus = "LOCAL"
)

type Event struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_event_user_range,priority:1" json:"user_id"`

	Title       string `gorm:"type:text;not null" json:"title"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`
	Location    string `gorm:"type:text;not null;default:''" json:"location"`

	Start    time.Time `gorm:"column:starts_at;not null;index:idx_event_user_range,priority:2" json:"start"`
	End      time.Time `gorm:"column:ends_at;not null" json:"end"`
	Timezone string    `gorm:"type:text;not null;default:'UTC'" json:"timezone"`

	GoogleEventID string     `gorm:"type:text;index" json:"google_event_id,omitempty"`
	SyncStatus    SyncStatus `gorm:"type:text;not null;default:'LOCAL';index" json:"sync_status"`
	SyncError     string     `gorm:"type:text" json:"sync_error,omitempty"`

	Attendees datatypes.JSON `json:"attendees,omitempty"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Event) TableName() string { return "event" }

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Wire projects the stored row onto the shape the UI and assistant use.
func (e *Event) Wire() CalendarEvent {
	return CalendarEvent{
		ID:          e.ID.String(),
		Title:       e.Title,
		Start:       e.Start,
		End:         e.End,
		Description: e.Description,
		Location:    e.Location,
	}
}
