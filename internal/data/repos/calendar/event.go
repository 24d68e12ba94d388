package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/kaical-backend/internal/domain"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

type EventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, events []*types.Event) ([]*types.Event, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID, eventID uuid.UUID) (*types.Event, error)
	GetByGoogleID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, googleEventID string) (*types.Event, error)
	ListRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from, to time.Time) ([]*types.Event, error)
	ListBySyncStatus(ctx context.Context, tx *gorm.DB, status types.SyncStatus, limit int) ([]*types.Event, error)
	Update(ctx context.Context, tx *gorm.DB, ev *types.Event) error
	MarkSynced(ctx context.Context, tx *gorm.DB, eventID uuid.UUID, googleEventID string) error
	MarkFailed(ctx context.Context, tx *gorm.DB, eventID uuid.UUID, syncErr string) error
	SoftDelete(ctx context.Context, tx *gorm.DB, userID, eventID uuid.UUID) (bool, error)
}

type eventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventRepo(db *gorm.DB, baseLog *logger.Logger) EventRepo {
	return &eventRepo{db: db, log: baseLog.With("repo", "EventRepo")}
}

func (r *eventRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

func (r *eventRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.Event) ([]*types.Event, error) {
	if len(events) == 0 {
		return []*types.Event{}, nil
	}
	if err := r.tx(tx).WithContext(ctx).Create(&events).Error; err != nil {
		return nil, mapError(err)
	}
	return events, nil
}

// GetByID is scoped to the owner; another user's event reads as missing.
func (r *eventRepo) GetByID(ctx context.Context, tx *gorm.DB, userID, eventID uuid.UUID) (*types.Event, error) {
	var ev types.Event
	err := r.tx(tx).WithContext(ctx).
		Where("id = ? AND user_id = ?", eventID, userID).
		First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// ListRange returns events overlapping [from, to), ordered by start.
func (r *eventRepo) GetByGoogleID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, googleEventID string) (*types.Event, error) {
	var ev types.Event
	err := r.tx(tx).WithContext(ctx).
		Where("user_id = ? AND google_event_id = ?", userID, googleEventID).
		First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *eventRepo) ListRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from, to time.Time) ([]*types.Event, error) {
	var out []*types.Event
	err := r.tx(tx).WithContext(ctx).
		Where("user_id = ? AND starts_at < ? AND ends_at > ?", userID, to, from).
		Order("starts_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *eventRepo) ListBySyncStatus(ctx context.Context, tx *gorm.DB, status types.SyncStatus, limit int) ([]*types.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*types.Event
	err := r.tx(tx).WithContext(ctx).
		Where("sync_status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *eventRepo) Update(ctx context.Context, tx *gorm.DB, ev *types.Event) error {
	err := r.tx(tx).WithContext(ctx).
		Model(&types.Event{}).
		Where("id = ? AND user_id = ?", ev.ID, ev.UserID).
		Updates(map[string]any{
			"title":           ev.Title,
			"description":     ev.Description,
			"location":        ev.Location,
			"starts_at":       ev.Start,
			"ends_at":         ev.End,
			"timezone":        ev.Timezone,
			"attendees":       ev.Attendees,
			"google_event_id": ev.GoogleEventID,
			"sync_status":     ev.SyncStatus,
			"sync_error":      ev.SyncError,
		}).Error
	return mapError(err)
}

func (r *eventRepo) MarkSynced(ctx context.Context, tx *gorm.DB, eventID uuid.UUID, googleEventID string) error {
	err := r.tx(tx).WithContext(ctx).
		Model(&types.Event{}).
		Where("id = ?", eventID).
		Updates(map[string]any{
			"google_event_id": googleEventID,
			"sync_status":     types.SyncStatusSynced,
			"sync_error":      "",
		}).Error
	return mapError(err)
}

func (r *eventRepo) MarkFailed(ctx context.Context, tx *gorm.DB, eventID uuid.UUID, syncErr string) error {
	return r.tx(tx).WithContext(ctx).
		Model(&types.Event{}).
		Where("id = ?", eventID).
		Updates(map[string]any{
			"sync_status": types.SyncStatusFailed,
			"sync_error":  syncErr,
		}).Error
}

// SoftDelete reports whether a row was deleted.
func (r *eventRepo) SoftDelete(ctx context.Context, tx *gorm.DB, userID, eventID uuid.UUID) (bool, error) {
	res := r.tx(tx).WithContext(ctx).
		Where("id = ? AND user_id = ?", eventID, userID).
		Delete(&types.Event{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
