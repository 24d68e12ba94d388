package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"gorm.io/datatypes"

	calrepo "github.com/yungbote/kaical-backend/internal/data/repos/calendar"
	userrepo "github.com/yungbote/kaical-backend/internal/data/repos/user"
	types "github.com/yungbote/kaical-backend/internal/domain"
	"github.com/yungbote/kaical-backend/internal/observability"
	"github.com/yungbote/kaical-backend/internal/platform/apierr"
	"github.com/yungbote/kaical-backend/internal/platform/ctxutil"
	"github.com/yungbote/kaical-backend/internal/platform/googlecal"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
	"github.com/yungbote/kaical-backend/internal/platform/redis"
)

// GoogleCalendar is the subset of googlecal.Client the event service drives.
type GoogleCalendar interface {
	List(ctx context.Context, tok *oauth2.Token, calendarID string, from, to time.Time, tz string) ([]googlecal.Event, error)
	Insert(ctx context.Context, tok *oauth2.Token, calendarID string, ev googlecal.Event, tz string) (string, error)
	Update(ctx context.Context, tok *oauth2.Token, calendarID, googleID string, ev googlecal.Event, tz string) error
	Delete(ctx context.Context, tok *oauth2.Token, calendarID, googleID string) error
}

type EventInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Timezone    string    `json:"timezone,omitempty"`
	Attendees   []string  `json:"attendees,omitempty"`
}

// EventPatch carries only the fields the caller wants changed.
type EventPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
	Timezone    *string    `json:"timezone,omitempty"`
	Attendees   *[]string  `json:"attendees,omitempty"`
}

type ResyncResult struct {
	Attempted int `json:"attempted"`
	Synced    int `json:"synced"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

type EventService interface {
	List(ctx context.Context, from, to time.Time, tz string) ([]types.CalendarEvent, error)
	Create(ctx context.Context, in EventInput) (*types.Event, error)
	Update(ctx context.Context, id string, patch EventPatch) (*types.Event, error)
	Delete(ctx context.Context, id string) error
	ResyncFailed(ctx context.Context, limit int) (ResyncResult, error)
}

type eventService struct {
	log      *logger.Logger
	events   calrepo.EventRepo
	accounts userrepo.GoogleAccountRepo
	gcal     GoogleCalendar
	cache    redis.EventCache
}

// NewEventService wires the event store. gcal and cache may be nil: without
// gcal every event stays LOCAL, without cache every list hits Google.
func NewEventService(
	log *logger.Logger,
	events calrepo.EventRepo,
	accounts userrepo.GoogleAccountRepo,
	gcal GoogleCalendar,
	cache redis.EventCache,
) EventService {
	return &eventService{
		log:      log.With("service", "EventService"),
		events:   events,
		accounts: accounts,
		gcal:     gcal,
		cache:    cache,
	}
}

func requireUser(ctx context.Context) (uuid.UUID, error) {
	id := ctxutil.UserID(ctx)
	if id == uuid.Nil {
		return uuid.Nil, apierr.Unauthorized(fmt.Errorf("authentication required"))
	}
	return id, nil
}

// linkedAccount returns nil when the user has not linked Google or sync is off.
func (es *eventService) linkedAccount(ctx context.Context, userID uuid.UUID) *types.GoogleAccount {
	if es.gcal == nil || es.accounts == nil {
		return nil
	}
	acct, err := es.accounts.GetByUserID(ctx, nil, userID)
	if err != nil {
		es.log.Warn("Google account lookup failed", "user_id", userID, "error", err)
		return nil
	}
	return acct
}

func (es *eventService) List(ctx context.Context, from, to time.Time, tz string) ([]types.CalendarEvent, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if from.IsZero() || to.IsZero() {
		return nil, apierr.BadRequest("invalid_request", fmt.Errorf("start and end are required"))
	}
	if !to.After(from) {
		return nil, apierr.BadRequest("invalid_request", fmt.Errorf("end must be after start"))
	}

	if acct := es.linkedAccount(ctx, userID); acct != nil {
		cacheable := false
		var ver int64
		if es.cache != nil {
			cached, v, hit, err := es.cache.GetRange(ctx, userID, from, to)
			if err != nil {
				es.log.Warn("Event cache read failed", "error", err)
			} else if hit {
				observability.Current().IncEventCache("hit")
				return cached, nil
			} else {
				cacheable, ver = true, v
			}
			observability.Current().IncEventCache("miss")
		}
		remote, err := es.gcal.List(ctx, acct.Token(), acct.CalendarID, from, to, tz)
		observeSync("list", err)
		if err == nil {
			out := make([]types.CalendarEvent, 0, len(remote))
			for _, ev := range remote {
				out = append(out, remoteToWire(ev))
			}
			if cacheable {
				if err := es.cache.PutRange(ctx, userID, ver, from, to, out); err != nil {
					es.log.Warn("Event cache write failed", "error", err)
				}
			}
			return out, nil
		}
		es.log.Warn("Google Calendar list failed, falling back to database", "user_id", userID, "error", err)
	}

	rows, err := es.events.ListRange(ctx, nil, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]types.CalendarEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Wire())
	}
	return out, nil
}

func (es *eventService) Create(ctx context.Context, in EventInput) (*types.Event, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || in.Start.IsZero() || in.End.IsZero() {
		return nil, apierr.BadRequest("invalid_request", fmt.Errorf("title, start and end are required"))
	}
	if !in.End.After(in.Start) {
		return nil, apierr.BadRequest("invalid_request", fmt.Errorf("end must be after start"))
	}
	if err := checkTimezone(in.Timezone); err != nil {
		return nil, err
	}
	attendees, err := encodeAttendees(in.Attendees)
	if err != nil {
		return nil, apierr.BadRequest("invalid_request", err)
	}

	ev := &types.Event{
		UserID:      userID,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		Start:       in.Start,
		End:         in.End,
		Timezone:    orUTC(in.Timezone),
		Attendees:   attendees,
		SyncStatus:  types.SyncStatusLocal,
	}

	if acct := es.linkedAccount(ctx, userID); acct != nil {
		gid, err := es.gcal.Insert(ctx, acct.Token(), acct.CalendarID, toRemote(ev, in.Attendees), ev.Timezone)
		observeSync("insert", err)
		if err != nil {
			es.log.Warn("Google Calendar insert failed, storing locally", "user_id", userID, "error", err)
			ev.SyncStatus = types.SyncStatusFailed
			ev.SyncError = err.Error()
		} else {
			ev.SyncStatus = types.SyncStatusSynced
			ev.GoogleEventID = gid
		}
	}

	if _, err := es.events.Create(ctx, nil, []*types.Event{ev}); err != nil {
		return nil, storeError("store event", err)
	}
	es.invalidate(ctx, userID)
	return ev, nil
}

func (es *eventService) Update(ctx context.Context, id string, patch EventPatch) (*types.Event, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	ev, err := es.lookup(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		ev.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		ev.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Location != nil {
		ev.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.Start != nil {
		ev.Start = *patch.Start
	}
	if patch.End != nil {
		ev.End = *patch.End
	}
	if patch.Timezone != nil {
		if err := checkTimezone(*patch.Timezone); err != nil {
			return nil, err
		}
		ev.Timezone = orUTC(*patch.Timezone)
	}
	var attendees []string
	if patch.Attendees != nil {
		attendees = *patch.Attendees
		if ev.Attendees, err = encodeAttendees(attendees); err != nil {
			return nil, apierr.BadRequest("invalid_request", err)
		}
	} else {
		attendees = decodeAttendees(ev.Attendees)
	}
	if ev.Title == "" {
		return nil, apierr.BadRequest("invalid_request", fmt.Errorf("title must not be empty"))
	}
	if !ev.End.After(ev.Start) {
		return nil, apierr.BadRequest("invalid_request", fmt.Errorf("end must be after start"))
	}

	if acct := es.linkedAccount(ctx, userID); acct != nil {
		es.push(ctx, acct, ev, attendees)
	}
	if err := es.events.Update(ctx, nil, ev); err != nil {
		return nil, storeError("update event", err)
	}
	es.invalidate(ctx, userID)
	return ev, nil
}

// push mirrors ev onto Google, inserting when it has never been synced.
// Failures are recorded on ev and never surfaced to the caller.
func (es *eventService) push(ctx context.Context, acct *types.GoogleAccount, ev *types.Event, attendees []string) {
	remote := toRemote(ev, attendees)
	var err error
	if ev.GoogleEventID != "" {
		err = es.gcal.Update(ctx, acct.Token(), acct.CalendarID, ev.GoogleEventID, remote, ev.Timezone)
		observeSync("update", err)
	} else {
		var gid string
		gid, err = es.gcal.Insert(ctx, acct.Token(), acct.CalendarID, remote, ev.Timezone)
		observeSync("insert", err)
		if err == nil {
			ev.GoogleEventID = gid
		}
	}
	if err != nil {
		es.log.Warn("Google Calendar sync failed", "event_id", ev.ID, "error", err)
		ev.SyncStatus = types.SyncStatusFailed
		ev.SyncError = err.Error()
		return
	}
	ev.SyncStatus = types.SyncStatusSynced
	ev.SyncError = ""
}

func (es *eventService) Delete(ctx context.Context, id string) error {
	userID, err := requireUser(ctx)
	if err != nil {
		return err
	}
	acct := es.linkedAccount(ctx, userID)

	ev, err := es.lookup(ctx, userID, id)
	var ae *apierr.Error
	if errors.As(err, &ae) && ae.Status == http.StatusNotFound && acct != nil && !isUUID(id) {
		// Listed straight from Google and never stored here.
		err := es.gcal.Delete(ctx, acct.Token(), acct.CalendarID, id)
		observeSync("delete", err)
		if err != nil {
			return apierr.Upstream("failed to delete event", err)
		}
		es.invalidate(ctx, userID)
		return nil
	}
	if err != nil {
		return err
	}

	if acct != nil && ev.GoogleEventID != "" {
		err := es.gcal.Delete(ctx, acct.Token(), acct.CalendarID, ev.GoogleEventID)
		observeSync("delete", err)
		if err != nil {
			es.log.Error("Google Calendar delete failed", "event_id", ev.ID, "error", err)
			return apierr.Upstream("failed to delete event", err)
		}
	}
	if _, err := es.events.SoftDelete(ctx, nil, userID, ev.ID); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	es.invalidate(ctx, userID)
	return nil
}

// ResyncFailed pushes FAILED events to Google once. Events whose owner has no
// linked account are left as they are.
func (es *eventService) ResyncFailed(ctx context.Context, limit int) (ResyncResult, error) {
	var res ResyncResult
	if es.gcal == nil {
		return res, fmt.Errorf("google calendar sync is not configured")
	}
	failed, err := es.events.ListBySyncStatus(ctx, nil, types.SyncStatusFailed, limit)
	if err != nil {
		return res, fmt.Errorf("list failed events: %w", err)
	}
	for _, ev := range failed {
		res.Attempted++
		acct := es.linkedAccount(ctx, ev.UserID)
		if acct == nil {
			res.Skipped++
			continue
		}
		es.push(ctx, acct, ev, decodeAttendees(ev.Attendees))
		if ev.SyncStatus == types.SyncStatusSynced {
			err := es.events.MarkSynced(ctx, nil, ev.ID, ev.GoogleEventID)
			if errors.Is(err, calrepo.ErrConflict) {
				es.log.Warn("Google event already bound to another event", "event_id", ev.ID, "google_event_id", ev.GoogleEventID)
				res.Failed++
				continue
			}
			if err != nil {
				return res, fmt.Errorf("mark synced: %w", err)
			}
			res.Synced++
			es.invalidate(ctx, ev.UserID)
			continue
		}
		if err := es.events.MarkFailed(ctx, nil, ev.ID, ev.SyncError); err != nil {
			return res, fmt.Errorf("mark failed: %w", err)
		}
		res.Failed++
	}
	es.log.Info("Resync finished", "attempted", res.Attempted, "synced", res.Synced, "failed", res.Failed, "skipped", res.Skipped)
	return res, nil
}

func storeError(op string, err error) error {
	if errors.Is(err, calrepo.ErrConflict) {
		return apierr.Conflict("event_conflict", "event is already linked to that Google Calendar entry", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// lookup resolves id as a local uuid first, then as a Google event id.
func (es *eventService) lookup(ctx context.Context, userID uuid.UUID, id string) (*types.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apierr.BadRequest("invalid_request", fmt.Errorf("event id is required"))
	}
	var (
		ev  *types.Event
		err error
	)
	if eventID, perr := uuid.Parse(id); perr == nil {
		ev, err = es.events.GetByID(ctx, nil, userID, eventID)
	} else {
		ev, err = es.events.GetByGoogleID(ctx, nil, userID, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if ev == nil {
		return nil, apierr.NotFound("event_not_found", fmt.Errorf("event not found"))
	}
	return ev, nil
}

func (es *eventService) invalidate(ctx context.Context, userID uuid.UUID) {
	if es.cache == nil {
		return
	}
	if err := es.cache.Invalidate(ctx, userID); err != nil {
		es.log.Warn("Event cache invalidation failed", "user_id", userID, "error", err)
	}
}

func remoteToWire(ev googlecal.Event) types.CalendarEvent {
	return types.CalendarEvent{
		ID:          ev.GoogleID,
		Title:       ev.Title,
		Start:       ev.Start,
		End:         ev.End,
		Description: ev.Description,
		Location:    ev.Location,
	}
}

func toRemote(ev *types.Event, attendees []string) googlecal.Event {
	return googlecal.Event{
		GoogleID:    ev.GoogleEventID,
		Title:       ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
		Start:       ev.Start,
		End:         ev.End,
		Attendees:   attendees,
	}
}

func encodeAttendees(in []string) (datatypes.JSON, error) {
	clean := make([]string, 0, len(in))
	for _, a := range in {
		if a = strings.TrimSpace(a); a != "" {
			clean = append(clean, a)
		}
	}
	if len(clean) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(clean)
	if err != nil {
		return nil, fmt.Errorf("encode attendees: %w", err)
	}
	return datatypes.JSON(b), nil
}

func decodeAttendees(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func orUTC(tz string) string {
	if tz = strings.TrimSpace(tz); tz != "" {
		return tz
	}
	return "UTC"
}

func checkTimezone(tz string) error {
	if _, err := time.LoadLocation(orUTC(tz)); err != nil {
		return apierr.BadRequest("invalid_timezone", fmt.Errorf("unknown timezone %q", tz))
	}
	return nil
}

func isUUID(s string) bool {
	_, err := uuid.Parse(strings.TrimSpace(s))
	return err == nil
}
