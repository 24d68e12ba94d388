package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	calrepo "github.com/yungbote/kaical-backend/internal/data/repos/calendar"
	"github.com/yungbote/kaical-backend/internal/data/repos/testutil"
	userrepo "github.com/yungbote/kaical-backend/internal/data/repos/user"
	types "github.com/yungbote/kaical-backend/internal/domain"
	"github.com/yungbote/kaical-backend/internal/platform/apierr"
	"github.com/yungbote/kaical-backend/internal/platform/ctxutil"
	"github.com/yungbote/kaical-backend/internal/platform/googlecal"
)

type fakeCalendar struct {
	mu        sync.Mutex
	listErr   error
	insertErr error
	deleteErr error
	remote    []googlecal.Event
	inserted  []googlecal.Event
	updated   map[string]googlecal.Event
	deleted   []string
	lists     int
	onList    func()
}

func (f *fakeCalendar) List(ctx context.Context, tok *oauth2.Token, calendarID string, from, to time.Time, tz string) ([]googlecal.Event, error) {
	if f.onList != nil {
		f.onList()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return f.remote, f.listErr
}

func (f *fakeCalendar) Insert(ctx context.Context, tok *oauth2.Token, calendarID string, ev googlecal.Event, tz string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.inserted = append(f.inserted, ev)
	return "g-" + ev.Title, nil
}

func (f *fakeCalendar) Update(ctx context.Context, tok *oauth2.Token, calendarID, googleID string, ev googlecal.Event, tz string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = map[string]googlecal.Event{}
	}
	f.updated[googleID] = ev
	return nil
}

func (f *fakeCalendar) Delete(ctx context.Context, tok *oauth2.Token, calendarID, googleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, googleID)
	return nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]types.CalendarEvent
	ver     int64
	invals  int
}

func (m *memCache) key(u uuid.UUID, ver int64, from, to time.Time) string {
	return fmt.Sprintf("%s:%d:%d:%d", u, ver, from.Unix(), to.Unix())
}

func (m *memCache) GetRange(ctx context.Context, u uuid.UUID, from, to time.Time) ([]types.CalendarEvent, int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[m.key(u, m.ver, from, to)]
	return v, m.ver, ok, nil
}

func (m *memCache) PutRange(ctx context.Context, u uuid.UUID, ver int64, from, to time.Time, evs []types.CalendarEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = map[string][]types.CalendarEvent{}
	}
	m.entries[m.key(u, ver, from, to)] = evs
	return nil
}

func (m *memCache) Invalidate(ctx context.Context, u uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invals++
	m.ver++
	return nil
}

func (m *memCache) Close() error { return nil }

type eventFixture struct {
	db     *gorm.DB
	svc    EventService
	gcal   *fakeCalendar
	cache  *memCache
	user   *types.User
	ctx    context.Context
	events calrepo.EventRepo
}

func newEventFixture(t *testing.T, linked bool) *eventFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	u := testutil.SeedUser(t, ctx, db, "fb-"+uuid.NewString())
	accounts := userrepo.NewGoogleAccountRepo(db, log)
	if linked {
		if err := accounts.Upsert(ctx, nil, &types.GoogleAccount{UserID: u.ID, AccessToken: "at", RefreshToken: "rt", CalendarID: "primary"}); err != nil {
			t.Fatalf("link account: %v", err)
		}
	}
	events := calrepo.NewEventRepo(db, log)
	gcal := &fakeCalendar{}
	cache := &memCache{}
	return &eventFixture{
		db:     db,
		svc:    NewEventService(log, events, accounts, gcal, cache),
		gcal:   gcal,
		cache:  cache,
		user:   u,
		ctx:    ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: u.ID}),
		events: events,
	}
}

var jan2 = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

func TestEventCreateSyncStatus(t *testing.T) {
	cases := []struct {
		name      string
		linked    bool
		insertErr error
		want      types.SyncStatus
		wantGID   string
	}{
		{name: "no google account", linked: false, want: types.SyncStatusLocal},
		{name: "google accepts", linked: true, want: types.SyncStatusSynced, wantGID: "g-Lunch"},
		{name: "google rejects", linked: true, insertErr: errors.New("403 forbidden"), want: types.SyncStatusFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newEventFixture(t, tc.linked)
			fx.gcal.insertErr = tc.insertErr

			ev, err := fx.svc.Create(fx.ctx, EventInput{
				Title:     "Lunch",
				Start:     jan2.Add(12 * time.Hour),
				End:       jan2.Add(13 * time.Hour),
				Attendees: []string{"a@example.com", " "},
			})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if ev.SyncStatus != tc.want || ev.GoogleEventID != tc.wantGID {
				t.Fatalf("status=%s gid=%q", ev.SyncStatus, ev.GoogleEventID)
			}
			if tc.insertErr != nil && ev.SyncError == "" {
				t.Fatalf("sync error not recorded")
			}
			stored, err := fx.events.GetByID(context.Background(), nil, fx.user.ID, ev.ID)
			if err != nil || stored == nil || stored.SyncStatus != tc.want {
				t.Fatalf("stored: %+v, %v", stored, err)
			}
			if got := decodeAttendees(stored.Attendees); len(got) != 1 || got[0] != "a@example.com" {
				t.Fatalf("attendees=%v", got)
			}
		})
	}
}

func TestEventCreateValidation(t *testing.T) {
	fx := newEventFixture(t, false)
	cases := []struct {
		name string
		in   EventInput
		code string
	}{
		{name: "missing title", in: EventInput{Start: jan2, End: jan2.Add(time.Hour)}, code: "invalid_request"},
		{name: "end before start", in: EventInput{Title: "x", Start: jan2, End: jan2.Add(-time.Hour)}, code: "invalid_request"},
		{name: "bad timezone", in: EventInput{Title: "x", Start: jan2, End: jan2.Add(time.Hour), Timezone: "Nowhere/City"}, code: "invalid_timezone"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.svc.Create(fx.ctx, tc.in)
			if ae := apierr.As(err); ae == nil || ae.Code != tc.code {
				t.Fatalf("got %v want %s", err, tc.code)
			}
		})
	}
	if _, err := fx.svc.Create(context.Background(), EventInput{Title: "x", Start: jan2, End: jan2.Add(time.Hour)}); apierr.As(err).Status != http.StatusUnauthorized {
		t.Fatalf("anonymous create allowed: %v", err)
	}
}

func TestEventListPrefersGoogleAndCaches(t *testing.T) {
	fx := newEventFixture(t, true)
	fx.gcal.remote = []googlecal.Event{{GoogleID: "g-1", Title: "Remote", Start: jan2.Add(9 * time.Hour), End: jan2.Add(10 * time.Hour)}}

	for i := 0; i < 2; i++ {
		got, err := fx.svc.List(fx.ctx, jan2, jan2.Add(24*time.Hour), "UTC")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 1 || got[0].ID != "g-1" {
			t.Fatalf("unexpected events: %+v", got)
		}
	}
	if fx.gcal.lists != 1 {
		t.Fatalf("expected one google call, got %d", fx.gcal.lists)
	}

	if _, err := fx.svc.Create(fx.ctx, EventInput{Title: "New", Start: jan2, End: jan2.Add(time.Hour)}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := fx.svc.List(fx.ctx, jan2, jan2.Add(24*time.Hour), "UTC"); err != nil {
		t.Fatalf("List: %v", err)
	}
	if fx.gcal.lists != 2 {
		t.Fatalf("cache not invalidated by write, lists=%d", fx.gcal.lists)
	}
}

func TestEventListDropsFillRacingAWrite(t *testing.T) {
	fx := newEventFixture(t, true)
	fx.gcal.remote = []googlecal.Event{{GoogleID: "g-1", Title: "Remote", Start: jan2.Add(9 * time.Hour), End: jan2.Add(10 * time.Hour)}}
	// A write lands while the Google read is in flight.
	fx.gcal.onList = func() {
		fx.gcal.onList = nil
		if _, err := fx.svc.Create(fx.ctx, EventInput{Title: "Racing", Start: jan2, End: jan2.Add(time.Hour)}); err != nil {
			t.Errorf("Create: %v", err)
		}
	}

	if _, err := fx.svc.List(fx.ctx, jan2, jan2.Add(24*time.Hour), "UTC"); err != nil {
		t.Fatalf("List: %v", err)
	}
	fx.gcal.remote = append(fx.gcal.remote, googlecal.Event{GoogleID: "g-Racing", Title: "Racing", Start: jan2, End: jan2.Add(time.Hour)})

	got, err := fx.svc.List(fx.ctx, jan2, jan2.Add(24*time.Hour), "UTC")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("stale pre-write list served from cache: %+v", got)
	}
	if fx.gcal.lists != 2 {
		t.Fatalf("expected a fresh google read after the write, lists=%d", fx.gcal.lists)
	}
}

func TestEventListFallsBackToDatabase(t *testing.T) {
	fx := newEventFixture(t, true)
	testutil.SeedEvent(t, context.Background(), fx.db, fx.user.ID, "Local", jan2.Add(8*time.Hour), time.Hour)
	fx.gcal.listErr = errors.New("503 backend error")

	got, err := fx.svc.List(fx.ctx, jan2, jan2.Add(24*time.Hour), "UTC")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Local" {
		t.Fatalf("unexpected events: %+v", got)
	}

	if _, err := fx.svc.List(fx.ctx, jan2, jan2, "UTC"); apierr.As(err).Code != "invalid_request" {
		t.Fatalf("empty range accepted: %v", err)
	}
}

func TestEventUpdateAndDelete(t *testing.T) {
	fx := newEventFixture(t, true)
	ev, err := fx.svc.Create(fx.ctx, EventInput{Title: "Gym", Start: jan2.Add(7 * time.Hour), End: jan2.Add(8 * time.Hour)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	title := "Gym (late)"
	end := jan2.Add(9 * time.Hour)
	updated, err := fx.svc.Update(fx.ctx, ev.ID.String(), EventPatch{Title: &title, End: &end})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != title || !updated.End.Equal(end) || updated.SyncStatus != types.SyncStatusSynced {
		t.Fatalf("unexpected update: %+v", updated)
	}
	if _, ok := fx.gcal.updated["g-Gym"]; !ok {
		t.Fatalf("google update not sent")
	}

	badEnd := jan2
	if _, err := fx.svc.Update(fx.ctx, ev.ID.String(), EventPatch{End: &badEnd}); apierr.As(err).Code != "invalid_request" {
		t.Fatalf("inverted range accepted: %v", err)
	}
	if _, err := fx.svc.Update(fx.ctx, uuid.NewString(), EventPatch{Title: &title}); apierr.As(err).Status != http.StatusNotFound {
		t.Fatalf("missing event: %v", err)
	}

	fx.gcal.deleteErr = errors.New("500 backend")
	if err := fx.svc.Delete(fx.ctx, ev.ID.String()); apierr.As(err).Code != "upstream_error" {
		t.Fatalf("expected upstream error, got %v", err)
	}
	fx.gcal.deleteErr = nil
	if err := fx.svc.Delete(fx.ctx, "g-Gym"); err != nil {
		t.Fatalf("Delete by google id: %v", err)
	}
	if got, _ := fx.events.GetByID(context.Background(), nil, fx.user.ID, ev.ID); got != nil {
		t.Fatalf("event still stored")
	}

	if err := fx.svc.Delete(fx.ctx, "g-remote-only"); err != nil {
		t.Fatalf("Delete remote-only: %v", err)
	}
	if n := len(fx.gcal.deleted); n != 2 || fx.gcal.deleted[1] != "g-remote-only" {
		t.Fatalf("deleted=%v", fx.gcal.deleted)
	}
}

func TestEventResyncFailed(t *testing.T) {
	fx := newEventFixture(t, true)
	fx.gcal.insertErr = errors.New("quota")
	ev, err := fx.svc.Create(fx.ctx, EventInput{Title: "Retry", Start: jan2, End: jan2.Add(time.Hour)})
	if err != nil || ev.SyncStatus != types.SyncStatusFailed {
		t.Fatalf("Create: %+v, %v", ev, err)
	}

	fx.gcal.insertErr = nil
	res, err := fx.svc.ResyncFailed(context.Background(), 100)
	if err != nil {
		t.Fatalf("ResyncFailed: %v", err)
	}
	if res.Synced < 1 {
		t.Fatalf("nothing synced: %+v", res)
	}
	stored, _ := fx.events.GetByID(context.Background(), nil, fx.user.ID, ev.ID)
	if stored.SyncStatus != types.SyncStatusSynced || stored.GoogleEventID != "g-Retry" {
		t.Fatalf("not resynced: %+v", stored)
	}
}
