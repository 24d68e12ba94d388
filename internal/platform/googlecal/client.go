package googlecal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

const DefaultCalendarID = "primary"

// Event is the provider-neutral view of a Google Calendar entry.
type Event struct {
	GoogleID    string
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// Client talks to Google Calendar on behalf of one user per call. The OAuth
// token is supplied per call; the client itself holds no user state.
type Client struct {
	log     *logger.Logger
	oauth   *oauth2.Config
	svcOpts []option.ClientOption
}

func New(log *logger.Logger, clientID, clientSecret string, opts ...option.ClientOption) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		log: log.With("client", "GoogleCalendar"),
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       []string{calendar.CalendarEventsScope},
			Endpoint:     google.Endpoint,
		},
		svcOpts: opts,
	}
}

func (c *Client) service(ctx context.Context, tok *oauth2.Token) (*calendar.Service, error) {
	if tok == nil || (strings.TrimSpace(tok.AccessToken) == "" && strings.TrimSpace(tok.RefreshToken) == "") {
		return nil, fmt.Errorf("google calendar: missing oauth token")
	}
	opts := append([]option.ClientOption{option.WithHTTPClient(c.oauth.Client(ctx, tok))}, c.svcOpts...)
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return svc, nil
}

// List returns timed events overlapping [from, to), expanded and ordered by start.
func (c *Client) List(ctx context.Context, tok *oauth2.Token, calendarID string, from, to time.Time, tz string) ([]Event, error) {
	svc, err := c.service(ctx, tok)
	if err != nil {
		return nil, err
	}
	call := svc.Events.List(calendarOrPrimary(calendarID)).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		OrderBy("startTime").
		Context(ctx)
	if tz != "" {
		call = call.TimeZone(tz)
	}
	var out []Event
	err = call.Pages(ctx, func(page *calendar.Events) error {
		out = append(out, toEvents(page.Items)...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}
	c.log.Debug("Fetched events from Google Calendar", "count", len(out))
	return out, nil
}

// Insert creates the event and returns its Google id.
func (c *Client) Insert(ctx context.Context, tok *oauth2.Token, calendarID string, ev Event, tz string) (string, error) {
	svc, err := c.service(ctx, tok)
	if err != nil {
		return "", err
	}
	created, err := svc.Events.Insert(calendarOrPrimary(calendarID), fromEvent(ev, tz)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create google event: %w", err)
	}
	return created.Id, nil
}

func (c *Client) Update(ctx context.Context, tok *oauth2.Token, calendarID, googleID string, ev Event, tz string) error {
	svc, err := c.service(ctx, tok)
	if err != nil {
		return err
	}
	if _, err := svc.Events.Update(calendarOrPrimary(calendarID), googleID, fromEvent(ev, tz)).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to update google event: %w", err)
	}
	return nil
}

// Delete removes the event. An event that is already gone counts as deleted.
func (c *Client) Delete(ctx context.Context, tok *oauth2.Token, calendarID, googleID string) error {
	svc, err := c.service(ctx, tok)
	if err != nil {
		return err
	}
	err = svc.Events.Delete(calendarOrPrimary(calendarID), googleID).Context(ctx).Do()
	if err != nil && !IsGone(err) {
		return fmt.Errorf("failed to delete google event: %w", err)
	}
	return nil
}

// IsGone reports a 404 or 410 from the Calendar API.
func IsGone(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone
	}
	return false
}

func calendarOrPrimary(id string) string {
	if strings.TrimSpace(id) == "" {
		return DefaultCalendarID
	}
	return id
}

func toEvents(items []*calendar.Event) []Event {
	out := make([]Event, 0, len(items))
	for _, item := range items {
		// All-day entries carry Date instead of DateTime.
		if item == nil || item.Start == nil || item.Start.DateTime == "" || item.End == nil {
			continue
		}
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			continue
		}
		var attendees []string
		for _, a := range item.Attendees {
			if a != nil && a.Email != "" {
				attendees = append(attendees, a.Email)
			}
		}
		out = append(out, Event{
			GoogleID:    item.Id,
			Title:       item.Summary,
			Description: item.Description,
			Location:    item.Location,
			Start:       start,
			End:         end,
			Attendees:   attendees,
		})
	}
	return out
}

func fromEvent(ev Event, tz string) *calendar.Event {
	out := &calendar.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
		Start:       &calendar.EventDateTime{DateTime: ev.Start.Format(time.RFC3339), TimeZone: tz},
		End:         &calendar.EventDateTime{DateTime: ev.End.Format(time.RFC3339), TimeZone: tz},
	}
	for _, email := range ev.Attendees {
		out.Attendees = append(out.Attendees, &calendar.EventAttendee{Email: email})
	}
	return out
}
