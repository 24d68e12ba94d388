package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	types "github.com/yungbote/kaical-backend/internal/domain"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

const icsProductID = "-//kaical//EN"

// ExportService renders a user's calendar range as an iCalendar document.
type ExportService interface {
	ExportICS(ctx context.Context, w io.Writer, from, to time.Time, tz string) (int, error)
}

type exportService struct {
	log    *logger.Logger
	events EventService
	now    func() time.Time
}

func NewExportService(log *logger.Logger, events EventService) ExportService {
	return &exportService{
		log:    log.With("service", "ExportService"),
		events: events,
		now:    time.Now,
	}
}

// ExportICS writes the VCALENDAR to w and returns how many events it holds.
func (xs *exportService) ExportICS(ctx context.Context, w io.Writer, from, to time.Time, tz string) (int, error) {
	events, err := xs.events.List(ctx, from, to, tz)
	if err != nil {
		return 0, err
	}
	cal := buildCalendar(events, xs.now().UTC())
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return 0, fmt.Errorf("encode ics: %w", err)
	}
	return len(events), nil
}

func buildCalendar(events []types.CalendarEvent, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icsProductID)
	for _, ev := range events {
		cal.Children = append(cal.Children, toVEvent(ev, stamp))
	}
	return cal
}

func toVEvent(ev types.CalendarEvent, stamp time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, ev.ID+"@kaical")
	ve.Props.SetText(ical.PropSummary, ev.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	ve.Props.SetDateTime(ical.PropDateTimeStart, ev.Start.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, ev.End.UTC())
	if ev.Description != "" {
		ve.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.Location != "" {
		ve.Props.SetText(ical.PropLocation, ev.Location)
	}
	return ve
}
