package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/kaical-backend/internal/domain/calendar"
)

const (
	clockLayout = "Monday, January 2, 2006 at 03:04:05 PM"
	eventLayout = "Mon Jan 2 2006 15:04"
)

// BuildSystemInstruction renders the persona, the current time in loc, the
// caller's event inventory with ids, and the operating rules.
func BuildSystemInstruction(p *Profile, now time.Time, loc *time.Location, events []calendar.CalendarEvent) string {
	if p == nil {
		p = DefaultProfile()
	}
	if loc == nil {
		loc = time.UTC
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, %s. Your goal is to help users manage their calendar. ", p.Name, p.Persona)
	fmt.Fprintf(&b, "The user is in the '%s' timezone, and the current date is %s. ", loc.String(), now.In(loc).Format(clockLayout))
	b.WriteString(eventInventory(events, loc))
	b.WriteString("\n\nYour tasks are:\n")
	fmt.Fprintf(&b, "1. Schedule events. Once all details are clear, respond with a JSON object: %s\n", p.Actions.Schedule)
	fmt.Fprintf(&b, "2. Cancel events. Once confirmed, respond with a JSON object: %s\n", p.Actions.Cancel)
	b.WriteString("\nRules:\n")
	for _, r := range p.Rules {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		b.WriteString("- ")
		b.WriteString(r)
		b.WriteString("\n")
	}
	b.WriteString("Use ISO 8601 timestamps with an explicit UTC offset for startTimeISO and endTimeISO.")
	return b.String()
}

func eventInventory(events []calendar.CalendarEvent, loc *time.Location) string {
	if len(events) == 0 {
		return "The user's calendar is currently empty."
	}
	parts := make([]string, 0, len(events))
	for _, e := range events {
		parts = append(parts, fmt.Sprintf("(ID: %s) %q from %s to %s",
			e.ID, e.Title, e.Start.In(loc).Format(eventLayout), e.End.In(loc).Format(eventLayout)))
	}
	return "The user's calendar already has these events, each with a unique ID: " + strings.Join(parts, "; ") + "."
}
