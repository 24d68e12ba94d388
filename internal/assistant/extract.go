package assistant

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yungbote/kaical-backend/internal/domain/calendar"
	"github.com/yungbote/kaical-backend/internal/domain/chat"
)

const (
	actionScheduleEvent = "schedule_event"
	actionCancelEvent   = "cancel_event"

	defaultScheduledReply = "Event scheduled!"
	defaultCancelledReply = "Event cancelled!"
)

var fencedJSON = regexp.MustCompile("(?is)```json[ \\t]*\\r?\\n?(.*?)```")

// Extraction is the classified model reply. Action is nil for plain text.
type Extraction struct {
	Reply  string
	Action *chat.Action
}

type actionPayload struct {
	Action              string         `json:"action"`
	EventDetails        *actionDetails `json:"eventDetails"`
	ConfirmationMessage string         `json:"confirmationMessage"`
}

type actionDetails struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	StartTimeISO string `json:"startTimeISO"`
	EndTimeISO   string `json:"endTimeISO"`
	Description  string `json:"description"`
	Location     string `json:"location"`
}

// Extractor classifies model output into a reply and an optional action.
// It never touches calendar state.
type Extractor struct {
	NewID func() string
}

func NewExtractor() *Extractor {
	return &Extractor{NewID: NewEventID}
}

// NewEventID returns a unique, time-ordered event id.
func NewEventID() string {
	return "evt-" + ulid.Make().String()
}

// Extract looks for one JSON action object in text, preferring a ```json
// fenced block over bare objects. Bare objects are tried in order until one
// decodes into an action. Zone-less instants are read in loc.
func (x *Extractor) Extract(text string, loc *time.Location) Extraction {
	if loc == nil {
		loc = time.UTC
	}
	for _, raw := range objectCandidates(text) {
		if ext, ok := x.decodeAction(raw, loc); ok {
			return ext
		}
	}
	return Extraction{Reply: text}
}

func (x *Extractor) decodeAction(raw string, loc *time.Location) (Extraction, bool) {
	var p actionPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Extraction{}, false
	}
	if p.EventDetails == nil {
		return Extraction{}, false
	}

	switch strings.TrimSpace(p.Action) {
	case actionScheduleEvent:
		ev, err := x.scheduledEvent(p.EventDetails, loc)
		if err != nil {
			return Extraction{}, false
		}
		return Extraction{
			Reply:  orDefault(p.ConfirmationMessage, defaultScheduledReply),
			Action: chat.ScheduleAction(ev),
		}, true
	case actionCancelEvent:
		id := strings.TrimSpace(p.EventDetails.ID)
		if id == "" {
			return Extraction{}, false
		}
		return Extraction{
			Reply:  orDefault(p.ConfirmationMessage, defaultCancelledReply),
			Action: chat.CancelAction(id),
		}, true
	default:
		return Extraction{}, false
	}
}

var errIncompleteEvent = errors.New("incomplete event details")

func (x *Extractor) scheduledEvent(d *actionDetails, loc *time.Location) (calendar.CalendarEvent, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return calendar.CalendarEvent{}, errIncompleteEvent
	}
	start, err := ParseInstant(d.StartTimeISO, loc)
	if err != nil {
		return calendar.CalendarEvent{}, err
	}
	end, err := ParseInstant(d.EndTimeISO, loc)
	if err != nil {
		return calendar.CalendarEvent{}, err
	}
	if !end.After(start) {
		return calendar.CalendarEvent{}, errIncompleteEvent
	}
	newID := x.NewID
	if newID == nil {
		newID = NewEventID
	}
	return calendar.CalendarEvent{
		ID:          newID(),
		Title:       title,
		Start:       start,
		End:         end,
		Description: strings.TrimSpace(d.Description),
		Location:    strings.TrimSpace(d.Location),
	}, nil
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseInstant accepts RFC 3339, or a zone-less timestamp interpreted in loc.
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errIncompleteEvent
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	var lastErr error
	for _, layout := range localLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func objectCandidates(text string) []string {
	var out []string
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		if objs := carveObjects(m[1]); len(objs) > 0 {
			out = append(out, objs[0])
		}
	}
	return append(out, carveObjects(text)...)
}

// carveObjects returns the top-level balanced {...} spans of s in order.
// Braces inside JSON strings do not count toward nesting.
func carveObjects(s string) []string {
	var out []string
	for start := strings.IndexByte(s, '{'); start >= 0; {
		from := start + 1
		if end, ok := matchBrace(s, start); ok {
			out = append(out, s[start:end+1])
			from = end + 1
		}
		next := strings.IndexByte(s[from:], '{')
		if next < 0 {
			break
		}
		start = from + next
	}
	return out
}

func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
