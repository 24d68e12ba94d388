package calendar

import "time"

// CalendarEvent is the wire shape shared with the UI and the assistant.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
}

// Overlaps reports whether the two half-open intervals intersect.
func (e CalendarEvent) Overlaps(o CalendarEvent) bool {
	return e.Start.Before(o.End) && o.Start.Before(e.End)
}
