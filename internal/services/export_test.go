package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"

	types "github.com/yungbote/kaical-backend/internal/domain"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

type stubEvents struct {
	EventService
	events []types.CalendarEvent
}

func (s stubEvents) List(ctx context.Context, from, to time.Time, tz string) ([]types.CalendarEvent, error) {
	return s.events, nil
}

func TestExportICS(t *testing.T) {
	start := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
	svc := NewExportService(logger.Nop(), stubEvents{events: []types.CalendarEvent{
		{ID: "e1", Title: "Standup", Start: start, End: start.Add(15 * time.Minute), Location: "Room 4"},
		{ID: "e2", Title: "Review", Start: start.Add(2 * time.Hour), End: start.Add(3 * time.Hour)},
	}})

	var buf bytes.Buffer
	n, err := svc.ExportICS(context.Background(), &buf, start, start.Add(24*time.Hour), "UTC")
	if err != nil {
		t.Fatalf("ExportICS: %v", err)
	}
	if n != 2 {
		t.Fatalf("count=%d", n)
	}
	if !strings.Contains(buf.String(), "PRODID:"+icsProductID) {
		t.Fatalf("missing product id:\n%s", buf.String())
	}

	cal, err := ical.NewDecoder(&buf).Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	vevents := cal.Events()
	if len(vevents) != 2 {
		t.Fatalf("events=%d", len(vevents))
	}
	summary, err := vevents[0].Props.Text(ical.PropSummary)
	if err != nil || summary != "Standup" {
		t.Fatalf("summary=%q err=%v", summary, err)
	}
	got, err := vevents[0].DateTimeStart(time.UTC)
	if err != nil || !got.Equal(start) {
		t.Fatalf("start=%s err=%v", got, err)
	}
}
