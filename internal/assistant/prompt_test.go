package assistant

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/kaical-backend/internal/domain/calendar"
)

func TestBuildSystemInstruction(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Istanbul")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	now := time.Date(2025, 1, 6, 7, 30, 0, 0, time.UTC)
	events := []calendar.CalendarEvent{{
		ID:    "evt-1",
		Title: "Standup",
		Start: time.Date(2025, 1, 6, 7, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 6, 7, 15, 0, 0, time.UTC),
	}}
	got := BuildSystemInstruction(DefaultProfile(), now, loc, events)

	for _, want := range []string{
		"You are Kai",
		"'Europe/Istanbul' timezone",
		"Monday, January 6, 2025 at 10:30:00 AM",
		`(ID: evt-1) "Standup" from Mon Jan 6 2025 10:00 to Mon Jan 6 2025 10:15`,
		`"action": "schedule_event"`,
		`"action": "cancel_event"`,
		"one piece of missing information at a time",
		"confirm before cancelling",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("instruction missing %q:\n%s", want, got)
		}
	}
}

func TestBuildSystemInstructionEmptyCalendar(t *testing.T) {
	got := BuildSystemInstruction(nil, time.Now(), nil, nil)
	if !strings.Contains(got, "calendar is currently empty") {
		t.Fatalf("expected empty calendar note:\n%s", got)
	}
}

func TestProfileLocation(t *testing.T) {
	p := DefaultProfile()
	loc, err := p.Location("")
	if err != nil || loc.String() != "Europe/Istanbul" {
		t.Fatalf("default location: %v %v", loc, err)
	}
	if _, err := p.Location("Mars/Olympus"); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}

func TestLoadProfileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte("name: Ada\ndefault_timezone: UTC\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Name != "Ada" || p.DefaultTimezone != "UTC" {
		t.Fatalf("override not applied: %+v", p)
	}
	if p.Actions.Schedule == "" {
		t.Fatalf("defaults lost")
	}
}
