package googlecal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(logger.Nop(), "id", "secret", option.WithEndpoint(srv.URL+"/"))
}

var testToken = &oauth2.Token{AccessToken: "ya29.test", TokenType: "Bearer"}

func TestListMapsTimedEvents(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !strings.HasSuffix(r.URL.Path, "/calendars/primary/events") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.URL.Query().Get("singleEvents") != "true" {
			t.Errorf("expected expanded recurring events")
		}
		if got := r.Header.Get("Authorization"); got != "Bearer ya29.test" {
			t.Errorf("authorization=%q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"items":[
			{"id":"g1","summary":"Standup","start":{"dateTime":"2025-01-01T10:00:00Z"},"end":{"dateTime":"2025-01-01T10:30:00Z"},"attendees":[{"email":"a@example.com"}]},
			{"id":"g2","summary":"Holiday","start":{"date":"2025-01-01"},"end":{"date":"2025-01-02"}}
		]}`)
	})

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := c.List(context.Background(), testToken, "", from, from.Add(24*time.Hour), "UTC")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected all-day entry to be skipped, got %d events", len(got))
	}
	if got[0].GoogleID != "g1" || got[0].Title != "Standup" || len(got[0].Attendees) != 1 {
		t.Fatalf("unexpected event: %+v", got[0])
	}
}

func TestInsertReturnsGoogleID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["summary"] != "Dentist" {
			t.Errorf("summary=%v", body["summary"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"g-new"}`)
	})
	start := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	id, err := c.Insert(context.Background(), testToken, "primary", Event{Title: "Dentist", Start: start, End: start.Add(time.Hour)}, "UTC")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id != "g-new" {
		t.Fatalf("id=%q", id)
	}
}

func TestDeleteTreatsGoneAsSuccess(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusGone} {
		status := status
		t.Run(http.StatusText(status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_, _ = io.WriteString(w, `{"error":{"code":`+jsonInt(status)+`,"message":"gone"}}`)
			})
			if err := c.Delete(context.Background(), testToken, "", "g1"); err != nil {
				t.Fatalf("delete: %v", err)
			}
		})
	}
}

func TestDeleteSurfacesOtherErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"forbidden"}}`)
	})
	if err := c.Delete(context.Background(), testToken, "", "g1"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMissingToken(t *testing.T) {
	c := New(nil, "id", "secret")
	if _, err := c.List(context.Background(), nil, "", time.Now(), time.Now(), ""); err == nil {
		t.Fatalf("expected error for nil token")
	}
}

func jsonInt(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
