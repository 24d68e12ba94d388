package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	types "github.com/yungbote/kaical-backend/internal/domain"
	"github.com/yungbote/kaical-backend/internal/platform/apierr"
	"github.com/yungbote/kaical-backend/internal/platform/llm"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

type fakeGenerator struct {
	calls atomic.Int32
	reply string
	err   error
	last  llm.ChatRequest
}

func (f *fakeGenerator) GenerateChat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	f.calls.Add(1)
	f.last = req
	if f.err != nil {
		return llm.ChatResponse{}, f.err
	}
	return llm.ChatResponse{Text: f.reply}, nil
}

func newTestChatService(gen *fakeGenerator, cfg llm.Config) *chatService {
	lazy := llm.NewLazy(func(ctx context.Context) (llm.Generator, error) { return gen, nil })
	cs := NewChatService(logger.Nop(), nil, cfg, lazy, time.Second).(*chatService)
	cs.now = func() time.Time { return time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC) }
	return cs
}

var geminiCfg = llm.Config{Backend: llm.BackendGemini, GoogleAPIKey: "test-key"}

func userMsg(s string) types.ChatMessage { return types.ChatMessage{Role: types.RoleUser, Content: s} }
func botMsg(s string) types.ChatMessage  { return types.ChatMessage{Role: types.RoleAssistant, Content: s} }

func TestChatRespondPreconditions(t *testing.T) {
	cases := []struct {
		name   string
		req    ChatRequest
		cfg    llm.Config
		status int
		code   string
	}{
		{
			name:   "no messages",
			req:    ChatRequest{},
			cfg:    geminiCfg,
			status: http.StatusBadRequest,
			code:   "invalid_request",
		},
		{
			name:   "final assistant turn",
			req:    ChatRequest{Messages: []types.ChatMessage{userMsg("hi"), botMsg("hello")}},
			cfg:    geminiCfg,
			status: http.StatusBadRequest,
			code:   "invalid_conversation",
		},
		{
			name:   "blank final user turn",
			req:    ChatRequest{Messages: []types.ChatMessage{userMsg("  ")}},
			cfg:    geminiCfg,
			status: http.StatusBadRequest,
			code:   "invalid_conversation",
		},
		{
			name:   "unknown timezone",
			req:    ChatRequest{Messages: []types.ChatMessage{userMsg("hi")}, Timezone: "Mars/Olympus"},
			cfg:    geminiCfg,
			status: http.StatusBadRequest,
			code:   "invalid_timezone",
		},
		{
			name:   "missing credential",
			req:    ChatRequest{Messages: []types.ChatMessage{userMsg("hi")}},
			cfg:    llm.Config{Backend: llm.BackendGemini},
			status: http.StatusInternalServerError,
			code:   "server_config",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{reply: "unused"}
			cs := newTestChatService(gen, tc.cfg)

			_, err := cs.Respond(context.Background(), tc.req)
			ae := apierr.As(err)
			if ae == nil {
				t.Fatalf("expected error")
			}
			if ae.Status != tc.status || ae.Code != tc.code {
				t.Fatalf("got %d/%s want %d/%s", ae.Status, ae.Code, tc.status, tc.code)
			}
			if n := gen.calls.Load(); n != 0 {
				t.Fatalf("generator called %d times", n)
			}
		})
	}
}

func TestChatRespondPlainReplySanitizesHistory(t *testing.T) {
	gen := &fakeGenerator{reply: "What time works for you?"}
	cs := newTestChatService(gen, geminiCfg)

	msgs := []types.ChatMessage{
		botMsg("Hi! I'm Kai."),
		userMsg("book lunch"),
		userMsg("tomorrow"),
		botMsg("What time?"),
		botMsg("Still there?"),
		userMsg("noon"),
	}
	out, err := cs.Respond(context.Background(), ChatRequest{Messages: msgs})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if out.Action != nil {
		t.Fatalf("unexpected action: %+v", out.Action)
	}
	if out.Message.Role != types.RoleAssistant || out.Message.Content != "What time works for you?" {
		t.Fatalf("unexpected message: %+v", out.Message)
	}

	h := gen.last.History
	if len(h) != 2 || h[0].Content != "book lunch" || h[1].Content != "What time?" {
		t.Fatalf("history not sanitized: %+v", h)
	}
	if gen.last.Prompt != "noon" {
		t.Fatalf("prompt=%q", gen.last.Prompt)
	}
	if !strings.Contains(gen.last.System, "Europe/Istanbul") {
		t.Fatalf("default timezone missing from instruction")
	}
}

func TestChatRespondScheduleAction(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n{\"action\":\"schedule_event\",\"eventDetails\":{\"title\":\"Standup\",\"startTimeISO\":\"2025-01-02T10:00:00\",\"endTimeISO\":\"2025-01-02T10:30:00\"},\"confirmationMessage\":\"Booked.\"}\n```"}
	cs := newTestChatService(gen, geminiCfg)

	out, err := cs.Respond(context.Background(), ChatRequest{
		Messages: []types.ChatMessage{userMsg("standup tomorrow 10-10:30")},
		Timezone: "America/New_York",
	})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if out.Action == nil || out.Action.Type != types.ActionSchedule {
		t.Fatalf("expected schedule action, got %+v", out.Action)
	}
	if out.Message.Content != "Booked." {
		t.Fatalf("reply=%q", out.Message.Content)
	}
	ny, _ := time.LoadLocation("America/New_York")
	if want := time.Date(2025, 1, 2, 10, 0, 0, 0, ny); !out.Action.Event.Start.Equal(want) {
		t.Fatalf("start=%s want %s", out.Action.Event.Start, want)
	}
}

func TestChatRespondCancelOutsideInventoryIsPlain(t *testing.T) {
	text := `{"action":"cancel_event","eventDetails":{"id":"evt-404"}}`
	gen := &fakeGenerator{reply: text}
	cs := newTestChatService(gen, geminiCfg)

	events := []types.CalendarEvent{{ID: "evt-1", Title: "Gym"}}
	out, err := cs.Respond(context.Background(), ChatRequest{Messages: []types.ChatMessage{userMsg("cancel it")}, Events: events})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if out.Action != nil || out.Message.Content != text {
		t.Fatalf("expected plain passthrough, got %+v", out)
	}

	gen.reply = `{"action":"cancel_event","eventDetails":{"id":"evt-1"}}`
	out, err = cs.Respond(context.Background(), ChatRequest{Messages: []types.ChatMessage{userMsg("cancel gym")}, Events: events})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if out.Action == nil || out.Action.EventID != "evt-1" || out.Message.Content != "Event cancelled!" {
		t.Fatalf("expected cancel action, got %+v", out)
	}
}

func TestChatRespondUpstreamFailureHidesCause(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("googleapi: 429 quota exhausted for key AIza...")}
	cs := newTestChatService(gen, geminiCfg)

	_, err := cs.Respond(context.Background(), ChatRequest{Messages: []types.ChatMessage{userMsg("hi")}})
	ae := apierr.As(err)
	if ae == nil || ae.Code != "upstream_error" || ae.Status != http.StatusInternalServerError {
		t.Fatalf("unexpected error: %+v", ae)
	}
	if strings.Contains(ae.Message(), "quota") {
		t.Fatalf("cause leaked: %q", ae.Message())
	}
}

func TestChatRespondConstructionFailureIsRetried(t *testing.T) {
	builds := 0
	lazy := llm.NewLazy(func(ctx context.Context) (llm.Generator, error) {
		builds++
		if builds == 1 {
			return nil, errors.New("dial failed")
		}
		return &fakeGenerator{reply: "ok"}, nil
	})
	cs := NewChatService(logger.Nop(), nil, geminiCfg, lazy, time.Second)
	req := ChatRequest{Messages: []types.ChatMessage{userMsg("hi")}}

	if _, err := cs.Respond(context.Background(), req); apierr.As(err).Code != "upstream_error" {
		t.Fatalf("first call: %v", err)
	}
	out, err := cs.Respond(context.Background(), req)
	if err != nil || out.Message.Content != "ok" {
		t.Fatalf("second call: %+v, %v", out, err)
	}
}

type hangingGenerator struct{}

func (hangingGenerator) GenerateChat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	<-ctx.Done()
	return llm.ChatResponse{}, ctx.Err()
}

func TestChatRespondTimesOutHangingBackend(t *testing.T) {
	const timeout = 50 * time.Millisecond
	lazy := llm.NewLazy(func(ctx context.Context) (llm.Generator, error) { return hangingGenerator{}, nil })
	cs := NewChatService(logger.Nop(), nil, geminiCfg, lazy, timeout)

	started := time.Now()
	_, err := cs.Respond(context.Background(), ChatRequest{Messages: []types.ChatMessage{userMsg("hi")}})
	if elapsed := time.Since(started); elapsed > 20*timeout {
		t.Fatalf("Respond took %s with a %s budget", elapsed, timeout)
	}
	ae := apierr.As(err)
	if ae == nil || ae.Code != "upstream_error" || ae.Status != http.StatusInternalServerError {
		t.Fatalf("unexpected error: %+v", ae)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("cause is not the deadline: %v", err)
	}
	if strings.Contains(ae.Message(), "deadline") {
		t.Fatalf("cause leaked: %q", ae.Message())
	}
}
