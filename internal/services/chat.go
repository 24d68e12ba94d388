package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/kaical-backend/internal/assistant"
	types "github.com/yungbote/kaical-backend/internal/domain"
	"github.com/yungbote/kaical-backend/internal/observability"
	"github.com/yungbote/kaical-backend/internal/platform/apierr"
	"github.com/yungbote/kaical-backend/internal/platform/llm"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

const chatFailureMessage = "failed to process chat request"

type ChatRequest struct {
	Messages []types.ChatMessage   `json:"messages"`
	Events   []types.CalendarEvent `json:"events"`
	Timezone string                `json:"timezone,omitempty"`
}

type ChatReply struct {
	Message types.ChatMessage `json:"message"`
	Action  *types.Action     `json:"action,omitempty"`
}

type ChatService interface {
	Respond(ctx context.Context, req ChatRequest) (*ChatReply, error)
}

type chatService struct {
	log       *logger.Logger
	profile   *assistant.Profile
	llmCfg    llm.Config
	generator *llm.Lazy[llm.Generator]
	extractor *assistant.Extractor
	timeout   time.Duration
	now       func() time.Time
}

func NewChatService(
	log *logger.Logger,
	profile *assistant.Profile,
	llmCfg llm.Config,
	generator *llm.Lazy[llm.Generator],
	timeout time.Duration,
) ChatService {
	if profile == nil {
		profile = assistant.DefaultProfile()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &chatService{
		log:       log.With("service", "ChatService"),
		profile:   profile,
		llmCfg:    llmCfg,
		generator: generator,
		extractor: assistant.NewExtractor(),
		timeout:   timeout,
		now:       time.Now,
	}
}

// Respond relays one conversation turn. Preconditions are checked before the
// generator is touched, so a rejected request never reaches the backend.
func (cs *chatService) Respond(ctx context.Context, req ChatRequest) (reply *ChatReply, err error) {
	ctx, span := observability.StartSpan(ctx, "chat.respond",
		attribute.Int("chat.messages", len(req.Messages)),
		attribute.Int("chat.events", len(req.Events)),
	)
	defer func() { observability.EndSpan(span, err) }()

	history, last, err := assistant.SplitConversation(req.Messages)
	switch {
	case errors.Is(err, assistant.ErrEmptyConversation):
		return nil, apierr.BadRequest("invalid_request", fmt.Errorf("messages are required"))
	case err != nil:
		return nil, apierr.BadRequest("invalid_conversation", err)
	}

	loc, err := cs.profile.Location(req.Timezone)
	if err != nil {
		return nil, apierr.BadRequest("invalid_timezone", err)
	}

	if err := cs.llmCfg.CheckChatCredential(); err != nil {
		cs.log.Error("Chat backend not configured", "backend", cs.llmCfg.Backend, "error", err)
		return nil, apierr.Config(err)
	}
	gen, err := cs.generator.Get(ctx)
	if err != nil {
		cs.log.Error("Chat backend construction failed", "backend", cs.llmCfg.Backend, "error", err)
		if errors.Is(err, llm.ErrMissingCredential) {
			return nil, apierr.Config(err)
		}
		return nil, apierr.Upstream(chatFailureMessage, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, cs.timeout)
	defer cancel()

	started := time.Now()
	resp, err := gen.GenerateChat(callCtx, llm.ChatRequest{
		System:  assistant.BuildSystemInstruction(cs.profile, cs.now().In(loc), loc, req.Events),
		History: history,
		Prompt:  last.Content,
	})
	observeLLM(string(cs.llmCfg.Backend), "chat", started, err)
	if err != nil {
		cs.log.Error("Chat generation failed", "history_len", len(history), "error", err)
		return nil, apierr.Upstream(chatFailureMessage, err)
	}

	ext := cs.extractor.Extract(resp.Text, loc)
	if ext.Action != nil && ext.Action.Type == types.ActionCancel && !knownEvent(req.Events, ext.Action.EventID) {
		cs.log.Warn("Model cancelled an event outside the inventory", "event_ref", ext.Action.EventID)
		ext = assistant.Extraction{Reply: resp.Text}
	}
	if ext.Action != nil {
		span.SetAttributes(attribute.String("chat.action", string(ext.Action.Type)))
	}

	return &ChatReply{
		Message: types.ChatMessage{Role: types.RoleAssistant, Content: ext.Reply},
		Action:  ext.Action,
	}, nil
}

func knownEvent(events []types.CalendarEvent, id string) bool {
	id = strings.TrimSpace(id)
	for _, ev := range events {
		if ev.ID == id {
			return true
		}
	}
	return false
}
