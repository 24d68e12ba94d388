package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/kaical-backend/internal/observability"
	"github.com/yungbote/kaical-backend/internal/platform/apierr"
	"github.com/yungbote/kaical-backend/internal/platform/llm"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

const parseSystemPrompt = "You are an AI assistant that converts natural language scheduling requests into structured event data."

var createEventSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title":       map[string]any{"type": "string", "description": "Short event title"},
		"description": map[string]any{"type": "string", "description": "Optional longer description"},
		"start":       map[string]any{"type": "string", "description": "ISO 8601 date-time string for event start"},
		"end":         map[string]any{"type": "string", "description": "ISO 8601 date-time string for event end"},
	},
	"required": []string{"title", "start", "end"},
}

// ParsedEvent is the structured reading of a one-shot scheduling request.
// Instants are passed through as the model wrote them.
type ParsedEvent struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

type ParseService interface {
	Parse(ctx context.Context, prompt string) (*ParsedEvent, error)
}

type parseService struct {
	log    *logger.Logger
	llmCfg llm.Config
	caller *llm.Lazy[llm.FunctionCaller]
	model  string
}

func NewParseService(log *logger.Logger, llmCfg llm.Config, caller *llm.Lazy[llm.FunctionCaller]) ParseService {
	return &parseService{
		log:    log.With("service", "ParseService"),
		llmCfg: llmCfg,
		caller: caller,
		model:  llmCfg.ParseModel,
	}
}

func (ps *parseService) Parse(ctx context.Context, prompt string) (out *ParsedEvent, err error) {
	ctx, span := observability.StartSpan(ctx, "ai.parse")
	defer func() { observability.EndSpan(span, err) }()

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, apierr.BadRequest("invalid_request", fmt.Errorf("missing prompt"))
	}
	if err := ps.llmCfg.CheckParseCredential(); err != nil {
		ps.log.Error("Parse backend not configured", "error", err)
		return nil, apierr.Config(err)
	}
	caller, err := ps.caller.Get(ctx)
	if err != nil {
		if errors.Is(err, llm.ErrMissingCredential) {
			return nil, apierr.Config(err)
		}
		return nil, apierr.Upstream("failed to parse event", err)
	}

	started := time.Now()
	raw, err := caller.GenerateJSON(ctx, llm.FunctionRequest{
		Model:       ps.model,
		System:      parseSystemPrompt,
		Prompt:      prompt,
		Name:        "create_event",
		Description: "Parse a natural-language scheduling request into a calendar event",
		Parameters:  createEventSchema,
	})
	observeLLM(string(llm.BackendOpenAI), "parse", started, err)
	if err != nil {
		ps.log.Error("Parse generation failed", "error", err)
		return nil, apierr.Upstream("failed to parse event", err)
	}

	var ev ParsedEvent
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &ev); err != nil {
			ps.log.Warn("Parse returned malformed arguments", "error", err)
			return nil, apierr.Upstream("failed to parse event", fmt.Errorf("decode create_event arguments: %w", err))
		}
	}
	return &ev, nil
}
