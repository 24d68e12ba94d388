package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/kaical-backend/internal/assistant"
	types "github.com/yungbote/kaical-backend/internal/domain"
	"github.com/yungbote/kaical-backend/internal/observability"
	"github.com/yungbote/kaical-backend/internal/platform/apierr"
	"github.com/yungbote/kaical-backend/internal/platform/llm"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

type RescheduleRequest struct {
	CurrentEvents []types.CalendarEvent `json:"currentEvents"`
	Constraints   string                `json:"constraints"`
	Request       string                `json:"request"`
	Timezone      string                `json:"timezone,omitempty"`
}

type RescheduleSuggestion struct {
	Success    bool      `json:"success"`
	Suggestion string    `json:"suggestion"`
	Timestamp  time.Time `json:"timestamp"`
}

type RescheduleService interface {
	Suggest(ctx context.Context, req RescheduleRequest) (*RescheduleSuggestion, error)
}

type rescheduleService struct {
	log       *logger.Logger
	profile   *assistant.Profile
	llmCfg    llm.Config
	generator *llm.Lazy[llm.Generator]
	timeout   time.Duration
	now       func() time.Time
}

func NewRescheduleService(
	log *logger.Logger,
	profile *assistant.Profile,
	llmCfg llm.Config,
	generator *llm.Lazy[llm.Generator],
	timeout time.Duration,
) RescheduleService {
	if profile == nil {
		profile = assistant.DefaultProfile()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &rescheduleService{
		log:       log.With("service", "RescheduleService"),
		profile:   profile,
		llmCfg:    llmCfg,
		generator: generator,
		timeout:   timeout,
		now:       time.Now,
	}
}

func (rs *rescheduleService) Suggest(ctx context.Context, req RescheduleRequest) (out *RescheduleSuggestion, err error) {
	ctx, span := observability.StartSpan(ctx, "ai.reschedule")
	defer func() { observability.EndSpan(span, err) }()

	if strings.TrimSpace(req.Request) == "" {
		return nil, apierr.BadRequest("invalid_request", fmt.Errorf("request is required"))
	}
	loc, err := rs.profile.Location(req.Timezone)
	if err != nil {
		return nil, apierr.BadRequest("invalid_timezone", err)
	}
	if err := rs.llmCfg.CheckChatCredential(); err != nil {
		rs.log.Error("Reschedule backend not configured", "error", err)
		return nil, apierr.Config(err)
	}
	gen, err := rs.generator.Get(ctx)
	if err != nil {
		if errors.Is(err, llm.ErrMissingCredential) {
			return nil, apierr.Config(err)
		}
		return nil, apierr.Upstream("failed to generate reschedule suggestion", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, rs.timeout)
	defer cancel()
	started := time.Now()
	resp, err := gen.GenerateChat(callCtx, llm.ChatRequest{Prompt: reschedulePrompt(req, loc)})
	observeLLM(string(rs.llmCfg.Backend), "reschedule", started, err)
	if err != nil {
		rs.log.Error("Reschedule generation failed", "error", err)
		return nil, apierr.Upstream("failed to generate reschedule suggestion", err)
	}
	return &RescheduleSuggestion{
		Success:    true,
		Suggestion: resp.Text,
		Timestamp:  rs.now().UTC(),
	}, nil
}

func reschedulePrompt(req RescheduleRequest, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("You are an AI assistant that helps with calendar scheduling and rescheduling.\n\n")
	b.WriteString("Current Schedule:\n")
	if len(req.CurrentEvents) == 0 {
		b.WriteString("No existing events.\n")
	}
	for _, ev := range req.CurrentEvents {
		fmt.Fprintf(&b, "- %s (%s - %s)\n", ev.Title,
			ev.Start.In(loc).Format("Jan 2, 2006 3:04 PM"),
			ev.End.In(loc).Format("Jan 2, 2006 3:04 PM"))
	}
	constraints := strings.TrimSpace(req.Constraints)
	if constraints == "" {
		constraints = "No specific constraints provided."
	}
	fmt.Fprintf(&b, "\nConstraints:\n%s\n\nRequest: %s\n\n", constraints, strings.TrimSpace(req.Request))
	b.WriteString("Please provide a detailed response with:\n")
	b.WriteString("1. Suggested time slots that fit the request and constraints\n")
	b.WriteString("2. Any conflicts with existing events\n")
	b.WriteString("3. Recommended next steps\n\n")
	b.WriteString("Format your response in markdown.")
	return b.String()
}
