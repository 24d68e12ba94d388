package llm

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/yungbote/kaical-backend/internal/domain/chat"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

type googleModelsClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	All(ctx context.Context) iter.Seq2[*genai.Model, error]
}

var newGoogleClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
	return genai.NewClient(ctx, cfg)
}

// GoogleProvider serves both the Gemini API (API key) and Vertex AI
// (project + location with application default credentials).
type GoogleProvider struct {
	log          *logger.Logger
	models       googleModelsClient
	defaultModel string
	timeout      time.Duration
}

func NewGoogleProvider(ctx context.Context, log *logger.Logger, cfg Config) (*GoogleProvider, error) {
	if err := cfg.CheckChatCredential(); err != nil {
		return nil, err
	}
	clientCfg := &genai.ClientConfig{
		HTTPClient: &http.Client{Timeout: cfg.timeout() + 5*time.Second},
	}
	if cfg.Backend == BackendVertex {
		clientCfg.Backend = genai.BackendVertexAI
		clientCfg.Project = cfg.Project
		clientCfg.Location = cfg.Location
	} else {
		clientCfg.Backend = genai.BackendGeminiAPI
		clientCfg.APIKey = cfg.GoogleAPIKey
	}
	client, err := newGoogleClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create google client: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	model := cfg.chatModel()
	log.Debug("google provider ready", "backend", string(cfg.Backend), "model", model)
	return &GoogleProvider{
		log:          log.With("provider", "google"),
		models:       client.Models,
		defaultModel: model,
		timeout:      cfg.timeout(),
	}, nil
}

func (p *GoogleProvider) GenerateChat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	model, contents, cfg, err := p.buildRequest(req)
	if err != nil {
		return ChatResponse{}, err
	}
	callCtx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.models.GenerateContent(callCtx, model, contents, cfg)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("google generate content: %w", err)
	}
	return ChatResponse{Text: extractVisibleText(resp), Model: model}, nil
}

func (p *GoogleProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	callCtx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	var out []ModelInfo
	for m, err := range p.models.All(callCtx) {
		if err != nil {
			return nil, fmt.Errorf("google list models: %w", err)
		}
		if m == nil {
			continue
		}
		out = append(out, ModelInfo{
			Name:             m.Name,
			DisplayName:      m.DisplayName,
			Description:      m.Description,
			SupportedActions: m.SupportedActions,
		})
	}
	return out, nil
}

func (p *GoogleProvider) buildRequest(req ChatRequest) (string, []*genai.Content, *genai.GenerateContentConfig, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.defaultModel
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return "", nil, nil, fmt.Errorf("prompt is required")
	}

	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, m := range req.History {
		role := genai.RoleUser
		if m.Role == chat.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	contents = append(contents, &genai.Content{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: req.Prompt}},
	})

	cfg := &genai.GenerateContentConfig{}
	if s := strings.TrimSpace(req.System); s != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: s}}}
	}
	if req.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	return model, contents, cfg, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok || d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

func extractVisibleText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

var (
	_ Generator   = (*GoogleProvider)(nil)
	_ ModelLister = (*GoogleProvider)(nil)
)
