package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/yungbote/kaical-backend/internal/domain/chat"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

const openAIDefaultAPIURL = "https://api.openai.com/v1"

type OpenAIProvider struct {
	log        *logger.Logger
	client     openai.Client
	chatModel  string
	parseModel string
	timeout    time.Duration
}

func NewOpenAIProvider(log *logger.Logger, cfg Config) (*OpenAIProvider, error) {
	if err := cfg.CheckParseCredential(); err != nil {
		return nil, err
	}
	apiURL := strings.TrimSpace(cfg.OpenAIBaseURL)
	if apiURL == "" {
		apiURL = openAIDefaultAPIURL
	}
	httpClient := &http.Client{Timeout: cfg.timeout() + 5*time.Second}
	client := openai.NewClient(
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithBaseURL(apiURL),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)
	if log == nil {
		log = logger.Nop()
	}
	chatModel := strings.TrimSpace(cfg.ChatModel)
	if chatModel == "" || cfg.Backend != BackendOpenAI {
		chatModel = defaultOpenAIModel
	}
	return &OpenAIProvider{
		log:        log.With("provider", "openai"),
		client:     client,
		chatModel:  chatModel,
		parseModel: cfg.parseModel(),
		timeout:    cfg.timeout(),
	}, nil
}

func (p *OpenAIProvider) GenerateChat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return ChatResponse{}, fmt.Errorf("prompt is required")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.chatModel
	}
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if s := strings.TrimSpace(req.System); s != "" {
		messages = append(messages, openai.SystemMessage(s))
	}
	for _, m := range req.History {
		if m.Role == chat.RoleAssistant {
			messages = append(messages, openai.AssistantMessage(m.Content))
		} else {
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: messages,
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	callCtx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()
	resp, err := p.client.Chat.Completions.New(callCtx, params)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("openai chat completion: %w", err)
	}
	text := ""
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}
	return ChatResponse{Text: text, Model: resp.Model}, nil
}

// GenerateJSON forces a call to req.Name and returns its arguments verbatim.
func (p *OpenAIProvider) GenerateJSON(ctx context.Context, req FunctionRequest) ([]byte, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("function name is required")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.parseModel
	}
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if s := strings.TrimSpace(req.System); s != "" {
		messages = append(messages, openai.SystemMessage(s))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	fn := shared.FunctionDefinitionParam{
		Name:       req.Name,
		Parameters: shared.FunctionParameters(req.Parameters),
	}
	if d := strings.TrimSpace(req.Description); d != "" {
		fn.Description = openai.String(d)
	}
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: messages,
		Tools:    []openai.ChatCompletionToolUnionParam{openai.ChatCompletionFunctionTool(fn)},
		ToolChoice: openai.ToolChoiceOptionFunctionToolChoice(openai.ChatCompletionNamedToolChoiceFunctionParam{
			Name: req.Name,
		}),
	}

	callCtx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()
	resp, err := p.client.Chat.Completions.New(callCtx, params)
	if err != nil {
		return nil, fmt.Errorf("openai function call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai function call: empty response")
	}
	for _, tc := range resp.Choices[0].Message.ToolCalls {
		if tc.Function.Name == req.Name {
			return []byte(tc.Function.Arguments), nil
		}
	}
	return nil, fmt.Errorf("openai function call: model did not call %s", req.Name)
}

var (
	_ Generator      = (*OpenAIProvider)(nil)
	_ FunctionCaller = (*OpenAIProvider)(nil)
)
