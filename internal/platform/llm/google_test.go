package llm

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/yungbote/kaical-backend/internal/domain/chat"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

type stubGoogleModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	models []*genai.Model

	gotModel    string
	gotContents []*genai.Content
	gotConfig   *genai.GenerateContentConfig
	hadDeadline bool
}

func (s *stubGoogleModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.gotModel = model
	s.gotContents = contents
	s.gotConfig = cfg
	_, s.hadDeadline = ctx.Deadline()
	return s.resp, s.err
}

func (s *stubGoogleModels) All(ctx context.Context) iter.Seq2[*genai.Model, error] {
	return func(yield func(*genai.Model, error) bool) {
		if s.err != nil {
			yield(nil, s.err)
			return
		}
		for _, m := range s.models {
			if !yield(m, nil) {
				return
			}
		}
	}
}

func textResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: parts},
		}},
	}
}

func TestNewGoogleProviderRequiresKey(t *testing.T) {
	_, err := NewGoogleProvider(context.Background(), logger.Nop(), Config{Backend: BackendGemini})
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("err=%v", err)
	}
	_, err = NewGoogleProvider(context.Background(), logger.Nop(), Config{Backend: BackendVertex})
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("vertex without project: err=%v", err)
	}
}

func TestNewGoogleProviderClientConfig(t *testing.T) {
	orig := newGoogleClient
	defer func() { newGoogleClient = orig }()

	var got *genai.ClientConfig
	newGoogleClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
		got = cfg
		return &genai.Client{}, nil
	}

	if _, err := NewGoogleProvider(context.Background(), nil, Config{Backend: BackendVertex, Project: "p", Location: "europe-west1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Backend != genai.BackendVertexAI || got.Project != "p" || got.Location != "europe-west1" || got.APIKey != "" {
		t.Fatalf("unexpected vertex config: %+v", got)
	}

	if _, err := NewGoogleProvider(context.Background(), nil, Config{Backend: BackendGemini, GoogleAPIKey: "k"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Backend != genai.BackendGeminiAPI || got.APIKey != "k" {
		t.Fatalf("unexpected gemini config: %+v", got)
	}
}

func TestGoogleGenerateChatMapsRoles(t *testing.T) {
	stub := &stubGoogleModels{resp: textResponse(&genai.Part{Text: "thinking", Thought: true}, &genai.Part{Text: "Hello"})}
	p := &GoogleProvider{log: logger.Nop(), models: stub, defaultModel: "gemini-test", timeout: time.Second}

	resp, err := p.GenerateChat(context.Background(), ChatRequest{
		System: "be brief",
		History: []chat.Message{
			{Role: chat.RoleUser, Content: "hi"},
			{Role: chat.RoleAssistant, Content: "hello"},
		},
		Prompt: "book lunch",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "Hello" {
		t.Fatalf("thought parts leaked: %q", resp.Text)
	}
	if stub.gotModel != "gemini-test" {
		t.Fatalf("model=%q", stub.gotModel)
	}
	wantRoles := []string{genai.RoleUser, genai.RoleModel, genai.RoleUser}
	if len(stub.gotContents) != len(wantRoles) {
		t.Fatalf("contents=%d", len(stub.gotContents))
	}
	for i, r := range wantRoles {
		if stub.gotContents[i].Role != r {
			t.Fatalf("content %d role=%q want %q", i, stub.gotContents[i].Role, r)
		}
	}
	if stub.gotContents[2].Parts[0].Text != "book lunch" {
		t.Fatalf("prompt not last")
	}
	if stub.gotConfig.SystemInstruction == nil || stub.gotConfig.SystemInstruction.Parts[0].Text != "be brief" {
		t.Fatalf("system instruction missing")
	}
	if !stub.hadDeadline {
		t.Fatalf("expected bounded call")
	}
}

func TestGoogleGenerateChatWrapsError(t *testing.T) {
	boom := errors.New("quota")
	p := &GoogleProvider{log: logger.Nop(), models: &stubGoogleModels{err: boom}, defaultModel: "m"}
	if _, err := p.GenerateChat(context.Background(), ChatRequest{Prompt: "x"}); !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
}

func TestGoogleListModels(t *testing.T) {
	stub := &stubGoogleModels{models: []*genai.Model{
		{Name: "models/gemini-1.5-pro", DisplayName: "Gemini 1.5 Pro", SupportedActions: []string{"generateContent"}},
		nil,
		{Name: "models/embedding-001"},
	}}
	p := &GoogleProvider{log: logger.Nop(), models: stub}
	got, err := p.ListModels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].DisplayName != "Gemini 1.5 Pro" || got[1].Name != "models/embedding-001" {
		t.Fatalf("unexpected models: %+v", got)
	}
}
