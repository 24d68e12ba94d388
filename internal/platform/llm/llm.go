package llm

import (
	"context"
	"errors"

	"github.com/yungbote/kaical-backend/internal/domain/chat"
)

// ErrMissingCredential means the selected backend has no usable credential.
// It is a server configuration problem, not a caller error.
var ErrMissingCredential = errors.New("llm: generation credential not configured")

// ChatRequest is one stateless generation call: a system instruction, an
// already-sanitized alternating history, and the new user turn.
type ChatRequest struct {
	Model       string
	System      string
	History     []chat.Message
	Prompt      string
	Temperature *float64
}

type ChatResponse struct {
	Text  string
	Model string
}

// Generator is the opaque prompt-in, text-out backend.
type Generator interface {
	GenerateChat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// FunctionRequest forces the model to call a single named function.
type FunctionRequest struct {
	Model       string
	System      string
	Prompt      string
	Name        string
	Description string
	Parameters  map[string]any
}

// FunctionCaller returns the raw JSON arguments of the forced call.
type FunctionCaller interface {
	GenerateJSON(ctx context.Context, req FunctionRequest) ([]byte, error)
}

type ModelInfo struct {
	Name             string   `json:"name"`
	DisplayName      string   `json:"displayName,omitempty"`
	Description      string   `json:"description,omitempty"`
	SupportedActions []string `json:"supportedActions,omitempty"`
}

type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}
