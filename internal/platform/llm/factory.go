package llm

import (
	"context"

	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

// NewGenerator builds the chat backend selected by cfg.Backend.
func NewGenerator(ctx context.Context, log *logger.Logger, cfg Config) (Generator, error) {
	if cfg.Backend == BackendOpenAI {
		return NewOpenAIProvider(log, cfg)
	}
	return NewGoogleProvider(ctx, log, cfg)
}

// NewModelLister lists models of the Google backend regardless of which
// backend serves chat.
func NewModelLister(ctx context.Context, log *logger.Logger, cfg Config) (ModelLister, error) {
	if cfg.Backend == BackendOpenAI {
		cfg.Backend = BackendGemini
	}
	return NewGoogleProvider(ctx, log, cfg)
}

func NewFunctionCaller(log *logger.Logger, cfg Config) (FunctionCaller, error) {
	return NewOpenAIProvider(log, cfg)
}
