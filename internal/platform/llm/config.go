package llm

import (
	"fmt"
	"strings"
	"time"
)

type Backend string

const (
	BackendGemini Backend = "gemini"
	BackendVertex Backend = "vertex"
	BackendOpenAI Backend = "openai"
)

const (
	defaultGeminiModel = "gemini-1.5-pro-latest"
	defaultOpenAIModel = "gpt-4o"
	defaultTimeout     = 30 * time.Second
)

type Config struct {
	Backend Backend

	GoogleAPIKey string
	Project      string
	Location     string

	OpenAIAPIKey  string
	OpenAIBaseURL string

	ChatModel  string
	ParseModel string
	Timeout    time.Duration
}

func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackendGemini, "google":
		return BackendGemini, nil
	case BackendVertex, "vertexai":
		return BackendVertex, nil
	case BackendOpenAI:
		return BackendOpenAI, nil
	default:
		return "", fmt.Errorf("unknown llm backend %q", s)
	}
}

// CheckChatCredential is cheap and makes no network call.
func (c Config) CheckChatCredential() error {
	switch c.Backend {
	case BackendVertex:
		if strings.TrimSpace(c.Project) == "" {
			return fmt.Errorf("%w: vertex backend needs GOOGLE_CLOUD_PROJECT", ErrMissingCredential)
		}
	case BackendOpenAI:
		if strings.TrimSpace(c.OpenAIAPIKey) == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrMissingCredential)
		}
	default:
		if strings.TrimSpace(c.GoogleAPIKey) == "" {
			return fmt.Errorf("%w: GOOGLE_API_KEY is not set", ErrMissingCredential)
		}
	}
	return nil
}

func (c Config) CheckParseCredential() error {
	if strings.TrimSpace(c.OpenAIAPIKey) == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrMissingCredential)
	}
	return nil
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultTimeout
	}
	return c.Timeout
}

func (c Config) chatModel() string {
	if m := strings.TrimSpace(c.ChatModel); m != "" {
		return m
	}
	if c.Backend == BackendOpenAI {
		return defaultOpenAIModel
	}
	return defaultGeminiModel
}

func (c Config) parseModel() string {
	if m := strings.TrimSpace(c.ParseModel); m != "" {
		return m
	}
	return defaultOpenAIModel
}
