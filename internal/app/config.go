package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/kaical-backend/internal/data/db"
	"github.com/yungbote/kaical-backend/internal/observability"
	"github.com/yungbote/kaical-backend/internal/platform/envutil"
	"github.com/yungbote/kaical-backend/internal/platform/firebase"
	"github.com/yungbote/kaical-backend/internal/platform/gcp"
	"github.com/yungbote/kaical-backend/internal/platform/llm"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

const serviceName = "kaical-backend"

type Config struct {
	Env            string
	Version        string
	Addr           string
	AllowedOrigins []string
	AutoMigrate    bool

	LLM         llm.Config
	ChatTimeout time.Duration
	ProfilePath string

	FirebaseProjectID string
	FirebaseJWKSURL   string

	GoogleClientID     string
	GoogleClientSecret string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	EventCacheTTL time.Duration

	DB   db.Config
	Otel observability.OtelConfig
}

func LoadConfig(log *logger.Logger) (Config, error) {
	backend, err := llm.ParseBackend(envutil.String("LLM_BACKEND", string(llm.BackendGemini), log))
	if err != nil {
		return Config{}, err
	}
	chatTimeout := envutil.Seconds("CHAT_TIMEOUT_SECONDS", 30*time.Second, log)

	googleKey := envutil.String("GOOGLE_API_KEY", "", log)
	if googleKey == "" {
		googleKey = envutil.String("GOOGLE_AI_API_KEY", "", log)
	}

	env := envutil.String("APP_ENV", "development", log)
	version := envutil.String("APP_VERSION", "dev", log)

	cfg := Config{
		Env:            env,
		Version:        version,
		Addr:           ":" + envutil.String("PORT", "8080", log),
		AllowedOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "", log)),
		AutoMigrate:    envutil.Bool("AUTO_MIGRATE", true),

		LLM: llm.Config{
			Backend:       backend,
			GoogleAPIKey:  googleKey,
			Project:       gcp.Project(),
			Location:      gcp.Location(),
			OpenAIAPIKey:  envutil.String("OPENAI_API_KEY", "", log),
			OpenAIBaseURL: envutil.String("OPENAI_BASE_URL", "", log),
			ChatModel:     envutil.String("CHAT_MODEL", "", log),
			ParseModel:    envutil.String("PARSE_MODEL", "", log),
			Timeout:       chatTimeout,
		},
		ChatTimeout: chatTimeout,
		ProfilePath: envutil.String("ASSISTANT_PROFILE_PATH", "", log),

		FirebaseProjectID: envutil.String("FIREBASE_PROJECT_ID", gcp.Project(), log),
		FirebaseJWKSURL:   envutil.String("FIREBASE_JWKS_URL", firebase.DefaultJWKSURL, log),

		GoogleClientID:     envutil.String("GOOGLE_CLIENT_ID", "", log),
		GoogleClientSecret: envutil.String("GOOGLE_CLIENT_SECRET", "", log),

		RedisAddr:     envutil.String("REDIS_ADDR", "", log),
		RedisPassword: envutil.String("REDIS_PASSWORD", "", log),
		RedisDB:       envutil.Int("REDIS_DB", 0, log),
		EventCacheTTL: envutil.Seconds("EVENT_CACHE_TTL_SECONDS", 60*time.Second, log),

		DB:   db.ConfigFromEnv(log),
		Otel: observability.OtelConfigFromEnv(serviceName, env, version),
	}
	if cfg.FirebaseProjectID == "" {
		log.Warn("FIREBASE_PROJECT_ID not set; protected routes will reject every request")
	}
	if err := cfg.LLM.CheckChatCredential(); err != nil {
		// Not fatal: the chat endpoint reports it per request.
		log.Warn("Chat backend has no credential", "backend", string(backend), "error", err)
	}
	return cfg, nil
}

// CalendarSyncEnabled reports whether Google Calendar OAuth is configured.
func (c Config) CalendarSyncEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) String() string {
	return fmt.Sprintf("env=%s addr=%s llm=%s db=%s redis=%t calendar=%t",
		c.Env, c.Addr, c.LLM.Backend, c.DB.Driver, c.RedisAddr != "", c.CalendarSyncEnabled())
}
