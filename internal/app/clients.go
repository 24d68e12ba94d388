package app

import (
	"context"
	"fmt"

	"github.com/yungbote/kaical-backend/internal/platform/firebase"
	"github.com/yungbote/kaical-backend/internal/platform/gcp"
	"github.com/yungbote/kaical-backend/internal/platform/googlecal"
	"github.com/yungbote/kaical-backend/internal/platform/llm"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
	"github.com/yungbote/kaical-backend/internal/platform/redis"
)

type Clients struct {
	EventCache redis.EventCache
	Calendar   *googlecal.Client
	Verifier   firebase.TokenVerifier

	// Generation backends are built on first use so a missing key only
	// fails the requests that need it.
	Generator      *llm.Lazy[llm.Generator]
	FunctionCaller *llm.Lazy[llm.FunctionCaller]
	ModelLister    *llm.Lazy[llm.ModelLister]
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	if cfg.RedisAddr != "" {
		cache, err := redis.NewEventCache(ctx, log, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.EventCacheTTL,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis event cache: %w", err)
		}
		out.EventCache = cache
	}

	// Google Calendar
	if cfg.CalendarSyncEnabled() {
		out.Calendar = googlecal.New(log, cfg.GoogleClientID, cfg.GoogleClientSecret, gcp.CalendarOptionsFromEnv()...)
	} else {
		log.Warn("GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET not set; events stay local")
	}

	// Firebase
	if cfg.FirebaseProjectID != "" {
		v, err := firebase.NewVerifier(nil, cfg.FirebaseProjectID, cfg.FirebaseJWKSURL)
		if err != nil {
			return Clients{}, fmt.Errorf("init firebase verifier: %w", err)
		}
		out.Verifier = v
	} else {
		out.Verifier = rejectAll{}
	}

	// LLM
	llmCfg := cfg.LLM
	out.Generator = llm.NewLazy(func(ctx context.Context) (llm.Generator, error) {
		return llm.NewGenerator(ctx, log, llmCfg)
	})
	out.FunctionCaller = llm.NewLazy(func(ctx context.Context) (llm.FunctionCaller, error) {
		return llm.NewFunctionCaller(log, llmCfg)
	})
	out.ModelLister = llm.NewLazy(func(ctx context.Context) (llm.ModelLister, error) {
		return llm.NewModelLister(ctx, log, llmCfg)
	})
	return out, nil
}

func (c Clients) Close() {
	if c.EventCache != nil {
		_ = c.EventCache.Close()
	}
}

type rejectAll struct{}

func (rejectAll) VerifyIDToken(ctx context.Context, idToken string) (*firebase.Identity, error) {
	return nil, fmt.Errorf("firebase project not configured")
}
