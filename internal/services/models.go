package services

import (
	"context"
	"errors"

	"github.com/yungbote/kaical-backend/internal/platform/apierr"
	"github.com/yungbote/kaical-backend/internal/platform/llm"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

type ModelService interface {
	ListModels(ctx context.Context) ([]llm.ModelInfo, error)
}

type modelService struct {
	log    *logger.Logger
	lister *llm.Lazy[llm.ModelLister]
}

func NewModelService(log *logger.Logger, lister *llm.Lazy[llm.ModelLister]) ModelService {
	return &modelService{log: log.With("service", "ModelService"), lister: lister}
}

func (ms *modelService) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	lister, err := ms.lister.Get(ctx)
	if err != nil {
		ms.log.Error("Model lister unavailable", "error", err)
		if errors.Is(err, llm.ErrMissingCredential) {
			return nil, apierr.Config(err)
		}
		return nil, apierr.Upstream("failed to list models", err)
	}
	models, err := lister.ListModels(ctx)
	if err != nil {
		ms.log.Error("Model listing failed", "error", err)
		return nil, apierr.Upstream("failed to list models", err)
	}
	return models, nil
}
