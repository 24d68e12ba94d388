package services

import (
	"context"
	"errors"
	"time"

	"github.com/yungbote/kaical-backend/internal/observability"
)

func observeLLM(backend, endpoint string, start time.Time, err error) {
	status := "ok"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status = "timeout"
	case err != nil:
		status = "error"
	}
	observability.Current().ObserveLLMRequest(backend, endpoint, status, time.Since(start))
}

func observeSync(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.Current().IncCalendarSync(op, status)
}
