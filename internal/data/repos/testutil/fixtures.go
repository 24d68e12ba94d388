package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/kaical-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, firebaseUID string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:          uuid.New(),
		FirebaseUID: firebaseUID,
		Email:       firebaseUID + "@example.com",
		Timezone:    "UTC",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedEvent(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, title string, start time.Time, d time.Duration) *types.Event {
	tb.Helper()
	ev := &types.Event{
		UserID:     userID,
		Title:      title,
		Start:      start,
		End:        start.Add(d),
		Timezone:   "UTC",
		SyncStatus: types.SyncStatusLocal,
	}
	if err := tx.WithContext(ctx).Create(ev).Error; err != nil {
		tb.Fatalf("seed event: %v", err)
	}
	return ev
}
