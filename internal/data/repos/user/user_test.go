package user

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/kaical-backend/internal/data/repos/testutil"
	types "github.com/yungbote/kaical-backend/internal/domain"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))
	ctx := context.Background()

	created, err := repo.UpsertByFirebaseUID(ctx, tx, &types.User{FirebaseUID: "fb-ada", Email: "ada@example.com", Name: "Ada"})
	if err != nil {
		t.Fatalf("UpsertByFirebaseUID: %v", err)
	}
	if err := repo.UpdateTimezone(ctx, tx, created.ID, "Europe/Istanbul"); err != nil {
		t.Fatalf("UpdateTimezone: %v", err)
	}

	again, err := repo.UpsertByFirebaseUID(ctx, tx, &types.User{FirebaseUID: "fb-ada", Email: "ada@new.example.com", Name: "Ada L"})
	if err != nil {
		t.Fatalf("UpsertByFirebaseUID (update): %v", err)
	}
	if again.ID != created.ID {
		t.Fatalf("upsert created a second user: %s vs %s", again.ID, created.ID)
	}
	if again.Email != "ada@new.example.com" || again.Name != "Ada L" {
		t.Fatalf("profile not refreshed: %+v", again)
	}
	if again.Timezone != "Europe/Istanbul" {
		t.Fatalf("timezone overwritten: %q", again.Timezone)
	}

	got, err := repo.GetByID(ctx, tx, created.ID)
	if err != nil || got == nil || got.FirebaseUID != "fb-ada" {
		t.Fatalf("GetByID: %+v, %v", got, err)
	}

	missing, err := repo.GetByFirebaseUID(ctx, tx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("GetByFirebaseUID(missing): %+v, %v", missing, err)
	}
}

func TestGoogleAccountRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	u := testutil.SeedUser(t, ctx, tx, "fb-grace")
	repo := NewGoogleAccountRepo(db, testutil.Logger(t))

	none, err := repo.GetByUserID(ctx, tx, u.ID)
	if err != nil || none != nil {
		t.Fatalf("GetByUserID(unlinked): %+v, %v", none, err)
	}

	exp := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	if err := repo.Upsert(ctx, tx, &types.GoogleAccount{UserID: u.ID, AccessToken: "a1", RefreshToken: "r1", TokenType: "Bearer", Expiry: exp, CalendarID: "primary"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Upsert(ctx, tx, &types.GoogleAccount{UserID: u.ID, AccessToken: "a2", RefreshToken: "r1", TokenType: "Bearer", Expiry: exp, CalendarID: "primary"}); err != nil {
		t.Fatalf("Upsert (update): %v", err)
	}
	got, err := repo.GetByUserID(ctx, tx, u.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByUserID: %+v, %v", got, err)
	}
	if got.AccessToken != "a2" || got.Token().RefreshToken != "r1" {
		t.Fatalf("unexpected account: %+v", got)
	}

	if err := repo.DeleteByUserID(ctx, tx, u.ID); err != nil {
		t.Fatalf("DeleteByUserID: %v", err)
	}
	if got, _ := repo.GetByUserID(ctx, tx, u.ID); got != nil {
		t.Fatalf("account not deleted")
	}
}
