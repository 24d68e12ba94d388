package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	userrepo "github.com/yungbote/kaical-backend/internal/data/repos/user"
	types "github.com/yungbote/kaical-backend/internal/domain"
	"github.com/yungbote/kaical-backend/internal/platform/apierr"
	"github.com/yungbote/kaical-backend/internal/platform/firebase"
	"github.com/yungbote/kaical-backend/internal/platform/googlecal"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

type GoogleAccountInput struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	TokenType    string    `json:"tokenType,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	CalendarID   string    `json:"calendarId,omitempty"`
}

type Me struct {
	User             *types.User `json:"user"`
	GoogleLinked     bool        `json:"googleLinked"`
	GoogleCalendarID string      `json:"googleCalendarId,omitempty"`
}

type UserService interface {
	// EnsureUser maps a verified identity onto a stored user, creating it on first sight.
	EnsureUser(ctx context.Context, id *firebase.Identity) (*types.User, error)
	GetMe(ctx context.Context) (*Me, error)
	UpdateTimezone(ctx context.Context, tz string) (*types.User, error)
	LinkGoogleAccount(ctx context.Context, in GoogleAccountInput) error
	UnlinkGoogleAccount(ctx context.Context) error
}

type userService struct {
	log      *logger.Logger
	users    userrepo.UserRepo
	accounts userrepo.GoogleAccountRepo
}

func NewUserService(log *logger.Logger, users userrepo.UserRepo, accounts userrepo.GoogleAccountRepo) UserService {
	return &userService{
		log:      log.With("service", "UserService"),
		users:    users,
		accounts: accounts,
	}
}

func (us *userService) EnsureUser(ctx context.Context, id *firebase.Identity) (*types.User, error) {
	if id == nil || strings.TrimSpace(id.UID) == "" {
		return nil, apierr.Unauthorized(fmt.Errorf("missing identity"))
	}
	u, err := us.users.UpsertByFirebaseUID(ctx, nil, &types.User{
		FirebaseUID: id.UID,
		Email:       strings.ToLower(strings.TrimSpace(id.Email)),
		Name:        strings.TrimSpace(id.Name),
	})
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return u, nil
}

func (us *userService) GetMe(ctx context.Context) (*Me, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	u, err := us.users.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user_not_found", fmt.Errorf("user does not exist"))
	}
	me := &Me{User: u}
	acct, err := us.accounts.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load google account: %w", err)
	}
	if acct != nil {
		me.GoogleLinked = true
		me.GoogleCalendarID = acct.CalendarID
	}
	return me, nil
}

func (us *userService) UpdateTimezone(ctx context.Context, tz string) (*types.User, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return nil, apierr.BadRequest("invalid_request", fmt.Errorf("timezone is required"))
	}
	if err := checkTimezone(tz); err != nil {
		return nil, err
	}
	if err := us.users.UpdateTimezone(ctx, nil, userID, tz); err != nil {
		return nil, fmt.Errorf("update timezone: %w", err)
	}
	return us.users.GetByID(ctx, nil, userID)
}

func (us *userService) LinkGoogleAccount(ctx context.Context, in GoogleAccountInput) error {
	userID, err := requireUser(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(in.AccessToken) == "" && strings.TrimSpace(in.RefreshToken) == "" {
		return apierr.BadRequest("invalid_request", fmt.Errorf("accessToken or refreshToken is required"))
	}
	tokenType := strings.TrimSpace(in.TokenType)
	if tokenType == "" {
		tokenType = "Bearer"
	}
	calID := strings.TrimSpace(in.CalendarID)
	if calID == "" {
		calID = googlecal.DefaultCalendarID
	}
	err = us.accounts.Upsert(ctx, nil, &types.GoogleAccount{
		UserID:       userID,
		AccessToken:  strings.TrimSpace(in.AccessToken),
		RefreshToken: strings.TrimSpace(in.RefreshToken),
		TokenType:    tokenType,
		Expiry:       in.Expiry,
		CalendarID:   calID,
	})
	if err != nil {
		return fmt.Errorf("store google account: %w", err)
	}
	us.log.Info("Google account linked", "user_id", userID)
	return nil
}

func (us *userService) UnlinkGoogleAccount(ctx context.Context) error {
	userID, err := requireUser(ctx)
	if err != nil {
		return err
	}
	return us.accounts.DeleteByUserID(ctx, nil, userID)
}
