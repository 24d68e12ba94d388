package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/kaical-backend/internal/domain"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

type GoogleAccountRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.GoogleAccount, error)
	Upsert(ctx context.Context, tx *gorm.DB, acct *types.GoogleAccount) error
	DeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type googleAccountRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGoogleAccountRepo(db *gorm.DB, baseLog *logger.Logger) GoogleAccountRepo {
	return &googleAccountRepo{db: db, log: baseLog.With("repo", "GoogleAccountRepo")}
}

// GetByUserID returns nil, nil when the user has not linked Google.
func (r *googleAccountRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.GoogleAccount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var acct types.GoogleAccount
	err := transaction.WithContext(ctx).Where("user_id = ?", userID).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func (r *googleAccountRepo) Upsert(ctx context.Context, tx *gorm.DB, acct *types.GoogleAccount) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "token_type", "expiry", "calendar_id", "updated_at"}),
	}).Create(acct).Error
}

func (r *googleAccountRepo) DeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("user_id = ?", userID).Delete(&types.GoogleAccount{}).Error
}
