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

type UserRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error)
	GetByFirebaseUID(ctx context.Context, tx *gorm.DB, firebaseUID string) (*types.User, error)
	UpsertByFirebaseUID(ctx context.Context, tx *gorm.DB, u *types.User) (*types.User, error)
	UpdateTimezone(ctx context.Context, tx *gorm.DB, userID uuid.UUID, timezone string) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	var u types.User
	err := transaction.WithContext(ctx).Where("id = ?", userID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (ur *userRepo) GetByFirebaseUID(ctx context.Context, tx *gorm.DB, firebaseUID string) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	var u types.User
	err := transaction.WithContext(ctx).Where("firebase_uid = ?", firebaseUID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertByFirebaseUID inserts the user or refreshes email and name from the
// latest verified token. Timezone is owned by the user and never overwritten.
func (ur *userRepo) UpsertByFirebaseUID(ctx context.Context, tx *gorm.DB, u *types.User) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	err := transaction.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "firebase_uid"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "name", "updated_at"}),
	}).Create(u).Error
	if err != nil {
		return nil, err
	}
	return ur.GetByFirebaseUID(ctx, transaction, u.FirebaseUID)
}

func (ur *userRepo) UpdateTimezone(ctx context.Context, tx *gorm.DB, userID uuid.UUID, timezone string) error {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	return transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("timezone", timezone).Error
}
