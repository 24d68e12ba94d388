package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/kaical-backend/internal/data/repos/calendar"
	"github.com/yungbote/kaical-backend/internal/data/repos/user"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type GoogleAccountRepo = user.GoogleAccountRepo

type EventRepo = calendar.EventRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewGoogleAccountRepo(db *gorm.DB, baseLog *logger.Logger) GoogleAccountRepo {
	return user.NewGoogleAccountRepo(db, baseLog)
}

func NewEventRepo(db *gorm.DB, baseLog *logger.Logger) EventRepo {
	return calendar.NewEventRepo(db, baseLog)
}
