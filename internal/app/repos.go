package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/kaical-backend/internal/data/repos"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

type Repos struct {
	User          repos.UserRepo
	GoogleAccount repos.GoogleAccountRepo
	Event         repos.EventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		GoogleAccount: repos.NewGoogleAccountRepo(db, log),
		Event:         repos.NewEventRepo(db, log),
	}
}
