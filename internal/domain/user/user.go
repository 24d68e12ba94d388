package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FirebaseUID string    `gorm:"uniqueIndex;not null;column:firebase_uid" json:"-"`
	Email       string    `gorm:"column:email;not null;default:''" json:"email"`
	Name        string    `gorm:"column:name;not null;default:''" json:"name"`
	Timezone    string    `gorm:"column:timezone;not null;default:''" json:"timezone"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
