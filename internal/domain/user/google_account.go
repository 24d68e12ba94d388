package user

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// GoogleAccount holds the OAuth token used for Calendar sync. One per user.
type GoogleAccount struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	AccessToken  string    `gorm:"type:text;not null" json:"-"`
	RefreshToken string    `gorm:"type:text;not null;default:''" json:"-"`
	TokenType    string    `gorm:"type:text;not null;default:'Bearer'" json:"-"`
	Expiry       time.Time `json:"expiry"`
	CalendarID   string    `gorm:"type:text;not null;default:'primary'" json:"calendar_id"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (GoogleAccount) TableName() string { return "google_account" }

func (g *GoogleAccount) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  g.AccessToken,
		RefreshToken: g.RefreshToken,
		TokenType:    g.TokenType,
		Expiry:       g.Expiry,
	}
}

func (g *GoogleAccount) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
