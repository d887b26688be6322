package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Credential is one way for a user to sign in. Value holds an argon2 hash for passwords.
type Credential struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_credential,unique"`
	Type      CredentialType `gorm:"size:50;not null;index:idx_user_credential,unique"`
	Value     string         `gorm:"type:text;not null"`
	Active    bool           `gorm:"default:true"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (c *Credential) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
