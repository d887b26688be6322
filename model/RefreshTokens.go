package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RefreshToken struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID            uuid.UUID `gorm:"type:uuid;not null;index"`
	TokenHash         string    `gorm:"type:text;not null;uniqueIndex"`
	ClientIP          string    `gorm:"size:45"`
	UserAgent         string    `gorm:"type:text"`
	ExpiresAt         time.Time `gorm:"not null;index"`
	ReplacedAt        *time.Time
	ReplacedByTokenID *uuid.UUID
	RevokedAt         *time.Time `gorm:"index"`
	CreatedAt         time.Time  `gorm:"autoCreateTime"`
}

func (rt *RefreshToken) BeforeCreate(_ *gorm.DB) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	return nil
}

// IsValid reports whether the token can still be rotated.
func (rt *RefreshToken) IsValid(now time.Time) bool {
	return now.Before(rt.ExpiresAt) && rt.RevokedAt == nil
}
