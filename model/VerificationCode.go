package model

import "time"

// VerificationCode is a persisted phone OTP. A phone may have many rows;
// only the newest unverified one is live.
type VerificationCode struct {
	ID          uint      `gorm:"primaryKey"`
	PhoneNumber string    `gorm:"size:32;not null;index"`
	Code        string    `gorm:"size:16;not null"`
	ExpiresAt   time.Time `gorm:"not null"`
	Verified    bool      `gorm:"not null;default:false"`
	Attempts    int       `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (v *VerificationCode) IsExpired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
