package repository

import (
	"time"

	"dvente/model"

	"gorm.io/gorm"
)

// PhoneCodeRepository persists phone OTPs together with their attempt counters.
type PhoneCodeRepository interface {
	Create(code *model.VerificationCode) error
	FindLatestUnverified(phone string) (*model.VerificationCode, error)
	Update(code *model.VerificationCode) error
	DeleteExpired(before time.Time) (int64, error)
}

type pgPhoneCodeRepo struct {
	db *gorm.DB
}

func NewPhoneCodeRepository(db *gorm.DB) PhoneCodeRepository {
	return &pgPhoneCodeRepo{db: db}
}

func (r *pgPhoneCodeRepo) Create(code *model.VerificationCode) error {
	return r.db.Create(code).Error
}

func (r *pgPhoneCodeRepo) FindLatestUnverified(phone string) (*model.VerificationCode, error) {
	var c model.VerificationCode
	err := r.db.Where("phone_number = ? AND verified = ?", phone, false).
		Order("id DESC").
		First(&c).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *pgPhoneCodeRepo) Update(code *model.VerificationCode) error {
	return r.db.Save(code).Error
}

// DeleteExpired drops rows that expired before the cutoff, verified or not.
func (r *pgPhoneCodeRepo) DeleteExpired(before time.Time) (int64, error) {
	res := r.db.Where("expires_at < ?", before).Delete(&model.VerificationCode{})
	return res.RowsAffected, res.Error
}
