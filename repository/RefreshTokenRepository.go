package repository

import (
	"time"

	"dvente/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RefreshTokenRepository interface {
	Create(rt *model.RefreshToken) error
	GetByID(id uuid.UUID) (*model.RefreshToken, error)
	Update(rt *model.RefreshToken) error
	RevokeAllForUser(userID uuid.UUID) error
	DeleteExpired() (int64, error)
}

type pgRefreshTokenRepo struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &pgRefreshTokenRepo{db: db}
}

func (r *pgRefreshTokenRepo) Create(rt *model.RefreshToken) error {
	return r.db.Create(rt).Error
}

func (r *pgRefreshTokenRepo) GetByID(id uuid.UUID) (*model.RefreshToken, error) {
	var t model.RefreshToken
	if err := r.db.First(&t, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *pgRefreshTokenRepo) Update(rt *model.RefreshToken) error {
	return r.db.Save(rt).Error
}

func (r *pgRefreshTokenRepo) RevokeAllForUser(userID uuid.UUID) error {
	return r.db.Model(&model.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now()).Error
}

func (r *pgRefreshTokenRepo) DeleteExpired() (int64, error) {
	res := r.db.Where("expires_at < ?", time.Now()).Delete(&model.RefreshToken{})
	return res.RowsAffected, res.Error
}
