package repository

import (
	"strings"

	"dvente/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *model.User) error
	GetByID(id uuid.UUID) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
	GetByPhone(phone string) (*model.User, error)
	EmailTaken(email string, exceptID uuid.UUID) (bool, error)
	UpdateEmail(id uuid.UUID, email string) error
	MarkEmailVerified(id uuid.UUID) error
	ConfirmPhone(id uuid.UUID, phone string) error
}

type pgUserRepo struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &pgUserRepo{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *pgUserRepo) Create(user *model.User) error {
	user.Email = normalizeEmail(user.Email)
	return r.db.Create(user).Error
}

func (r *pgUserRepo) GetByID(id uuid.UUID) (*model.User, error) {
	var u model.User
	if err := r.db.Preload("Roles").Preload("Credentials").First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *pgUserRepo) GetByEmail(email string) (*model.User, error) {
	var u model.User
	// roles are needed to bake claims at login
	if err := r.db.Preload("Roles").Preload("Credentials").Where("email = ?", normalizeEmail(email)).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *pgUserRepo) GetByPhone(phone string) (*model.User, error) {
	var u model.User
	if err := r.db.Where("phone = ?", phone).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *pgUserRepo) EmailTaken(email string, exceptID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&model.User{}).
		Where("email = ? AND id <> ?", normalizeEmail(email), exceptID).
		Count(&count).Error
	return count > 0, err
}

func (r *pgUserRepo) UpdateEmail(id uuid.UUID, email string) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"email":             normalizeEmail(email),
		"is_email_verified": true,
	}).Error
}

func (r *pgUserRepo) MarkEmailVerified(id uuid.UUID) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Update("is_email_verified", true).Error
}

func (r *pgUserRepo) ConfirmPhone(id uuid.UUID, phone string) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"phone":           phone,
		"phone_confirmed": true,
	}).Error
}
