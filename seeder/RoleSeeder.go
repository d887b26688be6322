package seeder

import (
	"dvente/model"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// DefaultRoles are created at startup when missing.
var DefaultRoles = []model.Role{
	{
		Name:        "Administrator",
		Code:        model.RoleAdmin,
		Description: "Full system access",
		IsSystem:    true,
	},
	{
		Name:        "Seller",
		Code:        model.RoleSeller,
		Description: "Can open a shop and list products",
		IsSystem:    true,
	},
	{
		Name:        "User",
		Code:        model.RoleUser,
		Description: "Standard registered user",
		IsSystem:    true,
	},
}

func SeedRoles(db *gorm.DB) error {
	log.Info().Msg("seeding roles")

	for _, role := range DefaultRoles {
		// Code is the unique identifier used to check existence
		if err := db.Where(model.Role{Code: role.Code}).FirstOrCreate(&role).Error; err != nil {
			log.Error().Err(err).Str("role", role.Code).Msg("failed to seed role")
			return err
		}
	}

	log.Info().Int("roles", len(DefaultRoles)).Msg("role seeding completed")
	return nil
}
