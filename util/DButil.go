package util

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dvente/config"
	"dvente/model"
)

func dsn(c config.DBConfig, dbName string) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, dbName, c.Port, c.SSLMode)
}

// InitDB creates the database when missing, connects, migrates and sizes the pool.
func InitDB(c config.DBConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	maintenance, err := gorm.Open(postgres.Open(dsn(c, "postgres")), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres instance: %w", err)
	}

	var exists bool
	if err := maintenance.Raw("SELECT EXISTS(SELECT 1 FROM pg_catalog.pg_database WHERE datname = ?)", c.Name).
		Scan(&exists).Error; err != nil {
		return nil, fmt.Errorf("check database: %w", err)
	}
	if !exists {
		log.Info().Str("database", c.Name).Msg("database not found, creating")
		if err := maintenance.Exec(fmt.Sprintf("CREATE DATABASE %q", c.Name)).Error; err != nil {
			return nil, fmt.Errorf("create database: %w", err)
		}
	}
	if sqlDB, err := maintenance.DB(); err == nil {
		_ = sqlDB.Close()
	}

	db, err := gorm.Open(postgres.Open(dsn(c, c.Name)), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to application database: %w", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Credential{},
		&model.RefreshToken{},
		&model.Role{},
		&model.VerificationCode{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(50)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info().Str("database", c.Name).Msg("database connected and migrated")
	return db, nil
}
