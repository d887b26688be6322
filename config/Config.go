package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all runtime settings read from the environment.
type Config struct {
	Port    string
	AppName string

	DB   DBConfig
	SMTP SMTPConfig
	SMS  SMSConfig
	JWT  JWTConfig

	Codes CodeConfig

	LogLevel  string
	LogPretty bool
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
}

type SMTPConfig struct {
	Host       string
	Port       int
	User       string
	Pass       string
	SenderName string
}

type SMSConfig struct {
	Enabled   bool
	SNSRegion string
}

type JWTConfig struct {
	PrivateKeyPEM string
	PublicKeyPEM  string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	CookiePath    string
}

// CodeConfig tunes the three verification code flows.
type CodeConfig struct {
	TTL            time.Duration
	SweepInterval  time.Duration
	Digits         int
	Shards         int
	ResendInterval time.Duration

	EmailChangeTTL  time.Duration
	EmailChangeSize int

	PhoneTTL         time.Duration
	PhoneMaxAttempts int
}

// Load reads a .env file when present and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file loaded, using process environment")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	return &Config{
		Port:    getEnv("PORT", "4000"),
		AppName: getEnv("APP_NAME", "DVENTE"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "dvente"),
			Port:     getEnv("DB_PORT", "5432"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", "localhost"),
			Port:       getEnvInt("SMTP_PORT", 1025),
			User:       getEnv("SMTP_USER", ""),
			Pass:       getEnv("SMTP_PASS", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "DVENTE"),
		},
		SMS: SMSConfig{
			Enabled:   getEnvBool("SMS_ENABLED", false),
			SNSRegion: getEnv("SNS_REGION", "us-east-1"),
		},
		JWT: JWTConfig{
			PrivateKeyPEM: getEnv("RSA_PRIVATE_KEY", ""),
			PublicKeyPEM:  getEnv("RSA_PUBLIC_KEY", ""),
			AccessTTL:     getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute),
			RefreshTTL:    getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
			CookiePath:    getEnv("COOKIE_PATH", "/api/v1/auth"),
		},
		Codes: CodeConfig{
			TTL:              getEnvDuration("CODE_TTL", 5*time.Minute),
			SweepInterval:    getEnvDuration("CODE_SWEEP_INTERVAL", time.Minute),
			Digits:           getEnvInt("CODE_DIGITS", 6),
			Shards:           getEnvInt("CODE_SHARDS", 32),
			ResendInterval:   getEnvDuration("CODE_RESEND_INTERVAL", 30*time.Second),
			EmailChangeTTL:   getEnvDuration("EMAIL_CHANGE_CODE_TTL", 10*time.Minute),
			EmailChangeSize:  getEnvInt("EMAIL_CHANGE_CACHE_SIZE", 1000),
			PhoneTTL:         getEnvDuration("PHONE_OTP_TTL", 5*time.Minute),
			PhoneMaxAttempts: getEnvInt("PHONE_OTP_MAX_ATTEMPTS", 3),
		},
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvBool("LOG_PRETTY", false),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
