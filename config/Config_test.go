package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"CODE_TTL", "CODE_SWEEP_INTERVAL", "CODE_DIGITS", "EMAIL_CHANGE_CODE_TTL",
		"EMAIL_CHANGE_CACHE_SIZE", "PHONE_OTP_MAX_ATTEMPTS", "SMS_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, 5*time.Minute, cfg.Codes.TTL)
	assert.Equal(t, time.Minute, cfg.Codes.SweepInterval)
	assert.Equal(t, 6, cfg.Codes.Digits)
	assert.Equal(t, 10*time.Minute, cfg.Codes.EmailChangeTTL)
	assert.Equal(t, 1000, cfg.Codes.EmailChangeSize)
	assert.Equal(t, 3, cfg.Codes.PhoneMaxAttempts)
	assert.False(t, cfg.SMS.Enabled)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("CODE_TTL", "90s")
	t.Setenv("CODE_DIGITS", "8")
	t.Setenv("SMS_ENABLED", "true")
	t.Setenv("SMTP_PORT", "587")

	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.Codes.TTL)
	assert.Equal(t, 8, cfg.Codes.Digits)
	assert.True(t, cfg.SMS.Enabled)
	assert.Equal(t, 587, cfg.SMTP.Port)
}

func TestFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("CODE_TTL", "soon")
	t.Setenv("CODE_SWEEP_INTERVAL", "-1m")
	t.Setenv("PHONE_OTP_MAX_ATTEMPTS", "three")

	cfg := FromEnv()

	assert.Equal(t, 5*time.Minute, cfg.Codes.TTL)
	assert.Equal(t, time.Minute, cfg.Codes.SweepInterval)
	assert.Equal(t, 3, cfg.Codes.PhoneMaxAttempts)
}
