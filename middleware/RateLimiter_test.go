package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeRateLimiter_LimitsThenBans(t *testing.T) {
	handler, storage := NewCodeRateLimiter(2, time.Minute, time.Hour)
	t.Cleanup(func() { _ = storage.Close() })

	app := fiber.New()
	app.Post("/send", handler, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	statuses := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/send", nil))
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}

	assert.Equal(t, []int{
		fiber.StatusOK,
		fiber.StatusOK,
		fiber.StatusTooManyRequests,
		fiber.StatusForbidden,
	}, statuses)
}

func TestIPBanStorage_Expiry(t *testing.T) {
	storage := NewIPBanStorage(time.Minute)
	t.Cleanup(func() { _ = storage.Close() })

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	storage.now = func() time.Time { return now }

	require.NoError(t, storage.Set("k", []byte("v"), time.Second))
	got, err := storage.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	storage.Ban("10.0.0.1")
	assert.True(t, storage.IsBanned("10.0.0.1"))
	assert.False(t, storage.IsBanned("10.0.0.2"))

	now = now.Add(2 * time.Minute)
	got, err = storage.Get("k")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, storage.IsBanned("10.0.0.1"))

	storage.purge()
	assert.Empty(t, storage.entries)
	assert.Empty(t, storage.bans)
}

func TestIPBanStorage_CloseTwice(t *testing.T) {
	storage := NewIPBanStorage(0)
	assert.NoError(t, storage.Close())
	assert.NoError(t, storage.Close())
}
