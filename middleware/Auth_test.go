package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http/httptest"
	"testing"

	"dvente/util"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthApp(t *testing.T) *fiber.App {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	util.SetRSAKeys(key, &key.PublicKey)

	app := fiber.New()
	app.Get("/me", RequireAuth(), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(uuid.UUID).String())
	})
	return app
}

func TestRequireAuth(t *testing.T) {
	app := newAuthApp(t)
	userID := uuid.New()
	pair, err := util.GenerateTokens(userID, []string{"user"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid access token", "Bearer " + pair.AccessToken, fiber.StatusOK},
		{"missing header", "", fiber.StatusUnauthorized},
		{"refresh token rejected", "Bearer " + pair.RefreshToken, fiber.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
