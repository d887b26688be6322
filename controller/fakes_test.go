package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"dvente/model"
	"dvente/repository"
	"dvente/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newMemUsers(users ...*model.User) *memUsers {
	m := &memUsers{users: make(map[uuid.UUID]*model.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) Create(user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	m.users[user.ID] = user
	return nil
}

func (m *memUsers) GetByID(id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByEmail(email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByPhone(phone string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Phone != nil && *u.Phone == phone {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) EmailTaken(email string, exceptID uuid.UUID) (bool, error) {
	u, err := m.GetByEmail(email)
	if err != nil {
		return false, nil
	}
	return u.ID != exceptID, nil
}

func (m *memUsers) UpdateEmail(id uuid.UUID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].Email = strings.ToLower(email)
	m.users[id].IsEmailVerified = true
	return nil
}

func (m *memUsers) MarkEmailVerified(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].IsEmailVerified = true
	return nil
}

func (m *memUsers) ConfirmPhone(id uuid.UUID, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].Phone = &phone
	m.users[id].PhoneConfirmed = true
	return nil
}

type memPhoneCodes struct {
	mu      sync.Mutex
	records []*model.VerificationCode
}

func (m *memPhoneCodes) Create(code *model.VerificationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	code.ID = uint(len(m.records) + 1)
	m.records = append(m.records, code)
	return nil
}

func (m *memPhoneCodes) FindLatestUnverified(phone string) (*model.VerificationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sorted := append([]*model.VerificationCode(nil), m.records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })
	for _, r := range sorted {
		if r.PhoneNumber == phone && !r.Verified {
			return r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memPhoneCodes) Update(*model.VerificationCode) error { return nil }

func (m *memPhoneCodes) DeleteExpired(time.Time) (int64, error) { return 0, nil }

type captureMailer struct {
	mu   sync.Mutex
	last service.CodeMail
}

func (c *captureMailer) SendCode(mail service.CodeMail) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = mail
	return nil
}

func (c *captureMailer) code() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last.Code
}

type nopSMS struct{}

func (nopSMS) SendSMS(context.Context, string, string) error { return nil }

// withUser stands in for RequireAuth in handler tests.
func withUser(id uuid.UUID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", id)
		return c.Next()
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}
