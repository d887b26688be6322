package service

import (
	"context"
	"sync"
	"time"

	"dvente/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// --- repositories ---

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(user *model.User) error {
	return m.Called(user).Error(0)
}
func (m *mockUserRepo) GetByID(id uuid.UUID) (*model.User, error) {
	args := m.Called(id)
	if u, _ := args.Get(0).(*model.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserRepo) GetByEmail(email string) (*model.User, error) {
	args := m.Called(email)
	if u, _ := args.Get(0).(*model.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserRepo) GetByPhone(phone string) (*model.User, error) {
	args := m.Called(phone)
	if u, _ := args.Get(0).(*model.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserRepo) EmailTaken(email string, exceptID uuid.UUID) (bool, error) {
	args := m.Called(email, exceptID)
	return args.Bool(0), args.Error(1)
}
func (m *mockUserRepo) UpdateEmail(id uuid.UUID, email string) error {
	return m.Called(id, email).Error(0)
}
func (m *mockUserRepo) MarkEmailVerified(id uuid.UUID) error {
	return m.Called(id).Error(0)
}
func (m *mockUserRepo) ConfirmPhone(id uuid.UUID, phone string) error {
	return m.Called(id, phone).Error(0)
}

type mockCredentialRepo struct{ mock.Mock }

func (m *mockCredentialRepo) Create(cred *model.Credential) error {
	return m.Called(cred).Error(0)
}
func (m *mockCredentialRepo) GetByUserIDAndType(userID uuid.UUID, t model.CredentialType) (*model.Credential, error) {
	args := m.Called(userID, t)
	if c, _ := args.Get(0).(*model.Credential); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCredentialRepo) Update(cred *model.Credential) error {
	return m.Called(cred).Error(0)
}

type mockRefreshRepo struct{ mock.Mock }

func (m *mockRefreshRepo) Create(rt *model.RefreshToken) error {
	return m.Called(rt).Error(0)
}
func (m *mockRefreshRepo) GetByID(id uuid.UUID) (*model.RefreshToken, error) {
	args := m.Called(id)
	if t, _ := args.Get(0).(*model.RefreshToken); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRefreshRepo) Update(rt *model.RefreshToken) error {
	return m.Called(rt).Error(0)
}
func (m *mockRefreshRepo) RevokeAllForUser(userID uuid.UUID) error {
	return m.Called(userID).Error(0)
}
func (m *mockRefreshRepo) DeleteExpired() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

type mockRoleRepo struct{ mock.Mock }

func (m *mockRoleRepo) GetByCode(code string) (*model.Role, error) {
	args := m.Called(code)
	if r, _ := args.Get(0).(*model.Role); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPhoneCodeRepo struct{ mock.Mock }

func (m *mockPhoneCodeRepo) Create(code *model.VerificationCode) error {
	return m.Called(code).Error(0)
}
func (m *mockPhoneCodeRepo) FindLatestUnverified(phone string) (*model.VerificationCode, error) {
	args := m.Called(phone)
	if c, _ := args.Get(0).(*model.VerificationCode); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockPhoneCodeRepo) Update(code *model.VerificationCode) error {
	return m.Called(code).Error(0)
}
func (m *mockPhoneCodeRepo) DeleteExpired(before time.Time) (int64, error) {
	args := m.Called(before)
	return args.Get(0).(int64), args.Error(1)
}

// --- delivery fakes ---

type fakeMailer struct {
	mu   sync.Mutex
	sent []CodeMail
	err  error
	ch   chan CodeMail
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{ch: make(chan CodeMail, 16)}
}

func (f *fakeMailer) SendCode(mail CodeMail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, mail)
	select {
	case f.ch <- mail:
	default:
	}
	return nil
}

func (f *fakeMailer) last() (CodeMail, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return CodeMail{}, false
	}
	return f.sent[len(f.sent)-1], true
}

type fakeSMS struct {
	mu       sync.Mutex
	messages map[string][]string
	err      error
}

func newFakeSMS() *fakeSMS {
	return &fakeSMS{messages: make(map[string][]string)}
}

func (f *fakeSMS) SendSMS(_ context.Context, to, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages[to] = append(f.messages[to], message)
	return nil
}
