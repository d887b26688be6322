package service

import (
	"errors"
	"testing"
	"time"

	"dvente/model"
	"dvente/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestEmailChange(t *testing.T) (*EmailChangeService, *mockUserRepo, *repository.EmailCodeCache, *fakeMailer) {
	t.Helper()
	users := new(mockUserRepo)
	cache := repository.NewEmailCodeCache(time.Minute, 100)
	t.Cleanup(cache.Close)
	mailer := newFakeMailer()
	return NewEmailChangeService(users, cache, mailer, nil, 6, time.Minute), users, cache, mailer
}

func TestEmailChange_RequestAndConfirm(t *testing.T) {
	svc, users, cache, mailer := newTestEmailChange(t)
	id := uuid.New()
	user := &model.User{ID: id, Email: "old@example.com"}

	users.On("GetByID", id).Return(user, nil)
	users.On("EmailTaken", "new@example.com", id).Return(false, nil)
	users.On("UpdateEmail", id, "new@example.com").Return(nil).Once()

	require.NoError(t, svc.RequestCode(id, " new@example.com "))
	mail, ok := mailer.last()
	require.True(t, ok)
	assert.Equal(t, "new@example.com", mail.To)
	assert.Equal(t, PurposeEmailChange, mail.Purpose)
	assert.Equal(t, 1, cache.Len())

	require.NoError(t, svc.ConfirmChange(id, "new@example.com", mail.Code))
	assert.Equal(t, 0, cache.Len())
	users.AssertExpectations(t)
}

func TestEmailChange_WrongCode(t *testing.T) {
	svc, users, _, mailer := newTestEmailChange(t)
	id := uuid.New()

	users.On("GetByID", id).Return(&model.User{ID: id, Email: "old@example.com"}, nil)
	users.On("EmailTaken", "new@example.com", id).Return(false, nil)

	require.NoError(t, svc.RequestCode(id, "new@example.com"))
	mail, _ := mailer.last()

	wrong := "000000"
	if mail.Code == wrong {
		wrong = "111111"
	}
	assert.ErrorIs(t, svc.ConfirmChange(id, "new@example.com", wrong), ErrInvalidCode)
	assert.ErrorIs(t, svc.ConfirmChange(id, "other@example.com", mail.Code), ErrInvalidCode)
	users.AssertNotCalled(t, "UpdateEmail", mock.Anything, mock.Anything)
}

func TestEmailChange_Rejections(t *testing.T) {
	svc, users, cache, mailer := newTestEmailChange(t)
	id := uuid.New()

	users.On("GetByID", id).Return(&model.User{ID: id, Email: "old@example.com"}, nil)
	users.On("EmailTaken", "taken@example.com", id).Return(true, nil)

	assert.ErrorIs(t, svc.RequestCode(id, "not-an-email"), ErrInvalidEmail)
	assert.ErrorIs(t, svc.RequestCode(id, "OLD@example.com"), ErrSameEmail)
	assert.ErrorIs(t, svc.RequestCode(id, "taken@example.com"), ErrEmailTaken)

	_, sent := mailer.last()
	assert.False(t, sent)
	assert.Equal(t, 0, cache.Len())
}

func TestEmailChange_UnknownUser(t *testing.T) {
	svc, users, _, _ := newTestEmailChange(t)
	id := uuid.New()
	users.On("GetByID", id).Return(nil, repository.ErrNotFound)

	assert.ErrorIs(t, svc.RequestCode(id, "new@example.com"), ErrUserNotFound)
}

func TestEmailChange_AddressClaimedBeforeConfirm(t *testing.T) {
	svc, users, cache, _ := newTestEmailChange(t)
	id := uuid.New()

	users.On("GetByID", id).Return(&model.User{ID: id, Email: "old@example.com"}, nil)
	users.On("EmailTaken", "new@example.com", id).Return(true, nil)
	cache.Save("new@example.com", "424242")

	assert.ErrorIs(t, svc.ConfirmChange(id, "new@example.com", "424242"), ErrEmailTaken)
	users.AssertNotCalled(t, "UpdateEmail", mock.Anything, mock.Anything)
}

func TestEmailChange_MailFailureDropsCode(t *testing.T) {
	svc, users, cache, mailer := newTestEmailChange(t)
	id := uuid.New()
	mailer.err = errors.New("smtp down")

	users.On("GetByID", id).Return(&model.User{ID: id, Email: "old@example.com"}, nil)
	users.On("EmailTaken", "new@example.com", id).Return(false, nil)

	err := svc.RequestCode(id, "new@example.com")
	assert.ErrorIs(t, err, ErrEmailDelivery)
	assert.Equal(t, 0, cache.Len())
}
