package service

import (
	"context"
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

const testPhone = "+15551234567"

var anyCode = mock.AnythingOfType("*model.VerificationCode")

type phoneFixture struct {
	svc   *PhoneOTPService
	codes *mockPhoneCodeRepo
	users *mockUserRepo
	sms   *fakeSMS
	now   time.Time
}

func newPhoneFixture(t *testing.T) *phoneFixture {
	t.Helper()
	f := &phoneFixture{
		codes: new(mockPhoneCodeRepo),
		users: new(mockUserRepo),
		sms:   newFakeSMS(),
		now:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewPhoneOTPService(f.codes, f.users, f.sms, nil, 5*time.Minute, 3)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func TestPhoneOTP_SendSupersedesPrevious(t *testing.T) {
	f := newPhoneFixture(t)
	previous := &model.VerificationCode{ID: 7, PhoneNumber: testPhone, Code: "111111"}

	f.users.On("GetByPhone", testPhone).Return(nil, repository.ErrNotFound)
	f.codes.On("FindLatestUnverified", testPhone).Return(previous, nil)
	f.codes.On("Update", previous).Return(nil).Once()
	f.codes.On("Create", anyCode).Return(nil).Once()

	require.NoError(t, f.svc.SendOTP(context.Background(), testPhone))

	assert.True(t, previous.Verified)
	created := f.codes.Calls[2].Arguments.Get(0).(*model.VerificationCode)
	assert.Equal(t, testPhone, created.PhoneNumber)
	assert.Len(t, created.Code, 6)
	assert.Equal(t, f.now.Add(5*time.Minute), created.ExpiresAt)

	require.Len(t, f.sms.messages[testPhone], 1)
	assert.Equal(t, "Your verification code is: "+created.Code+". Valid for 5 minutes.", f.sms.messages[testPhone][0])
	f.codes.AssertExpectations(t)
}

func TestPhoneOTP_SendToConfirmedPhone(t *testing.T) {
	f := newPhoneFixture(t)
	f.users.On("GetByPhone", testPhone).Return(&model.User{ID: uuid.New()}, nil)

	assert.ErrorIs(t, f.svc.SendOTP(context.Background(), testPhone), ErrPhoneInUse)
	f.codes.AssertNotCalled(t, "Create", mock.Anything)
}

func TestPhoneOTP_SendSMSFailure(t *testing.T) {
	f := newPhoneFixture(t)
	f.sms.err = errors.New("sns unavailable")
	f.users.On("GetByPhone", testPhone).Return(nil, repository.ErrNotFound)
	f.codes.On("FindLatestUnverified", testPhone).Return(nil, repository.ErrNotFound)
	f.codes.On("Create", anyCode).Return(nil)

	assert.ErrorIs(t, f.svc.SendOTP(context.Background(), testPhone), ErrSMSDelivery)
}

func TestPhoneOTP_VerifySuccess(t *testing.T) {
	f := newPhoneFixture(t)
	userID := uuid.New()
	record := &model.VerificationCode{PhoneNumber: testPhone, Code: "123456", ExpiresAt: f.now.Add(time.Minute)}

	f.codes.On("FindLatestUnverified", testPhone).Return(record, nil)
	f.codes.On("Update", record).Return(nil)
	f.users.On("GetByID", userID).Return(&model.User{ID: userID}, nil)
	f.users.On("GetByPhone", testPhone).Return(nil, repository.ErrNotFound)
	f.users.On("ConfirmPhone", userID, testPhone).Return(nil).Once()

	require.NoError(t, f.svc.VerifyOTP(context.Background(), testPhone, "123456", userID))
	assert.True(t, record.Verified)
	assert.Equal(t, 1, record.Attempts)
	f.users.AssertExpectations(t)
}

func TestPhoneOTP_VerifyNotFound(t *testing.T) {
	f := newPhoneFixture(t)
	f.codes.On("FindLatestUnverified", testPhone).Return(nil, repository.ErrNotFound)

	assert.ErrorIs(t, f.svc.VerifyOTP(context.Background(), testPhone, "123456", uuid.New()), ErrOTPNotFound)
}

func TestPhoneOTP_VerifyExpired(t *testing.T) {
	f := newPhoneFixture(t)
	record := &model.VerificationCode{PhoneNumber: testPhone, Code: "123456", ExpiresAt: f.now.Add(-time.Second)}
	f.codes.On("FindLatestUnverified", testPhone).Return(record, nil)
	f.codes.On("Update", record).Return(nil)

	assert.ErrorIs(t, f.svc.VerifyOTP(context.Background(), testPhone, "123456", uuid.New()), ErrOTPExpired)
	assert.False(t, record.Verified)
	assert.Equal(t, 1, record.Attempts)
}

func TestPhoneOTP_WrongCodeThenLimit(t *testing.T) {
	f := newPhoneFixture(t)
	userID := uuid.New()
	record := &model.VerificationCode{PhoneNumber: testPhone, Code: "123456", ExpiresAt: f.now.Add(time.Minute)}
	f.codes.On("FindLatestUnverified", testPhone).Return(record, nil)
	f.codes.On("Update", record).Return(nil)

	err := f.svc.VerifyOTP(context.Background(), testPhone, "000000", userID)
	assert.ErrorIs(t, err, ErrOTPInvalid)
	assert.Contains(t, err.Error(), "attempts remaining: 2")

	err = f.svc.VerifyOTP(context.Background(), testPhone, "000000", userID)
	assert.Contains(t, err.Error(), "attempts remaining: 1")
	err = f.svc.VerifyOTP(context.Background(), testPhone, "000000", userID)
	assert.Contains(t, err.Error(), "attempts remaining: 0")

	// the right code no longer helps once attempts are used up
	assert.ErrorIs(t, f.svc.VerifyOTP(context.Background(), testPhone, "123456", userID), ErrOTPMaxAttempts)
	assert.Equal(t, 3, record.Attempts)
	f.users.AssertNotCalled(t, "ConfirmPhone", mock.Anything, mock.Anything)
}

func TestPhoneOTP_VerifyPhoneOwnedByOther(t *testing.T) {
	f := newPhoneFixture(t)
	userID := uuid.New()
	record := &model.VerificationCode{PhoneNumber: testPhone, Code: "123456", ExpiresAt: f.now.Add(time.Minute)}

	f.codes.On("FindLatestUnverified", testPhone).Return(record, nil)
	f.codes.On("Update", record).Return(nil)
	f.users.On("GetByID", userID).Return(&model.User{ID: userID}, nil)
	f.users.On("GetByPhone", testPhone).Return(&model.User{ID: uuid.New()}, nil)

	assert.ErrorIs(t, f.svc.VerifyOTP(context.Background(), testPhone, "123456", userID), ErrPhoneInUse)
	assert.False(t, record.Verified)
}
