package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dvente/model"
	"dvente/repository"
	"dvente/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPhoneOTPTTL     = 5 * time.Minute
	DefaultPhoneMaxAttempt = 3
)

// PhoneOTPService runs the persisted phone confirmation flow. Unlike the
// in-memory email codes it counts attempts and tells expired from wrong codes.
type PhoneOTPService struct {
	codes       repository.PhoneCodeRepository
	users       repository.UserRepository
	sms         SMSSender
	throttle    *ResendThrottle
	ttl         time.Duration
	maxAttempts int
	digits      int
	now         func() time.Time
}

func NewPhoneOTPService(codes repository.PhoneCodeRepository, users repository.UserRepository, sms SMSSender, throttle *ResendThrottle, ttl time.Duration, maxAttempts int) *PhoneOTPService {
	if ttl <= 0 {
		ttl = DefaultPhoneOTPTTL
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultPhoneMaxAttempt
	}
	return &PhoneOTPService{
		codes:       codes,
		users:       users,
		sms:         sms,
		throttle:    throttle,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		digits:      repository.DefaultCodeDigits,
		now:         time.Now,
	}
}

// SendOTP supersedes any pending code for phone, stores a new one and texts it.
func (s *PhoneOTPService) SendOTP(ctx context.Context, phone string) error {
	if _, err := s.users.GetByPhone(phone); err == nil {
		return ErrPhoneInUse
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	if !s.throttle.Allow("phone:" + phone) {
		return ErrTooManyRequests
	}

	previous, err := s.codes.FindLatestUnverified(phone)
	switch {
	case err == nil:
		previous.Verified = true
		if err := s.codes.Update(previous); err != nil {
			return fmt.Errorf("supersede previous code: %w", err)
		}
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	code, err := util.GenerateRandomDigits(s.digits)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	record := &model.VerificationCode{
		PhoneNumber: phone,
		Code:        code,
		ExpiresAt:   s.now().Add(s.ttl),
	}
	if err := s.codes.Create(record); err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	msg := fmt.Sprintf("Your verification code is: %s. Valid for %d minutes.", code, int(s.ttl/time.Minute))
	if err := s.sms.SendSMS(ctx, phone, msg); err != nil {
		return errors.Join(ErrSMSDelivery, err)
	}
	log.Info().Str("phone", phone).Msg("phone verification code sent")
	return nil
}

// VerifyOTP checks code against the newest pending record for phone and, on
// success, attaches the phone to the user. Every call that finds a record
// under the attempt limit consumes one attempt.
func (s *PhoneOTPService) VerifyOTP(_ context.Context, phone, code string, userID uuid.UUID) error {
	record, err := s.codes.FindLatestUnverified(phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOTPNotFound
		}
		return err
	}

	if record.Attempts >= s.maxAttempts {
		return ErrOTPMaxAttempts
	}

	record.Attempts++
	if err := s.codes.Update(record); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}

	if record.IsExpired(s.now()) {
		return ErrOTPExpired
	}
	if record.Code != code {
		return fmt.Errorf("%w, attempts remaining: %d", ErrOTPInvalid, s.maxAttempts-record.Attempts)
	}

	if _, err := s.users.GetByID(userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if owner, err := s.users.GetByPhone(phone); err == nil && owner.ID != userID {
		return ErrPhoneInUse
	}

	record.Verified = true
	if err := s.codes.Update(record); err != nil {
		return fmt.Errorf("mark code verified: %w", err)
	}

	if err := s.users.ConfirmPhone(userID, phone); err != nil {
		return fmt.Errorf("confirm phone: %w", err)
	}
	log.Info().Str("phone", phone).Str("user_id", userID.String()).Msg("phone number confirmed")
	return nil
}
