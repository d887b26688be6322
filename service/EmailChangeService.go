package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dvente/repository"
	"dvente/util"

	"github.com/google/uuid"
)

// EmailChangeService moves an account to a new address once the code mailed
// to that address comes back. It keeps no attempt counter.
type EmailChangeService struct {
	users    repository.UserRepository
	codes    repository.EmailCodeRepository
	mailer   Mailer
	throttle *ResendThrottle
	digits   int
	ttl      time.Duration
}

func NewEmailChangeService(users repository.UserRepository, codes repository.EmailCodeRepository, mailer Mailer, throttle *ResendThrottle, digits int, ttl time.Duration) *EmailChangeService {
	if digits <= 0 {
		digits = repository.DefaultCodeDigits
	}
	if ttl <= 0 {
		ttl = repository.DefaultEmailCodeTTL
	}
	return &EmailChangeService{
		users:    users,
		codes:    codes,
		mailer:   mailer,
		throttle: throttle,
		digits:   digits,
		ttl:      ttl,
	}
}

func (s *EmailChangeService) checkTarget(userID uuid.UUID, newEmail string) error {
	if err := util.ValidateEmail(newEmail); err != nil {
		return ErrInvalidEmail
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if strings.EqualFold(user.Email, newEmail) {
		return ErrSameEmail
	}

	taken, err := s.users.EmailTaken(newEmail, userID)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}
	return nil
}

// RequestCode mails a code to newEmail if no other account uses it.
func (s *EmailChangeService) RequestCode(userID uuid.UUID, newEmail string) error {
	newEmail = strings.TrimSpace(newEmail)
	if err := s.checkTarget(userID, newEmail); err != nil {
		return err
	}
	if !s.throttle.Allow("change:" + strings.ToLower(newEmail)) {
		return ErrTooManyRequests
	}

	code, err := util.GenerateRandomDigits(s.digits)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	s.codes.Save(newEmail, code)

	if err := s.mailer.SendCode(CodeMail{To: newEmail, Code: code, ExpiresIn: s.ttl, Purpose: PurposeEmailChange}); err != nil {
		s.codes.Delete(newEmail)
		return errors.Join(ErrEmailDelivery, err)
	}
	return nil
}

// ConfirmChange switches the account to newEmail when code matches.
func (s *EmailChangeService) ConfirmChange(userID uuid.UUID, newEmail, code string) error {
	newEmail = strings.TrimSpace(newEmail)

	saved, ok := s.codes.Get(newEmail)
	if !ok || saved != strings.TrimSpace(code) {
		return ErrInvalidCode
	}

	// the address may have been claimed while the code was in flight
	if err := s.checkTarget(userID, newEmail); err != nil {
		return err
	}

	if err := s.users.UpdateEmail(userID, newEmail); err != nil {
		if util.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return err
	}
	s.codes.Delete(newEmail)
	return nil
}
