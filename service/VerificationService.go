package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dvente/model"
	"dvente/repository"

	"github.com/rs/zerolog/log"
)

// VerificationService sends and checks the email codes held in the in-memory
// code store. Codes are keyed by purpose and lower-cased address, so a
// registration code never satisfies a checkpoint and the other way round.
type VerificationService struct {
	store    repository.CodeStore
	mailer   Mailer
	throttle *ResendThrottle
	ttl      time.Duration
}

func NewVerificationService(store repository.CodeStore, mailer Mailer, throttle *ResendThrottle, ttl time.Duration) *VerificationService {
	if ttl <= 0 {
		ttl = repository.DefaultCodeTTL
	}
	return &VerificationService{
		store:    store,
		mailer:   mailer,
		throttle: throttle,
		ttl:      ttl,
	}
}

// codeKey returns "" for a blank address so the store rejects it.
func codeKey(purpose CodePurpose, email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}
	if purpose == PurposeCheckpoint {
		return "checkpoint:" + email
	}
	return "register:" + email
}

func (s *VerificationService) issue(purpose CodePurpose, email string) (string, error) {
	key := codeKey(purpose, email)
	if !s.throttle.Allow(key) {
		return "", ErrTooManyRequests
	}
	code, err := s.store.Issue(key)
	if err != nil {
		return "", fmt.Errorf("issue code: %w", err)
	}
	return code, nil
}

// SendRegistrationCode issues a code for the user's address and mails it in
// the background so the request is not held up by SMTP.
func (s *VerificationService) SendRegistrationCode(user *model.User) error {
	code, err := s.issue(PurposeRegistration, user.Email)
	if err != nil {
		return err
	}

	mail := CodeMail{To: user.Email, Name: user.Name, Code: code, ExpiresIn: s.ttl, Purpose: PurposeRegistration}
	go func() {
		if err := s.mailer.SendCode(mail); err != nil {
			log.Error().Err(err).Str("email", mail.To).Msg("failed to send verification code")
			return
		}
		log.Info().Str("email", mail.To).Msg("verification code sent")
	}()

	return nil
}

// SendCheckpointCode issues a code for the signed-in user's current address
// and mails it before returning.
func (s *VerificationService) SendCheckpointCode(user *model.User) error {
	code, err := s.issue(PurposeCheckpoint, user.Email)
	if err != nil {
		return err
	}

	err = s.mailer.SendCode(CodeMail{To: user.Email, Name: user.Name, Code: code, ExpiresIn: s.ttl, Purpose: PurposeCheckpoint})
	if err != nil {
		// an undelivered code must not stay usable
		s.store.Remove(codeKey(PurposeCheckpoint, user.Email))
		return errors.Join(ErrEmailDelivery, err)
	}
	return nil
}

// ConfirmCode verifies the code issued for purpose and removes it so it
// cannot be replayed.
func (s *VerificationService) ConfirmCode(purpose CodePurpose, email, code string) error {
	key := codeKey(purpose, email)
	if !s.store.Verify(key, strings.TrimSpace(code)) {
		return ErrInvalidCode
	}
	s.store.Remove(key)
	return nil
}
