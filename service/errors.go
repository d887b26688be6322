package service

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidCode       = errors.New("invalid or expired verification code")
	ErrTooManyRequests   = errors.New("a code was sent recently, please wait before asking again")
	ErrEmailTaken        = errors.New("email already in use")
	ErrEmailDelivery     = errors.New("failed to send email")
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrSameEmail         = errors.New("new email is the same as the current one")
	ErrInvalidCreds      = errors.New("invalid credentials")
	ErrEmailNotVerified  = errors.New("email not verified")
	ErrInvalidRefresh    = errors.New("invalid or unknown refresh token")
	ErrRefreshRevoked    = errors.New("refresh token expired or revoked")
	ErrRefreshReuse      = errors.New("refresh token reuse detected")
	ErrDefaultRoleAbsent = errors.New("default role not found")

	ErrPhoneInUse     = errors.New("phone number already confirmed by an account")
	ErrOTPNotFound    = errors.New("no verification code found")
	ErrOTPExpired     = errors.New("verification code has expired")
	ErrOTPMaxAttempts = errors.New("maximum attempts exceeded, request a new code")
	ErrOTPInvalid     = errors.New("invalid code")
	ErrSMSDelivery    = errors.New("failed to send sms")
)
