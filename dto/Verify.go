package dto

// VerifyEmailRequest confirms the address used at registration.
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code"  validate:"required,numeric"`
}

type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// CheckpointVerifyRequest carries the code mailed to the signed-in user's address.
type CheckpointVerifyRequest struct {
	Code string `json:"code"`
}

type ChangeEmailCodeRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type ChangeEmailRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Code  string `json:"code"  validate:"required,numeric"`
}

type SendOTPRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,e164"`
}

type VerifyOTPRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,e164"`
	Code        string `json:"code"         validate:"required,numeric"`
}

// VerificationResponse is the body of the phone OTP endpoints.
type VerificationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CheckpointResponse mirrors the status/message/data envelope of the checkpoint endpoints.
type CheckpointResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}
