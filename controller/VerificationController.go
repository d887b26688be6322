package controller

import (
	"errors"

	"dvente/dto"
	"dvente/service"
	"dvente/util"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type VerificationController struct {
	authSvc *service.AuthService
}

func NewVerificationController(authSvc *service.AuthService) *VerificationController {
	return &VerificationController{authSvc: authSvc}
}

// VerifyEmail godoc
// @Summary      Verify email with code
// @Description  Verifies the 6-digit code sent at registration. On success the account is activated (isEmailVerified=true).
// @Tags         verification
// @Accept       json
// @Produce      json
// @Param        payload body dto.VerifyEmailRequest true "Verification payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/auth/verify [post]
func (vc *VerificationController) VerifyEmail(c *fiber.Ctx) error {
	var req dto.VerifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request payload")
	}
	if err := util.ValidateStruct(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := vc.authSvc.VerifyEmail(req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return errorJSON(c, fiber.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrInvalidCode):
			return errorJSON(c, fiber.StatusUnauthorized, err.Error())
		}
		log.Error().Err(err).Str("email", req.Email).Msg("email verification failed")
		return errorJSON(c, fiber.StatusInternalServerError, "failed to update user verification status")
	}

	log.Info().Str("email", user.Email).Str("user_id", user.ID.String()).Msg("email verified")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "email verified"})
}

// ResendVerificationCode godoc
// @Summary      Resend verification code to email
// @Description  Generates and mails a new verification code if the user exists. The previous code stops working.
// @Tags         verification
// @Accept       json
// @Produce      json
// @Param        payload body dto.ResendOTPRequest true "Resend payload"
// @Success      202  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      429  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/auth/resend [post]
func (vc *VerificationController) ResendVerificationCode(c *fiber.Ctx) error {
	var req dto.ResendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request payload")
	}
	if err := util.ValidateStruct(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	if err := vc.authSvc.ResendVerification(req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return errorJSON(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrTooManyRequests):
			return errorJSON(c, fiber.StatusTooManyRequests, err.Error())
		}
		log.Error().Err(err).Str("email", req.Email).Msg("failed to initiate verification email")
		return errorJSON(c, fiber.StatusInternalServerError, "failed to send verification code")
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "verification code sent"})
}
