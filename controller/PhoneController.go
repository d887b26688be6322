package controller

import (
	"errors"

	"dvente/dto"
	"dvente/service"
	"dvente/util"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type PhoneController struct {
	otp *service.PhoneOTPService
}

func NewPhoneController(otp *service.PhoneOTPService) *PhoneController {
	return &PhoneController{otp: otp}
}

func phoneJSON(c *fiber.Ctx, status int, success bool, msg string) error {
	return c.Status(status).JSON(dto.VerificationResponse{Success: success, Message: msg})
}

// SendOTP godoc
// @Summary      Text a verification code to a phone number
// @Tags         verification
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload body dto.SendOTPRequest true "Phone number (E.164)"
// @Success      200  {object}  dto.VerificationResponse
// @Failure      400  {object}  dto.VerificationResponse
// @Failure      409  {object}  dto.VerificationResponse
// @Failure      429  {object}  dto.VerificationResponse
// @Failure      500  {object}  dto.VerificationResponse
// @Router       /api/verification/send-otp [post]
func (pc *PhoneController) SendOTP(c *fiber.Ctx) error {
	var req dto.SendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return phoneJSON(c, fiber.StatusBadRequest, false, "invalid request payload")
	}
	if err := util.ValidateStruct(&req); err != nil {
		return phoneJSON(c, fiber.StatusBadRequest, false, err.Error())
	}

	if err := pc.otp.SendOTP(c.UserContext(), req.PhoneNumber); err != nil {
		switch {
		case errors.Is(err, service.ErrPhoneInUse):
			return phoneJSON(c, fiber.StatusConflict, false, err.Error())
		case errors.Is(err, service.ErrTooManyRequests):
			return phoneJSON(c, fiber.StatusTooManyRequests, false, err.Error())
		}
		log.Error().Err(err).Str("phone", req.PhoneNumber).Msg("phone code not sent")
		return phoneJSON(c, fiber.StatusInternalServerError, false, "failed to send verification code")
	}
	return phoneJSON(c, fiber.StatusOK, true, "verification code sent")
}

// VerifyOTP godoc
// @Summary      Confirm a phone number with its code
// @Tags         verification
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload body dto.VerifyOTPRequest true "Phone number and code"
// @Success      200  {object}  dto.VerificationResponse
// @Failure      400  {object}  dto.VerificationResponse
// @Failure      401  {object}  dto.VerificationResponse
// @Failure      409  {object}  dto.VerificationResponse
// @Failure      429  {object}  dto.VerificationResponse
// @Router       /api/verification/verify-otp [post]
func (pc *PhoneController) VerifyOTP(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return phoneJSON(c, fiber.StatusUnauthorized, false, "unauthorized")
	}

	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return phoneJSON(c, fiber.StatusBadRequest, false, "invalid request payload")
	}
	if err := util.ValidateStruct(&req); err != nil {
		return phoneJSON(c, fiber.StatusBadRequest, false, err.Error())
	}

	err := pc.otp.VerifyOTP(c.UserContext(), req.PhoneNumber, req.Code, userID)
	switch {
	case err == nil:
		return phoneJSON(c, fiber.StatusOK, true, "phone number verified")
	case util.IsError(err, service.ErrOTPNotFound, service.ErrOTPExpired, service.ErrOTPInvalid):
		return phoneJSON(c, fiber.StatusBadRequest, false, err.Error())
	case errors.Is(err, service.ErrOTPMaxAttempts):
		return phoneJSON(c, fiber.StatusTooManyRequests, false, err.Error())
	case errors.Is(err, service.ErrPhoneInUse):
		return phoneJSON(c, fiber.StatusConflict, false, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		return phoneJSON(c, fiber.StatusUnauthorized, false, err.Error())
	}
	log.Error().Err(err).Str("phone", req.PhoneNumber).Msg("phone verification failed")
	return phoneJSON(c, fiber.StatusInternalServerError, false, "verification failed")
}
