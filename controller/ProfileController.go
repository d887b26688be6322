package controller

import (
	"errors"

	"dvente/dto"
	"dvente/service"
	"dvente/util"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type ProfileController struct {
	emailChange *service.EmailChangeService
}

func NewProfileController(emailChange *service.EmailChangeService) *ProfileController {
	return &ProfileController{emailChange: emailChange}
}

func emailChangeStatus(err error) int {
	switch {
	case util.IsError(err, service.ErrInvalidEmail, service.ErrSameEmail, service.ErrInvalidCode):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrEmailTaken):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrTooManyRequests):
		return fiber.StatusTooManyRequests
	}
	return fiber.StatusInternalServerError
}

// RequestEmailChange godoc
// @Summary      Send a code to a new email address
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload body dto.ChangeEmailCodeRequest true "New address"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      429  {object}  map[string]string
// @Router       /api/users/profile/change/email/code [post]
func (pc *ProfileController) RequestEmailChange(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req dto.ChangeEmailCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request payload")
	}
	if err := util.ValidateStruct(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	if err := pc.emailChange.RequestCode(userID, req.Email); err != nil {
		status := emailChangeStatus(err)
		if status == fiber.StatusInternalServerError {
			log.Error().Err(err).Str("user_id", userID.String()).Msg("email change code not sent")
			return errorJSON(c, status, "failed to send verification code")
		}
		return errorJSON(c, status, err.Error())
	}
	return c.JSON(fiber.Map{"message": "verification code sent to the new address"})
}

// ConfirmEmailChange godoc
// @Summary      Switch to the new email address
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload body dto.ChangeEmailRequest true "New address and code"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/users/profile/change/email [post]
func (pc *ProfileController) ConfirmEmailChange(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req dto.ChangeEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request payload")
	}
	if err := util.ValidateStruct(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	if err := pc.emailChange.ConfirmChange(userID, req.Email, req.Code); err != nil {
		status := emailChangeStatus(err)
		if status == fiber.StatusInternalServerError {
			log.Error().Err(err).Str("user_id", userID.String()).Msg("email change failed")
			return errorJSON(c, status, "failed to update email")
		}
		return errorJSON(c, status, err.Error())
	}

	log.Info().Str("user_id", userID.String()).Msg("email changed")
	return c.JSON(fiber.Map{"message": "email updated successfully"})
}
