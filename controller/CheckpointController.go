package controller

import (
	"errors"
	"strings"

	"dvente/dto"
	"dvente/service"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// CheckpointController lets a signed-in user prove they still control their
// current address before a sensitive change.
type CheckpointController struct {
	authSvc         *service.AuthService
	verificationSvc *service.VerificationService
}

func NewCheckpointController(authSvc *service.AuthService, verificationSvc *service.VerificationService) *CheckpointController {
	return &CheckpointController{authSvc: authSvc, verificationSvc: verificationSvc}
}

func checkpointJSON(c *fiber.Ctx, status int, resp dto.CheckpointResponse) error {
	resp.Status = status
	return c.Status(status).JSON(resp)
}

// SendEmailCode godoc
// @Summary      Send a checkpoint code to the current email
// @Tags         checkpoint
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.CheckpointResponse
// @Failure      401  {object}  dto.CheckpointResponse
// @Failure      429  {object}  dto.CheckpointResponse
// @Failure      500  {object}  dto.CheckpointResponse
// @Router       /api/users/checkpoint/email/code [get]
func (cc *CheckpointController) SendEmailCode(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return checkpointJSON(c, fiber.StatusUnauthorized, dto.CheckpointResponse{Message: "unauthorized"})
	}
	user, err := cc.authSvc.GetUserByID(userID)
	if err != nil {
		return checkpointJSON(c, fiber.StatusUnauthorized, dto.CheckpointResponse{Message: "unauthorized", Error: err.Error()})
	}

	if err := cc.verificationSvc.SendCheckpointCode(user); err != nil {
		if errors.Is(err, service.ErrTooManyRequests) {
			return checkpointJSON(c, fiber.StatusTooManyRequests, dto.CheckpointResponse{Message: err.Error(), Data: user.Email})
		}
		log.Error().Err(err).Str("email", user.Email).Msg("checkpoint code not sent")
		return checkpointJSON(c, fiber.StatusInternalServerError, dto.CheckpointResponse{
			Message: "unable to send email information",
			Error:   err.Error(),
			Data:    user.Email,
		})
	}

	return checkpointJSON(c, fiber.StatusOK, dto.CheckpointResponse{
		Message: "email verification code sent successfully",
		Data:    user.Email,
	})
}

// VerifyEmailCode godoc
// @Summary      Verify the checkpoint code
// @Tags         checkpoint
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload body dto.CheckpointVerifyRequest true "Code"
// @Success      200  {object}  dto.CheckpointResponse
// @Failure      400  {object}  dto.CheckpointResponse "code is required | EXPIRED_OR_INVALID"
// @Failure      401  {object}  dto.CheckpointResponse
// @Router       /api/users/checkpoint/email/verify [post]
func (cc *CheckpointController) VerifyEmailCode(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return checkpointJSON(c, fiber.StatusUnauthorized, dto.CheckpointResponse{Message: "unauthorized"})
	}

	var req dto.CheckpointVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return checkpointJSON(c, fiber.StatusBadRequest, dto.CheckpointResponse{Message: "invalid request payload"})
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return checkpointJSON(c, fiber.StatusBadRequest, dto.CheckpointResponse{Message: "code is required"})
	}

	user, err := cc.authSvc.GetUserByID(userID)
	if err != nil {
		return checkpointJSON(c, fiber.StatusUnauthorized, dto.CheckpointResponse{Message: "unauthorized", Error: err.Error()})
	}

	if err := cc.verificationSvc.ConfirmCode(service.PurposeCheckpoint, user.Email, code); err != nil {
		return checkpointJSON(c, fiber.StatusBadRequest, dto.CheckpointResponse{Message: "EXPIRED_OR_INVALID"})
	}
	return checkpointJSON(c, fiber.StatusOK, dto.CheckpointResponse{Message: "code verified successfully"})
}
