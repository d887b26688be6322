package controller

import (
	"errors"
	"time"

	"dvente/config"
	"dvente/dto"
	"dvente/service"
	"dvente/util"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const refreshCookie = "refresh_token"

// AuthController provides handlers for authentication
type AuthController struct {
	svc *service.AuthService
	jwt config.JWTConfig
}

func NewAuthController(s *service.AuthService, jwtCfg config.JWTConfig) *AuthController {
	return &AuthController{svc: s, jwt: jwtCfg}
}

func (ac *AuthController) setRefreshCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookie,
		Value:    token,
		Expires:  time.Now().Add(ac.jwt.RefreshTTL),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Strict",
		Path:     ac.jwt.CookiePath,
	})
}

// Register godoc
// @Summary      Register a new user
// @Description  Create a user account with email and password. Assigns the default 'user' role and mails a verification code.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload body dto.RegisterRequest true "Register payload"
// @Success      201  {object}  dto.RegisterResponse
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request payload")
	}
	if err := util.ValidateStruct(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	res, err := ac.svc.Register(&req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return errorJSON(c, fiber.StatusConflict, err.Error())
		}
		log.Error().Err(err).Str("email", req.Email).Msg("registration failed")
		return errorJSON(c, fiber.StatusInternalServerError, "registration failed")
	}

	return c.Status(fiber.StatusCreated).JSON(res)
}

// Login godoc
// @Summary      Login with email and password
// @Description  Validates credentials, returns the access token in JSON and sets the refresh token in an HttpOnly cookie. Unverified accounts get a new code and 403.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload body dto.LoginRequest true "Login payload"
// @Success      200  {object}  map[string]interface{} "Returns {access_token, expires_in}"
// @Header       200  {string}  Set-Cookie "refresh_token=...; HttpOnly; Secure"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string "Email not verified - verification email sent"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request payload")
	}
	if err := util.ValidateStruct(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	res, err := ac.svc.Login(&req, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCreds):
			return errorJSON(c, fiber.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrEmailNotVerified):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   err.Error(),
				"message": "verification email has been sent to your email address",
			})
		}
		log.Error().Err(err).Msg("login failed")
		return errorJSON(c, fiber.StatusInternalServerError, "login failed")
	}

	ac.setRefreshCookie(c, res.RefreshToken)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"access_token": res.AccessToken,
		"expires_in":   res.ExpiresIn,
	})
}

// Refresh godoc
// @Summary      Rotate refresh token
// @Description  Reads 'refresh_token' from the HttpOnly cookie and issues a new access/refresh pair.
// @Tags         auth
// @Produce      json
// @Param        Cookie header string false "Cookie containing refresh_token"
// @Success      200  {object}  map[string]interface{} "Returns {access_token, expires_in}"
// @Header       200  {string}  Set-Cookie "refresh_token=...; HttpOnly; Secure"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/auth/refresh [post]
func (ac *AuthController) Refresh(c *fiber.Ctx) error {
	token := c.Cookies(refreshCookie)
	if token == "" {
		return errorJSON(c, fiber.StatusBadRequest, "missing refresh token cookie")
	}

	res, err := ac.svc.Refresh(&dto.RefreshRequest{RefreshToken: token}, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		c.ClearCookie(refreshCookie)
		if util.IsError(err, service.ErrInvalidRefresh, service.ErrRefreshRevoked, service.ErrRefreshReuse, service.ErrUserNotFound) {
			return errorJSON(c, fiber.StatusUnauthorized, err.Error())
		}
		log.Error().Err(err).Msg("refresh failed")
		return errorJSON(c, fiber.StatusInternalServerError, "refresh failed")
	}

	ac.setRefreshCookie(c, res.RefreshToken)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"access_token": res.AccessToken,
		"expires_in":   res.ExpiresIn,
	})
}

// Me godoc
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.UserResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/auth/me [get]
func (ac *AuthController) Me(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "unauthorized")
	}

	user, err := ac.svc.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return errorJSON(c, fiber.StatusNotFound, err.Error())
		}
		return errorJSON(c, fiber.StatusInternalServerError, "failed to fetch user")
	}
	return c.JSON(service.ToUserResponse(user))
}
