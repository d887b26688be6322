package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	swag "github.com/gofiber/swagger"
	"github.com/rs/zerolog/log"

	_ "dvente/docs" // <-- required to register swagger spec

	"dvente/config"
	"dvente/controller"
	"dvente/middleware"
	"dvente/repository"
	"dvente/seeder"
	"dvente/service"
	"dvente/util"
)

const (
	cleanupHour     = 3
	shutdownTimeout = 10 * time.Second
)

// @title           DVENTE API
// @version         1.0
// @description     Marketplace account, verification code and phone OTP endpoints.

// @contact.name    API Support
// @contact.email   support@dvente.local

// @host            localhost:4000
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	util.InitLogger(cfg.LogLevel, cfg.LogPretty)

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	util.ConfigureTokenTTL(cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	if err := util.InitRSAKeys(cfg.JWT.PrivateKeyPEM, cfg.JWT.PublicKeyPEM); err != nil {
		return err
	}

	db, err := util.InitDB(cfg.DB)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := seeder.SeedRoles(db); err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	phoneCodeRepo := repository.NewPhoneCodeRepository(db)

	codeStore := repository.NewMemoryCodeStore(
		repository.WithCodeTTL(cfg.Codes.TTL),
		repository.WithSweepInterval(cfg.Codes.SweepInterval),
		repository.WithCodeDigits(cfg.Codes.Digits),
		repository.WithShardCount(cfg.Codes.Shards),
	)
	codeStore.Start(ctx)
	defer codeStore.Stop()

	emailCodes := repository.NewEmailCodeCache(cfg.Codes.EmailChangeTTL, uint64(cfg.Codes.EmailChangeSize))
	defer emailCodes.Close()

	var smsSender service.SMSSender = service.NewLogSMSSender(log.Logger)
	if cfg.SMS.Enabled {
		sns, err := service.NewSNSSender(ctx, cfg.SMS.SNSRegion)
		if err != nil {
			return err
		}
		smsSender = sns
	}

	cleanupDone := util.StartDailyCleanup(ctx, cleanupHour,
		util.CleanupJob{Name: "refresh_tokens", Run: refreshTokenRepo.DeleteExpired},
		util.CleanupJob{Name: "phone_codes", Run: func() (int64, error) {
			return phoneCodeRepo.DeleteExpired(time.Now())
		}},
	)

	emailService := service.NewEmailService(cfg.SMTP, cfg.AppName)
	throttle := service.NewResendThrottle(cfg.Codes.ResendInterval, 1)

	verificationService := service.NewVerificationService(codeStore, emailService, throttle, cfg.Codes.TTL)
	authService := service.NewAuthService(userRepo, credentialRepo, refreshTokenRepo, roleRepo, verificationService)
	emailChangeService := service.NewEmailChangeService(userRepo, emailCodes, emailService, throttle, cfg.Codes.Digits, cfg.Codes.EmailChangeTTL)
	phoneService := service.NewPhoneOTPService(phoneCodeRepo, userRepo, smsSender, throttle, cfg.Codes.PhoneTTL, cfg.Codes.PhoneMaxAttempts)

	codeLimiter, limiterStorage := middleware.NewCodeRateLimiter(middleware.DefaultCodeRateMax, middleware.DefaultCodeRateWindow, middleware.DefaultBanDuration)
	defer limiterStorage.Close()
	verifyLimiter, verifyStorage := middleware.NewCodeRateLimiter(middleware.DefaultVerifyRateMax, middleware.DefaultCodeRateWindow, middleware.DefaultBanDuration)
	defer verifyStorage.Close()

	app := fiber.New(fiber.Config{AppName: cfg.AppName})
	setupRoutes(app, routeDeps{
		auth:          controller.NewAuthController(authService, cfg.JWT),
		verification:  controller.NewVerificationController(authService),
		checkpoint:    controller.NewCheckpointController(authService, verificationService),
		profile:       controller.NewProfileController(emailChangeService),
		phone:         controller.NewPhoneController(phoneService),
		codeLimiter:   codeLimiter,
		verifyLimiter: verifyLimiter,
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		serveErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err = <-serveErr:
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := app.ShutdownWithContext(shutdownCtx); shutdownErr != nil {
		log.Error().Err(shutdownErr).Msg("http shutdown")
	}

	stop()
	<-cleanupDone
	return err
}

type routeDeps struct {
	auth         *controller.AuthController
	verification *controller.VerificationController
	checkpoint   *controller.CheckpointController
	profile      *controller.ProfileController
	phone        *controller.PhoneController

	// codeLimiter guards routes that send codes, verifyLimiter routes that check them
	codeLimiter   fiber.Handler
	verifyLimiter fiber.Handler
}

func setupRoutes(app *fiber.App, d routeDeps) {
	app.Use(middleware.TimerMetrics)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/swagger/*", swag.HandlerDefault)

	requireAuth := middleware.RequireAuth()

	auth := app.Group("/api/v1/auth")
	auth.Post("/register", d.codeLimiter, d.auth.Register)
	auth.Post("/login", d.auth.Login)
	auth.Post("/refresh", d.auth.Refresh)
	auth.Get("/me", requireAuth, d.auth.Me)
	auth.Post("/verify", d.verifyLimiter, d.verification.VerifyEmail)
	auth.Post("/resend", d.codeLimiter, d.verification.ResendVerificationCode)

	users := app.Group("/api/users", requireAuth)
	users.Get("/checkpoint/email/code", d.codeLimiter, d.checkpoint.SendEmailCode)
	users.Post("/checkpoint/email/verify", d.verifyLimiter, d.checkpoint.VerifyEmailCode)
	users.Post("/profile/change/email/code", d.codeLimiter, d.profile.RequestEmailChange)
	users.Post("/profile/change/email", d.verifyLimiter, d.profile.ConfirmEmailChange)

	verification := app.Group("/api/verification", requireAuth)
	verification.Post("/send-otp", d.codeLimiter, d.phone.SendOTP)
	verification.Post("/verify-otp", d.verifyLimiter, d.phone.VerifyOTP)
}
