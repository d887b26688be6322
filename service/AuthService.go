package service

import (
	"errors"
	"fmt"
	"time"

	"dvente/dto"
	"dvente/model"
	"dvente/repository"
	"dvente/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// refreshGrace is how long a rotated refresh token may still be replayed
// (parallel tabs racing on the same cookie).
const refreshGrace = 10 * time.Second

type AuthService struct {
	userRepo       repository.UserRepository
	credentialRepo repository.CredentialRepository
	refreshRepo    repository.RefreshTokenRepository
	roleRepo       repository.RoleRepository
	verification   *VerificationService
	now            func() time.Time
}

func NewAuthService(
	u repository.UserRepository,
	c repository.CredentialRepository,
	r repository.RefreshTokenRepository,
	role repository.RoleRepository,
	verification *VerificationService,
) *AuthService {
	return &AuthService{
		userRepo:       u,
		credentialRepo: c,
		refreshRepo:    r,
		roleRepo:       role,
		verification:   verification,
		now:            time.Now,
	}
}

// Register creates the user with the default role and a password credential,
// then mails the first verification code.
func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	defaultRole, err := s.roleRepo.GetByCode(model.RoleUser)
	if err != nil {
		return nil, ErrDefaultRoleAbsent
	}

	hashed, err := util.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:  req.Name,
		Email: req.Email,
		Roles: []model.Role{*defaultRole},
	}
	if err := s.userRepo.Create(user); err != nil {
		if util.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	cred := &model.Credential{
		UserID: user.ID,
		Type:   model.CredTypePassword,
		Value:  hashed,
	}
	if err := s.credentialRepo.Create(cred); err != nil {
		return nil, err
	}

	if err := s.verification.SendRegistrationCode(user); err != nil {
		log.Warn().Err(err).Str("email", user.Email).Msg("registration code not sent")
	}

	return &dto.RegisterResponse{ID: user.ID.String(), Name: user.Name, Email: user.Email}, nil
}

// Login checks the password and returns a token pair. Unverified accounts get
// a fresh code instead of tokens.
func (s *AuthService) Login(req *dto.LoginRequest, clientIP, userAgent string) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		return nil, ErrInvalidCreds
	}

	pwCred := user.PasswordCredential()
	if pwCred == nil || !pwCred.Active {
		return nil, ErrInvalidCreds
	}
	if err := util.ComparePassword(pwCred.Value, req.Password); err != nil {
		return nil, ErrInvalidCreds
	}

	if !user.IsEmailVerified {
		if err := s.verification.SendRegistrationCode(user); err != nil && !errors.Is(err, ErrTooManyRequests) {
			log.Warn().Err(err).Str("email", user.Email).Msg("verification code not resent at login")
		}
		return nil, ErrEmailNotVerified
	}

	pair, err := s.issuePair(user, clientIP, userAgent)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int(pair.AccessTTL.Seconds()),
	}, nil
}

func (s *AuthService) issuePair(user *model.User, clientIP, userAgent string) (*util.TokenPair, error) {
	pair, err := util.GenerateTokens(user.ID, user.RoleCodes())
	if err != nil {
		return nil, err
	}

	rt := &model.RefreshToken{
		ID:        pair.RefreshID,
		UserID:    user.ID,
		TokenHash: util.HashToken(pair.RefreshToken),
		ExpiresAt: s.now().Add(pair.RefreshTTL),
		ClientIP:  clientIP,
		UserAgent: userAgent,
	}
	if err := s.refreshRepo.Create(rt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return pair, nil
}

// Refresh rotates a refresh token. Replaying an already rotated token inside
// refreshGrace re-issues the child; after that the whole family is revoked.
func (s *AuthService) Refresh(req *dto.RefreshRequest, clientIP, userAgent string) (*dto.RefreshResponse, error) {
	userID, refreshID, err := util.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	existing, err := s.refreshRepo.GetByID(refreshID)
	if err != nil || existing.UserID != userID || existing.TokenHash != util.HashToken(req.RefreshToken) {
		return nil, ErrInvalidRefresh
	}
	if !existing.IsValid(s.now()) {
		return nil, ErrRefreshRevoked
	}

	user, err := s.userRepo.GetByID(existing.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if existing.ReplacedAt != nil {
		if s.now().Sub(*existing.ReplacedAt) > refreshGrace || existing.ReplacedByTokenID == nil {
			if err := s.refreshRepo.RevokeAllForUser(existing.UserID); err != nil {
				log.Error().Err(err).Str("user_id", existing.UserID.String()).Msg("failed to revoke token family")
			}
			return nil, ErrRefreshReuse
		}

		child, err := s.refreshRepo.GetByID(*existing.ReplacedByTokenID)
		if err != nil {
			return nil, ErrInvalidRefresh
		}
		pair, err := util.GenerateTokens(user.ID, user.RoleCodes())
		if err != nil {
			return nil, err
		}
		childToken, err := util.SignRefreshToken(child.ID, child.UserID)
		if err != nil {
			return nil, err
		}
		// the child's stored hash must follow the re-signed token
		child.TokenHash = util.HashToken(childToken)
		if err := s.refreshRepo.Update(child); err != nil {
			return nil, err
		}
		return &dto.RefreshResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: childToken,
			ExpiresIn:    int(pair.AccessTTL.Seconds()),
		}, nil
	}

	pair, err := s.issuePair(user, clientIP, userAgent)
	if err != nil {
		return nil, err
	}

	now := s.now()
	existing.ReplacedAt = &now
	existing.ReplacedByTokenID = &pair.RefreshID
	if err := s.refreshRepo.Update(existing); err != nil {
		return nil, fmt.Errorf("mark refresh token rotated: %w", err)
	}

	return &dto.RefreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int(pair.AccessTTL.Seconds()),
	}, nil
}

func (s *AuthService) GetUserByEmail(email string) (*model.User, error) {
	u, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) GetUserByID(id uuid.UUID) (*model.User, error) {
	u, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// VerifyEmail consumes the registration code and marks the address verified.
func (s *AuthService) VerifyEmail(email, code string) (*model.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if err := s.verification.ConfirmCode(PurposeRegistration, user.Email, code); err != nil {
		return nil, err
	}
	if err := s.userRepo.MarkEmailVerified(user.ID); err != nil {
		return nil, fmt.Errorf("mark email verified: %w", err)
	}
	user.IsEmailVerified = true
	return user, nil
}

// ResendVerification issues a new registration code for an unverified account.
func (s *AuthService) ResendVerification(email string) error {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		return err
	}
	return s.verification.SendRegistrationCode(user)
}

func ToUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:              u.ID.String(),
		Name:            u.Name,
		Email:           u.Email,
		IsEmailVerified: u.IsEmailVerified,
		Phone:           u.Phone,
		PhoneConfirmed:  u.PhoneConfirmed,
		Roles:           u.RoleCodes(),
	}
}
