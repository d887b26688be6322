package util

import (
	"time"

	"dvente/dto"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "dvente"

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	RefreshID    uuid.UUID
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

var (
	accessTTL  = 15 * time.Minute
	refreshTTL = 7 * 24 * time.Hour
)

// ConfigureTokenTTL overrides the default lifetimes; zero values are ignored.
func ConfigureTokenTTL(access, refresh time.Duration) {
	if access > 0 {
		accessTTL = access
	}
	if refresh > 0 {
		refreshTTL = refresh
	}
}

// GenerateTokens signs an access token carrying roles and a refresh token with a fresh jti.
func GenerateTokens(userID uuid.UUID, roles []string) (*TokenPair, error) {
	key := GetPrivateKey()
	if key == nil {
		return nil, ErrKeysNotLoaded
	}
	now := time.Now()

	access := jwt.NewWithClaims(jwt.SigningMethodRS256, dto.AuthClaims{
		UserID: userID.String(),
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	})
	signedAccess, err := access.SignedString(key)
	if err != nil {
		return nil, err
	}

	refreshID := uuid.New()
	signedRefresh, err := signRefresh(key, refreshID, userID, now)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  signedAccess,
		RefreshToken: signedRefresh,
		RefreshID:    refreshID,
		AccessTTL:    accessTTL,
		RefreshTTL:   refreshTTL,
	}, nil
}

// SignRefreshToken re-signs a refresh token for an existing record id.
func SignRefreshToken(refreshID, userID uuid.UUID) (string, error) {
	key := GetPrivateKey()
	if key == nil {
		return "", ErrKeysNotLoaded
	}
	return signRefresh(key, refreshID, userID, time.Now())
}

func signRefresh(key interface{}, refreshID, userID uuid.UUID, now time.Time) (string, error) {
	refresh := jwt.NewWithClaims(jwt.SigningMethodRS256, dto.AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			ID:        refreshID.String(),
		},
	})
	return refresh.SignedString(key)
}
