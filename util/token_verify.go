package util

import (
	"errors"
	"strings"

	"dvente/dto"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrMissingBearer = errors.New("missing bearer token")
)

func parseClaims(tokenString string) (*dto.AuthClaims, error) {
	key := GetPublicKey()
	if key == nil {
		return nil, ErrKeysNotLoaded
	}

	claims := &dto.AuthClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseAccessToken validates an access token and returns its claims.
func ParseAccessToken(tokenString string) (*dto.AuthClaims, error) {
	claims, err := parseClaims(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.ID != "" {
		// refresh tokens carry a jti, access tokens do not
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseRefreshToken returns the user id and refresh record id of a refresh token.
func ParseRefreshToken(tokenString string) (uuid.UUID, uuid.UUID, error) {
	claims, err := parseClaims(tokenString)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrInvalidToken
	}
	refreshID, err := uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrInvalidToken
	}
	return userID, refreshID, nil
}

// ExtractUserIDFromToken reads "Bearer <token>" and returns the subject.
func ExtractUserIDFromToken(authHeader string) (uuid.UUID, error) {
	raw, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return uuid.Nil, ErrMissingBearer
	}

	claims, err := ParseAccessToken(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
