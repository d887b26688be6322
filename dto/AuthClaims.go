package dto

import (
	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the payload of access and refresh tokens.
type AuthClaims struct {
	UserID string   `json:"user_id,omitempty"`
	Roles  []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}
