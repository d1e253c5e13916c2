package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenClaims is the typed claim set embedded in access tokens.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"uid"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

// AccessTokenPayload carries the inputs for minting a token.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Email  string
	JTI    string
}
