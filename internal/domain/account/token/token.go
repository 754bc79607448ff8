package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/streampulse/account-service/internal/domain/account/model"
)

// AccessClaims carry enough identity for a handler to act without a second
// lookup: id (subject), email, handle and display name.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Handle   string `json:"handle"`
	FullName string `json:"fullName"`
}

// RefreshClaims carry the user id only.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

type TokenUtil interface {
	GenerateAccessToken(u model.User) (token string, exp time.Time, err error)
	GenerateRefreshToken(userID uuid.UUID) (token string, exp time.Time, err error)
	ValidateAccessToken(token string) (claims AccessClaims, err error)
	ValidateRefreshToken(token string) (claims RefreshClaims, err error)
}
