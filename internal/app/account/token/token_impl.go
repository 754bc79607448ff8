package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	customErrors "github.com/streampulse/account-service/internal/domain/account/errors"
	"github.com/streampulse/account-service/internal/domain/account/model"
	domainToken "github.com/streampulse/account-service/internal/domain/account/token"
	"github.com/streampulse/account-service/internal/infra/config"
)

// TokenUtilImpl signs access and refresh tokens with separate HMAC secrets
// and separate TTLs.
type TokenUtilImpl struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
}

func NewTokenUtil(cfg *config.Config) *TokenUtilImpl {
	return &TokenUtilImpl{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		issuer:        cfg.JWTIssuer,
	}
}

func (t *TokenUtilImpl) AccessTTL() time.Duration  { return t.accessTTL }
func (t *TokenUtilImpl) RefreshTTL() time.Duration { return t.refreshTTL }

func (t *TokenUtilImpl) GenerateAccessToken(u model.User) (string, time.Time, error) {
	now := time.Now()

	claims := domainToken.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessTTL)),
			ID:        uuid.NewString(),
		},
		Email:    u.Email,
		Handle:   u.Handle,
		FullName: u.FullName,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.accessSecret)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign access token")
	}

	return signed, claims.ExpiresAt.Time, nil
}

func (t *TokenUtilImpl) GenerateRefreshToken(userID uuid.UUID) (string, time.Time, error) {
	now := time.Now()

	claims := domainToken.RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.refreshTTL)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.refreshSecret)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign refresh token")
	}

	return signed, claims.ExpiresAt.Time, nil
}

func (t *TokenUtilImpl) ValidateAccessToken(raw string) (domainToken.AccessClaims, error) {
	tok, err := jwt.ParseWithClaims(raw, &domainToken.AccessClaims{}, func(tk *jwt.Token) (interface{}, error) {
		if tk.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, customErrors.ErrInvalidToken
		}
		return t.accessSecret, nil
	}, jwt.WithIssuedAt())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domainToken.AccessClaims{}, customErrors.ErrTokenExpired
		}
		return domainToken.AccessClaims{}, customErrors.ErrInvalidToken
	}
	if !tok.Valid {
		return domainToken.AccessClaims{}, customErrors.ErrInvalidToken
	}

	claims, ok := tok.Claims.(*domainToken.AccessClaims)
	if !ok {
		return domainToken.AccessClaims{}, customErrors.WrapInternal(
			errors.New("claims not AccessClaims"), "ValidateAccessToken",
		)
	}

	if t.issuer != "" && claims.Issuer != t.issuer {
		return domainToken.AccessClaims{}, customErrors.ErrInvalidToken
	}

	return *claims, nil
}

func (t *TokenUtilImpl) ValidateRefreshToken(raw string) (domainToken.RefreshClaims, error) {
	tok, err := jwt.ParseWithClaims(raw, &domainToken.RefreshClaims{}, func(tk *jwt.Token) (interface{}, error) {
		if tk.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, customErrors.ErrInvalidToken
		}
		return t.refreshSecret, nil
	}, jwt.WithIssuedAt())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domainToken.RefreshClaims{}, customErrors.ErrTokenExpired
		}
		return domainToken.RefreshClaims{}, customErrors.ErrInvalidToken
	}
	if !tok.Valid {
		return domainToken.RefreshClaims{}, customErrors.ErrInvalidToken
	}

	claims, ok := tok.Claims.(*domainToken.RefreshClaims)
	if !ok {
		return domainToken.RefreshClaims{}, customErrors.WrapInternal(
			errors.New("claims not RefreshClaims"), "ValidateRefreshToken")
	}

	if t.issuer != "" && claims.Issuer != t.issuer {
		return domainToken.RefreshClaims{}, customErrors.ErrInvalidToken
	}

	return *claims, nil
}
