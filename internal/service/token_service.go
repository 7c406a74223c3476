package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/eduportal/student-portal-api/internal/models"
	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
)

// TokenConfig defines signing parameters for access tokens.
type TokenConfig struct {
	Secret           string
	Issuer           string
	Expiration       time.Duration
	RefreshThreshold time.Duration
}

// TokenService issues and verifies HS256 access tokens. The subject is the
// user's email; identity and role travel in custom claims.
type TokenService struct {
	config TokenConfig
	clock  clockwork.Clock
}

// NewTokenService constructs a TokenService instance.
func NewTokenService(config TokenConfig, clock clockwork.Clock) *TokenService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TokenService{config: config, clock: clock}
}

// GenerateToken signs a new access token for the user and returns it with its
// expiry instant.
func (s *TokenService) GenerateToken(user *models.User) (string, time.Time, error) {
	issuedAt := s.clock.Now().UTC()
	expiresAt := issuedAt.Add(s.config.Expiration)
	claims := &models.JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.Email,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrTokenCreation.Code, appErrors.ErrTokenCreation.Status, "failed to sign access token")
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and verifies an access token, returning its claims.
// Expired, tampered and malformed tokens all come back as ErrUnauthorized;
// callers gating anonymous traffic treat that as "no identity", not a failure.
func (s *TokenService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(s.config.Issuer), jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// ShouldRefresh reports whether the token is close enough to expiry that a
// fresh one should be issued.
func (s *TokenService) ShouldRefresh(claims *models.JWTClaims) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return false
	}
	remaining := claims.ExpiresAt.Time.Sub(s.clock.Now())
	return remaining > 0 && remaining < s.config.RefreshThreshold
}
