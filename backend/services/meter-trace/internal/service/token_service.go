package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identifies a conversion run towards the viewer.
type Claims struct {
	RunID string `json:"run_id"`
	jwt.RegisteredClaims
}

// TokenService issues viewer bearer tokens.
type TokenService struct {
	secret    []byte
	issuer    string
	expiresIn time.Duration
}

// NewTokenService returns configured token service.
func NewTokenService(secret, issuer string, expiresIn time.Duration) *TokenService {
	if expiresIn <= 0 {
		expiresIn = time.Hour
	}
	return &TokenService{secret: []byte(secret), issuer: issuer, expiresIn: expiresIn}
}

// GenerateToken issues JWT for given run.
func (t *TokenService) GenerateToken(runID string) (string, error) {
	if runID == "" {
		return "", errors.New("token: run id is required")
	}
	if len(t.secret) == 0 {
		return "", errors.New("token: secret is required")
	}

	now := time.Now().UTC()
	claims := Claims{
		RunID: runID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   runID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}
