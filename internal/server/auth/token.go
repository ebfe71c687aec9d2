// Package auth provides the two security primitives of the account
// subsystem: bearer-token issue/verify and password hashing.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frameextractor/frameextractor/internal/common"
)

// Claims is the signed claim set carried by every bearer token: the
// standard registered claims plus the account role.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// TokenService signs and verifies HS256 bearer tokens. It is stateless;
// expiry is the only revocation mechanism.
type TokenService struct {
	secret    []byte
	accessTTL time.Duration
	resetTTL  time.Duration
}

func NewTokenService(secret string, accessTTL, resetTTL time.Duration) *TokenService {
	return &TokenService{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		resetTTL:  resetTTL,
	}
}

// IssueAccess mints an access token carrying the subject and role, expiring
// after the configured access TTL.
func (s *TokenService) IssueAccess(subject, role string) (string, error) {
	return s.issue(subject, role, s.accessTTL)
}

// IssueReset mints a short-lived password-reset token. Reset tokens carry
// no role claim.
func (s *TokenService) IssueReset(subject string) (string, error) {
	return s.issue(subject, "", s.resetTTL)
}

func (s *TokenService) issue(subject, role string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		Role: role,
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks signature and expiry and returns the claims. Any
// structural, cryptographic, or expiry failure yields
// common.ErrInvalidOrExpiredToken; partial claims are never returned.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, common.ErrInvalidOrExpiredToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidOrExpiredToken
	}

	return claims, nil
}
