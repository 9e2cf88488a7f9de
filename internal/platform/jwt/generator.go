package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"secondchance_backend/internal/platform/config"
)

var (
	// ErrMissingSecret is returned when the issuer is constructed without a signing secret.
	ErrMissingSecret = fmt.Errorf("%w: JWT secret is empty", config.ErrConfiguration)

	// ErrInvalidToken is returned when a token fails signature, algorithm, expiry or payload checks.
	ErrInvalidToken = errors.New("invalid token")
)

// UserClaim is the user object embedded in the token payload.
type UserClaim struct {
	ID string `json:"id"`
}

// Claims is the token payload: {"user":{"id":...}} plus optional registered claims.
type Claims struct {
	User UserClaim `json:"user"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 bearer tokens with a process-wide secret.
type Issuer struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewIssuer creates an Issuer. An expiration of zero issues tokens without an exp claim.
func NewIssuer(secret string, expiration time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Issuer{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}, nil
}

// Issue creates a signed token embedding the given user identifier.
func (i *Issuer) Issue(userID string) (string, error) {
	claims := Claims{User: UserClaim{ID: userID}}
	if i.expiration > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(i.now().Add(i.expiration))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses the token and returns the embedded user identifier.
// Every failure is reported as ErrInvalidToken.
func (i *Issuer) Verify(tokenStr string) (string, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.User.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.User.ID, nil
}
