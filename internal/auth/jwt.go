// Package auth issues and verifies the HS256 bearer tokens of the REST API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Client-facing verification failures.
var (
	ErrExpired = errors.New("Token has expired") //nolint:staticcheck // returned verbatim to API clients
	ErrInvalid = errors.New("Invalid token")     //nolint:staticcheck // returned verbatim to API clients
)

// MaxDuration bounds the lifetime a client may request.
const MaxDuration = 24 * time.Hour

// Manager signs and validates tokens with a shared secret.
type Manager struct {
	secret []byte
	now    func() time.Time
}

// NewManager builds a Manager. The secret must not be empty.
func NewManager(secret string) (*Manager, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	return &Manager{secret: []byte(secret), now: time.Now}, nil
}

// Issue returns a token that expires after d.
func (m *Manager) Issue(d time.Duration) (string, error) {
	if d <= 0 || d > MaxDuration {
		return "", fmt.Errorf("token duration %s outside (0, %s]", d, MaxDuration)
	}
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(m.now().Add(d)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token. It returns ErrExpired
// or ErrInvalid.
func (m *Manager) Verify(token string) error {
	_, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrInvalid
	}
}
