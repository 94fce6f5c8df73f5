package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the identity carried by a session token. Sessions are
// explicit values passed through request contexts; there is no process-wide
// current user.
type SessionClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

const defaultSessionTTL = 24 * time.Hour

var (
	ErrMissingSecret = errors.New("session secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

// SignSession issues an HS256 session token for the given user.
func SignSession(secret, userID, email, name string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	if userID == "" {
		return "", errors.New("user id is required")
	}
	if ttl == 0 {
		ttl = defaultSessionTTL
	}

	now := time.Now().UTC()
	claims := SessionClaims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// VerifySession parses and validates a session token.
func VerifySession(secret, tokenString string) (*SessionClaims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
