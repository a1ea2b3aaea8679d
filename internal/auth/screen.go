package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ScreenToken checks a stored session token for expiry without
// verifying its signature. The backend remains the authority; this
// pre-check only avoids sending requests with a token the server is
// guaranteed to reject.
func ScreenToken(tokenString string, clock func() time.Time) (Session, error) {
	token := strings.TrimSpace(tokenString)
	if token == "" {
		return Session{}, ErrMissingSessionToken
	}
	if clock == nil {
		clock = time.Now
	}

	claims := &SessionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Session{}, ErrInvalidSessionToken
	}

	session, err := sessionFromClaims(claims)
	if err != nil {
		return Session{}, err
	}
	if !session.ExpiresAt.IsZero() && !clock().Before(session.ExpiresAt) {
		return Session{}, ErrExpiredSessionToken
	}
	return session, nil
}
