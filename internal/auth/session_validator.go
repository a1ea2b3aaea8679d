package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/uptwnp/deal-network-sub001/internal/property"
)

var (
	ErrMissingSessionSigningKey = errors.New("session validator: signing key required")
	ErrMissingSessionIssuer     = errors.New("session validator: issuer required")
	ErrMissingSessionToken      = errors.New("session validator: token required")
	ErrInvalidSessionToken      = errors.New("session validator: invalid token")
	ErrExpiredSessionToken      = errors.New("session validator: token expired")
	ErrMissingDealerClaim       = errors.New("session validator: dealer id required")
)

// dealerID tolerates both numeric and quoted-numeric claim encodings.
type dealerID int64

func (d *dealerID) UnmarshalJSON(data []byte) error {
	trimmed := strings.Trim(string(data), `"`)
	if trimmed == "" || trimmed == "null" {
		*d = 0
		return nil
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return fmt.Errorf("dealer id claim %q is not numeric", trimmed)
	}
	*d = dealerID(parsed)
	return nil
}

// SessionClaims mirrors the JWT payload the listing backend issues at
// dealer login.
type SessionClaims struct {
	DealerID    dealerID `json:"dealer_id"`
	DealerName  string   `json:"dealer_name"`
	DealerPhone string   `json:"dealer_phone"`
	jwt.RegisteredClaims
}

// Session is the validated identity attached to authenticated requests.
type Session struct {
	OwnerID   property.OwnerID
	Name      string
	Phone     string
	ExpiresAt time.Time
}

// SessionValidatorConfig describes how to validate dealer session JWTs.
type SessionValidatorConfig struct {
	SigningSecret []byte
	Issuer        string
	Clock         func() time.Time
}

// SessionValidator validates HS256 dealer session JWTs.
type SessionValidator struct {
	signingSecret []byte
	issuer        string
	clock         func() time.Time
}

// NewSessionValidator constructs a validator with the provided configuration.
func NewSessionValidator(cfg SessionValidatorConfig) (*SessionValidator, error) {
	if len(cfg.SigningSecret) == 0 {
		return nil, ErrMissingSessionSigningKey
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		return nil, ErrMissingSessionIssuer
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &SessionValidator{
		signingSecret: append([]byte(nil), cfg.SigningSecret...),
		issuer:        issuer,
		clock:         clock,
	}, nil
}

// ValidateToken validates the supplied JWT string and returns the session.
func (v *SessionValidator) ValidateToken(tokenString string) (Session, error) {
	token := strings.TrimSpace(tokenString)
	if token == "" {
		return Session{}, ErrMissingSessionToken
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("%w: unexpected signing algorithm %s", ErrInvalidSessionToken, t.Method.Alg())
			}
			return v.signingSecret, nil
		},
		jwt.WithTimeFunc(v.clock),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, ErrExpiredSessionToken
		}
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}
	if parsed == nil || !parsed.Valid {
		return Session{}, ErrInvalidSessionToken
	}
	if claims.Issuer != v.issuer {
		return Session{}, ErrInvalidSessionToken
	}
	return sessionFromClaims(claims)
}

// ValidateRequest extracts the bearer token from the request and validates it.
func (v *SessionValidator) ValidateRequest(r *http.Request) (Session, error) {
	if r == nil {
		return Session{}, ErrMissingSessionToken
	}
	token, err := bearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return Session{}, err
	}
	return v.ValidateToken(token)
}

func sessionFromClaims(claims *SessionClaims) (Session, error) {
	ownerID, err := property.NewOwnerID(int64(claims.DealerID))
	if err != nil {
		return Session{}, ErrMissingDealerClaim
	}
	session := Session{
		OwnerID: ownerID,
		Name:    claims.DealerName,
		Phone:   claims.DealerPhone,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingSessionToken
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrInvalidSessionToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", ErrMissingSessionToken
	}
	return token, nil
}
