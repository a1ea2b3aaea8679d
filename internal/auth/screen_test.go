package auth

import (
	"errors"
	"testing"
	"time"
)

func TestScreenTokenAcceptsUnexpiredSession(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: testSecret,
		Issuer:        testIssuer,
		TokenTTL:      time.Hour,
		Clock:         fixedClock(now),
	})

	session, err := ScreenToken(mustToken(t, issuer, 42, "Asha Verma", "9876543210"), fixedClock(now.Add(30*time.Minute)))
	if err != nil {
		t.Fatalf("unexpected screening error: %v", err)
	}
	if session.OwnerID.Int64() != 42 {
		t.Fatalf("unexpected owner id: %d", session.OwnerID.Int64())
	}
}

func TestScreenTokenRejectsExpiredSession(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: testSecret,
		Issuer:        testIssuer,
		TokenTTL:      time.Hour,
		Clock:         fixedClock(now),
	})

	if _, err := ScreenToken(mustToken(t, issuer, 42, "", ""), fixedClock(now.Add(2*time.Hour))); !errors.Is(err, ErrExpiredSessionToken) {
		t.Fatalf("expected expiry rejection, got %v", err)
	}
}

func TestScreenTokenRejectsMalformedInput(t *testing.T) {
	if _, err := ScreenToken("", nil); !errors.Is(err, ErrMissingSessionToken) {
		t.Fatalf("expected missing token error, got %v", err)
	}
	if _, err := ScreenToken("not-a-jwt", nil); !errors.Is(err, ErrInvalidSessionToken) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}
