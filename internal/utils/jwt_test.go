package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	testIssuer  = "billkeeper-accounts"
	testSignKey = "sync-test-key"
)

func TestGenerateJWTToken_CarriesIssuerAndSubject(t *testing.T) {
	token, err := GenerateJWTToken(testIssuer, 42, time.Hour, testSignKey)

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if token.SignedString == "" {
		t.Error("expected non-empty SignedString")
	}

	claims, ok := token.Token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		t.Fatal("could not cast claims to RegisteredClaims")
	}
	if claims.Issuer != testIssuer {
		t.Errorf("expected issuer %s, got %s", testIssuer, claims.Issuer)
	}
	if claims.Subject != "42" {
		t.Errorf("expected subject '42', got %s", claims.Subject)
	}
}

func TestGenerateJWTToken_InvalidParams(t *testing.T) {
	tests := []struct {
		name     string
		issuer   string
		duration time.Duration
		key      string
	}{
		{"empty issuer", "", time.Hour, testSignKey},
		{"zero duration", testIssuer, 0, testSignKey},
		{"empty key", testIssuer, time.Hour, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := GenerateJWTToken(tt.issuer, 1, tt.duration, tt.key); err == nil {
				t.Error("expected error for invalid parameters, got nil")
			}
		})
	}
}

func TestValidateAndParseJWTToken_RoundtripRecoversUserID(t *testing.T) {
	generated, err := GenerateJWTToken(testIssuer, 456, 5*time.Minute, testSignKey)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	parsed, err := ValidateAndParseJWTToken(generated.SignedString, testSignKey, testIssuer)
	if err != nil {
		t.Fatalf("expected token to be valid, got error: %v", err)
	}
	if parsed.UserID != 456 {
		t.Errorf("expected userID 456, got %d", parsed.UserID)
	}
}

func TestValidateAndParseJWTToken_SignatureMismatch(t *testing.T) {
	generated, _ := GenerateJWTToken(testIssuer, 1, time.Hour, testSignKey)

	if _, err := ValidateAndParseJWTToken(generated.SignedString, "other-key", testIssuer); err == nil {
		t.Error("expected error due to signature mismatch, got nil")
	}
}

func TestValidateAndParseJWTToken_Expired(t *testing.T) {
	generated, _ := GenerateJWTToken(testIssuer, 1, -time.Second, testSignKey)

	_, err := ValidateAndParseJWTToken(generated.SignedString, testSignKey, testIssuer)
	if err == nil {
		t.Fatal("expected error for expired token, got nil")
	}
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expected error to wrap jwt.ErrTokenExpired, got: %v", err)
	}
}

func TestValidateAndParseJWTToken_WrongIssuer(t *testing.T) {
	generated, _ := GenerateJWTToken("someone-else", 1, time.Hour, testSignKey)

	if _, err := ValidateAndParseJWTToken(generated.SignedString, testSignKey, testIssuer); err == nil {
		t.Error("expected error for issuer mismatch, got nil")
	}
}

func TestValidateAndParseJWTToken_Malformed(t *testing.T) {
	if _, err := ValidateAndParseJWTToken("not.a.token", testSignKey, testIssuer); err == nil {
		t.Error("expected error for malformed token string, got nil")
	}
}
