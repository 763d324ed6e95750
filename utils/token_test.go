package utils

import (
	"testing"
)

func TestJwtRoundTrip(t *testing.T) {
	token, err := JwtGenerate(42, "admin")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}

	parsed, err := JwtValidate(token)
	if err != nil {
		t.Fatalf("JwtValidate: %v", err)
	}
	claims, ok := parsed.Claims.(*JwtCustomClaim)
	if !ok {
		t.Fatalf("unexpected claims type %T", parsed.Claims)
	}
	if claims.ID != 42 || claims.Role != "admin" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestJwtValidate_RejectsTamperedToken(t *testing.T) {
	token, err := JwtGenerate(1, "user")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}
	tampered := token[:len(token)-2] + "xx"
	if _, err := JwtValidate(tampered); err == nil {
		t.Fatalf("expected tampered token to fail validation")
	}
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := ComparePassword(string(hashed), "correct horse battery"); err != nil {
		t.Fatalf("ComparePassword: %v", err)
	}
	if err := ComparePassword(string(hashed), "wrong"); err == nil {
		t.Fatalf("expected mismatch to fail")
	}
}
