package sccache

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestNewClientToken(t *testing.T) {
	tok := NewClientToken()
	if len(tok) != 32 {
		t.Fatalf("expected 32 hex chars, got %d: %q", len(tok), tok)
	}
	if strings.Contains(tok, "-") {
		t.Fatalf("token should not contain dashes: %q", tok)
	}
	if NewClientToken() == tok {
		t.Fatalf("tokens should be unique")
	}
}

func TestNewSecretKey(t *testing.T) {
	key, err := NewSecretKey()
	if err != nil {
		t.Fatalf("NewSecretKey: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		t.Fatalf("key is not valid base64: %v", err)
	}
	if len(raw) != 32 {
		t.Fatalf("expected 256-bit key, got %d bytes", len(raw))
	}
}

func TestServerTokenRoundTrip(t *testing.T) {
	key, err := NewSecretKey()
	if err != nil {
		t.Fatalf("NewSecretKey: %v", err)
	}
	const addr = "198.51.100.7:10501"
	tok, err := SignServerToken(key, addr)
	if err != nil {
		t.Fatalf("SignServerToken: %v", err)
	}
	got, err := VerifyServerToken(key, tok)
	if err != nil {
		t.Fatalf("VerifyServerToken: %v", err)
	}
	if got != addr {
		t.Fatalf("expected server_id %q, got %q", addr, got)
	}
}

func TestVerifyServerTokenWrongKey(t *testing.T) {
	key1, _ := NewSecretKey()
	key2, _ := NewSecretKey()
	tok, err := SignServerToken(key1, "10.0.0.1:10501")
	if err != nil {
		t.Fatalf("SignServerToken: %v", err)
	}
	if _, err := VerifyServerToken(key2, tok); err == nil {
		t.Fatalf("expected verification failure with wrong key")
	}
}

func TestVerifyServerTokenTampered(t *testing.T) {
	key, _ := NewSecretKey()
	tok, err := SignServerToken(key, "10.0.0.1:10501")
	if err != nil {
		t.Fatalf("SignServerToken: %v", err)
	}
	if _, err := VerifyServerToken(key, tok+"x"); err == nil {
		t.Fatalf("expected verification failure for tampered token")
	}
}
