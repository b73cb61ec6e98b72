package auth

import (
	"strings"
	"testing"
)

func TestGenerateHashAndVerifyAPIKey(t *testing.T) {
	t.Parallel()

	key, prefix, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("generate api key: %v", err)
	}
	if !strings.HasPrefix(key, KeyPrefix) || len(key) != len(KeyPrefix)+64 {
		t.Fatalf("unexpected key shape: %q", key)
	}
	if prefix != key[:len(KeyPrefix)+8] {
		t.Fatalf("unexpected prefix %q for key %q", prefix, key)
	}

	hash, err := HashAPIKey(key)
	if err != nil {
		t.Fatalf("hash api key: %v", err)
	}
	if !VerifyAPIKey(key, hash) {
		t.Fatalf("expected key verification to succeed")
	}
	if VerifyAPIKey(key+"0", hash) {
		t.Fatalf("did not expect altered key to verify")
	}

	other, _, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("generate second key: %v", err)
	}
	if other == key {
		t.Fatalf("expected distinct keys")
	}
}

func TestLookupPrefix(t *testing.T) {
	t.Parallel()

	if got, ok := LookupPrefix("tp_0123456789abcdef"); !ok || got != "tp_01234567" {
		t.Fatalf("unexpected prefix %q ok=%v", got, ok)
	}
	if _, ok := LookupPrefix("static-key"); ok {
		t.Fatalf("expected static key to have no lookup prefix")
	}
	if _, ok := LookupPrefix("tp_123"); ok {
		t.Fatalf("expected short key to be rejected")
	}
}

func TestHashAPIKeyRejectsInvalid(t *testing.T) {
	t.Parallel()

	if _, err := HashAPIKey("  "); err == nil {
		t.Fatalf("expected empty key to fail")
	}
	if _, err := HashAPIKey(strings.Repeat("k", 73)); err == nil {
		t.Fatalf("expected oversized key to fail")
	}
	if VerifyAPIKey("", "hash") {
		t.Fatalf("expected empty key to fail verification")
	}
}

func TestMatchStaticKey(t *testing.T) {
	t.Parallel()

	allowed := []string{"alpha-key", "beta-key"}
	if !MatchStaticKey(" beta-key ", allowed) {
		t.Fatalf("expected configured key to match")
	}
	if MatchStaticKey("gamma-key", allowed) || MatchStaticKey("", allowed) {
		t.Fatalf("did not expect unknown key to match")
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	if got := NormalizeEmail(" Owner@Example.COM "); got != "owner@example.com" {
		t.Fatalf("unexpected normalized email: %q", got)
	}
}
