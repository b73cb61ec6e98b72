package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// KeyPrefix starts every issued key.
	KeyPrefix = "tp_"
	// lookupLength is the number of secret characters kept in clear as the
	// lookup prefix.
	lookupLength = 8
	secretBytes  = 32
	// bcrypt truncates input after 72 bytes.
	maxKeyLength = 72
)

// DefaultBcryptCost is the cost of stored API key hashes.
const DefaultBcryptCost = bcrypt.DefaultCost

// GenerateAPIKey returns a new random key and its lookup prefix.
func GenerateAPIKey() (key string, prefix string, err error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("read random bytes: %w", err)
	}
	key = KeyPrefix + hex.EncodeToString(buf)
	prefix, _ = LookupPrefix(key)
	return key, prefix, nil
}

// LookupPrefix returns the stored lookup prefix of an issued key. Keys that
// were not issued by GenerateAPIKey report false.
func LookupPrefix(key string) (string, bool) {
	trimmed := strings.TrimSpace(key)
	if !strings.HasPrefix(trimmed, KeyPrefix) || len(trimmed) < len(KeyPrefix)+lookupLength {
		return "", false
	}
	return trimmed[:len(KeyPrefix)+lookupLength], true
}

func HashAPIKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", fmt.Errorf("api key is required")
	}
	if len(trimmed) > maxKeyLength {
		return "", fmt.Errorf("api key exceeds %d bytes", maxKeyLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(trimmed), DefaultBcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash api key: %w", err)
	}
	return string(hash), nil
}

func VerifyAPIKey(key, hash string) bool {
	trimmedKey := strings.TrimSpace(key)
	trimmedHash := strings.TrimSpace(hash)
	if trimmedKey == "" || trimmedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(trimmedHash), []byte(trimmedKey)) == nil
}

// MatchStaticKey reports whether key equals one of the configured keys.
func MatchStaticKey(key string, allowed []string) bool {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return false
	}
	matched := 0
	for _, candidate := range allowed {
		matched |= subtle.ConstantTimeCompare([]byte(trimmed), []byte(strings.TrimSpace(candidate)))
	}
	return matched == 1
}

func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
