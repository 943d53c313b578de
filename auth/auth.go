// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidManagerKey = errors.New("invalid manager key")
	ErrInvalidToken      = errors.New("invalid token format")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateManagerKey creates an HMAC-based manager key for a program.
// This is deterministic and verifiable, so it never needs to be stored.
func GenerateManagerKey(programID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(programID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateManagerKey checks if the provided manager key is valid for the program
func ValidateManagerKey(programID, managerKey, salt string) error {
	expected := GenerateManagerKey(programID, salt)
	if !hmac.Equal([]byte(managerKey), []byte(expected)) {
		return ErrInvalidManagerKey
	}
	return nil
}

// GenerateResidentToken creates a random secure bearer token for a resident.
// The token is the resident's only credential; it is stored server-side and
// looked up on every submission.
func GenerateResidentToken() (string, error) {
	b := make([]byte, 24) // 24 bytes = 192 bits of entropy
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate resident token: %w", err)
	}
	// URL-safe base64 without padding
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}
