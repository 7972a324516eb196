package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
)

// HashBody generates the SHA-256 fingerprint of an article body.
// Identical bodies cross-posted under different message-ids share a hash.
func HashBody(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// NormalizeMessageID strips surrounding whitespace and angle brackets so
// "<a@b>" and "a@b" are stored under the same key.
func NormalizeMessageID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "<")
	return strings.TrimSuffix(id, ">")
}
