// Package identity derives and checks the tamper hash carried next to the raw user id cookie.
//
// The hash is deterministic for a given id and secret. There is no per-user salt and
// no expiry, so a leaked pair stays valid until the secret changes.
package identity

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strconv"
)

// Verifier issues and verifies identity hashes with a fixed server secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Issue returns the hex HMAC-SHA512 of the decimal user id.
func (v *Verifier) Issue(rawID uint) string {
	return v.issue(strconv.FormatUint(uint64(rawID), 10))
}

func (v *Verifier) issue(rawID string) string {
	mac := hmac.New(sha512.New, v.secret)
	mac.Write([]byte(rawID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether hash was issued for rawID. Empty or malformed input never verifies.
func (v *Verifier) Verify(rawID, hash string) bool {
	id, ok := ParseID(rawID)
	if !ok || hash == "" {
		return false
	}
	expected := v.Issue(id)
	return hmac.Equal([]byte(expected), []byte(hash))
}

// ParseID reads a positive user id in canonical decimal form, as Issue writes it.
// Padding, signs and leading zeros are rejected.
func ParseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 || strconv.FormatUint(id, 10) != raw {
		return 0, false
	}
	return uint(id), true
}
