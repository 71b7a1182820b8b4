// Package pin hashes and checks the shared admin PIN.
package pin

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

const salt = "hsuscout_pin_v1"

// Length is the number of digits in a PIN.
const Length = 4

// ErrInvalidFormat is returned for a PIN that is not exactly four digits.
var ErrInvalidFormat = errors.New("PIN must be exactly 4 digits")

// Validate checks that p is exactly four ASCII digits.
func Validate(p string) error {
	if len(p) != Length {
		return ErrInvalidFormat
	}
	for i := 0; i < len(p); i++ {
		if p[i] < '0' || p[i] > '9' {
			return ErrInvalidFormat
		}
	}
	return nil
}

// Hash returns the hex SHA-256 digest of the salted PIN.
func Hash(p string) string {
	sum := sha256.Sum256([]byte(salt + p))
	return hex.EncodeToString(sum[:])
}

// Matches reports whether p hashes to stored. The comparison is constant time.
func Matches(p, stored string) bool {
	h := Hash(p)
	return subtle.ConstantTimeCompare([]byte(h), []byte(stored)) == 1
}
