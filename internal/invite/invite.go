// Package invite generates the short codes members use to join a
// group. Codes are not secrets, but they gate membership, so they are
// drawn from crypto/rand rather than a seeded PRNG.
package invite

import (
	"crypto/rand"
	"fmt"
	"regexp"
)

const (
	// Alphabet is uppercase letters plus digits; 36^6 codes.
	Alphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	CodeLength = 6
)

var codePattern = regexp.MustCompile(fmt.Sprintf(`^[A-Z0-9]{%d}$`, CodeLength))

// maxUnbiased is the largest byte value usable without skewing the
// modulo draw towards the start of the alphabet.
const maxUnbiased = 256 - 256%len(Alphabet)

// NewCode returns a fresh invite code: CodeLength characters chosen
// uniformly from Alphabet.
func NewCode() (string, error) {
	code := make([]byte, 0, CodeLength)
	buf := make([]byte, 1)
	for len(code) < CodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		if int(buf[0]) >= maxUnbiased {
			continue
		}
		code = append(code, Alphabet[int(buf[0])%len(Alphabet)])
	}
	return string(code), nil
}

// Valid reports whether a user-supplied code has the right shape.
// Used to reject malformed codes before touching the database.
func Valid(code string) bool {
	return codePattern.MatchString(code)
}
