package service

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// CodePrefix starts every redemption code.
const CodePrefix = "AE"

// codeAlphabet has 32 symbols without I, L, O and U, so a random byte
// masked to 5 bits maps onto it without bias.
const codeAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const (
	codeGroups    = 3
	codeGroupSize = 4
)

// NewRedemptionCode returns a random code of the form AE-XXXX-XXXX-XXXX.
func NewRedemptionCode() (string, error) {
	buf := make([]byte, codeGroups*codeGroupSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	var b strings.Builder
	b.Grow(len(CodePrefix) + codeGroups*(codeGroupSize+1))
	b.WriteString(CodePrefix)
	for i, v := range buf {
		if i%codeGroupSize == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(codeAlphabet[v&31])
	}
	return b.String(), nil
}

// ValidRedemptionCode reports whether s has the redemption code format.
func ValidRedemptionCode(s string) bool {
	groups := strings.Split(s, "-")
	if len(groups) != codeGroups+1 || groups[0] != CodePrefix {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != codeGroupSize {
			return false
		}
		for _, r := range g {
			if !strings.ContainsRune(codeAlphabet, r) {
				return false
			}
		}
	}
	return true
}
