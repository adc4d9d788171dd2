package signup

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
)

// GenerateCode produces a fixed-width numeric one-time code drawn uniformly
// from [0, 10^width) using a cryptographically secure random source.
func GenerateCode(width int) (string, error) {
	if width < 1 {
		return "", fmt.Errorf("otp width must be positive, got %d", width)
	}

	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(width)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}

	return fmt.Sprintf("%0*d", width, n), nil
}

// VerifyCode compares a submitted code against the stored one in constant
// time, after trimming incidental whitespace from the submission.
func VerifyCode(submitted, stored string) bool {
	submitted = strings.TrimSpace(submitted)
	if submitted == "" || stored == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) == 1
}
