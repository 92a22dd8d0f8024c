package transfer

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// 6 decimal digits: big enough to make guessing within the confirmation
// window impractical, short enough to retype from a phone screen
const codeDigits = 6

var codeSpace = big.NewInt(1_000_000)

// GenerateCode returns a fixed-length numeric one-time code drawn from
// crypto/rand. Leading zeros are kept
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}

	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
