package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// codeLength is the number of digits in an activation code.
const codeLength = 6

// GenerateCode returns a zero-padded numeric activation code.
func GenerateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeLength, n), nil
}
