package util

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// MaxCodeDigits keeps 10^n inside an int64.
const MaxCodeDigits = 18

var ErrInvalidCodeLength = errors.New("code length must be between 1 and 18")

// GenerateRandomDigits returns a zero-padded numeric code of the given width,
// drawn uniformly from [0, 10^length) using crypto/rand.
func GenerateRandomDigits(length int) (string, error) {
	return GenerateDigitsFrom(rand.Reader, length)
}

// GenerateDigitsFrom is GenerateRandomDigits with an explicit entropy source.
func GenerateDigitsFrom(r io.Reader, length int) (string, error) {
	if length < 1 || length > MaxCodeDigits {
		return "", ErrInvalidCodeLength
	}

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(r, limit)
	if err != nil {
		return "", fmt.Errorf("read random code: %w", err)
	}

	return fmt.Sprintf("%0*d", length, n.Int64()), nil
}
