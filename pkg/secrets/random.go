package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"

	dErrors "clinic/pkg/domain-errors"
)

// AlphaNumeric is the default alphabet for GenerateRandomString.
const AlphaNumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateToken returns n cryptographically random bytes encoded as
// unpadded URL-safe base64.
func GenerateToken(n int) (string, error) {
	if n <= 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "token length must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateRandomString returns n characters drawn uniformly from alphabet.
// An empty alphabet selects AlphaNumeric.
func GenerateRandomString(n int, alphabet string) (string, error) {
	if n <= 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "length must be positive")
	}
	if alphabet == "" {
		alphabet = AlphaNumeric
	}
	symbols := []rune(alphabet)
	max := big.NewInt(int64(len(symbols)))
	out := make([]rune, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("could not generate random string: %w", err)
		}
		out[i] = symbols[idx.Int64()]
	}
	return string(out), nil
}
