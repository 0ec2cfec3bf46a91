// Package secrets hashes passwords, scores their strength and generates
// random tokens.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	dErrors "clinic/pkg/domain-errors"
)

const (
	// Algorithm tags the encoded hash so the format can evolve.
	Algorithm = "pbkdf2-sha256"

	DefaultIterations = 100_000
	MinIterations     = 10_000

	saltLength = 16
	keyLength  = 32
	separator  = "$"
)

// HashPassword derives a PBKDF2-HMAC-SHA256 key from password with a fresh
// random salt and encodes it as
//
//	pbkdf2-sha256$<iterations>$<base64 salt>$<base64 key>
//
// The call is CPU bound; callers must not hold contended locks while hashing.
func HashPassword(password string, iterations int) (string, error) {
	if password == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "password cannot be empty")
	}
	if iterations < MinIterations {
		return "", dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("iterations must be at least %d", MinIterations))
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("could not generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, iterations, keyLength, sha256.New)

	return strings.Join([]string{
		Algorithm,
		strconv.Itoa(iterations),
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	}, separator), nil
}

// VerifyPassword reports whether password matches an encoded hash produced by
// HashPassword. Malformed hashes never match. Digests are compared in
// constant time.
func VerifyPassword(password, encoded string) bool {
	iterations, salt, want, ok := decode(encoded)
	if !ok {
		return false
	}
	got := pbkdf2.Key([]byte(password), salt, iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// NeedsRehash reports whether encoded was produced with fewer iterations
// than currently configured.
func NeedsRehash(encoded string, iterations int) bool {
	current, _, _, ok := decode(encoded)
	return !ok || current < iterations
}

func decode(encoded string) (iterations int, salt, key []byte, ok bool) {
	parts := strings.Split(encoded, separator)
	if len(parts) != 4 || parts[0] != Algorithm {
		return 0, nil, nil, false
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations < MinIterations {
		return 0, nil, nil, false
	}
	salt, err = base64.StdEncoding.DecodeString(parts[2])
	if err != nil || len(salt) == 0 {
		return 0, nil, nil, false
	}
	key, err = base64.StdEncoding.DecodeString(parts[3])
	if err != nil || len(key) == 0 {
		return 0, nil, nil, false
	}
	return iterations, salt, key, true
}
