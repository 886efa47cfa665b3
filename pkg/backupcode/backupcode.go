package backupcode

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// CodeBytes is the entropy of a single backup code (48 bits rendered
	// as 12 hex characters).
	CodeBytes = 6

	// bcryptCost is kept at the library default; backup codes are
	// high-entropy random strings, not user-chosen passwords.
	bcryptCost = bcrypt.DefaultCost
)

// Generate creates count cryptographically random backup codes rendered in
// the human-copyable XXXX-XXXX-XXXX form. The plaintext codes are returned
// exactly once; callers must store only their hashes.
func Generate(count int) ([]string, error) {
	if count < 1 {
		return nil, ErrInvalidCount
	}

	codes := make([]string, count)
	for i := 0; i < count; i++ {
		raw := make([]byte, CodeBytes)
		if _, err := rand.Read(raw); err != nil {
			return nil, errors.Join(ErrFailedToGenerate, err)
		}
		hexCode := strings.ToUpper(hex.EncodeToString(raw))
		codes[i] = fmt.Sprintf("%s-%s-%s", hexCode[0:4], hexCode[4:8], hexCode[8:12])
	}
	return codes, nil
}

// Normalize strips the grouping hyphens and uppercases a user-supplied code
// so input with or without formatting hashes identically.
func Normalize(code string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), "-", ""))
}

// Hash produces a salted bcrypt hash of the normalized code for storage.
func Hash(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(Normalize(code)), bcryptCost)
	if err != nil {
		return "", errors.Join(ErrFailedToHash, err)
	}
	return string(hash), nil
}

// Verify reports whether the presented code matches the stored hash.
// bcrypt comparison is inherently resistant to timing side channels.
func Verify(code, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(Normalize(code))) == nil
}
