package password

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. Changing these invalidates every stored hash, so they
// are fixed constants rather than configuration.
const (
	saltBytes  = 16
	iterations = 10000
	keyBytes   = 64
)

// Hash derives a PBKDF2-SHA512 hash from the password under a fresh random
// salt. Both salt and hash are returned hex-encoded.
func Hash(password string) (salt, hash string, err error) {
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	salt = hex.EncodeToString(raw)
	hash = derive(password, salt)
	return salt, hash, nil
}

// Verify recomputes the hash for (password, salt) and compares it against the
// stored hash in constant time. A wrong password yields false, never an error.
func Verify(password, salt, hash string) bool {
	if salt == "" || hash == "" {
		return false
	}
	computed := derive(password, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

// derive is deterministic: the same (password, salt) always yields the same
// hash. The hex-encoded salt is used as the PBKDF2 salt bytes verbatim.
func derive(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), iterations, keyBytes, sha512.New)
	return hex.EncodeToString(key)
}
