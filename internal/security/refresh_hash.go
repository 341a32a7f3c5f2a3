package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashRefreshToken returns the hex SHA-256 digest of a refresh token. Only
// the digest is persisted on the session row, so a database leak never
// exposes a usable token.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RefreshTokenHashEqual reports whether the presented token hashes to
// storedHash, comparing in constant time.
func RefreshTokenHashEqual(token, storedHash string) bool {
	got := HashRefreshToken(token)
	return subtle.ConstantTimeCompare([]byte(got), []byte(storedHash)) == 1
}
