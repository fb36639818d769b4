package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
)

// TokenLength matches the length of the tokens issued at signup.
const TokenLength = 24

const tokenAlphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// NewToken returns a random base58 token of TokenLength characters.
func NewToken() (string, error) {
	b := make([]byte, TokenLength)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generating token: %w", err)
		}
		b[i] = tokenAlphabet[n.Int64()]
	}
	return string(b), nil
}

// Digest returns the hex SHA-256 of a token, the form stored for lookups.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// EqualDigest compares a presented token against a stored digest in
// constant time.
func EqualDigest(token, digest string) bool {
	return subtle.ConstantTimeCompare([]byte(Digest(token)), []byte(digest)) == 1
}
