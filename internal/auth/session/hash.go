package session

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// Refresh tokens are persisted as salted bcrypt hashes so a leaked table
// cannot be replayed. bcrypt refuses inputs over 72 bytes and a signed
// refresh token is far longer, so the token is first reduced to a SHA-256
// hex digest (64 chars) and bcrypt runs over that.

func hashRefreshToken(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword(digestHex(plain), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// compareRefreshToken reports whether plain matches the stored hash.
// bcrypt's comparison is constant-time over the derived key.
func compareRefreshToken(storedHash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), digestHex(plain)) == nil
}

func digestHex(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	dst := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(dst, sum[:])
	return dst
}
