package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewJTI returns a 128-bit random identifier for one token issuance.
func NewJTI() string { return uuid.NewString() }

// NewRefreshSecret returns a 256-bit random secret, hex encoded. The raw
// value goes to the client; only its hash is persisted.
func NewRefreshSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failure means the process cannot run safely
	}
	return hex.EncodeToString(buf)
}

func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
