package random

import (
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
)

// Suffix returns n random bytes encoded as lowercase hex. It is used to
// de-collide generated object names that share a timestamp.
func Suffix(n int) (string, error) {
	b := make([]byte, n)
	if _, err := crand.Read(b); err != nil {
		return "", fmt.Errorf("read random suffix: %w", err)
	}

	return hex.EncodeToString(b), nil
}
