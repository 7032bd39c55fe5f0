package pipeline

import (
	"crypto/sha256"
	"fmt"
)

// ContentHashHex returns the SHA-256 of data as lowercase hex. Logs carry a
// prefix of it so repeated questions about one document can be correlated.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h)
}
