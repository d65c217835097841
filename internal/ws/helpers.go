package ws

import (
	"crypto/rand"
	"encoding/hex"
)

// newConnID names a scan-feed subscription for the event stream.
func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
