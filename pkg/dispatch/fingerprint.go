package dispatch

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint derives the cache key for a synthesis request. The hash
// covers the exact text, language code and destination; no normalization
// is applied, so trailing whitespace produces a distinct fingerprint.
func Fingerprint(text, languageCode, destination string) string {
	h := sha256.New()
	h.Write([]byte(text))
	h.Write([]byte{0})
	h.Write([]byte(languageCode))
	h.Write([]byte{0})
	h.Write([]byte(destination))
	return hex.EncodeToString(h.Sum(nil))
}
