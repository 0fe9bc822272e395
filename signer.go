package licensex

import (
	"crypto/hmac"
	"crypto/sha256"
)

// TagSize is the length of the authentication tag appended to every token.
const TagSize = sha256.Size

// Sign returns HMAC-SHA256(secret, payload). The tag is deterministic: the
// same secret and payload always produce the same tag.
func Sign(secret, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return mac.Sum(nil)
}

// tagEqual compares two tags in constant time.
func tagEqual(expected, actual []byte) bool {
	return hmac.Equal(expected, actual)
}
