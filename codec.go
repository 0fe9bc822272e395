package licensex

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// minTokenSize is one payload byte plus the tag.
const minTokenSize = TagSize + 1

// strictURLEncoding rejects non-zero trailing bits so that every token string
// maps to exactly one byte sequence.
var strictURLEncoding = base64.URLEncoding.Strict()

// EncodeToken concatenates payload and tag and encodes the result as URL-safe
// base64. Trailing '=' padding is dropped unless padded is set.
func EncodeToken(payload, tag []byte, padded bool) string {
	wire := make([]byte, 0, len(payload)+len(tag))
	wire = append(wire, payload...)
	wire = append(wire, tag...)
	encoded := base64.URLEncoding.EncodeToString(wire)
	if !padded {
		encoded = strings.TrimRight(encoded, "=")
	}
	return encoded
}

// DecodeToken reverses EncodeToken. Padding is optional on input. The tag is
// always the trailing TagSize bytes.
func DecodeToken(token string) (payload, tag []byte, err error) {
	// The base64 decoder skips CR and LF; a token never contains them.
	if strings.ContainsAny(token, "\r\n") {
		return nil, nil, newError(ErrCodeMalformedToken, errors.New("token contains line breaks"))
	}
	if rem := len(token) % 4; rem != 0 {
		token += strings.Repeat("=", 4-rem)
	}
	wire, err := strictURLEncoding.DecodeString(token)
	if err != nil {
		return nil, nil, newError(ErrCodeMalformedToken, err)
	}
	if len(wire) < minTokenSize {
		return nil, nil, newError(ErrCodeTruncatedToken, fmt.Errorf("decoded %d bytes, need at least %d", len(wire), minTokenSize))
	}
	split := len(wire) - TagSize
	return wire[:split], wire[split:], nil
}
