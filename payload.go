package licensex

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"
)

// Format selects the textual layout of the claims payload. The layout is
// chosen at issue time only; verification re-signs the exact bytes it decoded.
type Format string

const (
	// FormatObserved is the layout of legacy tokens:
	// {"expires_at": "<iso>", "machine_id": "<id>"}.
	FormatObserved Format = "observed"
	// FormatCompact is the minimal-whitespace layout:
	// {"expires_at":"<iso>","machine_id":"<id>"}.
	FormatCompact Format = "compact"
)

const (
	fieldExpiresAt = "expires_at"
	fieldMachineID = "machine_id"

	// ExpiryLayout is the layout used to serialize expiry instants.
	ExpiryLayout = "2006-01-02T15:04:05.000000-07:00"
)

// expiryLayouts lists the ISO-8601 forms accepted when reading a payload.
// Layouts without an offset are read as UTC.
var expiryLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseFormat maps a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatObserved, FormatCompact:
		return f, nil
	}
	return "", newError(ErrCodeUsage, fmt.Errorf("unknown payload format %q (want %q or %q)", name, FormatObserved, FormatCompact))
}

// String implements fmt.Stringer.
func (f Format) String() string {
	return string(f)
}

func (f Format) separators() (colon, comma string, err error) {
	switch f {
	case FormatObserved:
		return ": ", ", ", nil
	case FormatCompact:
		return ":", ",", nil
	}
	return "", "", newError(ErrCodeUsage, fmt.Errorf("unknown payload format %q", string(f)))
}

// FormatExpiry renders t in the canonical expiry layout, in UTC with
// microsecond precision.
func FormatExpiry(t time.Time) string {
	return t.UTC().Format(ExpiryLayout)
}

// ParseExpiry parses an ISO-8601 timestamp. Timestamps without an offset are
// interpreted as UTC. The result is always in UTC.
func ParseExpiry(value string) (time.Time, error) {
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, newError(ErrCodeBadExpiryFormat, fmt.Errorf("unrecognized timestamp %q", value))
}

// EncodePayload serializes claims deterministically in the given format.
// Fields are written in the order expires_at, machine_id; expires_at is
// omitted for non-expiring claims.
func EncodePayload(c Claims, f Format) ([]byte, error) {
	colon, comma, err := f.separators()
	if err != nil {
		return nil, err
	}
	if c.MachineID == "" {
		return nil, newError(ErrCodeMalformedPayload, errors.New("machine_id is required"))
	}

	buf := make([]byte, 0, 64+len(c.MachineID))
	buf = append(buf, '{')
	if c.Expires() {
		buf = appendQuoted(buf, fieldExpiresAt)
		buf = append(buf, colon...)
		buf = appendQuoted(buf, FormatExpiry(c.ExpiresAt))
		buf = append(buf, comma...)
	}
	buf = appendQuoted(buf, fieldMachineID)
	buf = append(buf, colon...)
	buf = appendQuoted(buf, c.MachineID)
	buf = append(buf, '}')
	return buf, nil
}

// DecodePayload parses payload bytes into claims. It accepts either format,
// ignores unknown fields, and treats a missing or null expires_at as a
// non-expiring license. An expires_at of exactly 0001-01-01T00:00:00Z is
// rejected as a bad expiry.
func DecodePayload(payload []byte) (Claims, error) {
	if !utf8.Valid(payload) {
		return Claims{}, newError(ErrCodeMalformedPayload, errors.New("payload is not valid UTF-8"))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return Claims{}, newError(ErrCodeMalformedPayload, err)
	}
	if fields == nil {
		return Claims{}, newError(ErrCodeMalformedPayload, errors.New("payload is not an object"))
	}

	var claims Claims
	rawID, ok := fields[fieldMachineID]
	if !ok {
		return Claims{}, newError(ErrCodeMalformedPayload, errors.New("machine_id is missing"))
	}
	if err := json.Unmarshal(rawID, &claims.MachineID); err != nil {
		return Claims{}, newError(ErrCodeMalformedPayload, fmt.Errorf("machine_id must be a string: %w", err))
	}
	if claims.MachineID == "" {
		return Claims{}, newError(ErrCodeMalformedPayload, errors.New("machine_id is empty"))
	}

	rawExp, ok := fields[fieldExpiresAt]
	if !ok || bytes.Equal(rawExp, []byte("null")) {
		return claims, nil
	}
	var expires string
	if err := json.Unmarshal(rawExp, &expires); err != nil {
		return Claims{}, newError(ErrCodeMalformedPayload, fmt.Errorf("expires_at must be a string: %w", err))
	}
	t, err := ParseExpiry(expires)
	if err != nil {
		return Claims{}, err
	}
	// The zero instant is how Claims marks a non-expiring license.
	if t.IsZero() {
		return Claims{}, newError(ErrCodeBadExpiryFormat, fmt.Errorf("expiry %q is not representable", expires))
	}
	claims.ExpiresAt = t
	return claims, nil
}

const hexDigits = "0123456789abcdef"

// appendQuoted writes s as a JSON string using the escaping of an ASCII-only
// serializer: everything outside printable ASCII becomes \uXXXX.
func appendQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for _, r := range s {
		switch {
		case r == '"':
			dst = append(dst, '\\', '"')
		case r == '\\':
			dst = append(dst, '\\', '\\')
		case r == '\n':
			dst = append(dst, '\\', 'n')
		case r == '\r':
			dst = append(dst, '\\', 'r')
		case r == '\t':
			dst = append(dst, '\\', 't')
		case r == '\b':
			dst = append(dst, '\\', 'b')
		case r == '\f':
			dst = append(dst, '\\', 'f')
		case r >= 0x20 && r <= 0x7e:
			dst = append(dst, byte(r))
		case r > 0xffff:
			hi, lo := utf16.EncodeRune(r)
			dst = appendUnicodeEscape(dst, hi)
			dst = appendUnicodeEscape(dst, lo)
		default:
			dst = appendUnicodeEscape(dst, r)
		}
	}
	return append(dst, '"')
}

func appendUnicodeEscape(dst []byte, r rune) []byte {
	return append(dst, '\\', 'u',
		hexDigits[(r>>12)&0xf],
		hexDigits[(r>>8)&0xf],
		hexDigits[(r>>4)&0xf],
		hexDigits[r&0xf],
	)
}
