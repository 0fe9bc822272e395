package licensex

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"
)

func TestSign_Deterministic(t *testing.T) {
	payload := []byte(`{"machine_id": "132281831523414"}`)
	first := Sign([]byte(DefaultSecret), payload)
	if len(first) != TagSize {
		t.Fatalf("expected %d byte tag, got %d", TagSize, len(first))
	}
	if !bytes.Equal(first, Sign([]byte(DefaultSecret), payload)) {
		t.Fatalf("tag changed between calls")
	}
	if bytes.Equal(first, Sign([]byte("other"), payload)) {
		t.Fatalf("different secrets produced the same tag")
	}
	if got := Sign(nil, payload); len(got) != TagSize {
		t.Fatalf("empty secret should still produce a tag, got %d bytes", len(got))
	}
}

func TestSign_KnownVector(t *testing.T) {
	// RFC 4231 test case 2.
	tag := Sign([]byte("Jefe"), []byte("what do ya want for nothing?"))
	want := "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843"
	if got := hex.EncodeToString(tag); got != want {
		t.Fatalf("unexpected tag %s", got)
	}
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	payload := []byte(`{"expires_at": "2026-09-02T14:05:46.327291+00:00", "machine_id": "132281831523414"}`)
	tag := Sign([]byte(DefaultSecret), payload)

	padded := EncodeToken(payload, tag, true)
	stripped := EncodeToken(payload, tag, false)
	if !strings.HasSuffix(padded, "=") {
		t.Fatalf("padded token should end with '=': %s", padded)
	}
	if strings.Contains(stripped, "=") {
		t.Fatalf("stripped token still has padding: %s", stripped)
	}
	if strings.TrimRight(padded, "=") != stripped {
		t.Fatalf("padded and stripped forms differ beyond padding")
	}

	for _, token := range []string{padded, stripped} {
		gotPayload, gotTag, err := DecodeToken(token)
		if err != nil {
			t.Fatalf("DecodeToken(%s): %v", token, err)
		}
		if !bytes.Equal(gotPayload, payload) {
			t.Fatalf("payload mismatch: %s", gotPayload)
		}
		if !bytes.Equal(gotTag, tag) {
			t.Fatalf("tag mismatch")
		}
	}
}

func TestTokenCodec_URLSafeAlphabet(t *testing.T) {
	payload := bytes.Repeat([]byte{0xfb, 0xff, 0xbf}, 20)
	token := EncodeToken(payload, make([]byte, TagSize), false)
	if strings.ContainsAny(token, "+/") {
		t.Fatalf("token uses the standard alphabet: %s", token)
	}
}

func TestDecodeToken_Errors(t *testing.T) {
	tag := make([]byte, TagSize)
	cases := []struct {
		name  string
		token string
		code  ErrorCode
	}{
		{"empty", "", ErrCodeTruncatedToken},
		{"invalid characters", "!!!!", ErrCodeMalformedToken},
		{"standard alphabet", "ab+/", ErrCodeMalformedToken},
		{"impossible length", "abcde", ErrCodeMalformedToken},
		{"line break", EncodeToken([]byte("x"), tag, false)[:10] + "\n" + EncodeToken([]byte("x"), tag, false)[10:], ErrCodeMalformedToken},
		{"non-zero trailing bits", "eyJ=", ErrCodeMalformedToken},
		{"tag only", EncodeToken(nil, tag, false), ErrCodeTruncatedToken},
		{"shorter than tag", EncodeToken([]byte("short"), nil, false), ErrCodeTruncatedToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := DecodeToken(tc.token)
			if got := CodeOf(err); got != tc.code {
				t.Fatalf("expected %s, got %s (%v)", tc.code, got, err)
			}
		})
	}
}

func TestDecodeToken_MinimumPayload(t *testing.T) {
	tag := Sign([]byte("k"), []byte("x"))
	payload, gotTag, err := DecodeToken(EncodeToken([]byte("x"), tag, false))
	if err != nil {
		t.Fatalf("DecodeToken: %v", err)
	}
	if string(payload) != "x" || !bytes.Equal(gotTag, tag) {
		t.Fatalf("unexpected split: %q", payload)
	}
}
