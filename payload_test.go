package licensex

import (
	"errors"
	"testing"
	"time"
)

var scenarioExpiry = time.Date(2026, time.September, 2, 14, 5, 46, 327291000, time.UTC)

func TestEncodePayload_Formats(t *testing.T) {
	claims := Claims{MachineID: "132281831523414", ExpiresAt: scenarioExpiry}

	cases := []struct {
		name   string
		claims Claims
		format Format
		want   string
	}{
		{
			name:   "observed",
			claims: claims,
			format: FormatObserved,
			want:   `{"expires_at": "2026-09-02T14:05:46.327291+00:00", "machine_id": "132281831523414"}`,
		},
		{
			name:   "compact",
			claims: claims,
			format: FormatCompact,
			want:   `{"expires_at":"2026-09-02T14:05:46.327291+00:00","machine_id":"132281831523414"}`,
		},
		{
			name:   "observed without expiry",
			claims: Claims{MachineID: "132281831523414"},
			format: FormatObserved,
			want:   `{"machine_id": "132281831523414"}`,
		},
		{
			name:   "compact without expiry",
			claims: Claims{MachineID: "132281831523414"},
			format: FormatCompact,
			want:   `{"machine_id":"132281831523414"}`,
		},
		{
			name:   "non-utc expiry is rendered in utc",
			claims: Claims{MachineID: "m", ExpiresAt: scenarioExpiry.In(time.FixedZone("UTC+2", 2*3600))},
			format: FormatCompact,
			want:   `{"expires_at":"2026-09-02T14:05:46.327291+00:00","machine_id":"m"}`,
		},
		{
			name:   "escaping",
			claims: Claims{MachineID: "a\"b\\c\né\U0001F600\x01"},
			format: FormatCompact,
			want:   `{"machine_id":"a\"b\\c\n\u00e9\ud83d\ude00\u0001"}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EncodePayload(tc.claims, tc.format)
			if err != nil {
				t.Fatalf("EncodePayload: %v", err)
			}
			if string(got) != tc.want {
				t.Fatalf("unexpected payload:\n got %s\nwant %s", got, tc.want)
			}
		})
	}
}

func TestEncodePayload_Deterministic(t *testing.T) {
	claims := Claims{MachineID: "962650882122", ExpiresAt: scenarioExpiry}
	first, err := EncodePayload(claims, FormatObserved)
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := EncodePayload(claims, FormatObserved)
		if err != nil {
			t.Fatalf("EncodePayload: %v", err)
		}
		if string(again) != string(first) {
			t.Fatalf("payload changed between calls: %s vs %s", again, first)
		}
	}
}

func TestEncodePayload_Invalid(t *testing.T) {
	if _, err := EncodePayload(Claims{}, FormatObserved); CodeOf(err) != ErrCodeMalformedPayload {
		t.Fatalf("expected malformed payload for empty machine id, got %v", err)
	}
	if _, err := EncodePayload(Claims{MachineID: "m"}, Format("pretty")); CodeOf(err) != ErrCodeUsage {
		t.Fatalf("expected usage error for unknown format, got %v", err)
	}
}

func TestDecodePayload_RoundTrip(t *testing.T) {
	inputs := []Claims{
		{MachineID: "132281831523414", ExpiresAt: scenarioExpiry},
		{MachineID: "132281831523414"},
		{MachineID: "a\"b\\c\né\U0001F600\x01", ExpiresAt: scenarioExpiry.Add(-400 * 24 * time.Hour)},
	}
	for _, format := range []Format{FormatObserved, FormatCompact} {
		for _, in := range inputs {
			payload, err := EncodePayload(in, format)
			if err != nil {
				t.Fatalf("EncodePayload: %v", err)
			}
			out, err := DecodePayload(payload)
			if err != nil {
				t.Fatalf("DecodePayload(%s): %v", payload, err)
			}
			if out.MachineID != in.MachineID {
				t.Fatalf("machine id mismatch: got %q want %q", out.MachineID, in.MachineID)
			}
			if !out.ExpiresAt.Equal(in.ExpiresAt) {
				t.Fatalf("expiry mismatch: got %v want %v", out.ExpiresAt, in.ExpiresAt)
			}
		}
	}
}

func TestDecodePayload_Errors(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		code    ErrorCode
	}{
		{"not json", `not json`, ErrCodeMalformedPayload},
		{"json null", `null`, ErrCodeMalformedPayload},
		{"array", `["machine_id"]`, ErrCodeMalformedPayload},
		{"missing machine id", `{"expires_at": "2026-09-02T14:05:46.327291"}`, ErrCodeMalformedPayload},
		{"numeric machine id", `{"machine_id": 132281831523414}`, ErrCodeMalformedPayload},
		{"empty machine id", `{"machine_id": ""}`, ErrCodeMalformedPayload},
		{"null machine id", `{"machine_id": null}`, ErrCodeMalformedPayload},
		{"numeric expiry", `{"expires_at": 1788357946, "machine_id": "m"}`, ErrCodeMalformedPayload},
		{"invalid utf-8", "{\"machine_id\": \"\xff\"}", ErrCodeMalformedPayload},
		{"unparseable expiry", `{"expires_at": "next tuesday", "machine_id": "m"}`, ErrCodeBadExpiryFormat},
		{"empty expiry", `{"expires_at": "", "machine_id": "m"}`, ErrCodeBadExpiryFormat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodePayload([]byte(tc.payload))
			if err == nil {
				t.Fatalf("expected error")
			}
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if e.Code != tc.code {
				t.Fatalf("expected %s, got %s (%v)", tc.code, e.Code, err)
			}
		})
	}
}

func TestDecodePayload_Lenient(t *testing.T) {
	claims, err := DecodePayload([]byte(`{"machine_id":"m","expires_at":null,"tier":"pro"}`))
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if claims.MachineID != "m" || claims.Expires() {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseExpiry(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2026-09-02T14:05:46.327291+00:00", scenarioExpiry},
		{"2026-09-02T14:05:46.327291Z", scenarioExpiry},
		{"2026-09-02T16:05:46.327291+02:00", scenarioExpiry},
		{"2026-09-02T14:05:46.327291", scenarioExpiry},
		{"2026-09-02 14:05:46.327291", scenarioExpiry},
		{"2026-09-02 14:05:46.327291+00:00", scenarioExpiry},
		{"2026-09-02T14:05:46.327291+0000", scenarioExpiry},
		{"2026-09-02T14:05:46", time.Date(2026, 9, 2, 14, 5, 46, 0, time.UTC)},
		{"2026-09-02T14:05", time.Date(2026, 9, 2, 14, 5, 0, 0, time.UTC)},
		{"2026-09-02", time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := ParseExpiry(tc.in)
		if err != nil {
			t.Fatalf("ParseExpiry(%q): %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("ParseExpiry(%q) = %v, want %v", tc.in, got, tc.want)
		}
		if got.Location() != time.UTC {
			t.Fatalf("ParseExpiry(%q) returned location %v", tc.in, got.Location())
		}
	}

	for _, bad := range []string{"", "tomorrow", "2026-13-02", "02/09/2026", "2026-09-02T25:00:00"} {
		if _, err := ParseExpiry(bad); CodeOf(err) != ErrCodeBadExpiryFormat {
			t.Fatalf("ParseExpiry(%q): expected bad expiry format, got %v", bad, err)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"observed": FormatObserved, "COMPACT": FormatCompact, " compact ": FormatCompact} {
		got, err := ParseFormat(in)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseFormat(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseFormat("pretty"); CodeOf(err) != ErrCodeUsage {
		t.Fatalf("expected usage error, got %v", err)
	}
}
