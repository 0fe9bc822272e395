package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/bionicotaku/lingo-utils-licensex"
)

// PrintLicense writes the key and the exact payload it signs.
func PrintLicense(w io.Writer, l *licensex.License) {
	fmt.Fprint(w, "LICENSE KEY:\n\n")
	fmt.Fprintln(w, l.Key)
	fmt.Fprint(w, "\nPayload string used:\n")
	fmt.Fprintln(w, string(l.Payload))
}

// PrintVerification writes the outcome of a local verification.
func PrintVerification(w io.Writer, r licensex.Result) {
	fmt.Fprintf(w, "\nVerification result: %t\n", r.Valid)
	fmt.Fprintln(w, "Details:")
	d := newResultDetails(r)
	fmt.Fprintf(w, "  machine_id: %s\n", orNone(d.MachineID))
	fmt.Fprintf(w, "  expires_at: %s\n", orNone(deref(d.ExpiresAt)))
	fmt.Fprintf(w, "  time_valid: %t\n", d.TimeValid)
	remaining := ""
	if d.RemainingSeconds != nil {
		remaining = strconv.FormatFloat(*d.RemainingSeconds, 'f', 6, 64)
	}
	fmt.Fprintf(w, "  remaining_seconds: %s\n", orNone(remaining))
	fmt.Fprintf(w, "  reason: %s\n", d.Reason)
	if d.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", d.Error)
	}
}

// WriteResultJSON writes r as a single JSON object.
func WriteResultJSON(w io.Writer, r licensex.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newResultDetails(r))
}

type resultDetails struct {
	Valid            bool     `json:"valid"`
	Reason           string   `json:"reason"`
	MachineID        string   `json:"machine_id,omitempty"`
	ExpiresAt        *string  `json:"expires_at"`
	TimeValid        bool     `json:"time_valid"`
	RemainingSeconds *float64 `json:"remaining_seconds"`
	CheckedAt        string   `json:"checked_at"`
	Error            string   `json:"error,omitempty"`
}

func newResultDetails(r licensex.Result) resultDetails {
	d := resultDetails{
		Valid:     r.Valid,
		Reason:    string(r.Reason),
		TimeValid: r.Valid && r.TimeValid,
		CheckedAt: licensex.FormatExpiry(r.CheckedAt),
	}
	if d.Reason == "" {
		d.Reason = "ok"
	}
	if r.Err != nil {
		d.Error = r.Err.Error()
	}
	if r.Claims != nil {
		d.MachineID = r.Claims.MachineID
		if r.Claims.Expires() {
			exp := licensex.FormatExpiry(r.Claims.ExpiresAt)
			d.ExpiresAt = &exp
		}
	}
	if secs, ok := r.RemainingSeconds(); ok {
		d.RemainingSeconds = &secs
	}
	return d
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
