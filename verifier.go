package licensex

import (
	"context"
	"fmt"
	"time"
)

// Reason classifies why a verification failed. The empty Reason marks an
// authentic token.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonDecodeError       Reason = "decode_error"
	ReasonSignatureMismatch Reason = "signature_mismatch"
	ReasonBadPayload        Reason = "bad_payload"
	ReasonBadExpiryFormat   Reason = "bad_expiry_format"
)

func (r Reason) label() string {
	if r == ReasonNone {
		return "ok"
	}
	return string(r)
}

// Result is the outcome of verifying a single token.
type Result struct {
	// Valid reports that the tag is authentic and the payload is well formed.
	Valid bool
	// Reason is set when Valid is false.
	Reason Reason
	// Claims holds the parsed payload when Valid is true.
	Claims *Claims
	// TimeValid reports that the expiry has not passed at CheckedAt.
	// Non-expiring licenses are always time-valid.
	TimeValid bool
	// Remaining is expires_at minus CheckedAt, nil for non-expiring licenses.
	Remaining *time.Duration
	// CheckedAt is the single clock sample used for the expiry comparison.
	CheckedAt time.Time
	// Err carries the underlying *Error when Valid is false.
	Err error
}

// RemainingSeconds returns Remaining in seconds, and false when the license
// does not expire or the token is invalid.
func (r Result) RemainingSeconds() (float64, bool) {
	if r.Remaining == nil {
		return 0, false
	}
	return r.Remaining.Seconds(), true
}

// Verify checks token against secret at the instant now. It never returns a
// Go error: every failure is reported through Result.Reason.
//
// The tag is compared in constant time before the payload is parsed, so
// unauthenticated bytes are never interpreted.
func Verify(token string, secret []byte, now time.Time) Result {
	now = now.UTC()
	result := Result{CheckedAt: now}

	payload, tag, err := DecodeToken(token)
	if err != nil {
		result.Reason = ReasonDecodeError
		result.Err = err
		return result
	}

	if !tagEqual(Sign(secret, payload), tag) {
		result.Reason = ReasonSignatureMismatch
		result.Err = newError(ErrCodeSignatureMismatch, nil)
		return result
	}

	claims, err := DecodePayload(payload)
	if err != nil {
		result.Reason = ReasonBadPayload
		if CodeOf(err) == ErrCodeBadExpiryFormat {
			result.Reason = ReasonBadExpiryFormat
		}
		result.Err = err
		return result
	}

	result.Valid = true
	result.Claims = &claims
	remaining, expires := claims.RemainingAt(now)
	if !expires {
		result.TimeValid = true
		return result
	}
	result.Remaining = &remaining
	result.TimeValid = remaining >= 0
	return result
}

// Verifier verifies licenses with a fixed secret and clock. It is safe for
// concurrent use.
type Verifier struct {
	secret            []byte
	now               func() time.Time
	metrics           *instruments
	usesDefaultSecret bool
}

// NewVerifier builds a verifier from the given configuration.
func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	usesDefault := cfg.normalize()
	metrics, err := newInstruments(cfg.MeterProvider)
	if err != nil {
		return nil, err
	}
	return &Verifier{
		secret:            cfg.Secret,
		now:               cfg.Now,
		metrics:           metrics,
		usesDefaultSecret: usesDefault,
	}, nil
}

// UsesDefaultSecret reports whether the verifier fell back to DefaultSecret.
func (v *Verifier) UsesDefaultSecret() bool {
	return v.usesDefaultSecret
}

// Verify checks token against the configured secret, sampling the clock once.
func (v *Verifier) Verify(token string) Result {
	result := Verify(token, v.secret, v.now())
	v.metrics.recordVerify(context.Background(), result)
	return result
}

// Check is a strict gate for applications: it succeeds only for an authentic,
// time-valid license bound to machineID. An empty machineID skips the
// binding check.
func (v *Verifier) Check(token, machineID string) (*Claims, error) {
	return v.Verify(token).Require(machineID)
}

// Require converts r into the error Check would return. Machine binding is
// checked before expiry.
func (r Result) Require(machineID string) (*Claims, error) {
	if !r.Valid {
		return nil, r.Err
	}
	claims := r.Claims
	if machineID != "" && claims.MachineID != machineID {
		return nil, newError(ErrCodeMachineMismatch, fmt.Errorf("license is bound to machine %q", claims.MachineID))
	}
	if !r.TimeValid {
		return nil, newError(ErrCodeExpired, fmt.Errorf("expired at %s", FormatExpiry(claims.ExpiresAt)))
	}
	return claims, nil
}
