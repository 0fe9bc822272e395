package licensex

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// maxValidDays keeps relative expiries inside the range of time.Duration.
const maxValidDays = 106751

// License is a freshly minted token together with the exact bytes it signs.
type License struct {
	Key     string
	Payload []byte
	Claims  Claims
	Format  Format
}

// Issuer mints licenses with a fixed secret. It is safe for concurrent use.
type Issuer struct {
	secret            []byte
	format            Format
	padded            bool
	now               func() time.Time
	metrics           *instruments
	usesDefaultSecret bool
}

type expiryMode int

const (
	expiryAbsolute expiryMode = iota + 1
	expiryRelative
	expiryNone
)

type issueParams struct {
	selections int
	mode       expiryMode
	expiresAt  time.Time
	days       int
	format     Format
	padded     bool
}

// IssueOption customizes a single Issue call.
type IssueOption func(*issueParams)

// WithExpiresAt sets an absolute expiry instant.
func WithExpiresAt(t time.Time) IssueOption {
	return func(p *issueParams) {
		p.selections++
		p.mode = expiryAbsolute
		p.expiresAt = t
	}
}

// WithValidDays sets the expiry relative to the issuer clock.
func WithValidDays(days int) IssueOption {
	return func(p *issueParams) {
		p.selections++
		p.mode = expiryRelative
		p.days = days
	}
}

// WithoutExpiry mints a license that never expires.
func WithoutExpiry() IssueOption {
	return func(p *issueParams) {
		p.selections++
		p.mode = expiryNone
	}
}

// WithFormat overrides the payload layout.
func WithFormat(f Format) IssueOption {
	return func(p *issueParams) {
		p.format = f
	}
}

// WithPadding controls whether '=' padding is kept on the key.
func WithPadding(padded bool) IssueOption {
	return func(p *issueParams) {
		p.padded = padded
	}
}

// checkExpiryRange rejects instants the payload cannot round-trip: years
// outside 1..9999 and the zero instant, which reads back as no expiry.
func checkExpiryRange(t time.Time) error {
	if y := t.Year(); y < 1 || y > 9999 {
		return newError(ErrCodeUsage, fmt.Errorf("expiry year %d outside 1..9999", y))
	}
	if t.IsZero() {
		return newError(ErrCodeUsage, errors.New("expiry truncates to the zero time"))
	}
	return nil
}

// NewIssuer constructs an Issuer from the supplied configuration.
func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	usesDefault := cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	metrics, err := newInstruments(cfg.MeterProvider)
	if err != nil {
		return nil, err
	}
	return &Issuer{
		secret:            cfg.Secret,
		format:            cfg.Format,
		padded:            cfg.Padded,
		now:               cfg.Now,
		metrics:           metrics,
		usesDefaultSecret: usesDefault,
	}, nil
}

// UsesDefaultSecret reports whether the issuer fell back to DefaultSecret.
func (i *Issuer) UsesDefaultSecret() bool {
	return i.usesDefaultSecret
}

// Issue mints a license for machineID. Exactly one of WithExpiresAt,
// WithValidDays or WithoutExpiry must be given; anything else is a usage
// error reported before signing.
func (i *Issuer) Issue(machineID string, opts ...IssueOption) (*License, error) {
	if strings.TrimSpace(machineID) == "" {
		return nil, newError(ErrCodeUsage, errors.New("machine id is required"))
	}

	params := issueParams{format: i.format, padded: i.padded}
	for _, opt := range opts {
		opt(&params)
	}
	if params.selections != 1 {
		return nil, newError(ErrCodeUsage, fmt.Errorf("exactly one expiry selection is required, got %d", params.selections))
	}

	claims := Claims{MachineID: machineID}
	switch params.mode {
	case expiryAbsolute:
		if params.expiresAt.IsZero() {
			return nil, newError(ErrCodeUsage, errors.New("absolute expiry is the zero time"))
		}
		claims.ExpiresAt = params.expiresAt.UTC().Truncate(time.Microsecond)
	case expiryRelative:
		if params.days > maxValidDays || params.days < -maxValidDays {
			return nil, newError(ErrCodeUsage, fmt.Errorf("day count %d out of range", params.days))
		}
		validFor := time.Duration(params.days) * 24 * time.Hour
		claims.ExpiresAt = i.now().UTC().Add(validFor).Truncate(time.Microsecond)
	}
	if params.mode != expiryNone {
		if err := checkExpiryRange(claims.ExpiresAt); err != nil {
			return nil, err
		}
	}

	payload, err := EncodePayload(claims, params.format)
	if err != nil {
		return nil, err
	}
	key := EncodeToken(payload, Sign(i.secret, payload), params.padded)
	i.metrics.recordIssue(context.Background(), params.format, claims.Expires())

	return &License{
		Key:     key,
		Payload: payload,
		Claims:  claims,
		Format:  params.format,
	}, nil
}
