package licensex

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// DefaultSecret is the shared secret of the legacy license tooling. It is
// public knowledge and only suitable for compatibility checks and tests.
// Production deployments must configure their own secret.
const DefaultSecret = "Telegram_Adder_Super_Secret_Key_@2024!"

// IssuerConfig controls how licenses are minted.
type IssuerConfig struct {
	// Secret is the HMAC key. Nil selects DefaultSecret; an empty non-nil
	// slice is used as an empty key.
	Secret []byte
	// Format is the payload layout used when none is given per call.
	Format Format
	// Padded keeps '=' padding on issued keys.
	Padded bool
	// Now overrides the clock used for relative expiries.
	Now func() time.Time
	// MeterProvider receives issue counters. Defaults to the global provider.
	MeterProvider metric.MeterProvider
}

// VerifierConfig controls how licenses are verified.
type VerifierConfig struct {
	// Secret is the HMAC key. Nil selects DefaultSecret.
	Secret []byte
	// Now overrides the clock used for expiry checks.
	Now func() time.Time
	// MeterProvider receives verification counters. Defaults to the global provider.
	MeterProvider metric.MeterProvider
}

// normalize sets default values for optional fields and reports whether the
// built-in secret was selected.
func (c *IssuerConfig) normalize() bool {
	usesDefault := c.Secret == nil
	c.Secret = secretOrDefault(c.Secret)
	if c.Format == "" {
		c.Format = FormatObserved
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.MeterProvider == nil {
		c.MeterProvider = otel.GetMeterProvider()
	}
	return usesDefault
}

// validate ensures the issuer configuration is usable.
func (c IssuerConfig) validate() error {
	if _, _, err := c.Format.separators(); err != nil {
		return newError(ErrCodeInvalidConfig, fmt.Errorf("format: %w", err))
	}
	return nil
}

func (c *VerifierConfig) normalize() bool {
	usesDefault := c.Secret == nil
	c.Secret = secretOrDefault(c.Secret)
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.MeterProvider == nil {
		c.MeterProvider = otel.GetMeterProvider()
	}
	return usesDefault
}

// secretOrDefault copies the secret so that later mutation by the caller
// cannot change issued or verified tags.
func secretOrDefault(secret []byte) []byte {
	if secret == nil {
		return []byte(DefaultSecret)
	}
	return append([]byte{}, secret...)
}
