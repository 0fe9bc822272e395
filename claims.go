package licensex

import "time"

// Claims is the authenticated content of a license token.
type Claims struct {
	// MachineID identifies the machine the license is bound to.
	MachineID string
	// ExpiresAt is the last instant at which the license is time-valid.
	// The zero value marks a non-expiring license.
	ExpiresAt time.Time
}

// Expires reports whether the claims carry an expiry instant.
func (c Claims) Expires() bool {
	return !c.ExpiresAt.IsZero()
}

// RemainingAt returns the time left until expiry as seen at now, and false
// for non-expiring claims.
func (c Claims) RemainingAt(now time.Time) (time.Duration, bool) {
	if !c.Expires() {
		return 0, false
	}
	return c.ExpiresAt.Sub(now.UTC()), true
}
