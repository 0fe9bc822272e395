package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bionicotaku/lingo-utils-licensex"
)

// secretTimeout bounds remote secret lookups.
const secretTimeout = 10 * time.Second

// SecretSelection is the secret chosen on the command line or in the
// environment. HasInline distinguishes an explicitly empty inline secret from
// no inline secret at all.
type SecretSelection struct {
	Inline    string
	HasInline bool
	Ref       string
}

// ResolveSecret returns the HMAC secret selected by an inline value or a
// source reference. Setting both is a usage error. Setting neither returns
// nil, which makes the library fall back to licensex.DefaultSecret.
func ResolveSecret(ctx context.Context, cache *licensex.SecretCache, sel SecretSelection, log logrus.FieldLogger) ([]byte, error) {
	switch {
	case sel.HasInline && sel.Ref != "":
		return nil, fmt.Errorf("%w: -secret and -secret-source are mutually exclusive", ErrUsage)
	case sel.HasInline:
		if sel.Inline == "" {
			log.Warn("using an empty HMAC secret")
		}
		return append([]byte{}, sel.Inline...), nil
	case sel.Ref == "":
		return nil, nil
	}

	src, err := licensex.ParseSecretSource(sel.Ref)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, secretTimeout)
	defer cancel()

	log.WithField("source", src.String()).Debug("resolving secret")
	secret, err := cache.Resolve(ctx, src)
	if err != nil {
		return nil, err
	}
	return secret, nil
}

// SecretFlags merges the secret flags with the environment. Flags win as a
// pair so that -secret-source is not combined with LICENSEX_SECRET.
// secretSet reports whether -secret appeared on the command line, so that
// -secret "" selects an empty key. An empty LICENSEX_SECRET counts as unset.
func SecretFlags(flagSecret string, secretSet bool, flagSource string, cfg Config) SecretSelection {
	if secretSet || flagSource != "" {
		return SecretSelection{Inline: flagSecret, HasInline: secretSet, Ref: flagSource}
	}
	return SecretSelection{Inline: cfg.Secret, HasInline: cfg.Secret != "", Ref: cfg.SecretSource}
}

// WarnDefaultSecret logs that the built-in, publicly known secret is in use.
func WarnDefaultSecret(log logrus.FieldLogger) {
	log.Warn("using the built-in default secret; set LICENSEX_SECRET, -secret or -secret-source for real licenses")
}
