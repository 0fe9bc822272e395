package licensex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// SecretSource resolves the shared HMAC secret. String identifies the source
// for logs and cache keys and never includes secret material.
type SecretSource interface {
	Secret(ctx context.Context) ([]byte, error)
	String() string
}

// StaticSecret is a secret supplied in memory.
type StaticSecret []byte

// Secret returns a copy of the secret.
func (s StaticSecret) Secret(context.Context) ([]byte, error) {
	return append([]byte{}, s...), nil
}

func (s StaticSecret) String() string { return "static" }

// EnvSecret reads the secret from the named environment variable.
type EnvSecret string

// Secret looks the variable up. An unset variable is an error; an empty one
// yields an empty secret.
func (s EnvSecret) Secret(context.Context) ([]byte, error) {
	value, ok := os.LookupEnv(string(s))
	if !ok {
		return nil, newError(ErrCodeSecretUnavailable, fmt.Errorf("environment variable %s is not set", string(s)))
	}
	return []byte(value), nil
}

func (s EnvSecret) String() string { return "env:" + string(s) }

// FileSecret reads the secret from a file. Trailing line breaks are dropped.
type FileSecret string

// Secret reads the file.
func (s FileSecret) Secret(context.Context) ([]byte, error) {
	data, err := os.ReadFile(string(s))
	if err != nil {
		return nil, newError(ErrCodeSecretUnavailable, err)
	}
	return []byte(strings.TrimRight(string(data), "\r\n")), nil
}

func (s FileSecret) String() string { return "file:" + string(s) }

// ParseSecretSource builds a source from a "<scheme>:<value>" reference.
// Supported schemes: env, file, jwk and gcp.
func ParseSecretSource(ref string) (SecretSource, error) {
	scheme, value, ok := strings.Cut(strings.TrimSpace(ref), ":")
	if !ok || value == "" {
		return nil, newError(ErrCodeUsage, fmt.Errorf("secret source %q must look like <scheme>:<value>", ref))
	}
	switch strings.ToLower(scheme) {
	case "env":
		return EnvSecret(value), nil
	case "file":
		return FileSecret(value), nil
	case "jwk":
		return JWKSecret{Path: value}, nil
	case "gcp":
		return GCPSecret{Name: value}, nil
	}
	return nil, newError(ErrCodeUsage, fmt.Errorf("unknown secret source scheme %q", scheme))
}

// SecretCache memoizes resolved secrets per source. Failed lookups are not
// cached.
type SecretCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewSecretCache returns an empty cache.
func NewSecretCache() *SecretCache {
	return &SecretCache{entries: make(map[string][]byte)}
}

// Resolve returns the secret for src, fetching it on first use.
func (c *SecretCache) Resolve(ctx context.Context, src SecretSource) ([]byte, error) {
	if src == nil {
		return nil, newError(ErrCodeSecretUnavailable, errors.New("secret source is nil"))
	}
	key := src.String()

	c.mu.RLock()
	secret, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return append([]byte{}, secret...), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if secret, ok = c.entries[key]; ok {
		return append([]byte{}, secret...), nil
	}

	secret, err := src.Secret(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve secret from %s: %w", key, err)
	}
	c.entries[key] = secret
	return append([]byte{}, secret...), nil
}
