package licensex

import (
	"context"
	"fmt"
	"os"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// JWKSecret reads the secret from a file holding a symmetric ("oct") JWK.
type JWKSecret struct {
	Path string
}

// Secret reads and parses the key file.
func (s JWKSecret) Secret(context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, newError(ErrCodeSecretUnavailable, err)
	}
	return ParseJWKSecret(data)
}

func (s JWKSecret) String() string { return "jwk:" + s.Path }

// ParseJWKSecret extracts the key bytes of a symmetric JWK. When the key
// declares an algorithm it must be HS256.
func ParseJWKSecret(data []byte) ([]byte, error) {
	key, err := jwk.ParseKey(data)
	if err != nil {
		return nil, newError(ErrCodeSecretUnavailable, fmt.Errorf("parse jwk: %w", err))
	}
	if kty := key.KeyType(); kty != jwa.OctetSeq {
		return nil, newError(ErrCodeSecretUnavailable, fmt.Errorf("jwk key type %q, want %q", kty, jwa.OctetSeq))
	}
	if alg := key.Algorithm().String(); alg != "" && alg != jwa.HS256.String() {
		return nil, newError(ErrCodeSecretUnavailable, fmt.Errorf("jwk algorithm %q, want %q", alg, jwa.HS256))
	}
	var raw []byte
	if err := key.Raw(&raw); err != nil {
		return nil, newError(ErrCodeSecretUnavailable, fmt.Errorf("extract jwk octets: %w", err))
	}
	return raw, nil
}
