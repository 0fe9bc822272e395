package licensex

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/secretmanager/v1"
)

const defaultSecretTimeout = 5 * time.Second

var newSecretManagerService = secretmanager.NewService

// GCPSecret reads the secret from Google Secret Manager.
type GCPSecret struct {
	// Name is projects/<p>/secrets/<s>, optionally followed by /versions/<v>.
	// A missing version selects "latest".
	Name string
	// TokenSource overrides Application Default Credentials.
	TokenSource oauth2.TokenSource
	// ClientOptions are passed to the Secret Manager client.
	ClientOptions []option.ClientOption
	// Timeout bounds the access call. Defaults to 5s.
	Timeout time.Duration
}

// Secret accesses the configured secret version.
func (s GCPSecret) Secret(ctx context.Context) ([]byte, error) {
	name := s.versionName()
	if !strings.HasPrefix(name, "projects/") {
		return nil, newError(ErrCodeUsage, fmt.Errorf("secret name %q must start with projects/", s.Name))
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultSecretTimeout
	}
	accessCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := append([]option.ClientOption(nil), s.ClientOptions...)
	if s.TokenSource != nil {
		opts = append(opts, option.WithTokenSource(oauth2.ReuseTokenSource(nil, s.TokenSource)))
	}
	svc, err := newSecretManagerService(accessCtx, opts...)
	if err != nil {
		return nil, newError(ErrCodeSecretUnavailable, fmt.Errorf("create secret manager client: %w", err))
	}

	resp, err := svc.Projects.Secrets.Versions.Access(name).Context(accessCtx).Do()
	if err != nil {
		return nil, newError(ErrCodeSecretUnavailable, fmt.Errorf("access %s: %w", name, err))
	}
	if resp.Payload == nil {
		return nil, newError(ErrCodeSecretUnavailable, errors.New("secret version has no payload"))
	}
	data, err := base64.StdEncoding.DecodeString(resp.Payload.Data)
	if err != nil {
		return nil, newError(ErrCodeSecretUnavailable, fmt.Errorf("decode secret payload: %w", err))
	}
	return data, nil
}

func (s GCPSecret) String() string { return "gcp:" + s.versionName() }

func (s GCPSecret) versionName() string {
	name := strings.Trim(strings.TrimSpace(s.Name), "/")
	if !strings.Contains(name, "/versions/") {
		name += "/versions/latest"
	}
	return name
}
