// Package credentials resolves package-index credentials from a keyring.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Common errors
var (
	ErrProviderDisabled = errors.New("keyring provider is disabled")
	ErrUnknownProvider  = errors.New("unknown keyring provider")
)

// Backend is the interface for keyring storage backends.
//
// Every operation is best effort: failures are logged by the backend and
// surface to callers only as a missing password.
type Backend interface {
	// Fetch returns the password stored for (service, username).
	Fetch(ctx context.Context, service, username string) (string, bool)

	// Store writes the password for (service, username).
	Store(ctx context.Context, service, username, password string)

	// Delete removes the entry for (service, username).
	Delete(ctx context.Context, service, username string)
}

// LookupKey addresses a single entry in a backend.
type LookupKey struct {
	Service  string
	Username string
}

// ProviderType selects which backend a Resolver talks to.
type ProviderType string

// Supported provider types
const (
	ProviderDisabled   ProviderType = "disabled"
	ProviderSubprocess ProviderType = "subprocess"
	ProviderNative     ProviderType = "native"
)

// ParseProviderType parses a provider name, ignoring case and surrounding space.
func ParseProviderType(s string) (ProviderType, error) {
	switch p := ProviderType(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderDisabled, ProviderSubprocess, ProviderNative:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
	}
}

// Options configures NewBackend.
type Options struct {
	Provider ProviderType

	// Command is the agent executable for the subprocess provider.
	Command string

	// Service names the keyring collection used by the native provider.
	Service string

	// Stderr receives the agent's stderr during fetch. Defaults to os.Stderr.
	Stderr io.Writer

	Logger *slog.Logger
}

// NewBackend creates the backend selected by opts.Provider.
func NewBackend(opts Options) (Backend, error) {
	switch opts.Provider {
	case ProviderSubprocess:
		return NewSubprocessBackend(opts.Command, opts.Logger, WithStderr(opts.Stderr)), nil
	case ProviderNative:
		return OpenNativeBackend(opts.Service, opts.Logger)
	case ProviderDisabled, "":
		return nil, ErrProviderDisabled
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, opts.Provider)
	}
}

// NewResolverWithOptions creates a backend from opts and wraps it in a Resolver.
func NewResolverWithOptions(opts Options) (*Resolver, error) {
	backend, err := NewBackend(opts)
	if err != nil {
		return nil, err
	}
	return NewResolver(backend, opts.Logger), nil
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
