package credentials

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/google/uuid"
)

// Resolver looks up index credentials in a Backend, trying the full URL
// before falling back to the host.
//
// Precondition violations (no host, an embedded password, an empty
// username) are logged as warnings and treated as a miss; the resolver
// never panics and never returns an error. Nothing is cached between
// calls.
type Resolver struct {
	backend Backend
	logger  *slog.Logger
}

// NewResolver creates a resolver over backend.
func NewResolver(backend Backend, logger *slog.Logger) *Resolver {
	return &Resolver{
		backend: backend,
		logger:  orDiscard(logger),
	}
}

// Backend returns the backend the resolver delegates to.
func (r *Resolver) Backend() Backend {
	return r.backend
}

// Fetch returns the credentials stored for username, checking the
// URL-scoped key first and the host-scoped key second. It returns nil when
// neither has an entry or the backend fails.
func (r *Resolver) Fetch(ctx context.Context, u *url.URL, username string) *Credentials {
	logger := r.logger.With("lookup", uuid.NewString())
	if err := checkRequest(u, username); err != nil {
		logger.Warn("refusing keyring lookup", "reason", err)
		return nil
	}

	service := serviceName(u)
	logger.Debug("checking keyring for url", "service", service, "username", username)
	password, ok := r.backend.Fetch(ctx, service, username)

	if !ok && ctx.Err() == nil {
		host := hostKey(u)
		logger.Debug("checking keyring for host", "service", host, "username", username)
		password, ok = r.backend.Fetch(ctx, host, username)
	}

	if !ok {
		return nil
	}
	return New(username, password)
}

// Set stores password under the host-scoped key for u. The URL-scoped key
// is never written.
func (r *Resolver) Set(ctx context.Context, u *url.URL, username, password string) {
	if err := checkRequest(u, username); err != nil {
		r.logger.Warn("refusing keyring update", "reason", err)
		return
	}

	host := hostKey(u)
	r.logger.Debug("creating entry in keyring", "service", host, "url", serviceName(u), "username", username)
	r.backend.Store(ctx, host, username, password)
}

// Unset deletes the entry for username under u's host. Unlike Set, the
// port is not part of the key.
func (r *Resolver) Unset(ctx context.Context, u *url.URL, username string) {
	if err := checkRequest(u, username); err != nil {
		r.logger.Warn("refusing keyring removal", "reason", err)
		return
	}

	host := hostOnly(u)
	r.logger.Debug("deleting entry in keyring", "service", host, "url", serviceName(u), "username", username)
	r.backend.Delete(ctx, host, username)
}
