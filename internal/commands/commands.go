// Package commands implements the add, list, unset and get credential
// flows behind the indexauth CLI.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/su1ph3r/indexauth/internal/authconfig"
	"github.com/su1ph3r/indexauth/internal/credentials"
	"github.com/su1ph3r/indexauth/internal/index"
)

// ErrNoUsername is returned when no username was given and none could be
// read interactively.
var ErrNoUsername = errors.New("no username provided and could not read username from input")

// ErrNoPassword is returned when no password was given and none could be
// read interactively.
var ErrNoPassword = errors.New("could not read password from user input")

// Prompter supplies missing input.
type Prompter interface {
	Username() (string, error)
	Password() (string, error)
}

// Env carries the collaborators shared by every flow.
type Env struct {
	Resolver    *credentials.Resolver
	Indexes     index.List
	AuthConfig  *authconfig.Config
	Prompter    Prompter
	Logger      *slog.Logger
	Concurrency int
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}

// Add stores the password for the named index in the keyring and records
// the username in the auth config. Missing username or password are
// prompted for.
func Add(ctx context.Context, env *Env, name, username, password string) error {
	idx, err := env.Indexes.Find(name)
	if err != nil {
		return err
	}

	if username == "" {
		if username, err = ask(env.Prompter.Username, ErrNoUsername); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = ask(env.Prompter.Password, ErrNoPassword); err != nil {
			return err
		}
	}

	env.logger().Debug("storing password in keyring", "index", name, "url", idx.URL.String(), "username", username)
	env.Resolver.Set(ctx, idx.URL, username, password)

	env.logger().Debug("adding index to auth config", "index", name, "username", username, "path", env.AuthConfig.Path())
	env.AuthConfig.AddEntry(name, username)
	return env.AuthConfig.Store()
}

// Status reports whether credentials resolve for a configured index.
type Status struct {
	Index          string
	Username       string
	HasCredentials bool
}

// List resolves credentials for every index that has a username in the
// auth config. Results keep the order of env.Indexes.
func List(ctx context.Context, env *Env) ([]Status, error) {
	var statuses []Status
	var targets []index.Index
	for _, idx := range env.Indexes {
		username, ok := env.AuthConfig.Username(idx.Name)
		if !ok {
			continue
		}
		statuses = append(statuses, Status{Index: idx.Name, Username: username})
		targets = append(targets, idx)
	}

	limit := env.Concurrency
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range targets {
		g.Go(func() error {
			creds := env.Resolver.Fetch(gctx, targets[i].URL, statuses[i].Username)
			statuses[i].HasCredentials = creds != nil
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return statuses, ctx.Err()
}

// Orphaned returns the auth config entries whose index is no longer
// configured, sorted by name.
func Orphaned(env *Env) []string {
	var orphans []string
	for _, name := range env.AuthConfig.Names() {
		if _, err := env.Indexes.Find(name); errors.Is(err, index.ErrIndexNotFound) {
			orphans = append(orphans, name)
		}
	}
	return orphans
}

// Get resolves credentials for u. Without an explicit username the one
// embedded in the URL is used. Userinfo is removed before the keyring
// lookup. A nil result with a nil error means nothing was found.
func Get(ctx context.Context, env *Env, u *url.URL, username string) (*credentials.Credentials, error) {
	if username == "" {
		if embedded := credentials.FromURL(u); embedded != nil {
			username, _ = embedded.Username()
		}
	}
	if username == "" {
		return nil, ErrNoUsername
	}
	return env.Resolver.Fetch(ctx, credentials.StripURL(u), username), nil
}

// Unset removes the keyring entry for the named index and drops it from the
// auth config. Without an explicit username the one recorded in the auth
// config is used, then the user is prompted.
func Unset(ctx context.Context, env *Env, name, username string) error {
	idx, err := env.Indexes.Find(name)
	if err != nil {
		return err
	}

	if username == "" {
		if stored, ok := env.AuthConfig.Username(name); ok && stored != "" {
			username = stored
		} else if username, err = ask(env.Prompter.Username, ErrNoUsername); err != nil {
			return err
		}
	}

	env.Resolver.Unset(ctx, idx.URL, username)

	if !env.AuthConfig.DeleteEntry(name) {
		env.logger().Debug("index not present in auth config", "index", name)
	}
	return env.AuthConfig.Store()
}

func ask(read func() (string, error), missing error) (string, error) {
	value, err := read()
	if err != nil {
		return "", fmt.Errorf("%w: %v", missing, err)
	}
	if value == "" {
		return "", missing
	}
	return value, nil
}
