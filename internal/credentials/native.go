package credentials

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/99designs/keyring"
)

// DefaultService is the keyring collection used by the native backend.
const DefaultService = "indexauth"

// NativeBackend stores entries in the platform keyring through
// 99designs/keyring instead of an external agent.
//
// Entries are keyed "service|username"; the username is kept in the item
// description so keyring browsers show who the entry belongs to.
type NativeBackend struct {
	ring   keyring.Keyring
	label  string
	logger *slog.Logger
}

// nativeBackends are the platform keyrings the native provider may open.
// keyring.FileBackend is left out so secrets never land in a file the
// process encrypts itself.
var nativeBackends = []keyring.BackendType{
	keyring.KeychainBackend,
	keyring.SecretServiceBackend,
	keyring.KWalletBackend,
	keyring.WinCredBackend,
}

func nativeConfig(serviceName string) keyring.Config {
	if serviceName == "" {
		serviceName = DefaultService
	}
	return keyring.Config{
		ServiceName:     serviceName,
		AllowedBackends: nativeBackends,
	}
}

// OpenNativeBackend opens the OS keyring under serviceName.
func OpenNativeBackend(serviceName string, logger *slog.Logger) (*NativeBackend, error) {
	cfg := nativeConfig(serviceName)
	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, err
	}
	return NewNativeBackend(ring, cfg.ServiceName, logger), nil
}

// NewNativeBackend wraps an already opened keyring.
func NewNativeBackend(ring keyring.Keyring, label string, logger *slog.Logger) *NativeBackend {
	return &NativeBackend{
		ring:   ring,
		label:  label,
		logger: orDiscard(logger),
	}
}

func nativeKey(service, username string) string { return service + "|" + username }

// Fetch reads the entry from the keyring.
func (n *NativeBackend) Fetch(_ context.Context, service, username string) (string, bool) {
	item, err := n.ring.Get(nativeKey(service, username))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			n.logger.Debug("no password in keyring", "service", service)
		} else {
			n.logger.Warn("failure reading from keyring", "service", service, "error", err)
		}
		return "", false
	}
	if !utf8.Valid(item.Data) {
		n.logger.Warn("failed to parse keyring entry", "service", service, "error", "invalid UTF-8")
		return "", false
	}
	return string(item.Data), true
}

// Store writes the entry, replacing any previous value.
func (n *NativeBackend) Store(_ context.Context, service, username, password string) {
	err := n.ring.Set(keyring.Item{
		Key:         nativeKey(service, username),
		Data:        []byte(password),
		Label:       n.label + " - " + service,
		Description: username,
	})
	if err != nil {
		n.logger.Debug("could not save password in keyring", "service", service, "error", err)
		return
	}
	n.logger.Debug("password successfully saved", "service", service)
}

// Delete removes the entry.
func (n *NativeBackend) Delete(_ context.Context, service, username string) {
	if err := n.ring.Remove(nativeKey(service, username)); err != nil {
		n.logger.Debug("could not remove entry in keyring", "service", service, "error", err)
		return
	}
	n.logger.Debug("keyring entry successfully removed", "service", service)
}
