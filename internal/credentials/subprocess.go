package credentials

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultCommand is the agent invoked by the subprocess backend.
const DefaultCommand = "keyring"

const waitDelay = 2 * time.Second

// SubprocessBackend talks to an external keyring agent, one process per call.
//
// The agent accepts `get`, `set` and `del` subcommands followed by the
// service name and username. `get` prints the password followed by a
// newline; `set` reads it from stdin. A non-zero exit means the entry was
// not found or the operation failed.
type SubprocessBackend struct {
	command string
	stderr  io.Writer
	logger  *slog.Logger
}

// SubprocessOption configures a SubprocessBackend.
type SubprocessOption func(*SubprocessBackend)

// WithStderr sets where the agent's stderr goes during fetch. A nil writer
// leaves the default (os.Stderr).
func WithStderr(w io.Writer) SubprocessOption {
	return func(s *SubprocessBackend) {
		if w != nil {
			s.stderr = w
		}
	}
}

// NewSubprocessBackend creates a backend invoking command. An empty command
// uses DefaultCommand.
func NewSubprocessBackend(command string, logger *slog.Logger, opts ...SubprocessOption) *SubprocessBackend {
	if command == "" {
		command = DefaultCommand
	}
	s := &SubprocessBackend{
		command: command,
		stderr:  os.Stderr,
		logger:  orDiscard(logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Command returns the agent executable.
func (s *SubprocessBackend) Command() string {
	return s.command
}

// Fetch runs `<agent> get <service> <username>`.
func (s *SubprocessBackend) Fetch(ctx context.Context, service, username string) (string, bool) {
	var stdout bytes.Buffer
	cmd := s.agent(ctx, "get", service, username)
	cmd.Stdin = nil
	cmd.Stdout = &stdout
	cmd.Stderr = s.stderr

	if err := cmd.Start(); err != nil {
		s.logger.Warn("failure running keyring command", "command", s.command, "error", err)
		return "", false
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			s.logger.Debug("keyring command cancelled", "service", service, "error", ctx.Err())
			return "", false
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			s.logger.Debug("no password in keyring", "service", service, "exit_code", exitErr.ExitCode())
			return "", false
		}
		s.logger.Warn("failed to wait for keyring output", "command", s.command, "error", err)
		return "", false
	}

	out := stdout.Bytes()
	if !utf8.Valid(out) {
		s.logger.Warn("failed to parse response from keyring command", "command", s.command, "error", "invalid UTF-8")
		return "", false
	}

	return trimNewline(string(out)), true
}

// Store runs `<agent> set <service> <username>` with the password on stdin.
func (s *SubprocessBackend) Store(ctx context.Context, service, username, password string) {
	var stdout, stderr bytes.Buffer
	cmd := s.agent(ctx, "set", service, username)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		s.logger.Warn("failure running keyring command", "command", s.command, "error", err)
		return
	}
	if err := cmd.Start(); err != nil {
		s.logger.Warn("failure running keyring command", "command", s.command, "error", err)
		return
	}

	if _, err := io.WriteString(stdin, password); err != nil {
		s.logger.Warn("failure providing the password to keyring", "command", s.command, "error", err)
	}
	if err := stdin.Close(); err != nil {
		s.logger.Warn("failure flushing the password input to keyring", "command", s.command, "error", err)
	}

	if err := s.wait(ctx, cmd); err != nil {
		s.logger.Debug("could not save password in keyring", "service", service, "error", err, "stderr", strings.TrimSpace(stderr.String()))
		return
	}
	s.logger.Debug("password successfully saved", "service", service)
}

// Delete runs `<agent> del <service> <username>`.
func (s *SubprocessBackend) Delete(ctx context.Context, service, username string) {
	var stdout, stderr bytes.Buffer
	cmd := s.agent(ctx, "del", service, username)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		s.logger.Warn("failure running keyring command", "command", s.command, "error", err)
		return
	}
	if err := cmd.Start(); err != nil {
		s.logger.Warn("failure running keyring command", "command", s.command, "error", err)
		return
	}
	// The agent never reads stdin for del; close it so it sees EOF.
	_ = stdin.Close()

	if err := s.wait(ctx, cmd); err != nil {
		s.logger.Debug("could not remove entry in keyring", "service", service, "error", err, "stderr", strings.TrimSpace(stderr.String()))
		return
	}
	s.logger.Debug("keyring entry successfully removed", "service", service)
}

// agent builds the command for one agent invocation. Pipes still held open
// by grandchildren are abandoned after waitDelay once the agent exits or
// ctx is done.
func (s *SubprocessBackend) agent(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, s.command, args...)
	cmd.WaitDelay = waitDelay
	return cmd
}

// wait reaps cmd. Exit failures are returned for logging; other wait
// errors are logged here as warnings.
func (s *SubprocessBackend) wait(ctx context.Context, cmd *exec.Cmd) error {
	err := cmd.Wait()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		s.logger.Warn("failed to wait for keyring output", "command", s.command, "error", err)
	}
	return err
}

// trimNewline strips exactly one trailing line terminator.
func trimNewline(s string) string {
	if strings.HasSuffix(s, "\r\n") {
		return s[:len(s)-2]
	}
	return strings.TrimSuffix(s, "\n")
}
