package credentials

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// fakeAgent writes a shell script standing in for the keyring agent. The
// script runs body with $DIR set to a scratch directory and returns the
// script path and that directory.
func fakeAgent(t *testing.T, body string) (string, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake agent is a POSIX shell script")
	}

	dir := t.TempDir()
	script := "#!/bin/sh\nDIR='" + dir + "'\n" + body + "\n"
	path := filepath.Join(dir, "agent")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write fake agent: %v", err)
	}
	return path, dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

const recordArgs = `printf '%s\n' "$@" > "$DIR/args"`

func TestSubprocessBackend_FetchSuccess(t *testing.T) {
	agent, dir := fakeAgent(t, recordArgs+"\nprintf 'hunter2\\n'")
	backend := NewSubprocessBackend(agent, nil)

	password, ok := backend.Fetch(context.Background(), "https://example.com/simple", "user")
	if !ok {
		t.Fatal("expected a password")
	}
	if password != "hunter2" {
		t.Errorf("password = %q, want %q", password, "hunter2")
	}
	if got, want := readFile(t, filepath.Join(dir, "args")), "get\nhttps://example.com/simple\nuser\n"; got != want {
		t.Errorf("args = %q, want %q", got, want)
	}
}

func TestSubprocessBackend_FetchTrimsOneNewline(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{name: "lf", output: `printf 'pw\n'`, want: "pw"},
		{name: "crlf", output: `printf 'pw\r\n'`, want: "pw"},
		{name: "no newline", output: `printf 'pw'`, want: "pw"},
		{name: "two newlines", output: `printf 'pw\n\n'`, want: "pw\n"},
		{name: "trailing space kept", output: `printf 'pw \n'`, want: "pw "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent, _ := fakeAgent(t, tt.output)
			password, ok := NewSubprocessBackend(agent, nil).Fetch(context.Background(), "svc", "user")
			if !ok {
				t.Fatal("expected a password")
			}
			if password != tt.want {
				t.Errorf("password = %q, want %q", password, tt.want)
			}
		})
	}
}

func TestSubprocessBackend_FetchNonZeroExit(t *testing.T) {
	var logs bytes.Buffer
	agent, _ := fakeAgent(t, "printf 'ignored\\n'\nexit 1")

	if _, ok := NewSubprocessBackend(agent, debugLogger(&logs)).Fetch(context.Background(), "svc", "user"); ok {
		t.Error("expected no password on non-zero exit")
	}
	if strings.Contains(logs.String(), "level=WARN") {
		t.Errorf("non-zero exit should not warn:\n%s", logs.String())
	}
}

func TestSubprocessBackend_FetchInvalidUTF8(t *testing.T) {
	var logs bytes.Buffer
	agent, _ := fakeAgent(t, `printf '\377\376\n'`)

	if _, ok := NewSubprocessBackend(agent, debugLogger(&logs)).Fetch(context.Background(), "svc", "user"); ok {
		t.Error("expected no password for invalid UTF-8 output")
	}
	if !strings.Contains(logs.String(), "level=WARN") {
		t.Errorf("expected a warning, got:\n%s", logs.String())
	}
}

func TestSubprocessBackend_FetchStdinClosed(t *testing.T) {
	agent, _ := fakeAgent(t, "cat\nprintf 'done\\n'")

	password, ok := NewSubprocessBackend(agent, nil).Fetch(context.Background(), "svc", "user")
	if !ok || password != "done" {
		t.Errorf("Fetch = (%q, %v), want (%q, true)", password, ok, "done")
	}
}

func TestSubprocessBackend_FetchForwardsStderr(t *testing.T) {
	var stderr bytes.Buffer
	agent, _ := fakeAgent(t, "echo 'agent complaint' >&2\nexit 1")

	NewSubprocessBackend(agent, nil, WithStderr(&stderr)).Fetch(context.Background(), "svc", "user")

	if !strings.Contains(stderr.String(), "agent complaint") {
		t.Errorf("stderr = %q, want agent output", stderr.String())
	}
}

func TestSubprocessBackend_MissingAgent(t *testing.T) {
	var logs bytes.Buffer
	missing := filepath.Join(t.TempDir(), "no-such-agent")
	backend := NewSubprocessBackend(missing, debugLogger(&logs))
	ctx := context.Background()

	if _, ok := backend.Fetch(ctx, "svc", "user"); ok {
		t.Error("expected no password when the agent is missing")
	}
	backend.Store(ctx, "svc", "user", "pw")
	backend.Delete(ctx, "svc", "user")

	if got := strings.Count(logs.String(), "failure running keyring command"); got != 3 {
		t.Errorf("expected 3 spawn warnings, got %d:\n%s", got, logs.String())
	}
}

func TestSubprocessBackend_Store(t *testing.T) {
	var logs bytes.Buffer
	agent, dir := fakeAgent(t, recordArgs+"\ncat > \"$DIR/stdin\"")

	NewSubprocessBackend(agent, debugLogger(&logs)).Store(context.Background(), "example.com", "user", "pa ss\nword")

	if got, want := readFile(t, filepath.Join(dir, "args")), "set\nexample.com\nuser\n"; got != want {
		t.Errorf("args = %q, want %q", got, want)
	}
	if got := readFile(t, filepath.Join(dir, "stdin")); got != "pa ss\nword" {
		t.Errorf("stdin = %q, want the exact password", got)
	}
	if !strings.Contains(logs.String(), "password successfully saved") {
		t.Errorf("expected success debug line, got:\n%s", logs.String())
	}
	if strings.Contains(logs.String(), "pa ss") {
		t.Errorf("password leaked into logs:\n%s", logs.String())
	}
}

func TestSubprocessBackend_StoreFailureIsDebugOnly(t *testing.T) {
	var logs bytes.Buffer
	agent, _ := fakeAgent(t, "cat > /dev/null\necho 'locked' >&2\nexit 3")

	NewSubprocessBackend(agent, debugLogger(&logs)).Store(context.Background(), "example.com", "user", "pw")

	out := logs.String()
	if !strings.Contains(out, "could not save password in keyring") {
		t.Errorf("expected failure debug line, got:\n%s", out)
	}
	if strings.Contains(out, "level=WARN") {
		t.Errorf("agent failure should not warn:\n%s", out)
	}
}

func TestSubprocessBackend_Delete(t *testing.T) {
	var logs bytes.Buffer
	agent, dir := fakeAgent(t, recordArgs+"\ncat > \"$DIR/stdin\"")

	NewSubprocessBackend(agent, debugLogger(&logs)).Delete(context.Background(), "example.com", "user")

	if got, want := readFile(t, filepath.Join(dir, "args")), "del\nexample.com\nuser\n"; got != want {
		t.Errorf("args = %q, want %q", got, want)
	}
	if got := readFile(t, filepath.Join(dir, "stdin")); got != "" {
		t.Errorf("stdin = %q, want empty", got)
	}
	if !strings.Contains(logs.String(), "keyring entry successfully removed") {
		t.Errorf("expected success debug line, got:\n%s", logs.String())
	}
}

func TestSubprocessBackend_CancelKillsAgent(t *testing.T) {
	agent, _ := fakeAgent(t, "exec sleep 30")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, ok := NewSubprocessBackend(agent, nil).Fetch(ctx, "svc", "user")
	if ok {
		t.Error("expected no password after cancellation")
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("fetch took %v, agent was not killed", elapsed)
	}
}

func TestResolver_SubprocessFallback(t *testing.T) {
	agent, dir := fakeAgent(t, `echo "$1 $2 $3" >> "$DIR/calls"
if [ "$1" = "get" ] && [ "$2" = "example.com" ]; then
	printf 'host-password\n'
	exit 0
fi
exit 1`)
	r := NewResolver(NewSubprocessBackend(agent, nil), nil)

	assertCredentials(t, r.Fetch(context.Background(), mustParse(t, "https://example.com/simple"), "user"), "user", "host-password")

	want := "get https://example.com/simple user\nget example.com user\n"
	if got := readFile(t, filepath.Join(dir, "calls")); got != want {
		t.Errorf("calls = %q, want %q", got, want)
	}
}

func TestNewSubprocessBackend_DefaultCommand(t *testing.T) {
	if got := NewSubprocessBackend("", nil).Command(); got != DefaultCommand {
		t.Errorf("Command() = %q, want %q", got, DefaultCommand)
	}
}
