// Package prompt reads usernames and passwords from the controlling terminal.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoTerminal is returned when input is not an interactive terminal.
var ErrNoTerminal = errors.New("no terminal available for interactive input")

// Prompter asks the user for credentials. Prompts go to out, answers are
// read from in.
type Prompter struct {
	in  *os.File
	out io.Writer
}

// New returns a prompter reading stdin and writing prompts to stderr.
func New() *Prompter {
	return NewWith(os.Stdin, os.Stderr)
}

// NewWith returns a prompter over the given streams.
func NewWith(in *os.File, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out}
}

// Interactive reports whether input comes from a terminal.
func (p *Prompter) Interactive() bool {
	return term.IsTerminal(int(p.in.Fd()))
}

// Username asks for a username with echo enabled.
func (p *Prompter) Username() (string, error) {
	if !p.Interactive() {
		return "", ErrNoTerminal
	}

	fmt.Fprint(p.out, "Enter username: ")
	line, err := readLine(p.in)
	if err != nil {
		return "", fmt.Errorf("failed to read username: %w", err)
	}
	return line, nil
}

// Password asks for a password with echo disabled.
func (p *Prompter) Password() (string, error) {
	if !p.Interactive() {
		return "", ErrNoTerminal
	}

	fmt.Fprint(p.out, "Enter password: ")
	password, err := term.ReadPassword(int(p.in.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

// readLine reads up to and including the next newline one byte at a time,
// so nothing past the line is consumed and the password read that follows
// sees the rest of the input.
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n == 1 {
			if buf[0] == '\n' {
				break
			}
			sb.WriteByte(buf[0])
		}
		if errors.Is(err, io.EOF) {
			if sb.Len() == 0 {
				return "", err
			}
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimSuffix(sb.String(), "\r"), nil
}
