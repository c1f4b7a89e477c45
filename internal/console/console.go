// Package console implements the raw-mode terminal console that backs
// ACCEPT/KEY when stdin is a real TTY: raw mode disables the OS's own
// line discipline so that ACCEPT's own backspace/CR handling is the only
// echo that happens, avoiding a double echo.
package console

import (
	"errors"
	"os"

	"golang.org/x/term"
)

// ErrNoTTY is returned by New when f is not a terminal; the caller should
// fall back to plain buffered reads of f in that case.
var ErrNoTTY = errors.New("console: not a TTY")

// Console wraps a terminal file descriptor in raw mode. It implements
// io.Reader (reading raw bytes straight off the TTY) and io.Closer
// (restoring the terminal's original mode).
type Console struct {
	*os.File
	fd    int
	state *term.State
}

// New puts f into raw mode and returns a Console reading from it. Returns
// ErrNoTTY if f is not a terminal.
func New(f *os.File) (*Console, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNoTTY
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return &Console{File: f, fd: fd, state: state}, nil
}

// Name satisfies fileinput's optional Name() string interface, so
// diagnostics report "<console>" rather than the os.File's own path.
func (c *Console) Name() string { return "<console>" }

// Close restores the terminal to the mode it was in before New.
func (c *Console) Close() error {
	return term.Restore(c.fd, c.state)
}
