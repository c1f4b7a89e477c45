package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/kisforth/kisforth/internal/fileinput"
	"github.com/kisforth/kisforth/internal/flushio"
	"github.com/kisforth/kisforth/internal/runeio"
)

// VM ties together the shared System, the primary (REPL) execution
// context, and the ambient I/O/logging plumbing.
type VM struct {
	logging
	fileinput.Input
	out     flushio.WriteFlusher
	closers []io.Closer

	sys     *System
	primary *Context

	floatEnabled bool

	// interactive turns on the REPL's prompt and post-line depth
	// indicator; left off for piped input, embedding, and tests so the
	// only output is what the program itself writes.
	interactive bool

	// aborted reports whether the most recent interpretLine call ended in
	// a recovered abort/precondition-violation panic, for callers (the
	// self-test harness, tests) that want to assert on it directly rather
	// than sniffing diagnostic output.
	aborted bool
}

// logging provides leveled trace output for word dispatch.
type logging struct {
	logfn func(mess string, args ...interface{})

	markWidth int
}

func (log *logging) logf(mark, mess string, args ...interface{}) {
	if log.logfn == nil {
		return
	}
	if n := log.markWidth - len(mark); n > 0 {
		for _, r := range mark {
			mark = strings.Repeat(string(r), n) + mark
			break
		}
	} else if n < 0 {
		log.markWidth = len(mark)
	}
	if len(args) > 0 {
		mess = fmt.Sprintf(mess, args...)
	}
	log.logfn("%v %v", mark, mess)
}

// haltError marks a fatal, non-Forth-level failure (typically an I/O
// error) that should terminate the whole VM run rather than merely abort
// the current line.
type haltError struct{ error }

func (err haltError) Error() string {
	if err.error != nil {
		return fmt.Sprintf("halted: %v", err.error)
	}
	return "halted"
}
func (err haltError) Unwrap() error { return err.error }

func (vm *VM) halt(err error) {
	func() {
		defer func() { recover() }()
		if vm.out != nil {
			if ferr := vm.out.Flush(); err == nil {
				err = ferr
			}
		}
	}()
	func() {
		defer func() { recover() }()
		vm.logf("#", "halt error: %v", err)
	}()
	panic(haltError{err})
}

func (vm *VM) writeRune(r rune) {
	if _, err := runeio.WriteANSIRune(vm.out, r); err != nil {
		vm.halt(err)
	}
}

// readRune reads one rune from the primary input queue, blocking until one
// is available; on EOF it returns 0, which is what KEY yields at
// end-of-input.
func (vm *VM) readRune() rune {
	if err := vm.out.Flush(); err != nil {
		vm.halt(err)
	}
	for {
		r, n, err := vm.Input.ReadRune()
		if err == io.EOF {
			return 0
		}
		if err != nil {
			vm.halt(err)
		}
		// A zero-width read with no error means Input has just moved on to
		// the next queued reader; keep reading from that one.
		if r == 0 && n == 0 {
			continue
		}
		return r
	}
}

func (vm *VM) writeBytes(p []byte) {
	if _, err := vm.out.Write(p); err != nil {
		vm.halt(err)
	}
}

// Close releases any closers registered by VMOptions (e.g. input files).
func (vm *VM) Close() (err error) {
	for i := len(vm.closers) - 1; i >= 0; i-- {
		if cerr := vm.closers[i].Close(); err == nil {
			err = cerr
		}
	}
	return err
}
