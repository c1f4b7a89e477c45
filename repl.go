package main

import (
	"fmt"
	"strings"

	"github.com/kisforth/kisforth/internal/panicerr"
)

// Run drives the REPL to completion: read a line, interpret it, repeat
// until the input is exhausted or a fatal (halt) error occurs. It isolates
// each run behind internal/panicerr.Recover so a wayward panic anywhere in
// the VM surfaces as a plain error rather than crashing the process.
func (vm *VM) Run() error {
	return panicerr.Recover("repl", func() error {
		return vm.runLoop()
	})
}

func (vm *VM) runLoop() error {
	for {
		vm.prompt()
		line, ok := vm.readLine()
		if !ok {
			return vm.out.Flush()
		}
		if err := vm.interpretLine(line); err != nil {
			return err
		}
		vm.lineStatus()
	}
}

// prompt writes the state-reflecting prompt: "ok> " while interpreting,
// "] " while a definition is open.
func (vm *VM) prompt() {
	if !vm.interactive {
		return
	}
	if vm.sys.state == stateCompile {
		vm.writeString("] ")
	} else {
		vm.writeString("ok> ")
	}
	if err := vm.out.Flush(); err != nil {
		vm.halt(err)
	}
}

// lineStatus writes the post-line depth indicator when the data stack is
// nonempty.
func (vm *VM) lineStatus() {
	if !vm.interactive || vm.aborted {
		return
	}
	if depth := vm.primary.data.depth(); depth > 0 {
		vm.writeString(fmt.Sprintf("<%d>\n", depth))
	}
}

// readLine accumulates runes up to the next newline (or EOF), dropping
// carriage returns. Reports ok=false only when no more input remains at
// all (a trailing line with no newline is still returned).
func (vm *VM) readLine() (string, bool) {
	var buf strings.Builder
	for {
		r := vm.readRune()
		switch r {
		case 0:
			if buf.Len() == 0 {
				return "", false
			}
			return buf.String(), true
		case '\n':
			return buf.String(), true
		case '\r':
			// ignore
		default:
			buf.WriteRune(r)
		}
	}
}

// interpretLine runs one line through the outer interpreter, converting
// any panic into either a reported abort (the run continues) or a
// haltError (the run stops, err is non-nil).
func (vm *VM) interpretLine(line string) (err error) {
	vm.aborted = false
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if he, ok := r.(haltError); ok {
			err = he
			return
		}
		vm.aborted = true
		vm.handleAbort(r)
	}()
	if strings.TrimSpace(line) == "" {
		return nil
	}
	vm.interpretText(vm.primary, line)
	if vm.primary.data.depth() > 0 {
		vm.logf(" ", "ok (%d)", vm.primary.data.depth())
	} else {
		vm.logf(" ", "ok")
	}
	return nil
}

// handleAbort resets execution state after a non-fatal panic. Bare ABORT
// and ABORT" empty the data stack themselves before panicking (primAbort,
// primAbortQuote/primAbortQuoteRuntime); every other precondition
// violation (stack under/overflow, out-of-bounds or misaligned memory
// access, division by zero, an unrecognized token, a malformed compile)
// only prints its diagnostic and leaves whatever is already on the data
// stack for the programmer to inspect. Either way ip, the return stack,
// and compiler state return to a clean REPL-top baseline.
func (vm *VM) handleAbort(r interface{}) {
	switch e := r.(type) {
	case abortSignal:
		if e.err != nil {
			vm.writeString(e.err.Error())
			vm.writeRune('\n')
		}
	case quitSignal:
		// no message, data stack untouched
	case error:
		vm.writeString(e.Error())
		vm.writeRune('\n')
	default:
		panic(r)
	}
	vm.primary.ip = 0
	vm.primary.ret.reset()
	vm.sys.state = stateInterpret
	vm.sys.compiling = 0
}
