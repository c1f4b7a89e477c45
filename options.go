package main

import (
	"bytes"
	"io"
	"io/ioutil"

	"github.com/kisforth/kisforth/internal/flushio"
)

// New builds a *VM from options, then bootstraps the primitive word set and
// the built-in high-level definitions (builtins.go).
func New(opts ...VMOption) *VM {
	vm := &VM{
		sys:          newSystem(defaultMemSize),
		primary:      newContext("REPL"),
		floatEnabled: true,
	}
	defaultOptions.apply(vm)
	VMOptions(opts...).apply(vm)
	vm.bootstrap()
	return vm
}

// VMOption configures a *VM at construction time.
type VMOption interface{ apply(vm *VM) }

var defaultOptions = VMOptions(
	withInput(bytes.NewReader(nil)),
	withOutput(ioutil.Discard),
)

func WithInput(r io.Reader) VMOption         { return withInput(r) }
func WithOutput(w io.Writer) VMOption        { return withOutput(w) }
func WithTee(w io.Writer) VMOption           { return withTee(w) }
func WithMemLimit(limit uint32) VMOption     { return memLimitOption(limit) }
func WithFloatingPoint(enable bool) VMOption { return floatOption(enable) }
func WithInteractive(enable bool) VMOption   { return interactiveOption(enable) }
func WithLogf(logfn func(mess string, args ...interface{})) VMOption {
	return withLogfn(logfn)
}

// VMOptions flattens any number of options (including nested option lists)
// into one.
func VMOptions(opts ...VMOption) VMOption {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil, noption:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, opt)
		}
	}
	switch len(res) {
	case 0:
		return noption{}
	case 1:
		return res[0]
	default:
		return res
	}
}

type noption struct{}

func (noption) apply(vm *VM) {}

type options []VMOption

func (opts options) apply(vm *VM) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(vm)
		}
	}
}

type withLogfn func(mess string, args ...interface{})

func (logfn withLogfn) apply(vm *VM) { vm.logfn = logfn }

type inputOption struct{ io.Reader }
type outputOption struct{ io.Writer }
type teeOption struct{ io.Writer }
type memLimitOption uint32
type floatOption bool
type interactiveOption bool

func withInput(r io.Reader) inputOption   { return inputOption{r} }
func withOutput(w io.Writer) outputOption { return outputOption{w} }
func withTee(w io.Writer) teeOption       { return teeOption{w} }

func (i inputOption) apply(vm *VM) { vm.Queue = append(vm.Queue, i.Reader) }

func (o outputOption) apply(vm *VM) {
	if vm.out != nil {
		vm.out.Flush()
	}
	vm.out = flushio.NewWriteFlusher(o.Writer)
	if cl, ok := o.Writer.(io.Closer); ok {
		vm.closers = append(vm.closers, cl)
	}
}

func (o teeOption) apply(vm *VM) {
	vm.out = flushio.WriteFlushers(vm.out, flushio.NewWriteFlusher(o.Writer))
	if cl, ok := o.Writer.(io.Closer); ok {
		vm.closers = append(vm.closers, cl)
	}
}

func (lim memLimitOption) apply(vm *VM) {
	if lim != 0 {
		vm.sys.space.memSize = uint32(lim)
		vm.sys.space.bytes.Limit = uint(lim)
	}
}

func (f floatOption) apply(vm *VM) { vm.floatEnabled = bool(f) }

func (i interactiveOption) apply(vm *VM) { vm.interactive = bool(i) }
