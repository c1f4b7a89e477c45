package main

// Context is a per-activation execution context: instruction pointer,
// stacks, transient buffers, and input-source cursor. Only addresses into
// the shared data space or into this context's own transient buffers ever
// appear here, never raw host pointers, so contexts are freely swappable.
type Context struct {
	ip uint32

	data   stack
	ret    retStack
	floats floatStack

	pad     [padSize]byte
	word    [wordBufSize]byte
	picture [pictureBufSize]byte

	source    []byte
	sourceLen int
	toIn      int

	name               string
	isInterruptHandler bool
}

// newContext builds a fresh, zeroed execution context. A process has one
// primary context (the REPL); additional ones may be created for
// callback-style invocation
func newContext(name string) *Context {
	ctx := &Context{name: name}
	ctx.data = newStack("data", dataStackDepth)
	ctx.ret = newRetStack("return", returnStackDepth)
	ctx.floats = newFloatStack("float", floatStackDepth)
	return ctx
}

func (ctx *Context) reset() {
	ctx.ip = 0
	ctx.data.reset()
	ctx.ret.reset()
	ctx.floats.reset()
	ctx.source = nil
	ctx.sourceLen = 0
	ctx.toIn = 0
}

// transientBuf returns the buffer backing addr, and addr's offset within
// it, if addr lies in this context's transient range; ok is false
// otherwise.
func (ctx *Context) transientBuf(sp *Space, addr uint32) (buf []byte, off uint32, ok bool) {
	switch {
	case addr >= sp.padBase() && addr < sp.wordBase():
		return ctx.pad[:], addr - sp.padBase(), true
	case addr >= sp.wordBase() && addr < sp.pictureBase():
		return ctx.word[:], addr - sp.wordBase(), true
	case addr >= sp.pictureBase() && addr < sp.transientEnd():
		return ctx.picture[:], addr - sp.pictureBase(), true
	default:
		return nil, 0, false
	}
}
