package main

// System is the shared mutable state that sits outside any one execution
// context: HERE (via Space), the dictionary head, STATE, and BASE. Every
// context shares exactly one System; only a context's ip, stacks, and
// transient buffers are private to it.
type System struct {
	space    *Space
	symbols  symbols
	dictHead uint32
	state    int32
	base     int32

	// compiling is non-zero only while a `:`-definition is open; it is the
	// address of that definition's word record. Compilation is never
	// nested.
	compiling uint32

	loops []loopFrame

	// Cached addresses of the primitives that the compiler emits directly as
	// tokens, rather than by dictionary lookup. Populated once during
	// bootstrap, since the dictionary layout is fixed by the time the
	// builtins source runs.
	xtExit         uint32
	xtLit          uint32
	xtFlit         uint32
	xtBranch       uint32
	xt0Branch      uint32
	xtDoRT         uint32
	xtLoopRT       uint32
	xtPlusLoopRT   uint32
	xtLeaveRT      uint32
	xtDotQuoteRT   uint32
	xtAbortQuoteRT uint32
	xtSQuoteRT     uint32
}

type loopFrame struct {
	loopTop uint32
	leaves  []uint32
}

func newSystem(memSize uint32) *System {
	return &System{
		space: newSpace(memSize),
		base:  10,
		state: stateInterpret,
	}
}

// load/store/cLoad/cStore route through a context's transient buffers when
// addr falls in the reserved high range; otherwise they hit the shared
// data space. BASE and STATE intercept first, so they stay fetchable and
// storable without being backed by data-space memory.
func (sys *System) load(ctx *Context, addr uint32) int32 {
	switch addr {
	case sys.space.sysBaseAddr():
		return sys.base
	case sys.space.sysStateAddr():
		return sys.state
	}
	if buf, off, ok := ctx.transientBuf(sys.space, addr); ok {
		if int(off)+cellSize > len(buf) {
			panic(memoryError{"fetch", addr})
		}
		return getCell(buf[off : off+cellSize])
	}
	return sys.space.fetchAt(addr)
}

func (sys *System) store(ctx *Context, addr uint32, v int32) {
	switch addr {
	case sys.space.sysBaseAddr():
		sys.base = v
		return
	case sys.space.sysStateAddr():
		sys.state = v
		return
	}
	if buf, off, ok := ctx.transientBuf(sys.space, addr); ok {
		if int(off)+cellSize > len(buf) {
			panic(memoryError{"store", addr})
		}
		putCell(buf[off:off+cellSize], v)
		return
	}
	sys.space.storeAt(addr, v)
}

func (sys *System) cLoad(ctx *Context, addr uint32) byte {
	if buf, off, ok := ctx.transientBuf(sys.space, addr); ok {
		if int(off) >= len(buf) {
			panic(memoryError{"c_fetch", addr})
		}
		return buf[off]
	}
	return sys.space.cFetchAt(addr)
}

func (sys *System) cStore(ctx *Context, addr uint32, b byte) {
	if buf, off, ok := ctx.transientBuf(sys.space, addr); ok {
		if int(off) >= len(buf) {
			panic(memoryError{"c_store", addr})
		}
		buf[off] = b
		return
	}
	sys.space.cStoreAt(addr, b)
}

func (sys *System) loadInto(ctx *Context, addr uint32, dst []byte) {
	if buf, off, ok := ctx.transientBuf(sys.space, addr); ok {
		if int(off)+len(dst) > len(buf) {
			panic(memoryError{"load", addr})
		}
		copy(dst, buf[off:])
		return
	}
	sys.space.loadBytesAt(addr, dst)
}

func (sys *System) storeBytes(ctx *Context, addr uint32, src []byte) {
	if buf, off, ok := ctx.transientBuf(sys.space, addr); ok {
		if int(off)+len(src) > len(buf) {
			panic(memoryError{"store", addr})
		}
		copy(buf[off:], src)
		return
	}
	sys.space.storeBytesAt(addr, src)
}

func (sys *System) here() uint32 { return sys.space.here }
