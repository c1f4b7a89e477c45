package main

import "math"

// compile.go implements the compiling / control-flow words: `:`/`;`,
// IF/ELSE/THEN, BEGIN/AGAIN/UNTIL/WHILE/REPEAT, DO/LOOP/+LOOP/LEAVE and
// their runtime counterparts, the string words `."`/`ABORT"`/`S"`, and the
// supplemental RECURSE. Each compiling word is immediate and uses the data
// stack for its fixup bookkeeping.

func registerCompilePrimitives() {
	primitiveTable = append(primitiveTable,
		primitive{":", true, primColon},
		primitive{";", true, primSemicolon},
		primitive{"IF", true, primIf},
		primitive{"ELSE", true, primElse},
		primitive{"THEN", true, primThen},
		primitive{"BEGIN", true, primBegin},
		primitive{"AGAIN", true, primAgain},
		primitive{"UNTIL", true, primUntil},
		primitive{"WHILE", true, primWhile},
		primitive{"REPEAT", true, primRepeat},
		primitive{"DO", true, primDo},
		primitive{"LOOP", true, primLoop},
		primitive{"+LOOP", true, primPlusLoop},
		primitive{"LEAVE", true, primLeave},
		primitive{"RECURSE", true, primRecurse},
		primitive{`."`, true, primDotQuote},
		primitive{`ABORT"`, true, primAbortQuote},
		primitive{`S"`, true, primSQuote},
	)
}

// compileLit emits a LIT token followed by the literal cell v.
func (vm *VM) compileLit(v int32) {
	sys := vm.sys
	sys.space.comma(int32(sys.xtLit))
	sys.space.comma(v)
}

// compileFlit emits an FLIT token followed by the double's two halves, low
// half first.
func (vm *VM) compileFlit(f float64) {
	sys := vm.sys
	bits := math.Float64bits(f)
	sys.space.comma(int32(sys.xtFlit))
	sys.space.comma(int32(uint32(bits)))
	sys.space.comma(int32(uint32(bits >> 32)))
}

// --- colon / semicolon ---

func primColon(vm *VM, ctx *Context) {
	sys := vm.sys
	if sys.compiling != 0 {
		raiseAbort(compileStateError{": cannot nest inside an open definition"})
	}
	addr := vm.definingWord(ctx, cfuncColon)
	sys.compiling = addr
	sys.state = stateCompile
}

func primSemicolon(vm *VM, ctx *Context) {
	sys := vm.sys
	if sys.compiling == 0 {
		raiseAbort(compileStateError{"; without an open :"})
	}
	sys.space.comma(int32(sys.xtExit))
	sys.compiling = 0
	sys.state = stateInterpret
}

// --- IF / ELSE / THEN ---

func primIf(vm *VM, ctx *Context) {
	sys := vm.sys
	sys.space.comma(int32(sys.xt0Branch))
	fixup := sys.here()
	sys.space.comma(0)
	ctx.data.push(int32(fixup))
}

func primElse(vm *VM, ctx *Context) {
	sys := vm.sys
	ifFixup := uint32(ctx.data.pop())
	sys.space.comma(int32(sys.xtBranch))
	elseFixup := sys.here()
	sys.space.comma(0)
	sys.space.storeAt(ifFixup, int32(sys.here()))
	ctx.data.push(int32(elseFixup))
}

func primThen(vm *VM, ctx *Context) {
	fixup := uint32(ctx.data.pop())
	vm.sys.space.storeAt(fixup, int32(vm.sys.here()))
}

// --- BEGIN / AGAIN / UNTIL / WHILE / REPEAT ---

func primBegin(vm *VM, ctx *Context) { ctx.data.push(int32(vm.sys.here())) }

func primAgain(vm *VM, ctx *Context) {
	sys := vm.sys
	target := uint32(ctx.data.pop())
	sys.space.comma(int32(sys.xtBranch))
	sys.space.comma(int32(target))
}

func primUntil(vm *VM, ctx *Context) {
	sys := vm.sys
	target := uint32(ctx.data.pop())
	sys.space.comma(int32(sys.xt0Branch))
	sys.space.comma(int32(target))
}

func primWhile(vm *VM, ctx *Context) {
	sys := vm.sys
	sys.space.comma(int32(sys.xt0Branch))
	fixup := sys.here()
	sys.space.comma(0)
	ctx.data.push(int32(fixup))
}

func primRepeat(vm *VM, ctx *Context) {
	sys := vm.sys
	whileFixup := uint32(ctx.data.pop())
	beginAddr := uint32(ctx.data.pop())
	sys.space.comma(int32(sys.xtBranch))
	sys.space.comma(int32(beginAddr))
	sys.space.storeAt(whileFixup, int32(sys.here()))
}

// --- DO / LOOP / +LOOP / LEAVE ---

func primDo(vm *VM, ctx *Context) {
	sys := vm.sys
	sys.space.comma(int32(sys.xtDoRT))
	if len(sys.loops) >= loopStackDepth {
		raiseAbort(compileStateError{"loop nesting too deep"})
	}
	sys.loops = append(sys.loops, loopFrame{loopTop: sys.here()})
}

func primLoop(vm *VM, ctx *Context) {
	sys := vm.sys
	frame := sys.popLoopFrame()
	sys.space.comma(int32(sys.xtLoopRT))
	sys.space.comma(int32(frame.loopTop))
	sys.patchLeaves(frame)
}

func primPlusLoop(vm *VM, ctx *Context) {
	sys := vm.sys
	frame := sys.popLoopFrame()
	sys.space.comma(int32(sys.xtPlusLoopRT))
	sys.space.comma(int32(frame.loopTop))
	sys.patchLeaves(frame)
}

func primLeave(vm *VM, ctx *Context) {
	sys := vm.sys
	if len(sys.loops) == 0 {
		raiseAbort(leaveOutsideLoopError{})
	}
	sys.space.comma(int32(sys.xtLeaveRT))
	fixup := sys.here()
	sys.space.comma(0)
	i := len(sys.loops) - 1
	if len(sys.loops[i].leaves) >= maxLeavePerFrame {
		raiseAbort(compileStateError{"too many LEAVEs in one loop"})
	}
	sys.loops[i].leaves = append(sys.loops[i].leaves, fixup)
}

func (sys *System) popLoopFrame() loopFrame {
	if len(sys.loops) == 0 {
		raiseAbort(leaveOutsideLoopError{})
	}
	i := len(sys.loops) - 1
	frame := sys.loops[i]
	sys.loops = sys.loops[:i]
	return frame
}

func (sys *System) patchLeaves(frame loopFrame) {
	end := sys.here()
	for _, fixup := range frame.leaves {
		sys.space.storeAt(fixup, int32(end))
	}
}

// primDoRuntime: pop start, limit from the data stack; push limit then
// start (index) onto the return stack, so I (top-of-return-stack) reads
// the index.
func primDoRuntime(vm *VM, ctx *Context) {
	start := ctx.data.pop()
	limit := ctx.data.pop()
	ctx.ret.push(uint32(limit))
	ctx.ret.push(uint32(start))
}

func primLoopRuntime(vm *VM, ctx *Context) {
	target := uint32(vm.sys.load(ctx, ctx.ip))
	ctx.ip += cellSize
	index := int32(ctx.ret.pop())
	limit := int32(ctx.ret.pop())
	index++
	if index == limit {
		return
	}
	ctx.ret.push(uint32(limit))
	ctx.ret.push(uint32(index))
	ctx.ip = target
}

// primPlusLoopRuntime implements the boundary-cross termination rule:
// the loop ends iff the half-open interval [old, old+n) (oriented by the
// sign of n) crosses limit; n == 0 never terminates.
func primPlusLoopRuntime(vm *VM, ctx *Context) {
	target := uint32(vm.sys.load(ctx, ctx.ip))
	ctx.ip += cellSize
	n := ctx.data.pop()
	index := int32(ctx.ret.pop())
	limit := int32(ctx.ret.pop())
	newIndex := index + n
	if loopCrosses(index, newIndex, limit, n) {
		return
	}
	ctx.ret.push(uint32(limit))
	ctx.ret.push(uint32(newIndex))
	ctx.ip = target
}

func loopCrosses(oldIndex, newIndex, limit, n int32) bool {
	if n == 0 {
		return false
	}
	return (oldIndex >= limit) != (newIndex >= limit)
}

func primLeaveRuntime(vm *VM, ctx *Context) {
	target := uint32(vm.sys.load(ctx, ctx.ip))
	ctx.ret.pop()
	ctx.ret.pop()
	ctx.ip = target
}

// --- RECURSE ---

// primRecurse compiles a token referencing the word currently being
// defined, resolved via the compiler's own "currently defining" pointer
// rather than dictionary lookup (`:` links the record at once, but the
// pointer does not depend on which word of that name a search finds).
func primRecurse(vm *VM, ctx *Context) {
	sys := vm.sys
	if sys.compiling == 0 {
		raiseAbort(compileStateError{"RECURSE outside of any definition"})
	}
	sys.space.comma(int32(sys.compiling))
}

// --- string words: ." / ABORT" / S" ---

// compileInlineString writes the shared layout: the runtime word, a cell
// holding the byte length, the raw bytes, then realigns HERE.
func (vm *VM) compileInlineString(xt uint32, s string) {
	sys := vm.sys
	sys.space.comma(int32(xt))
	sys.space.comma(int32(len(s)))
	for i := 0; i < len(s); i++ {
		sys.space.cComma(s[i])
	}
	sys.space.align()
}

// readInlineString reads the length-prefixed byte payload starting at
// ctx.ip, returning its text and the ip just past it (realigned).
func (vm *VM) readInlineString(ctx *Context) (string, uint32) {
	length := uint32(vm.sys.load(ctx, ctx.ip))
	strAddr := ctx.ip + cellSize
	buf := make([]byte, length)
	vm.sys.loadInto(ctx, strAddr, buf)
	return string(buf), alignUp(strAddr + length)
}

// readInlineStringAddr is readInlineString's address-only twin, used by
// S" so the runtime can push (addr, length) without copying.
func (vm *VM) readInlineStringAddr(ctx *Context) (addr, length, newIP uint32) {
	length = uint32(vm.sys.load(ctx, ctx.ip))
	addr = ctx.ip + cellSize
	newIP = alignUp(addr + length)
	return addr, length, newIP
}

func alignUp(a uint32) uint32 {
	if r := a % cellSize; r != 0 {
		a += cellSize - r
	}
	return a
}

// primDotQuote/primAbortQuote/primSQuote are immediate: in interpret state
// they act at once; in compile state they emit the inline layout read back
// by their *RT runtime twins.
func primDotQuote(vm *VM, ctx *Context) {
	s := vm.parseStringDelim(ctx, '"')
	if vm.sys.state == stateInterpret {
		vm.writeString(s)
		return
	}
	vm.compileInlineString(vm.sys.xtDotQuoteRT, s)
}

func primDotQuoteRuntime(vm *VM, ctx *Context) {
	s, newIP := vm.readInlineString(ctx)
	ctx.ip = newIP
	vm.writeString(s)
}

func primSQuote(vm *VM, ctx *Context) {
	s := vm.parseStringDelim(ctx, '"')
	if vm.sys.state == stateInterpret {
		addr, n := vm.stashInPad(ctx, s)
		ctx.data.push(int32(addr))
		ctx.data.push(int32(n))
		return
	}
	vm.compileInlineString(vm.sys.xtSQuoteRT, s)
}

func primSQuoteRuntime(vm *VM, ctx *Context) {
	addr, length, newIP := vm.readInlineStringAddr(ctx)
	ctx.ip = newIP
	ctx.data.push(int32(addr))
	ctx.data.push(int32(length))
}

func primAbortQuote(vm *VM, ctx *Context) {
	s := vm.parseStringDelim(ctx, '"')
	if vm.sys.state == stateInterpret {
		flag := ctx.data.pop()
		if flag != 0 {
			vm.writeString(s)
			ctx.data.reset()
			raiseAbort(nil)
		}
		return
	}
	vm.compileInlineString(vm.sys.xtAbortQuoteRT, s)
}

func primAbortQuoteRuntime(vm *VM, ctx *Context) {
	s, newIP := vm.readInlineString(ctx)
	ctx.ip = newIP
	flag := ctx.data.pop()
	if flag != 0 {
		vm.writeString(s)
		ctx.data.reset()
		raiseAbort(nil)
	}
}
