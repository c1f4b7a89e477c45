package main

import (
	"math"
	"strconv"
)

// primitive is one entry in the static table every primitive cfunc indexes
// into. name is used only at bootstrap time to create the dictionary entry;
// fn is the behavior dispatch (inner.go) invokes.
type primitive struct {
	name      string
	immediate bool
	fn        func(vm *VM, ctx *Context)
}

// Indices into primitiveTable that compile.go and builtins.go need to
// refer to directly, e.g. to emit a token for BRANCH when compiling IF.
// Kept as named constants in table-declaration order rather than looked
// up by name at every use.
const (
	idExit = iota
	idExecute
	idTick
	idBracketTick
	idLit
	idFlit
	idBranch
	id0Branch
	idDoRT
	idLoopRT
	idPlusLoopRT
	idLeaveRT
	idDotQuoteRT
	idAbortQuoteRT
	idSQuoteRT
)

var primitiveTable []primitive

func init() {
	primitiveTable = []primitive{
		idExit:         {"EXIT", false, primExit},
		idExecute:      {"EXECUTE", false, primExecute},
		idTick:         {"'", false, primTick},
		idBracketTick:  {"[']", true, primBracketTick},
		idLit:          {"LIT", false, primLit},
		idFlit:         {"FLIT", false, primFlit},
		idBranch:       {"BRANCH", false, primBranch},
		id0Branch:      {"0BRANCH", false, prim0Branch},
		idDoRT:         {"(DO)", false, primDoRuntime},
		idLoopRT:       {"(LOOP)", false, primLoopRuntime},
		idPlusLoopRT:   {"(+LOOP)", false, primPlusLoopRuntime},
		idLeaveRT:      {"(LEAVE)", false, primLeaveRuntime},
		idDotQuoteRT:   {`(.")`, false, primDotQuoteRuntime},
		idAbortQuoteRT: {`(ABORT")`, false, primAbortQuoteRuntime},
		idSQuoteRT:     {`(S")`, false, primSQuoteRuntime},

		// Arithmetic.
		{"+", false, primAdd},
		{"-", false, primSub},
		{"*", false, primMul},
		{"/", false, primDiv},
		{"NEGATE", false, primNegate},
		{"M*", false, primMStar},
		{"SM/REM", false, primSMSlashRem},
		{"FM/MOD", false, primFMMod},
		{"2*", false, primTwoStar},
		{"2/", false, primTwoSlash},

		// Stack. DUP and OVER are not here: they are colon definitions over
		// PICK (builtins.go).
		{"DROP", false, primDrop},
		{"SWAP", false, primSwap},
		{"ROT", false, primRot},
		{"PICK", false, primPick},
		{"ROLL", false, primRoll},
		{"DEPTH", false, primDepth},

		// Comparison.
		{"=", false, primEq},
		{"<", false, primLt},
		{"U<", false, primULt},
		{"0=", false, primZeroEq},
		{"0<", false, primZeroLt},

		// Bitwise.
		{"AND", false, primAnd},
		{"OR", false, primOr},
		{"XOR", false, primXor},
		{"INVERT", false, primInvert},
		{"LSHIFT", false, primLshift},
		{"RSHIFT", false, primRshift},

		// Memory.
		{"@", false, primFetch},
		{"!", false, primStore},
		{"C@", false, primCFetch},
		{"C!", false, primCStore},
		{"HERE", false, primHere},
		{"ALLOT", false, primAllot},
		{",", false, primComma},
		{"C,", false, primCComma},

		// Return stack.
		{">R", false, primToR},
		{"R>", false, primRFrom},
		{"R@", false, primRFetch},
		{"I", false, primI},
		{"J", false, primJ},
		{"UNLOOP", false, primUnloop},

		// Double-cell.
		{"D=", false, primDEq},
		{"D<", false, primDLt},
		{"DNEGATE", false, primDNegate},
		{"DABS", false, primDAbs},

		// I/O.
		{"EMIT", false, primEmit},
		{"KEY", false, primKey},
		{"TYPE", false, primType},
		{"ACCEPT", false, primAccept},

		// Defining words.
		{"CREATE", false, primCreate},
		{"VARIABLE", false, primVariable},
		{"CONSTANT", false, primConstant},

		// BASE / STATE transitions and bracket words.
		{"[", true, primLeftBracket},
		{"]", true, primRightBracket},

		// Parsing words.
		{"PARSE-NAME", false, primParseName},
		{"PARSE", false, primParse},
		{"WORD", false, primWord},
		{"FIND", false, primFind},

		// Error / abort machinery.
		{"ABORT", false, primAbort},
		{"QUIT", false, primQuit},
		{"?STACK", false, primQStack},

		// Floating point.
		{"F+", false, primFAdd},
		{"F-", false, primFSub},
		{"F*", false, primFMul},
		{"F/", false, primFDiv},
		{"FDUP", false, primFDup},
		{"FDROP", false, primFDrop},
		{"F.", false, primFDot},

		// Numeric output.
		{".", false, primDot},
	}
	registerCompilePrimitives()
}

// --- special inline-operand tokens ---

// primLit pushes the cell immediately following it in the thread and skips
// past it.
func primLit(vm *VM, ctx *Context) {
	v := vm.sys.load(ctx, ctx.ip)
	ctx.ip += cellSize
	ctx.data.push(v)
}

// primFlit is LIT's floating-point twin: two cells follow it, low half
// first, reassembled into one float64.
func primFlit(vm *VM, ctx *Context) {
	lo := uint32(vm.sys.load(ctx, ctx.ip))
	ctx.ip += cellSize
	hi := uint32(vm.sys.load(ctx, ctx.ip))
	ctx.ip += cellSize
	ctx.floats.push(math.Float64frombits(uint64(lo) | uint64(hi)<<32))
}

// primBranch jumps unconditionally to the address held in the cell
// following it.
func primBranch(vm *VM, ctx *Context) {
	ctx.ip = uint32(vm.sys.load(ctx, ctx.ip))
}

// prim0Branch jumps to the address held in the cell following it only if
// the popped flag is zero; otherwise it skips over that cell.
func prim0Branch(vm *VM, ctx *Context) {
	target := uint32(vm.sys.load(ctx, ctx.ip))
	ctx.ip += cellSize
	if ctx.data.pop() == 0 {
		ctx.ip = target
	}
}

// --- arithmetic ---

// primAdd/primSub/etc. operate in wraparound int32 arithmetic, matching a
// native 32-bit cell.
func primAdd(vm *VM, ctx *Context) { b, a := ctx.data.pop(), ctx.data.pop(); ctx.data.push(a + b) }
func primSub(vm *VM, ctx *Context) { b, a := ctx.data.pop(), ctx.data.pop(); ctx.data.push(a - b) }
func primMul(vm *VM, ctx *Context) { b, a := ctx.data.pop(), ctx.data.pop(); ctx.data.push(a * b) }

// primDiv implements native signed division (truncate toward zero).
func primDiv(vm *VM, ctx *Context) {
	b, a := ctx.data.pop(), ctx.data.pop()
	if b == 0 {
		raiseAbort(divisionByZeroError{"/"})
	}
	ctx.data.push(a / b)
}

func primNegate(vm *VM, ctx *Context) { ctx.data.push(-ctx.data.pop()) }

// primTwoStar/primTwoSlash are arithmetic (sign-preserving) shifts by one
// bit: 2/ rounds toward negative infinity for negative operands, unlike
// truncating division by 2.
func primTwoStar(vm *VM, ctx *Context)  { ctx.data.push(ctx.data.pop() << 1) }
func primTwoSlash(vm *VM, ctx *Context) { ctx.data.push(ctx.data.pop() >> 1) }

// primMStar forms a signed 64-bit product of two cells and pushes it as low
// cell then high cell.
func primMStar(vm *VM, ctx *Context) {
	b, a := ctx.data.pop(), ctx.data.pop()
	prod := int64(a) * int64(b)
	ctx.data.push(int32(uint64(prod)))
	ctx.data.push(int32(uint64(prod) >> 32))
}

// primSMSlashRem is the symmetric (truncating) double/single division
// primitive: ( d.lo d.hi n -- rem quot ), remainder takes the sign of the
// dividend.
func primSMSlashRem(vm *VM, ctx *Context) {
	n := ctx.data.pop()
	hi, lo := ctx.data.pop(), ctx.data.pop()
	if n == 0 {
		raiseAbort(divisionByZeroError{"SM/REM"})
	}
	d := int64(uint32(lo)) | int64(hi)<<32
	q := d / int64(n)
	r := d % int64(n)
	ctx.data.push(int32(r))
	ctx.data.push(int32(q))
}

// primFMMod is FM/MOD: converts SM/REM's symmetric result to floored
// semantics via "if remainder nonzero and signs of remainder and divisor
// differ, decrement quotient and add divisor to remainder".
func primFMMod(vm *VM, ctx *Context) {
	n := ctx.data.pop()
	hi, lo := ctx.data.pop(), ctx.data.pop()
	if n == 0 {
		raiseAbort(divisionByZeroError{"FM/MOD"})
	}
	d := int64(uint32(lo)) | int64(hi)<<32
	q := d / int64(n)
	r := d % int64(n)
	if r != 0 && (r < 0) != (int64(n) < 0) {
		q--
		r += int64(n)
	}
	ctx.data.push(int32(r))
	ctx.data.push(int32(q))
}

// --- stack ---

func primDrop(vm *VM, ctx *Context) { ctx.data.pop() }
func primSwap(vm *VM, ctx *Context) {
	b, a := ctx.data.pop(), ctx.data.pop()
	ctx.data.push(b)
	ctx.data.push(a)
}
func primRot(vm *VM, ctx *Context) {
	c, b, a := ctx.data.pop(), ctx.data.pop(), ctx.data.pop()
	ctx.data.push(b)
	ctx.data.push(c)
	ctx.data.push(a)
}

// primPick: "0 PICK" = DUP, "1 PICK" = OVER.
func primPick(vm *VM, ctx *Context) {
	u := uint32(ctx.data.pop())
	ctx.data.push(ctx.data.peekAt(int(u)))
}

// primRoll rotates the top u+1 items, bringing the u-deep item to the top.
func primRoll(vm *VM, ctx *Context) {
	u := int(uint32(ctx.data.pop()))
	v := ctx.data.peekAt(u)
	for i := u; i > 0; i-- {
		ctx.data.setAt(i, ctx.data.peekAt(i-1))
	}
	ctx.data.setAt(0, v)
}

func primDepth(vm *VM, ctx *Context) { ctx.data.push(int32(ctx.data.depth())) }

// --- comparison ---

func boolCell(b bool) int32 {
	if b {
		return -1
	}
	return 0
}

func primEq(vm *VM, ctx *Context) {
	b, a := ctx.data.pop(), ctx.data.pop()
	ctx.data.push(boolCell(a == b))
}
func primLt(vm *VM, ctx *Context) {
	b, a := ctx.data.pop(), ctx.data.pop()
	ctx.data.push(boolCell(a < b))
}
func primULt(vm *VM, ctx *Context) {
	b, a := ctx.data.pop(), ctx.data.pop()
	ctx.data.push(boolCell(uint32(a) < uint32(b)))
}
func primZeroEq(vm *VM, ctx *Context) { ctx.data.push(boolCell(ctx.data.pop() == 0)) }
func primZeroLt(vm *VM, ctx *Context) { ctx.data.push(boolCell(ctx.data.pop() < 0)) }

// --- bitwise ---

func primAnd(vm *VM, ctx *Context)    { b, a := ctx.data.pop(), ctx.data.pop(); ctx.data.push(a & b) }
func primOr(vm *VM, ctx *Context)     { b, a := ctx.data.pop(), ctx.data.pop(); ctx.data.push(a | b) }
func primXor(vm *VM, ctx *Context)    { b, a := ctx.data.pop(), ctx.data.pop(); ctx.data.push(a ^ b) }
func primInvert(vm *VM, ctx *Context) { ctx.data.push(^ctx.data.pop()) }
func primLshift(vm *VM, ctx *Context) {
	u := uint32(ctx.data.pop())
	a := ctx.data.pop()
	ctx.data.push(int32(uint32(a) << u))
}
func primRshift(vm *VM, ctx *Context) {
	u := uint32(ctx.data.pop())
	a := ctx.data.pop()
	ctx.data.push(int32(uint32(a) >> u))
}

// --- memory ---

func primFetch(vm *VM, ctx *Context) {
	addr := uint32(ctx.data.pop())
	ctx.data.push(vm.sys.load(ctx, addr))
}
func primStore(vm *VM, ctx *Context) {
	addr := uint32(ctx.data.pop())
	v := ctx.data.pop()
	vm.sys.store(ctx, addr, v)
}
func primCFetch(vm *VM, ctx *Context) {
	addr := uint32(ctx.data.pop())
	ctx.data.push(int32(vm.sys.cLoad(ctx, addr)))
}
func primCStore(vm *VM, ctx *Context) {
	addr := uint32(ctx.data.pop())
	v := ctx.data.pop()
	vm.sys.cStore(ctx, addr, byte(v))
}
func primHere(vm *VM, ctx *Context)   { ctx.data.push(int32(vm.sys.here())) }
func primAllot(vm *VM, ctx *Context)  { n := ctx.data.pop(); vm.sys.space.allot(uint32(n)) }
func primComma(vm *VM, ctx *Context)  { vm.sys.space.comma(ctx.data.pop()) }
func primCComma(vm *VM, ctx *Context) { vm.sys.space.cComma(byte(ctx.data.pop())) }

// --- return stack ---

// primToR/primRFrom/primRFetch are the naked R-stack access words; strict
// pairing within one colon definition is the caller's responsibility, not
// compiler-enforced.
func primToR(vm *VM, ctx *Context)    { ctx.ret.push(uint32(ctx.data.pop())) }
func primRFrom(vm *VM, ctx *Context)  { ctx.data.push(int32(ctx.ret.pop())) }
func primRFetch(vm *VM, ctx *Context) { ctx.data.push(int32(ctx.ret.peekAt(0))) }

// primI reads the top of the return stack (the innermost loop index).
func primI(vm *VM, ctx *Context) { ctx.data.push(int32(ctx.ret.peekAt(0))) }

// primJ reads the next-outer loop's index. Each DO pushes a (limit, index)
// pair with index on top, so the enclosing loop's index sits two cells past
// the inner pair: offset 0/1 are this loop's index/limit, offset 2 is the
// outer loop's index.
func primJ(vm *VM, ctx *Context) { ctx.data.push(int32(ctx.ret.peekAt(2))) }

// primUnloop discards the current loop-sys (limit, index) pair.
func primUnloop(vm *VM, ctx *Context) { ctx.ret.pop(); ctx.ret.pop() }

// --- double-cell ---

func doubleOf(hi, lo int32) int64        { return int64(uint32(lo)) | int64(hi)<<32 }
func splitDouble(d int64) (lo, hi int32) { return int32(uint64(d)), int32(uint64(d) >> 32) }

func primDEq(vm *VM, ctx *Context) {
	bHi, bLo := ctx.data.pop(), ctx.data.pop()
	aHi, aLo := ctx.data.pop(), ctx.data.pop()
	ctx.data.push(boolCell(doubleOf(aHi, aLo) == doubleOf(bHi, bLo)))
}
func primDLt(vm *VM, ctx *Context) {
	bHi, bLo := ctx.data.pop(), ctx.data.pop()
	aHi, aLo := ctx.data.pop(), ctx.data.pop()
	ctx.data.push(boolCell(doubleOf(aHi, aLo) < doubleOf(bHi, bLo)))
}
func primDNegate(vm *VM, ctx *Context) {
	hi, lo := ctx.data.pop(), ctx.data.pop()
	lo2, hi2 := splitDouble(-doubleOf(hi, lo))
	ctx.data.push(lo2)
	ctx.data.push(hi2)
}
func primDAbs(vm *VM, ctx *Context) {
	hi, lo := ctx.data.pop(), ctx.data.pop()
	d := doubleOf(hi, lo)
	if d < 0 {
		d = -d
	}
	lo2, hi2 := splitDouble(d)
	ctx.data.push(lo2)
	ctx.data.push(hi2)
}

// --- I/O ---

func primEmit(vm *VM, ctx *Context) { vm.writeRune(rune(byte(ctx.data.pop()))) }

func primKey(vm *VM, ctx *Context) { ctx.data.push(int32(vm.readRune())) }

// primType writes u bytes from addr, clipping at the data-space ceiling,
// never wrapping.
func primType(vm *VM, ctx *Context) {
	u := uint32(ctx.data.pop())
	addr := uint32(ctx.data.pop())
	if memSize := vm.sys.space.memSize; addr < memSize && addr+u > memSize {
		u = memSize - addr
	}
	buf := make([]byte, u)
	vm.sys.loadInto(ctx, addr, buf)
	vm.writeBytes(buf)
}

// primAccept reads up to n characters from the terminal into addr, honoring
// backspace and stopping on CR/LF; echoes characters; returns the actual
// count.
func primAccept(vm *VM, ctx *Context) {
	n := int(uint32(ctx.data.pop()))
	addr := uint32(ctx.data.pop())
	count := vm.accept(ctx, addr, n)
	ctx.data.push(int32(count))
}

// --- numeric output ---

// primDot prints the top of the data stack in the current BASE (leading
// '-' and magnitude digits for a negative value, never two's-complement),
// followed by a space.
func primDot(vm *VM, ctx *Context) {
	v := ctx.data.pop()
	vm.writeString(vm.formatInt(v))
	vm.writeRune(' ')
}

// --- defining words ---

// primCreate parses a name and defines a word that pushes the address of
// the data space immediately following its record; the caller typically
// ALLOTs or commas a payload there next.
func primCreate(vm *VM, ctx *Context) {
	vm.definingWord(ctx, cfuncCreate)
}

// primVariable defines a word whose storage cell is its own param field,
// initialized to zero; its behavior pushes that cell's address for @/! to
// operate on.
func primVariable(vm *VM, ctx *Context) {
	addr := vm.definingWord(ctx, cfuncVariable)
	vm.sys.setWordParam(addr, 0)
}

// primConstant pops the value to bind and defines a word that pushes it.
func primConstant(vm *VM, ctx *Context) {
	v := ctx.data.pop()
	addr := vm.definingWord(ctx, cfuncValue)
	vm.sys.setWordParam(addr, v)
}

// --- bracket words ---

func primLeftBracket(vm *VM, ctx *Context)  { vm.sys.state = stateInterpret }
func primRightBracket(vm *VM, ctx *Context) { vm.sys.state = stateCompile }

// --- parsing ---

func primParseName(vm *VM, ctx *Context) {
	name := vm.parseName(ctx)
	addr, n := vm.stashInPad(ctx, name)
	ctx.data.push(int32(addr))
	ctx.data.push(int32(n))
}

// primParse reads up to the delimiter on the data stack, without skipping
// leading delimiters, and pushes the parsed text as (addr, length) in PAD.
func primParse(vm *VM, ctx *Context) {
	delim := byte(ctx.data.pop())
	s := vm.parseStringDelim(ctx, delim)
	addr, n := vm.stashInPad(ctx, s)
	ctx.data.push(int32(addr))
	ctx.data.push(int32(n))
}

// primWord parses up to the next occurrence of the delimiter on the data
// stack, writes a counted string into PAD (which serves as the WORD
// buffer here; the context's separate WORD region is not used) and
// returns its address. Unlike parse-string, WORD first skips
// any leading delimiters, so "BL WORD name" lands on name rather than on
// the space that precedes it.
func primWord(vm *VM, ctx *Context) {
	delim := byte(ctx.data.pop())
	for ctx.toIn < ctx.sourceLen && ctx.source[ctx.toIn] == delim {
		ctx.toIn++
	}
	s := vm.parseStringDelim(ctx, delim)
	wordAddr, _ := vm.stashCounted(ctx, s)
	ctx.data.push(int32(wordAddr))
}

// primFind implements FIND ( c-addr -- c-addr 0 | xt 1 | xt -1 ): immediate
// words report -1, ordinary words report 1, an unknown name reports 0 and
// returns the original counted-string address unchanged.
func primFind(vm *VM, ctx *Context) {
	addr := uint32(ctx.data.pop())
	length := int(vm.sys.cLoad(ctx, addr))
	buf := make([]byte, length)
	vm.sys.loadInto(ctx, addr+1, buf)
	if xt := vm.sys.search(string(buf)); xt != addrNone {
		ctx.data.push(int32(xt))
		if vm.sys.isImmediate(xt) {
			ctx.data.push(-1)
		} else {
			ctx.data.push(1)
		}
		return
	}
	ctx.data.push(int32(addr))
	ctx.data.push(0)
}

// --- error / abort machinery ---

func primAbort(vm *VM, ctx *Context) { ctx.data.reset(); panic(quitSignal{}) }
func primQuit(vm *VM, ctx *Context)  { panic(quitSignal{}) }

// primQStack is the standard ?STACK precondition check: verifies n items
// are present without popping them.
func primQStack(vm *VM, ctx *Context) {
	n := int(uint32(ctx.data.pop()))
	if ctx.data.depth() < n {
		raiseAbort(stackUnderflowError{"data"})
	}
}

// --- floating point ---

func primFAdd(vm *VM, ctx *Context) {
	b, a := ctx.floats.pop(), ctx.floats.pop()
	ctx.floats.push(a + b)
}
func primFSub(vm *VM, ctx *Context) {
	b, a := ctx.floats.pop(), ctx.floats.pop()
	ctx.floats.push(a - b)
}
func primFMul(vm *VM, ctx *Context) {
	b, a := ctx.floats.pop(), ctx.floats.pop()
	ctx.floats.push(a * b)
}
func primFDiv(vm *VM, ctx *Context) {
	b, a := ctx.floats.pop(), ctx.floats.pop()
	if b == 0 {
		raiseAbort(divisionByZeroError{"F/"})
	}
	ctx.floats.push(a / b)
}
func primFDup(vm *VM, ctx *Context)  { a := ctx.floats.peekAt(0); ctx.floats.push(a) }
func primFDrop(vm *VM, ctx *Context) { ctx.floats.pop() }
func primFDot(vm *VM, ctx *Context) {
	v := ctx.floats.pop()
	vm.writeString(formatFloat(v))
	vm.writeRune(' ')
}

func formatFloat(v float64) string {
	if math.Trunc(v) == v && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10) + "."
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
