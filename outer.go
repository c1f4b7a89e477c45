package main

import (
	"math"
	"strconv"
	"strings"
)

// parseName implements parse-name: skip spaces, read until the next space,
// advancing >IN; an empty result means end-of-source.
func (vm *VM) parseName(ctx *Context) string {
	src := ctx.source
	n := ctx.sourceLen
	i := ctx.toIn
	for i < n && isSpace(src[i]) {
		i++
	}
	start := i
	for i < n && !isSpace(src[i]) {
		i++
	}
	ctx.toIn = i
	return string(src[start:i])
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\r' || b == '\n' }

// parseNameOrFail parses a name and raises an error if the source is
// exhausted; defining words and `'`/`[']` need a name to proceed.
func (vm *VM) parseNameOrFail(ctx *Context) string {
	name := vm.parseName(ctx)
	if name == "" {
		raiseAbort(compileStateError{"expected a name, got end of input"})
	}
	return name
}

// parseStringDelim implements parse-string(delim): from >IN, read until
// delim (not necessarily space); consume the delimiter if present; warns
// (not fatal) on missing delimiter.
func (vm *VM) parseStringDelim(ctx *Context, delim byte) string {
	src := ctx.source
	n := ctx.sourceLen
	i := ctx.toIn
	// Conventionally a single leading space before the string is skipped
	// (S" reads "S\" text\"", the space after S" is not part of the text).
	if i < n && src[i] == ' ' && delim != ' ' {
		i++
	}
	start := i
	for i < n && src[i] != delim {
		i++
	}
	end := i
	if i < n {
		i++ // consume delimiter
	} else {
		vm.logf("!", "missing %q terminator", delim)
	}
	ctx.toIn = i
	return string(src[start:end])
}

// stashInPad writes s's raw bytes into PAD and returns (addr, length).
func (vm *VM) stashInPad(ctx *Context, s string) (uint32, int) {
	addr := vm.sys.space.padBase()
	vm.sys.storeBytes(ctx, addr, []byte(s))
	return addr, len(s)
}

// stashCounted writes a Forth counted string (length byte, then bytes) into
// PAD and returns (addr, length); this is WORD's destination.
func (vm *VM) stashCounted(ctx *Context, s string) (uint32, int) {
	addr := vm.sys.space.padBase()
	if len(s) > padSize-1 {
		s = s[:padSize-1]
	}
	vm.sys.cStore(ctx, addr, byte(len(s)))
	vm.sys.storeBytes(ctx, addr+1, []byte(s))
	return addr, len(s)
}

func (vm *VM) writeString(s string) { vm.writeBytes([]byte(s)) }

// parseInt parses a signed integer in the current BASE: digits 0-9,
// A-Z/a-z up to BASE-1, optional leading sign, overflow is a hard reject
// (not wraparound). BASE outside 2..36 falls back to 10.
func (vm *VM) parseInt(token string) (int32, bool) {
	base := vm.sys.base
	if base < 2 || base > 36 {
		base = 10
	}
	if token == "" {
		return 0, false
	}
	neg := false
	s := token
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" {
		return 0, false
	}
	var acc int64
	for i := 0; i < len(s); i++ {
		d, ok := digitValue(s[i])
		if !ok || int32(d) >= base {
			return 0, false
		}
		acc = acc*int64(base) + int64(d)
		if acc > math.MaxUint32 {
			return 0, false
		}
	}
	if neg {
		acc = -acc
	}
	if acc > math.MaxInt32 || acc < math.MinInt32 {
		return 0, false
	}
	return int32(acc), true
}

func digitValue(b byte) (int, bool) {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0'), true
	case b >= 'A' && b <= 'Z':
		return int(b-'A') + 10, true
	case b >= 'a' && b <= 'z':
		return int(b-'a') + 10, true
	default:
		return 0, false
	}
}

// looksLikeFloat reports whether token should be tried against the liberal
// float parser: BASE=10 and the token contains '.', 'e', or 'E'.
func looksLikeFloat(token string) bool {
	return strings.ContainsAny(token, ".eE")
}

// parseFloat rejects NaN and Infinity literals.
func parseFloat(token string) (float64, bool) {
	v, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// formatInt prints v in the current BASE: a leading '-' followed by the
// magnitude digits, never a two's-complement representation.
func (vm *VM) formatInt(v int32) string {
	base := vm.sys.base
	if base < 2 || base > 36 {
		base = 10
	}
	neg := v < 0
	u := uint64(v)
	if neg {
		u = uint64(-int64(v))
	}
	s := strconv.FormatUint(u, int(base))
	s = strings.ToUpper(s)
	if neg {
		s = "-" + s
	}
	return s
}

// interpretText installs text into the input region, resets >IN, and runs
// interpret().
func (vm *VM) interpretText(ctx *Context, text string) {
	ctx.source = []byte(text)
	ctx.sourceLen = len(text)
	ctx.toIn = 0
	vm.interpret(ctx)
}

// interpret is the outer text interpreter's main loop.
func (vm *VM) interpret(ctx *Context) {
	for {
		name := vm.parseName(ctx)
		if name == "" {
			return
		}
		vm.interpretOne(ctx, name)
	}
}

// interpretOne dispatches a single parsed token: dictionary lookup first
// (immediate words execute unconditionally; found words execute or
// compile by STATE), then integer parse, then float parse, and finally
// the not-found diagnostic.
func (vm *VM) interpretOne(ctx *Context, name string) {
	sys := vm.sys
	if addr := sys.search(name); addr != addrNone {
		if sys.isImmediate(addr) {
			vm.invoke(ctx, addr)
			return
		}
		if sys.state == stateInterpret {
			vm.invoke(ctx, addr)
		} else {
			sys.space.comma(int32(addr))
		}
		return
	}

	if v, ok := vm.parseInt(name); ok {
		if sys.state == stateInterpret {
			ctx.data.push(v)
		} else {
			vm.compileLit(v)
		}
		return
	}

	if vm.floatEnabled && sys.base == 10 && looksLikeFloat(name) {
		if f, ok := parseFloat(name); ok {
			if sys.state == stateInterpret {
				ctx.floats.push(f)
			} else {
				vm.compileFlit(f)
			}
			return
		}
	}

	raiseAbort(numericParseError{name})
}
