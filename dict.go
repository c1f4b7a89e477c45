package main

import "fmt"

// Non-colon cfunc tags (see inner.go for the colon/threaded-execution
// case). Primitive ids occupy everything from cfuncPrimitiveBase up,
// indexing into the static primitive table (primitives.go).
const (
	cfuncColon = iota
	cfuncVariable
	cfuncValue
	cfuncCreate
	cfuncPrimitiveBase
)

type wordNotFoundError struct{ name string }

func (e wordNotFoundError) Error() string {
	return fmt.Sprintf("%s not found and not a number", e.name)
}

// allocateHeader reserves and fills in a word record's five cells, but
// does not link it into the dictionary; linkWord does that separately.
// Most callers want both, but definingWord needs the in-between address
// before the payload is written.
func (sys *System) allocateHeader(name string, flags uint32, cfunc int32, param int32) uint32 {
	addr := sys.space.allot(wordRecSize)
	sys.space.storeAt(addr+wordLinkOff, 0)
	sys.space.storeAt(addr+wordNameOff, int32(sys.symbols.symbolicate(name)))
	sys.space.storeAt(addr+wordFlagsOff, int32(flags))
	sys.space.storeAt(addr+wordCfuncOff, cfunc)
	sys.space.storeAt(addr+wordParamOff, param)
	return addr
}

// linkWord prepends addr to the dictionary, making it the new head.
func (sys *System) linkWord(addr uint32) {
	sys.space.storeAt(addr+wordLinkOff, int32(sys.dictHead))
	sys.dictHead = addr
}

func (sys *System) wordLink(addr uint32) uint32 { return uint32(sys.space.fetchAt(addr + wordLinkOff)) }
func (sys *System) wordName(addr uint32) uint32 { return uint32(sys.space.fetchAt(addr + wordNameOff)) }
func (sys *System) wordFlags(addr uint32) uint32 {
	return uint32(sys.space.fetchAt(addr + wordFlagsOff))
}
func (sys *System) wordCfunc(addr uint32) int32 { return sys.space.fetchAt(addr + wordCfuncOff) }
func (sys *System) wordParam(addr uint32) int32 { return sys.space.fetchAt(addr + wordParamOff) }

func (sys *System) setWordParam(addr uint32, v int32) { sys.space.storeAt(addr+wordParamOff, v) }
func (sys *System) setWordFlags(addr uint32, f uint32) {
	sys.space.storeAt(addr+wordFlagsOff, int32(f))
}

func (sys *System) isImmediate(addr uint32) bool {
	return sys.wordFlags(addr)&flagImmediate != 0
}

func (sys *System) wordNameString(addr uint32) string {
	return sys.symbols.string(uint(sys.wordName(addr)))
}

// find walks the dictionary head-first, comparing names case-insensitively;
// the first match wins ("most recent definition shadows earlier"). Raises
// word-not-found on miss.
func (sys *System) find(name string) uint32 {
	if addr := sys.search(name); addr != addrNone {
		return addr
	}
	panic(wordNotFoundError{name})
}

// search is find's non-raising twin, used by FIND, immediate checks, and
// the decompiler.
func (sys *System) search(name string) uint32 {
	id := sys.symbols.symbol(name)
	if id == 0 {
		return addrNone
	}
	for addr := sys.dictHead; addr != addrNone; addr = sys.wordLink(addr) {
		if sys.wordName(addr) == uint32(id) {
			return addr
		}
	}
	return addrNone
}

// createPrimitive allocates a record, links it, and points its cfunc at the
// primitive with the given id.
func (sys *System) createPrimitive(name string, id int) uint32 {
	addr := sys.allocateHeader(name, 0, int32(cfuncPrimitiveBase+id), int32(sys.here()))
	sys.linkWord(addr)
	return addr
}

func (sys *System) createImmediatePrimitive(name string, id int) uint32 {
	addr := sys.createPrimitive(name, id)
	sys.setWordFlags(addr, flagImmediate)
	return addr
}

// createVariable allocates a record whose param field IS its storage cell
// (initialized to initial); its cfunc pushes &param, so @/! operate
// directly on that cell.
func (sys *System) createVariable(name string, initial int32) uint32 {
	addr := sys.allocateHeader(name, 0, cfuncVariable, initial)
	sys.linkWord(addr)
	return addr
}

// createConstant allocates a record whose cfunc pushes param as a plain
// value; bootstrap uses it for BASE, STATE, and the PAD "area" word, whose
// constant is a fixed address outside the data space rather than an
// in-record one. CONSTANT itself goes through definingWord.
func (sys *System) createConstant(name string, value int32) uint32 {
	addr := sys.allocateHeader(name, 0, cfuncValue, value)
	sys.linkWord(addr)
	return addr
}

// definingWord is the shared kernel of `:`, `CREATE`, and `VARIABLE`: parse
// a name from input, allocate a record, link it, set its cfunc, and record
// param = HERE (the start of whatever payload the caller goes on to
// write). The record is linked immediately, not held back until `;`: a
// recursive call can already find itself in the dictionary before its body
// is complete.
func (vm *VM) definingWord(ctx *Context, cfunc int32) uint32 {
	name := vm.parseNameOrFail(ctx)
	addr := vm.sys.allocateHeader(name, 0, cfunc, 0)
	vm.sys.setWordParam(addr, int32(vm.sys.here()))
	vm.sys.linkWord(addr)
	return addr
}
