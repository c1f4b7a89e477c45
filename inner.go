package main

// dispatch executes exactly one word record's behavior: for a colon word
// this only sets up ip and possibly pushes the caller's saved ip; it does
// not loop. Looping is drain's job.
func (vm *VM) dispatch(ctx *Context, addr uint32) {
	sys := vm.sys
	cfunc := sys.wordCfunc(addr)
	if vm.logfn != nil {
		vm.logf(">", "@%v %s", addr, sys.wordNameString(addr))
	}
	switch cfunc {
	case cfuncColon:
		if ctx.ip != 0 {
			ctx.ret.push(ctx.ip)
		}
		ctx.ip = uint32(sys.wordParam(addr))
	case cfuncVariable:
		ctx.data.push(int32(addr + wordParamOff))
	case cfuncValue:
		ctx.data.push(sys.wordParam(addr))
	case cfuncCreate:
		ctx.data.push(sys.wordParam(addr))
	default:
		id := int(cfunc) - cfuncPrimitiveBase
		if id < 0 || id >= len(primitiveTable) {
			vm.halt(codeError{addr, cfunc})
		}
		primitiveTable[id].fn(vm, ctx)
	}
}

type codeError struct {
	addr  uint32
	cfunc int32
}

func (e codeError) Error() string { return "unknown cfunc" }

// drain repeatedly fetches the token at ip, advances ip by one cell, and
// dispatches it, stopping when ip becomes 0. EXIT, a primitive, is the
// only way ip becomes 0 from inside the loop.
func (vm *VM) drain(ctx *Context) {
	for ctx.ip != 0 {
		token := uint32(vm.sys.load(ctx, ctx.ip))
		ctx.ip += cellSize
		vm.dispatch(ctx, token)
	}
}

// invoke runs the word at addr to completion, whether called from the
// outer interpreter (top level) or from EXECUTE inside a running
// definition. It drains only when this call is itself the outermost
// activation — a nested colon call is instead carried forward by the
// enclosing drain loop's own iteration, with no Go-level recursion.
func (vm *VM) invoke(ctx *Context, addr uint32) {
	wasTop := ctx.ip == 0
	vm.dispatch(ctx, addr)
	if wasTop {
		vm.drain(ctx)
	}
}

// primExit pops the saved ip from the return stack, or sets ip = 0 if the
// return stack is empty.
func primExit(vm *VM, ctx *Context) {
	if ctx.ret.depth() == 0 {
		ctx.ip = 0
		return
	}
	ctx.ip = ctx.ret.pop()
}

// primExecute dispatches on an address taken from the data stack — the
// only way to invoke a word whose address was obtained dynamically.
func primExecute(vm *VM, ctx *Context) {
	addr := uint32(ctx.data.pop())
	vm.invoke(ctx, addr)
}

// primTick parses a name and pushes its address (the non-compiling `'`).
func primTick(vm *VM, ctx *Context) {
	name := vm.parseNameOrFail(ctx)
	ctx.data.push(int32(vm.sys.find(name)))
}

// primBracketTick is the compiling twin of `'`: parse at compile time and
// compile a LIT of the found address.
func primBracketTick(vm *VM, ctx *Context) {
	name := vm.parseNameOrFail(ctx)
	addr := vm.sys.find(name)
	vm.compileLit(int32(addr))
}
