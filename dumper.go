package main

import (
	"fmt"
	"io"
)

// vmDumper prints a post-run snapshot of the VM: HERE/BASE/STATE, the data
// stack, and the dictionary walked head-first, following link until null.
type vmDumper struct {
	vm  *VM
	out io.Writer
}

func (d vmDumper) dump() {
	sys := d.vm.sys
	fmt.Fprintf(d.out, "# VM Dump\n")
	fmt.Fprintf(d.out, "  here:  %v\n", sys.here())
	fmt.Fprintf(d.out, "  base:  %v\n", sys.base)
	fmt.Fprintf(d.out, "  state: %v\n", sys.state)
	d.dumpStack()
	d.dumpDict()
}

func (d vmDumper) dumpStack() {
	ctx := d.vm.primary
	fmt.Fprintf(d.out, "  stack (top first):")
	for i := 0; i < ctx.data.depth(); i++ {
		fmt.Fprintf(d.out, " %v", ctx.data.peekAt(i))
	}
	fmt.Fprintln(d.out)
}

func (d vmDumper) dumpDict() {
	sys := d.vm.sys
	fmt.Fprintf(d.out, "# Dictionary (most recent first)\n")
	for addr := sys.dictHead; addr != addrNone; addr = sys.wordLink(addr) {
		name := sys.wordNameString(addr)
		cfunc := sys.wordCfunc(addr)
		kind := cfuncName(cfunc)
		mark := ""
		if sys.isImmediate(addr) {
			mark = " immediate"
		}
		fmt.Fprintf(d.out, "  @%-6d %-20s %-10s param=%v%s\n",
			addr, name, kind, sys.wordParam(addr), mark)
	}
}

func cfuncName(cfunc int32) string {
	switch cfunc {
	case cfuncColon:
		return "colon"
	case cfuncVariable:
		return "variable"
	case cfuncValue:
		return "value"
	case cfuncCreate:
		return "create"
	default:
		id := int(cfunc) - cfuncPrimitiveBase
		if id >= 0 && id < len(primitiveTable) {
			return "prim:" + primitiveTable[id].name
		}
		return "unknown"
	}
}
