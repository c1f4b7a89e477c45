package main

// accept implements ACCEPT: read characters into the buffer at addr
// (capacity n), echoing each one, erasing the previous character on
// backspace/delete, and stopping at CR, LF, or end-of-input without storing
// the terminator. Returns the number of characters actually stored.
//
// This is the software side of line editing; raw-mode terminal setup (so
// the OS's own line discipline doesn't also echo) is internal/console's
// job.
func (vm *VM) accept(ctx *Context, addr uint32, n int) int {
	count := 0
	for count < n {
		r := vm.readRune()
		switch r {
		case 0, '\r', '\n':
			return count
		case '\b', 0x7f:
			if count > 0 {
				count--
				vm.writeString("\b \b")
			}
		default:
			vm.sys.cStore(ctx, addr+uint32(count), byte(r))
			count++
			vm.writeRune(r)
		}
	}
	return count
}
