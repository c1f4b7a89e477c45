package main

// builtinsSource is the fixed vocabulary compiled once at startup, after
// every primitive exists: the words that are just as naturally expressed
// in Forth itself as in Go, written as literal Forth text rather than a
// sequence of Go-level dictionary-construction calls.
//
// SWAP/ROT/DROP and the control-flow words already exist as primitives
// (primitives.go/compile.go); this source only adds what those don't
// already cover. DUP and OVER come first, since nearly everything below
// them leans on one or the other.
const builtinsSource = `
: DUP 0 PICK ;
: OVER 1 PICK ;

: 2DUP OVER OVER ;
: NIP SWAP DROP ;
: TUCK SWAP OVER ;
: 2DROP DROP DROP ;
: 2SWAP 3 ROLL 3 ROLL ;
: 2OVER 3 PICK 3 PICK ;
: ?DUP DUP IF DUP THEN ;

: TRUE -1 ;
: FALSE 0 ;

: NOT 0= ;
: <> = 0= ;
: > SWAP < ;
: <= > 0= ;
: >= < 0= ;
: U> SWAP U< ;
: U<= U> 0= ;
: U>= U< 0= ;
: WITHIN OVER - >R - R> U< ;

: 1+ 1 + ;
: 1- 1 - ;
: ABS DUP 0< IF NEGATE THEN ;
: MIN 2DUP > IF SWAP THEN DROP ;
: MAX 2DUP < IF SWAP THEN DROP ;
: MOD 2DUP / * - ;
: /MOD 2DUP MOD >R / R> SWAP ;
: */ >R M* R> SM/REM SWAP DROP ;
: */MOD >R M* R> SM/REM ;

: CELL+ 4 + ;
: CELLS 4 * ;
: CHAR+ 1+ ;
: CHARS ;
: +! DUP >R @ + R> ! ;
: 2! SWAP OVER ! CELL+ ! ;
: 2@ DUP CELL+ @ SWAP @ ;

: DECIMAL 10 BASE ! ;
: HEX 16 BASE ! ;
: BINARY 2 BASE ! ;
: OCTAL 8 BASE ! ;

: BL 32 ;
: CR 10 EMIT ;
: SPACE BL EMIT ;
: SPACES DUP 0 > IF 0 DO SPACE LOOP ELSE DROP THEN ;

: ALIGNED 3 + -4 AND ;
: ALIGN HERE ALIGNED HERE - ALLOT ;
: BOUNDS OVER + SWAP ;
`

// isFloatWord names the user-facing floating words withheld from the
// dictionary when the float set is disabled. FLIT stays linked either way:
// it is a compiler-emitted token, and nothing emits it without the float
// set.
func isFloatWord(name string) bool {
	switch name {
	case "F+", "F-", "F*", "F/", "FDUP", "FDROP", "F.":
		return true
	}
	return false
}

// bootstrap links every primitive into the dictionary, wires the special
// tokens the compiler emits directly (LIT, BRANCH, the loop/string
// runtimes), creates the BASE/STATE variables, and compiles
// builtinsSource. A definition left open, or STATE left in compile mode,
// at the end of that source is a build defect, not a user-facing Forth
// error, so it panics rather than aborting.
func (vm *VM) bootstrap() {
	sys := vm.sys
	addrByID := make([]uint32, len(primitiveTable))
	for i, p := range primitiveTable {
		if !vm.floatEnabled && isFloatWord(p.name) {
			continue
		}
		if p.immediate {
			addrByID[i] = sys.createImmediatePrimitive(p.name, i)
		} else {
			addrByID[i] = sys.createPrimitive(p.name, i)
		}
	}

	sys.xtExit = addrByID[idExit]
	sys.xtLit = addrByID[idLit]
	sys.xtFlit = addrByID[idFlit]
	sys.xtBranch = addrByID[idBranch]
	sys.xt0Branch = addrByID[id0Branch]
	sys.xtDoRT = addrByID[idDoRT]
	sys.xtLoopRT = addrByID[idLoopRT]
	sys.xtPlusLoopRT = addrByID[idPlusLoopRT]
	sys.xtLeaveRT = addrByID[idLeaveRT]
	sys.xtDotQuoteRT = addrByID[idDotQuoteRT]
	sys.xtAbortQuoteRT = addrByID[idAbortQuoteRT]
	sys.xtSQuoteRT = addrByID[idSQuoteRT]

	sys.createConstant("BASE", int32(sys.space.sysBaseAddr()))
	sys.createConstant("STATE", int32(sys.space.sysStateAddr()))
	sys.createConstant("PAD", int32(sys.space.padBase()))

	vm.interpretText(vm.primary, builtinsSource)
	if sys.compiling != 0 || sys.state != stateInterpret {
		panic("bootstrap: builtins source left compile state unbalanced")
	}
	vm.primary.reset()
}
