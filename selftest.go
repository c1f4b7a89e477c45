package main

import (
	"fmt"
	"io"
	"strings"
)

// runSelfTest runs a table of concrete end-to-end scenarios in-process and
// reports PASS/FAIL for each to out, returning true iff all passed. This is
// the CLI's positional "test" argument: a built-in test harness reachable
// from the command line without exposing a Forth-visible test-harness word.
func runSelfTest(out io.Writer) bool {
	ok := true
	for _, tc := range selftestCases {
		if !tc.run(out) {
			ok = false
		}
	}
	if !runHexScenario(out) {
		ok = false
	}
	return ok
}

type selftestCase struct {
	name        string
	input       string
	wantStack   []int32
	wantAborted bool
}

// selftestCases exercises basic arithmetic, a user-defined word, a
// counted DO loop, an unknown-word abort, and FizzBuzz-style modular
// arithmetic; each runs from a freshly constructed VM.
var selftestCases = []selftestCase{
	{name: "1: 10 20 +", input: "10 20 +", wantStack: []int32{30}},
	{name: "2: 2 3 + 4 *", input: "2 3 + 4 *", wantStack: []int32{20}},
	{name: "3: 100 25 - 30 10 +", input: "100 25 - 30 10 +", wantStack: []int32{75, 40}},
	{name: "4: SQ", input: ": SQ DUP * ; 7 SQ", wantStack: []int32{49}},
	{name: "5: COUNT loop", input: ": COUNT 5 0 DO I LOOP ; COUNT", wantStack: []int32{0, 1, 2, 3, 4}},
	{name: "6: unknown word aborts", input: "42 UNKNOWN_WORD 100", wantStack: []int32{42}, wantAborted: true},
	{name: "8: FIZZ", input: ": FIZZ 3 MOD 0= ; 9 FIZZ", wantStack: []int32{-1}},
}

// runHexScenario checks that "255 HEX ." prints "FF ", then that DECIMAL
// restores the default radix. It is checked separately since it is an
// output, not a stack, assertion.
func runHexScenario(out io.Writer) bool {
	var got strings.Builder
	vm := New(WithOutput(&got))
	pass := true
	if err := vm.interpretLine("255 HEX ."); err != nil {
		pass = false
	}
	if got.String() != "FF " {
		pass = false
	}
	if err := vm.interpretLine("DECIMAL"); err != nil {
		pass = false
	}
	if vm.sys.base != 10 {
		pass = false
	}
	status := "PASS"
	if !pass {
		status = "FAIL"
	}
	fmt.Fprintf(out, "[%s] 7: 255 HEX . / DECIMAL: got output=%q base=%v\n", status, got.String(), vm.sys.base)
	return pass
}

func (tc selftestCase) run(out io.Writer) bool {
	var errOut strings.Builder
	vm := New(WithOutput(&errOut))
	if err := vm.interpretLine(tc.input); err != nil {
		fmt.Fprintf(out, "[FAIL] %s: halted: %v\n", tc.name, err)
		return false
	}

	got := make([]int32, vm.primary.data.depth())
	for i := range got {
		got[i] = vm.primary.data.peekAt(len(got) - 1 - i)
	}

	pass := vm.aborted == tc.wantAborted && equalCells(got, tc.wantStack)
	status := "PASS"
	if !pass {
		status = "FAIL"
	}
	fmt.Fprintf(out, "[%s] %s: got stack=%v aborted=%v\n", status, tc.name, got, vm.aborted)
	return pass
}

func equalCells(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
