package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A small fluent test builder: vmTest(name).withInput(...).expectX(...).run(t).

type vmTestCase struct {
	name      string
	opts      []VMOption
	input     string
	expect    []func(t *testing.T, vm *VM, output string)
	wantAbort bool
}

func vmTest(name string) vmTestCase { return vmTestCase{name: name} }

func (vmt vmTestCase) withInput(s string) vmTestCase {
	if vmt.input != "" {
		vmt.input += "\n"
	}
	vmt.input += s
	return vmt
}

func (vmt vmTestCase) withOptions(opts ...VMOption) vmTestCase {
	vmt.opts = append(vmt.opts, opts...)
	return vmt
}

func (vmt vmTestCase) expectStack(values ...int32) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM, output string) {
		got := make([]int32, vm.primary.data.depth())
		for i := range got {
			got[i] = vm.primary.data.peekAt(len(got) - 1 - i)
		}
		if values == nil {
			values = []int32{}
		}
		assert.Equal(t, values, got, "expected data stack (bottom to top)")
	})
	return vmt
}

func (vmt vmTestCase) expectDepth(n int) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM, output string) {
		assert.Equal(t, n, vm.primary.data.depth(), "expected data stack depth")
	})
	return vmt
}

func (vmt vmTestCase) expectOutput(s string) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM, output string) {
		assert.Equal(t, s, output, "expected output")
	})
	return vmt
}

func (vmt vmTestCase) expectOutputContains(s string) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM, output string) {
		assert.Contains(t, output, s, "expected output to contain")
	})
	return vmt
}

func (vmt vmTestCase) expectBase(base int32) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM, output string) {
		assert.Equal(t, base, vm.sys.base, "expected BASE")
	})
	return vmt
}

func (vmt vmTestCase) expectAborted() vmTestCase {
	vmt.wantAbort = true
	return vmt
}

func (vmt vmTestCase) expectTop(v int32) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM, output string) {
		assert.Equal(t, v, vm.primary.data.peekAt(0), "expected top of stack")
	})
	return vmt
}

func (vmt vmTestCase) run(t *testing.T) {
	t.Run(vmt.name, func(t *testing.T) {
		var out strings.Builder
		opts := append([]VMOption{WithOutput(&out)}, vmt.opts...)
		vm := New(opts...)
		err := vm.interpretLine(vmt.input)
		require.NoError(t, err, "unexpected halt error")

		assert.Equal(t, vmt.wantAbort, vm.aborted, "expected abort state")
		for _, exp := range vmt.expect {
			exp(t, vm, out.String())
		}
	})
}

// --- end-to-end scenarios: arithmetic, user-defined words, loops,
// aborts, radix switching, and modular arithmetic ---

func TestScenarios(t *testing.T) {
	vmTest("1: 10 20 +").
		withInput("10 20 +").
		expectStack(30).
		run(t)

	vmTest("2: 2 3 + 4 *").
		withInput("2 3 + 4 *").
		expectStack(20).
		run(t)

	vmTest("3: 100 25 - 30 10 +").
		withInput("100 25 - 30 10 +").
		expectStack(75, 40).
		run(t)

	vmTest("4: SQ").
		withInput(": SQ DUP * ; 7 SQ").
		expectStack(49).
		run(t)

	vmTest("5: COUNT").
		withInput(": COUNT 5 0 DO I LOOP ; COUNT").
		expectStack(0, 1, 2, 3, 4).
		run(t)

	vmTest("6: unknown word aborts before 100").
		withInput("42 UNKNOWN_WORD 100").
		expectStack(42).
		expectOutputContains("not found").
		expectAborted().
		run(t)

	vmTest("7: 255 HEX . / DECIMAL").
		withInput("255 HEX .").
		expectOutput("FF ").
		run(t)
	vmTest("7b: DECIMAL restores default radix").
		withInput("HEX DECIMAL").
		expectBase(10).
		run(t)

	vmTest("8: FIZZ").
		withInput(": FIZZ 3 MOD 0= ; 9 FIZZ").
		expectStack(-1).
		run(t)
}

// --- stack laws ---

func TestStackLaws(t *testing.T) {
	vmTest("SWAP").withInput("1 2 SWAP").expectStack(2, 1).run(t)
	vmTest("DUP").withInput("5 DUP").expectStack(5, 5).run(t)
	vmTest("OVER").withInput("1 2 OVER").expectStack(1, 2, 1).run(t)
	vmTest("ROT").withInput("1 2 3 ROT").expectStack(2, 3, 1).run(t)
}

// --- arithmetic laws ---

func TestArithmeticLaws(t *testing.T) {
	vmTest("a+b-b=a").withInput("7 3 + 3 -").expectStack(7).run(t)
	vmTest("a+0=a").withInput("9 0 +").expectStack(9).run(t)
	vmTest("a*1=a").withInput("9 1 *").expectStack(9).run(t)
}

// --- division taxonomy ---

func TestDivisionTaxonomy(t *testing.T) {
	// d = -7 as (lo=-7, hi=-1, the sign-extended double); n = 2.
	// SM/REM: remainder takes the sign of the dividend: -7 = 2*(-3) + (-1).
	vmTest("SM/REM negative dividend").
		withInput("-7 -1 2 SM/REM").
		expectStack(-1, -3).
		run(t)

	// FM/MOD: remainder takes the sign of the divisor: -7 = 2*(-4) + 1.
	vmTest("FM/MOD negative dividend").
		withInput("-7 -1 2 FM/MOD").
		expectStack(1, -4).
		run(t)
}

// --- dictionary monotonicity / lookup ---

func TestDictionaryShadowing(t *testing.T) {
	vmTest("most recent definition shadows").
		withInput(": FOO 1 ; : FOO 2 ; FOO").
		expectStack(2).
		run(t)
}

// --- control flow ---

func TestControlFlow(t *testing.T) {
	vmTest("IF/ELSE/THEN true branch").
		withInput(": T IF 1 ELSE 2 THEN ; -1 T").
		expectStack(1).
		run(t)

	vmTest("IF/ELSE/THEN false branch").
		withInput(": T IF 1 ELSE 2 THEN ; 0 T").
		expectStack(2).
		run(t)

	vmTest("BEGIN/UNTIL counts down").
		withInput(": DOWN BEGIN 1- DUP 0= UNTIL ; 3 DOWN").
		expectStack(0).
		run(t)

	vmTest("LEAVE exits loop early").
		withInput(": L 10 0 DO I DUP 3 = IF LEAVE THEN LOOP ; L").
		expectStack(0, 1, 2, 3).
		run(t)

	vmTest("+LOOP boundary cross").
		withInput(": L2 10 0 DO I 3 +LOOP ; L2").
		expectStack(0, 3, 6, 9).
		run(t)
}

// --- string words ---

func TestStringWords(t *testing.T) {
	vmTest(`S" round-trips address/length`).
		withInput(`: P S" hi" TYPE ; P`).
		expectOutput("hi").
		run(t)

	vmTest(`."  writes immediately`).
		withInput(`." hello"`).
		expectOutput("hello").
		run(t)

	vmTest(`ABORT" aborts on nonzero flag`).
		withInput(`-1 ABORT" boom"`).
		expectOutputContains("boom").
		expectAborted().
		expectDepth(0).
		run(t)

	vmTest(`ABORT" does not abort on zero flag`).
		withInput(`0 ABORT" boom" 7`).
		expectStack(7).
		run(t)
}

// --- RECURSE ---

func TestRecurse(t *testing.T) {
	vmTest("RECURSE computes factorial").
		withInput(": FACT DUP 1 > IF DUP 1- RECURSE * THEN ; 5 FACT").
		expectStack(120).
		run(t)
}

// --- FIND ---

func TestFind(t *testing.T) {
	vmTest("FIND reports 1 for an ordinary word").
		withInput(`BL WORD DUP FIND`).
		expectDepth(2).
		expectTop(1).
		run(t)

	vmTest("FIND reports -1 for an immediate word").
		withInput(`BL WORD IF FIND`).
		expectDepth(2).
		expectTop(-1).
		run(t)

	vmTest("FIND reports 0 for an unknown word").
		withInput(`BL WORD NOSUCHWORD FIND`).
		expectDepth(2).
		expectTop(0).
		run(t)
}

// --- allocation alignment ---

func TestAllocationAlignment(t *testing.T) {
	vmTest("ALIGN always leaves HERE cell-aligned").
		withInput("1 ALLOT ALIGN HERE 3 AND").
		expectStack(0).
		run(t)

	vmTest("ALIGN is idempotent once already aligned").
		withInput("ALIGN HERE ALIGN HERE -").
		expectStack(0).
		run(t)
}

// --- ' / EXECUTE address round-trip ---

func TestTickExecute(t *testing.T) {
	vmTest("' fetches an xt EXECUTE can invoke").
		withInput(": TRIPLE DUP DUP ; 5 ' TRIPLE EXECUTE").
		expectStack(5, 5, 5).
		run(t)
}

// --- defining words ---

func TestDefiningWords(t *testing.T) {
	vmTest("CREATE reserves addressable payload space").
		withInput("CREATE BUF 16 ALLOT HERE BUF -").
		expectStack(16).
		run(t)

	vmTest("VARIABLE stores and fetches").
		withInput("VARIABLE X 42 X ! X @").
		expectStack(42).
		run(t)

	vmTest("VARIABLE starts at zero").
		withInput("VARIABLE X X @").
		expectStack(0).
		run(t)

	vmTest("CONSTANT binds a value").
		withInput("7 CONSTANT SEVEN SEVEN SEVEN +").
		expectStack(14).
		run(t)

	vmTest("+! accumulates into a variable").
		withInput("VARIABLE X 5 X ! 3 X +! X @").
		expectStack(8).
		run(t)

	vmTest("2! and 2@ round-trip a cell pair").
		withInput("CREATE P 8 ALLOT 17 42 P 2! P 2@").
		expectStack(17, 42).
		run(t)
}

// --- transient regions ---

func TestPad(t *testing.T) {
	vmTest("PAD is byte-addressable scratch space").
		withInput("65 PAD C! 66 PAD 1+ C! PAD C@ PAD 1+ C@").
		expectStack(65, 66).
		run(t)

	vmTest("PAD lies above the data-space ceiling").
		withInput("PAD HERE U<").
		expectStack(0).
		run(t)
}

// --- numeric parsing policy ---

func TestNumericPolicy(t *testing.T) {
	vmTest("HEX digits parse in BASE 16").
		withInput("HEX FF").
		expectStack(255).
		run(t)

	vmTest("integer overflow is a hard reject").
		withInput("4294967296").
		expectOutputContains("not found").
		expectAborted().
		run(t)

	vmTest("negative magnitude printing in HEX").
		withInput("-255 HEX .").
		expectOutput("-FF ").
		run(t)

	vmTest("most negative cell survives parse").
		withInput("-2147483648").
		expectStack(-2147483648).
		run(t)
}

// --- stack shuffling extras ---

func TestPickRoll(t *testing.T) {
	vmTest("0 PICK is DUP").withInput("1 2 0 PICK").expectStack(1, 2, 2).run(t)
	vmTest("1 PICK is OVER").withInput("1 2 1 PICK").expectStack(1, 2, 1).run(t)
	vmTest("2 PICK reaches three deep").withInput("1 2 3 2 PICK").expectStack(1, 2, 3, 1).run(t)
	vmTest("2 ROLL is ROT").withInput("1 2 3 2 ROLL").expectStack(2, 3, 1).run(t)
	vmTest("WITHIN inside").withInput("5 1 10 WITHIN").expectStack(-1).run(t)
	vmTest("WITHIN outside").withInput("0 1 10 WITHIN").expectStack(0).run(t)
}

// --- double-cell words ---

func TestDoubleCell(t *testing.T) {
	vmTest("M* forms a signed 64-bit product").
		withInput("-1 3 M*").
		expectStack(-3, -1).
		run(t)

	vmTest("DNEGATE flips a double").
		withInput("-1 3 M* DNEGATE").
		expectStack(3, 0).
		run(t)

	vmTest("DABS of a negative double").
		withInput("-1 3 M* DABS").
		expectStack(3, 0).
		run(t)
}

// --- abort and quit ---

func TestAbortQuit(t *testing.T) {
	vmTest("ABORT empties the data stack").
		withInput("1 2 ABORT").
		expectStack().
		expectAborted().
		run(t)

	vmTest("QUIT leaves the data stack alone").
		withInput("1 2 QUIT").
		expectStack(1, 2).
		expectAborted().
		run(t)

	vmTest("division by zero aborts with a diagnostic").
		withInput("5 1 0 /").
		expectOutputContains("division by zero").
		expectAborted().
		run(t)

	vmTest("LEAVE outside a loop is a compile error").
		withInput(": BAD LEAVE ;").
		expectOutputContains("LEAVE").
		expectAborted().
		run(t)

	vmTest("nested colon is rejected").
		withInput(": A : B ;").
		expectOutputContains("nest").
		expectAborted().
		run(t)

	vmTest("semicolon without colon is rejected").
		withInput(";").
		expectOutputContains(";").
		expectAborted().
		run(t)
}

// --- floating point word set ---

func TestFloatingPoint(t *testing.T) {
	vmTest("float literal arithmetic prints").
		withInput("1.5 2.5 F+ F.").
		expectOutput("4. ").
		run(t)

	vmTest("float literal compiles into a definition").
		withInput(": FP 1.25 2.5 F* F. ; FP").
		expectOutput("3.125 ").
		run(t)

	vmTest("float parse only applies in BASE 10").
		withInput("HEX 1E5").
		expectStack(485).
		run(t)

	vmTest("disabled float set drops the words and the parse").
		withOptions(WithFloatingPoint(false)).
		withInput("1.5").
		expectOutputContains("not found").
		expectAborted().
		run(t)
}

// --- interactive REPL driver ---

func TestInteractivePrompt(t *testing.T) {
	var out strings.Builder
	vm := New(
		WithInput(strings.NewReader("1 2 +\n")),
		WithOutput(&out),
		WithInteractive(true),
	)
	require.NoError(t, vm.Run())
	assert.Equal(t, "ok> <1>\nok> ", out.String(),
		"expected a prompt, a depth indicator, and a final prompt")
}

func TestCompilePrompt(t *testing.T) {
	var out strings.Builder
	vm := New(
		WithInput(strings.NewReader(": SQ DUP *\n; 4 SQ .\n")),
		WithOutput(&out),
		WithInteractive(true),
	)
	require.NoError(t, vm.Run())
	assert.Equal(t, "ok> ] 16 ok> ", out.String(),
		"expected the prompt to reflect compile state mid-definition")
}

// --- memory discipline ---

func TestMemoryDiscipline(t *testing.T) {
	vmTest("ALLOT past the ceiling aborts").
		withOptions(WithMemLimit(8192)).
		withInput("10000 ALLOT").
		expectOutputContains("out of bounds").
		expectAborted().
		run(t)

	vmTest("unaligned cell fetch aborts").
		withInput("1 @").
		expectOutputContains("unaligned").
		expectAborted().
		run(t)

	vmTest("out-of-range fetch aborts").
		withInput("PAD 2000 + @").
		expectOutputContains("out of bounds").
		expectAborted().
		run(t)

	vmTest("comma stores a cell HERE and advances").
		withInput("HERE 1234 , @").
		expectStack(1234).
		run(t)

	vmTest("C, advances HERE by one byte").
		withInput("HERE 7 C, HERE SWAP -").
		expectStack(1).
		run(t)
}

// --- ' / compiled ['] ---

func TestBracketTick(t *testing.T) {
	vmTest("['] compiles the xt as a literal").
		withInput(": DBL DUP + ; : GETDBL ['] DBL ; 21 GETDBL EXECUTE").
		expectStack(42).
		run(t)
}

// --- dictionary and bootstrap invariants ---

func TestDictionaryMonotonicity(t *testing.T) {
	vm := New()
	seen := 0
	for addr := vm.sys.dictHead; addr != addrNone; addr = vm.sys.wordLink(addr) {
		link := vm.sys.wordLink(addr)
		require.True(t, link == addrNone || link < addr,
			"link must refer strictly earlier in the chain: @%v -> @%v", addr, link)
		seen++
		require.Less(t, seen, 10000, "dictionary traversal must terminate")
	}
	require.Greater(t, seen, 50, "expected a populated dictionary")
}

func TestBootstrapStateClosure(t *testing.T) {
	vm := New()
	assert.Equal(t, int32(stateInterpret), vm.sys.state, "STATE must be 0 after bootstrap")
	assert.Equal(t, uint32(0), vm.sys.compiling, "no definition may be left open")
	assert.Equal(t, uint32(0), vm.sys.here()%cellSize, "HERE must be cell-aligned")
	assert.Equal(t, int32(10), vm.sys.base, "BASE must default to 10")
}

// --- parsing words ---

func TestParsingWords(t *testing.T) {
	vmTest("PARSE-NAME pushes the next token's address and length").
		withInput("PARSE-NAME abcde TYPE").
		expectOutput("abcde").
		run(t)

	vmTest("PARSE reads to an arbitrary delimiter").
		withInput("41 PARSE hello) TYPE").
		expectOutput("hello").
		run(t)

	vmTest("WORD skips leading delimiters").
		withInput("BL WORD XYZZY C@").
		expectStack(5).
		run(t)
}
