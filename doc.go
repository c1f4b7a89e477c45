/*
	Package main: kisforth -- a small threaded-code FORTH

kisforth is an interactive FORTH environment: an outer text interpreter
that parses whitespace-delimited tokens and either executes them or
compiles them into the dictionary, and an inner interpreter that threads
through the compiled token streams. A token is just the address of another
word's record in a flat, byte-addressed data space; a colon definition is
a sequence of such tokens terminated by EXIT.

The word set is the classic one: a dual-stack execution model (data and
return stacks, plus an optional float stack), a bump-allocated data space
addressed through HERE, immediate compiling words (IF/ELSE/THEN,
BEGIN/WHILE/REPEAT, DO/LOOP/+LOOP/LEAVE, the string words), and a
dictionary searched head-first so the most recent definition of a name
shadows earlier ones.

Run it and you get a REPL; pipe source into it and it behaves as a batch
interpreter; pass "test" as the one positional argument and it runs its
built-in scenario checks instead. See main.go for the flags (-mem-limit,
-trace, -dump, -config, -float).

As a library, construct a VM with New and the With* options (options.go)
and feed it source through Run or interpretLine. All mutable interpreter
state hangs off two records: System (the shared data space, dictionary,
STATE, and BASE) and Context (one activation's ip, stacks, transient
buffers, and input cursor), so additional execution contexts can share
one System without locking.
*/
package main
