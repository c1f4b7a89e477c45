package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kisforth/kisforth/internal/config"
	"github.com/kisforth/kisforth/internal/console"
	"github.com/kisforth/kisforth/internal/logio"
)

// main wires the CLI together: flags, optional TOML config, the raw-mode
// console (when stdin is a TTY), trace logging, and the VM itself.
func main() {
	var (
		memLimit   uint
		trace      bool
		dump       bool
		configPath string
		floatOpt   boolFlag
	)
	flag.UintVar(&memLimit, "mem-limit", 0, "override the data-space ceiling, in bytes")
	flag.BoolVar(&trace, "trace", false, "enable word-dispatch trace logging")
	flag.BoolVar(&dump, "dump", false, "print a memory/dictionary dump after the run")
	flag.StringVar(&configPath, "config", "", "path to a TOML config file")
	flag.Var(&floatOpt, "float", "enable the floating-point word set (default true)")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFrom(configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if !flagPassed("mem-limit") && cfg.Memory.Size != 0 {
		memLimit = uint(cfg.Memory.Size)
	}
	if !flagPassed("trace") {
		trace = cfg.Trace.Enabled
	}
	floatEnabled := cfg.Float.Enabled
	if floatOpt.set {
		floatEnabled = floatOpt.value
	}

	if flag.Arg(0) == "test" {
		if !runSelfTest(os.Stdout) {
			os.Exit(1)
		}
		return
	}

	log := logio.Logger{}
	log.SetOutput(os.Stderr)
	defer os.Exit(log.ExitCode())

	opts := []VMOption{
		WithOutput(os.Stdout),
		WithFloatingPoint(floatEnabled),
	}
	if memLimit != 0 {
		opts = append(opts, WithMemLimit(uint32(memLimit)))
	}
	if trace {
		opts = append(opts, WithLogf(log.Leveledf("TRACE")))
	}

	if cons, err := console.New(os.Stdin); err == nil {
		defer cons.Close()
		opts = append(opts, WithInput(cons), WithInteractive(true))
	} else {
		opts = append(opts, WithInput(os.Stdin))
	}

	vm := New(opts...)
	defer vm.Close()

	if dump {
		defer vmDumper{vm: vm, out: os.Stderr}.dump()
	}

	log.ErrorIf(vm.Run())
}

func flagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// boolFlag is a flag.Value that additionally records whether it was set at
// all, so -float can override a config file default only when the flag
// was actually passed on the command line.
type boolFlag struct {
	value bool
	set   bool
}

func (b *boolFlag) String() string {
	if b == nil {
		return "false"
	}
	return fmt.Sprintf("%v", b.value)
}

func (b *boolFlag) Set(s string) error {
	switch s {
	case "true", "1", "t", "T", "TRUE", "True":
		b.value = true
	case "false", "0", "f", "F", "FALSE", "False":
		b.value = false
	default:
		return fmt.Errorf("invalid boolean value %q", s)
	}
	b.set = true
	return nil
}

func (b *boolFlag) IsBoolFlag() bool { return true }
