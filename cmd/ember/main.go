// Command ember dispatches between a REPL and single-file execution,
// translating the core interpreter's three-valued result into a process
// exit code. Compiling, running, and printing are all the core library's
// job; this file owns every side effect: reading argv, opening files,
// talking to the terminal, and calling os.Exit.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	ember "github.com/xirelogy/go-ember"
	"github.com/xirelogy/go-ember/internal/runconfig"
)

const (
	exitOK           = 0
	exitCompileError = 65
	exitRuntimeError = 70
	exitUsageError   = 64
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin *os.File, stdout, stderr *os.File) int {
	cfg, err := runconfig.Load("ember.yaml")
	if err != nil {
		fmt.Fprintf(stderr, "ember.yaml: %v\n", err)
		return exitUsageError
	}

	opts := []ember.Option{
		ember.WithOutput(stdout),
		ember.WithTrace(cfg.Trace),
		ember.WithDisassemble(cfg.Disassemble),
	}

	switch len(args) {
	case 0:
		runREPL(stdin, stdout, stderr, cfg.Prompt, opts...)
		return exitOK
	case 1:
		return runFile(args[0], stderr, opts...)
	default:
		fmt.Fprintln(stderr, "Usage: ember [path]")
		return exitUsageError
	}
}

func runFile(path string, stderr *os.File, opts ...ember.Option) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "ember: %v\n", err)
		return exitUsageError
	}

	result, err := ember.NewVM(opts...).Interpret(string(source))
	if err != nil {
		fmt.Fprintln(stderr, err)
	}

	switch result {
	case ember.ResultCompileError:
		return exitCompileError
	case ember.ResultRuntimeError:
		return exitRuntimeError
	default:
		return exitOK
	}
}

func runREPL(stdin, stdout, stderr *os.File, prompt string, opts ...ember.Option) {
	v := ember.NewVM(opts...)
	interactive := isatty.IsTerminal(stdin.Fd())
	scanner := bufio.NewScanner(stdin)

	for {
		if interactive {
			fmt.Fprint(stdout, prompt)
		}
		if !scanner.Scan() {
			return
		}
		if _, err := v.Interpret(scanner.Text()); err != nil {
			fmt.Fprintln(stderr, err)
		}
	}
}
