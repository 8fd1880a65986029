// Command plc is the command-line entry point for the PLC pipeline: it
// owns file I/O and the process exit code, the external collaborators
// spec.md §1 deliberately keeps out of the core (SPEC_FULL.md §6.2).
package main

import (
	"fmt"
	"os"

	"flag"

	"github.com/plc-lang/plc/internal/analyzer"
	"github.com/plc-lang/plc/internal/ast"
	"github.com/plc-lang/plc/internal/common"
	"github.com/plc-lang/plc/internal/gen"
	"github.com/plc-lang/plc/internal/interp"
	"github.com/plc-lang/plc/internal/lexer"
	"github.com/plc-lang/plc/internal/parser"
	"github.com/plc-lang/plc/internal/token"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("plc", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: plc [flags] <file>\n")
		fs.PrintDefaults()
	}

	runFlag := fs.Bool("run", false, "interpret the program and exit with its returned code (default)")
	checkFlag := fs.Bool("check", false, "run the lexer/parser/analyzer only, report errors, exit 0/1")
	emitFlag := fs.Bool("emit-java", false, "transpile to the target language and print to stdout")
	out := fs.String("out", "", "write transpiled output to a file instead of stdout")

	config := &common.Config{}
	fs.BoolVar(&config.NoColor, "no-color", false, "disable ANSI diagnostic coloring (also honors $NO_COLOR)")
	fs.BoolVar(&config.Verbose, "verbose", false, "print pipeline stage counts (tokens, fields, methods) to stderr")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if config.NoColor {
		common.DisableColor()
	}

	if err := requireExactlyOneMode(*runFlag, *checkFlag, *emitFlag); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	filename := fs.Arg(0)

	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plc: %v\n", err)
		return 1
	}
	file := token.NewFile(filename, src)

	toks, err := lexer.Lex(string(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, common.Render(file, err))
		return 1
	}
	if config.Verbose {
		fmt.Fprintf(os.Stderr, "plc: %s: lexed %d tokens\n", filename, len(toks))
	}

	source, err := parser.Parse(toks)
	if err != nil {
		fmt.Fprintln(os.Stderr, common.Render(file, err))
		return 1
	}
	if config.Verbose {
		fmt.Fprintf(os.Stderr, "plc: %s: parsed %d field(s), %d method(s)\n", filename, len(source.Fields), len(source.Methods))
	}

	if err := analyzer.Analyze(source); err != nil {
		fmt.Fprintln(os.Stderr, common.Render(file, err))
		return 1
	}
	if config.Verbose {
		fmt.Fprintf(os.Stderr, "plc: %s: analysis OK\n", filename)
	}

	switch {
	case *checkFlag:
		return 0
	case *emitFlag:
		return emitJava(source, *out)
	default:
		return runInterpreter(source)
	}
}

func requireExactlyOneMode(run, check, emit bool) error {
	n := 0
	for _, b := range []bool{run, check, emit} {
		if b {
			n++
		}
	}
	if n > 1 {
		return fmt.Errorf("plc: at most one of -run, -check, -emit-java may be given")
	}
	return nil
}

func runInterpreter(source *ast.Source) int {
	program, err := interp.New(source, stdoutPrinter{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "plc: %v\n", err)
		return 1
	}
	code, err := program.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "plc: %v\n", err)
		return 1
	}
	return code
}

func emitJava(source *ast.Source, outPath string) int {
	sink := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "plc: %v\n", err)
			return 1
		}
		defer f.Close()
		sink = f
	}
	if err := gen.Generate(source, sink); err != nil {
		fmt.Fprintf(os.Stderr, "plc: %v\n", err)
		return 1
	}
	return 0
}

type stdoutPrinter struct{}

func (stdoutPrinter) Println(s string) { fmt.Println(s) }
