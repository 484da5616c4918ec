// Command texcalc expands CALC(...) calls inside the \[ ... \] blocks of a
// text document and writes the result to <input>.out.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"nickandperla.net/texcalc/internal/diag"
	"nickandperla.net/texcalc/pkg/texcalc"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("texcalc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: texcalc [flags] <input>\n")
		fs.PrintDefaults()
	}

	var (
		outPath     = fs.String("o", "", "Output path (default <input>.out)")
		template    = fs.String("evaluator", "", "Evaluator command, {} is replaced by the expression (env "+texcalc.EnvEvaluator+")")
		shell       = fs.Bool("shell", false, "Run the evaluator command through sh -c")
		timeout     = fs.Duration("timeout", 0, "Per-expression evaluator timeout (0 = none)")
		opName      = fs.String("op", texcalc.DefaultOperator, "Operator name")
		dbPath      = fs.String("db", "", "SQLite database for variables (empty = no persistence)")
		persistMode = fs.String("persist-mode", "always", "Persistence mode: never, read, or always")
		history     = fs.String("history", "", "Print the stored history of a variable and exit")
		colorMode   = fs.String("color", "auto", "Colored output: auto, always, or never")
		quiet       = fs.Bool("q", false, "Only print warnings and errors")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	color, ok := diag.ParseColorMode(*colorMode)
	if !ok {
		fmt.Fprintf(stderr, "Unknown color mode: %s (use auto, always, or never)\n", *colorMode)
		return 2
	}
	mode, ok := texcalc.ParsePersistMode(*persistMode)
	if !ok {
		fmt.Fprintf(stderr, "Unknown persist mode: %s (use never, read, or always)\n", *persistMode)
		return 2
	}
	reporter := diag.New(stdout, diag.WithColor(color), diag.WithQuiet(*quiet))
	errs := diag.New(stderr, diag.WithColor(color))

	opts := []texcalc.Option{
		texcalc.WithReporter(reporter),
		texcalc.WithOperatorName(*opName),
		texcalc.WithPersistMode(mode),
	}
	if *dbPath != "" {
		opts = append(opts, texcalc.WithSQLiteStore(*dbPath))
	}
	if *template == "" {
		*template = os.Getenv(texcalc.EnvEvaluator)
	}
	if *template == "" {
		*template = texcalc.DefaultCommandTemplate
	}
	opts = append(opts, texcalc.WithCommand(*template, *shell, *timeout))

	runtime := texcalc.New(opts...)
	defer runtime.Close()
	if err := runtime.Err(); err != nil {
		errs.Errorf("opening database: %v", err)
		return 1
	}

	if *history != "" {
		if *dbPath == "" {
			fmt.Fprintf(stderr, "-history requires -db\n")
			return 2
		}
		entries, err := runtime.History(*history, 0)
		if err != nil {
			errs.Errorf("%v", err)
			return 1
		}
		reporter.History(*history, entries)
		return 0
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	if _, err := runtime.ProcessFile(ctx, fs.Arg(0), *outPath); err != nil {
		errs.Errorf("%v", err)
		return 1
	}
	return 0
}
