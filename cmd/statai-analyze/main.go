// Command statai-analyze asks the model for Stata commands suited to a
// dataset's variables, optionally guided by a free-form request.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/germanamz/statai/pkg/cliargs"
	"github.com/germanamz/statai/pkg/engine"
)

const usage = "Usage: statai-analyze [flags] [<prompt_file>] <var_file>"

type options struct {
	configPath string
	envFile    string
	verbose    bool
	markdown   bool
}

func main() {
	opts, args, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, args, opts, os.Stdout, os.Stderr)
	cancel()

	os.Exit(code)
}

// parseArgs reads the leading flags. Everything from the first argument that
// is not one of them is positional, even when it starts with "-".
func parseArgs(args []string, stderr io.Writer) (options, []string, error) {
	var opts options

	fs := flag.NewFlagSet("statai-analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "%s\n\nFlags:\n", usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.configPath, "config", "", "path to configuration file (default: built-in settings)")
	fs.StringVar(&opts.envFile, "env", ".env", "path to .env file (ignored if missing)")
	fs.BoolVar(&opts.verbose, "verbose", false, "log request details to stderr")
	fs.BoolVar(&opts.markdown, "markdown", false, "render the reply as terminal markdown")

	rest, err := cliargs.Parse(fs, args)
	return opts, rest, err
}

// run executes the command and returns the process exit code. Only missing
// arguments, an unreadable prompt file or bad configuration exit non-zero.
func run(ctx context.Context, args []string, opts options, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		_, _ = fmt.Fprintln(stdout, usage)
		return 1
	}

	if err := engine.LoadDotEnv(opts.envFile); err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	cfg, err := engine.LoadConfigOrDefault(opts.configPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	eng, err := engine.New(cfg,
		engine.WithOutput(stdout),
		engine.WithLogger(engine.NewLogger(stderr, opts.verbose)),
		engine.WithMarkdown(opts.markdown),
	)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	// One argument is the variable file alone; two are prompt file then
	// variable file.
	var instruction, varFile string
	if len(args) == 1 {
		varFile = args[0]
	} else {
		var kind engine.Kind
		if instruction, kind = eng.ReadInstruction(args[0]); kind != engine.KindNone {
			return 1
		}
		varFile = args[1]
	}

	eng.Analyze(ctx, instruction, varFile)
	return 0
}
