// Command statai-interpret asks the model for an APA-style interpretation of
// a Stata summary-statistics report.
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

const usage = "Usage: statai-interpret [flags] <summary_file> <vars_file>"

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

	fs := flag.NewFlagSet("statai-interpret", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "%s\n\nFlags:\n", usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.configPath, "config", "", "path to configuration file (default: built-in settings)")
	fs.StringVar(&opts.envFile, "env", ".env", "path to .env file (ignored if missing)")
	fs.BoolVar(&opts.verbose, "verbose", false, "log the parsed report and request details to stderr")
	fs.BoolVar(&opts.markdown, "markdown", false, "render the reply as terminal markdown")

	rest, err := cliargs.Parse(fs, args)
	return opts, rest, err
}

func run(ctx context.Context, args []string, opts options, stdout, stderr io.Writer) int {
	if len(args) < 2 {
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

	eng.Interpret(ctx, args[0], args[1])
	return 0
}
