// Command statai-chat forwards a single message to the model and prints the
// reply. Errors are printed as a JSON object on stdout.
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

type options struct {
	configPath string
	envFile    string
	verbose    bool
}

func main() {
	opts, args, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		engine.PrintJSONError(os.Stdout, err.Error())
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

	fs := flag.NewFlagSet("statai-chat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "Usage: statai-chat [flags] <message>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.configPath, "config", "", "path to configuration file (default: built-in settings)")
	fs.StringVar(&opts.envFile, "env", ".env", "path to .env file (ignored if missing)")
	fs.BoolVar(&opts.verbose, "verbose", false, "log request details to stderr")

	rest, err := cliargs.Parse(fs, args)
	return opts, rest, err
}

func run(ctx context.Context, args []string, opts options, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		engine.PrintJSONError(stdout, "No message provided")
		return 1
	}

	if err := engine.LoadDotEnv(opts.envFile); err != nil {
		engine.PrintJSONError(stdout, err.Error())
		return 1
	}

	cfg, err := engine.LoadConfigOrDefault(opts.configPath)
	if err != nil {
		engine.PrintJSONError(stdout, err.Error())
		return 1
	}

	eng, err := engine.New(cfg,
		engine.WithOutput(stdout),
		engine.WithLogger(engine.NewLogger(stderr, opts.verbose)),
	)
	if err != nil {
		engine.PrintJSONError(stdout, err.Error())
		return 1
	}

	eng.Chat(ctx, args[0])
	return 0
}
