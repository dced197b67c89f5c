// Command statai-setkey stores the DeepSeek API key in the config file the
// other statai commands read.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/germanamz/statai/pkg/cliargs"
	"github.com/germanamz/statai/pkg/credential"
	"github.com/mattn/go-isatty"
)

type options struct {
	path string
}

// keyPrompter asks the user for the key when none was passed as an argument.
type keyPrompter func() (string, error)

func main() {
	opts, args, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(1)
	}

	os.Exit(run(args, opts, stdinPrompter(os.Stdin), os.Stdout, os.Stderr))
}

func parseArgs(args []string, stderr io.Writer) (options, []string, error) {
	var opts options

	fs := flag.NewFlagSet("statai-setkey", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "Usage: statai-setkey [flags] [<api_key>]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.path, "path", "", "config file to write (default: ~/Documents/Stata/ado/personal/"+credential.FileName+")")

	rest, err := cliargs.Parse(fs, args)
	return opts, rest, err
}

func run(args []string, opts options, prompt keyPrompter, stdout, stderr io.Writer) int {
	path := opts.path
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		path = credential.DefaultStorePath(home)
	}

	var key string
	if len(args) > 0 {
		key = args[0]
	} else {
		var err error
		if key, err = prompt(); err != nil {
			_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
	}

	if err := credential.Store(path, key); err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	_, _ = fmt.Fprintf(stdout, "API key saved to %s\n", path)
	return 0
}

// stdinPrompter shows a masked input on a terminal and otherwise reads the
// first line of f.
func stdinPrompter(f *os.File) keyPrompter {
	return func() (string, error) {
		if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
			var key string
			err := huh.NewForm(huh.NewGroup(
				huh.NewInput().
					Title("DeepSeek API key").
					EchoMode(huh.EchoModePassword).
					Validate(validateKey).
					Value(&key),
			)).Run()
			return key, err
		}
		return readKeyLine(f)
	}
}

func readKeyLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func validateKey(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("API key is required")
	}
	return nil
}
