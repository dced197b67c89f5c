// Package cliargs separates a command's own flags from its positional
// arguments so that positionals starting with "-" (negative numbers, free-form
// messages, odd file names) are never mistaken for flags.
package cliargs

import (
	"flag"
	"strings"
)

// Split returns the leading arguments that name flags defined on fs, and the
// remaining positional arguments. Scanning stops at "--" (which is dropped),
// at the first non-flag argument, or at the first argument that looks like a
// flag but is not defined on fs. A non-boolean flag written without "="
// consumes the following argument as its value.
func Split(fs *flag.FlagSet, args []string) (flags, rest []string) {
	i := 0
	for i < len(args) {
		arg := args[i]
		if arg == "--" {
			return args[:i], args[i+1:]
		}

		f := lookup(fs, arg)
		if f == nil {
			break
		}
		i++

		if strings.Contains(arg, "=") || isBool(f) {
			continue
		}
		if i < len(args) {
			i++
		}
	}

	return args[:i], args[i:]
}

// Parse splits args with Split and parses the flag part into fs.
func Parse(fs *flag.FlagSet, args []string) ([]string, error) {
	flags, rest := Split(fs, args)
	if err := fs.Parse(flags); err != nil {
		return nil, err
	}

	return rest, nil
}

func lookup(fs *flag.FlagSet, arg string) *flag.Flag {
	if len(arg) < 2 || arg[0] != '-' {
		return nil
	}

	name := strings.TrimPrefix(arg[1:], "-")
	name, _, _ = strings.Cut(name, "=")
	if name == "" || name[0] == '-' {
		return nil
	}

	return fs.Lookup(name)
}

func isBool(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}
