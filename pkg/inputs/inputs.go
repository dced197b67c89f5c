// Package inputs reads the plain-text files handed over by the Stata side:
// free-form prompts, variable lists and summary reports.
package inputs

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrNoVariables is returned when a variable file has no non-blank lines.
	ErrNoVariables = errors.New("inputs: no variables found")
	// ErrEmpty is returned when a text file holds only whitespace.
	ErrEmpty = errors.New("inputs: file is empty")
)

// ReadError reports a file that could not be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// ReadRaw returns the file contents unmodified.
func ReadRaw(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is a caller-provided input file
	if err != nil {
		return "", &ReadError{Path: path, Err: err}
	}
	return string(data), nil
}

// ReadPrompt returns the trimmed contents of a prompt file. An empty prompt
// is valid and selects the general analysis template.
func ReadPrompt(path string) (string, error) {
	s, err := ReadRaw(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// ReadText returns the trimmed contents of path, or ErrEmpty.
func ReadText(path string) (string, error) {
	s, err := ReadPrompt(path)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", ErrEmpty
	}
	return s, nil
}

// ReadVariables returns the trimmed, non-blank lines of a variable file in
// file order.
func ReadVariables(path string) ([]string, error) {
	s, err := ReadRaw(path)
	if err != nil {
		return nil, err
	}

	vars := SplitLines(s)
	if len(vars) == 0 {
		return nil, ErrNoVariables
	}
	return vars, nil
}

// SplitLines returns the trimmed, non-blank lines of s.
func SplitLines(s string) []string {
	var out []string
	for line := range strings.Lines(s) {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
