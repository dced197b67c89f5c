// Package credential locates the DeepSeek API key.
//
// The key comes from the DEEPSEEK_API_KEY environment variable or, failing
// that, from the first candidate config file holding a DEEPSEEK_API_KEY=
// line. The environment and filesystem are injected so resolution can be
// tested without touching either.
package credential

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvVar is the highest-priority credential source.
	EnvVar = "DEEPSEEK_API_KEY"
	// FileName is the config file written by setkey and searched for by Resolve.
	FileName = "statai_config.txt"

	keyPrefix = EnvVar + "="
)

// discardLogger stands in for a nil Logger.
var discardLogger = slog.New(slog.DiscardHandler)

// ErrNotFound is returned when no source yields a key.
var ErrNotFound = errors.New("credential: API key not found")

// Credential is a resolved API key and where it came from.
type Credential struct {
	Key    string
	Source string // EnvVar or the path of the file that held the key.
}

// Resolver resolves a Credential from the environment and candidate files.
type Resolver struct {
	Getenv   func(key string) string
	ReadFile func(name string) ([]byte, error)
	Paths    []string
	Logger   *slog.Logger
}

// NewResolver returns a Resolver backed by the process environment and the
// real filesystem, searching DefaultPaths(home).
func NewResolver(home string) *Resolver {
	return &Resolver{
		Getenv:   os.Getenv,
		ReadFile: os.ReadFile,
		Paths:    DefaultPaths(home),
	}
}

// DefaultPaths returns the candidate config files in search order: the Stata
// personal ado directories on macOS and in Documents, ~/.stata, then the
// working directory.
func DefaultPaths(home string) []string {
	var paths []string
	if home != "" {
		paths = append(paths,
			filepath.Join(home, "Library", "Application Support", "Stata", "ado", "personal", FileName),
			filepath.Join(home, "Documents", "Stata", "ado", "personal", FileName),
			filepath.Join(home, ".stata", FileName),
		)
	}
	return append(paths, filepath.Join(".", FileName))
}

// DefaultStorePath is where setkey writes the key: the Stata personal ado
// directory under Documents, which every command searches.
func DefaultStorePath(home string) string {
	return filepath.Join(home, "Documents", "Stata", "ado", "personal", FileName)
}

// Resolve returns the first key found. Missing or unreadable files are
// skipped; ErrNotFound is returned only after every source is exhausted.
func (r *Resolver) Resolve() (Credential, error) {
	if r.Getenv != nil {
		if key := strings.TrimSpace(r.Getenv(EnvVar)); key != "" {
			return Credential{Key: key, Source: EnvVar}, nil
		}
	}

	readFile := r.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}

	for _, path := range r.Paths {
		data, err := readFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			r.logger().Warn("cannot read config file", "path", path, "error", err)
			continue
		}

		key, ok := ParseKeyFile(string(data))
		if !ok {
			r.logger().Warn("config file has no "+keyPrefix+" line", "path", path)
			continue
		}

		return Credential{Key: key, Source: path}, nil
	}

	return Credential{}, ErrNotFound
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return discardLogger
}

// ParseKeyFile returns the value of the first line starting with
// DEEPSEEK_API_KEY=. The value is everything after the first '=', with
// surrounding whitespace removed. An empty value counts as absent.
func ParseKeyFile(content string) (string, bool) {
	for line := range strings.Lines(content) {
		line = strings.TrimPrefix(line, "\ufeff")
		if !strings.HasPrefix(line, keyPrefix) {
			continue
		}

		_, value, _ := strings.Cut(line, "=")
		value = strings.TrimSpace(value)
		if value == "" {
			return "", false
		}
		return value, true
	}
	return "", false
}

// Store writes key to path in the format ParseKeyFile reads, creating parent
// directories as needed. The file is readable by its owner only.
func Store(path, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("credential: empty API key")
	}
	if strings.ContainsAny(key, "\r\n") {
		return errors.New("credential: API key must be a single line")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("credential: create config dir: %w", err)
	}

	if err := os.WriteFile(path, []byte(keyPrefix+key+"\n"), 0o600); err != nil {
		return fmt.Errorf("credential: write config: %w", err)
	}

	return nil
}
