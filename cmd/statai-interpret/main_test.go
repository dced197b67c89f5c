package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_TooFewArgs(t *testing.T) {
	for _, args := range [][]string{nil, {"summary.txt"}} {
		var stdout, stderr bytes.Buffer

		code := run(context.Background(), args, options{}, &stdout, &stderr)

		assert.Equal(t, 1, code)
		assert.Equal(t, usage+"\n", stdout.String())
	}
}

func TestRun_VerboseLogsTable(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Prices averaged $6,165."}}]}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	summary := write("summary.txt", "Variable | Obs | Mean | SD | Min | Max\n---\nprice | 74 | 6165.257 | 2949.496 | 3291 | 15906\n")
	vars := write("vars.txt", "price: Price\n")
	cfg := write("statai.yaml", "provider:\n  base_url: "+srv.URL+"\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{summary, vars},
		options{configPath: cfg, envFile: filepath.Join(dir, ".env"), verbose: true}, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Equal(t, "\nPrices averaged $6,165.\n\n", stdout.String())
	assert.Contains(t, stderr.String(), "parsed summary statistics")
	assert.Contains(t, stderr.String(), "15906")
}

func TestRun_BadInputsExitZero(t *testing.T) {
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")},
		options{envFile: filepath.Join(dir, ".env")}, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "Error: Could not parse summary statistics or variables information")
}

func TestParseArgs_DashPaths(t *testing.T) {
	var stderr bytes.Buffer

	opts, args, err := parseArgs([]string{"-env", "x.env", "--", "-verbose", "-vars.txt"}, &stderr)

	require.NoError(t, err)
	assert.False(t, opts.verbose)
	assert.Equal(t, "x.env", opts.envFile)
	assert.Equal(t, []string{"-verbose", "-vars.txt"}, args)
}
