package summary

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/germanamz/statai/pkg/inputs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const report = `Variable | Obs | Mean | Std. dev. | Min | Max
---------+-----+------+-----------+-----+----
   price |  74 | 6165.257 | 2949.496 | 3291 | 15906
     mpg |  74 | 21.2973  | 5.785503 |   12 |    41
`

func TestParse(t *testing.T) {
	got, err := Parse(report)
	require.NoError(t, err)

	assert.Equal(t, []Record{
		{Name: "price", Obs: "74", Mean: "6165.257", StdDev: "2949.496", Min: "3291", Max: "15906"},
		{Name: "mpg", Obs: "74", Mean: "21.2973", StdDev: "5.785503", Min: "12", Max: "41"},
	}, got)
}

func TestParse_TooFewLines(t *testing.T) {
	for _, text := range []string{"", "header", "header\n---", "\n\nheader\n---\n\n"} {
		_, err := Parse(text)
		assert.ErrorIs(t, err, ErrNoVariables, "%q", text)
	}
}

func TestParse_DropsShortLines(t *testing.T) {
	text := "h\n-\nshort | 1 | 2\n\nx | 1 | 2 | 3 | 4 | 5\n"

	got, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].Name)
}

func TestParse_NoSurvivors(t *testing.T) {
	_, err := Parse("h\n-\na | b\nc\n")
	assert.ErrorIs(t, err, ErrNoVariables)
}

func TestParse_ExtraFieldsIgnored(t *testing.T) {
	got, err := Parse("h\n-\nx|1|2|3|4|5|extra|more\n")
	require.NoError(t, err)
	assert.Equal(t, Record{Name: "x", Obs: "1", Mean: "2", StdDev: "3", Min: "4", Max: "5"}, got[0])
}

func TestParse_KeepsRawTextAndDuplicates(t *testing.T) {
	got, err := Parse("h\r\n-\r\nx | n/a | . | -- | 1e3 | abc\r\nx | 1 | 2 | 3 | 4 | 5\r\n")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, Record{Name: "x", Obs: "n/a", Mean: ".", StdDev: "--", Min: "1e3", Max: "abc"}, got[0])
	assert.Equal(t, "5", got[1].Max)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.txt")
	require.NoError(t, os.WriteFile(path, []byte(report), 0o600))

	got, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.txt"))

	var re *inputs.ReadError
	assert.ErrorAs(t, err, &re)
	assert.NotErrorIs(t, err, ErrNoVariables)
}

func TestRecord_String(t *testing.T) {
	r := Record{Name: "price", Obs: "74", Mean: "6165.257", StdDev: "2949.496", Min: "3291", Max: "15906"}
	assert.Equal(t, "price: n=74, M=6165.257, SD=2949.496, Range=[3291, 15906]", r.String())
}

func TestLines(t *testing.T) {
	got := Lines([]Record{{Name: "a", Obs: "1", Mean: "2", StdDev: "3", Min: "4", Max: "5"}})
	assert.Equal(t, []string{"a: n=1, M=2, SD=3, Range=[4, 5]"}, got)
	assert.Empty(t, Lines(nil))
}

func TestTable(t *testing.T) {
	out := Table([]Record{
		{Name: "price", Obs: "74", Mean: "6165.257", StdDev: "2949.496", Min: "3291", Max: "15906"},
		{Name: "所得", Obs: "5", Mean: "1", StdDev: "0", Min: "1", Max: "1"},
	})

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 4)

	assert.True(t, strings.HasPrefix(lines[0], "Variable |"))
	assert.True(t, strings.HasPrefix(lines[1], "---------+-"))
	assert.True(t, strings.HasPrefix(lines[2], "price    |"))
	// A double-width label pads to the same cell width.
	assert.True(t, strings.HasPrefix(lines[3], "所得     |"))
	assert.True(t, strings.HasSuffix(lines[2], "15906"))
	assert.True(t, strings.HasSuffix(lines[3], "    1"))
}
