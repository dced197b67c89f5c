// Package summary parses the pipe-delimited summary-statistics report that
// Stata writes for the interpret command.
//
// The report is a header line, a separator line, then one line per variable:
//
//	name | obs | mean | std_dev | min | max
//
// Fields are kept as raw strings. Lines with fewer than six fields are
// dropped without error, since they cannot be told apart from sparse data.
package summary

import (
	"errors"
	"fmt"
	"strings"

	"github.com/germanamz/statai/pkg/inputs"
)

// fieldCount is the number of columns a data line must carry.
const fieldCount = 6

// ErrNoVariables is returned when the report is too short or no line
// survives field-count filtering.
var ErrNoVariables = errors.New("summary: no variables parsed")

// Record is one variable's row in the report.
type Record struct {
	Name   string
	Obs    string
	Mean   string
	StdDev string
	Min    string
	Max    string
}

// String renders the record in the compact form embedded in prompts.
func (r Record) String() string {
	return fmt.Sprintf("%s: n=%s, M=%s, SD=%s, Range=[%s, %s]", r.Name, r.Obs, r.Mean, r.StdDev, r.Min, r.Max)
}

// Parse returns the records of a report in encounter order.
func Parse(text string) ([]Record, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 3 {
		return nil, ErrNoVariables
	}

	var records []Record
	for _, line := range lines[2:] {
		parts := strings.Split(strings.TrimSuffix(line, "\r"), "|")
		if len(parts) < fieldCount {
			continue
		}

		for i := range fieldCount {
			parts[i] = strings.TrimSpace(parts[i])
		}

		records = append(records, Record{
			Name:   parts[0],
			Obs:    parts[1],
			Mean:   parts[2],
			StdDev: parts[3],
			Min:    parts[4],
			Max:    parts[5],
		})
	}

	if len(records) == 0 {
		return nil, ErrNoVariables
	}

	return records, nil
}

// ParseFile reads and parses a report. Read failures are *inputs.ReadError;
// parse failures are ErrNoVariables.
func ParseFile(path string) ([]Record, error) {
	text, err := inputs.ReadRaw(path)
	if err != nil {
		return nil, err
	}
	return Parse(text)
}

// Lines renders one String() line per record.
func Lines(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.String()
	}
	return out
}
