package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const markdownWidth = 100

var (
	errorHeadingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")) // red
	errorDetailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))            // gray
)

// CleanReply trims surrounding whitespace from a model reply. With
// stripFences it also removes every ```stata and ``` marker.
func CleanReply(content string, stripFences bool) string {
	if stripFences {
		content = strings.ReplaceAll(content, "```stata", "")
		content = strings.ReplaceAll(content, "```", "")
	}
	return strings.TrimSpace(content)
}

// reporter writes a command's outcome to its output.
type reporter interface {
	// Reply writes the model's reply.
	Reply(text string)
	// Fail writes an error message: a heading followed by optional detail lines.
	Fail(heading string, details ...string)
}

// textReporter prints plain lines, or styled terminal output when a markdown
// renderer is set.
type textReporter struct {
	w  io.Writer
	md *glamour.TermRenderer
}

func newTextReporter(w io.Writer, markdown bool) *textReporter {
	r := &textReporter{w: w}
	if !markdown {
		return r
	}

	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(markdownWidth),
	)
	if err == nil {
		r.md = md
	}

	return r
}

func (r *textReporter) Reply(text string) {
	_, _ = fmt.Fprintln(r.w, r.render(text))
}

// render converts markdown to terminal output, falling back to the plain text.
func (r *textReporter) render(text string) string {
	if r.md == nil {
		return text
	}
	out, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func (r *textReporter) Fail(heading string, details ...string) {
	if r.md != nil {
		heading = errorHeadingStyle.Render(heading)
	}
	_, _ = fmt.Fprintln(r.w, heading)

	for _, d := range details {
		if r.md != nil {
			d = errorDetailStyle.Render(d)
		}
		_, _ = fmt.Fprintln(r.w, d)
	}
}

// jsonReporter prints the reply as-is and errors as {"error": "..."}.
type jsonReporter struct {
	w io.Writer
}

func (r jsonReporter) Reply(text string) {
	_, _ = fmt.Fprintln(r.w, text)
}

// Fail ignores details; the chat output carries a single message.
func (r jsonReporter) Fail(heading string, _ ...string) {
	PrintJSONError(r.w, heading)
}

// PrintJSONError writes {"error": msg} followed by a newline.
func PrintJSONError(w io.Writer, msg string) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(msg)

	_, _ = fmt.Fprintf(w, "{\"error\": %s}\n", bytes.TrimRight(buf.Bytes(), "\n"))
}
