package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiBlue   = "\033[34m"
	ansiCyan   = "\033[36m"
	ansiWhite  = "\033[37m"
	ansiGray   = "\033[90m"
	ansiBold   = "\033[1m"
	detailWrap = 70
)

// colorEnabled controls whether ANSI colors are used. NO_COLOR disables
// them at startup.
var colorEnabled = os.Getenv("NO_COLOR") == ""

// DisableColors disables ANSI color output.
func DisableColors() { colorEnabled = false }

// EnableColors enables ANSI color output.
func EnableColors() { colorEnabled = true }

func paint(code, text string) string {
	if !colorEnabled || text == "" {
		return text
	}
	return code + text + ansiReset
}

func red(text string) string   { return paint(ansiRed, text) }
func blue(text string) string  { return paint(ansiBlue, text) }
func cyan(text string) string  { return paint(ansiCyan, text) }
func white(text string) string { return paint(ansiWhite, text) }
func gray(text string) string  { return paint(ansiGray, text) }
func bold(text string) string  { return paint(ansiBold, text) }

// Format renders the error for a terminal: header, source excerpt, detail,
// hint, example and documentation link.
func (e *Error) Format() string {
	var b strings.Builder
	e.writeHeader(&b)
	e.writeSource(&b)

	if e.Detail != "" {
		for _, line := range wrapDetail(e.Detail, detailWrap) {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteString("\n")
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s%s\n\n", cyan("Hint: "), e.Suggestion)
	}
	if e.Example != "" {
		fmt.Fprintf(&b, "  %s\n", cyan("Example:"))
		for _, line := range strings.Split(e.Example, "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
		b.WriteString("\n")
	}
	if e.DocURL != "" {
		fmt.Fprintf(&b, "  %s%s\n", gray("Learn more: "), blue(e.DocURL))
	}
	return b.String()
}

func (e *Error) writeHeader(b *strings.Builder) {
	b.WriteString("\n")
	if e.Code == "" {
		fmt.Fprintf(b, "%s%s\n\n", red(bold("ERROR: ")), white(e.Message))
		return
	}
	fmt.Fprintf(b, "%s%s%s\n\n", red(bold("ERROR ")), white(bold(e.Code+": ")), white(e.Message))
}

// writeSource prints the location and, for file errors with a line, the
// surrounding lines with an arrow and an optional column caret.
func (e *Error) writeSource(b *strings.Builder) {
	if e.Location == nil {
		return
	}
	fmt.Fprintf(b, "  %s\n\n", cyan(e.Location.String()))
	if len(e.Source) == 0 {
		return
	}

	for i, line := range e.Source {
		n := e.SourceLine + i
		if n != e.Location.Line {
			fmt.Fprintf(b, "    %4d%s%s\n", n, gray(" │ "), line)
			continue
		}
		fmt.Fprintf(b, "  %s%4d%s%s\n", red("→ "), n, gray(" │ "), line)
		if e.Location.Column > 0 {
			fmt.Fprintf(b, "       %s%s%s\n", gray("│ "), strings.Repeat(" ", e.Location.Column-1), red("^"))
		}
	}
	b.WriteString("\n")
}

type jsonLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

type jsonError struct {
	Code       string        `json:"code,omitempty"`
	Category   Category      `json:"category"`
	Message    string        `json:"message"`
	Detail     string        `json:"detail,omitempty"`
	Location   *jsonLocation `json:"location,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
	DocURL     string        `json:"docUrl,omitempty"`
}

// FormatJSON returns the error as a single-line JSON object, for editor
// integrations and CI logs.
func (e *Error) FormatJSON() string {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
		DocURL:     e.DocURL,
	}
	if e.Location != nil {
		out.Location = &jsonLocation{File: e.Location.File, Line: e.Location.Line, Column: e.Location.Column}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Error())
	}
	return string(data)
}

// wrapDetail wraps each line of a possibly multi-line detail separately so
// that route listings keep their layout.
func wrapDetail(text string, width int) []string {
	var lines []string
	for _, para := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if strings.TrimSpace(para) == "" {
			lines = append(lines, "")
			continue
		}
		indent := para[:len(para)-len(strings.TrimLeft(para, " \t"))]
		for _, l := range wrapText(para, width) {
			lines = append(lines, indent+l)
		}
	}
	return lines
}

// wrapText breaks text into lines of at most width characters at word
// boundaries. Words longer than width get a line of their own.
func wrapText(text string, width int) []string {
	var (
		lines []string
		line  string
	)
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) > width:
			lines = append(lines, line)
			line = word
		default:
			line += " " + word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// Fprint writes err to w, formatted when it is an *Error.
func Fprint(w io.Writer, err error) {
	var e *Error
	if stderrors.As(err, &e) {
		fmt.Fprint(w, e.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", red(bold("ERROR:")), err.Error())
}

// FprintJSON writes err to w as a single line of JSON. Errors that are not
// an *Error are reported with their message only.
func FprintJSON(w io.Writer, err error) {
	var e *Error
	if !stderrors.As(err, &e) {
		e = &Error{Category: CategoryCLI, Message: err.Error()}
	}
	fmt.Fprintln(w, e.FormatJSON())
}

// PrintError writes err to stderr.
func PrintError(err error) {
	Fprint(os.Stderr, err)
}
