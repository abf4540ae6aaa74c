package errors

import (
	"fmt"
	"os"
	"strings"
)

// Category groups error codes by the part of fsroute that raises them.
type Category string

const (
	CategoryConfig Category = "config"
	CategoryCLI    Category = "cli"
	CategoryRoutes Category = "routes"
)

// excerptRadius is the number of lines shown on each side of an error line.
const excerptRadius = 2

// Location is a position in a project file. Line and Column are 1-based;
// zero means unknown.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l *Location) String() string {
	switch {
	case l == nil:
		return ""
	case l.Line == 0:
		return l.File
	case l.Column == 0:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Error is a coded fsroute error. The message, detail and documentation
// link come from the code's registry entry; callers add the rest with the
// With* builders.
type Error struct {
	Code     string
	Category Category
	Message  string
	Detail   string

	// Location points at the offending file, and Source holds the lines of
	// that file around Location.Line, the first being SourceLine.
	Location   *Location
	Source     []string
	SourceLine int

	Suggestion string
	Example    string
	DocURL     string
	Wrapped    error
}

func (e *Error) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Wrapped }

// WithLocation points the error at file. A positive line also loads the
// surrounding source lines for Format.
func (e *Error) WithLocation(file string, line, column int) *Error {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Source, e.SourceLine = excerpt(file, line)
	return e
}

func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

func (e *Error) WithExample(ex string) *Error {
	e.Example = ex
	return e
}

func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// excerpt returns up to excerptRadius lines on each side of line in file,
// and the number of the first returned line.
func excerpt(file string, line int) ([]string, int) {
	if line < 1 {
		return nil, 0
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, 0
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if line > len(lines) {
		return nil, 0
	}
	first := max(line-excerptRadius, 1)
	last := min(line+excerptRadius, len(lines))
	return lines[first-1 : last], first
}

// New returns the registered error for code, or an "Unknown error" for an
// unregistered code.
func New(code string) *Error {
	t, ok := registry[code]
	if !ok {
		return &Error{Code: code, Message: "Unknown error"}
	}
	return &Error{
		Code:     code,
		Category: t.Category,
		Message:  t.Message,
		Detail:   t.Detail,
		DocURL:   t.DocURL,
	}
}

// Newf returns an uncoded error.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{Category: category, Message: fmt.Sprintf(format, args...)}
}

// FromError returns err unchanged when it is already an *Error, and wraps
// it under code otherwise.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return New(code).Wrap(err)
}
