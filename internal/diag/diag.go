package diag

import (
	"bufio"
	"fmt"
	"os"
)

// Category groups diagnostic codes by surface.
type Category string

const (
	CategoryDocument Category = "document"
	CategoryConfig   Category = "config"
	CategorySource   Category = "source"
	CategoryRuntime  Category = "runtime"
	CategoryCLI      Category = "cli"
)

// Location is a position in a loaded document or config file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Error is a structured diagnostic with location, suggestion, and
// documentation link.
type Error struct {
	// Code is the registered identifier (e.g. "DDM001").
	Code string

	// Category is the diagnostic surface.
	Category Category

	// Message is a short description.
	Message string

	// Detail is a longer explanation.
	Detail string

	// Location is where in the document the problem sits.
	Location *Location

	// Context holds the surrounding document lines.
	Context []string

	// Suggestion is a hint on how to fix the problem.
	Suggestion string

	// DocURL links to documentation for this code.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithLocation pins the diagnostic to a document position and captures
// surrounding lines for display.
func (e *Error) WithLocation(file string, line, column int) *Error {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, 5)
	return e
}

// WithSuggestion adds a fix hint.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithDetail replaces the registered detail text.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// WithContext sets custom context lines.
func (e *Error) WithContext(lines []string) *Error {
	e.Context = lines
	return e
}

// Wrap attaches an underlying error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates a diagnostic from a registered code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown diagnostic",
		}
	}
	return &Error{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates an unregistered diagnostic with a formatted message.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a plain error under a registered code. An *Error
// passes through unchanged.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	if de, ok := err.(*Error); ok {
		return de
	}
	return New(code).Wrap(err)
}

// readContextLines reads lines around the target line from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines
}
