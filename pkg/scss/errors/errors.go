// Package errors provides the structured error type for the SCSS front end.
//
// This package defines ParseError, the single error type the parser
// produces, with enough metadata (file, line, column, offending snippet)
// for display and programmatic handling.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError represents a fatal syntax error from the parser.
type ParseError struct {
	Message string `json:"message"`           // Human-readable message
	File    string `json:"file,omitempty"`    // Display name of the source
	Line    int    `json:"line"`              // 1-based line (0 if unknown)
	Column  int    `json:"column"`            // 1-based column (0 if unknown)
	Snippet string `json:"snippet,omitempty"` // Source text from the failure to end of line
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	loc := e.File
	if loc == "" {
		loc = "(stdin)"
	}
	if e.Snippet != "" {
		return fmt.Sprintf("%s: failed at `%s` %s on line %d", e.Message, e.Snippet, loc, e.Line)
	}
	return fmt.Sprintf("%s: %s on line %d", e.Message, loc, e.Line)
}

// PrettyString returns a multi-line formatted string for display.
func (e *ParseError) PrettyString() string {
	var sb strings.Builder

	sb.WriteString("Parse error")
	if e.File != "" {
		sb.WriteString(":\n  in: ")
		sb.WriteString(e.File)
		if e.Line > 0 {
			sb.WriteString(fmt.Sprintf("\n  at: line %d, column %d", e.Line, e.Column))
		}
		sb.WriteString("\n  ")
	} else if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(": line %d, column %d\n  ", e.Line, e.Column))
	} else {
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)

	if e.Snippet != "" {
		sb.WriteString("\n  near: `")
		sb.WriteString(e.Snippet)
		sb.WriteString("`")
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *ParseError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithFile returns a copy of the error with the file path set.
func (e *ParseError) WithFile(file string) *ParseError {
	copy := *e
	copy.File = file
	return &copy
}
