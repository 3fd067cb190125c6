package errors

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ParseError
		expected string
	}{
		{
			name: "with snippet",
			err: &ParseError{
				Message: "parse error",
				File:    "style.scss",
				Line:    3,
				Snippet: "color red",
			},
			expected: "parse error: failed at `color red` style.scss on line 3",
		},
		{
			name: "without snippet",
			err: &ParseError{
				Message: "unclosed block",
				File:    "style.scss",
				Line:    7,
			},
			expected: "unclosed block: style.scss on line 7",
		},
		{
			name: "default source name",
			err: &ParseError{
				Message: "unexpected }",
				Line:    1,
			},
			expected: "unexpected }: (stdin) on line 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParseError_PrettyString(t *testing.T) {
	err := &ParseError{
		Message: "parse error",
		File:    "style.scss",
		Line:    3,
		Column:  5,
		Snippet: "~~~",
	}
	pretty := err.PrettyString()
	for _, want := range []string{"Parse error", "style.scss", "line 3, column 5", "~~~"} {
		if !strings.Contains(pretty, want) {
			t.Errorf("pretty output missing %q:\n%s", want, pretty)
		}
	}
}

func TestParseError_ToJSON(t *testing.T) {
	err := &ParseError{Message: "parse error", File: "a.scss", Line: 2, Column: 4}
	data, jerr := err.ToJSON()
	if jerr != nil {
		t.Fatalf("ToJSON failed: %v", jerr)
	}
	var decoded ParseError
	if jerr := json.Unmarshal(data, &decoded); jerr != nil {
		t.Fatalf("round trip failed: %v", jerr)
	}
	if decoded.Message != err.Message || decoded.Line != err.Line || decoded.Column != err.Column {
		t.Errorf("round trip mismatch: %#v", decoded)
	}
}

func TestParseError_WithFile(t *testing.T) {
	err := &ParseError{Message: "parse error", Line: 1}
	named := err.WithFile("b.scss")
	if named.File != "b.scss" {
		t.Errorf("file not set: %#v", named)
	}
	if err.File != "" {
		t.Errorf("original mutated: %#v", err)
	}
}
