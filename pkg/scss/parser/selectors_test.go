package parser

import (
	"testing"

	"github.com/marcelmacasso/ws-scss/pkg/scss/ast"
)

func mustParseSelectors(t *testing.T, input string) []ast.Selector {
	t.Helper()
	sels, err := New("test.scss", 0).ParseSelectors(input)
	if err != nil {
		t.Fatalf("selector parse error for %q: %v", input, err)
	}
	return sels
}

func TestSelectorList(t *testing.T) {
	sels := mustParseSelectors(t, ".a, .b, .c")
	if len(sels) != 3 {
		t.Fatalf("expected 3 selectors, got %d", len(sels))
	}
	want := []string{".a", ".b", ".c"}
	for i, w := range want {
		if got := sels[i].String(); got != w {
			t.Errorf("selector %d: expected %q, got %q", i, w, got)
		}
	}
}

func TestSelectorRendering(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a", "a"},
		{"*", "*"},
		{"a b", "a b"},
		{"a > b", "a > b"},
		{"a>b", "a > b"},
		{"a + b", "a + b"},
		{"a ~ b", "a ~ b"},
		{"#id.class", "#id.class"},
		{"a:hover", "a:hover"},
		{"::before", "::before"},
		{"&.active", "&.active"},
		{"%placeholder", "%placeholder"},
		{"ns|e", "ns|e"},
	}
	for _, tt := range tests {
		sels := mustParseSelectors(t, tt.input)
		if len(sels) != 1 {
			t.Fatalf("%q: expected 1 selector, got %d", tt.input, len(sels))
		}
		if got := sels[0].String(); got != tt.want {
			t.Errorf("%q: rendered %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDescendantPart(t *testing.T) {
	sels := mustParseSelectors(t, "a b")
	parts := sels[0]
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}
	if parts[1].(*ast.Text).Value != " " {
		t.Errorf("expected descendant marker, got %#v", parts[1])
	}
}

func TestPseudoArguments(t *testing.T) {
	sels := mustParseSelectors(t, ":nth-child(2n+1)")
	parts := sels[0]
	if len(parts) != 5 {
		t.Fatalf("expected 5 parts, got %d: %q", len(parts), parts.String())
	}
	if parts[0].(*ast.Text).Value != ":" || parts[1].(*ast.Text).Value != "nth-child" {
		t.Errorf("wrong pseudo name parts: %#v", parts[:2])
	}
	arg, ok := parts[3].(*ast.String)
	if !ok || arg.String() != "2n+1" {
		t.Errorf("wrong pseudo argument: %#v", parts[3])
	}
}

func TestPseudoNestedParens(t *testing.T) {
	sels := mustParseSelectors(t, ":not(:nth-child(2n+1))")
	if got := sels[0].String(); got != ":not(:nth-child(2n+1))" {
		t.Errorf("rendered %q", got)
	}
}

func TestAttributeSelector(t *testing.T) {
	sels := mustParseSelectors(t, `input[type="text"]`)
	parts := sels[0]
	if parts[0].(*ast.Text).Value != "input" || parts[1].(*ast.Text).Value != "[" {
		t.Fatalf("wrong leading parts: %q", parts.String())
	}
	if got := parts.String(); got != `input[type="text"]` {
		t.Errorf("rendered %q", got)
	}

	sels = mustParseSelectors(t, "[data-foo|=bar]")
	if got := sels[0].String(); got != "[data-foo|=bar]" {
		t.Errorf("rendered %q", got)
	}
}

func TestSelectorInterpolation(t *testing.T) {
	sels := mustParseSelectors(t, ".#{$cls}")
	parts := sels[0]
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	inter, ok := parts[1].(*ast.Interpolation)
	if !ok {
		t.Fatalf("expected interpolation, got %#v", parts[1])
	}
	if v, ok := inter.Value.(*ast.Variable); !ok || v.Name != "cls" {
		t.Errorf("wrong interpolation value: %#v", inter.Value)
	}
}

func TestPlaceholderInterpolation(t *testing.T) {
	sels := mustParseSelectors(t, "%#{$name}")
	parts := sels[0]
	if parts[0].(*ast.Text).Value != "%" {
		t.Errorf("expected %% first, got %#v", parts[0])
	}
	if _, ok := parts[1].(*ast.Interpolation); !ok {
		t.Errorf("expected interpolation, got %#v", parts[1])
	}
}

func TestKeyframesSelector(t *testing.T) {
	sels := mustParseSelectors(t, "100%")
	parts := sels[0]
	if len(parts) != 1 || parts[0].(*ast.Text).Value != "100%" {
		t.Errorf("wrong keyframes selector: %#v", parts)
	}
}

func TestEscapedSelector(t *testing.T) {
	sels := mustParseSelectors(t, `.\31 foo`)
	if len(sels) != 1 {
		t.Fatalf("expected 1 selector")
	}
	parts := sels[0]
	if parts[1].(*ast.Text).Value != `\3` {
		t.Errorf("expected escape part, got %#v", parts[1])
	}
}

func TestSelectorParseError(t *testing.T) {
	if _, err := New("test.scss", 0).ParseSelectors(""); err == nil {
		t.Errorf("expected error for empty selector")
	}
}
