package ast

import "testing"

func TestValueStrings(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"null", &Null{}, "null"},
		{"keyword", &Keyword{Name: "red"}, "red"},
		{"variable", &Variable{Name: "width"}, "$width"},
		{"int number", &Number{Value: 12, Unit: "px"}, "12px"},
		{"float number", &Number{Value: 1.5}, "1.5"},
		{"percent", &Number{Value: 50, Unit: "%"}, "50%"},
		{"color", &Color{R: 255, G: 0, B: 0}, "#ff0000"},
		{"quoted string", &String{Quote: `"`, Parts: []Value{&Text{Value: "hi"}}}, `"hi"`},
		{"unquoted string", &String{Parts: []Value{&Text{Value: "url(x)"}}}, "url(x)"},
		{"interpolation", &Interpolation{Value: &Variable{Name: "x"}}, "#{$x}"},
		{
			"comma list",
			&List{Separator: SepComma, Items: []Value{&Number{Value: 1}, &Number{Value: 2}}},
			"1, 2",
		},
		{
			"space list",
			&List{Separator: SepSpace, Items: []Value{&Number{Value: 1}, &Number{Value: 2}}},
			"1 2",
		},
		{
			"map",
			&Map{Keys: []Value{&Keyword{Name: "a"}}, Values: []Value{&Number{Value: 1}}},
			"(a: 1)",
		},
		{
			"spaced binary",
			&BinaryExpr{Op: "+", Left: &Number{Value: 1}, Right: &Number{Value: 2}, WSBefore: true, WSAfter: true},
			"1 + 2",
		},
		{
			"glued division",
			&BinaryExpr{Op: "/", Left: &Number{Value: 12, Unit: "px"}, Right: &Number{Value: 1.5}},
			"12px/1.5",
		},
		{
			"word op forces spaces",
			&BinaryExpr{Op: "and", Left: &Variable{Name: "a"}, Right: &Variable{Name: "b"}},
			"$a and $b",
		},
		{
			"parenthesized",
			&BinaryExpr{Op: "+", Left: &Number{Value: 1}, Right: &Number{Value: 2}, InParens: true, WSBefore: true, WSAfter: true},
			"(1 + 2)",
		},
		{"unary not", &UnaryExpr{Op: "not", Operand: &Keyword{Name: "true"}}, "not true"},
		{"unary minus", &UnaryExpr{Op: "-", Operand: &Variable{Name: "x"}}, "-$x"},
		{
			"call",
			&FunctionCall{Name: "rgba", Args: []CallArg{
				{Value: &Number{Value: 0}},
				{Name: "alpha", Value: &Number{Value: 0.5}},
			}},
			"rgba(0, $alpha: 0.5)",
		},
		{
			"splat call",
			&FunctionCall{Name: "foo", Args: []CallArg{{Value: &Variable{Name: "rest"}, Splat: true}}},
			"foo($rest...)",
		},
		{
			"raw call",
			&RawFunction{Name: "calc", Raw: &String{Parts: []Value{&Text{Value: "100% - 2px"}}}},
			"calc(100% - 2px)",
		},
	}
	for _, tt := range tests {
		if got := tt.value.String(); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSelectorString(t *testing.T) {
	sel := Selector{&Text{Value: "a"}, &Text{Value: " "}, &Text{Value: ">"}, &Text{Value: "b"}}
	if got := sel.String(); got != "a > b" {
		t.Errorf("got %q", got)
	}
	sel = Selector{&Text{Value: "a"}, &Text{Value: "+"}, &Text{Value: "b"}}
	if got := sel.String(); got != "a + b" {
		t.Errorf("got %q", got)
	}
}

func TestStatementStrings(t *testing.T) {
	tests := []struct {
		stmt Statement
		want string
	}{
		{&Assign{Target: &Variable{Name: "x"}, Value: &Number{Value: 1, Unit: "px"}}, "$x: 1px;"},
		{&Assign{Target: &Variable{Name: "x"}, Value: &Number{Value: 1}, Flag: "default"}, "$x: 1 !default;"},
		{&Import{Path: &String{Quote: `"`, Parts: []Value{&Text{Value: "a"}}}}, `@import "a";`},
		{&Return{Value: &Variable{Name: "v"}}, "@return $v;"},
		{&Break{}, "@break;"},
		{&Continue{}, "@continue;"},
		{&MixinContent{}, "@content;"},
		{&Include{Name: "foo"}, "@include foo;"},
		{
			&Include{Name: "foo", Args: []CallArg{{Value: &Number{Value: 1}}}},
			"@include foo(1);",
		},
		{&Comment{Text: "/* c */"}, "/* c */"},
		{&Extend{Selectors: []Selector{{&Text{Value: ".a"}}}}, "@extend .a;"},
	}
	for _, tt := range tests {
		if got := tt.stmt.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestBlockHeaders(t *testing.T) {
	tests := []struct {
		block *Block
		want  string
	}{
		{
			&Block{Kind: KindMixin, Name: "foo", Args: []ArgDef{{Name: "a"}, {Name: "b", Default: &Number{Value: 1}}}},
			"@mixin foo($a, $b: 1)",
		},
		{&Block{Kind: KindWhile, Cond: &Variable{Name: "x"}}, "@while $x"},
		{
			&Block{Kind: KindFor, Var: "i", Start: &Number{Value: 1}, End: &Number{Value: 3}},
			"@for $i from 1 through 3",
		},
		{
			&Block{Kind: KindFor, Var: "i", Start: &Number{Value: 1}, End: &Number{Value: 3}, Until: true},
			"@for $i from 1 to 3",
		},
		{
			&Block{Kind: KindEach, Vars: []string{"k", "v"}, List: &Variable{Name: "m"}},
			"@each $k, $v in $m",
		},
		{&Block{Kind: KindElse}, "@else"},
		{&Block{Kind: KindElseIf, Cond: &Variable{Name: "x"}}, "@else if $x"},
		{&Block{Kind: KindDirective, Name: "font-face"}, "@font-face"},
		{&Block{Kind: KindRule, Selectors: []Selector{{&Text{Value: ".a"}}}}, ".a"},
	}
	for _, tt := range tests {
		if got := tt.block.Header(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestSourceTag(t *testing.T) {
	a := &Assign{Target: &Variable{Name: "x"}, Value: &Null{}}
	a.SetTag(Source{Index: 2, Pos: 14})
	tag := a.Tag()
	if tag.Index != 2 || tag.Pos != 14 {
		t.Errorf("tag not stamped: %#v", tag)
	}
}
