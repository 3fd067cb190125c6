// Package format renders a parsed tree back to canonical SCSS source and
// to a generic structure suitable for JSON or YAML encoding.
package format

import (
	"strings"

	"github.com/marcelmacasso/ws-scss/pkg/scss/ast"
)

const indent = "  "

// Tree renders a block's children as indented SCSS source. Parsing the
// output yields a structurally equal tree.
func Tree(root *ast.Block) string {
	var sb strings.Builder
	writeChildren(&sb, root, 0)
	return sb.String()
}

// Value renders a single value.
func Value(v ast.Value) string {
	return v.String()
}

// Selectors renders a selector list.
func Selectors(sels []ast.Selector) string {
	return ast.SelectorsString(sels)
}

func writeChildren(sb *strings.Builder, b *ast.Block, depth int) {
	for _, stmt := range b.Children {
		writeStatement(sb, stmt, depth)
	}
}

func writeStatement(sb *strings.Builder, stmt ast.Statement, depth int) {
	ind := strings.Repeat(indent, depth)
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		writeBlock(sb, s.Block, depth)
	case *ast.Include:
		if s.Content != nil {
			header := "@include " + s.Name
			if len(s.Args) > 0 {
				args := make([]string, len(s.Args))
				for i, a := range s.Args {
					args[i] = a.String()
				}
				header += "(" + strings.Join(args, ", ") + ")"
			}
			sb.WriteString(ind + header + " {\n")
			writeChildren(sb, s.Content, depth+1)
			sb.WriteString(ind + "}\n")
		} else {
			sb.WriteString(ind + s.String() + "\n")
		}
	case *ast.Comment:
		sb.WriteString(ind + s.Text + "\n")
	default:
		sb.WriteString(ind + stmt.String() + "\n")
	}
}

func writeBlock(sb *strings.Builder, b *ast.Block, depth int) {
	ind := strings.Repeat(indent, depth)
	header := b.Header()
	if header != "" {
		header += " "
	}
	sb.WriteString(ind + header + "{\n")
	writeChildren(sb, b, depth+1)
	sb.WriteString(ind + "}")
	for _, c := range b.Cases {
		sb.WriteString(" " + c.Header() + " {\n")
		writeChildren(sb, c, depth+1)
		sb.WriteString(ind + "}")
	}
	sb.WriteString("\n")
}

// ----------------------------------------------------------------------------
// Generic dump

// Dump converts a tree node into maps and slices with explicit type
// discriminators, for encoding as JSON or YAML.
func Dump(node any) any {
	switch n := node.(type) {
	case *ast.Block:
		return dumpBlock(n)
	case ast.Statement:
		return dumpStatement(n)
	case ast.Value:
		return dumpValue(n)
	case []ast.Selector:
		out := make([]any, len(n))
		for i, s := range n {
			out[i] = dumpSelector(s)
		}
		return out
	case ast.Selector:
		return dumpSelector(n)
	}
	return nil
}

func dumpValues(values []ast.Value) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = dumpValue(v)
	}
	return out
}

func dumpValue(v ast.Value) any {
	switch n := v.(type) {
	case nil:
		return nil
	case *ast.Null:
		return map[string]any{"type": "null"}
	case *ast.Keyword:
		return map[string]any{"type": "keyword", "name": n.Name}
	case *ast.Variable:
		return map[string]any{"type": "variable", "name": n.Name}
	case *ast.Number:
		return map[string]any{"type": "number", "value": n.Value, "unit": n.Unit}
	case *ast.Color:
		return map[string]any{"type": "color", "r": n.R, "g": n.G, "b": n.B}
	case *ast.Text:
		return map[string]any{"type": "text", "value": n.Value}
	case *ast.String:
		return map[string]any{"type": "string", "quote": n.Quote, "parts": dumpValues(n.Parts)}
	case *ast.Interpolation:
		return map[string]any{
			"type": "interpolation", "value": dumpValue(n.Value),
			"leftWs": n.LeftWS, "rightWs": n.RightWS,
		}
	case *ast.List:
		return map[string]any{"type": "list", "separator": n.Separator, "items": dumpValues(n.Items)}
	case *ast.Map:
		return map[string]any{"type": "map", "keys": dumpValues(n.Keys), "values": dumpValues(n.Values)}
	case *ast.BinaryExpr:
		return map[string]any{
			"type": "binary", "op": n.Op,
			"left": dumpValue(n.Left), "right": dumpValue(n.Right),
			"inParens": n.InParens, "wsBefore": n.WSBefore, "wsAfter": n.WSAfter,
		}
	case *ast.UnaryExpr:
		return map[string]any{"type": "unary", "op": n.Op, "operand": dumpValue(n.Operand), "inParens": n.InParens}
	case *ast.FunctionCall:
		return map[string]any{"type": "call", "name": n.Name, "args": dumpCallArgs(n.Args)}
	case *ast.RawFunction:
		return map[string]any{"type": "rawCall", "name": n.Name, "raw": dumpValue(n.Raw)}
	}
	return map[string]any{"type": "unknown", "source": v.String()}
}

func dumpCallArgs(args []ast.CallArg) []any {
	out := make([]any, len(args))
	for i, a := range args {
		arg := map[string]any{"value": dumpValue(a.Value)}
		if a.Name != "" {
			arg["name"] = a.Name
		}
		if a.Splat {
			arg["splat"] = true
		}
		out[i] = arg
	}
	return out
}

func dumpArgDefs(args []ast.ArgDef) []any {
	out := make([]any, len(args))
	for i, a := range args {
		arg := map[string]any{"name": a.Name}
		if a.Default != nil {
			arg["default"] = dumpValue(a.Default)
		}
		if a.Splat {
			arg["splat"] = true
		}
		out[i] = arg
	}
	return out
}

func dumpSelector(s ast.Selector) any {
	return dumpValues(s)
}

func dumpStatement(stmt ast.Statement) any {
	tag := stmt.Tag()
	out := map[string]any{"sourceIndex": tag.Index, "sourcePos": tag.Pos}
	switch s := stmt.(type) {
	case *ast.Assign:
		out["type"] = "assign"
		out["target"] = dumpValue(s.Target)
		out["value"] = dumpValue(s.Value)
		if s.Flag != "" {
			out["flag"] = s.Flag
		}
	case *ast.Import:
		out["type"] = "import"
		out["path"] = dumpValue(s.Path)
	case *ast.ImportOnce:
		out["type"] = "importOnce"
		out["path"] = dumpValue(s.Path)
	case *ast.Extend:
		out["type"] = "extend"
		out["selectors"] = Dump(s.Selectors)
	case *ast.Include:
		out["type"] = "include"
		out["name"] = s.Name
		out["args"] = dumpCallArgs(s.Args)
		if s.Content != nil {
			out["content"] = dumpBlock(s.Content)
		}
	case *ast.Break:
		out["type"] = "break"
	case *ast.Continue:
		out["type"] = "continue"
	case *ast.Return:
		out["type"] = "return"
		out["value"] = dumpValue(s.Value)
	case *ast.Debug:
		out["type"] = "debug"
		out["value"] = dumpValue(s.Value)
	case *ast.Warn:
		out["type"] = "warn"
		out["value"] = dumpValue(s.Value)
	case *ast.Error:
		out["type"] = "error"
		out["value"] = dumpValue(s.Value)
	case *ast.MixinContent:
		out["type"] = "content"
	case *ast.Charset:
		out["type"] = "charset"
		out["value"] = dumpValue(s.Value)
	case *ast.Comment:
		out["type"] = "comment"
		out["text"] = s.Text
	case *ast.BlockStmt:
		out["type"] = "block"
		out["block"] = dumpBlock(s.Block)
	default:
		out["type"] = "unknown"
		out["source"] = stmt.String()
	}
	return out
}

func dumpBlock(b *ast.Block) any {
	out := map[string]any{
		"kind":      b.Kind.String(),
		"sourcePos": b.SourcePos,
	}
	if b.IsRoot {
		out["root"] = true
	}
	if len(b.Selectors) > 0 {
		out["selectors"] = Dump(b.Selectors)
	}
	switch b.Kind {
	case ast.KindMixin, ast.KindFunction:
		out["name"] = b.Name
		out["args"] = dumpArgDefs(b.Args)
	case ast.KindDirective:
		out["name"] = b.Name
		if b.Value != nil {
			out["value"] = dumpValue(b.Value)
		}
	case ast.KindEach:
		out["vars"] = b.Vars
		out["list"] = dumpValue(b.List)
	case ast.KindWhile:
		out["cond"] = dumpValue(b.Cond)
	case ast.KindFor:
		out["var"] = b.Var
		out["start"] = dumpValue(b.Start)
		out["end"] = dumpValue(b.End)
		out["until"] = b.Until
	case ast.KindIf, ast.KindElseIf:
		if b.Cond != nil {
			out["cond"] = dumpValue(b.Cond)
		}
	case ast.KindNestedProperty:
		out["prefix"] = dumpValue(b.Prefix)
	case ast.KindAtRoot:
		if b.With != nil {
			out["with"] = dumpValue(b.With)
		}
	case ast.KindMedia:
		out["query"] = dumpValue(b.Query)
	}
	children := make([]any, len(b.Children))
	for i, c := range b.Children {
		children[i] = dumpStatement(c)
	}
	out["children"] = children
	if len(b.Cases) > 0 {
		cases := make([]any, len(b.Cases))
		for i, c := range b.Cases {
			cases[i] = dumpBlock(c)
		}
		out["cases"] = cases
	}
	return out
}
