package parser

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/marcelmacasso/ws-scss/pkg/scss/ast"
)

var (
	reKeyword  = regexp.MustCompile(`(?is)^(([\w_\-\*!"']|\\.)([\w\-_"']|\\.)*)`)
	reNumber   = regexp.MustCompile(`^([0-9]*\.?[0-9]+)([%a-zA-Z]*)`)
	reColor    = regexp.MustCompile(`(?i)^(#([0-9a-f]{6})|#([0-9a-f]{3}))`)
	reOperator = regexp.MustCompile(`(?i)^(<=>|<=|>=|==|!=|and|or|[-+*/%<>=])`)
	reFuncName = regexp.MustCompile(`(?is)^(([\w\-]|\\.)+)\(`)
	reCalcName = regexp.MustCompile(`^(-[a-z]+-)?calc$`)
	reUrl      = regexp.MustCompile(`(?i)^url\(\s*(?:"([^"]*)"|'([^']*)'|([^)'"]*))\s*\)`)
)

// operator precedences for the climb in expHelper
var precedence = map[string]int{
	"=":   0,
	"or":  1,
	"and": 2,
	"==":  3, "!=": 3, "<=>": 3,
	"<=": 4, ">=": 4, "<": 4, ">": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6, "%": 6,
}

// keyword matches a bare word. The generous character classes cover CSS
// hacks like star properties and escaped characters.
func (p *Parser) keyword(out *string, eat bool) bool {
	m, ok := p.matchRe(reKeyword, eat)
	if !ok {
		return false
	}
	*out = m[1]
	return true
}

func (p *Parser) variable(out *ast.Value) bool {
	s := p.seek()
	var name string
	if p.literalNoWS("$") && p.keyword(&name, p.eatWS) {
		*out = &ast.Variable{Name: name}
		return true
	}
	p.restore(s)
	return false
}

// ----------------------------------------------------------------------------
// Lists

// genericList repeats item, optionally requiring delim between repetitions.
// With flatten, a single-element result is returned directly instead of
// wrapped in a List.
func (p *Parser) genericList(out *ast.Value, item func(*ast.Value) bool, delim, sep string, flatten bool) bool {
	s := p.seek()
	var items []ast.Value
	for {
		var value ast.Value
		if !item(&value) {
			break
		}
		items = append(items, value)
		if delim != "" && !p.literal(delim) {
			break
		}
	}
	if len(items) == 0 {
		p.restore(s)
		return false
	}
	if flatten && len(items) == 1 {
		*out = items[0]
	} else {
		*out = &ast.List{Separator: sep, Items: items}
	}
	return true
}

// valueList is a comma-separated list of space lists.
func (p *Parser) valueList(out *ast.Value) bool {
	return p.genericList(out, p.spaceList, ",", ast.SepComma, true)
}

// spaceList is a space-separated list of expressions.
func (p *Parser) spaceList(out *ast.Value) bool {
	return p.genericList(out, p.expression, "", ast.SepSpace, true)
}

// stripAssignmentFlag removes a trailing !default or !global keyword from
// the right-most chain of lists, flattening any list it leaves with a
// single element, and returns the flag name.
func stripAssignmentFlag(value *ast.Value) string {
	node := value
	for {
		lst, ok := (*node).(*ast.List)
		if !ok || len(lst.Items) == 0 {
			return ""
		}
		last := &lst.Items[len(lst.Items)-1]
		if kw, ok := (*last).(*ast.Keyword); ok {
			if kw.Name == "!default" || kw.Name == "!global" {
				lst.Items = lst.Items[:len(lst.Items)-1]
				*node = flattenList(lst)
				return kw.Name[1:]
			}
		}
		node = last
	}
}

func flattenList(l *ast.List) ast.Value {
	if len(l.Items) == 1 {
		return l.Items[0]
	}
	return l
}

// ----------------------------------------------------------------------------
// Expressions

// expression parses one expression: an empty list, a parenthesized value
// list, a map literal, or a value, fed through the precedence climb.
func (p *Parser) expression(out *ast.Value) bool {
	s := p.seek()
	if p.literal("(") {
		if p.literal(")") {
			*out = p.expHelper(&ast.List{Separator: ast.SepNone}, 0)
			return true
		}
		p.restore(s)

		if p.literal("(") {
			inParens := p.inParens
			p.inParens = true
			var lst ast.Value
			if p.valueList(&lst) && p.literal(")") {
				p.inParens = inParens
				*out = p.expHelper(lst, 0)
				return true
			}
			p.inParens = inParens
		}
		p.restore(s)

		if p.parseMap(out) {
			*out = p.expHelper(*out, 0)
			return true
		}
		p.restore(s)
	}
	var lhs ast.Value
	if p.value(&lhs) {
		*out = p.expHelper(lhs, 0)
		return true
	}
	p.restore(s)
	return false
}

// expHelper climbs operators with precedence >= minP. When the look-ahead
// operator past the right operand binds tighter, the right operand is
// re-climbed at that precedence first.
func (p *Parser) expHelper(lhs ast.Value, minP int) ast.Value {
	ss := p.seek()
	whiteBefore := ss > 0 && isSpace(p.buffer[ss-1])
	for {
		m, ok := p.matchNoWS(reOperator)
		if !ok {
			break
		}
		op := strings.ToLower(m[1])
		if precedence[op] < minP {
			break
		}
		whiteAfter := p.count < len(p.buffer) && isSpace(p.buffer[p.count])
		varAfter := p.count < len(p.buffer) && p.buffer[p.count] == '$'
		p.whitespace()

		// don't turn negative numbers into subtraction
		if op == "-" && whiteBefore && !whiteAfter && !varAfter {
			break
		}

		var rhs ast.Value
		if !p.value(&rhs) {
			break
		}

		if next, ok := p.peekRe(reOperator, p.count); ok {
			if precedence[strings.ToLower(next[1])] > precedence[op] {
				rhs = p.expHelper(rhs, precedence[strings.ToLower(next[1])])
			}
		}

		lhs = &ast.BinaryExpr{
			Op:       op,
			Left:     lhs,
			Right:    rhs,
			InParens: p.inParens,
			WSBefore: whiteBefore,
			WSAfter:  whiteAfter,
		}
		ss = p.seek()
		whiteBefore = ss > 0 && isSpace(p.buffer[ss-1])
	}
	p.restore(ss)
	return lhs
}

// ----------------------------------------------------------------------------
// Values

func (p *Parser) value(out *ast.Value) bool {
	s := p.seek()

	if p.literalNoWS("not") && p.whitespace() {
		var inner ast.Value
		if p.value(&inner) {
			*out = &ast.UnaryExpr{Op: "not", Operand: inner, InParens: p.inParens}
			return true
		}
	}
	p.restore(s)

	if p.literalNoWS("not") {
		var inner ast.Value
		if p.parenValue(&inner) {
			*out = &ast.UnaryExpr{Op: "not", Operand: inner, InParens: p.inParens}
			return true
		}
	}
	p.restore(s)

	if p.literal("+") {
		var inner ast.Value
		if p.value(&inner) {
			*out = &ast.UnaryExpr{Op: "+", Operand: inner, InParens: p.inParens}
			return true
		}
	}
	p.restore(s)

	// negation: the '-' must be glued to a variable, number, or parens,
	// otherwise it is left for the expression climb
	if p.literalNoWS("-") {
		var inner ast.Value
		if p.variable(&inner) || p.unit(&inner) || p.parenValue(&inner) {
			*out = &ast.UnaryExpr{Op: "-", Operand: inner, InParens: p.inParens}
			return true
		}
	}
	p.restore(s)

	if p.parenValue(out) {
		return true
	}
	if p.interpolation(out, true) {
		return true
	}
	if p.variable(out) {
		return true
	}
	if p.color(out) {
		return true
	}
	if p.unit(out) {
		return true
	}
	if p.parseString(out) {
		return true
	}
	if p.parseFunc(out) {
		return true
	}
	if p.progid(out) {
		return true
	}

	var word string
	if p.keyword(&word, p.eatWS) {
		if word == "null" {
			*out = &ast.Null{}
		} else {
			*out = &ast.Keyword{Name: word}
		}
		return true
	}
	return false
}

func (p *Parser) parenValue(out *ast.Value) bool {
	s := p.seek()
	inParens := p.inParens
	if p.literal("(") {
		if p.literal(")") {
			*out = &ast.List{Separator: ast.SepNone}
			return true
		}
		p.inParens = true
		var exp ast.Value
		if p.expression(&exp) && p.literal(")") {
			p.inParens = inParens
			*out = exp
			return true
		}
	}
	p.inParens = inParens
	p.restore(s)
	return false
}

func (p *Parser) unit(out *ast.Value) bool {
	m, ok := p.match(reNumber)
	if !ok {
		return false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return false
	}
	*out = &ast.Number{Value: f, Unit: m[2]}
	return true
}

func (p *Parser) color(out *ast.Value) bool {
	m, ok := p.match(reColor)
	if !ok {
		return false
	}
	if m[3] != "" {
		// 3-digit form: each nibble expands to a full byte
		n, _ := strconv.ParseUint(m[3], 16, 16)
		r := uint8(n >> 8 & 0xf)
		g := uint8(n >> 4 & 0xf)
		b := uint8(n & 0xf)
		*out = &ast.Color{R: r<<4 | r, G: g<<4 | g, B: b<<4 | b}
	} else {
		n, _ := strconv.ParseUint(m[2], 16, 32)
		*out = &ast.Color{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}
	}
	return true
}

// ----------------------------------------------------------------------------
// Strings & interpolation

// matchString scans from the cursor to the nearest of '#{', a backslash,
// or the delimiter. Plain substring search: anchored regexes perform badly
// over long string bodies. The cursor advances past the found token.
func (p *Parser) matchString(delim string) (text, token string, ok bool) {
	best := -1
	for _, look := range [3]string{"#{", `\`, delim} {
		idx := strings.Index(p.buffer[p.count:], look)
		if idx >= 0 && (best < 0 || idx < best) {
			best = idx
			token = look
		}
	}
	if best < 0 {
		return "", "", false
	}
	text = p.buffer[p.count : p.count+best]
	p.count += best + len(token)
	return text, token, true
}

func (p *Parser) parseString(out *ast.Value) bool {
	s := p.seek()
	var delim string
	switch {
	case p.literalNoWS(`"`):
		delim = `"`
	case p.literalNoWS("'"):
		delim = "'"
	default:
		return false
	}

	var content []ast.Value
	oldWhite := p.eatWS
	p.eatWS = false

	for {
		text, token, ok := p.matchString(delim)
		if !ok {
			break
		}
		if text != "" {
			content = append(content, &ast.Text{Value: text})
		}
		switch token {
		case "#{":
			p.count -= len(token)
			var inter ast.Value
			if p.interpolation(&inter, false) {
				content = append(content, inter)
			} else {
				p.count += len(token)
				content = append(content, &ast.Text{Value: token})
			}
		case `\`:
			esc := token
			if p.literalNoWS(delim) {
				esc += delim
			}
			content = append(content, &ast.Text{Value: esc})
		default:
			// the closing delimiter: leave it for the literal below
			p.count -= len(delim)
		}
		if token == delim {
			break
		}
	}

	p.eatWS = oldWhite
	if p.literal(delim) {
		*out = &ast.String{Quote: delim, Parts: content}
		return true
	}
	p.restore(s)
	return false
}

func (p *Parser) interpolation(out *ast.Value, lookWhite bool) bool {
	oldWhite := p.eatWS
	p.eatWS = true
	s := p.seek()
	if p.literal("#{") {
		var value ast.Value
		if p.valueList(&value) && p.literalNoWS("}") {
			left, right := false, false
			if lookWhite {
				left = s > 0 && isSpace(p.buffer[s-1])
				right = p.count < len(p.buffer) && isSpace(p.buffer[p.count])
			}
			*out = &ast.Interpolation{Value: value, LeftWS: left, RightWS: right}
			p.eatWS = oldWhite
			if p.eatWS {
				p.whitespace()
			}
			return true
		}
	}
	p.restore(s)
	p.eatWS = oldWhite
	return false
}

// openString reads an unbounded token stream until end at nesting level
// zero, recognizing nested strings and interpolations along the way. The
// cursor stops on the terminator without consuming it.
func (p *Parser) openString(end string, out *ast.Value, nestingOpen string) bool {
	oldWhite := p.eatWS
	p.eatWS = false

	patt := openStringPattern(end)
	nestingLevel := 0
	var content []ast.Value

	for {
		m, ok := p.matchNoWS(patt)
		if !ok {
			break
		}
		if m[1] != "" {
			content = append(content, &ast.Text{Value: m[1]})
			if nestingOpen != "" {
				nestingLevel += strings.Count(m[1], nestingOpen)
			}
		}

		token := m[2]
		p.count -= len(token)
		if token == end && nestingLevel == 0 {
			break
		}

		if token == `"` || token == "'" {
			var str ast.Value
			if p.parseString(&str) {
				content = append(content, str)
				continue
			}
		}
		if token == "#{" {
			var inter ast.Value
			if p.interpolation(&inter, false) {
				content = append(content, inter)
				continue
			}
		}
		if token == end {
			nestingLevel--
		}
		content = append(content, &ast.Text{Value: token})
		p.count += len(token)
	}

	p.eatWS = oldWhite
	if len(content) == 0 {
		return false
	}

	if t, ok := content[len(content)-1].(*ast.Text); ok {
		t.Value = strings.TrimRight(t.Value, " \t\n\r\v\f")
	}
	*out = &ast.String{Parts: content}
	return true
}

var openStringPatterns sync.Map // end token -> *regexp.Regexp

func openStringPattern(end string) *regexp.Regexp {
	if v, ok := openStringPatterns.Load(end); ok {
		return v.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?s)^(.*?)(#\{|['"]|` + regexp.QuoteMeta(end) + `)`)
	openStringPatterns.Store(end, re)
	return re
}

// ----------------------------------------------------------------------------
// Function calls

func (p *Parser) parseFunc(out *ast.Value) bool {
	s := p.seek()
	m, ok := p.match(reFuncName)
	if !ok {
		return false
	}
	name := m[1]
	lower := strings.ToLower(name)

	// MS filter syntax: alpha(opacity=50)
	if lower == "alpha" {
		var raw *ast.String
		if p.alphaArguments(&raw) {
			*out = &ast.RawFunction{Name: name, Raw: raw}
			return true
		}
	}

	rawName := lower == "expression" || reCalcName.MatchString(lower)
	if !rawName {
		ss := p.seek()
		var args []ast.CallArg
		if p.argValues(&args) && p.literal(")") {
			*out = &ast.FunctionCall{Name: name, Args: args}
			return true
		}
		p.restore(ss)
	}

	// preserve the argument text verbatim
	var str ast.Value
	okStr := p.openString(")", &str, "(")
	if p.literal(")") {
		if rawName {
			raw, _ := str.(*ast.String)
			if raw == nil {
				raw = &ast.String{}
			}
			*out = &ast.RawFunction{Name: name, Raw: raw}
			return true
		}
		var args []ast.CallArg
		if okStr {
			args = []ast.CallArg{{Value: str}}
		}
		*out = &ast.FunctionCall{Name: name, Args: args}
		return true
	}
	p.restore(s)
	return false
}

// alphaArguments parses the k=v argument text of alpha(...), keeping the
// '=' and ',' pieces as literal text.
func (p *Parser) alphaArguments(out **ast.String) bool {
	s := p.seek()
	var parts []ast.Value
	for {
		var word string
		if !p.keyword(&word, p.eatWS) {
			break
		}
		if !p.literal("=") {
			break
		}
		var exp ast.Value
		if !p.expression(&exp) {
			break
		}
		parts = append(parts, &ast.Text{Value: word + "="}, exp)
		if !p.literal(",") {
			break
		}
		parts = append(parts, &ast.Text{Value: ", "})
	}
	if len(parts) == 0 || !p.literal(")") {
		p.restore(s)
		return false
	}
	*out = &ast.String{Parts: parts}
	return true
}

func (p *Parser) argValues(out *[]ast.CallArg) bool {
	s := p.seek()
	var args []ast.CallArg
	for {
		var arg ast.CallArg
		if !p.argValue(&arg) {
			break
		}
		args = append(args, arg)
		if !p.literal(",") {
			break
		}
	}
	if len(args) == 0 {
		p.restore(s)
		return false
	}
	*out = args
	return true
}

func (p *Parser) argValue(out *ast.CallArg) bool {
	s := p.seek()
	keyword := ""
	var kw ast.Value
	if p.variable(&kw) && p.literal(":") {
		keyword = kw.(*ast.Variable).Name
	} else {
		p.restore(s)
	}

	var value ast.Value
	if !p.genericList(&value, p.expression, "", ast.SepSpace, true) {
		p.restore(s)
		return false
	}
	arg := ast.CallArg{Name: keyword, Value: value}

	ss := p.seek()
	if p.literal("...") {
		arg.Splat = true
	} else {
		p.restore(ss)
	}
	*out = arg
	return true
}

// argumentDef parses a mixin or function parameter list. A '...' anywhere
// but on the final parameter is a fatal error.
func (p *Parser) argumentDef() ([]ast.ArgDef, bool) {
	s := p.seek()
	if !p.literal("(") {
		p.restore(s)
		return nil, false
	}

	var args []ast.ArgDef
	for {
		ss := p.seek()
		if p.literal(")") {
			// the closing paren is consumed again below
			p.restore(ss)
			break
		}
		var v ast.Value
		if !p.variable(&v) {
			break
		}
		arg := ast.ArgDef{Name: v.(*ast.Variable).Name}

		ss = p.seek()
		var def ast.Value
		if p.literal(":") && p.genericList(&def, p.expression, "", ast.SepSpace, true) {
			arg.Default = def
		} else {
			p.restore(ss)
		}

		ss = p.seek()
		if p.literal("...") {
			sss := p.seek()
			if !p.literal(")") {
				p.throwParseError("... has to be after the final argument", p.count)
			}
			p.restore(sss)
			arg.Splat = true
		} else {
			p.restore(ss)
		}

		args = append(args, arg)
		if !p.literal(",") {
			break
		}
	}

	if !p.literal(")") {
		p.restore(s)
		return nil, false
	}
	return args, true
}

// ----------------------------------------------------------------------------
// Maps, urls, progid

func (p *Parser) parseMap(out *ast.Value) bool {
	s := p.seek()
	if !p.literal("(") {
		p.restore(s)
		return false
	}

	var keys, values []ast.Value
	for {
		var key, value ast.Value
		if !p.genericList(&key, p.expression, "", ast.SepSpace, true) ||
			!p.literal(":") ||
			!p.genericList(&value, p.expression, "", ast.SepSpace, true) {
			break
		}
		keys = append(keys, key)
		values = append(values, value)
		if !p.literal(",") {
			break
		}
	}

	if len(keys) == 0 || !p.literal(")") {
		p.restore(s)
		return false
	}
	*out = &ast.Map{Keys: keys, Values: values}
	return true
}

func (p *Parser) url(out *ast.Value) bool {
	m, ok := p.match(reUrl)
	if !ok {
		return false
	}
	var inner string
	switch {
	case m[1] != "":
		inner = `"` + m[1] + `"`
	case m[2] != "":
		inner = "'" + m[2] + "'"
	default:
		inner = strings.TrimSpace(m[3])
	}
	*out = &ast.String{Parts: []ast.Value{&ast.Text{Value: "url(" + inner + ")"}}}
	return true
}

// progid parses the IE progid:...(...) filter form, preserving both the
// dotted name and the arguments as literal text.
func (p *Parser) progid(out *ast.Value) bool {
	s := p.seek()
	if p.literalNoWS("progid:") {
		var fn ast.Value
		if p.openString("(", &fn, "") && p.literal("(") {
			var args ast.Value
			if !p.openString(")", &args, "(") {
				args = &ast.String{}
			}
			if p.literal(")") {
				*out = &ast.String{Parts: []ast.Value{
					&ast.Text{Value: "progid:"},
					fn,
					&ast.Text{Value: "("},
					args,
					&ast.Text{Value: ")"},
				}}
				return true
			}
		}
	}
	p.restore(s)
	return false
}

// propertyName parses a property name: keywords and interpolations, with a
// leading [:.#] allowed for CSS hacks.
func (p *Parser) propertyName(out *ast.Value) bool {
	var parts []ast.Value
	oldWhite := p.eatWS
	p.eatWS = false

	for {
		var inter ast.Value
		if p.interpolation(&inter, true) {
			parts = append(parts, inter)
			continue
		}
		var word string
		if p.keyword(&word, false) {
			parts = append(parts, &ast.Text{Value: word})
			continue
		}
		if len(parts) == 0 {
			if m, ok := p.matchNoWS(rePropFirst); ok {
				parts = append(parts, &ast.Text{Value: m[0]})
				continue
			}
		}
		break
	}

	p.eatWS = oldWhite
	if len(parts) == 0 {
		return false
	}
	p.whitespace()
	*out = &ast.String{Parts: parts}
	return true
}

var rePropFirst = regexp.MustCompile(`^[:.#]`)
