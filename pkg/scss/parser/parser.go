// Package parser implements the SCSS front end: a recursive-descent parser
// with fused lexical scanning.
//
// The grammar is not LL(k) for any small k, so the parser works on the raw
// buffer with an integer cursor, anchored regex probes, and snapshot/restore
// backtracking. Every alternative takes a snapshot before attempting and
// restores the cursor exactly on failure; an alternative commits only when
// every subproduction and its terminating literal matched.
package parser

import (
	"regexp"
	"strings"

	"github.com/marcelmacasso/ws-scss/pkg/scss/ast"
	serrors "github.com/marcelmacasso/ws-scss/pkg/scss/errors"
)

// Parser holds the mutable cursor state for one source buffer. A Parser is
// used by one caller at a time; parse a second file with a fresh instance.
type Parser struct {
	sourceName  string
	sourceIndex int

	buffer       string
	count        int
	env          *ast.Block
	inParens     bool
	eatWS        bool
	seenComments map[int]bool
	charset      *ast.Charset
}

// New creates a parser for one source buffer. sourceName is the display
// string used in error messages; sourceIndex is an opaque integer stamped
// on every statement for later file mapping.
func New(sourceName string, sourceIndex int) *Parser {
	if sourceName == "" {
		sourceName = "(stdin)"
	}
	return &Parser{
		sourceName:  sourceName,
		sourceIndex: sourceIndex,
	}
}

func (p *Parser) init(buffer string) {
	p.buffer = strings.TrimRightFunc(buffer, func(r rune) bool { return r < 0x20 })
	p.count = 0
	p.env = nil
	p.inParens = false
	p.eatWS = true
	p.seenComments = make(map[int]bool)
	p.charset = nil
}

// Parse parses a whole stylesheet and returns the root block.
func (p *Parser) Parse(buffer string) (root *ast.Block, err error) {
	defer func() {
		if r := recover(); r != nil {
			if perr, ok := r.(*serrors.ParseError); ok {
				root, err = nil, perr
				return
			}
			panic(r)
		}
	}()

	p.init(buffer)
	p.pushBlock(nil, 0)
	p.whitespace()
	p.flushComments()

	for p.parseChunk() {
	}

	if p.count != len(p.buffer) {
		p.throwParseError("parse error", p.count)
	}
	if p.env.Parent != nil {
		p.throwParseError("unclosed block", p.count)
	}
	p.flushComments()
	if p.charset != nil {
		p.env.Children = append([]ast.Statement{p.charset}, p.env.Children...)
	}

	p.env.IsRoot = true
	return p.env, nil
}

// ParseValue parses a single value list, e.g. a variable default or the
// right-hand side of a property.
func (p *Parser) ParseValue(buffer string) (value ast.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if perr, ok := r.(*serrors.ParseError); ok {
				value, err = nil, perr
				return
			}
			panic(r)
		}
	}()

	p.init(buffer)
	p.whitespace()

	var out ast.Value
	if !p.valueList(&out) || p.count != len(p.buffer) {
		p.throwParseError("parse error", p.count)
	}
	return out, nil
}

// ParseSelectors parses a comma-separated selector list.
func (p *Parser) ParseSelectors(buffer string) (sels []ast.Selector, err error) {
	defer func() {
		if r := recover(); r != nil {
			if perr, ok := r.(*serrors.ParseError); ok {
				sels, err = nil, perr
				return
			}
			panic(r)
		}
	}()

	p.init(buffer)
	p.whitespace()

	var out []ast.Selector
	if !p.selectors(&out) || p.count != len(p.buffer) {
		p.throwParseError("parse error", p.count)
	}
	return out, nil
}

// ----------------------------------------------------------------------------
// Cursor & matcher

var reWhite = regexp.MustCompile(`(?is)^(?://[^\n]*\s*|(/\*.*?\*/)|\s+)`)

func (p *Parser) seek() int     { return p.count }
func (p *Parser) restore(s int) { p.count = s }

// match runs an anchored regex at the cursor, advancing past the match and
// eating trailing whitespace per the current default.
func (p *Parser) match(re *regexp.Regexp) ([]string, bool) {
	return p.matchRe(re, p.eatWS)
}

// matchNoWS is match without the trailing whitespace skip.
func (p *Parser) matchNoWS(re *regexp.Regexp) ([]string, bool) {
	return p.matchRe(re, false)
}

func (p *Parser) matchRe(re *regexp.Regexp, eat bool) ([]string, bool) {
	m := re.FindStringSubmatch(p.buffer[p.count:])
	if m == nil {
		return nil, false
	}
	p.count += len(m[0])
	if eat {
		p.whitespace()
	}
	return m, true
}

// peekRe runs an anchored regex at an arbitrary position without advancing.
func (p *Parser) peekRe(re *regexp.Regexp, from int) ([]string, bool) {
	m := re.FindStringSubmatch(p.buffer[from:])
	if m == nil {
		return nil, false
	}
	return m, true
}

// literal matches exact text (case-insensitive) at the cursor, eating
// trailing whitespace per the current default.
func (p *Parser) literal(what string) bool {
	return p.literalWS(what, p.eatWS)
}

// literalNoWS is literal without the trailing whitespace skip.
func (p *Parser) literalNoWS(what string) bool {
	return p.literalWS(what, false)
}

func (p *Parser) literalWS(what string, eat bool) bool {
	n := len(what)
	if len(p.buffer)-p.count < n {
		return false
	}
	if !strings.EqualFold(p.buffer[p.count:p.count+n], what) {
		return false
	}
	p.count += n
	if eat {
		p.whitespace()
	}
	return true
}

// whitespace skips whitespace runs and comments. Block comments are emitted
// to the current block exactly once, keyed on their start position.
func (p *Parser) whitespace() bool {
	gotWhite := false
	for {
		m, ok := p.matchRe(reWhite, false)
		if !ok {
			break
		}
		if m[1] != "" {
			start := p.count - len(m[0])
			if !p.seenComments[start] {
				p.appendComment(start, m[1])
				p.seenComments[start] = true
			}
		}
		gotWhite = true
	}
	return gotWhite
}

func (p *Parser) appendComment(pos int, text string) {
	if p.env == nil {
		return
	}
	comment := &ast.Comment{Text: text}
	comment.SetTag(ast.Source{Index: p.sourceIndex, Pos: pos})
	p.env.Comments = append(p.env.Comments, comment)
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

// ----------------------------------------------------------------------------
// Block stack

func (p *Parser) pushBlock(selectors []ast.Selector, pos int) *ast.Block {
	b := &ast.Block{
		Parent:      p.env,
		Selectors:   selectors,
		SourceIndex: p.sourceIndex,
		SourcePos:   pos,
	}
	// Comments preceding the opening brace belong inside the new block.
	if p.env != nil && len(p.env.Comments) > 0 {
		b.Children = p.env.Comments
		p.env.Comments = nil
	}
	p.env = b
	return b
}

func (p *Parser) pushSpecialBlock(kind ast.BlockKind, pos int) *ast.Block {
	b := p.pushBlock(nil, pos)
	b.Kind = kind
	return b
}

func (p *Parser) popBlock() *ast.Block {
	block := p.env
	if block.Parent == nil {
		p.throwParseError("unexpected }", p.count)
	}
	p.env = block.Parent
	block.Parent = nil
	// Comments at end of block migrate to the outer scope.
	if len(block.Comments) > 0 {
		p.env.Comments = block.Comments
		block.Comments = nil
	}
	return block
}

// appendChild appends a statement to the current block, stamping its source
// tag and flushing any pending comments after it.
func (p *Parser) appendChild(stmt ast.Statement, pos int) {
	stmt.SetTag(ast.Source{Index: p.sourceIndex, Pos: pos})
	p.env.Children = append(p.env.Children, stmt)
	if len(p.env.Comments) > 0 {
		p.env.Children = append(p.env.Children, p.env.Comments...)
		p.env.Comments = nil
	}
}

func (p *Parser) flushComments() {
	if p.env != nil && len(p.env.Comments) > 0 {
		p.env.Children = append(p.env.Children, p.env.Comments...)
		p.env.Comments = nil
	}
}

// last returns the most recently appended statement of the current block.
func (p *Parser) last() ast.Statement {
	if n := len(p.env.Children); n > 0 {
		return p.env.Children[n-1]
	}
	return nil
}

// end matches the termination of a statement: a semicolon, a closing brace
// (left for the block close to consume), or end of buffer.
func (p *Parser) end() bool {
	if p.literal(";") {
		return true
	}
	if p.count == len(p.buffer) || p.buffer[p.count] == '}' {
		return true
	}
	return false
}

// ----------------------------------------------------------------------------
// Chunk dispatcher

// parseChunk attempts one top-level parse step: a directive, an assignment,
// a block open or close, or a stray separator. It returns false only when
// nothing matched at the cursor, which the caller interprets as end of
// document or a parse error depending on position.
func (p *Parser) parseChunk() bool {
	s := p.seek()

	// the directive dispatcher
	if p.count < len(p.buffer) && p.buffer[p.count] == '@' {
		if p.parseDirective(s) {
			return true
		}
	}

	// property shortcut: catches the common `prop: value;` before the more
	// expensive selector parse. The mandatory space after the colon is what
	// distinguishes a property from a selector like `a:hover`.
	var propName string
	if p.keyword(&propName, false) && p.literal(": ") {
		var value ast.Value
		if p.valueList(&value) && p.end() {
			target := &ast.String{Parts: []ast.Value{&ast.Text{Value: propName}}}
			p.appendChild(&ast.Assign{Target: target, Value: value}, s)
			return true
		}
	}
	p.restore(s)

	// variable assignment
	var variable ast.Value
	if p.variable(&variable) && p.literal(":") {
		var value ast.Value
		if p.valueList(&value) && p.end() {
			flag := stripAssignmentFlag(&value)
			p.appendChild(&ast.Assign{Target: variable, Value: value, Flag: flag}, s)
			return true
		}
	}
	p.restore(s)

	// html comment close
	if p.literal("-->") {
		return true
	}
	p.restore(s)

	// opening a rule block
	var sels []ast.Selector
	if p.selectors(&sels) && p.literal("{") {
		p.pushBlock(sels, s)
		return true
	}
	p.restore(s)

	// property assignment or nested property block (or both)
	var name ast.Value
	if p.propertyName(&name) && p.literal(":") {
		foundSomething := false
		var value ast.Value
		if p.valueList(&value) {
			p.appendChild(&ast.Assign{Target: name, Value: value}, s)
			foundSomething = true
		}
		if p.literal("{") {
			propBlock := p.pushSpecialBlock(ast.KindNestedProperty, s)
			propBlock.Prefix = name.(*ast.String)
			foundSomething = true
		} else if foundSomething {
			foundSomething = p.end()
		}
		if foundSomething {
			return true
		}
	}
	p.restore(s)

	// closing a block
	if p.literal("}") {
		block := p.popBlock()
		if block.Kind == ast.KindInclude && block.Pending != nil {
			include := block.Pending
			block.Pending = nil
			include.Content = block
			p.appendChild(include, s)
		} else if !block.DontAppend {
			p.appendChild(&ast.BlockStmt{Block: block}, s)
		}
		return true
	}
	p.restore(s)

	// extra separators
	if p.literal(";") || p.literal("<!--") {
		return true
	}
	p.restore(s)

	return false
}

// ----------------------------------------------------------------------------
// Directives

func (p *Parser) parseDirective(s int) bool {
	if p.parseAtRoot(s) {
		return true
	}
	if p.parseMedia(s) {
		return true
	}
	if p.parseMixin(s) {
		return true
	}
	if p.parseInclude(s) {
		return true
	}
	if p.parseImportOnce(s) {
		return true
	}
	if p.parseImport(s) {
		return true
	}
	if p.parseExtend(s) {
		return true
	}
	if p.parseFunction(s) {
		return true
	}
	if p.parseSimpleDirective(s) {
		return true
	}
	if p.parseEach(s) {
		return true
	}
	if p.parseWhile(s) {
		return true
	}
	if p.parseFor(s) {
		return true
	}
	if p.parseIf(s) {
		return true
	}
	if p.parseValueDirective(s) {
		return true
	}
	if p.parseElse(s) {
		return true
	}
	if p.parseCharset(s) {
		return true
	}
	return p.parseGenericDirective(s)
}

func (p *Parser) parseAtRoot(s int) bool {
	if p.literal("@at-root") {
		var sels []ast.Selector
		p.selectors(&sels)
		var with ast.Value
		p.parseMap(&with)
		if p.literal("{") {
			atRoot := p.pushSpecialBlock(ast.KindAtRoot, s)
			atRoot.Selectors = sels
			atRoot.With = with
			return true
		}
	}
	p.restore(s)
	return false
}

func (p *Parser) parseMedia(s int) bool {
	var query ast.Value
	if p.literal("@media") && p.valueList(&query) && p.literal("{") {
		media := p.pushSpecialBlock(ast.KindMedia, s)
		media.Query = query
		return true
	}
	p.restore(s)
	return false
}

func (p *Parser) parseMixin(s int) bool {
	var name string
	if p.literal("@mixin") && p.keyword(&name, p.eatWS) {
		args, _ := p.argumentDef()
		if p.literal("{") {
			mixin := p.pushSpecialBlock(ast.KindMixin, s)
			mixin.Name = name
			mixin.Args = args
			return true
		}
	}
	p.restore(s)
	return false
}

func (p *Parser) parseFunction(s int) bool {
	var name string
	if p.literal("@function") && p.keyword(&name, p.eatWS) {
		args, _ := p.argumentDef()
		if p.literal("{") {
			fn := p.pushSpecialBlock(ast.KindFunction, s)
			fn.Name = name
			fn.Args = args
			return true
		}
	}
	p.restore(s)
	return false
}

func (p *Parser) parseInclude(s int) bool {
	var name string
	if p.literal("@include") && p.keyword(&name, p.eatWS) {
		var args []ast.CallArg
		argsStart := p.seek()
		if p.literal("(") {
			p.argValues(&args)
			if !p.literal(")") {
				args = nil
				p.restore(argsStart)
			}
		}
		child := &ast.Include{Name: name, Args: args}
		if p.end() {
			p.appendChild(child, s)
			return true
		}
		if p.literal("{") {
			include := p.pushSpecialBlock(ast.KindInclude, s)
			include.Pending = child
			return true
		}
	}
	p.restore(s)
	return false
}

func (p *Parser) parseImportOnce(s int) bool {
	var path ast.Value
	if p.literal("@scssphp-import-once") && p.valueList(&path) && p.end() {
		p.appendChild(&ast.ImportOnce{Path: path}, s)
		return true
	}
	p.restore(s)
	return false
}

func (p *Parser) parseImport(s int) bool {
	var path ast.Value
	if p.literal("@import") && p.valueList(&path) && p.end() {
		p.appendChild(&ast.Import{Path: path}, s)
		return true
	}
	p.restore(s)

	// fallback for a bare url(...) the value parser did not accept
	if p.literal("@import") && p.url(&path) && p.end() {
		p.appendChild(&ast.Import{Path: path}, s)
		return true
	}
	p.restore(s)
	return false
}

func (p *Parser) parseExtend(s int) bool {
	var sels []ast.Selector
	if p.literal("@extend") && p.selectors(&sels) && p.end() {
		p.appendChild(&ast.Extend{Selectors: sels}, s)
		return true
	}
	p.restore(s)
	return false
}

// parseSimpleDirective handles the argumentless statement directives.
func (p *Parser) parseSimpleDirective(s int) bool {
	if p.literal("@break") && p.end() {
		p.appendChild(&ast.Break{}, s)
		return true
	}
	p.restore(s)
	if p.literal("@continue") && p.end() {
		p.appendChild(&ast.Continue{}, s)
		return true
	}
	p.restore(s)
	if p.literal("@content") && p.end() {
		p.appendChild(&ast.MixinContent{}, s)
		return true
	}
	p.restore(s)
	return false
}

// parseValueDirective handles the directives carrying a single value list.
func (p *Parser) parseValueDirective(s int) bool {
	var value ast.Value
	if p.literal("@return") && p.valueList(&value) && p.end() {
		p.appendChild(&ast.Return{Value: value}, s)
		return true
	}
	p.restore(s)
	if p.literal("@debug") && p.valueList(&value) && p.end() {
		p.appendChild(&ast.Debug{Value: value}, s)
		return true
	}
	p.restore(s)
	if p.literal("@warn") && p.valueList(&value) && p.end() {
		p.appendChild(&ast.Warn{Value: value}, s)
		return true
	}
	p.restore(s)
	if p.literal("@error") && p.valueList(&value) && p.end() {
		p.appendChild(&ast.Error{Value: value}, s)
		return true
	}
	p.restore(s)
	return false
}

func (p *Parser) parseEach(s int) bool {
	if p.literal("@each") {
		var vars []string
		for {
			var v ast.Value
			if !p.variable(&v) {
				break
			}
			vars = append(vars, v.(*ast.Variable).Name)
			if !p.literal(",") {
				break
			}
		}
		var list ast.Value
		if len(vars) > 0 && p.literal("in") && p.valueList(&list) && p.literal("{") {
			each := p.pushSpecialBlock(ast.KindEach, s)
			each.Vars = vars
			each.List = list
			return true
		}
	}
	p.restore(s)
	return false
}

func (p *Parser) parseWhile(s int) bool {
	var cond ast.Value
	if p.literal("@while") && p.expression(&cond) && p.literal("{") {
		while := p.pushSpecialBlock(ast.KindWhile, s)
		while.Cond = cond
		return true
	}
	p.restore(s)
	return false
}

func (p *Parser) parseFor(s int) bool {
	var v ast.Value
	var start, endVal ast.Value
	if p.literal("@for") && p.variable(&v) && p.literal("from") && p.expression(&start) {
		until := false
		ok := p.literal("through")
		if !ok {
			ok = p.literal("to")
			until = ok
		}
		if ok && p.expression(&endVal) && p.literal("{") {
			forBlock := p.pushSpecialBlock(ast.KindFor, s)
			forBlock.Var = v.(*ast.Variable).Name
			forBlock.Start = start
			forBlock.End = endVal
			forBlock.Until = until
			return true
		}
	}
	p.restore(s)
	return false
}

func (p *Parser) parseIf(s int) bool {
	var cond ast.Value
	if p.literal("@if") && p.valueList(&cond) && p.literal("{") {
		ifBlock := p.pushSpecialBlock(ast.KindIf, s)
		ifBlock.Cond = cond
		return true
	}
	p.restore(s)
	return false
}

// parseElse links @else and @else if blocks into the If at the tail of the
// current block; they are never appended as siblings.
func (p *Parser) parseElse(s int) bool {
	if !p.literal("@else") {
		p.restore(s)
		return false
	}

	kind := ast.KindElse
	ss := p.seek()
	var cond ast.Value
	if p.literal("if") && p.valueList(&cond) && p.literal("{") {
		kind = ast.KindElseIf
	} else {
		cond = nil
		p.restore(ss)
		if !p.literal("{") {
			p.restore(s)
			return false
		}
	}

	ifStmt, ok := p.last().(*ast.BlockStmt)
	if !ok || ifStmt.Block.Kind != ast.KindIf {
		p.throwParseError("unexpected @else", s)
	}

	elseBlock := p.pushSpecialBlock(kind, s)
	elseBlock.Cond = cond
	elseBlock.DontAppend = true
	ifStmt.Block.Cases = append(ifStmt.Block.Cases, elseBlock)
	return true
}

func (p *Parser) parseCharset(s int) bool {
	var value ast.Value
	if p.literal("@charset") && p.valueList(&value) && p.end() {
		// only the first @charset survives
		if p.charset == nil {
			charset := &ast.Charset{Value: value}
			charset.SetTag(ast.Source{Index: p.sourceIndex, Pos: s})
			p.charset = charset
		}
		return true
	}
	p.restore(s)
	return false
}

func (p *Parser) parseGenericDirective(s int) bool {
	var name string
	if p.literalNoWS("@") && p.keyword(&name, p.eatWS) {
		var value ast.Value
		if !p.variable(&value) {
			var str ast.Value
			if p.openString("{", &str, "") {
				value = str
			}
		}
		if p.literal("{") {
			directive := p.pushSpecialBlock(ast.KindDirective, s)
			directive.Name = name
			directive.Value = value
			return true
		}
	}
	p.restore(s)
	return false
}

// ----------------------------------------------------------------------------
// Error reporting

// throwParseError aborts the parse with a located error. The panic is
// recovered by the public entry points.
func (p *Parser) throwParseError(msg string, pos int) {
	if pos > len(p.buffer) {
		pos = len(p.buffer)
	}
	before := p.buffer[:pos]
	line := strings.Count(before, "\n") + 1
	column := pos - strings.LastIndexByte(before, '\n')

	snippet := p.buffer[pos:]
	if nl := strings.IndexByte(snippet, '\n'); nl >= 0 {
		snippet = snippet[:nl]
	}

	panic(&serrors.ParseError{
		Message: msg,
		File:    p.sourceName,
		Line:    line,
		Column:  column,
		Snippet: snippet,
	})
}
