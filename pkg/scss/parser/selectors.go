package parser

import (
	"regexp"

	"github.com/marcelmacasso/ws-scss/pkg/scss/ast"
)

var (
	reCombinator = regexp.MustCompile(`^([>+~]+)`)
	reSelRegex   = regexp.MustCompile(`^(/[^/]+/)`)
	rePseudo     = regexp.MustCompile(`^(::?)`)
	reSelEscape  = regexp.MustCompile(`^(\\\S)`)
	reAttrOp     = regexp.MustCompile(`^([|~$*^=-]+)`)
	reSpaces     = regexp.MustCompile(`^(\s+)`)
	reEarlyTerm  = regexp.MustCompile(`^\s*[{,]`)
)

// selectors parses a comma-separated selector list.
func (p *Parser) selectors(out *[]ast.Selector) bool {
	s := p.seek()
	var selectors []ast.Selector
	for {
		var sel ast.Selector
		if !p.selector(&sel) {
			break
		}
		selectors = append(selectors, sel)
		if !p.literal(",") {
			break
		}
		for p.literal(",") {
			// ignore extra commas
		}
	}
	if len(selectors) == 0 {
		p.restore(s)
		return false
	}
	*out = selectors
	return true
}

// selector parses one selector: compound parts interleaved with combinator
// tokens, implicit descendant whitespace, and /vendor/ tokens.
func (p *Parser) selector(out *ast.Selector) bool {
	var sel ast.Selector
	for {
		if m, ok := p.match(reCombinator); ok {
			sel = append(sel, &ast.Text{Value: m[1]})
			continue
		}
		var parts []ast.Value
		if p.selectorSingle(&parts) {
			sel = append(sel, parts...)
			if _, ok := p.matchNoWS(reSpaces); ok {
				sel = append(sel, &ast.Text{Value: " "})
			}
			continue
		}
		if m, ok := p.match(reSelRegex); ok {
			sel = append(sel, &ast.Text{Value: m[1]})
			continue
		}
		break
	}

	// drop trailing descendant markers
	for len(sel) > 0 {
		t, ok := sel[len(sel)-1].(*ast.Text)
		if !ok || t.Value != " " {
			break
		}
		sel = sel[:len(sel)-1]
	}

	if len(sel) == 0 {
		return false
	}
	*out = sel
	return true
}

// selectorSingle parses one compound selector. Selectors are whitespace
// sensitive, so the default whitespace skip is off throughout.
func (p *Parser) selectorSingle(out *[]ast.Value) bool {
	oldWhite := p.eatWS
	p.eatWS = false

	var parts []ast.Value
	if p.literalNoWS("*") {
		parts = append(parts, &ast.Text{Value: "*"})
	}

	for {
		// stop early at the block open or the next selector
		if _, ok := p.peekRe(reEarlyTerm, p.count); ok {
			break
		}

		s := p.seek()
		if p.literalNoWS("&") {
			parts = append(parts, &ast.Text{Value: "&"})
			continue
		}
		if p.literalNoWS(".") {
			parts = append(parts, &ast.Text{Value: "."})
			continue
		}
		if p.literalNoWS("|") {
			parts = append(parts, &ast.Text{Value: "|"})
			continue
		}
		if m, ok := p.matchNoWS(reSelEscape); ok {
			parts = append(parts, &ast.Text{Value: m[1]})
			continue
		}
		// keyframes selectors like 100%
		if m, ok := p.matchNoWS(reNumber); ok {
			parts = append(parts, &ast.Text{Value: m[0]})
			continue
		}
		var word string
		if p.keyword(&word, false) {
			parts = append(parts, &ast.Text{Value: word})
			continue
		}
		var inter ast.Value
		if p.interpolation(&inter, true) {
			parts = append(parts, inter)
			continue
		}
		if p.literalNoWS("%") {
			parts = append(parts, &ast.Text{Value: "%"})
			var name string
			if p.keyword(&name, false) {
				parts = append(parts, &ast.Text{Value: name})
			} else if p.interpolation(&inter, true) {
				parts = append(parts, inter)
			}
			continue
		}
		if p.literalNoWS("#") {
			parts = append(parts, &ast.Text{Value: "#"})
			continue
		}

		// pseudo class, with arbitrary argument text
		if m, ok := p.matchNoWS(rePseudo); ok {
			var nameParts []ast.Value
			if p.mixedKeyword(&nameParts) {
				parts = append(parts, &ast.Text{Value: m[1]})
				parts = append(parts, nameParts...)

				ss := p.seek()
				if p.literalNoWS("(") {
					var str ast.Value
					okStr := p.openString(")", &str, "(")
					if p.literalNoWS(")") {
						parts = append(parts, &ast.Text{Value: "("})
						if okStr {
							parts = append(parts, str)
						}
						parts = append(parts, &ast.Text{Value: ")"})
					} else {
						p.restore(ss)
					}
				} else {
					p.restore(ss)
				}
				continue
			}
			p.restore(s)
		}

		// attribute selector
		if p.literalNoWS("[") {
			parts = append(parts, &ast.Text{Value: "["})
			if !p.attributeParts(&parts) {
				break
			}
			continue
		}

		break
	}

	p.eatWS = oldWhite
	if len(parts) == 0 {
		return false
	}
	*out = parts
	return true
}

// attributeParts tokenizes the inside of an attribute selector up to the
// closing bracket.
func (p *Parser) attributeParts(parts *[]ast.Value) bool {
	for {
		if p.literalNoWS("]") {
			*parts = append(*parts, &ast.Text{Value: "]"})
			return true
		}
		if _, ok := p.matchNoWS(reSpaces); ok {
			*parts = append(*parts, &ast.Text{Value: " "})
			continue
		}
		var str ast.Value
		if p.parseString(&str) {
			*parts = append(*parts, str)
			continue
		}
		var word string
		if p.keyword(&word, false) {
			*parts = append(*parts, &ast.Text{Value: word})
			continue
		}
		var inter ast.Value
		if p.interpolation(&inter, false) {
			*parts = append(*parts, inter)
			continue
		}
		if m, ok := p.matchNoWS(reAttrOp); ok {
			*parts = append(*parts, &ast.Text{Value: m[1]})
			continue
		}
		return false
	}
}

// mixedKeyword parses a run of keywords and interpolations with no
// whitespace between them, e.g. a pseudo class name like nth-#{$kind}.
func (p *Parser) mixedKeyword(out *[]ast.Value) bool {
	oldWhite := p.eatWS
	p.eatWS = false

	var parts []ast.Value
	for {
		var word string
		if p.keyword(&word, false) {
			parts = append(parts, &ast.Text{Value: word})
			continue
		}
		var inter ast.Value
		if p.interpolation(&inter, true) {
			parts = append(parts, inter)
			continue
		}
		break
	}

	p.eatWS = oldWhite
	if len(parts) == 0 {
		return false
	}
	*out = parts
	return true
}
