package rule

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenIdent
	tokenString
	tokenNumber
	tokenDot
	tokenImply    // => or ⇒
	tokenEqual    // ==
	tokenNotEqual // !=
)

type token struct {
	typ   tokenType
	value string
	pos   int
}

type lexer struct {
	input string
	pos   int
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

func (l *lexer) nextToken() (token, error) {
	l.skipWhitespace()

	start := l.pos
	if l.pos >= len(l.input) {
		return token{typ: tokenEOF, pos: start}, nil
	}

	rest := l.input[l.pos:]
	switch {
	case strings.HasPrefix(rest, "=>"):
		l.pos += 2
		return token{typ: tokenImply, value: "=>", pos: start}, nil
	case strings.HasPrefix(rest, "⇒"):
		l.pos += len("⇒")
		return token{typ: tokenImply, value: "⇒", pos: start}, nil
	case strings.HasPrefix(rest, "=="):
		l.pos += 2
		return token{typ: tokenEqual, value: "==", pos: start}, nil
	case strings.HasPrefix(rest, "!="):
		l.pos += 2
		return token{typ: tokenNotEqual, value: "!=", pos: start}, nil
	}

	ch := l.input[l.pos]
	switch {
	case ch == '.':
		l.pos++
		return token{typ: tokenDot, value: ".", pos: start}, nil
	case ch == '"' || ch == '\'':
		return l.readString(ch)
	case isDigit(ch) || (ch == '-' && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1])):
		return l.readNumber(), nil
	case isIdentStart(ch):
		return l.readIdent(), nil
	}

	return token{}, fmt.Errorf("unexpected character '%c' at position %d", ch, l.pos)
}

func (l *lexer) readString(quote byte) (token, error) {
	start := l.pos
	l.pos++
	end := strings.IndexByte(l.input[l.pos:], quote)
	if end < 0 {
		return token{}, fmt.Errorf("unterminated string literal at position %d", start)
	}
	value := l.input[l.pos : l.pos+end]
	l.pos += end + 1
	return token{typ: tokenString, value: value, pos: start}, nil
}

// readNumber reads an optionally signed decimal. Digits after a dot are
// part of the number, so 1.5 is a single literal.
func (l *lexer) readNumber() token {
	start := l.pos
	if l.input[l.pos] == '-' {
		l.pos++
	}
	for l.pos < len(l.input) && (isDigit(l.input[l.pos]) || l.input[l.pos] == '.') {
		l.pos++
	}
	return token{typ: tokenNumber, value: l.input[start:l.pos], pos: start}
}

func (l *lexer) readIdent() token {
	start := l.pos
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.pos++
	}
	return token{typ: tokenIdent, value: l.input[start:l.pos], pos: start}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '-'
}

type parser struct {
	lexer   *lexer
	current token
}

func (p *parser) advance() error {
	tok, err := p.lexer.nextToken()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

// Parse parses src into a Rule. When names is not nil every referenced
// entry must be among them.
//
// Grammar:
//
//	rule       = comparison [ ("=>" | "⇒") comparison ]
//	comparison = operand [ ("==" | "!=") operand ]
//	operand    = name | "execution.env" | string | number
func Parse(name, src string, names []string) (Rule, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return Rule{}, fmt.Errorf("empty rule expression")
	}

	p := &parser{lexer: &lexer{input: src}}
	if err := p.advance(); err != nil {
		return Rule{}, err
	}

	expr, err := p.parseRule()
	if err != nil {
		return Rule{}, err
	}
	if p.current.typ != tokenEOF {
		return Rule{}, fmt.Errorf("unexpected token '%s' at position %d", p.current.value, p.current.pos)
	}

	if names != nil {
		if err := checkRefs(expr, names); err != nil {
			return Rule{}, err
		}
	}

	return Rule{Name: name, Source: src, Expr: expr}, nil
}

func (p *parser) parseRule() (Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	if p.current.typ == tokenImply {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		return Implication{Antecedent: left, Consequent: right}, nil
	}

	return left, nil
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	if p.current.typ == tokenEqual || p.current.typ == tokenNotEqual {
		op := OpEqual
		if p.current.typ == tokenNotEqual {
			op = OpNotEqual
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return Comparison{Left: left, Right: right, Operator: op}, nil
	}

	return left, nil
}

func (p *parser) parseOperand() (Expr, error) {
	switch p.current.typ {
	case tokenString, tokenNumber:
		value := p.current.value
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Literal{Value: value}, nil
	case tokenIdent:
		return p.parseRef()
	case tokenEOF:
		return nil, fmt.Errorf("expected operand at end of rule")
	default:
		return nil, fmt.Errorf("expected operand, got '%s' at position %d", p.current.value, p.current.pos)
	}
}

func (p *parser) parseRef() (Expr, error) {
	parts := []string{p.current.value}
	if err := p.advance(); err != nil {
		return nil, err
	}

	for p.current.typ == tokenDot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.current.typ != tokenIdent {
			return nil, fmt.Errorf("expected name after '.', got '%s' at position %d", p.current.value, p.current.pos)
		}
		parts = append(parts, p.current.value)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	name := strings.Join(parts, ".")
	if name == "execution.env" {
		return EnvRef{}, nil
	}
	return Ref{Name: name}, nil
}

// Format renders expr in canonical form; Parse(Format(e)) yields e again.
func Format(expr Expr) string {
	switch e := expr.(type) {
	case Implication:
		return fmt.Sprintf("%s => %s", Format(e.Antecedent), Format(e.Consequent))
	case Comparison:
		return fmt.Sprintf("%s %s %s", Format(e.Left), e.Operator, Format(e.Right))
	case Ref:
		return e.Name
	case EnvRef:
		return "execution.env"
	case Literal:
		if isNumberLiteral(e.Value) {
			return e.Value
		}
		if strings.Contains(e.Value, `"`) {
			return "'" + e.Value + "'"
		}
		return `"` + e.Value + `"`
	default:
		return "<unknown>"
	}
}

func isNumberLiteral(s string) bool {
	l := &lexer{input: s}
	tok, err := l.nextToken()
	return err == nil && tok.typ == tokenNumber && l.pos == len(s)
}

// Refs returns the entry names expr refers to, sorted and deduplicated.
func Refs(expr Expr) []string {
	seen := make(map[string]bool)
	collectRefs(expr, seen)

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func collectRefs(expr Expr, seen map[string]bool) {
	switch e := expr.(type) {
	case Implication:
		collectRefs(e.Antecedent, seen)
		collectRefs(e.Consequent, seen)
	case Comparison:
		collectRefs(e.Left, seen)
		collectRefs(e.Right, seen)
	case Ref:
		seen[e.Name] = true
	}
}

func checkRefs(expr Expr, names []string) error {
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}

	var undefined []string
	for _, ref := range Refs(expr) {
		if !known[ref] {
			undefined = append(undefined, ref)
		}
	}
	if len(undefined) > 0 {
		return fmt.Errorf("undefined configuration(s): %s", strings.Join(undefined, ", "))
	}
	return nil
}
