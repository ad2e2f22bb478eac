package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/tomfevang/go-populate-my-db/internal/errs"
)

// PipelineExpr is a $( ... ) expression: variable and attribute access,
// literals, filters and additive arithmetic, evaluated to a native value
// rather than rendered to a string. Undefined names surface as generation
// errors unless a default filter catches them.
type PipelineExpr struct {
	src  string
	root node
}

// NewPipeline compiles the content of a $( ... ) expression.
func NewPipeline(src string) (*PipelineExpr, error) {
	root, err := parsePipeline(src)
	if err != nil {
		return nil, errs.Validationf("Error parsing '$(%s)': invalid expression (%v)", src, err)
	}
	return &PipelineExpr{src: src, root: root}, nil
}

func (e *PipelineExpr) String() string { return "$(" + e.src + ")" }

func (e *PipelineExpr) Evaluate(vars Vars) (any, error) {
	v, err := e.root.eval(vars)
	if err != nil {
		return nil, errs.Generationf("Error generating value '%s': %v", e, err)
	}
	if u, ok := v.(undef); ok {
		return nil, errs.Generationf("Error generating value '%s': %s", e, u.msg)
	}
	return v, nil
}

// undef marks a value that does not exist yet. It flows through the
// evaluation so a default filter can replace it; any other use fails with
// the carried message.
type undef struct {
	msg string
}

func undefined(name string) undef {
	return undef{msg: fmt.Sprintf("'%s' is undefined", name)}
}

// --- lexer ---

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokFloat
	tokString
	tokDot
	tokPipe
	tokPlus
	tokMinus
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
)

var tokenNames = map[tokenKind]string{
	tokEOF:      "end of expression",
	tokIdent:    "name",
	tokInt:      "number",
	tokFloat:    "number",
	tokString:   "string",
	tokDot:      "'.'",
	tokPipe:     "'|'",
	tokPlus:     "'+'",
	tokMinus:    "'-'",
	tokLParen:   "'('",
	tokRParen:   "')'",
	tokLBracket: "'['",
	tokRBracket: "']'",
	tokComma:    "','",
}

type token struct {
	kind tokenKind
	text string
}

func lexPipeline(src string) ([]token, error) {
	var toks []token
	runes := []rune(src)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(runes) && (runes[i] == '_' || unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i])) {
				i++
			}
			toks = append(toks, token{tokIdent, string(runes[start:i])})
		case unicode.IsDigit(r):
			start := i
			kind := tokInt
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				i++
			}
			if i+1 < len(runes) && runes[i] == '.' && unicode.IsDigit(runes[i+1]) {
				kind = tokFloat
				i++
				for i < len(runes) && unicode.IsDigit(runes[i]) {
					i++
				}
			}
			toks = append(toks, token{kind, string(runes[start:i])})
		case r == '"' || r == '\'':
			quote := r
			i++
			var sb strings.Builder
			closed := false
			for i < len(runes) {
				if runes[i] == '\\' && i+1 < len(runes) {
					sb.WriteRune(runes[i+1])
					i += 2
					continue
				}
				if runes[i] == quote {
					closed = true
					i++
					break
				}
				sb.WriteRune(runes[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string")
			}
			toks = append(toks, token{tokString, sb.String()})
		default:
			kind, ok := map[rune]tokenKind{
				'.': tokDot, '|': tokPipe, '+': tokPlus, '-': tokMinus,
				'(': tokLParen, ')': tokRParen, '[': tokLBracket, ']': tokRBracket,
				',': tokComma,
			}[r]
			if !ok {
				return nil, fmt.Errorf("unexpected character '%c'", r)
			}
			toks = append(toks, token{kind, string(r)})
			i++
		}
	}
	return append(toks, token{tokEOF, ""}), nil
}

// --- parser ---

type parser struct {
	toks []token
	pos  int
}

func parsePipeline(src string) (node, error) {
	toks, err := lexPipeline(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.additive()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("unexpected %s", tokenNames[p.peek().kind])
	}
	return root, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, fmt.Errorf("unexpected %s, expected %s", tokenNames[t.kind], tokenNames[kind])
	}
	return t, nil
}

func (p *parser) additive() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if op != tokPlus && op != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &binNode{op: op, left: left, right: right}
	}
}

func (p *parser) unary() (node, error) {
	if p.peek().kind == tokMinus {
		p.next()
		n, err := p.postfix()
		if err != nil {
			return nil, err
		}
		return &negNode{expr: n}, nil
	}
	return p.postfix()
}

func (p *parser) postfix() (node, error) {
	n, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().kind {
		case tokDot:
			p.next()
			name, err := p.expect(tokIdent)
			if err != nil {
				return nil, err
			}
			n = &attrNode{recv: n, name: name.text}
		case tokPipe:
			p.next()
			name, err := p.expect(tokIdent)
			if err != nil {
				return nil, err
			}
			fn := filters[name.text]
			if fn == nil && name.text != "d" && name.text != "default" {
				return nil, fmt.Errorf("unknown filter '%s'", name.text)
			}
			args, err := p.callArgs()
			if err != nil {
				return nil, err
			}
			n = &filterNode{recv: n, name: name.text, fn: fn, args: args}
		default:
			return n, nil
		}
	}
}

// callArgs parses an optional parenthesized argument list.
func (p *parser) callArgs() ([]node, error) {
	if p.peek().kind != tokLParen {
		return nil, nil
	}
	p.next()
	var args []node
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.additive()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) primary() (node, error) {
	switch t := p.next(); t.kind {
	case tokIdent:
		switch t.text {
		case "true", "True":
			return &litNode{v: true}, nil
		case "false", "False":
			return &litNode{v: false}, nil
		case "none", "None", "null":
			return &litNode{v: nil}, nil
		}
		if p.peek().kind == tokLParen {
			fn := builtins[t.text]
			if fn == nil {
				return nil, fmt.Errorf("unknown function '%s'", t.text)
			}
			args, err := p.callArgs()
			if err != nil {
				return nil, err
			}
			return &callNode{name: t.text, fn: fn, args: args}, nil
		}
		return &varNode{name: t.text}, nil
	case tokInt:
		v, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number '%s'", t.text)
		}
		return &litNode{v: v}, nil
	case tokFloat:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number '%s'", t.text)
		}
		return &litNode{v: v}, nil
	case tokString:
		return &litNode{v: t.text}, nil
	case tokLParen:
		n, err := p.additive()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return n, nil
	case tokLBracket:
		var elems []node
		if p.peek().kind != tokRBracket {
			for {
				elem, err := p.additive()
				if err != nil {
					return nil, err
				}
				elems = append(elems, elem)
				if p.peek().kind != tokComma {
					break
				}
				p.next()
			}
		}
		if _, err := p.expect(tokRBracket); err != nil {
			return nil, err
		}
		return &listNode{elems: elems}, nil
	default:
		return nil, fmt.Errorf("unexpected %s, expected name", tokenNames[t.kind])
	}
}

// --- evaluation ---

type node interface {
	eval(vars Vars) (any, error)
}

type litNode struct{ v any }

func (n *litNode) eval(Vars) (any, error) { return n.v, nil }

type varNode struct{ name string }

func (n *varNode) eval(vars Vars) (any, error) {
	v, ok := vars[n.name]
	if !ok {
		return undefined(n.name), nil
	}
	return v, nil
}

type listNode struct{ elems []node }

func (n *listNode) eval(vars Vars) (any, error) {
	out := make([]any, 0, len(n.elems))
	for _, elem := range n.elems {
		v, err := elem.eval(vars)
		if err != nil {
			return nil, err
		}
		if u, ok := v.(undef); ok {
			return nil, fmt.Errorf("%s", u.msg)
		}
		out = append(out, v)
	}
	return out, nil
}

type attrNode struct {
	recv node
	name string
}

func (n *attrNode) eval(vars Vars) (any, error) {
	recv, err := n.recv.eval(vars)
	if err != nil {
		return nil, err
	}
	if u, ok := recv.(undef); ok {
		return nil, fmt.Errorf("%s", u.msg)
	}
	return Attr(recv, n.name)
}

type filterNode struct {
	recv node
	name string
	fn   filterFunc
	args []node
}

func (n *filterNode) eval(vars Vars) (any, error) {
	recv, err := n.recv.eval(vars)
	if err != nil {
		return nil, err
	}
	args := make([]any, 0, len(n.args))
	for _, argNode := range n.args {
		arg, err := argNode.eval(vars)
		if err != nil {
			return nil, err
		}
		if u, ok := arg.(undef); ok {
			return nil, fmt.Errorf("%s", u.msg)
		}
		args = append(args, arg)
	}

	// The default filter is the one place an undefined value is legal.
	if n.name == "d" || n.name == "default" {
		if len(args) != 1 {
			return nil, fmt.Errorf("filter '%s' takes exactly one argument", n.name)
		}
		if _, ok := recv.(undef); ok {
			return args[0], nil
		}
		return recv, nil
	}

	if u, ok := recv.(undef); ok {
		return nil, fmt.Errorf("%s", u.msg)
	}
	return n.fn(recv, args)
}

type callNode struct {
	name string
	fn   builtinFunc
	args []node
}

func (n *callNode) eval(vars Vars) (any, error) {
	args := make([]any, 0, len(n.args))
	for _, argNode := range n.args {
		arg, err := argNode.eval(vars)
		if err != nil {
			return nil, err
		}
		if u, ok := arg.(undef); ok {
			return nil, fmt.Errorf("%s", u.msg)
		}
		args = append(args, arg)
	}
	return n.fn(args)
}

type binNode struct {
	op    tokenKind
	left  node
	right node
}

func (n *binNode) eval(vars Vars) (any, error) {
	left, err := n.left.eval(vars)
	if err != nil {
		return nil, err
	}
	if u, ok := left.(undef); ok {
		return nil, fmt.Errorf("%s", u.msg)
	}
	right, err := n.right.eval(vars)
	if err != nil {
		return nil, err
	}
	if u, ok := right.(undef); ok {
		return nil, fmt.Errorf("%s", u.msg)
	}
	if n.op == tokPlus {
		return add(left, right)
	}
	return sub(left, right)
}

type negNode struct{ expr node }

func (n *negNode) eval(vars Vars) (any, error) {
	v, err := n.expr.eval(vars)
	if err != nil {
		return nil, err
	}
	if u, ok := v.(undef); ok {
		return nil, fmt.Errorf("%s", u.msg)
	}
	if isIntKind(v) {
		return -asInt64(v), nil
	}
	if f, ok := asFloat(v); ok {
		return -f, nil
	}
	return nil, fmt.Errorf("cannot negate '%T'", v)
}

func add(a, b any) (any, error) {
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as + bs, nil
		}
	}
	_, aStr := a.(string)
	_, bStr := b.(string)
	if !aStr && !bStr {
		if la, aok := AsList(a); aok {
			if lb, bok := AsList(b); bok {
				return append(append([]any{}, la...), lb...), nil
			}
		}
	}
	if isIntKind(a) && isIntKind(b) {
		return asInt64(a) + asInt64(b), nil
	}
	fa, aok := asFloat(a)
	fb, bok := asFloat(b)
	if aok && bok {
		return fa + fb, nil
	}
	return nil, fmt.Errorf("cannot add '%T' and '%T'", a, b)
}

func sub(a, b any) (any, error) {
	if isIntKind(a) && isIntKind(b) {
		return asInt64(a) - asInt64(b), nil
	}
	fa, aok := asFloat(a)
	fb, bok := asFloat(b)
	if aok && bok {
		return fa - fb, nil
	}
	return nil, fmt.Errorf("cannot subtract '%T' from '%T'", b, a)
}
