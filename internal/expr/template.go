package expr

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tomfevang/go-populate-my-db/internal/errs"
)

// TemplateExpr is a {{ ... }} / {% ... %} template rendered to a string.
// Interpolations and tag conditions use the same pipeline language as
// $( ... ) expressions, so filters and undefined-name handling behave the
// same everywhere.
type TemplateExpr struct {
	src  string
	body []segment
}

// NewTemplate compiles a template. Syntax problems, including invalid
// embedded expressions, are validation errors.
func NewTemplate(src string) (*TemplateExpr, error) {
	toks, err := lexTemplate(src)
	if err != nil {
		return nil, errs.Validationf("Error parsing template '%s': %v", src, err)
	}
	p := &tmplParser{toks: toks}
	body, _, err := p.parseBody(nil)
	if err != nil {
		return nil, errs.Validationf("Error parsing template '%s': %v", src, err)
	}
	return &TemplateExpr{src: src, body: body}, nil
}

func (t *TemplateExpr) String() string { return t.src }

func (t *TemplateExpr) Evaluate(vars Vars) (any, error) {
	var sb strings.Builder
	for _, seg := range t.body {
		if err := seg.render(&sb, vars); err != nil {
			return nil, errs.Generationf("Error generating template '%s': %v", t.src, err)
		}
	}
	return sb.String(), nil
}

// --- lexing ---

type tmplTokenKind int

const (
	tmplText tmplTokenKind = iota
	tmplPrint
	tmplTag
)

type tmplToken struct {
	kind tmplTokenKind
	text string // literal text, or raw tag content
	expr node   // compiled expression for prints
}

func lexTemplate(src string) ([]tmplToken, error) {
	var toks []tmplToken
	for src != "" {
		iPrint := strings.Index(src, "{{")
		iTag := strings.Index(src, "{%")
		i, closer := iPrint, "}}"
		if iPrint < 0 || (iTag >= 0 && iTag < iPrint) {
			i, closer = iTag, "%}"
		}
		if i < 0 {
			toks = append(toks, tmplToken{kind: tmplText, text: src})
			break
		}
		if i > 0 {
			toks = append(toks, tmplToken{kind: tmplText, text: src[:i]})
		}
		rest := src[i+2:]
		end := strings.Index(rest, closer)
		if end < 0 {
			if closer == "}}" {
				return nil, fmt.Errorf("unexpected end of template, expected end of print statement")
			}
			return nil, fmt.Errorf("unexpected end of template, expected end of block")
		}
		content := rest[:end]
		if closer == "}}" {
			expr, err := parsePipeline(content)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tmplToken{kind: tmplPrint, text: content, expr: expr})
		} else {
			toks = append(toks, tmplToken{kind: tmplTag, text: strings.TrimSpace(content)})
		}
		src = rest[end+len(closer):]
	}
	return toks, nil
}

// --- parsing ---

type tmplParser struct {
	toks []tmplToken
	pos  int
}

var forTagRe = regexp.MustCompile(`^for\s+([A-Za-z_][A-Za-z0-9_]*)\s+in\s+(.+)$`)

// parseBody consumes tokens until it meets one of the stop tags (consumed,
// its keyword returned) or the end of the template. A nil stop list means
// top level, where closing tags are errors and EOF is the normal end.
func (p *tmplParser) parseBody(stop []string) ([]segment, string, error) {
	var body []segment
	for p.pos < len(p.toks) {
		tok := p.toks[p.pos]
		p.pos++
		switch tok.kind {
		case tmplText:
			body = append(body, &textSeg{text: tok.text})
		case tmplPrint:
			body = append(body, &printSeg{expr: tok.expr})
		case tmplTag:
			keyword := tok.text
			if i := strings.IndexByte(keyword, ' '); i >= 0 {
				keyword = keyword[:i]
			}
			for _, s := range stop {
				if keyword == s {
					return body, keyword, nil
				}
			}
			seg, err := p.parseTag(tok.text, keyword)
			if err != nil {
				return nil, "", err
			}
			body = append(body, seg)
		}
	}
	if stop != nil {
		return nil, "", fmt.Errorf("unexpected end of template, expected '%s'", stop[len(stop)-1])
	}
	return body, "", nil
}

func (p *tmplParser) parseTag(content, keyword string) (segment, error) {
	switch keyword {
	case "for":
		m := forTagRe.FindStringSubmatch(content)
		if m == nil {
			return nil, fmt.Errorf("malformed for tag '{%% %s %%}'", content)
		}
		seq, err := parsePipeline(m[2])
		if err != nil {
			return nil, err
		}
		body, _, err := p.parseBody([]string{"endfor"})
		if err != nil {
			return nil, err
		}
		return &forSeg{loopVar: m[1], seq: seq, body: body}, nil
	case "if":
		return p.parseIf(content)
	default:
		return nil, fmt.Errorf("unknown tag '%s'", keyword)
	}
}

func (p *tmplParser) parseIf(content string) (segment, error) {
	out := &ifSeg{}
	for {
		condSrc := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(content, "elif"), "if"))
		if condSrc == "" {
			return nil, fmt.Errorf("malformed if tag '{%% %s %%}'", content)
		}
		cond, err := parsePipeline(condSrc)
		if err != nil {
			return nil, err
		}
		body, stopped, err := p.parseBody([]string{"elif", "else", "endif"})
		if err != nil {
			return nil, err
		}
		out.branches = append(out.branches, ifBranch{cond: cond, body: body})

		switch stopped {
		case "endif":
			return out, nil
		case "else":
			elseBody, _, err := p.parseBody([]string{"endif"})
			if err != nil {
				return nil, err
			}
			out.elseBody = elseBody
			return out, nil
		case "elif":
			content = p.toks[p.pos-1].text
		}
	}
}

// --- rendering ---

type segment interface {
	render(sb *strings.Builder, vars Vars) error
}

type textSeg struct{ text string }

func (s *textSeg) render(sb *strings.Builder, _ Vars) error {
	sb.WriteString(s.text)
	return nil
}

type printSeg struct{ expr node }

func (s *printSeg) render(sb *strings.Builder, vars Vars) error {
	v, err := s.expr.eval(vars)
	if err != nil {
		return err
	}
	if u, ok := v.(undef); ok {
		return fmt.Errorf("%s", u.msg)
	}
	sb.WriteString(Stringify(v))
	return nil
}

type forSeg struct {
	loopVar string
	seq     node
	body    []segment
}

func (s *forSeg) render(sb *strings.Builder, vars Vars) error {
	v, err := s.seq.eval(vars)
	if err != nil {
		return err
	}
	if u, ok := v.(undef); ok {
		return fmt.Errorf("%s", u.msg)
	}
	list, ok := AsList(v)
	if !ok {
		return fmt.Errorf("'%T' object is not iterable", v)
	}

	// The loop variable shadows any existing binding for the duration.
	old, had := vars[s.loopVar]
	defer func() {
		if had {
			vars[s.loopVar] = old
		} else {
			delete(vars, s.loopVar)
		}
	}()

	for _, item := range list {
		vars[s.loopVar] = item
		for _, seg := range s.body {
			if err := seg.render(sb, vars); err != nil {
				return err
			}
		}
	}
	return nil
}

type ifBranch struct {
	cond node
	body []segment
}

type ifSeg struct {
	branches []ifBranch
	elseBody []segment
}

func (s *ifSeg) render(sb *strings.Builder, vars Vars) error {
	for _, branch := range s.branches {
		v, err := branch.cond.eval(vars)
		if err != nil {
			return err
		}
		if u, ok := v.(undef); ok {
			return fmt.Errorf("%s", u.msg)
		}
		if !Truthy(v) {
			continue
		}
		for _, seg := range branch.body {
			if err := seg.render(sb, vars); err != nil {
				return err
			}
		}
		return nil
	}
	for _, seg := range s.elseBody {
		if err := seg.render(sb, vars); err != nil {
			return err
		}
	}
	return nil
}
