package generator

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/tomfevang/go-populate-my-db/internal/expr"
)

func init() {
	register("Text", "Yield random text built from a configurable character set.", newText)
}

const (
	lowerChars = "abcdefghijklmnopqrstuvwxyz"
	upperChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars = "0123456789"
	punctChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

// charCategories are the shortcuts a chars template may use; each expands
// to its character class.
var charCategories = map[string]string{
	"<a-Z>":         lowerChars + upperChars,
	"<a-z>":         lowerChars,
	"<A-Z>":         upperChars,
	"<0-9>":         digitChars,
	"<spaces>":      " \t",
	"<printable>":   digitChars + lowerChars + upperChars + punctChars + " \t\n\r\x0b\x0c",
	"<punctuation>": punctChars,
	"<newline>":     "\n",
}

func expandChars(desc string) []rune {
	for category, chars := range charCategories {
		desc = strings.ReplaceAll(desc, category, chars)
	}
	return []rune(desc)
}

// Text yields strings of random length within [min_length, max_length],
// drawing each character uniformly from the expanded chars template.
type Text struct {
	base
	minLen int64
	maxLen int64
	chars  []rune
}

func newText(cfg *Config) (Generator, error) {
	g := &Text{}
	p, err := g.init(cfg)
	if err != nil {
		return nil, err
	}
	if g.minLen, err = p.takeInt("min_length", 0); err != nil {
		return nil, err
	}
	if g.maxLen, err = p.takeInt("max_length", 10000); err != nil {
		return nil, err
	}
	desc, err := p.takeString("chars", "<a-Z><0-9> ")
	if err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	if g.minLen < 0 {
		return nil, p.errorf("min_length must be positive")
	}
	if g.maxLen < g.minLen {
		return nil, p.errorf("min_length is greater than max_length")
	}
	g.chars = expandChars(desc)
	if len(g.chars) == 0 {
		return nil, p.errorf("chars cannot be empty")
	}
	g.generate = g.next
	return g, nil
}

func (g *Text) next(ctx context.Context, vars expr.Vars) (any, error) {
	length := g.minLen + rand.Int64N(g.maxLen-g.minLen+1)
	var sb strings.Builder
	sb.Grow(int(length))
	for range length {
		sb.WriteRune(g.chars[rand.IntN(len(g.chars))])
	}
	return sb.String(), nil
}
