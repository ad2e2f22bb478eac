// Package expr implements the small expression language used in blueprint
// files: $name value references, $( ... ) pipelines evaluated to native
// values, and {{ ... }} / {% ... %} templates rendered to strings.
//
// Parse decides which of the three a raw scalar is. Anything that is not a
// string, or a string without expression markers, stays a literal. A
// backslash-escaped \$ survives as a literal dollar sign.
package expr

import (
	"regexp"
	"strings"

	"github.com/tomfevang/go-populate-my-db/internal/errs"
)

// Vars is the variable environment expressions are evaluated against. The
// engine shares a single live map across a generation run.
type Vars map[string]any

// Expression is a parsed blueprint expression. String returns the original
// source text, which error messages quote back to the user.
type Expression interface {
	Evaluate(vars Vars) (any, error)
	String() string
}

var (
	valueRe    = regexp.MustCompile(`^\$([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)\s*$`)
	pipelineRe = regexp.MustCompile(`^\$\((.+)\)\s*$`)
)

// Parse turns a raw blueprint scalar into an Expression, or returns it
// unchanged when it is not a string or carries no expression markers. A
// string starting with an unescaped $ must be a single value reference or a
// single $( ... ) pipeline; anything else there is a validation error.
func Parse(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}

	if strings.HasPrefix(s, "$") {
		if strings.HasPrefix(s, "$(") {
			m := pipelineRe.FindStringSubmatch(s)
			if m == nil {
				return nil, errs.Validationf("Error parsing '%s': unterminated expression", s)
			}
			return NewPipeline(m[1])
		}
		m := valueRe.FindStringSubmatch(s)
		if m == nil {
			return nil, errs.Validationf("Error parsing '%s': invalid variable reference", s)
		}
		return NewValue(m[1]), nil
	}

	if strings.Contains(s, "{{") || strings.Contains(s, "{%") {
		return NewTemplate(unescape(s))
	}
	return unescape(s), nil
}

func unescape(s string) string {
	return strings.ReplaceAll(s, `\$`, "$")
}

// Eval resolves v against vars when it is a parsed expression, and returns
// it unchanged otherwise.
func Eval(v any, vars Vars) (any, error) {
	if e, ok := v.(Expression); ok {
		return e.Evaluate(vars)
	}
	return v, nil
}
