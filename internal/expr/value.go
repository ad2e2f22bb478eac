package expr

import (
	"strings"

	"github.com/tomfevang/go-populate-my-db/internal/errs"
)

// ValueExpr is a bare $name.attr.attr reference. It resolves the name in the
// environment and walks the attribute path, keeping the value's native type.
type ValueExpr struct {
	source string
	name   string
	path   []string
}

// NewValue builds a ValueExpr from a dotted path (without the leading $).
func NewValue(path string) *ValueExpr {
	parts := strings.Split(path, ".")
	return &ValueExpr{source: path, name: parts[0], path: parts[1:]}
}

func (e *ValueExpr) String() string { return "$" + e.source }

func (e *ValueExpr) Evaluate(vars Vars) (any, error) {
	v, ok := vars[e.name]
	if !ok {
		return nil, errs.Generationf("Error generating value '%s': '%s' is undefined", e, e.name)
	}
	for _, name := range e.path {
		var err error
		v, err = Attr(v, name)
		if err != nil {
			return nil, errs.Generationf("Error generating value '%s': %v", e, err)
		}
	}
	return v, nil
}
