package expr

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomfevang/go-populate-my-db/internal/errs"
)

func TestParseLiterals(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"int", 0, 0},
		{"empty string", "", ""},
		{"plain string", "foo", "foo"},
		{"dollar not at start", "foo $bar", "foo $bar"},
		{"single space", " ", " "},
		{"padded string", " foo ", " foo "},
		{"escaped dollar", `\$foo`, "$foo"},
		{"escaped dollar with path", `\$foo.bar`, "$foo.bar"},
		{"escaped dollar with text", `\$foo.bar lol`, "$foo.bar lol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%v) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string // String() of the parsed expression
		kind string
	}{
		{"value", "$foo", "$foo", "value"},
		{"value with attr", "$foo.bar", "$foo.bar", "value"},
		{"value with deep attrs", "$foo.bar.lol", "$foo.bar.lol", "value"},
		{"value with underscores", "$_a2.x3_", "$_a2.x3_", "value"},
		{"value trailing spaces", "$foo  ", "$foo", "value"},
		{"pipeline", "$(foo)", "$(foo)", "pipeline"},
		{"pipeline with attr", "$(foo.bar)", "$(foo.bar)", "pipeline"},
		{"pipeline with filters", `$(foo|random|d("foo"))`, `$(foo|random|d("foo"))`, "pipeline"},
		{"pipeline trailing spaces", "$(foo)  ", "$(foo)", "pipeline"},
		{"template", "{{ foo }}", "{{ foo }}", "template"},
		{"template with suffix", "{{ foo }} bar", "{{ foo }} bar", "template"},
		{"template with prefix", "bar {{ foo }}", "bar {{ foo }}", "template"},
		{"template padded", "  {{ foo }}  ", "  {{ foo }}  ", "template"},
		{"template with block", "{% for x in foo %}{% endfor %}", "{% for x in foo %}{% endfor %}", "template"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.in, err)
			}
			e, ok := got.(Expression)
			if !ok {
				t.Fatalf("Parse(%q) = %T, want an Expression", tt.in, got)
			}
			if e.String() != tt.want {
				t.Errorf("Parse(%q).String() = %q, want %q", tt.in, e.String(), tt.want)
			}
			var kind string
			switch got.(type) {
			case *ValueExpr:
				kind = "value"
			case *PipelineExpr:
				kind = "pipeline"
			case *TemplateExpr:
				kind = "template"
			}
			if kind != tt.kind {
				t.Errorf("Parse(%q) = %T, want a %s expression", tt.in, got, tt.kind)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string // expected message, empty to only check the kind
	}{
		{"text after value", "$foo bar", ""},
		{"leading digit", "$1foo", ""},
		{"attr leading digit", "$foo.2bar", ""},
		{"dash in name", "$foo-bar", ""},
		{"unterminated pipeline", "$(foo", ""},
		{"stray paren", "$foo)", ""},
		{"trailing dot", "$(foo).", ""},
		{"empty filter", "$(foo|)", "Error parsing '$(foo|)': invalid expression (unexpected end of expression, expected name)"},
		{"unknown filter", "$(foo|nope)", "Error parsing '$(foo|nope)': invalid expression (unknown filter 'nope')"},
		{"unclosed print", "{{ foo", "Error parsing template '{{ foo': unexpected end of template, expected end of print statement"},
		{"unclosed block", "{% for x in foo %}", "Error parsing template '{% for x in foo %}': unexpected end of template, expected 'endfor'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want validation error", tt.in)
			}
			var verr *errs.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Parse(%q) error = %T, want ValidationError", tt.in, err)
			}
			if tt.want != "" && err.Error() != tt.want {
				t.Errorf("Parse(%q) error = %q, want %q", tt.in, err.Error(), tt.want)
			}
		})
	}
}

type attrVal struct {
	fields map[string]any
}

func (a *attrVal) Attr(name string) (any, error) {
	return Attr(a.fields, name)
}

func TestValueExprEvaluate(t *testing.T) {
	v := NewValue("foo")

	tests := []struct {
		name string
		vars Vars
		want any
	}{
		{"string", Vars{"foo": "bar"}, "bar"},
		{"int", Vars{"foo": 1}, 1},
		{"nil value", Vars{"foo": nil}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Evaluate(tt.vars)
			if err != nil {
				t.Fatalf("Evaluate() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("slice value", func(t *testing.T) {
		got, err := v.Evaluate(Vars{"foo": []any{1, 2, 3}})
		if err != nil {
			t.Fatalf("Evaluate() error: %v", err)
		}
		if diff := cmp.Diff([]any{1, 2, 3}, got); diff != "" {
			t.Errorf("Evaluate() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("undefined", func(t *testing.T) {
		_, err := v.Evaluate(Vars{})
		want := "Error generating value '$foo': 'foo' is undefined"
		if err == nil || err.Error() != want {
			t.Errorf("Evaluate() error = %v, want %q", err, want)
		}
	})

	t.Run("attribute path", func(t *testing.T) {
		a := &attrVal{fields: map[string]any{
			"b": "foo",
			"c": map[string]any{"d": 42},
		}}
		got, err := NewValue("a.b").Evaluate(Vars{"a": a})
		if err != nil {
			t.Fatalf("Evaluate($a.b) error: %v", err)
		}
		if got != "foo" {
			t.Errorf("Evaluate($a.b) = %v, want foo", got)
		}
		got, err = NewValue("a.c.d").Evaluate(Vars{"a": a})
		if err != nil {
			t.Fatalf("Evaluate($a.c.d) error: %v", err)
		}
		if got != 42 {
			t.Errorf("Evaluate($a.c.d) = %v, want 42", got)
		}
	})

	t.Run("missing attribute", func(t *testing.T) {
		_, err := NewValue("a.b").Evaluate(Vars{"a": 42})
		want := "Error generating value '$a.b': 'int' object has no attribute 'b'"
		if err == nil || err.Error() != want {
			t.Errorf("Evaluate() error = %v, want %q", err, want)
		}
	})
}

func TestEval(t *testing.T) {
	got, err := Eval("literal", Vars{})
	if err != nil || got != "literal" {
		t.Errorf("Eval(literal) = %v, %v", got, err)
	}

	got, err = Eval(NewValue("foo"), Vars{"foo": 7})
	if err != nil || got != 7 {
		t.Errorf("Eval($foo) = %v, %v, want 7", got, err)
	}
}
