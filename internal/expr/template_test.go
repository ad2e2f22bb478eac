package expr

import (
	"testing"
)

func mustTemplate(t *testing.T, src string) *TemplateExpr {
	t.Helper()
	e, err := NewTemplate(src)
	if err != nil {
		t.Fatalf("NewTemplate(%q) error: %v", src, err)
	}
	return e
}

func TestTemplateEvaluate(t *testing.T) {
	tests := []struct {
		name string
		src  string
		vars Vars
		want string
	}{
		{"interpolation", "{{ foo }} bar", Vars{"foo": "test"}, "test bar"},
		{"dollar stays literal", "{{ foo }} bar", Vars{"foo": "$foo"}, "$foo bar"},
		{"int value", "{{ foo }} bar", Vars{"foo": 42}, "42 bar"},
		{"nil renders empty", "{{ foo }} bar", Vars{"foo": nil}, " bar"},
		{"empty string", "{{ foo }} bar", Vars{"foo": ""}, " bar"},
		{"repeated", "{{ foo }} {{ foo }}", Vars{"foo": "test"}, "test test"},
		{"filter", "{{ foo|upper }}", Vars{"foo": "test"}, "TEST"},
		{"literal braces", "a { b } c", nil, "a { b } c"},
		{"if true", "{% if foo %}yes{% else %}no{% endif %}", Vars{"foo": true}, "yes"},
		{"if false", "{% if foo %}yes{% else %}no{% endif %}", Vars{"foo": false}, "no"},
		{"if empty list", "{% if foo %}yes{% else %}no{% endif %}", Vars{"foo": []any{}}, "no"},
		{"elif", "{% if a %}1{% elif b %}2{% else %}3{% endif %}", Vars{"a": false, "b": true}, "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mustTemplate(t, tt.src).Evaluate(tt.vars)
			if err != nil {
				t.Fatalf("Evaluate(%q) error: %v", tt.src, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestTemplateAttributes(t *testing.T) {
	vars := Vars{"var": map[string]any{
		"b": "foo",
		"c": map[string]any{"d": 42},
	}}
	got, err := mustTemplate(t, "{{ var.b }} - {{ var.c.d }}").Evaluate(vars)
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if got != "foo - 42" {
		t.Errorf("Evaluate() = %q, want %q", got, "foo - 42")
	}
}

func TestTemplateForLoop(t *testing.T) {
	src := "{% for x in range(3) %}{{ x }} {{ foo }}\n{% endfor %}"
	got, err := mustTemplate(t, src).Evaluate(Vars{"foo": "x"})
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	want := "0 x\n1 x\n2 x\n"
	if got != want {
		t.Errorf("Evaluate() = %q, want %q", got, want)
	}
}

func TestTemplateForLoopRestoresVar(t *testing.T) {
	vars := Vars{"x": "outer", "items": []any{1, 2}}
	_, err := mustTemplate(t, "{% for x in items %}{{ x }}{% endfor %}").Evaluate(vars)
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if vars["x"] != "outer" {
		t.Errorf("loop variable leaked: x = %v, want outer", vars["x"])
	}

	delete(vars, "x")
	_, err = mustTemplate(t, "{% for x in items %}{{ x }}{% endfor %}").Evaluate(vars)
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if _, ok := vars["x"]; ok {
		t.Error("loop variable leaked into vars after the loop")
	}
}

func TestTemplateErrors(t *testing.T) {
	t.Run("undefined variable", func(t *testing.T) {
		_, err := mustTemplate(t, "{{ foo }}").Evaluate(Vars{})
		want := "Error generating template '{{ foo }}': 'foo' is undefined"
		if err == nil || err.Error() != want {
			t.Errorf("Evaluate() error = %v, want %q", err, want)
		}
	})

	t.Run("missing attribute", func(t *testing.T) {
		_, err := mustTemplate(t, "{{ foo.bar }}").Evaluate(Vars{"foo": 42})
		want := "Error generating template '{{ foo.bar }}': 'int' object has no attribute 'bar'"
		if err == nil || err.Error() != want {
			t.Errorf("Evaluate() error = %v, want %q", err, want)
		}
	})

	t.Run("stray closing tag", func(t *testing.T) {
		_, err := NewTemplate("hello {% endfor %}")
		if err == nil {
			t.Error("NewTemplate() accepted a closing tag at top level")
		}
	})

	t.Run("unclosed for tag", func(t *testing.T) {
		_, err := NewTemplate("{% for x in foo %}{{ x }}")
		if err == nil {
			t.Error("NewTemplate() accepted an unterminated for tag")
		}
	})

	t.Run("loop over non-sequence", func(t *testing.T) {
		_, err := mustTemplate(t, "{% for x in foo %}{% endfor %}").Evaluate(Vars{"foo": 42})
		if err == nil {
			t.Error("Evaluate() succeeded looping over an int")
		}
	})
}
