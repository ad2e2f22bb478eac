package generator

import (
	"context"
	"net"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/tomfevang/go-populate-my-db/internal/errs"
	"github.com/tomfevang/go-populate-my-db/internal/expr"
)

func TestValueGenerator(t *testing.T) {
	t.Run("fixed value", func(t *testing.T) {
		g := mustGen(t, "Value", map[string]any{"value": 42})
		for range 3 {
			if v := draw(t, g, nil); v != 42 {
				t.Errorf("Value(42) yielded %v", v)
			}
		}
	})

	t.Run("defaults to null", func(t *testing.T) {
		g := mustGen(t, "Value", nil)
		if v := draw(t, g, nil); v != nil {
			t.Errorf("Value() yielded %v, want nil", v)
		}
	})

	t.Run("expression tracks the variable", func(t *testing.T) {
		g := mustGen(t, "Value", map[string]any{"value": "$x"})
		vars := expr.Vars{"x": "first"}
		if v := draw(t, g, vars); v != "first" {
			t.Errorf("yielded %v, want first", v)
		}
		vars["x"] = "second"
		if v := draw(t, g, vars); v != "second" {
			t.Errorf("yielded %v, want second", v)
		}
	})

	t.Run("undefined variable", func(t *testing.T) {
		g := mustGen(t, "Value", map[string]any{"value": "$gone"})
		_, err := g.Next(context.Background(), nil)
		if err == nil || !errs.IsGeneration(err) {
			t.Fatalf("expected a generation error, got %v", err)
		}
	})

	t.Run("to_json", func(t *testing.T) {
		g := mustGen(t, "Value", map[string]any{
			"value": map[string]any{"a": 1}, "to_json": true})
		v := draw(t, g, nil)
		if v != `{"a":1}` {
			t.Errorf("to_json yielded %v", v)
		}
	})
}

func TestBooleanGenerator(t *testing.T) {
	t.Run("always true", func(t *testing.T) {
		g := mustGen(t, "Boolean", map[string]any{"ratio": 1})
		for range 100 {
			if draw(t, g, nil) != true {
				t.Fatal("ratio=1 yielded false")
			}
		}
	})

	t.Run("always false", func(t *testing.T) {
		g := mustGen(t, "Boolean", map[string]any{"ratio": 0})
		for range 100 {
			if draw(t, g, nil) != false {
				t.Fatal("ratio=0 yielded true")
			}
		}
	})

	t.Run("default mixes", func(t *testing.T) {
		g := mustGen(t, "Boolean", nil)
		trues := 0
		for range 1000 {
			if draw(t, g, nil) == true {
				trues++
			}
		}
		if trues < 200 || trues > 800 {
			t.Errorf("got %d trues out of 1000, expected around 500", trues)
		}
	})

	t.Run("ratio out of range", func(t *testing.T) {
		_, err := New(&Config{Item: "users", Field: "a", Generator: "Boolean",
			Params: map[string]any{"ratio": 1.5}})
		if err == nil || !errs.IsValidation(err) {
			t.Fatalf("expected a validation error, got %v", err)
		}
	})
}

func TestIntegerGenerator(t *testing.T) {
	t.Run("bounds are inclusive", func(t *testing.T) {
		g := mustGen(t, "Integer", map[string]any{"min": 0, "max": 1})
		seen := map[int64]bool{}
		for range 100 {
			n := draw(t, g, nil).(int64)
			if n < 0 || n > 1 {
				t.Fatalf("value %d out of [0,1]", n)
			}
			seen[n] = true
		}
		if len(seen) != 2 {
			t.Errorf("only saw %v over 100 draws", seen)
		}
	})

	t.Run("degenerate range", func(t *testing.T) {
		g := mustGen(t, "Integer", map[string]any{"min": 7, "max": 7})
		if n := draw(t, g, nil); n != int64(7) {
			t.Errorf("yielded %v, want 7", n)
		}
	})

	t.Run("to_string", func(t *testing.T) {
		g := mustGen(t, "Integer", map[string]any{"min": 12, "max": 12, "to_string": true})
		if v := draw(t, g, nil); v != "12" {
			t.Errorf("yielded %v, want \"12\"", v)
		}
	})

	t.Run("expression bounds", func(t *testing.T) {
		g := mustGen(t, "Integer", map[string]any{"min": "$lo", "max": "$hi"})
		vars := expr.Vars{"lo": 5, "hi": 5}
		if n := draw(t, g, vars); n != int64(5) {
			t.Errorf("yielded %v, want 5", n)
		}
		vars["hi"] = 6
		for range 20 {
			n := draw(t, g, vars).(int64)
			if n < 5 || n > 6 {
				t.Fatalf("value %d out of [5,6]", n)
			}
		}
	})

	t.Run("min above max", func(t *testing.T) {
		g := mustGen(t, "Integer", map[string]any{"min": 10, "max": 1})
		_, err := g.Next(context.Background(), nil)
		if err == nil || !errs.IsGeneration(err) {
			t.Fatalf("expected a generation error, got %v", err)
		}
	})

	t.Run("non-integer bound", func(t *testing.T) {
		_, err := New(&Config{Item: "users", Field: "a", Generator: "Integer",
			Params: map[string]any{"min": "abc"}})
		if err == nil || !errs.IsValidation(err) {
			t.Fatalf("expected a validation error, got %v", err)
		}
	})
}

func TestChoicesGenerator(t *testing.T) {
	t.Run("static list", func(t *testing.T) {
		g := mustGen(t, "Choices", map[string]any{"choices": []any{"a", "b", "c"}})
		seen := map[any]bool{}
		for range 100 {
			v := draw(t, g, nil)
			switch v {
			case "a", "b", "c":
				seen[v] = true
			default:
				t.Fatalf("value %v outside the choices", v)
			}
		}
		if len(seen) != 3 {
			t.Errorf("only saw %v over 100 draws", seen)
		}
	})

	t.Run("string becomes characters", func(t *testing.T) {
		g := mustGen(t, "Choices", map[string]any{"choices": "ab"})
		for range 50 {
			v := draw(t, g, nil)
			if v != "a" && v != "b" {
				t.Fatalf("value %v outside 'ab'", v)
			}
		}
	})

	t.Run("elements may be expressions", func(t *testing.T) {
		g := mustGen(t, "Choices", map[string]any{"choices": []any{"$x"}})
		if v := draw(t, g, expr.Vars{"x": 9}); v != 9 {
			t.Errorf("yielded %v, want 9", v)
		}
	})

	t.Run("variable is re-evaluated", func(t *testing.T) {
		g := mustGen(t, "Choices", map[string]any{"choices": "$pool"})
		vars := expr.Vars{"pool": []any{1}}
		if v := draw(t, g, vars); v != 1 {
			t.Errorf("yielded %v, want 1", v)
		}
		vars["pool"] = []any{2}
		if v := draw(t, g, vars); v != 2 {
			t.Errorf("yielded %v, want 2", v)
		}
	})

	t.Run("empty static list", func(t *testing.T) {
		_, err := New(&Config{Item: "users", Field: "a", Generator: "Choices",
			Params: map[string]any{"choices": []any{}}})
		if err == nil || !errs.IsValidation(err) {
			t.Fatalf("expected a validation error, got %v", err)
		}
	})

	t.Run("empty dynamic list with nullable", func(t *testing.T) {
		g := mustGen(t, "Choices", map[string]any{"choices": "$pool", "nullable": 0.5})
		vars := expr.Vars{"pool": []any{}}
		for range 20 {
			if v := draw(t, g, vars); v != nil {
				t.Fatalf("empty nullable pool yielded %v", v)
			}
		}
		vars["pool"] = []any{"x"}
		for range 20 {
			if v := draw(t, g, vars); v != nil && v != "x" {
				t.Fatalf("yielded %v, want x or nil", v)
			}
		}
	})

	t.Run("empty dynamic list without nullable", func(t *testing.T) {
		g := mustGen(t, "Choices", map[string]any{"choices": "$pool"})
		_, err := g.Next(context.Background(), expr.Vars{"pool": []any{}})
		if err == nil || !errs.IsGeneration(err) {
			t.Fatalf("expected a generation error, got %v", err)
		}
	})
}

func TestTextGenerator(t *testing.T) {
	t.Run("length bounds", func(t *testing.T) {
		g := mustGen(t, "Text", map[string]any{"min_length": 3, "max_length": 5})
		for range 50 {
			s := draw(t, g, nil).(string)
			if len(s) < 3 || len(s) > 5 {
				t.Fatalf("length %d out of [3,5]: %q", len(s), s)
			}
		}
	})

	t.Run("fixed length", func(t *testing.T) {
		g := mustGen(t, "Text", map[string]any{"min_length": 4, "max_length": 4})
		if s := draw(t, g, nil).(string); len(s) != 4 {
			t.Errorf("length %d, want 4", len(s))
		}
	})

	t.Run("custom charset", func(t *testing.T) {
		g := mustGen(t, "Text", map[string]any{
			"min_length": 10, "max_length": 10, "chars": "ab"})
		s := draw(t, g, nil).(string)
		for _, r := range s {
			if r != 'a' && r != 'b' {
				t.Fatalf("character %q outside charset in %q", r, s)
			}
		}
	})

	t.Run("digit category", func(t *testing.T) {
		g := mustGen(t, "Text", map[string]any{
			"min_length": 20, "max_length": 20, "chars": "<0-9>"})
		s := draw(t, g, nil).(string)
		for _, r := range s {
			if r < '0' || r > '9' {
				t.Fatalf("character %q is not a digit in %q", r, s)
			}
		}
	})

	t.Run("min above max", func(t *testing.T) {
		_, err := New(&Config{Item: "users", Field: "a", Generator: "Text",
			Params: map[string]any{"min_length": 5, "max_length": 2}})
		if err == nil || !errs.IsValidation(err) {
			t.Fatalf("expected a validation error, got %v", err)
		}
	})
}

func TestDateTimeGenerator(t *testing.T) {
	drawTime := func(t *testing.T, g Generator, vars expr.Vars) time.Time {
		t.Helper()
		return draw(t, g, vars).(time.Time)
	}

	t.Run("default window", func(t *testing.T) {
		g := mustGen(t, "DateTime", nil)
		floor := time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
		for range 50 {
			v := drawTime(t, g, nil)
			if v.Before(floor) || v.After(time.Now()) {
				t.Fatalf("%v outside [1900, now]", v)
			}
		}
	})

	t.Run("future only", func(t *testing.T) {
		g := mustGen(t, "DateTime", map[string]any{"past": false, "future": true})
		ceil := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
		start := time.Now().Add(-time.Minute)
		for range 50 {
			v := drawTime(t, g, nil)
			if v.Before(start) || v.After(ceil) {
				t.Fatalf("%v outside [now, 2100]", v)
			}
		}
	})

	t.Run("explicit bounds", func(t *testing.T) {
		g := mustGen(t, "DateTime", map[string]any{
			"after": "2012-10-10", "before": "2012-10-20"})
		lo := time.Date(2012, 10, 10, 0, 0, 0, 0, time.UTC)
		hi := time.Date(2012, 10, 20, 0, 0, 0, 0, time.UTC)
		for range 50 {
			v := drawTime(t, g, nil)
			if v.Before(lo) || v.After(hi) {
				t.Fatalf("%v outside [%v, %v]", v, lo, hi)
			}
		}
	})

	t.Run("bare year", func(t *testing.T) {
		g := mustGen(t, "DateTime", map[string]any{"after": 1998})
		lo := time.Date(1998, 1, 1, 0, 0, 0, 0, time.UTC)
		for range 50 {
			if v := drawTime(t, g, nil); v.Before(lo) {
				t.Fatalf("%v before 1998", v)
			}
		}
	})

	t.Run("expression bounds", func(t *testing.T) {
		g := mustGen(t, "DateTime", map[string]any{"after": "$start", "before": "$stop"})
		vars := expr.Vars{
			"start": time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC),
			"stop":  "2020-06-01",
		}
		lo := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
		hi := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
		for range 50 {
			v := drawTime(t, g, vars)
			if v.Before(lo) || v.After(hi) {
				t.Fatalf("%v outside [%v, %v]", v, lo, hi)
			}
		}
	})

	t.Run("empty window", func(t *testing.T) {
		g := mustGen(t, "DateTime", map[string]any{
			"after": "2020-01-02", "before": "2020-01-01"})
		_, err := g.Next(context.Background(), nil)
		if err == nil || !errs.IsGeneration(err) {
			t.Fatalf("expected a generation error, got %v", err)
		}
	})

	t.Run("bad bound", func(t *testing.T) {
		_, err := New(&Config{Item: "users", Field: "a", Generator: "DateTime",
			Params: map[string]any{"after": "not a date"}})
		if err == nil || !errs.IsValidation(err) {
			t.Fatalf("expected a validation error, got %v", err)
		}
	})

	t.Run("date is midnight", func(t *testing.T) {
		g := mustGen(t, "Date", map[string]any{"after": 2000, "before": 2001})
		for range 20 {
			v := drawTime(t, g, nil)
			h, m, s := v.Clock()
			if h != 0 || m != 0 || s != 0 {
				t.Fatalf("Date yielded a non-midnight value %v", v)
			}
			if v.Year() != 2000 && !v.Equal(time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)) {
				t.Fatalf("%v outside [2000, 2001-01-01]", v)
			}
		}
	})

	t.Run("time of day", func(t *testing.T) {
		g := mustGen(t, "Time", nil)
		re := regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
		for range 20 {
			s := draw(t, g, nil).(string)
			if !re.MatchString(s) {
				t.Fatalf("Time yielded %q", s)
			}
		}
	})
}

func TestUUIDGenerator(t *testing.T) {
	g := mustGen(t, "UUID", nil)
	seen := map[uuid.UUID]bool{}
	for range 100 {
		id := draw(t, g, nil).(uuid.UUID)
		if id.Version() != 4 {
			t.Fatalf("version %d, want 4", id.Version())
		}
		seen[id] = true
	}
	if len(seen) != 100 {
		t.Errorf("100 draws yielded %d distinct UUIDs", len(seen))
	}

	g = mustGen(t, "UUID", map[string]any{"to_string": true})
	s := draw(t, g, nil).(string)
	if _, err := uuid.Parse(s); err != nil {
		t.Errorf("to_string yielded unparseable %q: %v", s, err)
	}
}

func TestNameGenerators(t *testing.T) {
	inList := func(name string, list []string) bool {
		for _, n := range list {
			if n == name {
				return true
			}
		}
		return false
	}

	t.Run("full name", func(t *testing.T) {
		g := mustGen(t, "Name", nil)
		s := draw(t, g, nil).(string)
		if !strings.Contains(s, " ") {
			t.Errorf("Name yielded %q without a space", s)
		}
	})

	t.Run("gendered first name", func(t *testing.T) {
		g := mustGen(t, "FirstName", map[string]any{"gender": "M"})
		for range 20 {
			s := draw(t, g, nil).(string)
			if !inList(s, maleFirstNames) {
				t.Fatalf("%q is not a male first name", s)
			}
		}
		g = mustGen(t, "FirstName", map[string]any{"gender": "F"})
		for range 20 {
			s := draw(t, g, nil).(string)
			if !inList(s, femaleFirstNames) {
				t.Fatalf("%q is not a female first name", s)
			}
		}
	})

	t.Run("gender from a variable", func(t *testing.T) {
		g := mustGen(t, "FirstName", map[string]any{"gender": "$gender"})
		s := draw(t, g, expr.Vars{"gender": "M"}).(string)
		if !inList(s, maleFirstNames) {
			t.Errorf("%q is not a male first name", s)
		}
	})

	t.Run("bad gender", func(t *testing.T) {
		g := mustGen(t, "Name", map[string]any{"gender": "banana"})
		_, err := g.Next(context.Background(), nil)
		if err == nil {
			t.Fatal("expected an error for a bad gender")
		}
		want := "Item 'users', field 'a': Gender must be either 'M', 'F' or null. Got 'banana'"
		if err.Error() != want {
			t.Errorf("error = %q, want %q", err.Error(), want)
		}
	})

	t.Run("max_length", func(t *testing.T) {
		g := mustGen(t, "Name", map[string]any{"max_length": 10})
		for range 20 {
			if s := draw(t, g, nil).(string); len(s) > 10 {
				t.Fatalf("Name yielded %q longer than 10", s)
			}
		}
	})

	t.Run("last name and email", func(t *testing.T) {
		g := mustGen(t, "LastName", nil)
		if s := draw(t, g, nil).(string); s == "" {
			t.Error("LastName yielded an empty string")
		}
		g = mustGen(t, "Email", nil)
		if s := draw(t, g, nil).(string); !strings.Contains(s, "@") {
			t.Errorf("Email yielded %q", s)
		}
	})
}

func TestIPGenerator(t *testing.T) {
	t.Run("ipv4 only", func(t *testing.T) {
		g := mustGen(t, "IP", map[string]any{"ipv6": false})
		for range 20 {
			s := draw(t, g, nil).(string)
			ip := net.ParseIP(s)
			if ip == nil || ip.To4() == nil {
				t.Fatalf("%q is not an IPv4 address", s)
			}
		}
	})

	t.Run("ipv6 only", func(t *testing.T) {
		g := mustGen(t, "IP", map[string]any{"ipv4": false})
		for range 20 {
			s := draw(t, g, nil).(string)
			ip := net.ParseIP(s)
			if ip == nil || ip.To4() != nil {
				t.Fatalf("%q is not an IPv6 address", s)
			}
		}
	})

	t.Run("both disabled", func(t *testing.T) {
		_, err := New(&Config{Item: "users", Field: "a", Generator: "IP",
			Params: map[string]any{"ipv4": false, "ipv6": false}})
		if err == nil || !errs.IsValidation(err) {
			t.Fatalf("expected a validation error, got %v", err)
		}
	})

	t.Run("url", func(t *testing.T) {
		g := mustGen(t, "URL", nil)
		if s := draw(t, g, nil).(string); !strings.Contains(s, "://") {
			t.Errorf("URL yielded %q", s)
		}
	})
}

func TestYamlGenerator(t *testing.T) {
	t.Run("inline document", func(t *testing.T) {
		g := mustGen(t, "Yaml", map[string]any{"value": "{a: 1, b: [x, y]}"})
		v := draw(t, g, nil)
		want := map[string]any{"a": 1, "b": []any{"x", "y"}}
		if diff := cmp.Diff(want, v); diff != "" {
			t.Errorf("parsed document mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("document from a variable", func(t *testing.T) {
		g := mustGen(t, "Yaml", map[string]any{"value": "$doc"})
		v := draw(t, g, expr.Vars{"doc": "- 1\n- 2\n"})
		want := []any{1, 2}
		if diff := cmp.Diff(want, v); diff != "" {
			t.Errorf("parsed document mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("invalid document", func(t *testing.T) {
		g := mustGen(t, "Yaml", map[string]any{"value": ":\n:"})
		_, err := g.Next(context.Background(), nil)
		if err == nil || !errs.IsGeneration(err) {
			t.Fatalf("expected a generation error, got %v", err)
		}
		if !strings.Contains(err.Error(), "Invalid YAML") {
			t.Errorf("unexpected message: %v", err)
		}
	})

	t.Run("to_json", func(t *testing.T) {
		g := mustGen(t, "Yaml", map[string]any{"value": "{a: 1}", "to_json": true})
		v := draw(t, g, nil)
		s, ok := v.(string)
		if !ok {
			t.Fatalf("to_json yielded %T", v)
		}
		if s != `{"a":1}` {
			t.Errorf("to_json yielded %q", s)
		}
	})
}
