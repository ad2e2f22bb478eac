package expr

import (
	"fmt"
	"math/rand/v2"
	"reflect"
	"strings"
	"unicode"
)

type filterFunc func(in any, args []any) (any, error)

type builtinFunc func(args []any) (any, error)

// filters available in pipelines and templates. The d/default filter is
// special-cased by the evaluator since it has to accept undefined input.
var filters = map[string]filterFunc{
	"random":     filterRandom,
	"upper":      filterUpper,
	"lower":      filterLower,
	"capitalize": filterCapitalize,
	"length":     filterLength,
}

var builtins = map[string]builtinFunc{
	"range": builtinRange,
}

func filterRandom(in any, args []any) (any, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("filter 'random' takes no arguments")
	}
	seq, ok := AsList(in)
	if !ok {
		return nil, fmt.Errorf("'%T' object is not a sequence", in)
	}
	if len(seq) == 0 {
		return undef{msg: "No random item, sequence was empty."}, nil
	}
	return seq[rand.IntN(len(seq))], nil
}

func filterUpper(in any, args []any) (any, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("filter 'upper' takes no arguments")
	}
	return strings.ToUpper(Stringify(in)), nil
}

func filterLower(in any, args []any) (any, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("filter 'lower' takes no arguments")
	}
	return strings.ToLower(Stringify(in)), nil
}

func filterCapitalize(in any, args []any) (any, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("filter 'capitalize' takes no arguments")
	}
	s := Stringify(in)
	if s == "" {
		return s, nil
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes), nil
}

func filterLength(in any, args []any) (any, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("filter 'length' takes no arguments")
	}
	switch x := in.(type) {
	case string:
		return int64(len([]rune(x))), nil
	case map[string]any:
		return int64(len(x)), nil
	}
	if rv := reflect.ValueOf(in); rv.Kind() == reflect.Map {
		return int64(rv.Len()), nil
	}
	if seq, ok := AsList(in); ok {
		return int64(len(seq)), nil
	}
	return nil, fmt.Errorf("'%T' object has no length", in)
}

func builtinRange(args []any) (any, error) {
	bounds := make([]int64, 0, 3)
	for _, arg := range args {
		if !isIntKind(arg) {
			return nil, fmt.Errorf("range expects integer arguments")
		}
		bounds = append(bounds, asInt64(arg))
	}

	var start, stop, step int64 = 0, 0, 1
	switch len(bounds) {
	case 1:
		stop = bounds[0]
	case 2:
		start, stop = bounds[0], bounds[1]
	case 3:
		start, stop, step = bounds[0], bounds[1], bounds[2]
		if step == 0 {
			return nil, fmt.Errorf("range step cannot be zero")
		}
	default:
		return nil, fmt.Errorf("range expects 1 to 3 arguments")
	}

	var out []any
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, i)
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, i)
		}
	}
	return out, nil
}
