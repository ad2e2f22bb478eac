package generator

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomfevang/go-populate-my-db/internal/expr"
)

// Key folds a tuple of values into one dedup key, normalized the same way
// unique generators key their candidates. The engine preloads Bloom filters
// from existing database rows through this, so preloaded keys and generated
// keys land in the same space.
func Key(parts ...any) string {
	norm := make([]any, len(parts))
	for i, p := range parts {
		norm[i] = recordKey(p)
	}
	return keyString(norm...)
}

// recordKey reduces a candidate to the value that identifies it: records
// carrying an id (foreign references) are keyed by that id, everything
// else by itself.
func recordKey(v any) any {
	if a, ok := v.(expr.Attributer); ok {
		if id, err := a.Attr("id"); err == nil {
			return id
		}
	}
	return v
}

// keyString folds the key parts into one dedup key. The textual form must
// be stable across Go types carrying the same database value, so integers
// of any width print identically and timestamps normalize to UTC.
func keyString(parts ...any) string {
	var sb strings.Builder
	for i, p := range parts {
		if i > 0 {
			sb.WriteByte(0)
		}
		sb.WriteString(normalizeKey(p))
	}
	return sb.String()
}

func normalizeKey(v any) string {
	switch x := v.(type) {
	case nil:
		return "\x00"
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}
