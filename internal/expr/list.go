package expr

// List is a mutable value collection shared by reference. Storage
// variables and store fields hold one, so values appended while children
// generate stay visible to every holder, and finalized values can be
// patched in afterwards.
type List struct {
	Items []any
}

func NewList() *List { return &List{} }

func (l *List) List() []any  { return l.Items }
func (l *List) Len() int     { return len(l.Items) }
func (l *List) Append(v any) { l.Items = append(l.Items, v) }

// ReplaceTail overwrites the last len(values) items with values.
func (l *List) ReplaceTail(values []any) {
	start := len(l.Items) - len(values)
	if start < 0 {
		l.Items = append(l.Items[:0], values...)
		return
	}
	copy(l.Items[start:], values)
}
