package vm

import (
	"math"
	"strings"

	"github.com/chazu/blockjit/value"
)

// List is a block list. Indices are 1-based; out-of-range writes are
// ignored and out-of-range reads yield the empty string.
type List struct {
	items []value.Value
}

// Index converts an index value to a 0-based slot. size is the number of
// valid 1-based positions.
func Index(f float64, size int) (int, bool) {
	if math.IsNaN(f) {
		return 0, false
	}
	i := math.Floor(f)
	if i < 1 || i > float64(size) {
		return 0, false
	}
	return int(i) - 1, true
}

func (l *List) Len() int { return len(l.items) }

func (l *List) Clear() { l.items = l.items[:0] }

func (l *List) Append(v value.Value) { l.items = append(l.items, v) }

// Insert places v before position at; at may be one past the end.
func (l *List) Insert(at float64, v value.Value) {
	i, ok := Index(at, len(l.items)+1)
	if !ok {
		return
	}
	l.items = append(l.items, value.Value{})
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = v
}

func (l *List) Replace(at float64, v value.Value) {
	if i, ok := Index(at, len(l.items)); ok {
		l.items[i] = v
	}
}

func (l *List) Remove(at float64) {
	if i, ok := Index(at, len(l.items)); ok {
		l.items = append(l.items[:i], l.items[i+1:]...)
	}
}

// Item returns the item at a 1-based position.
func (l *List) Item(at float64) value.Value {
	v, _ := l.Lookup(at)
	return v
}

// Lookup is Item that also reports whether the position was in range.
func (l *List) Lookup(at float64) (value.Value, bool) {
	i, ok := Index(at, len(l.items))
	if !ok {
		return value.FromString(""), false
	}
	return l.items[i], true
}

// Items returns a copy of the list contents.
func (l *List) Items() []value.Value {
	return append([]value.Value(nil), l.items...)
}

func (l *List) String() string {
	parts := make([]string, len(l.items))
	for i, v := range l.items {
		parts[i] = v.ToString()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
