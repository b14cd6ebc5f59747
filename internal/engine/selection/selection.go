package selection

import (
	"sort"

	"github.com/dshills/inkwell/internal/engine/node"
)

// Selection is implemented by *RangeSelection and *NodeSelection.
type Selection interface {
	// Clone returns an independent copy.
	Clone() Selection

	// Equal reports whether o describes the same selection.
	Equal(o Selection) bool

	// NodeKeys returns the keys directly referenced by the selection.
	NodeKeys() []node.Key
}

// RangeSelection is a cursor or a range between two points.
type RangeSelection struct {
	Anchor Point
	Focus  Point

	// Format and Style apply to text typed at a collapsed cursor.
	Format node.TextFormat
	Style  string
}

// NewRange validates both points and returns a range selection.
func NewRange(l Lookup, anchor, focus Point) (*RangeSelection, error) {
	if err := Validate(l, anchor); err != nil {
		return nil, err
	}
	if err := Validate(l, focus); err != nil {
		return nil, err
	}
	return &RangeSelection{Anchor: anchor, Focus: focus}, nil
}

// Collapsed returns a collapsed range at p without validation.
func Collapsed(p Point) *RangeSelection {
	return &RangeSelection{Anchor: p, Focus: p}
}

// Clone implements Selection.
func (s *RangeSelection) Clone() Selection {
	c := *s
	return &c
}

// Equal implements Selection.
func (s *RangeSelection) Equal(o Selection) bool {
	r, ok := o.(*RangeSelection)
	if !ok || r == nil {
		return false
	}
	return *s == *r
}

// NodeKeys implements Selection.
func (s *RangeSelection) NodeKeys() []node.Key {
	if s.Anchor.Key == s.Focus.Key {
		return []node.Key{s.Anchor.Key}
	}
	return []node.Key{s.Anchor.Key, s.Focus.Key}
}

// IsCollapsed reports whether anchor and focus are the same position.
func (s *RangeSelection) IsCollapsed() bool {
	return s.Anchor.Is(s.Focus)
}

// IsBackward reports whether the focus precedes the anchor in document order.
func (s *RangeSelection) IsBackward(l Lookup) bool {
	return Compare(l, s.Focus, s.Anchor) < 0
}

// Ordered returns the start and end points in document order.
func (s *RangeSelection) Ordered(l Lookup) (start, end Point) {
	if s.IsBackward(l) {
		return s.Focus, s.Anchor
	}
	return s.Anchor, s.Focus
}

// Collapse moves the anchor onto the focus.
func (s *RangeSelection) Collapse() {
	s.Anchor = s.Focus
}

// CollapseTo moves both points to p.
func (s *RangeSelection) CollapseTo(p Point) {
	s.Anchor, s.Focus = p, p
}

// ToggleFormat flips a pending format used for the next insertion.
func (s *RangeSelection) ToggleFormat(f node.TextFormat) {
	s.Format = s.Format.Toggle(f)
}

// NodeSelection selects whole nodes, e.g. a set of blocks or decorators.
type NodeSelection struct {
	keys map[node.Key]struct{}
}

// NewNodeSelection returns a node selection holding keys.
func NewNodeSelection(keys ...node.Key) *NodeSelection {
	s := &NodeSelection{keys: make(map[node.Key]struct{}, len(keys))}
	for _, k := range keys {
		s.keys[k] = struct{}{}
	}
	return s
}

// Add selects key.
func (s *NodeSelection) Add(key node.Key) {
	s.keys[key] = struct{}{}
}

// Delete deselects key.
func (s *NodeSelection) Delete(key node.Key) {
	delete(s.keys, key)
}

// Has reports whether key is selected.
func (s *NodeSelection) Has(key node.Key) bool {
	_, ok := s.keys[key]
	return ok
}

// Len returns the number of selected nodes.
func (s *NodeSelection) Len() int {
	return len(s.keys)
}

// Clear deselects everything.
func (s *NodeSelection) Clear() {
	s.keys = make(map[node.Key]struct{})
}

// Clone implements Selection.
func (s *NodeSelection) Clone() Selection {
	return NewNodeSelection(s.NodeKeys()...)
}

// Equal implements Selection.
func (s *NodeSelection) Equal(o Selection) bool {
	n, ok := o.(*NodeSelection)
	if !ok || n == nil || len(n.keys) != len(s.keys) {
		return false
	}
	for k := range s.keys {
		if !n.Has(k) {
			return false
		}
	}
	return true
}

// NodeKeys implements Selection. Keys are returned sorted.
func (s *NodeSelection) NodeKeys() []node.Key {
	out := make([]node.Key, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Equal compares two possibly nil selections.
func Equal(a, b Selection) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

// Clone copies a possibly nil selection.
func Clone(s Selection) Selection {
	if s == nil {
		return nil
	}
	return s.Clone()
}
