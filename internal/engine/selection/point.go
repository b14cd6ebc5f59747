package selection

import (
	"errors"
	"fmt"

	"github.com/dshills/inkwell/internal/engine/node"
)

// ErrInvalidPoint indicates a point that does not address a valid position.
var ErrInvalidPoint = errors.New("selection: invalid selection point")

// PointType distinguishes text offsets from child indexes.
type PointType uint8

const (
	// PointText offsets are byte offsets into a text node.
	PointText PointType = iota

	// PointElement offsets are child indexes into an element.
	PointElement
)

// String returns "text" or "element".
func (t PointType) String() string {
	if t == PointElement {
		return "element"
	}
	return "text"
}

// ParsePointType parses "text" or "element".
func ParsePointType(s string) PointType {
	if s == "element" {
		return PointElement
	}
	return PointText
}

// Point is one end of a range selection.
type Point struct {
	Key    node.Key
	Offset int
	Type   PointType
}

// TextPoint returns a text point.
func TextPoint(key node.Key, offset int) Point {
	return Point{Key: key, Offset: offset, Type: PointText}
}

// ElementPoint returns an element point.
func ElementPoint(key node.Key, offset int) Point {
	return Point{Key: key, Offset: offset, Type: PointElement}
}

// Is reports whether p and o address the same position.
func (p Point) Is(o Point) bool {
	return p == o
}

// String formats the point for diagnostics.
func (p Point) String() string {
	return fmt.Sprintf("%s:%d(%s)", p.Key, p.Offset, p.Type)
}

// Lookup resolves keys to nodes. Both committed states and transactions
// implement it.
type Lookup interface {
	Get(key node.Key) (node.Node, bool)
}

// PointError describes why a point is invalid.
type PointError struct {
	Point  Point
	Reason string
}

// Error implements error.
func (e *PointError) Error() string {
	return "selection: invalid selection point " + e.Point.String() + ": " + e.Reason
}

// Is matches ErrInvalidPoint.
func (e *PointError) Is(target error) bool {
	return target == ErrInvalidPoint
}

// Limit returns the largest valid offset for a point of type t on n, and
// whether the point type is consistent with the node's kind.
func Limit(n node.Node, t PointType) (int, bool) {
	switch t {
	case PointText:
		if tx, ok := node.AsText(n); ok {
			return tx.Len(), true
		}
	case PointElement:
		if e, ok := node.AsElement(n); ok {
			return e.Size, true
		}
	}
	return 0, false
}

// Validate checks that p references an existing node of the right kind and
// that its offset is in bounds.
func Validate(l Lookup, p Point) error {
	n, ok := l.Get(p.Key)
	if !ok {
		return &PointError{Point: p, Reason: "node does not exist"}
	}
	max, ok := Limit(n, p.Type)
	if !ok {
		return &PointError{Point: p, Reason: fmt.Sprintf("%s point on %s node", p.Type, n.Kind())}
	}
	if p.Offset < 0 || p.Offset > max {
		return &PointError{Point: p, Reason: fmt.Sprintf("offset out of range [0,%d]", max)}
	}
	return nil
}

// Clamp forces the offset of p into range for its node. It reports false when
// the node is missing or has the wrong kind for the point type.
func Clamp(l Lookup, p Point) (Point, bool) {
	n, ok := l.Get(p.Key)
	if !ok {
		return p, false
	}
	max, ok := Limit(n, p.Type)
	if !ok {
		return p, false
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Offset > max {
		p.Offset = max
	}
	return p, true
}
