package selection

import (
	"fmt"

	"github.com/dshills/inkwell/internal/engine/node"
)

// PointJSON is the serialized form of a point. Key addresses the node in the
// live tree; Path addresses it structurally and survives re-keying on import.
type PointJSON struct {
	Key    string `json:"key,omitempty"`
	Path   []int  `json:"path,omitempty"`
	Offset int    `json:"offset"`
	Type   string `json:"type"`
}

// JSON is the serialized form of a selection.
type JSON struct {
	Type   string     `json:"type"`
	Anchor *PointJSON `json:"anchor,omitempty"`
	Focus  *PointJSON `json:"focus,omitempty"`
	Format uint32     `json:"format,omitempty"`
	Style  string     `json:"style,omitempty"`
	Nodes  []string   `json:"nodes,omitempty"`
	Paths  [][]int    `json:"paths,omitempty"`
}

// Selection type discriminants.
const (
	TypeRange = "range"
	TypeNode  = "node"
)

// ToJSON converts a selection to its key-addressed serialized form.
// A nil selection yields nil.
func ToJSON(s Selection) *JSON {
	switch v := s.(type) {
	case *RangeSelection:
		return &JSON{
			Type:   TypeRange,
			Anchor: pointJSON(v.Anchor),
			Focus:  pointJSON(v.Focus),
			Format: uint32(v.Format),
			Style:  v.Style,
		}
	case *NodeSelection:
		keys := v.NodeKeys()
		out := &JSON{Type: TypeNode, Nodes: make([]string, len(keys))}
		for i, k := range keys {
			out.Nodes[i] = string(k)
		}
		return out
	}
	return nil
}

// ToPathJSON converts a selection to its path-addressed serialized form,
// which stays valid when the document is imported under new keys.
func ToPathJSON(l Lookup, s Selection) (*JSON, error) {
	j := ToJSON(s)
	if j == nil {
		return nil, nil
	}
	toPath := func(key string) ([]int, error) {
		path, ok := Path(l, node.Key(key))
		if !ok {
			return nil, fmt.Errorf("%w: node %q is not attached", ErrInvalidPoint, key)
		}
		return path, nil
	}
	var err error
	for _, p := range []*PointJSON{j.Anchor, j.Focus} {
		if p == nil {
			continue
		}
		if p.Path, err = toPath(p.Key); err != nil {
			return nil, err
		}
		p.Key = ""
	}
	for _, k := range j.Nodes {
		path, err := toPath(k)
		if err != nil {
			return nil, err
		}
		j.Paths = append(j.Paths, path)
	}
	j.Nodes = nil
	return j, nil
}

func pointJSON(p Point) *PointJSON {
	return &PointJSON{Key: string(p.Key), Offset: p.Offset, Type: p.Type.String()}
}

// FromJSON converts a serialized selection back. Points given by Path are
// resolved against l; points given by Key are taken as is. The result is
// validated against l.
func FromJSON(l Lookup, j *JSON) (Selection, error) {
	if j == nil {
		return nil, nil
	}
	switch j.Type {
	case TypeRange:
		if j.Anchor == nil || j.Focus == nil {
			return nil, fmt.Errorf("%w: range selection without anchor or focus", ErrInvalidPoint)
		}
		anchor, err := pointFromJSON(l, j.Anchor)
		if err != nil {
			return nil, err
		}
		focus, err := pointFromJSON(l, j.Focus)
		if err != nil {
			return nil, err
		}
		r, err := NewRange(l, anchor, focus)
		if err != nil {
			return nil, err
		}
		r.Format = node.TextFormat(j.Format)
		r.Style = j.Style
		return r, nil
	case TypeNode:
		s := NewNodeSelection()
		for _, k := range j.Nodes {
			if _, ok := l.Get(node.Key(k)); !ok {
				return nil, fmt.Errorf("%w: selected node %q does not exist", ErrInvalidPoint, k)
			}
			s.Add(node.Key(k))
		}
		for _, path := range j.Paths {
			key, ok := Resolve(l, path)
			if !ok {
				return nil, fmt.Errorf("%w: path %v does not resolve", ErrInvalidPoint, path)
			}
			s.Add(key)
		}
		return s, nil
	}
	return nil, fmt.Errorf("selection: unknown selection type %q", j.Type)
}

func pointFromJSON(l Lookup, p *PointJSON) (Point, error) {
	pt := Point{Key: node.Key(p.Key), Offset: p.Offset, Type: ParsePointType(p.Type)}
	if p.Key == "" {
		key, ok := Resolve(l, p.Path)
		if !ok {
			return Point{}, fmt.Errorf("%w: path %v does not resolve", ErrInvalidPoint, p.Path)
		}
		pt.Key = key
	}
	return pt, nil
}
