// Package codec converts editor states to and from the serialized document
// format: a JSON object whose "root" member holds the node tree. Every node
// carries its "type" and "version"; elements nest their children under
// "children". An optional "selection" member stores the selection with
// child-index paths instead of keys, so it survives the re-keying that
// happens on import.
package codec

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/selection"
	"github.com/dshills/inkwell/internal/engine/state"
	"github.com/dshills/inkwell/internal/engine/txn"
)

// ErrMalformed indicates input that is not a serialized document.
var ErrMalformed = errors.New("codec: malformed document")

// Options control export.
type Options struct {
	// Selection includes the selection when set.
	Selection bool
}

// Export encodes s.
func Export(s *state.EditorState, reg *node.Registry, opts Options) ([]byte, error) {
	root, err := ExportNode(s, reg, node.RootKey)
	if err != nil {
		return nil, err
	}
	out, err := sjson.SetRawBytes([]byte(`{}`), "root", root)
	if err != nil {
		return nil, err
	}
	if opts.Selection {
		j, err := selection.ToPathJSON(s, s.Selection())
		if err != nil {
			return nil, fmt.Errorf("codec: export selection: %w", err)
		}
		if j != nil {
			if out, err = sjson.SetBytes(out, "selection", j); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// ExportIndent is like Export with indented output.
func ExportIndent(s *state.EditorState, reg *node.Registry, opts Options) ([]byte, error) {
	b, err := Export(s, reg, opts)
	if err != nil {
		return nil, err
	}
	return pretty.Pretty(b), nil
}

// ExportNode encodes the subtree under key.
func ExportNode(l selection.Lookup, reg *node.Registry, key node.Key) ([]byte, error) {
	n, ok := l.Get(key)
	if !ok {
		return nil, fmt.Errorf("codec: export %s: %w", key, state.ErrStaleKey)
	}
	k, ok := reg.Lookup(n.Meta().Type)
	if !ok {
		return nil, fmt.Errorf("codec: export %s: %w: %q", key, node.ErrUnknownType, n.Meta().Type)
	}
	b, err := k.ExportJSON(n)
	if err != nil {
		return nil, err
	}
	if !node.IsContainer(n) {
		return b, nil
	}
	if b, err = sjson.SetRawBytes(b, "children", []byte(`[]`)); err != nil {
		return nil, err
	}
	for _, c := range state.Children(l, key) {
		cb, err := ExportNode(l, reg, c)
		if err != nil {
			return nil, err
		}
		if b, err = sjson.SetRawBytes(b, "children.-1", cb); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Import decodes a serialized document into a new state. Every node gets a
// fresh key. An unregistered node type fails the import.
func Import(data []byte, reg *node.Registry) (*state.EditorState, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	doc := gjson.ParseBytes(data)
	root := doc.Get("root")
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: missing root object", ErrMalformed)
	}
	if t := root.Get("type"); t.Exists() && t.String() != node.TypeRoot {
		return nil, fmt.Errorf("%w: root has type %q", ErrMalformed, t.String())
	}

	tx := txn.Begin(state.Empty(), txn.Config{Registry: reg})
	s, err := importInto(tx, reg, root, doc.Get("selection"))
	if err != nil {
		tx.Discard()
		return nil, err
	}
	return s, nil
}

func importInto(tx *txn.Tx, reg *node.Registry, root, sel gjson.Result) (s *state.EditorState, err error) {
	defer txn.Recover(&err)

	k := reg.MustLookup(node.TypeRoot)
	if err := k.ImportJSON(tx.Writable(node.RootKey), root); err != nil {
		return nil, fmt.Errorf("codec: import root: %w", err)
	}
	if err := importChildren(tx, reg, node.RootKey, root); err != nil {
		return nil, err
	}
	if sel.IsObject() {
		restored, err := selection.FromJSON(tx, selectionFromJSON(sel))
		if err != nil {
			return nil, fmt.Errorf("codec: import selection: %w", err)
		}
		tx.SetSelection(restored)
	}
	res, err := tx.Commit()
	if err != nil {
		return nil, err
	}
	return res.Next, nil
}

func importChildren(tx *txn.Tx, reg *node.Registry, parent node.Key, obj gjson.Result) error {
	children := obj.Get("children")
	if !children.Exists() {
		return nil
	}
	if !children.IsArray() {
		return fmt.Errorf("%w: children of %s is not an array", ErrMalformed, obj.Get("type").String())
	}
	var err error
	children.ForEach(func(_, c gjson.Result) bool {
		var key node.Key
		if key, err = importNode(tx, reg, c); err != nil {
			return false
		}
		tx.Append(parent, key)
		return true
	})
	return err
}

func importNode(tx *txn.Tx, reg *node.Registry, obj gjson.Result) (node.Key, error) {
	if !obj.IsObject() {
		return "", fmt.Errorf("%w: node is not an object", ErrMalformed)
	}
	typ := obj.Get("type").String()
	k, ok := reg.Lookup(typ)
	if !ok {
		return "", fmt.Errorf("codec: import: %w: %q", node.ErrUnknownType, typ)
	}
	if k.Kind == node.KindRoot {
		return "", fmt.Errorf("%w: nested root", ErrMalformed)
	}
	n := tx.Create(typ)
	if err := k.ImportJSON(n, obj); err != nil {
		return "", fmt.Errorf("codec: import %s: %w", typ, err)
	}
	if node.IsContainer(n) {
		if err := importChildren(tx, reg, node.KeyOf(n), obj); err != nil {
			return "", err
		}
	}
	return node.KeyOf(n), nil
}

func selectionFromJSON(obj gjson.Result) *selection.JSON {
	j := &selection.JSON{
		Type:   obj.Get("type").String(),
		Format: uint32(obj.Get("format").Uint()),
		Style:  obj.Get("style").String(),
	}
	for _, name := range []string{"anchor", "focus"} {
		p := obj.Get(name)
		if !p.Exists() {
			continue
		}
		pj := &selection.PointJSON{
			Key:    p.Get("key").String(),
			Offset: int(p.Get("offset").Int()),
			Type:   p.Get("type").String(),
		}
		pj.Path = intsOf(p.Get("path"))
		if name == "anchor" {
			j.Anchor = pj
		} else {
			j.Focus = pj
		}
	}
	for _, path := range obj.Get("paths").Array() {
		j.Paths = append(j.Paths, intsOf(path))
	}
	for _, k := range obj.Get("nodes").Array() {
		j.Nodes = append(j.Nodes, k.String())
	}
	return j
}

func intsOf(r gjson.Result) []int {
	var out []int
	for _, v := range r.Array() {
		out = append(out, int(v.Int()))
	}
	return out
}
