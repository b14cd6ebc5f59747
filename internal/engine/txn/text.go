package txn

import (
	"fmt"

	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/selection"
)

// SetText replaces the content of a text node.
func (tx *Tx) SetText(key node.Key, content string) {
	tx.WritableText(key).Content = content
}

// Splice deletes del bytes at offset and inserts s in their place.
func (tx *Tx) Splice(key node.Key, offset, del int, s string) {
	t := tx.Text(key)
	if offset < 0 || del < 0 || offset+del > t.Len() {
		panic(invariant("splice", key, fmt.Errorf("%w: [%d,%d) of %d", ErrOutOfRange, offset, offset+del, t.Len())))
	}
	w := tx.WritableText(key)
	w.Content = w.Content[:offset] + s + w.Content[offset+del:]
}

// SplitText cuts a text node at the given ascending offsets. The first
// piece keeps key; the others are new siblings with the same format, style,
// mode and detail. Offsets at 0 or at the end are ignored. Selection points
// past a cut move to the piece that now holds them.
func (tx *Tx) SplitText(key node.Key, offsets ...int) []node.Key {
	t := tx.Text(key)
	content := t.Content
	var cuts []int
	last := 0
	for _, o := range offsets {
		if o < 0 || o > len(content) {
			panic(invariant("split", key, fmt.Errorf("%w: %d of %d", ErrOutOfRange, o, len(content))))
		}
		if o > last && o < len(content) {
			cuts = append(cuts, o)
			last = o
		}
	}
	keys := []node.Key{key}
	if len(cuts) == 0 {
		return keys
	}

	tx.SetText(key, content[:cuts[0]])
	prev := key
	for i, start := range cuts {
		end := len(content)
		if i+1 < len(cuts) {
			end = cuts[i+1]
		}
		piece := tx.Create(t.Type)
		pt, ok := node.AsText(piece)
		if !ok {
			panic(invariant("split", key, node.ErrKindMismatch))
		}
		pt.Content = content[start:end]
		pt.Format, pt.Style, pt.Mode, pt.Detail = t.Format, t.Style, t.Mode, t.Detail
		if tx.Latest(key).Meta().Parent != "" {
			tx.InsertAfter(prev, pt.Key)
		}
		prev = pt.Key
		keys = append(keys, pt.Key)
		tx.movePoints(key, start, end, pt.Key)
	}
	return keys
}

// movePoints rebases text points on from with offsets in (start, end] onto
// to, subtracting start.
func (tx *Tx) movePoints(from node.Key, start, end int, to node.Key) {
	r := tx.Range()
	if r == nil {
		return
	}
	for _, p := range []*selection.Point{&r.Anchor, &r.Focus} {
		if p.Key == from && p.Type == selection.PointText && p.Offset > start && p.Offset <= end {
			*p = selection.TextPoint(to, p.Offset-start)
		}
	}
}

// ============================================================================
// Selection access
// ============================================================================

// Selection returns the working selection. Range and node selections
// returned here are live: changes apply to this transaction.
func (tx *Tx) Selection() selection.Selection {
	return tx.sel
}

// Range returns the working range selection, or nil.
func (tx *Tx) Range() *selection.RangeSelection {
	r, _ := tx.sel.(*selection.RangeSelection)
	return r
}

// SetSelection replaces the selection without validation. Out-of-range
// points are clamped at commit.
func (tx *Tx) SetSelection(s selection.Selection) {
	tx.mustBeOpen("set selection", "")
	tx.sel = s
}

// ClearSelection removes the selection.
func (tx *Tx) ClearSelection() {
	tx.SetSelection(nil)
}

// Select sets a range selection after validating both points.
func (tx *Tx) Select(anchor, focus selection.Point) error {
	tx.mustBeOpen("select", "")
	r, err := selection.NewRange(tx, anchor, focus)
	if err != nil {
		return err
	}
	if old := tx.Range(); old != nil {
		r.Format, r.Style = old.Format, old.Style
	}
	tx.sel = r
	return nil
}

// SelectNodes sets a node selection.
func (tx *Tx) SelectNodes(keys ...node.Key) {
	tx.mustBeOpen("select nodes", "")
	for _, k := range keys {
		tx.Latest(k)
	}
	tx.sel = selection.NewNodeSelection(keys...)
}

func (tx *Tx) pointsAt(key node.Key) bool {
	switch s := tx.sel.(type) {
	case *selection.RangeSelection:
		return s.Anchor.Key == key || s.Focus.Key == key
	case *selection.NodeSelection:
		return s.Has(key)
	}
	return false
}

// shiftElementPoints adjusts element points into parent after the child at
// index was removed.
func (tx *Tx) shiftElementPoints(parent node.Key, index int) {
	r := tx.Range()
	if r == nil {
		return
	}
	for _, p := range []*selection.Point{&r.Anchor, &r.Focus} {
		if p.Key == parent && p.Type == selection.PointElement && p.Offset > index {
			p.Offset--
		}
	}
}

func (tx *Tx) rebasePoints(from, to node.Key, shift int) {
	r := tx.Range()
	if r == nil {
		return
	}
	for _, p := range []*selection.Point{&r.Anchor, &r.Focus} {
		if p.Key == from && p.Type == selection.PointText {
			*p = selection.TextPoint(to, p.Offset+shift)
		}
	}
}

// ============================================================================
// Normalisation
// ============================================================================

// normalize merges adjacent compatible text siblings and drops empty simple
// text nodes below the parents of keys.
func (tx *Tx) normalize(keys []node.Key) {
	seen := make(map[node.Key]bool)
	for _, k := range keys {
		n, ok := tx.Get(k)
		if !ok {
			continue
		}
		parent := n.Meta().Parent
		if node.IsContainer(n) {
			parent = k
		}
		if parent == "" || seen[parent] || !tx.IsAttached(parent) {
			continue
		}
		seen[parent] = true
		tx.normalizeChildren(parent)
	}
}

func (tx *Tx) normalizeChildren(parent node.Key) {
	var prevKey node.Key
	for _, c := range tx.Children(parent) {
		t, ok := node.AsText(tx.Latest(c))
		if !ok {
			prevKey = ""
			continue
		}
		if t.Content == "" && t.IsSimple() {
			tx.dropEmpty(parent, c, prevKey)
			continue
		}
		if prevKey != "" && tx.Text(prevKey).CanMergeWith(t) {
			tx.mergeInto(parent, prevKey, c)
			continue
		}
		prevKey = c
	}
}

// dropEmpty removes an empty text node. Selection points resting in it move
// to a neighbouring text node, or to the child position it occupied.
func (tx *Tx) dropEmpty(parent, key, prevText node.Key) {
	idx := tx.IndexOf(key)
	if tx.pointsAt(key) {
		next := tx.Latest(key).Meta().Next
		switch {
		case next != "" && isText(tx.Latest(next)):
			tx.rebasePoints(key, next, 0)
		case prevText != "":
			tx.rebasePoints(key, prevText, tx.Text(prevText).Len())
		default:
			tx.pointsToElement(key, parent, idx)
		}
	}
	tx.Remove(key)
	tx.shiftElementPoints(parent, idx)
}

func (tx *Tx) pointsToElement(from, parent node.Key, index int) {
	r := tx.Range()
	if r == nil {
		return
	}
	for _, p := range []*selection.Point{&r.Anchor, &r.Focus} {
		if p.Key == from {
			*p = selection.ElementPoint(parent, index)
		}
	}
}

func (tx *Tx) mergeInto(parent, into, from node.Key) {
	shift := tx.Text(into).Len()
	w := tx.WritableText(into)
	w.Content += tx.Text(from).Content
	tx.rebasePoints(from, into, shift)
	idx := tx.IndexOf(from)
	tx.Remove(from)
	tx.shiftElementPoints(parent, idx)
}

func isText(n node.Node) bool {
	_, ok := node.AsText(n)
	return ok
}
