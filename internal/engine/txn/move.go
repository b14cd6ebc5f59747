package txn

import (
	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/selection"
)

// Alter chooses between moving the caret and extending the selection.
type Alter uint8

const (
	// Move collapses the selection at the new position.
	Move Alter = iota
	// Extend moves the focus and keeps the anchor.
	Extend
)

// Unit is the granularity of a caret movement.
type Unit uint8

const (
	Character Unit = iota
	Word
	Line
	Document
)

// String returns the unit name.
func (u Unit) String() string {
	switch u {
	case Word:
		return "word"
	case Line:
		return "line"
	case Document:
		return "document"
	}
	return "character"
}

// Modify moves or extends the range selection by one unit. Lines are block
// boundaries: moving by line goes to the start or end of the current block,
// or across into the neighbouring block when already there.
func (tx *Tx) Modify(alter Alter, backward bool, unit Unit) {
	tx.mustBeOpen("modify", "")
	r := tx.Range()
	if r == nil {
		return
	}
	if alter == Move && !r.IsCollapsed() && unit == Character {
		start, end := r.Ordered(tx)
		if backward {
			r.CollapseTo(start)
		} else {
			r.CollapseTo(end)
		}
		tx.syncFormat()
		return
	}
	q, ok := tx.step(r.Focus, backward, unit)
	if !ok {
		if alter == Move {
			r.Collapse()
		}
		return
	}
	r.Focus = q
	if alter == Move {
		r.Anchor = q
		tx.syncFormat()
	}
}

// SelectAll selects the whole document.
func (tx *Tx) SelectAll() {
	tx.mustBeOpen("select all", "")
	r := &selection.RangeSelection{
		Anchor: tx.startPoint(node.RootKey),
		Focus:  tx.endPoint(node.RootKey),
	}
	if old := tx.Range(); old != nil {
		r.Format, r.Style = old.Format, old.Style
	}
	tx.sel = r
}

// SelectStart collapses the selection at the start of key.
func (tx *Tx) SelectStart(key node.Key) {
	tx.mustBeOpen("select start", key)
	tx.collapseAt(tx.startPoint(key))
}

// SelectEnd collapses the selection at the end of key.
func (tx *Tx) SelectEnd(key node.Key) {
	tx.mustBeOpen("select end", key)
	tx.collapseAt(tx.endPoint(key))
}

func (tx *Tx) collapseAt(p selection.Point) {
	if r := tx.Range(); r != nil {
		r.CollapseTo(p)
	} else {
		tx.sel = selection.Collapsed(p)
	}
	tx.syncFormat()
}

// syncFormat copies the format of the text under a collapsed caret into the
// selection so typed text continues it.
func (tx *Tx) syncFormat() {
	r := tx.Range()
	if r == nil || !r.IsCollapsed() || r.Focus.Type != selection.PointText {
		return
	}
	if t, ok := node.AsText(tx.Latest(r.Focus.Key)); ok {
		r.Format, r.Style = t.Format, t.Style
	}
}

func (tx *Tx) step(p selection.Point, backward bool, unit Unit) (selection.Point, bool) {
	switch unit {
	case Word:
		if backward {
			return tx.wordBackward(p)
		}
		return tx.wordForward(p)
	case Line:
		return tx.lineStep(p, backward)
	case Document:
		if backward {
			return tx.startPoint(node.RootKey), true
		}
		return tx.endPoint(node.RootKey), true
	}
	if backward {
		return tx.charBackward(p)
	}
	return tx.charForward(p)
}

func (tx *Tx) isBlock(n node.Node) bool {
	return n.Kind() == node.KindElement && !tx.reg.IsInline(n)
}

// BlockOf returns the nearest block element at or above key, or the root.
func (tx *Tx) BlockOf(key node.Key) node.Key {
	for k := key; k != ""; {
		n := tx.Latest(k)
		if n.Kind() == node.KindRoot || tx.isBlock(n) {
			return k
		}
		k = n.Meta().Parent
	}
	return ""
}

// before returns the caret position at the end of whatever precedes key,
// and whether getting there leaves a block.
func (tx *Tx) before(key node.Key) (selection.Point, bool, bool) {
	crossed := false
	for key != node.RootKey {
		n := tx.Latest(key)
		if tx.isBlock(n) {
			crossed = true
		}
		b := n.Meta()
		if b.Prev != "" {
			return tx.endPoint(b.Prev), crossed, true
		}
		if b.Parent == "" || b.Parent == node.RootKey {
			break
		}
		key = b.Parent
	}
	return selection.Point{}, false, false
}

// after mirrors before.
func (tx *Tx) after(key node.Key) (selection.Point, bool, bool) {
	crossed := false
	for key != node.RootKey {
		n := tx.Latest(key)
		if tx.isBlock(n) {
			crossed = true
		}
		b := n.Meta()
		if b.Next != "" {
			return tx.startPoint(b.Next), crossed, true
		}
		if b.Parent == "" || b.Parent == node.RootKey {
			break
		}
		key = b.Parent
	}
	return selection.Point{}, false, false
}

func (tx *Tx) charBackward(p selection.Point) (selection.Point, bool) {
	if p.Type == selection.PointText {
		t := tx.Text(p.Key)
		if p.Offset > 0 {
			return selection.TextPoint(p.Key, selection.PrevGrapheme(t.Content, p.Offset)), true
		}
		return tx.crossBackward(p.Key)
	}
	if p.Offset > 0 {
		c := tx.ChildAt(p.Key, p.Offset-1)
		n := tx.Latest(c)
		switch {
		case isText(n):
			return tx.charBackward(selection.TextPoint(c, tx.Text(c).Len()))
		case tx.isBlock(n):
			return tx.endPoint(c), true
		case node.IsContainer(n):
			return tx.charBackward(tx.endPoint(c))
		}
		return selection.ElementPoint(p.Key, p.Offset-1), true
	}
	return tx.crossBackward(p.Key)
}

func (tx *Tx) crossBackward(key node.Key) (selection.Point, bool) {
	q, crossed, ok := tx.before(key)
	if !ok || crossed {
		return q, ok
	}
	return tx.charBackward(q)
}

func (tx *Tx) charForward(p selection.Point) (selection.Point, bool) {
	if p.Type == selection.PointText {
		t := tx.Text(p.Key)
		if p.Offset < t.Len() {
			return selection.TextPoint(p.Key, selection.NextGrapheme(t.Content, p.Offset)), true
		}
		return tx.crossForward(p.Key)
	}
	if e := tx.Element(p.Key); p.Offset < e.Size {
		c := tx.ChildAt(p.Key, p.Offset)
		n := tx.Latest(c)
		switch {
		case isText(n):
			return tx.charForward(selection.TextPoint(c, 0))
		case tx.isBlock(n):
			return tx.startPoint(c), true
		case node.IsContainer(n):
			return tx.charForward(tx.startPoint(c))
		}
		return selection.ElementPoint(p.Key, p.Offset+1), true
	}
	return tx.crossForward(p.Key)
}

func (tx *Tx) crossForward(key node.Key) (selection.Point, bool) {
	q, crossed, ok := tx.after(key)
	if !ok || crossed {
		return q, ok
	}
	return tx.charForward(q)
}

func (tx *Tx) wordBackward(p selection.Point) (selection.Point, bool) {
	if p.Type == selection.PointText {
		if p.Offset > 0 {
			t := tx.Text(p.Key)
			return selection.TextPoint(p.Key, selection.PrevWordStart(t.Content, p.Offset)), true
		}
		q, crossed, ok := tx.before(p.Key)
		if !ok || crossed {
			return q, ok
		}
		return tx.wordBackward(q)
	}
	if p.Offset > 0 {
		if c := tx.ChildAt(p.Key, p.Offset-1); isText(tx.Latest(c)) {
			return tx.wordBackward(selection.TextPoint(c, tx.Text(c).Len()))
		}
	}
	return tx.charBackward(p)
}

func (tx *Tx) wordForward(p selection.Point) (selection.Point, bool) {
	if p.Type == selection.PointText {
		t := tx.Text(p.Key)
		if p.Offset < t.Len() {
			return selection.TextPoint(p.Key, selection.NextWordEnd(t.Content, p.Offset)), true
		}
		q, crossed, ok := tx.after(p.Key)
		if !ok || crossed {
			return q, ok
		}
		return tx.wordForward(q)
	}
	if e := tx.Element(p.Key); p.Offset < e.Size {
		if c := tx.ChildAt(p.Key, p.Offset); isText(tx.Latest(c)) {
			return tx.wordForward(selection.TextPoint(c, 0))
		}
	}
	return tx.charForward(p)
}

func (tx *Tx) lineStep(p selection.Point, backward bool) (selection.Point, bool) {
	block := tx.BlockOf(p.Key)
	if backward {
		s := tx.startPoint(block)
		if selection.Compare(tx, p, s) > 0 {
			return s, true
		}
		return tx.charBackward(p)
	}
	e := tx.endPoint(block)
	if selection.Compare(tx, p, e) < 0 {
		return e, true
	}
	return tx.charForward(p)
}
