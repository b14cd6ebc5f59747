package txn

import (
	"sort"
	"strings"

	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/selection"
	"github.com/dshills/inkwell/internal/engine/state"
)

// InsertText replaces the selection with s. Text typed at a caret inside a
// normal text node of the pending format extends that node; otherwise a new
// text node carrying the selection's format is inserted.
func (tx *Tx) InsertText(s string) {
	tx.mustBeOpen("insert text", "")
	tx.DeleteSelection()
	r := tx.Range()
	if r == nil || s == "" {
		return
	}
	p := r.Anchor
	if p.Type == selection.PointText {
		t := tx.Text(p.Key)
		if t.Mode == node.ModeNormal && t.Format == r.Format && t.Style == r.Style {
			tx.Splice(p.Key, p.Offset, 0, s)
			r.CollapseTo(selection.TextPoint(p.Key, p.Offset+len(s)))
			return
		}
	}
	nt := tx.NewText(s)
	nt.Format, nt.Style = r.Format, r.Style
	tx.insertNodesAt(p, nt.Key)
	r.CollapseTo(selection.TextPoint(nt.Key, len(s)))
}

// InsertRawText inserts s, turning newlines into line breaks.
func (tx *Tx) InsertRawText(s string) {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	for i, part := range strings.Split(s, "\n") {
		if i > 0 {
			tx.InsertLineBreak()
		}
		tx.InsertText(part)
	}
}

// InsertLineBreak replaces the selection with a line break.
func (tx *Tx) InsertLineBreak() {
	tx.mustBeOpen("insert line break", "")
	tx.DeleteSelection()
	r := tx.Range()
	if r == nil {
		return
	}
	lb := tx.NewLineBreak()
	r.CollapseTo(tx.settle(tx.insertNodesAt(r.Anchor, lb.Key)))
}

// InsertParagraph splits the block at the caret. The caret moves to the
// start of the new block.
func (tx *Tx) InsertParagraph() {
	tx.mustBeOpen("insert paragraph", "")
	tx.DeleteSelection()
	r := tx.Range()
	if r == nil {
		return
	}
	p := r.Anchor
	block := tx.BlockOf(p.Key)
	if block == node.RootKey || block == "" {
		para := tx.NewParagraph()
		tx.InsertAt(node.RootKey, tx.rootIndex(p), para.Key)
		r.CollapseTo(selection.ElementPoint(para.Key, 0))
		return
	}
	nb := tx.splitBlock(block, p)
	r.CollapseTo(tx.startPoint(nb))
	tx.syncFormat()
}

// InsertNodes replaces the selection with the given detached nodes. Block
// nodes split the block at the caret and land between the halves.
func (tx *Tx) InsertNodes(keys ...node.Key) {
	tx.mustBeOpen("insert nodes", "")
	tx.DeleteSelection()
	r := tx.Range()
	if r == nil || len(keys) == 0 {
		return
	}
	p := r.Anchor
	block := tx.BlockOf(p.Key)
	hasBlock := false
	for _, k := range keys {
		if !tx.reg.IsInline(tx.Latest(k)) {
			hasBlock = true
		}
	}
	if !hasBlock || block == node.RootKey || block == "" {
		r.CollapseTo(tx.settle(tx.insertNodesAt(p, keys...)))
		return
	}
	nb := tx.splitBlock(block, p)
	for _, k := range keys {
		tx.InsertBefore(nb, k)
	}
	r.CollapseTo(tx.startPoint(nb))
}

// DeleteSelection removes the selected content and collapses the selection
// at its start. Blocks touched at both ends are joined.
func (tx *Tx) DeleteSelection() {
	tx.mustBeOpen("delete selection", "")
	switch s := tx.sel.(type) {
	case *selection.NodeSelection:
		tx.deleteNodes(s)
	case *selection.RangeSelection:
		if !s.IsCollapsed() {
			tx.deleteRange(s)
		}
	}
}

// DeleteCharacter deletes the selection, or one grapheme cluster next to a
// collapsed caret. At a block boundary the two blocks are joined.
func (tx *Tx) DeleteCharacter(backward bool) {
	tx.deleteBy(backward, Character)
}

// DeleteWord deletes to the neighbouring word boundary.
func (tx *Tx) DeleteWord(backward bool) {
	tx.deleteBy(backward, Word)
}

// DeleteLine deletes to the start or end of the block.
func (tx *Tx) DeleteLine(backward bool) {
	tx.deleteBy(backward, Line)
}

func (tx *Tx) deleteBy(backward bool, unit Unit) {
	tx.mustBeOpen("delete", "")
	r := tx.Range()
	if r == nil || !r.IsCollapsed() {
		tx.DeleteSelection()
		return
	}
	tx.Modify(Extend, backward, unit)
	if r.IsCollapsed() {
		return
	}
	tx.DeleteSelection()
}

// FormatText toggles f on the selected text. A collapsed selection only
// changes the pending format for the next insertion. Whether f is added or
// removed follows the first selected text node.
func (tx *Tx) FormatText(f node.TextFormat) {
	tx.mustBeOpen("format text", "")
	r := tx.Range()
	if r == nil {
		return
	}
	if r.IsCollapsed() {
		r.ToggleFormat(f)
		return
	}
	backward := r.IsBackward(tx)
	start, end := r.Ordered(tx)
	segs := tx.textSegments(start, end)
	if len(segs) == 0 {
		r.ToggleFormat(f)
		return
	}
	remove := tx.Text(segs[0].key).Format.Has(f)
	keys := make([]node.Key, len(segs))
	for i, seg := range segs {
		k := tx.isolate(seg.key, seg.start, seg.end)
		w := tx.WritableText(k)
		switch {
		case remove:
			w.Format &^= f
		case !w.Format.Has(f):
			w.Format = w.Format.Toggle(f)
		}
		keys[i] = k
	}
	first, last := keys[0], keys[len(keys)-1]
	a := selection.TextPoint(first, 0)
	b := selection.TextPoint(last, tx.Text(last).Len())
	if backward {
		a, b = b, a
	}
	r.Anchor, r.Focus = a, b
	r.Format = tx.Text(first).Format
}

// SelectedText returns the plain text covered by the selection.
func (tx *Tx) SelectedText() string {
	switch s := tx.sel.(type) {
	case *selection.NodeSelection:
		var b strings.Builder
		for _, k := range s.NodeKeys() {
			if _, ok := tx.Get(k); ok {
				b.WriteString(tx.TextContent(k))
			}
		}
		return b.String()
	case *selection.RangeSelection:
		if s.IsCollapsed() {
			return ""
		}
		start, end := s.Ordered(tx)
		var b strings.Builder
		var lastBlock node.Key
		write := func(k node.Key, text string) {
			blk := tx.BlockOf(k)
			if lastBlock != "" && blk != lastBlock {
				b.WriteString("\n\n")
			}
			lastBlock = blk
			b.WriteString(text)
		}
		state.Walk(tx, node.RootKey, func(n node.Node, _ int) bool {
			k := n.Meta().Key
			switch {
			case isText(n):
				if seg, ok := tx.segment(k, start, end); ok {
					write(k, tx.Text(k).Content[seg.start:seg.end])
				}
			case n.Kind() == node.KindLineBreak:
				if before, after := tx.span(k); selection.Compare(tx, start, before) <= 0 && selection.Compare(tx, after, end) <= 0 {
					write(k, "\n")
				}
			}
			return true
		})
		return b.String()
	}
	return ""
}

// ============================================================================
// Helpers
// ============================================================================

type textSegment struct {
	key        node.Key
	start, end int
}

// segment returns the part of text node k that lies between start and end.
func (tx *Tx) segment(k node.Key, start, end selection.Point) (textSegment, bool) {
	t := tx.Text(k)
	seg := textSegment{key: k, start: 0, end: t.Len()}
	if selection.Compare(tx, selection.TextPoint(k, seg.end), start) <= 0 ||
		selection.Compare(tx, end, selection.TextPoint(k, 0)) <= 0 {
		return seg, false
	}
	if start.Key == k && start.Type == selection.PointText {
		seg.start = start.Offset
	}
	if end.Key == k && end.Type == selection.PointText {
		seg.end = end.Offset
	}
	return seg, seg.start < seg.end
}

func (tx *Tx) textSegments(start, end selection.Point) []textSegment {
	var out []textSegment
	state.Walk(tx, node.RootKey, func(n node.Node, _ int) bool {
		if isText(n) {
			if seg, ok := tx.segment(n.Meta().Key, start, end); ok {
				out = append(out, seg)
			}
		}
		return true
	})
	return out
}

// isolate splits a text node so that [start, end) becomes its own node and
// returns that node's key.
func (tx *Tx) isolate(key node.Key, start, end int) node.Key {
	pieces := tx.SplitText(key, start, end)
	if start > 0 && len(pieces) > 1 {
		return pieces[1]
	}
	return pieces[0]
}

// span returns the element points just before and just after key.
func (tx *Tx) span(key node.Key) (selection.Point, selection.Point) {
	parent := tx.Parent(key)
	i := tx.IndexOf(key)
	return selection.ElementPoint(parent, i), selection.ElementPoint(parent, i+1)
}

// settle turns an element point next to a text node into a text point.
func (tx *Tx) settle(p selection.Point) selection.Point {
	if p.Type != selection.PointElement || p.Key == node.RootKey {
		return p
	}
	e := tx.Element(p.Key)
	if p.Offset < e.Size {
		if c := tx.ChildAt(p.Key, p.Offset); isText(tx.Latest(c)) {
			return selection.TextPoint(c, 0)
		}
	}
	if p.Offset > 0 {
		if c := tx.ChildAt(p.Key, p.Offset-1); isText(tx.Latest(c)) {
			return selection.TextPoint(c, tx.Text(c).Len())
		}
	}
	return p
}

// rootIndex returns the root child index at or after p.
func (tx *Tx) rootIndex(p selection.Point) int {
	if p.Key == node.RootKey {
		return p.Offset
	}
	k := p.Key
	for tx.Parent(k) != node.RootKey {
		k = tx.Parent(k)
		if k == "" {
			return tx.Element(node.RootKey).Size
		}
	}
	return tx.IndexOf(k) + 1
}

// insertNodesAt links keys at p, splitting a text node when p is inside
// one, and returns the position right after the last inserted node. Inline
// nodes dropped directly under the root get a paragraph around them.
func (tx *Tx) insertNodesAt(p selection.Point, keys ...node.Key) selection.Point {
	var parent node.Key
	var index int
	if p.Type == selection.PointText {
		t := tx.Text(p.Key)
		parent, index = t.Parent, tx.IndexOf(p.Key)
		switch {
		case p.Offset == 0:
		case p.Offset >= t.Len():
			index++
		default:
			tx.SplitText(p.Key, p.Offset)
			index++
		}
	} else {
		parent, index = p.Key, p.Offset
	}
	if parent == node.RootKey {
		for _, k := range keys {
			if tx.reg.IsInline(tx.Latest(k)) {
				para := tx.NewParagraph()
				tx.InsertAt(node.RootKey, index, para.Key)
				parent, index = para.Key, 0
				break
			}
		}
	}
	for _, k := range keys {
		tx.InsertAt(parent, index, k)
		index++
	}
	return selection.ElementPoint(parent, index)
}

// splitBlock moves everything after p inside block into a new block of the
// same type placed right after it, and returns the new block.
func (tx *Tx) splitBlock(block node.Key, p selection.Point) node.Key {
	from := tx.splitIndex(block, p)
	b := tx.Element(block)
	nb := tx.NewElement(b.Type)
	nb.Format, nb.Indent, nb.Dir = b.Format, b.Indent, b.Dir
	kids := tx.Children(block)
	tx.InsertAfter(block, nb.Key)
	if from < len(kids) {
		tx.Append(nb.Key, kids[from:]...)
	}
	return nb.Key
}

func (tx *Tx) splitIndex(block node.Key, p selection.Point) int {
	if p.Key == block {
		return p.Offset
	}
	c := p.Key
	for tx.Parent(c) != block {
		c = tx.Parent(c)
	}
	idx := tx.IndexOf(c)
	if p.Type == selection.PointText && c == p.Key {
		t := tx.Text(c)
		switch {
		case p.Offset == 0:
			return idx
		case p.Offset >= t.Len():
			return idx + 1
		}
		tx.SplitText(c, p.Offset)
		return idx + 1
	}
	if selection.Compare(tx, p, tx.startPoint(c)) <= 0 {
		return idx
	}
	return idx + 1
}

func (tx *Tx) deleteRange(r *selection.RangeSelection) {
	start, end := r.Ordered(tx)
	startBlock, endBlock := tx.BlockOf(start.Key), tx.BlockOf(end.Key)

	var doomed []node.Key
	state.Walk(tx, node.RootKey, func(n node.Node, _ int) bool {
		k := n.Meta().Key
		if k == node.RootKey || k == start.Key || k == end.Key ||
			tx.IsAncestor(k, start.Key) || tx.IsAncestor(k, end.Key) {
			return true
		}
		s, e := tx.span(k)
		if selection.Compare(tx, e, start) <= 0 || selection.Compare(tx, end, s) <= 0 {
			return false
		}
		if selection.Compare(tx, start, s) <= 0 && selection.Compare(tx, e, end) <= 0 {
			doomed = append(doomed, k)
			return false
		}
		return true
	})

	if start.Key == end.Key {
		if start.Type == selection.PointText {
			tx.Splice(start.Key, start.Offset, end.Offset-start.Offset, "")
		}
	} else {
		if start.Type == selection.PointText {
			t := tx.Text(start.Key)
			tx.Splice(start.Key, start.Offset, t.Len()-start.Offset, "")
		}
		if end.Type == selection.PointText {
			tx.Splice(end.Key, 0, end.Offset, "")
		}
	}
	for _, k := range doomed {
		tx.Remove(k)
	}
	if startBlock != endBlock && startBlock != node.RootKey && endBlock != node.RootKey &&
		tx.IsAttached(startBlock) && tx.IsAttached(endBlock) &&
		!tx.IsAncestor(startBlock, endBlock) && !tx.IsAncestor(endBlock, startBlock) {
		tx.MoveChildren(endBlock, startBlock)
		tx.Remove(endBlock)
	}
	r.CollapseTo(tx.settle(start))
}

func (tx *Tx) deleteNodes(s *selection.NodeSelection) {
	type located struct {
		key  node.Key
		path []int
	}
	var nodes []located
	for _, k := range s.NodeKeys() {
		if k == node.RootKey {
			continue
		}
		if path, ok := selection.Path(tx, k); ok {
			nodes = append(nodes, located{k, path})
		}
	}
	if len(nodes) == 0 {
		tx.sel = nil
		return
	}
	sort.Slice(nodes, func(i, j int) bool { return lessPath(nodes[i].path, nodes[j].path) })
	first := nodes[0].key
	parent, index := tx.Parent(first), tx.IndexOf(first)
	for _, n := range nodes {
		if tx.IsAttached(n.key) {
			tx.Remove(n.key)
		}
	}
	p := selection.ElementPoint(parent, index)
	if tx.IsAttached(parent) {
		p.Offset = min(index, tx.Element(parent).Size)
		p = tx.settle(p)
	}
	tx.sel = selection.Collapsed(p)
}

func lessPath(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
