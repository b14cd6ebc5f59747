package txn

import (
	"fmt"
	"sort"

	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/selection"
	"github.com/dshills/inkwell/internal/engine/state"
)

// MaxTransformPasses bounds the transform fixpoint loop. Commit fails with
// ErrInfiniteTransformLoop when nodes are still dirty after this many passes.
const MaxTransformPasses = 10

// Result describes a committed transaction.
type Result struct {
	Prev *state.EditorState
	Next *state.EditorState

	// Dirty holds the written or created keys that survived the sweep.
	Dirty map[node.Key]DirtyReason

	// Removed holds keys present in Prev and absent from Next, sorted.
	Removed []node.Key

	Tags   []string
	Passes int
}

// HasTag reports whether the transaction was tagged with tag.
func (r *Result) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Commit freezes the working copy into a new state. The transaction is
// closed afterwards whether or not Commit succeeds.
func (tx *Tx) Commit() (res *Result, err error) {
	tx.mustBeOpen("commit", "")
	defer func() { tx.closed = true }()
	defer Recover(&err)

	passes, err := tx.runTransforms()
	if err != nil {
		return nil, err
	}
	reachable, err := tx.mark()
	if err != nil {
		return nil, err
	}
	sel := tx.normalizeSelection(reachable)

	next := state.New(reachable, sel, tx.prev.Revision()+1)
	res = &Result{
		Prev:   tx.prev,
		Next:   next,
		Dirty:  make(map[node.Key]DirtyReason, len(tx.dirty)),
		Tags:   tx.Tags(),
		Passes: passes,
	}
	for k, r := range tx.dirty {
		if _, ok := reachable[k]; ok {
			res.Dirty[k] = r
		}
	}
	for _, k := range tx.prev.Keys() {
		if _, ok := reachable[k]; !ok {
			res.Removed = append(res.Removed, k)
		}
	}
	return res, nil
}

func (tx *Tx) runTransforms() (int, error) {
	passes := 0
	for len(tx.pending) > 0 {
		if passes == MaxTransformPasses {
			return passes, fmt.Errorf("%w: nodes still dirty after %d passes", ErrInfiniteTransformLoop, passes)
		}
		passes++
		batch := make([]node.Key, 0, len(tx.pending))
		for k := range tx.pending {
			batch = append(batch, k)
		}
		sort.Slice(batch, func(i, j int) bool { return batch[i] < batch[j] })
		tx.pending = make(map[node.Key]struct{})

		tx.normalize(batch)
		if tx.skipTransforms || tx.transforms == nil {
			continue
		}
		for _, k := range batch {
			n, ok := tx.Get(k)
			if !ok || !tx.IsAttached(k) {
				continue
			}
			for _, fn := range tx.transforms.Transforms(n.Meta().Type) {
				if err := fn(tx, k); err != nil {
					return passes, err
				}
				if !tx.IsAttached(k) {
					break
				}
			}
		}
	}
	return passes, nil
}

// mark collects every node reachable from the root and checks the child
// chains on the way.
func (tx *Tx) mark() (map[node.Key]node.Node, error) {
	out := make(map[node.Key]node.Node, tx.prev.Len()+len(tx.own))
	stack := []node.Key{node.RootKey}
	for len(stack) > 0 {
		k := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, ok := tx.Get(k)
		if !ok {
			return nil, invariant("commit", k, ErrStaleKey)
		}
		out[k] = n
		e, ok := node.AsElement(n)
		if !ok {
			continue
		}
		var prev node.Key
		count := 0
		var kids []node.Key
		for c := e.First; c != ""; {
			if _, seen := out[c]; seen || count > e.Size {
				return nil, invariant("commit", c, ErrMultipleParents)
			}
			cn, ok := tx.Get(c)
			if !ok {
				return nil, invariant("commit", c, ErrStaleKey)
			}
			b := cn.Meta()
			if b.Parent != k {
				return nil, invariant("commit", c, fmt.Errorf("%w: linked under %q but parent is %q", ErrMultipleParents, k, b.Parent))
			}
			if b.Prev != prev {
				return nil, invariant("commit", c, ErrBrokenChain)
			}
			kids = append(kids, c)
			prev = c
			count++
			c = b.Next
		}
		if e.Last != prev || e.Size != count {
			return nil, invariant("commit", k, fmt.Errorf("%w: last=%q size=%d, walked last=%q count=%d", ErrBrokenChain, e.Last, e.Size, prev, count))
		}
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out, nil
}

// ============================================================================
// Selection normalisation
// ============================================================================

func (tx *Tx) normalizeSelection(reach map[node.Key]node.Node) selection.Selection {
	switch s := tx.sel.(type) {
	case *selection.RangeSelection:
		out := *s
		out.Anchor = tx.normalizePoint(reach, s.Anchor)
		out.Focus = tx.normalizePoint(reach, s.Focus)
		return &out
	case *selection.NodeSelection:
		out := selection.NewNodeSelection()
		for _, k := range s.NodeKeys() {
			if _, ok := reach[k]; ok {
				out.Add(k)
			}
		}
		if out.Len() == 0 {
			return nil
		}
		return out
	}
	return nil
}

func (tx *Tx) normalizePoint(reach map[node.Key]node.Node, p selection.Point) selection.Point {
	n, ok := reach[p.Key]
	if !ok {
		return tx.fallback(reach, p.Key)
	}
	if _, kindOK := selection.Limit(n, p.Type); !kindOK {
		if p.Offset == 0 {
			return tx.startPoint(p.Key)
		}
		return tx.endPoint(p.Key)
	}
	q, _ := selection.Clamp(tx, p)
	return q
}

// fallback finds the nearest surviving position for a point on a node that
// is no longer reachable: the end of the previous sibling, the start of the
// next sibling, the parent itself, then the same for each ancestor, then
// the start of the document.
func (tx *Tx) fallback(reach map[node.Key]node.Node, key node.Key) selection.Point {
	for i := 0; key != "" && i <= len(reach)+len(tx.own); i++ {
		var parent node.Key
		var index int
		if loc, ok := tx.removedAt[key]; ok {
			parent, index = loc.parent, loc.index
		} else if n, ok := tx.Get(key); ok && n.Meta().Parent != "" {
			parent, index = n.Meta().Parent, tx.IndexOf(key)
		} else {
			break
		}
		if _, ok := reach[parent]; ok {
			kids := tx.Children(parent)
			switch {
			case index > 0 && len(kids) > 0:
				return tx.endPoint(kids[min(index, len(kids))-1])
			case len(kids) > 0:
				return tx.startPoint(kids[0])
			}
			return selection.ElementPoint(parent, 0)
		}
		key = parent
	}
	return tx.startPoint(node.RootKey)
}

// startPoint returns the first caret position inside key.
func (tx *Tx) startPoint(key node.Key) selection.Point {
	for {
		n := tx.Latest(key)
		if t, ok := node.AsText(n); ok {
			return selection.TextPoint(t.Key, 0)
		}
		e, ok := node.AsElement(n)
		if !ok {
			return selection.ElementPoint(n.Meta().Parent, tx.IndexOf(key))
		}
		if e.Size == 0 {
			return selection.ElementPoint(key, 0)
		}
		if !node.IsContainer(tx.Latest(e.First)) && !isText(tx.Latest(e.First)) {
			return selection.ElementPoint(key, 0)
		}
		key = e.First
	}
}

// endPoint returns the last caret position inside key.
func (tx *Tx) endPoint(key node.Key) selection.Point {
	for {
		n := tx.Latest(key)
		if t, ok := node.AsText(n); ok {
			return selection.TextPoint(t.Key, t.Len())
		}
		e, ok := node.AsElement(n)
		if !ok {
			return selection.ElementPoint(n.Meta().Parent, tx.IndexOf(key)+1)
		}
		if e.Size == 0 {
			return selection.ElementPoint(key, 0)
		}
		if !node.IsContainer(tx.Latest(e.Last)) && !isText(tx.Latest(e.Last)) {
			return selection.ElementPoint(key, e.Size)
		}
		key = e.Last
	}
}
