package txn

import (
	"fmt"

	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/state"
)

// Parent returns the parent key of key, or "" when detached.
func (tx *Tx) Parent(key node.Key) node.Key {
	return tx.Latest(key).Meta().Parent
}

// Children returns the child keys of key in order.
func (tx *Tx) Children(key node.Key) []node.Key {
	return state.Children(tx, key)
}

// IndexOf returns the position of key among its siblings, or -1.
func (tx *Tx) IndexOf(key node.Key) int {
	n := tx.Latest(key)
	if n.Meta().Parent == "" {
		return -1
	}
	i := 0
	for k := n.Meta().Prev; k != ""; k = tx.Latest(k).Meta().Prev {
		i++
	}
	return i
}

// ChildAt returns the child of parent at index, or "".
func (tx *Tx) ChildAt(parent node.Key, index int) node.Key {
	e := tx.Element(parent)
	if index < 0 || index >= e.Size {
		return ""
	}
	if index > e.Size/2 {
		k := e.Last
		for i := e.Size - 1; i > index; i-- {
			k = tx.Latest(k).Meta().Prev
		}
		return k
	}
	k := e.First
	for i := 0; i < index; i++ {
		k = tx.Latest(k).Meta().Next
	}
	return k
}

// IsAttached reports whether key is reachable from the root.
func (tx *Tx) IsAttached(key node.Key) bool {
	limit := len(tx.own) + tx.prev.Len()
	for i := 0; key != "" && i <= limit; i++ {
		if key == node.RootKey {
			return true
		}
		n, ok := tx.Get(key)
		if !ok {
			return false
		}
		key = n.Meta().Parent
	}
	return false
}

// IsAncestor reports whether anc is a strict ancestor of key.
func (tx *Tx) IsAncestor(anc, key node.Key) bool {
	for key != "" {
		n, ok := tx.Get(key)
		if !ok {
			return false
		}
		key = n.Meta().Parent
		if key == anc {
			return true
		}
	}
	return false
}

// Append links children at the end of parent, in order.
func (tx *Tx) Append(parent node.Key, children ...node.Key) {
	for _, c := range children {
		tx.insert("append", parent, "", c)
	}
}

// Prepend links child at the start of parent.
func (tx *Tx) Prepend(parent, child node.Key) {
	tx.insert("prepend", parent, tx.Element(parent).First, child)
}

// InsertAt links child at index within parent. Index is clamped to the
// child count.
func (tx *Tx) InsertAt(parent node.Key, index int, child node.Key) {
	tx.insert("insert", parent, tx.ChildAt(parent, index), child)
}

// InsertBefore links child immediately before ref.
func (tx *Tx) InsertBefore(ref, child node.Key) {
	if ref == child || tx.Latest(ref).Meta().Prev == child {
		return
	}
	parent := tx.attachedParent("insert before", ref)
	tx.insert("insert before", parent, ref, child)
}

// InsertAfter links child immediately after ref.
func (tx *Tx) InsertAfter(ref, child node.Key) {
	r := tx.Latest(ref).Meta()
	if ref == child || r.Next == child {
		return
	}
	parent := tx.attachedParent("insert after", ref)
	tx.insert("insert after", parent, r.Next, child)
}

// Remove unlinks key from its parent. The node and its subtree stay
// readable until commit, when they are dropped unless re-linked.
func (tx *Tx) Remove(key node.Key) {
	tx.mustBeOpen("remove", key)
	if key == node.RootKey {
		panic(invariant("remove", key, fmt.Errorf("%w: the root cannot be removed", ErrInvalidOperation)))
	}
	tx.detach(key)
}

// Replace puts repl where old is and removes old.
func (tx *Tx) Replace(old, repl node.Key) {
	if old == repl {
		return
	}
	tx.InsertBefore(old, repl)
	tx.Remove(old)
}

// MoveChildren appends every child of from to to, preserving order.
func (tx *Tx) MoveChildren(from, to node.Key) {
	for _, c := range tx.Children(from) {
		tx.insert("move children", to, "", c)
	}
}

func (tx *Tx) attachedParent(op string, ref node.Key) node.Key {
	p := tx.Latest(ref).Meta().Parent
	if p == "" {
		panic(invariant(op, ref, fmt.Errorf("%w: reference node is detached", ErrInvalidOperation)))
	}
	return p
}

// insert links key into parent before the sibling before, or at the end
// when before is empty. key is detached from its current parent first.
func (tx *Tx) insert(op string, parent, before, key node.Key) {
	tx.mustBeOpen(op, key)
	if key == node.RootKey {
		panic(invariant(op, key, fmt.Errorf("%w: the root cannot be inserted", ErrInvalidOperation)))
	}
	if key == parent || tx.IsAncestor(key, parent) {
		panic(invariant(op, key, ErrCycle))
	}
	if !node.IsContainer(tx.Latest(parent)) {
		panic(invariant(op, parent, fmt.Errorf("%w: %s node cannot have children", ErrInvalidOperation, tx.Latest(parent).Kind())))
	}
	if before == key {
		return
	}
	if before != "" && tx.Latest(before).Meta().Parent != parent {
		panic(invariant(op, before, fmt.Errorf("%w: reference node is not a child of %q", ErrInvalidOperation, parent)))
	}
	tx.Latest(key)
	tx.detach(key)

	p := tx.WritableElement(parent)
	prev := p.Last
	if before != "" {
		prev = tx.Latest(before).Meta().Prev
	}
	w := tx.Writable(key).Meta()
	w.Parent, w.Prev, w.Next = parent, prev, before
	if prev != "" {
		tx.Writable(prev).Meta().Next = key
	} else {
		p.First = key
	}
	if before != "" {
		tx.Writable(before).Meta().Prev = key
	} else {
		p.Last = key
	}
	p.Size++
	delete(tx.removedAt, key)
}

// detach unlinks key from its parent and remembers where it was.
func (tx *Tx) detach(key node.Key) {
	b := tx.Latest(key).Meta()
	if b.Parent == "" {
		return
	}
	tx.removedAt[key] = location{parent: b.Parent, index: tx.IndexOf(key)}

	p := tx.WritableElement(b.Parent)
	w := tx.Writable(key).Meta()
	if w.Prev != "" {
		tx.Writable(w.Prev).Meta().Next = w.Next
	} else {
		p.First = w.Next
	}
	if w.Next != "" {
		tx.Writable(w.Next).Meta().Prev = w.Prev
	} else {
		p.Last = w.Prev
	}
	p.Size--
	w.Parent, w.Prev, w.Next = "", "", ""
}
