package selection

import "github.com/dshills/inkwell/internal/engine/node"

// IndexOf returns the position of key within its parent's child chain,
// or -1 when the node is detached or missing.
func IndexOf(l Lookup, key node.Key) int {
	n, ok := l.Get(key)
	if !ok || n.Meta().Parent == "" {
		return -1
	}
	i := 0
	for prev := n.Meta().Prev; prev != ""; i++ {
		p, ok := l.Get(prev)
		if !ok {
			return -1
		}
		prev = p.Meta().Prev
	}
	return i
}

// Path returns the child indexes leading from the root to key. It returns
// false when the node is not attached to the root.
func Path(l Lookup, key node.Key) ([]int, bool) {
	var rev []int
	for key != node.RootKey {
		n, ok := l.Get(key)
		if !ok || n.Meta().Parent == "" {
			return nil, false
		}
		i := IndexOf(l, key)
		if i < 0 {
			return nil, false
		}
		rev = append(rev, i)
		key = n.Meta().Parent
	}
	path := make([]int, len(rev))
	for i, v := range rev {
		path[len(rev)-1-i] = v
	}
	return path, true
}

// Resolve walks a child index path from the root and returns the node key
// it leads to.
func Resolve(l Lookup, path []int) (node.Key, bool) {
	key := node.RootKey
	for _, idx := range path {
		n, ok := l.Get(key)
		if !ok {
			return "", false
		}
		e, ok := node.AsElement(n)
		if !ok || idx < 0 || idx >= e.Size {
			return "", false
		}
		child := e.First
		for i := 0; i < idx; i++ {
			c, ok := l.Get(child)
			if !ok {
				return "", false
			}
			child = c.Meta().Next
		}
		key = child
	}
	return key, true
}

// Compare orders two points in document order: -1 if a is before b, 1 if
// after, 0 if they are equal or cannot be ordered.
func Compare(l Lookup, a, b Point) int {
	if a.Key == b.Key {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	}
	pa, ok := Path(l, a.Key)
	if !ok {
		return 0
	}
	pb, ok := Path(l, b.Key)
	if !ok {
		return 0
	}
	va := append(pa, a.Offset)
	vb := append(pb, b.Offset)
	for i := 0; i < len(va) && i < len(vb); i++ {
		switch {
		case va[i] < vb[i]:
			return -1
		case va[i] > vb[i]:
			return 1
		}
	}
	switch {
	case len(va) < len(vb):
		return -1
	case len(va) > len(vb):
		return 1
	}
	return 0
}
