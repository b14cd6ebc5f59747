// Package state holds the immutable editor state: a node map addressed by
// key plus the selection, stamped with a revision number.
//
// A committed EditorState is never mutated. Transactions read from it and
// build the next state on their own working copy, so a state held by a
// history entry or a concurrent reader stays valid indefinitely.
package state

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/selection"
)

// ErrStaleKey indicates a key that is not present in the state being read.
var ErrStaleKey = errors.New("state: stale or unknown node key")

// EditorState is an immutable snapshot of the document.
type EditorState struct {
	nodes     map[node.Key]node.Node
	selection selection.Selection
	revision  uint64
}

// New wraps an already frozen node map. The caller hands over ownership of
// nodes and sel; neither may be modified afterwards.
func New(nodes map[node.Key]node.Node, sel selection.Selection, revision uint64) *EditorState {
	return &EditorState{nodes: nodes, selection: sel, revision: revision}
}

// Empty returns a state holding only the root.
func Empty() *EditorState {
	root := node.NewRoot()
	return New(map[node.Key]node.Node{root.Key: root}, nil, 0)
}

// Document returns a state holding the root and one empty paragraph, with
// the cursor inside the paragraph.
func Document() *EditorState {
	root := node.NewRoot()
	p := node.NewParagraph()
	p.Key = node.NewKey()
	p.Parent = root.Key
	root.First, root.Last, root.Size = p.Key, p.Key, 1
	sel := selection.Collapsed(selection.ElementPoint(p.Key, 0))
	return New(map[node.Key]node.Node{root.Key: root, p.Key: p}, sel, 0)
}

// Get returns the node stored under key.
func (s *EditorState) Get(key node.Key) (node.Node, bool) {
	n, ok := s.nodes[key]
	return n, ok
}

// Has reports whether key is present.
func (s *EditorState) Has(key node.Key) bool {
	_, ok := s.nodes[key]
	return ok
}

// Latest returns the node stored under key and panics with ErrStaleKey when
// it is absent. Callers holding a key from an older state use it to
// re-resolve instead of reading a stale node.
func (s *EditorState) Latest(key node.Key) node.Node {
	n, ok := s.nodes[key]
	if !ok {
		panic(fmt.Errorf("%w: %q", ErrStaleKey, key))
	}
	return n
}

// Root returns the root node.
func (s *EditorState) Root() *node.Root {
	return s.nodes[node.RootKey].(*node.Root)
}

// Len returns the number of nodes in the map.
func (s *EditorState) Len() int {
	return len(s.nodes)
}

// Keys returns all keys in sorted order.
func (s *EditorState) Keys() []node.Key {
	out := make([]node.Key, 0, len(s.nodes))
	for k := range s.nodes {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Selection returns a copy of the selection, or nil.
func (s *EditorState) Selection() selection.Selection {
	return selection.Clone(s.selection)
}

// Revision returns the commit counter of the state.
func (s *EditorState) Revision() uint64 {
	return s.revision
}

// WithRevision returns a state sharing the nodes and selection of s under a
// new revision number.
func (s *EditorState) WithRevision(rev uint64) *EditorState {
	return &EditorState{nodes: s.nodes, selection: s.selection, revision: rev}
}

// IsEmpty reports whether the document is a root with at most one empty
// block.
func (s *EditorState) IsEmpty() bool {
	root := s.Root()
	if root.Size == 0 {
		return true
	}
	if root.Size > 1 {
		return false
	}
	if e, ok := node.AsElement(s.nodes[root.First]); ok {
		return e.Size == 0
	}
	return false
}

// Children returns the child keys of key in order.
func (s *EditorState) Children(key node.Key) []node.Key {
	return Children(s, key)
}

// Walk visits the tree rooted at root in document order.
func (s *EditorState) Walk(fn func(n node.Node, depth int) bool) {
	Walk(s, node.RootKey, fn)
}

// TextContent returns the plain text of the whole document. inline decides
// which elements are inline; nil treats every element as a block.
func (s *EditorState) TextContent(inline func(node.Node) bool) string {
	return TextContent(s, node.RootKey, inline)
}

// Children returns the child keys of key in l, following the sibling chain.
func Children(l selection.Lookup, key node.Key) []node.Key {
	n, ok := l.Get(key)
	if !ok {
		return nil
	}
	e, ok := node.AsElement(n)
	if !ok {
		return nil
	}
	out := make([]node.Key, 0, e.Size)
	for c := e.First; c != ""; {
		out = append(out, c)
		cn, ok := l.Get(c)
		if !ok {
			break
		}
		c = cn.Meta().Next
	}
	return out
}

// Walk visits key and its descendants in document order. Returning false
// from fn skips the children of the visited node.
func Walk(l selection.Lookup, key node.Key, fn func(n node.Node, depth int) bool) {
	var walk func(k node.Key, depth int)
	walk = func(k node.Key, depth int) {
		n, ok := l.Get(k)
		if !ok || !fn(n, depth) {
			return
		}
		for _, c := range Children(l, k) {
			walk(c, depth+1)
		}
	}
	walk(key, 0)
}

// TextContent returns the plain text of the subtree at key. Blocks are
// separated by a blank line and line breaks become newlines.
func TextContent(l selection.Lookup, key node.Key, inline func(node.Node) bool) string {
	var b strings.Builder
	writeText(&b, l, key, inline)
	return b.String()
}

func writeText(b *strings.Builder, l selection.Lookup, key node.Key, inline func(node.Node) bool) {
	n, ok := l.Get(key)
	if !ok {
		return
	}
	switch n.Kind() {
	case node.KindText:
		t, _ := node.AsText(n)
		b.WriteString(t.Content)
	case node.KindLineBreak:
		b.WriteByte('\n')
	case node.KindElement, node.KindRoot:
		kids := Children(l, key)
		for i, c := range kids {
			writeText(b, l, c, inline)
			cn, _ := l.Get(c)
			if i < len(kids)-1 && cn != nil && isBlock(cn, inline) {
				b.WriteString("\n\n")
			}
		}
	}
}

func isBlock(n node.Node, inline func(node.Node) bool) bool {
	if !node.IsContainer(n) && n.Kind() != node.KindDecorator {
		return false
	}
	if inline == nil {
		if d, ok := node.AsDecorator(n); ok {
			return !d.Inline
		}
		return true
	}
	return !inline(n)
}
