package node

import (
	"strconv"
	"sync/atomic"
)

// Key uniquely identifies a node within the process.
type Key string

// RootKey is the key of the root node of every state.
const RootKey Key = "root"

var keyCounter atomic.Uint64

// NewKey returns a fresh, process-unique node key.
func NewKey() Key {
	return Key(strconv.FormatUint(keyCounter.Add(1), 10))
}

// Kind is the structural variant of a node.
type Kind uint8

const (
	// KindText is a leaf holding a run of formatted text.
	KindText Kind = iota + 1

	// KindElement is a node with an ordered child chain.
	KindElement

	// KindRoot is the single element at the top of the tree.
	KindRoot

	// KindLineBreak is a leaf representing a soft line break.
	KindLineBreak

	// KindDecorator is a leaf rendered by the host instead of the reconciler.
	KindDecorator
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindElement:
		return "element"
	case KindRoot:
		return "root"
	case KindLineBreak:
		return "linebreak"
	case KindDecorator:
		return "decorator"
	default:
		return "unknown"
	}
}

// IsContainer reports whether nodes of this kind have children.
func (k Kind) IsContainer() bool {
	return k == KindElement || k == KindRoot
}

// Base holds the fields shared by every node variant.
type Base struct {
	// Key is the stable identity of the node.
	Key Key

	// Type is the registered type name, e.g. "paragraph" or "text".
	Type string

	// Parent is the key of the parent element, empty for the root and for
	// detached nodes.
	Parent Key

	// Prev and Next link siblings inside the parent's child chain.
	Prev Key
	Next Key
}

// Meta returns the base fields of the node.
func (b *Base) Meta() *Base {
	return b
}

// IsAttached reports whether the node currently has a parent.
// The root is always considered attached.
func (b *Base) IsAttached() bool {
	return b.Parent != "" || b.Key == RootKey
}

// Node is implemented by every node variant.
//
// Clone must return a copy with the same key. Only the node's own fields are
// copied; keys referencing other nodes are copied by value. Types that embed
// one of the variants in this package must override Clone so the copy keeps
// the embedding type.
type Node interface {
	Meta() *Base
	Kind() Kind
	Clone() Node
}

// KeyOf returns the key of n, or the empty key for nil.
func KeyOf(n Node) Key {
	if n == nil {
		return ""
	}
	return n.Meta().Key
}

// TypeOf returns the type name of n.
func TypeOf(n Node) string {
	if n == nil {
		return ""
	}
	return n.Meta().Type
}

// IsContainer reports whether n has a child chain.
func IsContainer(n Node) bool {
	return n != nil && n.Kind().IsContainer()
}

// AsElement returns the element fields of a container node.
func AsElement(n Node) (*Element, bool) {
	if e, ok := n.(interface{ ElementNode() *Element }); ok {
		return e.ElementNode(), true
	}
	return nil, false
}

// AsText returns the text fields of a text node.
func AsText(n Node) (*Text, bool) {
	if t, ok := n.(interface{ TextNode() *Text }); ok {
		return t.TextNode(), true
	}
	return nil, false
}

// AsDecorator returns the decorator fields of a decorator node.
func AsDecorator(n Node) (*Decorator, bool) {
	if d, ok := n.(interface{ DecoratorNode() *Decorator }); ok {
		return d.DecoratorNode(), true
	}
	return nil, false
}
