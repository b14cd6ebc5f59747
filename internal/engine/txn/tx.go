package txn

import (
	"fmt"
	"sort"

	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/selection"
	"github.com/dshills/inkwell/internal/engine/state"
)

// DirtyReason records why a key is in the dirty set.
type DirtyReason uint8

const (
	// DirtyUpdated marks an existing node cloned for writing.
	DirtyUpdated DirtyReason = iota + 1

	// DirtyCreated marks a node created in this transaction.
	DirtyCreated
)

// String returns "updated" or "created".
func (r DirtyReason) String() string {
	if r == DirtyCreated {
		return "created"
	}
	return "updated"
}

// Transform is run against a dirty node of the type it was registered for.
// It may change the tree; any node it writes is transformed again.
type Transform func(tx *Tx, key node.Key) error

// TransformSource supplies the transforms registered for a node type.
type TransformSource interface {
	Transforms(typ string) []Transform
}

// Config configures a transaction.
type Config struct {
	// Registry resolves node types. Defaults to node.NewRegistry().
	Registry *node.Registry

	// Transforms is consulted during commit. May be nil.
	Transforms TransformSource
}

type location struct {
	parent node.Key
	index  int
}

// Tx is an open update transaction.
type Tx struct {
	prev       *state.EditorState
	reg        *node.Registry
	transforms TransformSource

	own       map[node.Key]node.Node
	dirty     map[node.Key]DirtyReason
	pending   map[node.Key]struct{}
	removedAt map[node.Key]location
	sel       selection.Selection
	tags      map[string]struct{}

	skipTransforms bool
	closed         bool
}

// Begin opens a transaction on top of prev.
func Begin(prev *state.EditorState, cfg Config) *Tx {
	if cfg.Registry == nil {
		cfg.Registry = node.NewRegistry()
	}
	return &Tx{
		prev:       prev,
		reg:        cfg.Registry,
		transforms: cfg.Transforms,
		own:        make(map[node.Key]node.Node),
		dirty:      make(map[node.Key]DirtyReason),
		pending:    make(map[node.Key]struct{}),
		removedAt:  make(map[node.Key]location),
		sel:        prev.Selection(),
		tags:       make(map[string]struct{}),
	}
}

// ============================================================================
// Access
// ============================================================================

// Prev returns the committed state the transaction started from.
func (tx *Tx) Prev() *state.EditorState {
	return tx.prev
}

// Registry returns the node type registry.
func (tx *Tx) Registry() *node.Registry {
	return tx.reg
}

// Closed reports whether the transaction was committed or discarded.
func (tx *Tx) Closed() bool {
	return tx.closed
}

// Discard closes the transaction without committing.
func (tx *Tx) Discard() {
	tx.closed = true
}

// Get resolves key against the working copy, then the base state. It
// panics once the transaction is closed.
func (tx *Tx) Get(key node.Key) (node.Node, bool) {
	if tx.closed {
		panic(invariant("get", key, ErrTxClosed))
	}
	if n, ok := tx.own[key]; ok {
		return n, true
	}
	return tx.prev.Get(key)
}

// Latest returns the current version of key. The returned node must not be
// modified; use Writable for that. It panics when key is stale.
func (tx *Tx) Latest(key node.Key) node.Node {
	n, ok := tx.Get(key)
	if !ok {
		panic(invariant("latest", key, ErrStaleKey))
	}
	return n
}

// Writable returns the mutable working copy of key, cloning it on first
// use. Every call marks the node dirty.
func (tx *Tx) Writable(key node.Key) node.Node {
	tx.mustBeOpen("writable", key)
	if n, ok := tx.own[key]; ok {
		tx.markDirty(key, DirtyUpdated)
		return n
	}
	n, ok := tx.prev.Get(key)
	if !ok {
		panic(invariant("writable", key, ErrStaleKey))
	}
	c := n.Clone()
	if node.KeyOf(c) != key {
		panic(invariant("writable", key, fmt.Errorf("%w: Clone of %q must keep the key", node.ErrInvalidKlass, node.TypeOf(n))))
	}
	tx.own[key] = c
	tx.markDirty(key, DirtyUpdated)
	return c
}

// Text returns the latest version of a text node.
func (tx *Tx) Text(key node.Key) *node.Text {
	t, ok := node.AsText(tx.Latest(key))
	if !ok {
		panic(invariant("text", key, node.ErrKindMismatch))
	}
	return t
}

// Element returns the latest version of an element or the root.
func (tx *Tx) Element(key node.Key) *node.Element {
	e, ok := node.AsElement(tx.Latest(key))
	if !ok {
		panic(invariant("element", key, node.ErrKindMismatch))
	}
	return e
}

// WritableText returns the mutable copy of a text node.
func (tx *Tx) WritableText(key node.Key) *node.Text {
	t, ok := node.AsText(tx.Writable(key))
	if !ok {
		panic(invariant("writable text", key, node.ErrKindMismatch))
	}
	return t
}

// WritableElement returns the mutable copy of an element or the root.
func (tx *Tx) WritableElement(key node.Key) *node.Element {
	e, ok := node.AsElement(tx.Writable(key))
	if !ok {
		panic(invariant("writable element", key, node.ErrKindMismatch))
	}
	return e
}

// IsDirty reports whether key was written or created.
func (tx *Tx) IsDirty(key node.Key) bool {
	_, ok := tx.dirty[key]
	return ok
}

// Dirty returns a copy of the dirty set.
func (tx *Tx) Dirty() map[node.Key]DirtyReason {
	out := make(map[node.Key]DirtyReason, len(tx.dirty))
	for k, v := range tx.dirty {
		out[k] = v
	}
	return out
}

// IsInline reports whether n flows inside a block.
func (tx *Tx) IsInline(n node.Node) bool {
	return tx.reg.IsInline(n)
}

// TextContent returns the plain text of the subtree at key.
func (tx *Tx) TextContent(key node.Key) string {
	return state.TextContent(tx, key, tx.reg.IsInline)
}

func (tx *Tx) mustBeOpen(op string, key node.Key) {
	if tx.closed {
		panic(invariant(op, key, ErrMutationOutsideUpdate))
	}
}

func (tx *Tx) markDirty(key node.Key, reason DirtyReason) {
	if tx.dirty[key] != DirtyCreated {
		tx.dirty[key] = reason
	}
	tx.pending[key] = struct{}{}
}

// ============================================================================
// Tags and flags
// ============================================================================

// Tag labels the resulting state, e.g. for history merging.
func (tx *Tx) Tag(tags ...string) {
	for _, t := range tags {
		tx.tags[t] = struct{}{}
	}
}

// HasTag reports whether tag was set.
func (tx *Tx) HasTag(tag string) bool {
	_, ok := tx.tags[tag]
	return ok
}

// Tags returns the tags in sorted order.
func (tx *Tx) Tags() []string {
	out := make([]string, 0, len(tx.tags))
	for t := range tx.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// SkipTransforms disables node transforms for this transaction.
func (tx *Tx) SkipTransforms() {
	tx.skipTransforms = true
}

// ============================================================================
// Factories
// ============================================================================

// Create instantiates a registered node type. The node starts detached.
func (tx *Tx) Create(typ string) node.Node {
	tx.mustBeOpen("create", "")
	k, ok := tx.reg.Lookup(typ)
	if !ok {
		panic(invariant("create", "", fmt.Errorf("%w: %q", node.ErrUnknownType, typ)))
	}
	n := k.New()
	n.Meta().Type = typ
	return tx.adopt(n)
}

// Adopt registers a node built by the caller, assigning it a key. Its type
// must be registered.
func (tx *Tx) Adopt(n node.Node) node.Key {
	tx.mustBeOpen("adopt", node.KeyOf(n))
	if !tx.reg.Has(node.TypeOf(n)) {
		panic(invariant("adopt", node.KeyOf(n), fmt.Errorf("%w: %q", node.ErrUnknownType, node.TypeOf(n))))
	}
	return node.KeyOf(tx.adopt(n))
}

func (tx *Tx) adopt(n node.Node) node.Node {
	b := n.Meta()
	if b.Key == "" || b.Key == node.RootKey {
		b.Key = node.NewKey()
	}
	if _, ok := tx.Get(b.Key); ok {
		panic(invariant("create", b.Key, fmt.Errorf("%w: key already in use", ErrInvalidOperation)))
	}
	b.Parent, b.Prev, b.Next = "", "", ""
	tx.own[b.Key] = n
	tx.markDirty(b.Key, DirtyCreated)
	return n
}

// NewText creates a detached text node.
func (tx *Tx) NewText(content string) *node.Text {
	t, _ := node.AsText(tx.Create(node.TypeText))
	t.Content = content
	return t
}

// NewParagraph creates a detached paragraph.
func (tx *Tx) NewParagraph() *node.Element {
	return tx.NewElement(node.TypeParagraph)
}

// NewElement creates a detached element of a registered element type.
func (tx *Tx) NewElement(typ string) *node.Element {
	n := tx.Create(typ)
	e, ok := node.AsElement(n)
	if !ok || n.Kind() != node.KindElement {
		panic(invariant("create", n.Meta().Key, fmt.Errorf("%w: %q is not an element type", node.ErrKindMismatch, typ)))
	}
	return e
}

// NewLineBreak creates a detached line break.
func (tx *Tx) NewLineBreak() *node.LineBreak {
	return tx.Create(node.TypeLineBreak).(*node.LineBreak)
}

// NewDecorator creates a detached decorator of a registered decorator type.
func (tx *Tx) NewDecorator(typ string, payload any) *node.Decorator {
	n := tx.Create(typ)
	d, ok := node.AsDecorator(n)
	if !ok {
		panic(invariant("create", n.Meta().Key, fmt.Errorf("%w: %q is not a decorator type", node.ErrKindMismatch, typ)))
	}
	d.Payload = payload
	return d
}
