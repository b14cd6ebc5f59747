package reconciler

import (
	"errors"
	"fmt"

	"golang.org/x/net/html"

	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/state"
	"github.com/dshills/inkwell/internal/engine/txn"
)

// ErrNoDOM indicates a CreateDOM hook that returned nil.
var ErrNoDOM = errors.New("reconciler: CreateDOM returned nil")

// Error wraps a failure raised while patching the DOM of a node.
type Error struct {
	Key node.Key
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("reconciler: node %s: %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Stats counts the DOM operations applied by one Reconcile call.
type Stats struct {
	Creates  int
	Destroys int
	Moves    int
	Replaces int
	Writes   int
}

// Ops returns the total number of DOM operations.
func (s Stats) Ops() int {
	return s.Creates + s.Destroys + s.Moves + s.Replaces + s.Writes
}

// DecoratorHost renders the content of decorator nodes.
type DecoratorHost interface {
	// Mount is called once the container of a new decorator exists.
	Mount(key node.Key, d *node.Decorator, container *html.Node)

	// Move is called when the container was moved to another position.
	Move(key node.Key, container *html.Node)

	// Unmount is called when the decorator is destroyed.
	Unmount(key node.Key)
}

// Reconciler maps node keys to DOM nodes under a single root element.
// It is not safe for concurrent use.
type Reconciler struct {
	reg   *node.Registry
	theme *node.Theme
	host  DecoratorHost

	root    *html.Node
	doms    map[node.Key]*html.Node
	keys    map[*html.Node]node.Key
	mounted map[node.Key]bool

	// rendered is the state the DOM currently reflects.
	rendered *state.EditorState
	fullSync bool
	domSel   *DOMSelection

	// Per-pass fields.
	prev  *state.EditorState
	next  *state.EditorState
	visit map[node.Key]bool
	w     node.DOMWriter
	stats Stats
	at    node.Key
}

// New returns a reconciler without a root element. Theme and host may be nil.
func New(reg *node.Registry, theme *node.Theme, host DecoratorHost) *Reconciler {
	return &Reconciler{
		reg:     reg,
		theme:   theme,
		host:    host,
		doms:    make(map[node.Key]*html.Node),
		keys:    make(map[*html.Node]node.Key),
		mounted: make(map[node.Key]bool),
	}
}

// Root returns the root element, or nil when detached.
func (r *Reconciler) Root() *html.Node {
	return r.root
}

// SetRoot attaches the reconciler to el. Passing nil detaches it. Every
// mounted decorator is unmounted and the next Reconcile renders the whole
// tree into el, replacing its children.
func (r *Reconciler) SetRoot(el *html.Node) {
	if el == r.root {
		return
	}
	r.unmountAll()
	r.root = el
	r.doms = make(map[node.Key]*html.Node)
	r.keys = make(map[*html.Node]node.Key)
	r.rendered = nil
	r.domSel = nil
	r.fullSync = true
}

// Rendered returns the state the DOM currently reflects.
func (r *Reconciler) Rendered() *state.EditorState {
	return r.rendered
}

// DOM returns the DOM node rendered for key.
func (r *Reconciler) DOM(key node.Key) (*html.Node, bool) {
	d, ok := r.doms[key]
	return d, ok
}

// KeyOf returns the key of the node rendered as d.
func (r *Reconciler) KeyOf(d *html.Node) (node.Key, bool) {
	k, ok := r.keys[d]
	return k, ok
}

// Reconcile brings the DOM up to date with next. Dirty holds the keys
// written since the last call; nil means every node is compared. Without a
// root element Reconcile does nothing.
func (r *Reconciler) Reconcile(next *state.EditorState, dirty map[node.Key]txn.DirtyReason) (stats Stats, err error) {
	if r.root == nil || next == nil {
		return Stats{}, nil
	}
	if next == r.rendered && !r.fullSync {
		return Stats{}, nil
	}

	r.prev, r.next = r.rendered, next
	r.stats = Stats{}
	r.w = node.DOMWriter{}
	defer func() {
		if v := recover(); v != nil {
			err = &Error{Key: r.at, Err: asError(v)}
			r.fullSync = true
			r.rendered = nil
		}
		r.stats.Writes += r.w.Writes()
		stats = r.stats
		r.prev, r.next, r.visit = nil, nil, nil
	}()

	if r.fullSync || r.prev == nil {
		r.resync()
	} else {
		r.collect(dirty)
		r.reconcile(node.RootKey)
	}
	r.rendered = next
	r.fullSync = false
	return r.stats, nil
}

func asError(v any) error {
	if e, ok := v.(error); ok {
		return e
	}
	return fmt.Errorf("%v", v)
}

// collect marks the dirty keys and their ancestors for visiting.
func (r *Reconciler) collect(dirty map[node.Key]txn.DirtyReason) {
	r.visit = make(map[node.Key]bool)
	if dirty == nil {
		for _, k := range r.next.Keys() {
			r.visit[k] = true
		}
		return
	}
	r.visit[node.RootKey] = true
	for k := range dirty {
		for cur := k; cur != "" && !r.visit[cur]; {
			n, ok := r.next.Get(cur)
			if !ok {
				break
			}
			r.visit[cur] = true
			cur = n.Meta().Parent
		}
	}
}

// resync discards the DOM below the root and renders next from scratch.
func (r *Reconciler) resync() {
	r.unmountAll()
	for c := r.root.FirstChild; c != nil; {
		nx := c.NextSibling
		r.root.RemoveChild(c)
		c = nx
	}
	r.doms = map[node.Key]*html.Node{node.RootKey: r.root}
	r.keys = map[*html.Node]node.Key{r.root: node.RootKey}
	r.prev = nil
	for _, c := range r.next.Children(node.RootKey) {
		r.root.AppendChild(r.create(c))
	}
}

func (r *Reconciler) unmountAll() {
	for k := range r.mounted {
		if r.host != nil {
			r.host.Unmount(k)
		}
		delete(r.mounted, k)
	}
}

func (r *Reconciler) bind(key node.Key, d *html.Node) {
	if old, ok := r.doms[key]; ok {
		delete(r.keys, old)
	}
	r.doms[key] = d
	r.keys[d] = key
}

func (r *Reconciler) unbind(key node.Key) {
	if d, ok := r.doms[key]; ok {
		delete(r.keys, d)
		delete(r.doms, key)
		r.stats.Destroys++
	}
	if r.mounted[key] {
		delete(r.mounted, key)
		if r.host != nil {
			r.host.Unmount(key)
		}
	}
}

// create returns the DOM for key. A node that already has DOM, because it
// moved here from another position, keeps it and is patched in place.
func (r *Reconciler) create(key node.Key) *html.Node {
	if d, ok := r.doms[key]; ok && r.prev != nil && r.prev.Has(key) {
		if d.Parent != nil {
			d.Parent.RemoveChild(d)
		}
		r.stats.Moves++
		d = r.reconcile(key)
		if r.mounted[key] && r.host != nil {
			r.host.Move(key, d)
		}
		return d
	}

	r.at = key
	n := r.next.Latest(key)
	k := r.reg.MustLookup(n.Meta().Type)
	d := k.CreateDOM(n, r.theme)
	if d == nil {
		panic(fmt.Errorf("%w: %q", ErrNoDOM, n.Meta().Type))
	}
	r.bind(key, d)
	r.stats.Creates++

	if node.IsContainer(n) {
		for _, c := range r.next.Children(key) {
			d.AppendChild(r.create(c))
		}
		var silent node.DOMWriter
		r.syncDir(key, n, d, &silent)
	}
	if dec, ok := node.AsDecorator(n); ok {
		r.mounted[key] = true
		if r.host != nil {
			r.host.Mount(key, dec, d)
		}
	}
	return d
}

// reconcile patches the DOM of a node that is already rendered.
func (r *Reconciler) reconcile(key node.Key) *html.Node {
	d, ok := r.doms[key]
	if !ok {
		return r.create(key)
	}
	if !r.visit[key] {
		return d
	}
	r.at = key
	next := r.next.Latest(key)
	if key != node.RootKey {
		prev, ok := r.prev.Get(key)
		if !ok || prev.Meta().Type != next.Meta().Type {
			return r.replace(key, d)
		}
		if prev != next {
			k := r.reg.MustLookup(next.Meta().Type)
			if k.UpdateDOM(prev, next, d, r.theme, &r.w) {
				return r.replace(key, d)
			}
		}
	}
	if node.IsContainer(next) {
		r.reconcileChildren(key, d)
		r.syncDir(key, next, d, &r.w)
	}
	return d
}

// replace renders key from scratch and swaps it in for old.
func (r *Reconciler) replace(key node.Key, old *html.Node) *html.Node {
	r.release(key)
	d := r.create(key)
	if p := old.Parent; p != nil {
		p.InsertBefore(d, old)
		p.RemoveChild(old)
	}
	r.stats.Replaces++
	return d
}

// release unbinds key and its previous subtree. Descendants that now live
// under a different parent keep their DOM so the new parent can reuse it.
func (r *Reconciler) release(key node.Key) {
	if n, ok := r.prev.Get(key); ok && node.IsContainer(n) {
		for _, c := range r.prev.Children(key) {
			if m, ok := r.next.Get(c); ok && m.Meta().Parent != key {
				continue
			}
			r.release(c)
		}
	}
	r.unbind(key)
}
