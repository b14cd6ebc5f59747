package engine

import (
	"sync"

	"golang.org/x/net/html"

	"github.com/dshills/inkwell/internal/engine/history"
	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/state"
	"github.com/dshills/inkwell/internal/engine/txn"
)

// Mutation classifies what happened to a node in one commit.
type Mutation uint8

const (
	MutationCreated Mutation = iota + 1
	MutationUpdated
	MutationDestroyed
)

// String returns "created", "updated" or "destroyed".
func (m Mutation) String() string {
	switch m {
	case MutationCreated:
		return "created"
	case MutationUpdated:
		return "updated"
	case MutationDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// UpdateListener is called after every commit. A listener that wants to
// change the document calls Update, which opens a new transaction committed
// after the current notification round.
type UpdateListener func(res *txn.Result)

// MutationListener receives the nodes of one type that were created,
// updated or destroyed by a commit.
type MutationListener func(mutations map[node.Key]Mutation, res *txn.Result)

// TextContentListener receives the document text after a commit changed it.
type TextContentListener func(text string)

// RootListener is called when the root element changes.
type RootListener func(root, prev *html.Node)

// EditableListener is called when the editable flag changes.
type EditableListener func(editable bool)

type subscriber[F any] struct {
	id uint64
	fn F
}

type mutationSubscriber struct {
	typ string
	fn  MutationListener
}

type listeners struct {
	mu     sync.Mutex
	nextID uint64

	update   []subscriber[UpdateListener]
	mutation []subscriber[mutationSubscriber]
	text     []subscriber[TextContentListener]
	root     []subscriber[RootListener]
	editable []subscriber[EditableListener]
}

// add appends fn to *list and returns the function that removes it.
func add[F any](l *listeners, list *[]subscriber[F], fn F) func() {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	*list = append(*list, subscriber[F]{id: id, fn: fn})
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			out := make([]subscriber[F], 0, len(*list))
			for _, s := range *list {
				if s.id != id {
					out = append(out, s)
				}
			}
			*list = out
		})
	}
}

// snapshot copies the functions in *list so they can be called unlocked.
func snapshot[F any](l *listeners, list *[]subscriber[F]) []F {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]F, len(*list))
	for i, s := range *list {
		out[i] = s.fn
	}
	return out
}

// RegisterUpdateListener adds fn and returns the function that removes it.
func (e *Editor) RegisterUpdateListener(fn UpdateListener) func() {
	return add(&e.listeners, &e.listeners.update, fn)
}

// RegisterMutationListener adds fn for nodes of type typ.
func (e *Editor) RegisterMutationListener(typ string, fn MutationListener) func() {
	return add(&e.listeners, &e.listeners.mutation, mutationSubscriber{typ: typ, fn: fn})
}

// RegisterTextContentListener adds fn.
func (e *Editor) RegisterTextContentListener(fn TextContentListener) func() {
	return add(&e.listeners, &e.listeners.text, fn)
}

// RegisterRootListener adds fn and calls it once with the current root.
func (e *Editor) RegisterRootListener(fn RootListener) func() {
	remove := add(&e.listeners, &e.listeners.root, fn)
	fn(e.rec.Root(), nil)
	return remove
}

// RegisterEditableListener adds fn.
func (e *Editor) RegisterEditableListener(fn EditableListener) func() {
	return add(&e.listeners, &e.listeners.editable, fn)
}

func (e *Editor) notifyUpdate(res *txn.Result) {
	l := &e.listeners

	for _, m := range snapshot(l, &l.mutation) {
		if muts := mutationsOf(res, m.typ); len(muts) > 0 {
			m.fn(muts, res)
		}
	}

	if text := snapshot(l, &l.text); len(text) > 0 {
		next := res.Next.TextContent(e.reg.IsInline)
		if res.Prev == nil || res.Prev.TextContent(e.reg.IsInline) != next {
			for _, fn := range text {
				fn(next)
			}
		}
	}

	for _, fn := range snapshot(l, &l.update) {
		fn(res)
	}
}

func (e *Editor) notifyRoot(root, prev *html.Node) {
	for _, fn := range snapshot(&e.listeners, &e.listeners.root) {
		fn(root, prev)
	}
}

func (e *Editor) notifyEditable(editable bool) {
	for _, fn := range snapshot(&e.listeners, &e.listeners.editable) {
		fn(editable)
	}
}

// mutationsOf collects the mutations of nodes of type typ.
func mutationsOf(res *txn.Result, typ string) map[node.Key]Mutation {
	var out map[node.Key]Mutation
	set := func(k node.Key, m Mutation) {
		if out == nil {
			out = make(map[node.Key]Mutation)
		}
		out[k] = m
	}
	for k, why := range res.Dirty {
		n, ok := res.Next.Get(k)
		if !ok || node.TypeOf(n) != typ {
			continue
		}
		if why == txn.DirtyCreated {
			set(k, MutationCreated)
		} else {
			set(k, MutationUpdated)
		}
	}
	if res.Prev == nil {
		return out
	}
	for _, k := range res.Removed {
		if n, ok := res.Prev.Get(k); ok && node.TypeOf(n) == typ {
			set(k, MutationDestroyed)
		}
	}
	return out
}

// ============================================================================
// Transforms
// ============================================================================

type transformEntry struct {
	id uint64
	fn txn.Transform
}

// transformSet is the txn.TransformSource of an editor.
type transformSet struct {
	mu     sync.Mutex
	nextID uint64
	byType map[string][]transformEntry
}

// Transforms returns the transforms registered for typ in registration
// order.
func (s *transformSet) Transforms(typ string) []txn.Transform {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.byType[typ]
	if len(entries) == 0 {
		return nil
	}
	out := make([]txn.Transform, len(entries))
	for i, t := range entries {
		out[i] = t.fn
	}
	return out
}

func (s *transformSet) add(typ string, fn txn.Transform) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.byType[typ] = append(s.byType[typ], transformEntry{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			entries := s.byType[typ]
			out := make([]transformEntry, 0, len(entries))
			for _, t := range entries {
				if t.id != id {
					out = append(out, t)
				}
			}
			if len(out) == 0 {
				delete(s.byType, typ)
			} else {
				s.byType[typ] = out
			}
		})
	}
}

// RegisterNodeTransform adds a transform for nodes of type typ and returns
// the function that removes it. Existing nodes of that type are marked
// dirty so the transform sees them on the next commit; that update carries
// the history-merge tag.
func (e *Editor) RegisterNodeTransform(typ string, fn txn.Transform) func() {
	remove := e.transforms.add(typ, fn)
	if keys := keysOfType(e.State(), typ); len(keys) > 0 {
		err := e.Update(func(tx *txn.Tx) error {
			for _, k := range keys {
				tx.Writable(k)
			}
			return nil
		}, Tag(history.TagMerge))
		if err != nil {
			e.log.WithField("type", typ).Error("transform registration: %v", err)
		}
	}
	return remove
}

func keysOfType(s *state.EditorState, typ string) []node.Key {
	var out []node.Key
	s.Walk(func(n node.Node, _ int) bool {
		if node.TypeOf(n) == typ {
			out = append(out, node.KeyOf(n))
		}
		return true
	})
	return out
}
