// Package command implements the editor's prioritized command bus.
//
// A command is a named descriptor carrying its payload type. Handlers are
// registered per command at one of five priority tiers; Dispatch walks the
// tiers from critical down to editor and stops at the first handler that
// reports the command as handled. Handlers within a tier run in
// registration order.
package command

import (
	"fmt"
	"sort"
	"sync"
)

// Priority is a handler tier. Higher values run first.
type Priority int

const (
	// PriorityEditor is for the editor's built-in default behaviour.
	PriorityEditor Priority = iota
	PriorityLow
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// String returns a human-readable priority name.
func (p Priority) String() string {
	switch p {
	case PriorityEditor:
		return "editor"
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// ParsePriority parses a priority name. Unknown names map to normal.
func ParsePriority(s string) Priority {
	for p := PriorityEditor; p <= PriorityCritical; p++ {
		if p.String() == s {
			return p
		}
	}
	return PriorityNormal
}

// Command is a command descriptor whose payload has type P.
type Command[P any] struct {
	name string
}

// New returns a command descriptor.
func New[P any](name string) Command[P] {
	return Command[P]{name: name}
}

// Name returns the command name.
func (c Command[P]) Name() string {
	return c.name
}

func (c Command[P]) String() string {
	return c.name
}

// Handler handles a command dispatched with context C. It returns true when
// the command was fully handled.
type Handler[C, P any] func(ctx C, payload P) bool

type entry[C any] struct {
	id       uint64
	priority Priority
	fn       func(ctx C, payload any) bool
}

// Bus routes commands to handlers. Handlers may register and unregister
// other handlers while a dispatch is running; the change applies to the
// next dispatch.
type Bus[C any] struct {
	mu       sync.RWMutex
	handlers map[string][]*entry[C]
	nextID   uint64
}

// NewBus returns an empty bus.
func NewBus[C any]() *Bus[C] {
	return &Bus[C]{handlers: make(map[string][]*entry[C])}
}

// Register adds a handler for cmd and returns a function that removes it.
func Register[C, P any](b *Bus[C], cmd Command[P], p Priority, h Handler[C, P]) func() {
	return b.RegisterName(cmd.name, p, func(ctx C, payload any) bool {
		v, ok := payload.(P)
		if !ok && payload != nil {
			return false
		}
		return h(ctx, v)
	})
}

// RegisterName adds an untyped handler for the command called name.
func (b *Bus[C]) RegisterName(name string, p Priority, fn func(ctx C, payload any) bool) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	e := &entry[C]{id: b.nextID, priority: p, fn: fn}
	old := b.handlers[name]
	hs := make([]*entry[C], 0, len(old)+1)
	hs = append(append(hs, old...), e)

	// Sort by priority (descending), registration order within a tier.
	sort.SliceStable(hs, func(i, j int) bool {
		return hs[i].priority > hs[j].priority
	})
	b.handlers[name] = hs

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(name, e.id) })
	}
}

func (b *Bus[C]) remove(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	hs := b.handlers[name]
	for i, e := range hs {
		if e.id == id {
			out := make([]*entry[C], 0, len(hs)-1)
			out = append(out, hs[:i]...)
			b.handlers[name] = append(out, hs[i+1:]...)
			break
		}
	}
	if len(b.handlers[name]) == 0 {
		delete(b.handlers, name)
	}
}

// Dispatch sends payload to the handlers of cmd and reports whether one of
// them handled it.
func Dispatch[C, P any](b *Bus[C], ctx C, cmd Command[P], payload P) bool {
	return b.DispatchName(ctx, cmd.name, payload)
}

// DispatchName dispatches by command name with an untyped payload. Typed
// handlers skip payloads of the wrong type.
func (b *Bus[C]) DispatchName(ctx C, name string, payload any) bool {
	b.mu.RLock()
	hs := b.handlers[name]
	b.mu.RUnlock()

	for _, e := range hs {
		if e.fn(ctx, payload) {
			return true
		}
	}
	return false
}

// Has reports whether any handler is registered for name.
func (b *Bus[C]) Has(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name]) > 0
}

// Count returns the number of handlers registered for name.
func (b *Bus[C]) Count(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}

// Names returns the commands with at least one handler, sorted.
func (b *Bus[C]) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.handlers))
	for n := range b.handlers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
