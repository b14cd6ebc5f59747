package history

import (
	"errors"
	"sync"
	"time"

	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/state"
	"github.com/dshills/inkwell/internal/engine/txn"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Update tags understood by History.
const (
	TagHistoric = "historic"
	TagMerge    = "history-merge"
	TagPush     = "history-push"

	// TagCollaboration marks commits applied on behalf of a remote peer.
	// They move the current state without opening an undo entry.
	TagCollaboration = "collaboration"
)

// Defaults used when NewHistory is given zero values.
const (
	DefaultMaxEntries = 1000
	DefaultMergeDelay = time.Second
)

type changeKind uint8

const (
	changeOther changeKind = iota
	changeSelection
	changeInsert
	changeDelete
)

// undoEntry wraps a state with metadata.
type undoEntry struct {
	state     *state.EditorState
	name      string
	timestamp time.Time
}

// Info describes an undo or redo entry.
type Info struct {
	Name      string
	Revision  uint64
	Timestamp time.Time
}

// History manages undo/redo stacks of editor states.
type History struct {
	mu sync.Mutex

	current   *state.EditorState
	undoStack []*undoEntry
	redoStack []*undoEntry

	// Merge state of the last recorded change.
	lastKind changeKind
	lastKey  node.Key
	lastTime time.Time

	// Grouping state
	grouping  bool
	groupName string
	groupOpen bool

	// Configuration
	maxEntries int
	mergeDelay time.Duration
	now        func() time.Time
	onChange   func(canUndo, canRedo bool)
}

// NewHistory creates a new history manager.
func NewHistory(maxEntries int, mergeDelay time.Duration) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if mergeDelay < 0 {
		mergeDelay = DefaultMergeDelay
	}
	return &History{
		maxEntries: maxEntries,
		mergeDelay: mergeDelay,
		now:        time.Now,
	}
}

// SetClock replaces the time source used for merge decisions.
func (h *History) SetClock(now func() time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now = now
}

// OnChange registers fn to be called when CanUndo or CanRedo changes.
func (h *History) OnChange(fn func(canUndo, canRedo bool)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = fn
}

// Reset forgets all entries and starts over from s.
func (h *History) Reset(s *state.EditorState) {
	h.mu.Lock()
	before := h.availLocked()
	h.current = s
	h.undoStack = nil
	h.redoStack = nil
	h.lastKind = changeOther
	h.grouping = false
	h.mu.Unlock()
	h.notify(before)
}

// Current returns the state the history considers current.
func (h *History) Current() *state.EditorState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Record observes a committed update.
func (h *History) Record(res *txn.Result) {
	h.mu.Lock()
	before := h.availLocked()
	h.recordLocked(res)
	h.mu.Unlock()
	h.notify(before)
}

func (h *History) recordLocked(res *txn.Result) {
	now := h.now()
	if h.current == nil {
		h.current = res.Next
		return
	}
	if res.HasTag(TagHistoric) || res.HasTag(TagCollaboration) {
		h.current = res.Next
		h.lastKind = changeOther
		return
	}

	kind, key := classify(res)
	switch {
	case kind == changeSelection:
		h.current = res.Next
		h.lastKind = changeOther
		return
	case h.grouping && h.groupOpen:
		h.mergeLocked(res.Next)
	case h.grouping:
		h.pushLocked(res.Next, h.groupName, now)
		h.groupOpen = true
	case res.HasTag(TagPush):
		h.pushLocked(res.Next, "", now)
	case res.HasTag(TagMerge):
		h.mergeLocked(res.Next)
	case kind != changeOther && kind == h.lastKind && key == h.lastKey &&
		now.Sub(h.lastTime) < h.mergeDelay && len(h.undoStack) > 0:
		h.mergeLocked(res.Next)
	default:
		h.pushLocked(res.Next, kind.String(), now)
	}
	h.lastKind, h.lastKey, h.lastTime = kind, key, now
}

// pushLocked saves the current state as an undo entry and moves on to next.
func (h *History) pushLocked(next *state.EditorState, name string, now time.Time) {
	h.undoStack = append(h.undoStack, &undoEntry{
		state:     h.current,
		name:      name,
		timestamp: now,
	})
	h.current = next

	// Clear redo stack
	h.redoStack = nil

	// Enforce max entries
	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		h.undoStack = h.undoStack[excess:]
	}
}

func (h *History) mergeLocked(next *state.EditorState) {
	h.current = next
	h.redoStack = nil
}

func (k changeKind) String() string {
	switch k {
	case changeInsert:
		return "insert"
	case changeDelete:
		return "delete"
	default:
		return "edit"
	}
}

// classify finds typing: a single existing text node that grew or shrank.
func classify(res *txn.Result) (changeKind, node.Key) {
	if len(res.Dirty) == 0 && len(res.Removed) == 0 {
		return changeSelection, ""
	}
	if len(res.Dirty) != 1 || len(res.Removed) != 0 {
		return changeOther, ""
	}
	for k, why := range res.Dirty {
		if why != txn.DirtyUpdated || res.Prev == nil {
			return changeOther, ""
		}
		pn, ok := res.Prev.Get(k)
		if !ok {
			return changeOther, ""
		}
		prev, ok1 := node.AsText(pn)
		next, ok2 := node.AsText(res.Next.Latest(k))
		if !ok1 || !ok2 {
			return changeOther, ""
		}
		switch {
		case next.Len() > prev.Len():
			return changeInsert, k
		case next.Len() < prev.Len():
			return changeDelete, k
		}
	}
	return changeOther, ""
}

// Undo steps back one entry and returns the state to restore.
func (h *History) Undo() (*state.EditorState, error) {
	h.mu.Lock()
	before := h.availLocked()
	if len(h.undoStack) == 0 {
		h.mu.Unlock()
		return nil, ErrNothingToUndo
	}

	entry := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, &undoEntry{
		state:     h.current,
		name:      entry.name,
		timestamp: h.now(),
	})
	h.current = entry.state
	h.lastKind = changeOther
	h.mu.Unlock()

	h.notify(before)
	return entry.state, nil
}

// Redo re-applies the last undone entry and returns the state to restore.
func (h *History) Redo() (*state.EditorState, error) {
	h.mu.Lock()
	before := h.availLocked()
	if len(h.redoStack) == 0 {
		h.mu.Unlock()
		return nil, ErrNothingToRedo
	}

	entry := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, &undoEntry{
		state:     h.current,
		name:      entry.name,
		timestamp: h.now(),
	})
	h.current = entry.state
	h.lastKind = changeOther
	h.mu.Unlock()

	h.notify(before)
	return entry.state, nil
}

type avail struct {
	undo, redo bool
}

func (h *History) availLocked() avail {
	return avail{undo: len(h.undoStack) > 0, redo: len(h.redoStack) > 0}
}

// notify calls the change callback when availability differs from before.
func (h *History) notify(before avail) {
	h.mu.Lock()
	after := h.availLocked()
	fn := h.onChange
	h.mu.Unlock()
	if fn != nil && after != before {
		fn(after.undo, after.redo)
	}
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoCount returns the number of undo operations available.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoCount returns the number of redo operations available.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// BeginGroup starts a group. Commits recorded while grouping form a single
// undo unit.
func (h *History) BeginGroup(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.grouping {
		// Already grouping, ignore nested calls
		return
	}

	h.grouping = true
	h.groupName = name
	h.groupOpen = false
}

// EndGroup finishes a group.
func (h *History) EndGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.grouping = false
	h.groupOpen = false
	h.lastKind = changeOther
}

// IsGrouping returns true if currently in a group.
func (h *History) IsGrouping() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.grouping
}

// Clear removes all undo/redo history. The current state is kept.
func (h *History) Clear() {
	h.mu.Lock()
	before := h.availLocked()
	h.undoStack = nil
	h.redoStack = nil
	h.grouping = false
	h.groupOpen = false
	h.lastKind = changeOther
	h.mu.Unlock()
	h.notify(before)
}

// PeekUndo returns info about the next undo operation without removing it.
func (h *History) PeekUndo() (Info, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undoStack) == 0 {
		return Info{}, false
	}
	return h.undoStack[len(h.undoStack)-1].info(), true
}

// PeekRedo returns info about the next redo operation without removing it.
func (h *History) PeekRedo() (Info, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redoStack) == 0 {
		return Info{}, false
	}
	return h.redoStack[len(h.redoStack)-1].info(), true
}

func (e *undoEntry) info() Info {
	return Info{Name: e.name, Revision: e.state.Revision(), Timestamp: e.timestamp}
}

// SetMaxEntries changes the maximum number of undo entries.
// If the current stack is larger, oldest entries are removed.
func (h *History) SetMaxEntries(max int) {
	if max <= 0 {
		max = DefaultMaxEntries
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.maxEntries = max

	if len(h.undoStack) > max {
		excess := len(h.undoStack) - max
		h.undoStack = h.undoStack[excess:]
	}
}

// MaxEntries returns the maximum number of undo entries.
func (h *History) MaxEntries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxEntries
}
