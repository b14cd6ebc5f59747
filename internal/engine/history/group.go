package history

import "github.com/dshills/inkwell/internal/engine/state"

// GroupScope provides a convenient way to group commits using defer.
// Usage:
//
//	func paste(ed *engine.Editor, h *History) {
//	    defer h.GroupScope("Paste").End()
//	    // ... multiple updates ...
//	}
type GroupScope struct {
	history *History
	active  bool
}

// GroupScope starts a new group scope.
func (h *History) GroupScope(name string) *GroupScope {
	h.BeginGroup(name)
	return &GroupScope{
		history: h,
		active:  true,
	}
}

// End ends the group scope.
// Safe to call multiple times; only the first call has effect.
func (g *GroupScope) End() {
	if g.active {
		g.history.EndGroup()
		g.active = false
	}
}

// Checkpoint represents a point in history that can be returned to.
type Checkpoint struct {
	undoDepth int
}

// CreateCheckpoint creates a checkpoint at the current history position.
func (h *History) CreateCheckpoint() Checkpoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Checkpoint{undoDepth: len(h.undoStack)}
}

// UndoToCheckpoint steps back to the checkpoint and returns the state to
// restore, or nil when the history is already there.
func (h *History) UndoToCheckpoint(cp Checkpoint) (*state.EditorState, error) {
	var s *state.EditorState
	for h.UndoCount() > cp.undoDepth {
		var err error
		if s, err = h.Undo(); err != nil {
			return nil, err
		}
	}
	return s, nil
}
