package handlers

import (
	"errors"

	"github.com/dshills/inkwell/internal/engine"
	"github.com/dshills/inkwell/internal/engine/command"
	"github.com/dshills/inkwell/internal/engine/history"
)

// RegisterHistory wires UNDO and REDO to the editor's history. It returns
// a no-op when the editor has no history.
func RegisterHistory(e *engine.Editor) func() {
	h := e.History()
	if h == nil {
		return func() {}
	}
	h.OnChange(func(canUndo, canRedo bool) {
		engine.DispatchCommand(e, command.CanUndo, canUndo)
		engine.DispatchCommand(e, command.CanRedo, canRedo)
	})

	p := command.PriorityEditor
	removers := []func(){
		engine.RegisterCommand(e, command.Undo, p, editing(func(e *engine.Editor, _ command.Empty) bool {
			return historyStep(e, e.Undo, history.ErrNothingToUndo)
		})),
		engine.RegisterCommand(e, command.Redo, p, editing(func(e *engine.Editor, _ command.Empty) bool {
			return historyStep(e, e.Redo, history.ErrNothingToRedo)
		})),
	}
	return func() {
		h.OnChange(nil)
		combine(removers)()
	}
}

// historyStep runs step; an empty stack leaves the command unhandled.
func historyStep(e *engine.Editor, step func() error, empty error) bool {
	err := step()
	switch {
	case err == nil:
		return true
	case errors.Is(err, empty):
		return false
	default:
		e.Logger().Warn("history: %v", err)
		return false
	}
}
