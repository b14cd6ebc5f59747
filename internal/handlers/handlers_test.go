package handlers

import (
	"testing"

	"github.com/dshills/inkwell/internal/engine"
	"github.com/dshills/inkwell/internal/engine/command"
	"github.com/dshills/inkwell/internal/engine/history"
	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/state"
)

func newEditor(t *testing.T, opts ...engine.Option) *engine.Editor {
	t.Helper()
	ed := engine.New(opts...)
	t.Cleanup(RegisterEditing(ed))
	t.Cleanup(RegisterHistory(ed))
	return ed
}

func typeText(t *testing.T, ed *engine.Editor, s string) {
	t.Helper()
	if !engine.DispatchCommand(ed, command.InsertText, s) {
		t.Fatalf("insert %q was not handled", s)
	}
}

func expectText(t *testing.T, ed *engine.Editor, want string) {
	t.Helper()
	if got := ed.TextContent(); got != want {
		t.Errorf("TextContent = %q, want %q", got, want)
	}
}

func blocks(ed *engine.Editor) int {
	return len(ed.State().Children(node.RootKey))
}

func TestInsertAndDelete(t *testing.T) {
	tests := []struct {
		name    string
		cmd     command.Command[bool]
		payload bool
		want    string
	}{
		{"character backward", command.DeleteCharacter, true, "Hello wor"},
		{"character forward at end", command.DeleteCharacter, false, "Hello world"},
		{"word backward", command.DeleteWord, true, "Hello "},
		{"line backward", command.DeleteLine, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := newEditor(t)
			typeText(t, ed, "Hello world")
			engine.DispatchCommand(ed, tt.cmd, tt.payload)
			expectText(t, ed, tt.want)
		})
	}
}

func TestPasteSplitsParagraphs(t *testing.T) {
	ed := newEditor(t)
	if !engine.DispatchCommand(ed, command.Paste, "one\r\n\r\ntwo\nthree") {
		t.Fatal("paste was not handled")
	}
	expectText(t, ed, "one\n\ntwo\nthree")
	if got := blocks(ed); got != 2 {
		t.Errorf("blocks = %d, want 2", got)
	}
}

func TestParagraphAndLineBreak(t *testing.T) {
	ed := newEditor(t)
	typeText(t, ed, "ab")
	engine.DispatchCommand(ed, command.InsertParagraph, command.Empty{})
	typeText(t, ed, "cd")
	engine.DispatchCommand(ed, command.InsertLineBreak, false)
	typeText(t, ed, "ef")
	expectText(t, ed, "ab\n\ncd\nef")
	if got := blocks(ed); got != 2 {
		t.Errorf("blocks = %d, want 2", got)
	}
}

func TestLineBreakSelectStart(t *testing.T) {
	ed := newEditor(t)
	typeText(t, ed, "ab")
	engine.DispatchCommand(ed, command.InsertLineBreak, true)
	typeText(t, ed, "X")
	expectText(t, ed, "abX\n")
}

func TestMoveAndExtend(t *testing.T) {
	ed := newEditor(t)
	typeText(t, ed, "Hello")

	engine.DispatchCommand(ed, command.Move, command.MovePayload{Backward: true, Unit: "character"})
	typeText(t, ed, "_")
	expectText(t, ed, "Hell_o")

	engine.DispatchCommand(ed, command.Move, command.MovePayload{Backward: true, Unit: "document"})
	engine.DispatchCommand(ed, command.Move, command.MovePayload{Extend: true, Unit: "word"})
	engine.DispatchCommand(ed, command.DeleteCharacter, true)
	expectText(t, ed, "")
}

func TestFormatText(t *testing.T) {
	ed := newEditor(t)
	typeText(t, ed, "bold")
	engine.DispatchCommand(ed, command.SelectAll, command.Empty{})

	if engine.DispatchCommand(ed, command.FormatText, "sparkle") {
		t.Error("unknown format was handled")
	}
	if !engine.DispatchCommand(ed, command.FormatText, "bold") {
		t.Fatal("bold was not handled")
	}

	var bold int
	ed.State().Walk(func(n node.Node, _ int) bool {
		if txt, ok := node.AsText(n); ok && txt.Format.Has(node.FormatBold) {
			bold++
		}
		return true
	})
	if bold != 1 {
		t.Errorf("bold text nodes = %d, want 1", bold)
	}
	expectText(t, ed, "bold")
}

func TestClearEditor(t *testing.T) {
	ed := newEditor(t)
	engine.DispatchCommand(ed, command.Paste, "a\n\nb\n\nc")
	if got := blocks(ed); got != 3 {
		t.Fatalf("blocks = %d, want 3", got)
	}

	engine.DispatchCommand(ed, command.ClearEditor, command.Empty{})
	expectText(t, ed, "")
	if got := blocks(ed); got != 1 {
		t.Errorf("blocks after clear = %d, want 1", got)
	}
	typeText(t, ed, "again")
	expectText(t, ed, "again")
}

func TestReadOnlyIgnoresEdits(t *testing.T) {
	ed := newEditor(t, engine.WithEditable(false))
	rev := ed.State().Revision()

	if engine.DispatchCommand(ed, command.InsertText, "x") {
		t.Error("insert handled on a read-only editor")
	}
	if engine.DispatchCommand(ed, command.Paste, "x") {
		t.Error("paste handled on a read-only editor")
	}
	if got := ed.State().Revision(); got != rev {
		t.Errorf("revision moved from %d to %d", rev, got)
	}

	// Selection commands still work.
	if !engine.DispatchCommand(ed, command.SelectAll, command.Empty{}) {
		t.Error("select all not handled on a read-only editor")
	}
}

func TestOverrideByPriority(t *testing.T) {
	ed := newEditor(t)
	var seen string
	remove := engine.RegisterCommand(ed, command.InsertText, command.PriorityHigh,
		func(_ *engine.Editor, s string) bool {
			seen = s
			return s == "block"
		})

	engine.DispatchCommand(ed, command.InsertText, "block")
	expectText(t, ed, "")
	engine.DispatchCommand(ed, command.InsertText, "pass")
	expectText(t, ed, "pass")
	if seen != "pass" {
		t.Errorf("override saw %q", seen)
	}

	remove()
	typeText(t, ed, "!")
	expectText(t, ed, "pass!")
}

func TestUnregisterEditing(t *testing.T) {
	ed := engine.New()
	remove := RegisterEditing(ed)
	remove()
	if engine.DispatchCommand(ed, command.InsertText, "x") {
		t.Error("insert handled after unregister")
	}
}

func TestUndoRedoCommands(t *testing.T) {
	ed := newEditor(t, engine.WithHistory(history.NewHistory(10, 0)))

	var canUndo, canRedo []bool
	engine.RegisterCommand(ed, command.CanUndo, command.PriorityLow, func(_ *engine.Editor, v bool) bool {
		canUndo = append(canUndo, v)
		return true
	})
	engine.RegisterCommand(ed, command.CanRedo, command.PriorityLow, func(_ *engine.Editor, v bool) bool {
		canRedo = append(canRedo, v)
		return true
	})

	if engine.DispatchCommand(ed, command.Undo, command.Empty{}) {
		t.Error("undo handled with an empty history")
	}

	typeText(t, ed, "one")
	engine.DispatchCommand(ed, command.InsertParagraph, command.Empty{})
	expectText(t, ed, "one\n\n")

	if !engine.DispatchCommand(ed, command.Undo, command.Empty{}) {
		t.Fatal("undo not handled")
	}
	expectText(t, ed, "one")
	if !engine.DispatchCommand(ed, command.Redo, command.Empty{}) {
		t.Fatal("redo not handled")
	}
	expectText(t, ed, "one\n\n")

	if len(canUndo) == 0 || !canUndo[0] {
		t.Errorf("CAN_UNDO payloads = %v, want first true", canUndo)
	}
	if len(canRedo) < 2 || !canRedo[0] || canRedo[len(canRedo)-1] {
		t.Errorf("CAN_REDO payloads = %v, want true then false", canRedo)
	}
}

func TestRegisterHistoryWithoutHistory(t *testing.T) {
	ed := engine.New(engine.WithInitialState(state.Document()))
	RegisterHistory(ed)()
	if engine.DispatchCommand(ed, command.Undo, command.Empty{}) {
		t.Error("undo handled without history")
	}
}
