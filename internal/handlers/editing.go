package handlers

import (
	"strings"

	"github.com/dshills/inkwell/internal/engine"
	"github.com/dshills/inkwell/internal/engine/command"
	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/txn"
)

// Units maps MovePayload unit names to caret movement units.
var Units = map[string]txn.Unit{
	"character": txn.Character,
	"word":      txn.Word,
	"line":      txn.Line,
	"document":  txn.Document,
}

// RegisterEditing registers the default editing handlers on e and returns
// the function that removes them all.
func RegisterEditing(e *engine.Editor) func() {
	p := command.PriorityEditor
	removers := []func(){
		engine.RegisterCommand(e, command.InsertText, p, editing(insertText)),
		engine.RegisterCommand(e, command.Paste, p, editing(paste)),
		engine.RegisterCommand(e, command.InsertLineBreak, p, editing(insertLineBreak)),
		engine.RegisterCommand(e, command.InsertParagraph, p, editing(insertParagraph)),
		engine.RegisterCommand(e, command.DeleteCharacter, p, editing(deleteBy((*txn.Tx).DeleteCharacter))),
		engine.RegisterCommand(e, command.DeleteWord, p, editing(deleteBy((*txn.Tx).DeleteWord))),
		engine.RegisterCommand(e, command.DeleteLine, p, editing(deleteBy((*txn.Tx).DeleteLine))),
		engine.RegisterCommand(e, command.FormatText, p, editing(formatText)),
		engine.RegisterCommand(e, command.Move, p, move),
		engine.RegisterCommand(e, command.SelectAll, p, selectAll),
		engine.RegisterCommand(e, command.ClearEditor, p, editing(clearEditor)),
	}
	return combine(removers)
}

func combine(removers []func()) func() {
	return func() {
		for _, r := range removers {
			r()
		}
	}
}

// editing wraps h so it only runs on an editable editor.
func editing[P any](h command.Handler[*engine.Editor, P]) command.Handler[*engine.Editor, P] {
	return func(e *engine.Editor, payload P) bool {
		if !e.IsEditable() {
			return false
		}
		return h(e, payload)
	}
}

// update runs fn and reports whether it committed without error.
func update(e *engine.Editor, fn func(tx *txn.Tx)) bool {
	err := e.Update(func(tx *txn.Tx) error {
		fn(tx)
		return nil
	})
	if err != nil {
		e.Logger().Warn("command update failed: %v", err)
		return false
	}
	return true
}

func insertText(e *engine.Editor, s string) bool {
	return update(e, func(tx *txn.Tx) { tx.InsertRawText(s) })
}

// paste inserts s; blank lines separate paragraphs.
func paste(e *engine.Editor, s string) bool {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return update(e, func(tx *txn.Tx) {
		for i, block := range strings.Split(s, "\n\n") {
			if i > 0 {
				tx.InsertParagraph()
			}
			tx.InsertRawText(block)
		}
	})
}

// insertLineBreak inserts a line break. With selectStart the caret stays
// before it.
func insertLineBreak(e *engine.Editor, selectStart bool) bool {
	return update(e, func(tx *txn.Tx) {
		tx.InsertLineBreak()
		if selectStart {
			tx.Modify(txn.Move, true, txn.Character)
		}
	})
}

func insertParagraph(e *engine.Editor, _ command.Empty) bool {
	return update(e, (*txn.Tx).InsertParagraph)
}

func deleteBy(del func(tx *txn.Tx, backward bool)) command.Handler[*engine.Editor, bool] {
	return func(e *engine.Editor, backward bool) bool {
		return update(e, func(tx *txn.Tx) { del(tx, backward) })
	}
}

func formatText(e *engine.Editor, name string) bool {
	f, ok := node.ParseTextFormat(name)
	if !ok {
		return false
	}
	return update(e, func(tx *txn.Tx) { tx.FormatText(f) })
}

func move(e *engine.Editor, m command.MovePayload) bool {
	unit, ok := Units[m.Unit]
	if !ok {
		unit = txn.Character
	}
	alter := txn.Move
	if m.Extend {
		alter = txn.Extend
	}
	return update(e, func(tx *txn.Tx) { tx.Modify(alter, m.Backward, unit) })
}

func selectAll(e *engine.Editor, _ command.Empty) bool {
	return update(e, (*txn.Tx).SelectAll)
}

// clearEditor replaces the document with one empty paragraph.
func clearEditor(e *engine.Editor, _ command.Empty) bool {
	return update(e, func(tx *txn.Tx) {
		for _, k := range tx.Children(node.RootKey) {
			tx.Remove(k)
		}
		p := tx.NewParagraph()
		tx.Append(node.RootKey, p.Key)
		tx.SelectStart(p.Key)
	})
}
