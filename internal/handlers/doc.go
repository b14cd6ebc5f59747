// Package handlers provides the editor's default command handlers.
//
// RegisterEditing installs the text editing commands (insertion, deletion,
// paragraphs, line breaks, formatting, caret movement, select all and
// clear) at editor priority, so any handler registered at a higher tier can
// take over a command. Editing handlers leave commands unhandled while the
// editor is not editable.
//
// RegisterHistory connects UNDO and REDO to the editor's history and
// dispatches CAN_UNDO and CAN_REDO whenever their availability changes.
package handlers
