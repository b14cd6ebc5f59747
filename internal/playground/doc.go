// Package playground is a terminal front end for an editor.
//
// It projects the document onto a tcell screen as plain text, one row per
// line of each block, and turns key events into editor commands through a
// Keymap. Text formats are shown with terminal attributes. Bracketed paste
// is delivered as a single PASTE command.
//
// Events are handled on the editor Loop, so every key press commits at
// most once; the screen is redrawn from an update listener after each
// commit.
package playground
