// Package history provides undo/redo over committed editor states.
//
// Committed states are immutable, so an undo entry is simply the state that
// was current before a change. History observes every commit through Record
// and decides whether the commit opens a new entry or merges into the
// current one:
//
//   - commits tagged "historic" come from undo/redo itself and are never
//     recorded
//   - "collaboration" commits come from remote peers; they become the
//     current state without an entry of their own
//   - selection-only commits update the current state without an entry
//   - "history-push" forces a new entry, "history-merge" forces a merge
//   - consecutive insertions (or deletions) in the same text node merge
//     while they arrive within the merge delay
//
// # Grouping
//
// Several commits can be grouped as a single undo unit:
//
//	h.BeginGroup("Paste")
//	// ... multiple updates ...
//	h.EndGroup()
//
// Undo and Redo return the state to restore; the caller commits it with
// the historic tag.
package history
