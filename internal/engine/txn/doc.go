// Package txn implements the update transaction: the only place the
// document can change.
//
// A Tx starts from a committed state and keeps its own working copy of the
// nodes it touches. Latest resolves a key against the working copy first and
// the base state second; Writable clones a node on first touch and records
// it in the dirty set. The committed base state is never written to, so it
// stays readable after the transaction commits or is discarded.
//
// Tree edits are expressed as key relinking on the doubly linked child
// chains (Append, InsertBefore, InsertAfter, Remove, Replace). A node is
// unlinked from its old parent inside the same call that links it to a new
// one, so it never has two parents.
//
// Commit runs, in order:
//
//  1. text normalisation and node transforms, repeated over newly dirtied
//     nodes until nothing changes or MaxTransformPasses is exceeded
//  2. a mark phase from the root that validates every child chain
//  3. selection normalisation, falling back to the nearest surviving
//     position when a selected node is gone
//  4. a sweep that drops every unreachable node and freezes the result into
//     a new state.EditorState
//
// Programmer errors (stale keys, writes after the transaction closed,
// cycles, unknown node types) panic with an *InvariantError. Callers that
// run user code inside a transaction recover them with Recover.
package txn
