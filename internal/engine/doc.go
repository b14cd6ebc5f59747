// Package engine is the editor facade. It ties the committed state, the
// update transaction, the reconciler, history and the command bus together.
//
// # Updates
//
// All document changes go through Update. The function passed to Update
// receives the pending transaction; nested Update calls, calls made inside
// Batch, and calls made by listeners while a commit is being delivered all
// write to that same transaction, so they see each other's writes and
// produce one commit:
//
//	ed := engine.New(engine.WithLogger(log))
//	err := ed.Batch(func() error {
//	    ed.Update(insertGreeting)
//	    ed.Update(boldGreeting)
//	    return nil
//	}) // one commit, one reconciliation, one listener call
//
// An Update outside Batch commits when it returns. Discrete commits even
// inside a batch. A Loop runs every task in a batch, which makes it the
// editor's tick.
//
// # Commit
//
// Flush commits the pending transaction and then, in order: makes the new
// state current, records it in the history, reconciles the DOM under the
// root element, mirrors the selection onto the DOM unless the update was
// tagged TagSkipDOMSelection, and notifies mutation, text content and update
// listeners.
//
// # Errors
//
// A failing or panicking update function rolls back the pending
// transaction. That error, commit errors such as
// txn.ErrInfiniteTransformLoop, and reconciliation errors are routed through
// the ErrorHandler set with WithErrorHandler. A reconciliation error leaves
// the new state committed; the next reconciliation rebuilds the DOM.
package engine
