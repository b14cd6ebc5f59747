// Package reconciler keeps a DOM tree in sync with committed editor states.
//
// The reconciler owns every child of its root element. After each commit it
// diffs the previously rendered state against the new one, visiting only the
// dirty nodes and their ancestors, and applies the minimal set of DOM
// operations:
//
//   - nodes whose type changed, or whose UpdateDOM hook asks for it, are
//     replaced
//   - surviving children are matched by key, so reorders become moves
//   - removed nodes are destroyed together with their subtrees
//
// Decorator nodes are never rebuilt on content updates. The DecoratorHost is
// told when one is mounted, moved or unmounted.
//
// A panic raised while patching the DOM is returned as an *Error and the
// next call to Reconcile rebuilds the whole tree.
package reconciler
