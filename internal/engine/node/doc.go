// Package node defines the document tree node model.
//
// Every node is addressed by a stable Key and carries its tree linkage in an
// embedded Base: parent, previous sibling and next sibling keys. Element
// nodes additionally store their first and last child keys, so a child list
// is a doubly linked chain of keys rather than a slice. Nodes never hold
// pointers to other nodes; every traversal goes through a key lookup in the
// node map of the state or transaction being read.
//
// # Variants
//
// The structural kinds are fixed (text, element, root, line break,
// decorator) but the set of node types is open. A type plugs in by
// registering a Klass with a Registry: the Klass supplies the DOM create and
// update hooks plus JSON export and import, and the node value itself
// implements Clone. Dispatch always goes through the type string stored on
// the node.
//
// # Immutability
//
// Nodes reachable from a committed state must be treated as read-only. The
// only way to obtain a mutable node is the transaction's Writable accessor,
// which clones the node the first time it is touched in that transaction.
package node
