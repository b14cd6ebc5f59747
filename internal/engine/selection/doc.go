// Package selection models cursor and range state independently of any DOM.
//
// A RangeSelection has an anchor and a focus Point, each addressing a node by
// key. Text points carry a byte offset into the text content; element points
// carry a child index. A NodeSelection holds a set of whole-node keys. A nil
// Selection means nothing is selected.
//
// Selections are values owned by a state. Transactions clone the selection
// before changing it, so a committed state's selection never changes.
package selection
