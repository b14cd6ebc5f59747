package txn

import (
	"errors"
	"fmt"

	"github.com/dshills/inkwell/internal/engine/node"
)

// Errors reported by transactions.
var (
	// ErrMutationOutsideUpdate indicates a write through a transaction that
	// has already been committed or discarded.
	ErrMutationOutsideUpdate = errors.New("txn: attempted mutation outside update")

	// ErrTxClosed indicates a read through a transaction that has already
	// been committed or discarded. Read the committed state instead.
	ErrTxClosed = errors.New("txn: transaction already closed")

	// ErrStaleKey indicates a key that resolves to no node.
	ErrStaleKey = errors.New("txn: stale or unknown node key")

	// ErrMultipleParents indicates a node linked into more than one child chain.
	ErrMultipleParents = errors.New("txn: node has more than one parent")

	// ErrBrokenChain indicates inconsistent sibling or child links.
	ErrBrokenChain = errors.New("txn: inconsistent child chain")

	// ErrCycle indicates an attempt to insert a node below itself.
	ErrCycle = errors.New("txn: node cannot be inserted into its own subtree")

	// ErrInvalidOperation indicates a structurally impossible edit, such as
	// appending to a text node or removing the root.
	ErrInvalidOperation = errors.New("txn: invalid tree operation")

	// ErrOutOfRange indicates a text offset outside the node's content.
	ErrOutOfRange = errors.New("txn: offset out of range")

	// ErrInfiniteTransformLoop indicates transforms kept dirtying nodes past
	// MaxTransformPasses.
	ErrInfiniteTransformLoop = errors.New("txn: possible infinite transform loop")
)

// InvariantError reports a programmer error detected by a transaction.
type InvariantError struct {
	Op  string
	Key node.Key
	Err error
}

// Error implements error.
func (e *InvariantError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *InvariantError) Unwrap() error {
	return e.Err
}

func invariant(op string, key node.Key, err error) *InvariantError {
	return &InvariantError{Op: op, Key: key, Err: err}
}

// Recover converts a panic into an error stored in *errp. Use it as
//
//	defer txn.Recover(&err)
//
// around code that calls transaction helpers.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if err, ok := r.(error); ok {
		*errp = err
		return
	}
	*errp = fmt.Errorf("txn: panic: %v", r)
}
