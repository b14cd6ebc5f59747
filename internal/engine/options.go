package engine

import (
	"github.com/dshills/inkwell/internal/engine/history"
	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/reconciler"
	"github.com/dshills/inkwell/internal/engine/state"
	"github.com/dshills/inkwell/internal/logging"
)

// Default configuration values.
const (
	DefaultLoopQueue = 256
)

// Option configures an Editor during creation.
type Option func(*Editor)

// WithRegistry sets the node type registry. Defaults to node.NewRegistry().
func WithRegistry(reg *node.Registry) Option {
	return func(e *Editor) {
		if reg != nil {
			e.reg = reg
		}
	}
}

// WithTheme sets the class names used by DOM hooks.
func WithTheme(theme *node.Theme) Option {
	return func(e *Editor) {
		e.theme = theme
	}
}

// WithNamespace sets the editor namespace. Defaults to a random UUID.
func WithNamespace(ns string) Option {
	return func(e *Editor) {
		if ns != "" {
			e.namespace = ns
		}
	}
}

// WithInitialState sets the first committed state. Defaults to a document
// holding one empty paragraph.
func WithInitialState(s *state.EditorState) Option {
	return func(e *Editor) {
		if s != nil {
			e.current = s
		}
	}
}

// WithEditable sets whether edit commands are accepted. Defaults to true.
func WithEditable(editable bool) Option {
	return func(e *Editor) {
		e.editable = editable
	}
}

// WithHistory records every commit in h and enables Undo and Redo.
func WithHistory(h *history.History) Option {
	return func(e *Editor) {
		e.history = h
	}
}

// WithDecoratorHost sets the host that renders decorator nodes.
func WithDecoratorHost(host reconciler.DecoratorHost) Option {
	return func(e *Editor) {
		e.host = host
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.log = l
		}
	}
}

// WithErrorHandler sets the hook every error is routed through. The default
// returns the error to the caller.
func WithErrorHandler(h ErrorHandler) Option {
	return func(e *Editor) {
		if h != nil {
			e.onError = h
		}
	}
}
