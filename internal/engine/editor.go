package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/dshills/inkwell/internal/engine/codec"
	"github.com/dshills/inkwell/internal/engine/command"
	"github.com/dshills/inkwell/internal/engine/history"
	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/reconciler"
	"github.com/dshills/inkwell/internal/engine/state"
	"github.com/dshills/inkwell/internal/engine/txn"
	"github.com/dshills/inkwell/internal/logging"
)

// Update tags understood by the editor. The history tags are defined in
// package history.
const (
	// TagCollaboration marks updates applied on behalf of a remote peer.
	// History does not record them as undo entries.
	TagCollaboration = history.TagCollaboration

	// TagSkipDOMSelection keeps the DOM selection untouched after commit.
	TagSkipDOMSelection = "skip-dom-selection"
)

// Editor owns the committed state, the pending update and the DOM
// projection of one document.
//
// Update, Flush, Batch and the methods that commit are meant to be called
// from a single goroutine; use a Loop to funnel work from elsewhere. State,
// Read and the listener registration methods are safe to call from any
// goroutine.
type Editor struct {
	mu       sync.RWMutex
	current  *state.EditorState
	editable bool

	id        string
	namespace string

	reg     *node.Registry
	theme   *node.Theme
	host    reconciler.DecoratorHost
	rec     *reconciler.Reconciler
	history *history.History
	bus     *command.Bus[*Editor]
	log     *logging.Logger
	onError ErrorHandler

	// Update scheduling.
	pending    *txn.Tx
	callbacks  []func()
	aborted    error
	depth      int
	batch      int
	committing bool

	listeners  listeners
	transforms transformSet
}

// New creates an editor.
func New(opts ...Option) *Editor {
	e := &Editor{
		editable: true,
		id:       uuid.NewString(),
		log:      logging.Nop(),
		onError:  returnError,
	}
	e.namespace = e.id

	for _, opt := range opts {
		opt(e)
	}

	if e.reg == nil {
		e.reg = node.NewRegistry()
	}
	if e.current == nil {
		e.current = state.Document()
	}
	e.rec = reconciler.New(e.reg, e.theme, e.host)
	e.bus = command.NewBus[*Editor]()
	e.transforms.byType = make(map[string][]transformEntry)
	e.log = e.log.WithFields(map[string]any{"editor": e.namespace})
	if e.history != nil {
		e.history.Reset(e.current)
	}
	return e
}

// ID returns the unique instance ID.
func (e *Editor) ID() string {
	return e.id
}

// Namespace returns the editor namespace.
func (e *Editor) Namespace() string {
	return e.namespace
}

// Registry returns the node type registry.
func (e *Editor) Registry() *node.Registry {
	return e.reg
}

// History returns the history, or nil.
func (e *Editor) History() *history.History {
	return e.history
}

// Commands returns the command bus.
func (e *Editor) Commands() *command.Bus[*Editor] {
	return e.bus
}

// Logger returns the editor's logger.
func (e *Editor) Logger() *logging.Logger {
	return e.log
}

// ============================================================================
// Reading
// ============================================================================

// State returns the committed state. Pending updates are never visible.
func (e *Editor) State() *state.EditorState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// Read calls fn with the committed state.
func (e *Editor) Read(fn func(s *state.EditorState) error) error {
	return fn(e.State())
}

// TextContent returns the plain text of the committed document.
func (e *Editor) TextContent() string {
	return e.State().TextContent(e.reg.IsInline)
}

// Export encodes the committed state.
func (e *Editor) Export(opts codec.Options) ([]byte, error) {
	return codec.Export(e.State(), e.reg, opts)
}

// ExportHTML renders the committed state as HTML.
func (e *Editor) ExportHTML() (string, error) {
	return codec.HTML(e.State(), e.reg, e.theme)
}

// ParseEditorState decodes a serialized document using the editor's
// registry. The result is not applied; pass it to SetEditorState.
func (e *Editor) ParseEditorState(data []byte) (*state.EditorState, error) {
	return codec.Import(data, e.reg)
}

// ============================================================================
// Updating
// ============================================================================

type updateConfig struct {
	discrete       bool
	tags           []string
	skipTransforms bool
	onUpdate       func()
}

// UpdateOption configures a single Update call.
type UpdateOption func(*updateConfig)

// Discrete commits as soon as the update function returns, even inside a
// batch.
func Discrete() UpdateOption {
	return func(c *updateConfig) {
		c.discrete = true
	}
}

// Tag labels the committed state.
func Tag(tags ...string) UpdateOption {
	return func(c *updateConfig) {
		c.tags = append(c.tags, tags...)
	}
}

// SkipTransforms disables node transforms for the pending transaction.
func SkipTransforms() UpdateOption {
	return func(c *updateConfig) {
		c.skipTransforms = true
	}
}

// OnUpdate registers fn to run after the update is committed and listeners
// were notified.
func OnUpdate(fn func()) UpdateOption {
	return func(c *updateConfig) {
		c.onUpdate = fn
	}
}

// Update runs fn against the pending transaction, opening one when none is
// pending. Updates issued while another update runs, inside Batch, or from
// a listener share that transaction and commit once.
//
// When fn returns an error or panics, the whole pending transaction is
// discarded, including writes made by earlier updates of the same batch,
// and the error goes through the error handler.
func (e *Editor) Update(fn func(tx *txn.Tx) error, opts ...UpdateOption) error {
	var cfg updateConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if e.pending == nil {
		e.pending = txn.Begin(e.State(), txn.Config{Registry: e.reg, Transforms: &e.transforms})
	}
	tx := e.pending
	tx.Tag(cfg.tags...)
	if cfg.skipTransforms {
		tx.SkipTransforms()
	}
	if cfg.onUpdate != nil {
		e.callbacks = append(e.callbacks, cfg.onUpdate)
	}

	e.depth++
	err := runUpdate(tx, fn)
	e.depth--

	if err != nil && e.aborted == nil {
		e.aborted = err
	}
	if e.depth > 0 {
		return err
	}
	if e.aborted != nil {
		err = e.aborted
		e.rollback()
		e.log.Warn("update rolled back: %v", err)
		return e.fail(err)
	}
	if cfg.discrete || (e.batch == 0 && !e.committing) {
		return e.Flush()
	}
	return nil
}

func runUpdate(tx *txn.Tx, fn func(tx *txn.Tx) error) (err error) {
	defer txn.Recover(&err)
	return fn(tx)
}

// rollback throws the pending transaction away.
func (e *Editor) rollback() {
	if e.pending != nil {
		e.pending.Discard()
	}
	e.pending = nil
	e.callbacks = nil
	e.aborted = nil
}

// Batch runs fn and commits every update it issued once fn returns.
func (e *Editor) Batch(fn func() error) error {
	e.batch++
	err := func() error {
		defer func() { e.batch-- }()
		return fn()
	}()
	if e.batch > 0 {
		return err
	}
	return errors.Join(err, e.Flush())
}

// Pending reports whether an update is waiting to be committed.
func (e *Editor) Pending() bool {
	return e.pending != nil
}

// Flush commits the pending update. Updates issued by listeners during the
// commit are committed afterwards, in order. Inside an update function
// Flush does nothing.
func (e *Editor) Flush() error {
	if e.depth > 0 || e.committing {
		return nil
	}
	e.committing = true
	defer func() { e.committing = false }()

	var errs []error
	for e.pending != nil {
		tx, callbacks := e.pending, e.callbacks
		e.pending, e.callbacks = nil, nil

		res, err := tx.Commit()
		if err != nil {
			e.log.Error("commit failed: %v", err)
			errs = append(errs, e.fail(err))
			continue
		}
		errs = append(errs, e.apply(res, res.Dirty, callbacks))
	}
	return errors.Join(errs...)
}

// SetEditorState replaces the committed state with s. The whole document is
// compared against the DOM. Pending updates are committed first.
func (e *Editor) SetEditorState(s *state.EditorState, tags ...string) error {
	if s == nil {
		return e.fail(fmt.Errorf("set editor state: %w", state.ErrStaleKey))
	}
	if e.depth > 0 {
		return e.fail(fmt.Errorf("set editor state: %w", ErrInUpdate))
	}
	if err := e.Flush(); err != nil {
		return err
	}

	prev := e.State()
	next := s.WithRevision(prev.Revision() + 1)
	res := &txn.Result{
		Prev:  prev,
		Next:  next,
		Dirty: make(map[node.Key]txn.DirtyReason, next.Len()),
		Tags:  append([]string(nil), tags...),
	}
	sort.Strings(res.Tags)
	for _, k := range next.Keys() {
		if prev.Has(k) {
			res.Dirty[k] = txn.DirtyUpdated
		} else {
			res.Dirty[k] = txn.DirtyCreated
		}
	}
	for _, k := range prev.Keys() {
		if !next.Has(k) {
			res.Removed = append(res.Removed, k)
		}
	}

	e.committing = true
	err := e.apply(res, nil, nil)
	e.committing = false
	return errors.Join(err, e.Flush())
}

// apply makes res current, records it, patches the DOM and notifies
// listeners. A nil dirty map compares every node.
func (e *Editor) apply(res *txn.Result, dirty map[node.Key]txn.DirtyReason, callbacks []func()) error {
	e.mu.Lock()
	e.current = res.Next
	e.mu.Unlock()

	if e.history != nil {
		e.history.Record(res)
	}

	var err error
	stats, rerr := e.reconcile(res.Next, dirty, !res.HasTag(TagSkipDOMSelection))
	if rerr != nil {
		err = e.fail(rerr)
	}

	if e.log.Enabled(logging.LevelDebug) {
		e.log.WithFields(map[string]any{
			"revision": res.Next.Revision(),
			"dirty":    len(res.Dirty),
			"removed":  len(res.Removed),
			"passes":   res.Passes,
			"ops":      stats.Ops(),
		}).Debug("commit")
	}

	e.notifyUpdate(res)
	for _, cb := range callbacks {
		cb()
	}
	return err
}

func (e *Editor) reconcile(s *state.EditorState, dirty map[node.Key]txn.DirtyReason, syncSelection bool) (reconciler.Stats, error) {
	if e.rec.Root() == nil {
		return reconciler.Stats{}, nil
	}
	stats, err := e.rec.Reconcile(s, dirty)
	if err != nil {
		e.log.Error("reconcile revision %d: %v", s.Revision(), err)
		return stats, err
	}
	if syncSelection {
		e.rec.SyncSelection(s.Selection())
	}
	return stats, nil
}

// fail routes err through the error handler.
func (e *Editor) fail(err error) error {
	if err == nil {
		return nil
	}
	return e.onError(err)
}

// ============================================================================
// History
// ============================================================================

// Undo restores the previous history entry.
func (e *Editor) Undo() error {
	if e.history == nil {
		return ErrNoHistory
	}
	if err := e.Flush(); err != nil {
		return err
	}
	s, err := e.history.Undo()
	if err != nil {
		return err
	}
	return e.SetEditorState(s, history.TagHistoric)
}

// Redo re-applies the last undone history entry.
func (e *Editor) Redo() error {
	if e.history == nil {
		return ErrNoHistory
	}
	if err := e.Flush(); err != nil {
		return err
	}
	s, err := e.history.Redo()
	if err != nil {
		return err
	}
	return e.SetEditorState(s, history.TagHistoric)
}

// ============================================================================
// DOM
// ============================================================================

// SetRootElement attaches the editor to el, rendering the committed state
// into it. Passing nil detaches the editor; the state is untouched and a
// later attach renders it again.
func (e *Editor) SetRootElement(el *html.Node) error {
	prev := e.rec.Root()
	if el == prev {
		return nil
	}
	e.rec.SetRoot(el)

	var err error
	if el != nil {
		if _, rerr := e.reconcile(e.State(), nil, true); rerr != nil {
			err = e.fail(rerr)
		}
	}
	e.log.Debug("root element changed")
	e.notifyRoot(el, prev)
	return err
}

// RootElement returns the attached root element, or nil.
func (e *Editor) RootElement() *html.Node {
	return e.rec.Root()
}

// DOM returns the DOM node rendered for key.
func (e *Editor) DOM(key node.Key) (*html.Node, bool) {
	return e.rec.DOM(key)
}

// DOMSelection returns the selection currently shown in the DOM, or nil.
func (e *Editor) DOMSelection() *reconciler.DOMSelection {
	return e.rec.DOMSelection()
}

// SelectDOM sets the editor selection from a selection made in the DOM and
// dispatches SELECTION_CHANGE. Points the reconciler does not know are
// ignored.
func (e *Editor) SelectDOM(ds reconciler.DOMSelection) error {
	anchor, ok := e.rec.PointOf(ds.Anchor)
	if !ok {
		return nil
	}
	focus, ok := e.rec.PointOf(ds.Focus)
	if !ok {
		return nil
	}
	err := e.Update(func(tx *txn.Tx) error {
		return tx.Select(anchor, focus)
	}, Tag(TagSkipDOMSelection))
	if err != nil {
		return err
	}
	DispatchCommand(e, command.SelectionChange, command.Empty{})
	return nil
}

// Focus shows the committed selection in the DOM.
func (e *Editor) Focus() {
	e.rec.SyncSelection(e.State().Selection())
	DispatchCommand(e, command.Focus, command.Empty{})
}

// Blur clears the DOM selection.
func (e *Editor) Blur() {
	e.rec.SyncSelection(nil)
	DispatchCommand(e, command.Blur, command.Empty{})
}

// ============================================================================
// Editable
// ============================================================================

// IsEditable reports whether edit commands are accepted.
func (e *Editor) IsEditable() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.editable
}

// SetEditable changes the editable flag and notifies editable listeners.
func (e *Editor) SetEditable(editable bool) {
	e.mu.Lock()
	changed := e.editable != editable
	e.editable = editable
	e.mu.Unlock()
	if changed {
		e.notifyEditable(editable)
	}
}

// ============================================================================
// Commands
// ============================================================================

// RegisterCommand adds a handler for cmd. The returned function removes it.
func RegisterCommand[P any](e *Editor, cmd command.Command[P], p command.Priority, h command.Handler[*Editor, P]) func() {
	return command.Register(e.bus, cmd, p, h)
}

// DispatchCommand runs the handlers of cmd, highest priority first, and
// reports whether one of them handled it. Updates issued by the handlers
// commit once, after the last handler ran. Commit errors go through the
// error handler.
func DispatchCommand[P any](e *Editor, cmd command.Command[P], payload P) bool {
	var handled bool
	err := e.Batch(func() error {
		handled = command.Dispatch(e.bus, e, cmd, payload)
		return nil
	})
	if err != nil {
		e.log.WithField("command", cmd.Name()).Error("dispatch: %v", err)
	}
	return handled
}

// DispatchCommandName dispatches a command by name with an untyped payload.
func (e *Editor) DispatchCommandName(name string, payload any) bool {
	var handled bool
	err := e.Batch(func() error {
		handled = e.bus.DispatchName(e, name, payload)
		return nil
	})
	if err != nil {
		e.log.WithField("command", name).Error("dispatch: %v", err)
	}
	return handled
}
