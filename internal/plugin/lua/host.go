package lua

import (
	"errors"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/inkwell/internal/engine"
	"github.com/dshills/inkwell/internal/engine/codec"
	"github.com/dshills/inkwell/internal/engine/command"
	"github.com/dshills/inkwell/internal/engine/history"
	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/txn"
	"github.com/dshills/inkwell/internal/handlers"
	"github.com/dshills/inkwell/internal/logging"
)

// ModuleName is the global table scripts use.
const ModuleName = "inkwell"

const txTypeName = "inkwell.tx"

// Host connects a Lua state to an editor.
type Host struct {
	e     *engine.Editor
	state *State
	log   *logging.Logger

	removers []func()
}

// NewHost creates a sandboxed state bound to e.
func NewHost(e *engine.Editor, opts ...StateOption) *Host {
	h := &Host{
		e:     e,
		state: NewState(opts...),
		log:   e.Logger().WithComponent("lua"),
	}
	h.install()
	return h
}

// State returns the underlying Lua state.
func (h *Host) State() *State {
	return h.state
}

// Run executes a script.
func (h *Host) Run(code string) error {
	return h.state.DoString(code)
}

// RunFile executes a script file.
func (h *Host) RunFile(path string) error {
	return h.state.DoFile(path)
}

// Close unregisters every handler and listener the scripts added and closes
// the state.
func (h *Host) Close() error {
	for i := len(h.removers) - 1; i >= 0; i-- {
		h.removers[i]()
	}
	h.removers = nil
	return h.state.Close()
}

func (h *Host) install() {
	L := h.state.L

	mt := L.NewTypeMetatable(txTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), txMethods))

	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"command":   h.luaCommand,
		"dispatch":  h.luaDispatch,
		"update":    h.luaUpdate,
		"group":     h.luaGroup,
		"on_update": h.luaOnUpdate,
		"text":      h.luaText,
		"revision":  h.luaRevision,
		"export":    h.luaExport,
		"log":       h.luaLog,
	})
	L.SetGlobal(ModuleName, mod)
	L.SetGlobal("print", L.NewFunction(h.luaPrint))
}

// call runs a script callback and reports its first result as a bool.
func (h *Host) call(fn *lua.LFunction, args ...lua.LValue) (bool, error) {
	out, err := h.state.Call(fn, 1, args...)
	if err != nil {
		return false, err
	}
	return lua.LVAsBool(out[0]), nil
}

// inkwell.command(name, fn [, priority])
func (h *Host) luaCommand(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	prio := command.PriorityNormal
	if L.GetTop() >= 3 {
		prio = command.ParsePriority(L.CheckString(3))
	}

	remove := h.e.Commands().RegisterName(name, prio, func(e *engine.Editor, payload any) bool {
		handled, err := h.call(fn, ToLuaValue(h.state.L, payload))
		if err != nil {
			h.log.WithField("command", name).Error("handler: %v", err)
			return false
		}
		return handled
	})
	h.removers = append(h.removers, remove)
	return 0
}

// inkwell.dispatch(name [, payload]) -> handled
func (h *Host) luaDispatch(L *lua.LState) int {
	name := L.CheckString(1)
	handled := h.e.DispatchCommandName(name, payloadFor(name, L.Get(2)))
	L.Push(lua.LBool(handled))
	return 1
}

// inkwell.update(fn)
func (h *Host) luaUpdate(L *lua.LState) int {
	fn := L.CheckFunction(1)
	err := h.e.Update(func(tx *txn.Tx) error {
		ud, t := newTx(L, tx)
		defer t.close()
		_, err := h.state.Call(fn, 0, ud)
		if t.err != nil {
			return t.err
		}
		return err
	})
	if err != nil {
		L.RaiseError("update: %v", err)
	}
	return 0
}

// inkwell.group(name, fn)
//
// Commits made while fn runs form one undo entry. If fn fails they are
// undone before the error is raised.
func (h *Host) luaGroup(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	hist := h.e.History()
	if hist == nil {
		if _, err := h.state.Call(fn, 0); err != nil {
			L.RaiseError("group %s: %v", name, err)
		}
		return 0
	}

	cp := hist.CreateCheckpoint()
	scope := hist.GroupScope(name)
	_, err := h.state.Call(fn, 0)
	if ferr := h.e.Flush(); err == nil {
		err = ferr
	}
	scope.End()
	if err == nil {
		return 0
	}
	if s, uerr := hist.UndoToCheckpoint(cp); uerr == nil && s != nil {
		if serr := h.e.SetEditorState(s, history.TagHistoric); serr != nil {
			h.log.WithField("group", name).Error("restore: %v", serr)
		}
	}
	L.RaiseError("group %s: %v", name, err)
	return 0
}

// inkwell.on_update(fn)
func (h *Host) luaOnUpdate(L *lua.LState) int {
	fn := L.CheckFunction(1)
	remove := h.e.RegisterUpdateListener(func(res *txn.Result) {
		info := map[string]any{
			"revision": int64(res.Next.Revision()),
			"dirty":    len(res.Dirty),
			"removed":  len(res.Removed),
			"tags":     append([]string(nil), res.Tags...),
		}
		if _, err := h.state.Call(fn, 0, ToLuaValue(h.state.L, info)); err != nil {
			h.log.Error("update listener: %v", err)
		}
	})
	h.removers = append(h.removers, remove)
	return 0
}

func (h *Host) luaText(L *lua.LState) int {
	L.Push(lua.LString(h.e.TextContent()))
	return 1
}

func (h *Host) luaRevision(L *lua.LState) int {
	L.Push(lua.LNumber(h.e.State().Revision()))
	return 1
}

func (h *Host) luaExport(L *lua.LState) int {
	data, err := h.e.Export(codec.Options{})
	if err != nil {
		L.RaiseError("export: %v", err)
	}
	L.Push(lua.LString(data))
	return 1
}

// inkwell.log(level, msg)
func (h *Host) luaLog(L *lua.LState) int {
	level := logging.ParseLevel(L.CheckString(1))
	msg := L.CheckString(2)
	switch level {
	case logging.LevelDebug:
		h.log.Debug("%s", msg)
	case logging.LevelWarn:
		h.log.Warn("%s", msg)
	case logging.LevelError:
		h.log.Error("%s", msg)
	default:
		h.log.Info("%s", msg)
	}
	return 0
}

// print goes to the log at info.
func (h *Host) luaPrint(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	h.log.Info("%s", strings.Join(parts, "\t"))
	return 0
}

// ============================================================================
// tx userdata
// ============================================================================

type luaTx struct {
	tx  *txn.Tx
	err error
}

func newTx(L *lua.LState, tx *txn.Tx) (*lua.LUserData, *luaTx) {
	t := &luaTx{tx: tx}
	ud := L.NewUserData()
	ud.Value = t
	L.SetMetatable(ud, L.GetTypeMetatable(txTypeName))
	return ud, t
}

func (t *luaTx) close() {
	t.tx = nil
}

var txMethods = map[string]lua.LGFunction{
	"insert_text":       txOp(func(L *lua.LState, tx *txn.Tx) { tx.InsertText(L.CheckString(2)) }),
	"insert_raw_text":   txOp(func(L *lua.LState, tx *txn.Tx) { tx.InsertRawText(L.CheckString(2)) }),
	"insert_paragraph":  txOp(func(_ *lua.LState, tx *txn.Tx) { tx.InsertParagraph() }),
	"insert_line_break": txOp(func(_ *lua.LState, tx *txn.Tx) { tx.InsertLineBreak() }),
	"delete_character":  txOp(func(L *lua.LState, tx *txn.Tx) { tx.DeleteCharacter(L.OptBool(2, true)) }),
	"delete_word":       txOp(func(L *lua.LState, tx *txn.Tx) { tx.DeleteWord(L.OptBool(2, true)) }),
	"delete_line":       txOp(func(L *lua.LState, tx *txn.Tx) { tx.DeleteLine(L.OptBool(2, true)) }),
	"select_all":        txOp(func(_ *lua.LState, tx *txn.Tx) { tx.SelectAll() }),
	"tag":               txOp(func(L *lua.LState, tx *txn.Tx) { tx.Tag(L.CheckString(2)) }),
	"format_text": txOp(func(L *lua.LState, tx *txn.Tx) {
		name := L.CheckString(2)
		f, ok := node.ParseTextFormat(name)
		if !ok {
			L.ArgError(2, fmt.Sprintf("unknown format %q", name))
		}
		tx.FormatText(f)
	}),
	"move": txOp(func(L *lua.LState, tx *txn.Tx) {
		unitName := L.OptString(2, "character")
		unit, ok := handlers.Units[unitName]
		if !ok {
			L.ArgError(2, fmt.Sprintf("unknown unit %q", unitName))
		}
		alter := txn.Move
		if L.OptBool(4, false) {
			alter = txn.Extend
		}
		tx.Modify(alter, L.OptBool(3, false), unit)
	}),
	"selected_text": func(L *lua.LState) int {
		t := checkTx(L)
		L.Push(lua.LString(t.tx.SelectedText()))
		return 1
	},
}

func checkTx(L *lua.LState) *luaTx {
	ud := L.CheckUserData(1)
	t, ok := ud.Value.(*luaTx)
	if !ok {
		L.ArgError(1, "tx expected")
	}
	if t.tx == nil {
		L.RaiseError("%v", ErrTxClosed)
	}
	return t
}

// txOp wraps an editing call. Invariant violations are kept on the tx so
// the update fails with the typed error, then raised to the script.
func txOp(fn func(L *lua.LState, tx *txn.Tx)) lua.LGFunction {
	return func(L *lua.LState) int {
		t := checkTx(L)
		var err error
		func() {
			defer txn.Recover(&err)
			fn(L, t.tx)
		}()
		var inv *txn.InvariantError
		if errors.As(err, &inv) {
			t.err = err
			L.RaiseError("%v", err)
		} else if err != nil {
			panic(err)
		}
		return 0
	}
}
