package playground

import (
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/inkwell/internal/engine"
	"github.com/dshills/inkwell/internal/engine/command"
)

// Action runs in response to a key and reports whether it was handled.
type Action func(e *engine.Editor) bool

// Keymap maps key specs ("ctrl+z", "shift+left", "enter") to actions.
type Keymap map[string]Action

// Dispatch returns an action that dispatches cmd with payload.
func Dispatch[P any](cmd command.Command[P], payload P) Action {
	return func(e *engine.Editor) bool {
		return engine.DispatchCommand(e, cmd, payload)
	}
}

func move(unit string, backward, extend bool) Action {
	return Dispatch(command.Move, command.MovePayload{Unit: unit, Backward: backward, Extend: extend})
}

// DefaultKeymap returns the built-in bindings.
func DefaultKeymap() Keymap {
	km := Keymap{
		"enter":           Dispatch(command.InsertParagraph, command.Empty{}),
		"shift+enter":     Dispatch(command.InsertLineBreak, false),
		"alt+enter":       Dispatch(command.InsertLineBreak, false),
		"tab":             Dispatch(command.InsertText, "\t"),
		"backspace":       Dispatch(command.DeleteCharacter, true),
		"delete":          Dispatch(command.DeleteCharacter, false),
		"alt+backspace":   Dispatch(command.DeleteWord, true),
		"ctrl+w":          Dispatch(command.DeleteWord, true),
		"alt+delete":      Dispatch(command.DeleteWord, false),
		"ctrl+u":          Dispatch(command.DeleteLine, true),
		"ctrl+k":          Dispatch(command.DeleteLine, false),
		"ctrl+a":          Dispatch(command.SelectAll, command.Empty{}),
		"ctrl+b":          Dispatch(command.FormatText, "bold"),
		"ctrl+t":          Dispatch(command.FormatText, "italic"),
		"ctrl+e":          Dispatch(command.FormatText, "code"),
		"ctrl+x":          Dispatch(command.FormatText, "strikethrough"),
		"ctrl+z":          Dispatch(command.Undo, command.Empty{}),
		"ctrl+y":          Dispatch(command.Redo, command.Empty{}),
		"ctrl+l":          Dispatch(command.ClearEditor, command.Empty{}),
		"ctrl+home":       move("document", true, false),
		"ctrl+end":        move("document", false, false),
		"ctrl+shift+home": move("document", true, true),
		"ctrl+shift+end":  move("document", false, true),
	}
	for _, dir := range []struct {
		key      string
		backward bool
	}{{"left", true}, {"right", false}} {
		km[dir.key] = move("character", dir.backward, false)
		km["shift+"+dir.key] = move("character", dir.backward, true)
		km["ctrl+"+dir.key] = move("word", dir.backward, false)
		km["alt+"+dir.key] = move("word", dir.backward, false)
		km["ctrl+shift+"+dir.key] = move("word", dir.backward, true)
	}
	for _, edge := range []struct {
		key      string
		backward bool
	}{{"home", true}, {"end", false}, {"up", true}, {"down", false}} {
		km[edge.key] = move("line", edge.backward, false)
		km["shift+"+edge.key] = move("line", edge.backward, true)
	}
	return km
}

var keyNames = map[tcell.Key]string{
	tcell.KeyEnter:     "enter",
	tcell.KeyTab:       "tab",
	tcell.KeyBacktab:   "shift+tab",
	tcell.KeyBackspace: "backspace",
	tcell.KeyDelete:    "delete",
	tcell.KeyEscape:    "esc",
	tcell.KeyUp:        "up",
	tcell.KeyDown:      "down",
	tcell.KeyLeft:      "left",
	tcell.KeyRight:     "right",
	tcell.KeyHome:      "home",
	tcell.KeyEnd:       "end",
	tcell.KeyPgUp:      "pgup",
	tcell.KeyPgDn:      "pgdn",
	tcell.KeyInsert:    "insert",
}

// KeySpec names a key event: modifiers in the order ctrl, alt, shift, then
// the key. Printable runes without ctrl or alt yield the rune itself.
func KeySpec(ev *tcell.EventKey) string {
	mods := ev.Modifiers()
	var name string
	switch k := ev.Key(); {
	case k == tcell.KeyBackspace2:
		name = "backspace"
	case keyNames[k] != "":
		name = keyNames[k]
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		name = string(rune('a' + k - tcell.KeyCtrlA))
		mods |= tcell.ModCtrl
	case k == tcell.KeyRune:
		name = string(ev.Rune())
		mods &^= tcell.ModShift
	default:
		name = strings.ToLower(ev.Name())
	}

	var b strings.Builder
	if mods&tcell.ModCtrl != 0 {
		b.WriteString("ctrl+")
	}
	if mods&tcell.ModAlt != 0 {
		b.WriteString("alt+")
	}
	if mods&tcell.ModShift != 0 && !strings.HasPrefix(name, "shift+") {
		b.WriteString("shift+")
	}
	b.WriteString(name)
	return b.String()
}
