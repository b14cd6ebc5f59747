package lua

import (
	"errors"
	"strings"
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/inkwell/internal/engine"
	"github.com/dshills/inkwell/internal/engine/command"
	"github.com/dshills/inkwell/internal/engine/history"
	"github.com/dshills/inkwell/internal/handlers"
)

func newHost(t *testing.T, opts ...StateOption) (*Host, *engine.Editor) {
	t.Helper()
	ed := engine.New()
	t.Cleanup(handlers.RegisterEditing(ed))
	h := NewHost(ed, opts...)
	t.Cleanup(func() { h.Close() })
	return h, ed
}

func run(t *testing.T, h *Host, code string) {
	t.Helper()
	if err := h.Run(code); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestUpdateFromScript(t *testing.T) {
	h, ed := newHost(t)
	run(t, h, `
inkwell.update(function(tx)
  tx:insert_text("Hello")
  tx:insert_paragraph()
  tx:insert_text("world")
end)
`)
	if got := ed.TextContent(); got != "Hello\n\nworld" {
		t.Errorf("TextContent = %q", got)
	}

	run(t, h, `assert(inkwell.text() == "Hello\n\nworld")`)
	run(t, h, `assert(inkwell.revision() == 1, "revision " .. inkwell.revision())`)
}

func TestScriptCommand(t *testing.T) {
	h, ed := newHost(t)
	run(t, h, `
inkwell.command("SHOUT", function(payload)
  inkwell.update(function(tx) tx:insert_text(string.upper(payload) .. "!") end)
  return true
end)
`)

	if !ed.DispatchCommandName("SHOUT", "hey") {
		t.Fatal("SHOUT not handled")
	}
	if got := ed.TextContent(); got != "HEY!" {
		t.Errorf("TextContent = %q", got)
	}

	run(t, h, `assert(inkwell.dispatch("SHOUT", "again"))`)
	if got := ed.TextContent(); got != "HEY!AGAIN!" {
		t.Errorf("TextContent = %q", got)
	}
}

func TestScriptOverridesBuiltin(t *testing.T) {
	h, ed := newHost(t)
	run(t, h, `
inkwell.command("CONTROLLED_TEXT_INSERTION", function(text)
  if text == "tab" then
    inkwell.update(function(tx) tx:insert_text("    ") end)
    return true
  end
  return false
end, "high")
`)

	engine.DispatchCommand(ed, command.InsertText, "tab")
	engine.DispatchCommand(ed, command.InsertText, "x")
	if got := ed.TextContent(); got != "    x" {
		t.Errorf("TextContent = %q", got)
	}
}

func TestDispatchBuiltinPayloads(t *testing.T) {
	h, ed := newHost(t)
	run(t, h, `
inkwell.dispatch("CONTROLLED_TEXT_INSERTION", "Hello")
inkwell.dispatch("MOVE_SELECTION", {backward = true, extend = true, unit = "word"})
inkwell.dispatch("FORMAT_TEXT", "bold")
inkwell.dispatch("SELECT_ALL")
inkwell.dispatch("DELETE_CHARACTER", true)
`)
	if got := ed.TextContent(); got != "" {
		t.Errorf("TextContent = %q, want empty", got)
	}
}

func TestUpdateErrorRollsBack(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{
			name: "script error",
			code: `inkwell.update(function(tx) tx:insert_text("gone") error("boom") end)`,
			want: "boom",
		},
		{
			name: "unknown format",
			code: `inkwell.update(function(tx) tx:insert_text("gone") tx:format_text("sparkle") end)`,
			want: "sparkle",
		},
		{
			name: "tx kept past update",
			code: `local saved
inkwell.update(function(tx) saved = tx end)
saved:insert_text("late")`,
			want: ErrTxClosed.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ed := newHost(t)
			err := h.Run(tt.code)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Run error = %v, want mention of %q", err, tt.want)
			}
			if ed.TextContent() != "" {
				t.Errorf("TextContent = %q after failed update", ed.TextContent())
			}
			if ed.Pending() {
				t.Error("failed update left a pending transaction")
			}
		})
	}
}

func TestOnUpdate(t *testing.T) {
	h, ed := newHost(t)
	run(t, h, `
seen = {}
inkwell.on_update(function(info)
  table.insert(seen, info.revision)
end)
`)
	engine.DispatchCommand(ed, command.InsertText, "a")
	engine.DispatchCommand(ed, command.InsertText, "b")

	got := ToGoValue(h.State().L.GetGlobal("seen"))
	want := []any{int64(1), int64(2)}
	if s, ok := got.([]any); !ok || len(s) != 2 || s[0] != want[0] || s[1] != want[1] {
		t.Errorf("seen = %#v, want %#v", got, want)
	}
}

func TestCloseUnregisters(t *testing.T) {
	ed := engine.New()
	h := NewHost(ed)
	if err := h.Run(`inkwell.command("PING", function() return true end)`); err != nil {
		t.Fatal(err)
	}
	if !ed.Commands().Has("PING") {
		t.Fatal("PING not registered")
	}
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	if ed.Commands().Has("PING") {
		t.Error("PING still registered after Close")
	}
	if err := h.Run(`x = 1`); !errors.Is(err, ErrStateClosed) {
		t.Errorf("Run after Close = %v", err)
	}
}

func TestSandbox(t *testing.T) {
	h, _ := newHost(t)
	for _, name := range []string{"io", "os", "dofile", "loadfile", "load", "require"} {
		if v := h.State().L.GetGlobal(name); v != lua.LNil {
			t.Errorf("%s is available: %v", name, v.Type())
		}
	}
	run(t, h, `assert(string.rep("a", 3) == "aaa" and math.max(1, 2) == 2 and #table.concat({"x"}) == 1)`)
}

func TestExecutionTimeout(t *testing.T) {
	h, _ := newHost(t, WithExecutionTimeout(50*time.Millisecond))
	err := h.Run(`while true do end`)
	if !errors.Is(err, ErrExecutionTimeout) {
		t.Errorf("Run = %v, want ErrExecutionTimeout", err)
	}
	run(t, h, `x = 1`)
}

func TestExport(t *testing.T) {
	h, _ := newHost(t)
	run(t, h, `
inkwell.update(function(tx) tx:insert_text("doc") end)
local out = inkwell.export()
assert(string.find(out, '"doc"', 1, true), out)
`)
}

func TestGroup(t *testing.T) {
	newGrouped := func(t *testing.T) (*Host, *engine.Editor) {
		t.Helper()
		ed := engine.New(engine.WithHistory(history.NewHistory(100, 0)))
		h := NewHost(ed)
		t.Cleanup(func() { h.Close() })
		run(t, h, `inkwell.update(function(tx) tx:insert_text("a") end)`)
		return h, ed
	}

	t.Run("one undo entry", func(t *testing.T) {
		h, ed := newGrouped(t)
		run(t, h, `
inkwell.group("words", function()
  inkwell.update(function(tx) tx:insert_text("b") end)
  inkwell.update(function(tx) tx:insert_text("c") end)
end)
`)
		if got := ed.TextContent(); got != "abc" {
			t.Fatalf("TextContent = %q", got)
		}
		if err := ed.Undo(); err != nil {
			t.Fatalf("Undo: %v", err)
		}
		if got := ed.TextContent(); got != "a" {
			t.Errorf("after undo = %q, want a", got)
		}
	})

	t.Run("failure restores", func(t *testing.T) {
		h, ed := newGrouped(t)
		err := h.Run(`
inkwell.group("broken", function()
  inkwell.update(function(tx) tx:insert_text("x") end)
  error("boom")
end)
`)
		if err == nil || !strings.Contains(err.Error(), "boom") {
			t.Fatalf("Run error = %v", err)
		}
		if got := ed.TextContent(); got != "a" {
			t.Errorf("TextContent = %q, want a", got)
		}
	})

	t.Run("without history", func(t *testing.T) {
		h, ed := newHost(t)
		run(t, h, `inkwell.group("g", function() inkwell.update(function(tx) tx:insert_text("z") end) end)`)
		if got := ed.TextContent(); got != "z" {
			t.Errorf("TextContent = %q", got)
		}
	})
}
