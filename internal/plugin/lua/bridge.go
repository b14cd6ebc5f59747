package lua

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/inkwell/internal/engine/command"
)

// ToGoValue converts a Lua value to a Go value. Tables with keys 1..n become
// []any, other tables map[string]any. Functions become nil.
func ToGoValue(lv lua.LValue) any {
	return toGo(lv, make(map[*lua.LTable]bool))
}

func toGo(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })
	if n > 0 && n == count {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = toGo(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		m[k.String()] = toGo(v, visited)
	})
	return m
}

// ToLuaValue converts a Go value to a Lua value.
func ToLuaValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return val
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []byte:
		return lua.LString(val)
	case []string:
		t := L.NewTable()
		for _, s := range val {
			t.Append(lua.LString(s))
		}
		return t
	case []any:
		t := L.NewTable()
		for _, item := range val {
			t.Append(ToLuaValue(L, item))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.RawSetString(k, ToLuaValue(L, val[k]))
		}
		return t
	case command.Empty:
		return lua.LNil
	case command.MovePayload:
		t := L.NewTable()
		t.RawSetString("extend", lua.LBool(val.Extend))
		t.RawSetString("backward", lua.LBool(val.Backward))
		t.RawSetString("unit", lua.LString(val.Unit))
		return t
	case fmt.Stringer:
		return lua.LString(val.String())
	default:
		return lua.LString(fmt.Sprint(val))
	}
}

// payloadFor converts a script payload for the command called name. Built-in
// commands with struct payloads get their Go type; everything else goes
// through ToGoValue.
func payloadFor(name string, lv lua.LValue) any {
	switch name {
	case command.Move.Name():
		p := command.MovePayload{Unit: "character"}
		if t, ok := lv.(*lua.LTable); ok {
			p.Extend = lua.LVAsBool(t.RawGetString("extend"))
			p.Backward = lua.LVAsBool(t.RawGetString("backward"))
			if u, ok := t.RawGetString("unit").(lua.LString); ok {
				p.Unit = string(u)
			}
		}
		return p
	case command.InsertParagraph.Name(), command.SelectAll.Name(), command.ClearEditor.Name(),
		command.Undo.Name(), command.Redo.Name(), command.SelectionChange.Name(),
		command.Focus.Name(), command.Blur.Name():
		return command.Empty{}
	}
	if lv == lua.LNil {
		return nil
	}
	return ToGoValue(lv)
}
