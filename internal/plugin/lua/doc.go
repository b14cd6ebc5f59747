// Package lua runs Lua scripts against an editor.
//
// A Host owns a sandboxed gopher-lua state and exposes the editor to
// scripts through the global table "inkwell":
//
//	inkwell.command(name, fn [, priority])  -- handle a command; fn(payload) returns true when handled
//	inkwell.dispatch(name [, payload])      -- dispatch a command, returns handled
//	inkwell.update(fn)                      -- run fn(tx) inside an editor update
//	inkwell.group(name, fn)                 -- commits made by fn undo as one entry
//	inkwell.on_update(fn)                   -- fn({revision=, dirty=, tags={}}) after each commit
//	inkwell.text()                          -- document text
//	inkwell.revision()                      -- committed revision
//	inkwell.export()                        -- serialized document
//	inkwell.log(level, msg)
//
// The tx passed to update functions is only valid while the function runs:
//
//	tx:insert_text(s)          tx:insert_raw_text(s)
//	tx:insert_paragraph()      tx:insert_line_break()
//	tx:delete_character(back)  tx:delete_word(back)   tx:delete_line(back)
//	tx:format_text(name)       tx:select_all()
//	tx:move(unit, back, extend)
//	tx:selected_text()         tx:tag(name)
//
// Only the base, table, string and math libraries are available. A State is
// not goroutine-safe; drive a Host from the goroutine that owns the editor,
// usually its Loop.
package lua
