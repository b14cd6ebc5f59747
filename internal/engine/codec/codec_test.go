package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/selection"
	"github.com/dshills/inkwell/internal/engine/state"
	"github.com/dshills/inkwell/internal/engine/txn"
)

func build(t *testing.T, reg *node.Registry, fn func(tx *txn.Tx)) *state.EditorState {
	t.Helper()
	tx := txn.Begin(state.Empty(), txn.Config{Registry: reg})
	fn(tx)
	res, err := tx.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return res.Next
}

func mustExport(t *testing.T, s *state.EditorState, reg *node.Registry, opts Options) []byte {
	t.Helper()
	b, err := Export(s, reg, opts)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	return b
}

// richDocument exercises every built-in node kind and most fields.
func richDocument(t *testing.T, reg *node.Registry) *state.EditorState {
	t.Helper()
	return build(t, reg, func(tx *txn.Tx) {
		p1 := tx.NewParagraph()
		p1.Format = node.AlignCenter
		p1.Indent = 2
		tx.Append(node.RootKey, p1.Key)
		plain := tx.NewText("plain ")
		bold := tx.NewText("bold")
		bold.Format = node.FormatBold | node.FormatItalic
		bold.Style = "color: red"
		tx.Append(p1.Key, plain.Key, bold.Key, tx.NewLineBreak().Key)
		tok := tx.NewText("@mention")
		tok.Mode = node.ModeToken
		tx.Append(p1.Key, tok.Key)

		img := tx.NewDecorator("image", map[string]any{"src": "cat.png", "width": 2})
		tx.Append(node.RootKey, img.Key)

		p2 := tx.NewParagraph()
		p2.Dir = node.DirRTL
		tx.Append(node.RootKey, p2.Key)
		tx.Append(p2.Key, tx.NewText("שלום").Key)

		tx.Append(node.RootKey, tx.NewParagraph().Key)
	})
}

func registry(t *testing.T) *node.Registry {
	t.Helper()
	reg := node.NewRegistry()
	if err := reg.RegisterDecorator("image", false); err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestExportHelloWorld(t *testing.T) {
	reg := node.NewRegistry()
	s := build(t, reg, func(tx *txn.Tx) {
		p := tx.NewParagraph()
		tx.Append(node.RootKey, p.Key)
		tx.Append(p.Key, tx.NewText("Hello world").Key)
	})
	b := mustExport(t, s, reg, Options{})

	checks := map[string]string{
		"root.type":                          "root",
		"root.children.#":                    "1",
		"root.children.0.type":               "paragraph",
		"root.children.0.children.#":         "1",
		"root.children.0.children.0.type":    "text",
		"root.children.0.children.0.text":    "Hello world",
		"root.children.0.children.0.version": "1",
	}
	for path, want := range checks {
		if got := gjson.GetBytes(b, path).String(); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
	if gjson.GetBytes(b, "selection").Exists() {
		t.Error("selection exported without Options.Selection")
	}
}

func TestRoundTrip(t *testing.T) {
	reg := registry(t)
	s := richDocument(t, reg)
	first := mustExport(t, s, reg, Options{})

	imported, err := Import(first, reg)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	second := mustExport(t, imported, reg, Options{})
	if !bytes.Equal(first, second) {
		t.Errorf("round trip changed the document:\n%s\n%s", first, second)
	}
	if imported.Len() != s.Len() {
		t.Errorf("node count = %d, want %d", imported.Len(), s.Len())
	}
	inline := reg.IsInline
	if got, want := imported.TextContent(inline), s.TextContent(inline); got != want {
		t.Errorf("TextContent = %q, want %q", got, want)
	}
	for _, k := range s.Keys() {
		if k != node.RootKey && imported.Has(k) {
			t.Errorf("key %s reused on import", k)
		}
	}
}

func TestRoundTripIndented(t *testing.T) {
	reg := registry(t)
	s := richDocument(t, reg)
	b, err := ExportIndent(s, reg, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(b, []byte("\n  ")) {
		t.Errorf("ExportIndent output is not indented: %s", b)
	}
	imported, err := Import(b, reg)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !bytes.Equal(mustExport(t, imported, reg, Options{}), mustExport(t, s, reg, Options{})) {
		t.Error("indented round trip changed the document")
	}
}

func TestSelectionRoundTrip(t *testing.T) {
	reg := node.NewRegistry()
	var text node.Key
	s := build(t, reg, func(tx *txn.Tx) {
		for _, c := range []string{"first", "second"} {
			p := tx.NewParagraph()
			tx.Append(node.RootKey, p.Key)
			txt := tx.NewText(c)
			tx.Append(p.Key, txt.Key)
			text = txt.Key
		}
		if err := tx.Select(selection.TextPoint(text, 1), selection.TextPoint(text, 4)); err != nil {
			t.Fatal(err)
		}
	})
	b := mustExport(t, s, reg, Options{Selection: true})
	if got := gjson.GetBytes(b, "selection.anchor.path").Raw; got != "[1,0]" {
		t.Errorf("anchor path = %s, want [1,0]", got)
	}

	imported, err := Import(b, reg)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	rs, ok := imported.Selection().(*selection.RangeSelection)
	if !ok {
		t.Fatalf("selection = %T", imported.Selection())
	}
	p := imported.Children(node.RootKey)[1]
	want := imported.Children(p)[0]
	if !rs.Anchor.Is(selection.TextPoint(want, 1)) || !rs.Focus.Is(selection.TextPoint(want, 4)) {
		t.Errorf("selection = %v..%v, want %s 1..4", rs.Anchor, rs.Focus, want)
	}
}

func TestImportErrors(t *testing.T) {
	reg := node.NewRegistry()
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"invalid json", `{"root":`, ErrMalformed},
		{"no root", `{"doc":{}}`, ErrMalformed},
		{"wrong root type", `{"root":{"type":"paragraph"}}`, ErrMalformed},
		{"children not array", `{"root":{"type":"root","children":{}}}`, ErrMalformed},
		{"nested root", `{"root":{"children":[{"type":"root"}]}}`, ErrMalformed},
		{"unknown type", `{"root":{"children":[{"type":"table","version":1}]}}`, node.ErrUnknownType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Import([]byte(tt.in), reg)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestImportMinimal(t *testing.T) {
	reg := node.NewRegistry()
	s, err := Import([]byte(`{"root":{"children":[{"type":"paragraph","children":[{"type":"text","text":"hi"}]}]}}`), reg)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got := s.TextContent(reg.IsInline); got != "hi" {
		t.Errorf("TextContent = %q", got)
	}
}

func TestHTML(t *testing.T) {
	reg := registry(t)
	s := richDocument(t, reg)
	got, err := HTML(s, reg, &node.Theme{Classes: map[string]string{"text.bold": "b"}})
	if err != nil {
		t.Fatal(err)
	}
	want := `<p style="text-align: center; padding-inline-start: calc(2 * 40px)" dir="ltr">` +
		`<span>plain </span><strong class="b" style="color: red">bold</strong><br/>` +
		`<span data-mode="token">@mention</span></p>` +
		`<div contenteditable="false" data-decorator="image"></div>` +
		`<p dir="rtl"><span>שלום</span></p><p></p>`
	if got != want {
		t.Errorf("HTML =\n%s\nwant\n%s", got, want)
	}
}
