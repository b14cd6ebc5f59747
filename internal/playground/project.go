package playground

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/selection"
	"github.com/dshills/inkwell/internal/engine/state"
)

// Cell is one grapheme cluster on screen.
type Cell struct {
	Text  string
	Width int
	Style tcell.Style
}

// Pos is a screen position relative to the document origin.
type Pos struct {
	Row, Col int
}

// Layout is the plain-text projection of a state.
type Layout struct {
	Lines    [][]Cell
	Caret    Pos
	HasCaret bool
}

// Text returns the projected lines as strings.
func (l *Layout) Text() []string {
	out := make([]string, len(l.Lines))
	for i, line := range l.Lines {
		var b strings.Builder
		for _, c := range line {
			b.WriteString(c.Text)
		}
		out[i] = b.String()
	}
	return out
}

// Project lays s out as rows of cells. Each block starts a new row and line
// breaks start another. The caret sits at the selection focus.
func Project(s *state.EditorState, reg *node.Registry) *Layout {
	p := &projector{s: s, reg: reg, out: &Layout{Lines: [][]Cell{nil}}}
	if r, ok := s.Selection().(*selection.RangeSelection); ok {
		p.focus, p.hasFocus = r.Focus, true
	}
	p.children(node.RootKey, true)
	return p.out
}

type projector struct {
	s        *state.EditorState
	reg      *node.Registry
	out      *Layout
	focus    selection.Point
	hasFocus bool
	col      int
}

func (p *projector) row() int {
	return len(p.out.Lines) - 1
}

func (p *projector) newline() {
	p.out.Lines = append(p.out.Lines, nil)
	p.col = 0
}

func (p *projector) put(text string, width int, style tcell.Style) {
	r := p.row()
	p.out.Lines[r] = append(p.out.Lines[r], Cell{Text: text, Width: width, Style: style})
	p.col += width
}

func (p *projector) caretHere() {
	if !p.out.HasCaret {
		p.out.Caret = Pos{Row: p.row(), Col: p.col}
		p.out.HasCaret = true
	}
}

// markElement places the caret when the focus is the element point
// (key, index).
func (p *projector) markElement(key node.Key, index int) {
	if p.hasFocus && p.focus.Type == selection.PointElement && p.focus.Key == key && p.focus.Offset == index {
		p.caretHere()
	}
}

// children lays out the children of key. Block children after the first
// start on a new row.
func (p *projector) children(key node.Key, blocks bool) {
	kids := p.s.Children(key)
	for i, c := range kids {
		n, _ := p.s.Get(c)
		if i > 0 && (blocks || !p.reg.IsInline(n)) {
			p.newline()
		}
		p.markElement(key, i)
		p.node(c, n)
	}
	p.markElement(key, len(kids))
}

func (p *projector) node(key node.Key, n node.Node) {
	switch n.Kind() {
	case node.KindText:
		t, _ := node.AsText(n)
		p.text(key, t)
	case node.KindLineBreak:
		p.newline()
	case node.KindDecorator:
		p.put("◆", 1, tcell.StyleDefault.Dim(true))
	case node.KindElement:
		p.children(key, false)
	}
}

func (p *projector) text(key node.Key, t *node.Text) {
	mark := p.hasFocus && p.focus.Type == selection.PointText && p.focus.Key == key
	style := StyleFor(t.Format)

	g := uniseg.NewGraphemes(t.Content)
	for g.Next() {
		from, _ := g.Positions()
		if mark && p.focus.Offset == from {
			p.caretHere()
		}
		p.put(g.Str(), g.Width(), style)
	}
	if mark && p.focus.Offset >= len(t.Content) {
		p.caretHere()
	}
}

// StyleFor maps text formats to terminal attributes.
func StyleFor(f node.TextFormat) tcell.Style {
	st := tcell.StyleDefault
	if f.Has(node.FormatBold) {
		st = st.Bold(true)
	}
	if f.Has(node.FormatItalic) {
		st = st.Italic(true)
	}
	if f.Has(node.FormatUnderline) {
		st = st.Underline(true)
	}
	if f.Has(node.FormatStrikethrough) {
		st = st.StrikeThrough(true)
	}
	if f.Has(node.FormatCode) {
		st = st.Reverse(true)
	}
	if f.Has(node.FormatSubscript) || f.Has(node.FormatSuperscript) {
		st = st.Dim(true)
	}
	if f.Has(node.FormatHighlight) {
		st = st.Background(tcell.ColorYellow).Foreground(tcell.ColorBlack)
	}
	return st
}
