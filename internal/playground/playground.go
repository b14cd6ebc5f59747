package playground

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/inkwell/internal/engine"
	"github.com/dshills/inkwell/internal/engine/command"
	"github.com/dshills/inkwell/internal/engine/txn"
)

// QuitKey ends Run.
const QuitKey = "ctrl+q"

// Playground drives an editor from a terminal screen.
type Playground struct {
	screen tcell.Screen
	e      *engine.Editor
	keys   Keymap

	mu       sync.Mutex
	pasting  bool
	paste    strings.Builder
	status   string
	unlisten func()
}

// Option configures a Playground.
type Option func(*Playground)

// WithKeymap replaces the default bindings.
func WithKeymap(km Keymap) Option {
	return func(p *Playground) {
		p.keys = km
	}
}

// New creates a playground. The screen must already be initialised.
func New(screen tcell.Screen, e *engine.Editor, opts ...Option) *Playground {
	p := &Playground{
		screen: screen,
		e:      e,
		keys:   DefaultKeymap(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.unlisten = e.RegisterUpdateListener(func(*txn.Result) { p.Draw() })
	screen.EnablePaste()
	return p
}

// Close stops redrawing on commits.
func (p *Playground) Close() {
	p.unlisten()
}

// Status returns the status line message.
func (p *Playground) Status() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Playground) setStatus(format string, args ...any) {
	p.mu.Lock()
	p.status = fmt.Sprintf(format, args...)
	p.mu.Unlock()
}

// HandleEvent applies one screen event. It returns false when the user asked
// to quit.
func (p *Playground) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return p.handleKey(ev)
	case *tcell.EventPaste:
		p.handlePaste(ev)
	case *tcell.EventResize:
		p.screen.Sync()
		p.Draw()
	}
	return true
}

func (p *Playground) handleKey(ev *tcell.EventKey) bool {
	if p.pasting {
		switch ev.Key() {
		case tcell.KeyRune:
			p.paste.WriteRune(ev.Rune())
		case tcell.KeyEnter:
			p.paste.WriteByte('\n')
		case tcell.KeyTab:
			p.paste.WriteByte('\t')
		}
		return true
	}

	spec := KeySpec(ev)
	if spec == QuitKey {
		return false
	}
	if act, ok := p.keys[spec]; ok {
		if !act(p.e) {
			p.setStatus("%s: not handled", spec)
			p.Draw()
		}
		return true
	}
	if ev.Key() == tcell.KeyRune && ev.Modifiers()&(tcell.ModCtrl|tcell.ModAlt) == 0 {
		if !engine.DispatchCommand(p.e, command.InsertText, string(ev.Rune())) {
			p.setStatus("read-only")
			p.Draw()
		}
		return true
	}
	p.setStatus("%s: unbound", spec)
	p.Draw()
	return true
}

func (p *Playground) handlePaste(ev *tcell.EventPaste) {
	if ev.Start() {
		p.pasting = true
		p.paste.Reset()
		return
	}
	p.pasting = false
	if text := p.paste.String(); text != "" {
		engine.DispatchCommand(p.e, command.Paste, text)
	}
	p.paste.Reset()
}

// Draw renders the committed document and the status line.
func (p *Playground) Draw() {
	w, h := p.screen.Size()
	p.screen.Clear()

	layout := Project(p.e.State(), p.e.Registry())
	rows := h - 1
	top := 0
	if layout.HasCaret && layout.Caret.Row >= rows {
		top = layout.Caret.Row - rows + 1
	}
	for y := 0; y < rows && top+y < len(layout.Lines); y++ {
		x := 0
		for _, c := range layout.Lines[top+y] {
			if x >= w {
				break
			}
			runes := []rune(c.Text)
			p.screen.SetContent(x, y, runes[0], runes[1:], c.Style)
			x += c.Width
		}
	}

	if layout.HasCaret && layout.Caret.Col < w {
		p.screen.ShowCursor(layout.Caret.Col, layout.Caret.Row-top)
	} else {
		p.screen.HideCursor()
	}
	p.drawStatus(w, h-1)
	p.screen.Show()
}

func (p *Playground) drawStatus(w, y int) {
	mode := "edit"
	if !p.e.IsEditable() {
		mode = "read-only"
	}
	line := fmt.Sprintf(" rev %d  %s  %s", p.e.State().Revision(), mode, p.Status())
	style := tcell.StyleDefault.Reverse(true)
	x := 0
	for _, r := range line {
		if x >= w {
			return
		}
		p.screen.SetContent(x, y, r, nil, style)
		x++
	}
	for ; x < w; x++ {
		p.screen.SetContent(x, y, ' ', nil, style)
	}
}

// Run polls screen events and handles each one as a Loop task until the
// quit key, a finalised screen, or ctx ends it.
func (p *Playground) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := engine.NewLoop(p.e, 0)
	defer loop.Close()
	go loop.Run(ctx)

	if err := loop.Post(ctx, func(*engine.Editor) error {
		p.Draw()
		return nil
	}); err != nil {
		return err
	}

	events := make(chan tcell.Event)
	quit := make(chan struct{})
	go p.screen.ChannelEvents(events, quit)
	defer close(quit)

	for {
		var ev tcell.Event
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev = <-events:
		}
		if ev == nil {
			return nil
		}

		cont := true
		if err := loop.Post(ctx, func(*engine.Editor) error {
			cont = p.HandleEvent(ev)
			return nil
		}); err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
}
