package node

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
)

// Registry errors.
var (
	// ErrUnknownType indicates a node type that was never registered.
	ErrUnknownType = errors.New("node: unknown node type")

	// ErrDuplicateType indicates a type registered twice.
	ErrDuplicateType = errors.New("node: type already registered")

	// ErrInvalidKlass indicates a registration missing required hooks.
	ErrInvalidKlass = errors.New("node: invalid node type registration")

	// ErrKindMismatch indicates a hook received a node of the wrong kind.
	ErrKindMismatch = errors.New("node: node kind does not match registration")
)

// Klass is the per-type implementation table used for dispatch.
//
// CreateDOM builds the DOM element for a node; it must not create DOM for
// children. UpdateDOM patches dom in place to reflect next and returns true
// when the element has to be recreated instead. ExportJSON encodes the node
// without children; ImportJSON decodes fields into a node returned by New.
type Klass struct {
	Type    string
	Kind    Kind
	Inline  bool
	Version int

	New        func() Node
	CreateDOM  func(n Node, th *Theme) *html.Node
	UpdateDOM  func(prev, next Node, dom *html.Node, th *Theme, w *DOMWriter) bool
	ExportJSON func(n Node) ([]byte, error)
	ImportJSON func(n Node, obj gjson.Result) error
}

// Registry maps type names to their implementations.
type Registry struct {
	mu      sync.RWMutex
	klasses map[string]*Klass
}

// NewRegistry returns a registry holding the built-in node types:
// root, paragraph, text, linebreak and decorator.
func NewRegistry() *Registry {
	r := &Registry{klasses: make(map[string]*Klass)}
	for _, k := range builtinKlasses() {
		r.klasses[k.Type] = k
	}
	return r
}

// Register adds a node type. Missing DOM hooks default to the hooks of the
// kind's built-in type.
func (r *Registry) Register(k Klass) error {
	if k.Type == "" || k.New == nil || k.Kind == 0 {
		return fmt.Errorf("%w: %q", ErrInvalidKlass, k.Type)
	}
	fillDefaults(&k)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.klasses[k.Type]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateType, k.Type)
	}
	r.klasses[k.Type] = &k
	return nil
}

// RegisterElement registers a block or inline element type rendered as tag.
func (r *Registry) RegisterElement(typ, tag string, inline bool) error {
	return r.Register(Klass{
		Type:      typ,
		Kind:      KindElement,
		Inline:    inline,
		New:       func() Node { return NewElement(typ) },
		CreateDOM: elementDOMFactory(tag),
	})
}

// RegisterDecorator registers a decorator type.
func (r *Registry) RegisterDecorator(typ string, inline bool) error {
	return r.Register(Klass{
		Type:   typ,
		Kind:   KindDecorator,
		Inline: inline,
		New:    func() Node { return NewDecorator(typ, nil, inline) },
	})
}

// Lookup returns the implementation of typ.
func (r *Registry) Lookup(typ string) (*Klass, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.klasses[typ]
	return k, ok
}

// MustLookup returns the implementation of typ or panics with ErrUnknownType.
func (r *Registry) MustLookup(typ string) *Klass {
	k, ok := r.Lookup(typ)
	if !ok {
		panic(fmt.Errorf("%w: %q", ErrUnknownType, typ))
	}
	return k
}

// Has reports whether typ is registered.
func (r *Registry) Has(typ string) bool {
	_, ok := r.Lookup(typ)
	return ok
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.klasses))
	for t := range r.klasses {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// IsInline reports whether n is an inline node: text, line breaks, inline
// decorators and elements registered as inline.
func (r *Registry) IsInline(n Node) bool {
	switch n.Kind() {
	case KindText, KindLineBreak:
		return true
	case KindDecorator:
		if d, ok := AsDecorator(n); ok {
			return d.Inline
		}
	case KindElement:
		if k, ok := r.Lookup(n.Meta().Type); ok {
			return k.Inline
		}
	}
	return false
}

func fillDefaults(k *Klass) {
	switch k.Kind {
	case KindText:
		if k.CreateDOM == nil {
			k.CreateDOM = createTextDOM
		}
		if k.UpdateDOM == nil {
			k.UpdateDOM = updateTextDOM
		}
		if k.ExportJSON == nil {
			k.ExportJSON = exportTextJSON(k)
		}
		if k.ImportJSON == nil {
			k.ImportJSON = importTextJSON
		}
	case KindElement, KindRoot:
		if k.CreateDOM == nil {
			k.CreateDOM = elementDOMFactory("div")
		}
		if k.UpdateDOM == nil {
			k.UpdateDOM = updateElementDOM
		}
		if k.ExportJSON == nil {
			k.ExportJSON = exportElementJSON(k)
		}
		if k.ImportJSON == nil {
			k.ImportJSON = importElementJSON
		}
	case KindLineBreak:
		if k.CreateDOM == nil {
			k.CreateDOM = createLineBreakDOM
		}
		if k.UpdateDOM == nil {
			k.UpdateDOM = updateNothing
		}
		if k.ExportJSON == nil {
			k.ExportJSON = exportLineBreakJSON(k)
		}
		if k.ImportJSON == nil {
			k.ImportJSON = importNothing
		}
	case KindDecorator:
		if k.CreateDOM == nil {
			k.CreateDOM = createDecoratorDOM
		}
		if k.UpdateDOM == nil {
			k.UpdateDOM = updateNothing
		}
		if k.ExportJSON == nil {
			k.ExportJSON = exportDecoratorJSON(k)
		}
		if k.ImportJSON == nil {
			k.ImportJSON = importDecoratorJSON
		}
	}
}

func builtinKlasses() []*Klass {
	ks := []Klass{
		{Type: TypeRoot, Kind: KindRoot, New: func() Node { return NewRoot() }},
		{Type: TypeParagraph, Kind: KindElement, New: func() Node { return NewParagraph() }, CreateDOM: elementDOMFactory("p")},
		{Type: TypeText, Kind: KindText, Inline: true, New: func() Node { return NewText("") }},
		{Type: TypeLineBreak, Kind: KindLineBreak, Inline: true, New: func() Node { return NewLineBreak() }},
		{Type: TypeDecorator, Kind: KindDecorator, New: func() Node { return NewDecorator(TypeDecorator, nil, false) }},
	}
	out := make([]*Klass, len(ks))
	for i := range ks {
		k := ks[i]
		fillDefaults(&k)
		out[i] = &k
	}
	return out
}
