package node

// Built-in leaf type names.
const (
	TypeLineBreak = "linebreak"
	TypeDecorator = "decorator"
)

// LineBreak is a soft break inside a block.
type LineBreak struct {
	Base
}

// NewLineBreak returns a detached line break.
func NewLineBreak() *LineBreak {
	return &LineBreak{Base: Base{Type: TypeLineBreak}}
}

// Kind implements Node.
func (l *LineBreak) Kind() Kind { return KindLineBreak }

// Clone implements Node.
func (l *LineBreak) Clone() Node {
	c := *l
	return &c
}

// Decorator is a leaf whose content is rendered by the host. The reconciler
// only creates its container and tells the host when it is mounted, moved or
// unmounted.
type Decorator struct {
	Base

	// Payload is handed to the host as is. It is copied by reference on
	// clone and must be treated as immutable once committed.
	Payload any

	// Inline decorators sit inside a block; block decorators are children of
	// the root or another block container.
	Inline bool
}

// NewDecorator returns a detached decorator of the given type.
func NewDecorator(typ string, payload any, inline bool) *Decorator {
	if typ == "" {
		typ = TypeDecorator
	}
	return &Decorator{Base: Base{Type: typ}, Payload: payload, Inline: inline}
}

// Kind implements Node.
func (d *Decorator) Kind() Kind { return KindDecorator }

// Clone implements Node.
func (d *Decorator) Clone() Node {
	c := *d
	return &c
}

// DecoratorNode returns d.
func (d *Decorator) DecoratorNode() *Decorator { return d }
