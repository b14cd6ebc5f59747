package node

// Built-in element type names.
const (
	TypeRoot      = "root"
	TypeParagraph = "paragraph"
)

// Element is a node with an ordered chain of children.
type Element struct {
	Base

	// First and Last are the keys of the first and last child.
	First Key
	Last  Key

	// Size is the number of children in the chain.
	Size int

	Format ElementFormat
	Indent int
	Dir    Direction
}

// NewElement returns a detached element of the given type.
func NewElement(typ string) *Element {
	return &Element{Base: Base{Type: typ}}
}

// NewParagraph returns a detached paragraph element.
func NewParagraph() *Element {
	return NewElement(TypeParagraph)
}

// Kind implements Node.
func (e *Element) Kind() Kind { return KindElement }

// Clone implements Node.
func (e *Element) Clone() Node {
	c := *e
	return &c
}

// ElementNode returns e.
func (e *Element) ElementNode() *Element { return e }

// IsEmpty reports whether the element has no children.
func (e *Element) IsEmpty() bool { return e.Size == 0 }

// Root is the element at the top of every tree.
type Root struct {
	Element
}

// NewRoot returns a root node with the fixed root key.
func NewRoot() *Root {
	return &Root{Element: Element{Base: Base{Key: RootKey, Type: TypeRoot}}}
}

// Kind implements Node.
func (r *Root) Kind() Kind { return KindRoot }

// Clone implements Node.
func (r *Root) Clone() Node {
	c := *r
	return &c
}
