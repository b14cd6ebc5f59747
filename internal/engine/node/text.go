package node

// TypeText is the type name of plain text nodes.
const TypeText = "text"

// Text is a leaf holding a run of uniformly formatted text.
// Offsets into Content are byte offsets.
type Text struct {
	Base
	Content string
	Format  TextFormat
	Style   string
	Mode    TextMode
	Detail  TextDetail
}

// NewText returns a detached text node with no key assigned.
func NewText(content string) *Text {
	return &Text{Base: Base{Type: TypeText}, Content: content}
}

// Kind implements Node.
func (t *Text) Kind() Kind { return KindText }

// Clone implements Node.
func (t *Text) Clone() Node {
	c := *t
	return &c
}

// TextNode returns t.
func (t *Text) TextNode() *Text { return t }

// Len returns the content length in bytes.
func (t *Text) Len() int { return len(t.Content) }

// IsSimple reports whether the node is plain normal-mode text.
func (t *Text) IsSimple() bool {
	return t.Type == TypeText && t.Mode == ModeNormal
}

// IsToken reports whether the node is edited as one unit.
func (t *Text) IsToken() bool { return t.Mode == ModeToken }

// IsSegmented reports whether the node is deleted segment by segment.
func (t *Text) IsSegmented() bool { return t.Mode == ModeSegmented }

// IsInert reports whether the node is neither editable nor selectable.
func (t *Text) IsInert() bool { return t.Mode == ModeInert }

// IsUnmergeable reports whether normalisation must keep the node separate.
func (t *Text) IsUnmergeable() bool { return t.Detail&DetailUnmergeable != 0 }

// CanMergeWith reports whether o can be folded into t during normalisation.
func (t *Text) CanMergeWith(o *Text) bool {
	return t.IsSimple() && o.IsSimple() &&
		!t.IsUnmergeable() && !o.IsUnmergeable() &&
		t.Format == o.Format && t.Style == o.Style
}
