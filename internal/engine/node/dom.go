package node

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Theme maps node types and text formats to CSS class names.
// Keys are node type names ("paragraph", "text") or "text.<format>" for
// individual text formats ("text.bold").
type Theme struct {
	Classes map[string]string
}

// Class returns the class configured for name, or "".
func (t *Theme) Class(name string) string {
	if t == nil || t.Classes == nil {
		return ""
	}
	return t.Classes[name]
}

// DOMWriter applies attribute and text writes to DOM nodes and counts the
// writes that actually changed something. Writes that would leave the DOM
// unchanged are skipped.
type DOMWriter struct {
	writes int
}

// Writes returns the number of effective writes so far.
func (w *DOMWriter) Writes() int {
	if w == nil {
		return 0
	}
	return w.writes
}

// SetAttr sets an attribute; an empty value removes it.
func (w *DOMWriter) SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key != key || a.Namespace != "" {
			continue
		}
		if val == "" {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			w.count()
			return
		}
		if a.Val != val {
			n.Attr[i].Val = val
			w.count()
		}
		return
	}
	if val == "" {
		return
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	w.count()
}

// SetText replaces the data of a DOM text node.
func (w *DOMWriter) SetText(n *html.Node, s string) {
	if n.Data == s {
		return
	}
	n.Data = s
	w.count()
}

func (w *DOMWriter) count() {
	if w != nil {
		w.writes++
	}
}

// Attr returns the value of the attribute key on n.
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key && a.Namespace == "" {
			return a.Val
		}
	}
	return ""
}

// NewDOMElement returns a detached DOM element with the given tag.
func NewDOMElement(tag string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// textTag picks the tag of a text node's DOM element from its format.
func textTag(f TextFormat) string {
	switch {
	case f.Has(FormatCode):
		return "code"
	case f.Has(FormatHighlight):
		return "mark"
	case f.Has(FormatSubscript):
		return "sub"
	case f.Has(FormatSuperscript):
		return "sup"
	case f.Has(FormatBold):
		return "strong"
	case f.Has(FormatItalic):
		return "em"
	default:
		return "span"
	}
}

func textClasses(t *Text, th *Theme) string {
	var classes []string
	if c := th.Class(t.Type); c != "" {
		classes = append(classes, c)
	}
	for _, name := range t.Format.Names() {
		if c := th.Class("text." + name); c != "" {
			classes = append(classes, c)
		}
	}
	return strings.Join(classes, " ")
}

func createTextDOM(n Node, th *Theme) *html.Node {
	t, _ := AsText(n)
	el := NewDOMElement(textTag(t.Format))
	el.AppendChild(&html.Node{Type: html.TextNode, Data: t.Content})
	var w DOMWriter
	setTextAttrs(el, t, th, &w)
	return el
}

func updateTextDOM(prev, next Node, dom *html.Node, th *Theme, w *DOMWriter) bool {
	p, _ := AsText(prev)
	t, _ := AsText(next)
	if textTag(p.Format) != textTag(t.Format) {
		return true
	}
	if dom.FirstChild == nil || dom.FirstChild.Type != html.TextNode {
		return true
	}
	w.SetText(dom.FirstChild, t.Content)
	setTextAttrs(dom, t, th, w)
	return false
}

func setTextAttrs(el *html.Node, t *Text, th *Theme, w *DOMWriter) {
	w.SetAttr(el, "class", textClasses(t, th))
	w.SetAttr(el, "style", t.Style)
	if t.IsToken() || t.IsSegmented() || t.IsInert() {
		w.SetAttr(el, "data-mode", t.Mode.String())
	} else {
		w.SetAttr(el, "data-mode", "")
	}
}

func elementStyle(e *Element) string {
	var parts []string
	if f := e.Format.String(); f != "" {
		parts = append(parts, "text-align: "+f)
	}
	if e.Indent > 0 {
		parts = append(parts, "padding-inline-start: calc("+strconv.Itoa(e.Indent)+" * 40px)")
	}
	return strings.Join(parts, "; ")
}

func elementDOMFactory(tag string) func(Node, *Theme) *html.Node {
	return func(n Node, th *Theme) *html.Node {
		e, _ := AsElement(n)
		el := NewDOMElement(tag)
		var w DOMWriter
		setElementAttrs(el, e, th, &w)
		return el
	}
}

func updateElementDOM(prev, next Node, dom *html.Node, th *Theme, w *DOMWriter) bool {
	e, _ := AsElement(next)
	if p, ok := AsElement(prev); ok && p.Dir != DirNone && e.Dir == DirNone {
		// blocks get a computed direction back from the reconciler
		w.SetAttr(dom, "dir", "")
	}
	setElementAttrs(dom, e, th, w)
	return false
}

func setElementAttrs(el *html.Node, e *Element, th *Theme, w *DOMWriter) {
	w.SetAttr(el, "class", th.Class(e.Type))
	w.SetAttr(el, "style", elementStyle(e))
	if e.Dir != DirNone {
		w.SetAttr(el, "dir", e.Dir.String())
	}
}

func createLineBreakDOM(Node, *Theme) *html.Node {
	return NewDOMElement("br")
}

func createDecoratorDOM(n Node, th *Theme) *html.Node {
	tag := "div"
	if d, ok := AsDecorator(n); ok && d.Inline {
		tag = "span"
	}
	typ := n.Meta().Type
	el := NewDOMElement(tag)
	var w DOMWriter
	w.SetAttr(el, "contenteditable", "false")
	w.SetAttr(el, "data-decorator", typ)
	w.SetAttr(el, "class", th.Class(typ))
	return el
}

func updateNothing(Node, Node, *html.Node, *Theme, *DOMWriter) bool {
	return false
}
