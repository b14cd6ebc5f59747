package reconciler

import (
	"bytes"

	"golang.org/x/net/html"

	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/selection"
)

// DOMPoint is a position inside the DOM: a byte offset into a text node or
// a child index into an element.
type DOMPoint struct {
	Node   *html.Node
	Offset int
}

// DOMSelection mirrors a range selection onto the DOM.
type DOMSelection struct {
	Anchor DOMPoint
	Focus  DOMPoint
}

// DOMPointOf maps a selection point to the DOM.
func (r *Reconciler) DOMPointOf(p selection.Point) (DOMPoint, bool) {
	d, ok := r.doms[p.Key]
	if !ok {
		return DOMPoint{}, false
	}
	if p.Type == selection.PointText {
		if d.FirstChild == nil || d.FirstChild.Type != html.TextNode {
			return DOMPoint{}, false
		}
		return DOMPoint{Node: d.FirstChild, Offset: p.Offset}, true
	}
	return DOMPoint{Node: d, Offset: p.Offset}, true
}

// PointOf maps a DOM position back to a selection point.
func (r *Reconciler) PointOf(dp DOMPoint) (selection.Point, bool) {
	if dp.Node == nil {
		return selection.Point{}, false
	}
	if dp.Node.Type == html.TextNode {
		k, ok := r.keys[dp.Node.Parent]
		if !ok {
			return selection.Point{}, false
		}
		return selection.TextPoint(k, dp.Offset), true
	}
	k, ok := r.keys[dp.Node]
	if !ok {
		return selection.Point{}, false
	}
	if r.rendered == nil {
		return selection.Point{}, false
	}
	if n, ok := r.rendered.Get(k); ok && n.Kind() == node.KindText {
		return selection.TextPoint(k, dp.Offset), true
	}
	return selection.ElementPoint(k, dp.Offset), true
}

// SyncSelection mirrors sel onto the DOM. Node selections and points
// without DOM clear the DOM selection.
func (r *Reconciler) SyncSelection(sel selection.Selection) {
	r.domSel = nil
	rs, ok := sel.(*selection.RangeSelection)
	if !ok || rs == nil {
		return
	}
	a, ok := r.DOMPointOf(rs.Anchor)
	if !ok {
		return
	}
	f, ok := r.DOMPointOf(rs.Focus)
	if !ok {
		return
	}
	r.domSel = &DOMSelection{Anchor: a, Focus: f}
}

// DOMSelection returns the current DOM selection, or nil.
func (r *Reconciler) DOMSelection() *DOMSelection {
	return r.domSel
}

// InnerHTML renders the children of n.
func InnerHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
