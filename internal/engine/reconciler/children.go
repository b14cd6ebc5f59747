package reconciler

import (
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/bidi"

	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/state"
)

// reconcileChildren diffs the child lists of key by identity.
//
// Removed children are destroyed first. A surviving child counts as moved
// when its index among the survivors changed; moved children are detached,
// then the next order is walked with a cursor over the children left in
// place, inserting moved and new children before the cursor.
func (r *Reconciler) reconcileChildren(key node.Key, d *html.Node) {
	var prevKids []node.Key
	if n, ok := r.prev.Get(key); ok && node.IsContainer(n) {
		prevKids = r.prev.Children(key)
	}
	nextKids := r.next.Children(key)

	if sameKeys(prevKids, nextKids) {
		for _, c := range nextKids {
			if r.visit[c] {
				r.reconcile(c)
			}
		}
		return
	}

	inNext := make(map[node.Key]int, len(nextKids))
	for _, c := range nextKids {
		inNext[c] = 0
	}
	var survivors []node.Key
	for _, c := range prevKids {
		if _, ok := inNext[c]; ok {
			survivors = append(survivors, c)
			continue
		}
		r.remove(c, d)
	}

	prevIdx := make(map[node.Key]int, len(survivors))
	for i, c := range survivors {
		prevIdx[c] = i
	}
	i := 0
	for _, c := range nextKids {
		pi, ok := prevIdx[c]
		if !ok {
			continue
		}
		if pi != i {
			if cd, ok := r.doms[c]; ok && cd.Parent != nil {
				cd.Parent.RemoveChild(cd)
			}
		}
		i++
	}

	cur := d.FirstChild
	for _, c := range nextKids {
		if cd, ok := r.doms[c]; ok && cd == cur {
			cd = r.reconcile(c)
			cur = cd.NextSibling
			continue
		}
		d.InsertBefore(r.create(c), cur)
	}
}

// remove takes a child that left parent d. A child that still exists has
// moved elsewhere and only loses its place in d.
func (r *Reconciler) remove(key node.Key, d *html.Node) {
	cd, ok := r.doms[key]
	if r.next.Has(key) {
		if ok && cd.Parent == d {
			d.RemoveChild(cd)
		}
		return
	}
	r.release(key)
	if ok && cd.Parent != nil {
		cd.Parent.RemoveChild(cd)
	}
}

func sameKeys(a, b []node.Key) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// syncDir sets the dir attribute of block elements without an explicit
// direction from the first strong character of their text.
func (r *Reconciler) syncDir(key node.Key, n node.Node, d *html.Node, w *node.DOMWriter) {
	e, ok := node.AsElement(n)
	if !ok || key == node.RootKey || e.Dir != node.DirNone || r.reg.IsInline(n) {
		return
	}
	w.SetAttr(d, "dir", Direction(state.TextContent(r.next, key, r.reg.IsInline)))
}

// Direction returns "ltr" or "rtl" after the first strongly directional
// character of s, or "" when s has none.
func Direction(s string) string {
	for _, c := range s {
		p, _ := bidi.LookupRune(c)
		switch p.Class() {
		case bidi.L:
			return "ltr"
		case bidi.R, bidi.AL:
			return "rtl"
		}
	}
	return ""
}
