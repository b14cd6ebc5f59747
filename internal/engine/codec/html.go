package codec

import (
	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/reconciler"
	"github.com/dshills/inkwell/internal/engine/state"
)

// HTML renders s to markup by reconciling it into a detached root element.
func HTML(s *state.EditorState, reg *node.Registry, theme *node.Theme) (string, error) {
	r := reconciler.New(reg, theme, nil)
	root := node.NewDOMElement("div")
	r.SetRoot(root)
	if _, err := r.Reconcile(s, nil); err != nil {
		return "", err
	}
	return reconciler.InnerHTML(root)
}
