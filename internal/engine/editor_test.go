package engine

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html"

	"github.com/dshills/inkwell/internal/engine/codec"
	"github.com/dshills/inkwell/internal/engine/command"
	"github.com/dshills/inkwell/internal/engine/history"
	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/reconciler"
	"github.com/dshills/inkwell/internal/engine/selection"
	"github.com/dshills/inkwell/internal/engine/state"
	"github.com/dshills/inkwell/internal/engine/txn"
)

// paragraphOf returns the first paragraph of the committed document.
func paragraphOf(t *testing.T, ed *Editor) node.Key {
	t.Helper()
	kids := ed.State().Children(node.RootKey)
	if len(kids) == 0 {
		t.Fatal("document has no paragraph")
	}
	return kids[0]
}

// appendText adds a text node to the first paragraph and returns its key.
func appendText(t *testing.T, ed *Editor, content string) node.Key {
	t.Helper()
	p := paragraphOf(t, ed)
	var key node.Key
	err := ed.Update(func(tx *txn.Tx) error {
		txt := tx.NewText(content)
		txt.Detail = node.DetailUnmergeable
		key = txt.Key
		tx.Append(p, key)
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	return key
}

func textOf(t *testing.T, s *state.EditorState, key node.Key) string {
	t.Helper()
	n, ok := s.Get(key)
	if !ok {
		t.Fatalf("node %s missing", key)
	}
	txt, ok := node.AsText(n)
	if !ok {
		t.Fatalf("node %s is %T", key, n)
	}
	return txt.Content
}

func newRootElement() *html.Node {
	return node.NewDOMElement("div")
}

func innerHTML(t *testing.T, n *html.Node) string {
	t.Helper()
	s, err := reconciler.InnerHTML(n)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestHelloWorld(t *testing.T) {
	ed := New()
	p := paragraphOf(t, ed)

	var text node.Key
	err := ed.Update(func(tx *txn.Tx) error {
		txt := tx.NewText("Hello world")
		text = txt.Key
		tx.Append(p, txt.Key)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := ed.State().Len(); got != 3 {
		t.Fatalf("node map has %d entries, want 3", got)
	}

	b, err := ed.Export(codec.Options{})
	if err != nil {
		t.Fatal(err)
	}
	checks := map[string]string{
		"root.children.#":                 "1",
		"root.children.0.type":            "paragraph",
		"root.children.0.children.#":      "1",
		"root.children.0.children.0.type": "text",
		"root.children.0.children.0.text": "Hello world",
	}
	for path, want := range checks {
		if got := gjson.GetBytes(b, path).String(); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}

	err = ed.Update(func(tx *txn.Tx) error {
		if err := tx.Select(selection.TextPoint(text, 6), selection.TextPoint(text, 11)); err != nil {
			return err
		}
		tx.DeleteSelection()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := ed.TextContent(); got != "Hello " {
		t.Errorf("TextContent = %q, want %q", got, "Hello ")
	}
	s := ed.State()
	kids := s.Children(p)
	if len(kids) != 1 {
		t.Fatalf("paragraph has %d children, want 1", len(kids))
	}
	if got := textOf(t, s, kids[0]); got != "Hello " {
		t.Errorf("text = %q", got)
	}
}

func TestBatchCommitsOnce(t *testing.T) {
	ed := New()
	a := appendText(t, ed, "a")
	b := appendText(t, ed, "b")
	rev := ed.State().Revision()

	var calls int
	ed.RegisterUpdateListener(func(*txn.Result) { calls++ })

	err := ed.Batch(func() error {
		if err := ed.Update(func(tx *txn.Tx) error {
			tx.SetText(a, "A")
			return nil
		}); err != nil {
			return err
		}
		if ed.State().Revision() != rev {
			t.Error("update inside a batch committed early")
		}
		return ed.Update(func(tx *txn.Tx) error {
			if got := tx.Text(a).Content; got != "A" {
				t.Errorf("second update read %q, want the first update's write", got)
			}
			tx.SetText(b, "B")
			return nil
		})
	})
	if err != nil {
		t.Fatal(err)
	}

	s := ed.State()
	if calls != 1 {
		t.Errorf("listener called %d times, want 1", calls)
	}
	if s.Revision() != rev+1 {
		t.Errorf("revision = %d, want %d", s.Revision(), rev+1)
	}
	if textOf(t, s, a) != "A" || textOf(t, s, b) != "B" {
		t.Errorf("texts = %q %q", textOf(t, s, a), textOf(t, s, b))
	}
}

func TestNestedUpdateFlattens(t *testing.T) {
	ed := New()
	a := appendText(t, ed, "a")
	rev := ed.State().Revision()

	err := ed.Update(func(tx *txn.Tx) error {
		tx.SetText(a, "x")
		return ed.Update(func(inner *txn.Tx) error {
			if inner != tx {
				t.Error("nested update got a different transaction")
			}
			inner.SetText(a, inner.Text(a).Content+"y")
			return nil
		})
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := ed.State().Revision(); got != rev+1 {
		t.Errorf("revision = %d, want %d", got, rev+1)
	}
	if got := textOf(t, ed.State(), a); got != "xy" {
		t.Errorf("text = %q", got)
	}
}

func TestUpdateErrorRollsBack(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		fn   func(tx *txn.Tx, key node.Key) error
		want error
	}{
		{"returned error", func(tx *txn.Tx, key node.Key) error {
			tx.SetText(key, "changed")
			return boom
		}, boom},
		{"invariant panic", func(tx *txn.Tx, key node.Key) error {
			tx.SetText(key, "changed")
			tx.Writable("missing")
			return nil
		}, txn.ErrStaleKey},
		{"nested error ignored by caller", func(tx *txn.Tx, key node.Key) error {
			tx.SetText(key, "changed")
			return nil
		}, boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var handled []error
			ed := New(WithErrorHandler(func(err error) error {
				handled = append(handled, err)
				return err
			}))
			key := appendText(t, ed, "orig")
			before := ed.State()
			calls := 0
			ed.RegisterUpdateListener(func(*txn.Result) { calls++ })

			err := ed.Update(func(tx *txn.Tx) error {
				if tt.name == "nested error ignored by caller" {
					_ = ed.Update(func(*txn.Tx) error { return boom })
				}
				return tt.fn(tx, key)
			})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if len(handled) != 1 {
				t.Errorf("error handler called %d times, want 1", len(handled))
			}
			if ed.State() != before {
				t.Error("failed update replaced the state")
			}
			if calls != 0 {
				t.Error("listener notified for a rolled back update")
			}
			if ed.Pending() {
				t.Error("pending transaction survived the failure")
			}
		})
	}
}

func TestBatchErrorDiscardsEarlierUpdates(t *testing.T) {
	ed := New()
	a := appendText(t, ed, "a")
	before := ed.State()

	err := ed.Batch(func() error {
		_ = ed.Update(func(tx *txn.Tx) error {
			tx.SetText(a, "first")
			return nil
		})
		return ed.Update(func(*txn.Tx) error { return errors.New("second failed") })
	})
	if err == nil {
		t.Fatal("Batch succeeded")
	}
	if ed.State() != before {
		t.Errorf("text = %q, want the batch discarded", textOf(t, ed.State(), a))
	}
}

func TestErrorHandlerCanSwallow(t *testing.T) {
	var seen error
	ed := New(WithErrorHandler(func(err error) error {
		seen = err
		return nil
	}))
	err := ed.Update(func(*txn.Tx) error { return errors.New("ignored") })
	if err != nil {
		t.Errorf("Update = %v, want nil", err)
	}
	if seen == nil {
		t.Error("handler was not called")
	}
}

func TestDiscreteCommitsInsideBatch(t *testing.T) {
	ed := New()
	a := appendText(t, ed, "a")
	rev := ed.State().Revision()

	_ = ed.Batch(func() error {
		if err := ed.Update(func(tx *txn.Tx) error {
			tx.SetText(a, "now")
			return nil
		}, Discrete()); err != nil {
			t.Fatal(err)
		}
		if got := ed.State().Revision(); got != rev+1 {
			t.Errorf("discrete update not committed: revision %d", got)
		}
		return nil
	})
}

func TestOnUpdateAndTags(t *testing.T) {
	ed := New()
	a := appendText(t, ed, "a")

	var order []string
	ed.RegisterUpdateListener(func(res *txn.Result) {
		if !res.HasTag(TagCollaboration) {
			t.Error("tag missing from result")
		}
		order = append(order, "listener")
	})
	err := ed.Update(func(tx *txn.Tx) error {
		tx.SetText(a, "b")
		return nil
	}, Tag(TagCollaboration), OnUpdate(func() { order = append(order, "callback") }))
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"listener", "callback"}; !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestListenerUpdateOpensNewTransaction(t *testing.T) {
	ed := New()
	a := appendText(t, ed, "a")

	var revs []uint64
	ed.RegisterUpdateListener(func(res *txn.Result) {
		revs = append(revs, res.Next.Revision())
		if len(revs) == 1 {
			if err := ed.Update(func(tx *txn.Tx) error {
				tx.SetText(a, "from listener")
				return nil
			}); err != nil {
				t.Error(err)
			}
			if ed.State() != res.Next {
				t.Error("listener update committed during notification")
			}
		}
	})

	start := ed.State().Revision()
	err := ed.Update(func(tx *txn.Tx) error {
		tx.SetText(a, "b")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := []uint64{start + 1, start + 2}; !reflect.DeepEqual(revs, want) {
		t.Errorf("revisions = %v, want %v", revs, want)
	}
	if got := textOf(t, ed.State(), a); got != "from listener" {
		t.Errorf("text = %q", got)
	}
}

func TestTransformLoopIsReported(t *testing.T) {
	var handled error
	ed := New(WithErrorHandler(func(err error) error {
		handled = err
		return err
	}))
	ed.RegisterNodeTransform(node.TypeText, func(tx *txn.Tx, key node.Key) error {
		tx.Writable(key)
		return nil
	})
	before := ed.State()

	err := ed.Update(func(tx *txn.Tx) error {
		tx.Append(paragraphOf(t, ed), tx.NewText("x").Key)
		return nil
	})
	if !errors.Is(err, txn.ErrInfiniteTransformLoop) {
		t.Fatalf("err = %v, want ErrInfiniteTransformLoop", err)
	}
	if !errors.Is(handled, txn.ErrInfiniteTransformLoop) {
		t.Errorf("handler saw %v", handled)
	}
	if ed.State() != before {
		t.Error("state changed after a failed commit")
	}
}

func TestRegisterNodeTransform(t *testing.T) {
	ed := New(WithHistory(history.NewHistory(0, 0)))
	a := appendText(t, ed, "quiet")
	undo := ed.History().UndoCount()

	upper := func(tx *txn.Tx, key node.Key) error {
		if s := strings.ToUpper(tx.Text(key).Content); s != tx.Text(key).Content {
			tx.SetText(key, s)
		}
		return nil
	}
	remove := ed.RegisterNodeTransform(node.TypeText, upper)
	if got := textOf(t, ed.State(), a); got != "QUIET" {
		t.Errorf("existing node not transformed: %q", got)
	}
	if got := ed.History().UndoCount(); got != undo {
		t.Errorf("registration added %d history entries", got-undo)
	}

	b := appendText(t, ed, "loud")
	if got := textOf(t, ed.State(), b); got != "LOUD" {
		t.Errorf("new node not transformed: %q", got)
	}

	remove()
	remove()
	c := appendText(t, ed, "soft")
	if got := textOf(t, ed.State(), c); got != "soft" {
		t.Errorf("transform ran after removal: %q", got)
	}

	err := ed.Update(func(tx *txn.Tx) error {
		tx.Writable(a)
		return nil
	}, SkipTransforms())
	if err != nil {
		t.Fatal(err)
	}
}

func TestMutationListener(t *testing.T) {
	ed := New()
	var got []map[node.Key]Mutation
	ed.RegisterMutationListener(node.TypeText, func(m map[node.Key]Mutation, _ *txn.Result) {
		got = append(got, m)
	})

	a := appendText(t, ed, "a")
	if err := ed.Update(func(tx *txn.Tx) error {
		tx.SetText(a, "b")
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := ed.Update(func(tx *txn.Tx) error {
		tx.Remove(a)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	// Selection-only commits touch no text nodes.
	if err := ed.Update(func(tx *txn.Tx) error {
		tx.ClearSelection()
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	want := []map[node.Key]Mutation{
		{a: MutationCreated},
		{a: MutationUpdated},
		{a: MutationDestroyed},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mutations = %v, want %v", got, want)
	}
}

func TestTextContentListener(t *testing.T) {
	ed := New()
	var texts []string
	remove := ed.RegisterTextContentListener(func(s string) { texts = append(texts, s) })

	a := appendText(t, ed, "hi")
	if err := ed.Update(func(tx *txn.Tx) error {
		return tx.Select(selection.TextPoint(a, 0), selection.TextPoint(a, 2))
	}); err != nil {
		t.Fatal(err)
	}
	remove()
	appendText(t, ed, "!")

	if want := []string{"hi"}; !reflect.DeepEqual(texts, want) {
		t.Errorf("texts = %q, want %q", texts, want)
	}
}

func TestRootElement(t *testing.T) {
	ed := New()
	a := appendText(t, ed, "Hello")

	var roots []*html.Node
	ed.RegisterRootListener(func(root, _ *html.Node) { roots = append(roots, root) })

	el := newRootElement()
	if err := ed.SetRootElement(el); err != nil {
		t.Fatal(err)
	}
	if got, want := innerHTML(t, el), `<p dir="ltr"><span>Hello</span></p>`; got != want {
		t.Errorf("after attach = %s, want %s", got, want)
	}

	if err := ed.SetRootElement(nil); err != nil {
		t.Fatal(err)
	}
	if err := ed.Update(func(tx *txn.Tx) error {
		tx.SetText(a, "Bye")
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(innerHTML(t, el), "Hello") {
		t.Error("detached root was written to")
	}

	if err := ed.SetRootElement(el); err != nil {
		t.Fatal(err)
	}
	if got, want := innerHTML(t, el), `<p dir="ltr"><span>Bye</span></p>`; got != want {
		t.Errorf("after reattach = %s, want %s", got, want)
	}
	if want := []*html.Node{nil, el, nil, el}; !reflect.DeepEqual(roots, want) {
		t.Errorf("root listener saw %d calls, want %d", len(roots), len(want))
	}
}

func TestDOMSelectionFollowsCommits(t *testing.T) {
	ed := New()
	a := appendText(t, ed, "Hello")
	if err := ed.SetRootElement(newRootElement()); err != nil {
		t.Fatal(err)
	}
	if err := ed.Update(func(tx *txn.Tx) error {
		return tx.Select(selection.TextPoint(a, 1), selection.TextPoint(a, 3))
	}); err != nil {
		t.Fatal(err)
	}
	ds := ed.DOMSelection()
	if ds == nil || ds.Anchor.Offset != 1 || ds.Focus.Offset != 3 || ds.Anchor.Node.Data != "Hello" {
		t.Fatalf("DOM selection = %+v", ds)
	}

	if err := ed.Update(func(tx *txn.Tx) error {
		return tx.Select(selection.TextPoint(a, 0), selection.TextPoint(a, 0))
	}, Tag(TagSkipDOMSelection)); err != nil {
		t.Fatal(err)
	}
	if ed.DOMSelection().Anchor.Offset != 1 {
		t.Error("DOM selection moved despite TagSkipDOMSelection")
	}

	changed := 0
	RegisterCommand(ed, command.SelectionChange, command.PriorityEditor, func(*Editor, command.Empty) bool {
		changed++
		return true
	})
	if err := ed.SelectDOM(reconciler.DOMSelection{
		Anchor: reconciler.DOMPoint{Node: ds.Anchor.Node, Offset: 2},
		Focus:  reconciler.DOMPoint{Node: ds.Anchor.Node, Offset: 4},
	}); err != nil {
		t.Fatal(err)
	}
	rs, ok := ed.State().Selection().(*selection.RangeSelection)
	if !ok || !rs.Anchor.Is(selection.TextPoint(a, 2)) || !rs.Focus.Is(selection.TextPoint(a, 4)) {
		t.Errorf("selection = %v", ed.State().Selection())
	}
	if changed != 1 {
		t.Errorf("SELECTION_CHANGE dispatched %d times", changed)
	}

	ed.Blur()
	if ed.DOMSelection() != nil {
		t.Error("Blur kept the DOM selection")
	}
	ed.Focus()
	if ed.DOMSelection() == nil {
		t.Error("Focus did not restore the DOM selection")
	}
}

func TestReconcileFailureKeepsState(t *testing.T) {
	reg := node.NewRegistry()
	fail := true
	err := reg.Register(node.Klass{
		Type: "fragile",
		Kind: node.KindElement,
		New:  func() node.Node { return node.NewElement("fragile") },
		CreateDOM: func(node.Node, *node.Theme) *html.Node {
			if fail {
				return nil
			}
			return node.NewDOMElement("section")
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	var handled error
	ed := New(WithRegistry(reg), WithErrorHandler(func(err error) error {
		handled = err
		return nil
	}))
	el := newRootElement()
	if err := ed.SetRootElement(el); err != nil {
		t.Fatal(err)
	}

	if err := ed.Update(func(tx *txn.Tx) error {
		tx.Append(node.RootKey, tx.NewElement("fragile").Key)
		return nil
	}); err != nil {
		t.Fatalf("Update = %v, want the handler to swallow it", err)
	}
	var rerr *reconciler.Error
	if !errors.As(handled, &rerr) {
		t.Fatalf("handler saw %v, want *reconciler.Error", handled)
	}
	if got := len(ed.State().Children(node.RootKey)); got != 2 {
		t.Fatalf("root has %d children, want the commit kept", got)
	}

	fail = false
	appendText(t, ed, "ok")
	if got, want := innerHTML(t, el), `<p dir="ltr"><span>ok</span></p><section></section>`; got != want {
		t.Errorf("after recovery = %s, want %s", got, want)
	}
}

func TestSetEditorState(t *testing.T) {
	ed := New()
	appendText(t, ed, "saved")
	data, err := ed.Export(codec.Options{Selection: true})
	if err != nil {
		t.Fatal(err)
	}

	other := New()
	el := newRootElement()
	if err := other.SetRootElement(el); err != nil {
		t.Fatal(err)
	}
	parsed, err := other.ParseEditorState(data)
	if err != nil {
		t.Fatal(err)
	}

	var res *txn.Result
	other.RegisterUpdateListener(func(r *txn.Result) { res = r })
	rev := other.State().Revision()
	if err := other.SetEditorState(parsed); err != nil {
		t.Fatal(err)
	}
	if got := other.TextContent(); got != "saved" {
		t.Errorf("TextContent = %q", got)
	}
	if got := other.State().Revision(); got != rev+1 {
		t.Errorf("revision = %d, want %d", got, rev+1)
	}
	if res == nil || len(res.Dirty) != parsed.Len() || len(res.Removed) != 1 {
		t.Errorf("listener result = %+v", res)
	}
	if !strings.Contains(innerHTML(t, el), "saved") {
		t.Errorf("DOM = %s", innerHTML(t, el))
	}

	err = other.Update(func(*txn.Tx) error {
		return other.SetEditorState(parsed)
	})
	if !errors.Is(err, ErrInUpdate) {
		t.Errorf("SetEditorState inside Update = %v, want ErrInUpdate", err)
	}
}

func TestUndoRedo(t *testing.T) {
	ed := New(WithHistory(history.NewHistory(10, 0)))
	if err := ed.Undo(); !errors.Is(err, history.ErrNothingToUndo) {
		t.Fatalf("Undo on fresh editor = %v", err)
	}

	a := appendText(t, ed, "Hello")
	if err := ed.Update(func(tx *txn.Tx) error {
		tx.SetText(a, "Hello world")
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		op   func() error
		want string
	}{
		{ed.Undo, "Hello"},
		{ed.Undo, ""},
		{ed.Redo, "Hello"},
		{ed.Redo, "Hello world"},
	}
	for i, s := range steps {
		if err := s.op(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got := ed.TextContent(); got != s.want {
			t.Errorf("step %d: TextContent = %q, want %q", i, got, s.want)
		}
	}
	if got := ed.History().UndoCount(); got != 2 {
		t.Errorf("UndoCount = %d, want 2", got)
	}
	if err := New().Undo(); !errors.Is(err, ErrNoHistory) {
		t.Errorf("Undo without history = %v", err)
	}
}

func TestDispatchCommandBatches(t *testing.T) {
	ed := New()
	a := appendText(t, ed, "a")
	b := appendText(t, ed, "b")
	commits := 0
	ed.RegisterUpdateListener(func(*txn.Result) { commits++ })

	rename := command.New[string]("RENAME")
	RegisterCommand(ed, rename, command.PriorityEditor, func(e *Editor, s string) bool {
		for _, k := range []node.Key{a, b} {
			_ = e.Update(func(tx *txn.Tx) error {
				tx.SetText(k, s)
				return nil
			})
		}
		return true
	})
	unregister := RegisterCommand(ed, rename, command.PriorityHigh, func(*Editor, string) bool {
		return false
	})

	if !DispatchCommand(ed, rename, "z") {
		t.Fatal("command not handled")
	}
	if commits != 1 {
		t.Errorf("commits = %d, want 1", commits)
	}
	if textOf(t, ed.State(), a) != "z" || textOf(t, ed.State(), b) != "z" {
		t.Error("handler updates not applied")
	}

	unregister()
	if !ed.DispatchCommandName("RENAME", "y") {
		t.Error("DispatchCommandName not handled")
	}
	if ed.DispatchCommandName("UNKNOWN", nil) {
		t.Error("unknown command reported handled")
	}
}

func TestEditable(t *testing.T) {
	ed := New(WithEditable(false))
	if ed.IsEditable() {
		t.Fatal("WithEditable(false) ignored")
	}
	var seen []bool
	ed.RegisterEditableListener(func(b bool) { seen = append(seen, b) })
	ed.SetEditable(true)
	ed.SetEditable(true)
	ed.SetEditable(false)
	if want := []bool{true, false}; !reflect.DeepEqual(seen, want) {
		t.Errorf("editable notifications = %v, want %v", seen, want)
	}
}

func TestReadSeesCommittedStateOnly(t *testing.T) {
	ed := New()
	a := appendText(t, ed, "old")
	_ = ed.Batch(func() error {
		_ = ed.Update(func(tx *txn.Tx) error {
			tx.SetText(a, "new")
			return nil
		})
		return ed.Read(func(s *state.EditorState) error {
			if got := textOf(t, s, a); got != "old" {
				t.Errorf("Read saw %q inside a batch", got)
			}
			return nil
		})
	})
	if got := textOf(t, ed.State(), a); got != "new" {
		t.Errorf("after batch = %q", got)
	}
}

func TestOptions(t *testing.T) {
	ed := New(WithNamespace("notes"), WithInitialState(state.Empty()))
	if ed.Namespace() != "notes" {
		t.Errorf("Namespace = %q", ed.Namespace())
	}
	if ed.ID() == "" || ed.ID() == New().ID() {
		t.Error("editor IDs are not unique")
	}
	if got := ed.State().Len(); got != 1 {
		t.Errorf("initial state has %d nodes, want 1", got)
	}
	if New().Namespace() == "" {
		t.Error("default namespace is empty")
	}
}
