package history

import (
	"errors"
	"testing"
	"time"

	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/engine/selection"
	"github.com/dshills/inkwell/internal/engine/state"
	"github.com/dshills/inkwell/internal/engine/txn"
)

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func commit(t *testing.T, prev *state.EditorState, fn func(tx *txn.Tx)) *txn.Result {
	t.Helper()
	tx := txn.Begin(prev, txn.Config{})
	fn(tx)
	res, err := tx.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return res
}

// fixture returns a history tracking a document with one text node.
func fixture(t *testing.T) (*History, *clock, *txn.Result, node.Key) {
	t.Helper()
	var key node.Key
	res := commit(t, state.Empty(), func(tx *txn.Tx) {
		p := tx.NewParagraph()
		tx.Append(node.RootKey, p.Key)
		txt := tx.NewText("a")
		tx.Append(p.Key, txt.Key)
		key = txt.Key
	})
	c := &clock{t: time.Unix(1000, 0)}
	h := NewHistory(10, 300*time.Millisecond)
	h.SetClock(c.now)
	h.Record(res)
	return h, c, res, key
}

func textOf(s *state.EditorState, key node.Key) string {
	t, _ := node.AsText(s.Latest(key))
	return t.Content
}

func typeText(t *testing.T, h *History, prev *txn.Result, key node.Key, s string, tags ...string) *txn.Result {
	t.Helper()
	res := commit(t, prev.Next, func(tx *txn.Tx) {
		tx.Tag(tags...)
		tx.Splice(key, len(tx.Text(key).Content), 0, s)
	})
	h.Record(res)
	return res
}

func TestTypingMerges(t *testing.T) {
	h, c, res, key := fixture(t)
	for _, s := range []string{"b", "c", "d"} {
		c.advance(100 * time.Millisecond)
		res = typeText(t, h, res, key, s)
	}
	if got := h.UndoCount(); got != 1 {
		t.Fatalf("UndoCount = %d, want 1", got)
	}

	s, err := h.Undo()
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if got := textOf(s, key); got != "a" {
		t.Errorf("after undo text = %q, want a", got)
	}
	if !h.CanRedo() || h.CanUndo() {
		t.Errorf("CanUndo/CanRedo = %v/%v", h.CanUndo(), h.CanRedo())
	}

	s, err = h.Redo()
	if err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if got := textOf(s, key); got != "abcd" {
		t.Errorf("after redo text = %q, want abcd", got)
	}
}

func TestMergeDelayExpires(t *testing.T) {
	h, c, res, key := fixture(t)
	res = typeText(t, h, res, key, "b")
	c.advance(time.Second)
	typeText(t, h, res, key, "c")
	if got := h.UndoCount(); got != 2 {
		t.Fatalf("UndoCount = %d, want 2", got)
	}
}

func TestInsertThenDeleteSplits(t *testing.T) {
	h, _, res, key := fixture(t)
	res = typeText(t, h, res, key, "b")
	res = commit(t, res.Next, func(tx *txn.Tx) {
		tx.Splice(key, 1, 1, "")
	})
	h.Record(res)
	if got := h.UndoCount(); got != 2 {
		t.Fatalf("UndoCount = %d, want 2", got)
	}
}

func TestTags(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want int
	}{
		{"push", []string{TagPush}, 2},
		{"merge", []string{TagMerge}, 1},
		{"historic", []string{TagHistoric}, 1},
		{"collaboration", []string{TagCollaboration}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, res, key := fixture(t)
			res = typeText(t, h, res, key, "b")
			typeText(t, h, res, key, "c", tt.tags...)
			if got := h.UndoCount(); got != tt.want {
				t.Errorf("UndoCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCollaborationMovesCurrent(t *testing.T) {
	h, c, res, key := fixture(t)
	res = typeText(t, h, res, key, "b")
	c.advance(time.Second)
	remote := typeText(t, h, res, key, "c", TagCollaboration)
	if h.Current() != remote.Next {
		t.Fatal("remote commit did not become current")
	}
	if h.CanRedo() {
		t.Error("remote commit touched the redo stack")
	}
	c.advance(time.Second)
	typeText(t, h, remote, key, "d")
	if got := h.UndoCount(); got != 2 {
		t.Fatalf("UndoCount = %d, want 2", got)
	}
	s, err := h.Undo()
	if err != nil {
		t.Fatal(err)
	}
	if got := textOf(s, key); got != "abc" {
		t.Errorf("undo restored %q, want abc", got)
	}
}

func TestSelectionOnlyChangeIsNotAnEntry(t *testing.T) {
	h, _, res, key := fixture(t)
	res = commit(t, res.Next, func(tx *txn.Tx) {
		if err := tx.Select(selection.TextPoint(key, 0), selection.TextPoint(key, 1)); err != nil {
			t.Fatal(err)
		}
	})
	h.Record(res)
	if h.CanUndo() {
		t.Error("selection change created an undo entry")
	}
	if h.Current() != res.Next {
		t.Error("current state not updated")
	}
}

func TestRedoClearedByNewChange(t *testing.T) {
	h, _, res, key := fixture(t)
	res = typeText(t, h, res, key, "b")
	if _, err := h.Undo(); err != nil {
		t.Fatal(err)
	}
	typeText(t, h, res, key, "x", TagPush)
	if h.CanRedo() {
		t.Error("redo survived a new change")
	}
}

func TestNothingToUndoOrRedo(t *testing.T) {
	h := NewHistory(0, 0)
	if _, err := h.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo err = %v", err)
	}
	if _, err := h.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo err = %v", err)
	}
	if h.MaxEntries() != DefaultMaxEntries {
		t.Errorf("MaxEntries = %d", h.MaxEntries())
	}
}

func TestMaxEntries(t *testing.T) {
	h, _, res, key := fixture(t)
	h.SetMaxEntries(3)
	for i := 0; i < 5; i++ {
		res = typeText(t, h, res, key, "x", TagPush)
	}
	if got := h.UndoCount(); got != 3 {
		t.Fatalf("UndoCount = %d, want 3", got)
	}
}

func TestGroup(t *testing.T) {
	h, _, res, key := fixture(t)
	cp := h.CreateCheckpoint()
	scope := h.GroupScope("paste")
	res = typeText(t, h, res, key, "b", TagPush)
	res = commit(t, res.Next, func(tx *txn.Tx) {
		p := tx.NewParagraph()
		tx.Append(node.RootKey, p.Key)
	})
	h.Record(res)
	scope.End()
	scope.End()

	if got := h.UndoCount(); got != 1 {
		t.Fatalf("UndoCount = %d, want 1", got)
	}
	info, ok := h.PeekUndo()
	if !ok || info.Name != "paste" {
		t.Errorf("PeekUndo = %+v, %v", info, ok)
	}
	s, err := h.UndoToCheckpoint(cp)
	if err != nil {
		t.Fatal(err)
	}
	if got := textOf(s, key); got != "a" {
		t.Errorf("text = %q, want a", got)
	}
}

func TestOnChange(t *testing.T) {
	h, _, res, key := fixture(t)
	type change struct{ undo, redo bool }
	var got []change
	h.OnChange(func(u, r bool) { got = append(got, change{u, r}) })

	res = typeText(t, h, res, key, "b")
	typeText(t, h, res, key, "c")
	if _, err := h.Undo(); err != nil {
		t.Fatal(err)
	}
	want := []change{{true, false}, {false, true}}
	if len(got) != len(want) {
		t.Fatalf("notifications = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d = %v, want %v", i, got[i], want[i])
		}
	}
}
