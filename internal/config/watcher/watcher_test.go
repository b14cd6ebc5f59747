package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newWatcher(t *testing.T, opts ...Option) *Watcher {
	t.Helper()
	w, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestOperationString(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpWrite, "write"},
		{OpCreate, "create"},
		{OpRemove, "remove"},
		{Operation(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Operation(%d).String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestWatchDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inkwell.toml")
	writeFile(t, path, "a")

	w := newWatcher(t, WithDebounce(50*time.Millisecond))
	events := make(chan Event, 10)
	w.OnChange(func(ev Event) { events <- ev })
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		writeFile(t, path, "update")
	}

	ev := waitEvent(t, events)
	if ev.Op != OpWrite {
		t.Errorf("Op = %v, want write", ev.Op)
	}
	if ev.Path != path {
		t.Errorf("Path = %q, want %q", ev.Path, path)
	}
	select {
	case extra := <-events:
		t.Errorf("burst produced a second event: %+v", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inkwell.yaml")

	w := newWatcher(t, WithDebounce(0))
	events := make(chan Event, 10)
	w.OnChange(func(ev Event) { events <- ev })
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}

	writeFile(t, filepath.Join(dir, "other.yaml"), "x")
	writeFile(t, path, "x")

	ev := waitEvent(t, events)
	if ev.Path != path {
		t.Errorf("event for %q, want only %q", ev.Path, path)
	}
}

func TestUnwatchAndClose(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.toml")
	b := filepath.Join(dir, "b.toml")

	w := newWatcher(t)
	for _, p := range []string{a, b} {
		if err := w.Watch(p); err != nil {
			t.Fatal(err)
		}
	}
	if got := len(w.WatchedFiles()); got != 2 {
		t.Fatalf("WatchedFiles = %d, want 2", got)
	}
	if err := w.Unwatch(a); err != nil {
		t.Fatal(err)
	}
	if got := w.WatchedFiles(); len(got) != 1 || got[0] != b {
		t.Errorf("WatchedFiles = %v, want [%s]", got, b)
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Watch(a); err != ErrClosed {
		t.Errorf("Watch after Close = %v, want ErrClosed", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	w := newWatcher(t)
	if err := w.Watch(filepath.Join(t.TempDir(), "missing", "x.toml")); err == nil {
		t.Error("Watch in a missing directory succeeded")
	}
}
