package config

import (
	"time"

	"github.com/dshills/inkwell/internal/config/watcher"
)

// ReloadFunc receives the reloaded settings or the error that stopped the
// reload. The previous settings stay in effect on error.
type ReloadFunc func(cfg *Config, err error)

// Watch reloads path whenever it changes and passes the result to fn.
// Close the returned watcher to stop.
func Watch(path string, debounce time.Duration, fn ReloadFunc) (*watcher.Watcher, error) {
	w, err := watcher.New(
		watcher.WithDebounce(debounce),
		watcher.WithErrorHandler(func(err error) { fn(nil, err) }),
	)
	if err != nil {
		return nil, err
	}
	w.OnChange(func(ev watcher.Event) {
		fn(Load(ev.Path))
	})
	if err := w.Watch(path); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}
