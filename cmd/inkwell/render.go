package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/dshills/inkwell/internal/config"
	"github.com/dshills/inkwell/internal/config/watcher"
	"github.com/dshills/inkwell/internal/engine/codec"
	"github.com/dshills/inkwell/internal/logging"
)

const watchDebounce = 100 * time.Millisecond

type renderOptions struct {
	configPath string
	format     string
	output     string
	pretty     bool
	selection  bool
	watch      bool
}

// renderer turns serialized documents into output files. It keeps the
// settings so a watch session can swap them on reload.
type renderer struct {
	mu   sync.Mutex
	opts renderOptions
	cfg  *config.Config
	log  *logging.Logger
	env  stdio
}

func runRender(args []string, env stdio) int {
	var opts renderOptions
	fs := newFlagSet("render", env, &opts.configPath)
	fs.StringVar(&opts.format, "format", "html", "Output format (html, json)")
	fs.StringVar(&opts.format, "f", "html", "Output format (shorthand)")
	fs.StringVar(&opts.output, "o", "", "Write to this file instead of stdout")
	fs.BoolVar(&opts.pretty, "pretty", false, "Indent JSON output")
	fs.BoolVar(&opts.selection, "selection", false, "Include the selection in JSON output")
	fs.BoolVar(&opts.watch, "watch", false, "Re-render when the document or configuration changes")
	fs.BoolVar(&opts.watch, "w", false, "Re-render on change (shorthand)")
	fs.Usage = func() {
		fmt.Fprintf(env.stderr, "Usage: inkwell render [options] <file.json|->\n\n")
		fmt.Fprintf(env.stderr, "Options:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	switch opts.format {
	case "html", "json":
	default:
		fmt.Fprintf(env.stderr, "Error: invalid format %q (must be html or json)\n", opts.format)
		return 2
	}
	input := fs.Arg(0)
	if opts.watch && input == "-" {
		fmt.Fprintf(env.stderr, "Error: cannot watch standard input\n")
		return 2
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(env.stderr, "Error: %v\n", err)
		return 1
	}
	log, closer, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(env.stderr, "Error: %v\n", err)
		return 1
	}
	defer closer.Close()

	r := &renderer{opts: opts, cfg: cfg, log: log.WithComponent("render"), env: env}
	if err := r.renderFile(input); err != nil {
		fmt.Fprintf(env.stderr, "Error: %v\n", err)
		return 1
	}
	if !opts.watch {
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := r.watch(ctx, input); err != nil {
		fmt.Fprintf(env.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// renderFile renders the document at path to the configured output.
func (r *renderer) renderFile(path string) error {
	data, err := readInput(path, r.env.stdin)
	if err != nil {
		return err
	}
	out, err := r.render(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if r.opts.output == "" {
		_, err = r.env.stdout.Write(out)
		return err
	}
	return os.WriteFile(r.opts.output, out, 0o644)
}

func (r *renderer) render(data []byte) ([]byte, error) {
	e := newEditor(r.cfg, r.log)
	if err := loadDocument(e, data); err != nil {
		return nil, err
	}
	if r.opts.format == "html" {
		s, err := e.ExportHTML()
		if err != nil {
			return nil, err
		}
		return []byte(s + "\n"), nil
	}
	copts := codec.Options{Selection: r.opts.selection}
	if r.opts.pretty {
		return codec.ExportIndent(e.State(), e.Registry(), copts)
	}
	out, err := e.Export(copts)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// watch re-renders input whenever it or the configuration file changes,
// until ctx ends. Failed renders are logged and the previous output stays.
func (r *renderer) watch(ctx context.Context, input string) error {
	rerender := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if err := r.renderFile(input); err != nil {
			r.log.Error("render failed: %v", err)
			return
		}
		r.log.Info("rendered %s", input)
	}

	docs, err := watcher.New(
		watcher.WithDebounce(watchDebounce),
		watcher.WithErrorHandler(func(err error) { r.log.Warn("watch: %v", err) }),
	)
	if err != nil {
		return err
	}
	defer docs.Close()
	docs.OnChange(func(ev watcher.Event) {
		if ev.Op == watcher.OpRemove {
			r.log.Warn("%s removed; keeping last output", filepath.Base(ev.Path))
			return
		}
		rerender()
	})
	if err := docs.Watch(input); err != nil {
		return err
	}

	if r.opts.configPath != "" {
		cw, err := config.Watch(r.opts.configPath, watchDebounce, func(cfg *config.Config, err error) {
			if err != nil {
				r.log.Warn("config reload: %v", err)
				return
			}
			r.mu.Lock()
			r.cfg = cfg
			r.log.SetLevel(logging.ParseLevel(cfg.Logging.Level))
			r.mu.Unlock()
			rerender()
		})
		if err != nil {
			return err
		}
		defer cw.Close()
	}

	r.log.Info("watching %s", input)
	<-ctx.Done()
	return nil
}
