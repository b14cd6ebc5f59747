package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/inkwell/internal/engine"
	"github.com/dshills/inkwell/internal/engine/codec"
	"github.com/dshills/inkwell/internal/handlers"
	"github.com/dshills/inkwell/internal/logging"
	"github.com/dshills/inkwell/internal/playground"
	luaplugin "github.com/dshills/inkwell/internal/plugin/lua"
)

// newScreen creates the terminal screen for play.
var newScreen = tcell.NewScreen

type playOptions struct {
	configPath string
	doc        string
	output     string
	readOnly   bool
	scripts    stringList
}

func runPlay(args []string, env stdio) int {
	var opts playOptions
	fs := newFlagSet("play", env, &opts.configPath)
	fs.StringVar(&opts.doc, "doc", "", "Serialized document to start from")
	fs.StringVar(&opts.output, "o", "", "Save the document here on exit")
	fs.BoolVar(&opts.readOnly, "readonly", false, "Start in read-only mode")
	fs.BoolVar(&opts.readOnly, "R", false, "Start in read-only mode (shorthand)")
	fs.Var(&opts.scripts, "script", "Lua script to load (repeatable)")
	fs.Usage = func() {
		fmt.Fprintf(env.stderr, "Usage: inkwell play [options]\n\n")
		fmt.Fprintf(env.stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(env.stderr, "\nPress %s to quit.\n", playground.QuitKey)
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return 2
	}

	if err := play(opts, env); err != nil {
		fmt.Fprintf(env.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func play(opts playOptions, env stdio) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	log, closer, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer closer.Close()
	if cfg.Logging.File == "" {
		// stderr belongs to the screen
		log = logging.Nop()
	}

	var extra []engine.Option
	if opts.readOnly {
		extra = append(extra, engine.WithEditable(false))
	}
	e := newEditor(cfg, log, extra...)
	defer handlers.RegisterEditing(e)()
	defer handlers.RegisterHistory(e)()

	if opts.doc != "" {
		data, err := readInput(opts.doc, env.stdin)
		if err != nil {
			return err
		}
		if err := loadDocument(e, data); err != nil {
			return fmt.Errorf("%s: %w", opts.doc, err)
		}
	}

	if len(opts.scripts) > 0 {
		host := luaplugin.NewHost(e)
		defer host.Close()
		for _, path := range opts.scripts {
			if err := host.RunFile(path); err != nil {
				return fmt.Errorf("script %s: %w", path, err)
			}
		}
	}

	screen, err := newScreen()
	if err != nil {
		return fmt.Errorf("failed to create terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := playground.New(screen, e)
	defer p.Close()
	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if opts.output == "" {
		return nil
	}
	out, err := codec.ExportIndent(e.State(), e.Registry(), codec.Options{Selection: true})
	if err != nil {
		return err
	}
	return os.WriteFile(opts.output, out, 0o644)
}
