// Package main is the entry point for the inkwell command.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dshills/inkwell/internal/config"
	"github.com/dshills/inkwell/internal/engine"
	"github.com/dshills/inkwell/internal/engine/history"
	"github.com/dshills/inkwell/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// stdio is what a subcommand may touch outside its own flags.
type stdio struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type subcommand struct {
	name  string
	usage string
	run   func(args []string, env stdio) int
}

var subcommands = []subcommand{
	{"render", "Render a serialized document as HTML or JSON", runRender},
	{"play", "Edit a document in the terminal", runPlay},
	{"version", "Show version information", runVersion},
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	env := stdio{stdin: stdin, stdout: stdout, stderr: stderr}
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	switch args[0] {
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return 0
	case "-v", "-version", "--version":
		return runVersion(nil, env)
	}
	for _, sc := range subcommands {
		if sc.name == args[0] {
			return sc.run(args[1:], env)
		}
	}
	fmt.Fprintf(stderr, "Error: unknown command %q\n\n", args[0])
	usage(stderr)
	return 2
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Inkwell - structured rich-text editor engine\n\n")
	fmt.Fprintf(w, "Usage: inkwell <command> [options]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, sc := range subcommands {
		fmt.Fprintf(w, "  %-10s %s\n", sc.name, sc.usage)
	}
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  inkwell render doc.json              Print doc.json as HTML\n")
	fmt.Fprintf(w, "  inkwell render -format json -pretty -  Normalise a document from stdin\n")
	fmt.Fprintf(w, "  inkwell render -watch -o out.html doc.json\n")
	fmt.Fprintf(w, "  inkwell play -doc doc.json -script keys.lua\n")
}

func runVersion(_ []string, env stdio) int {
	fmt.Fprintf(env.stdout, "Inkwell %s\n", version)
	fmt.Fprintf(env.stdout, "Commit: %s\n", commit)
	fmt.Fprintf(env.stdout, "Built: %s\n", date)
	return 0
}

// newFlagSet returns a flag set that reports errors instead of exiting and
// registers the flags every subcommand shares.
func newFlagSet(name string, env stdio, configPath *string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	fs.StringVar(configPath, "config", "", "Path to configuration file")
	fs.StringVar(configPath, "c", "", "Path to configuration file (shorthand)")
	return fs
}

// loadConfig reads path, or the built-in settings plus environment
// overrides when path is empty.
func loadConfig(path string) (*config.Config, error) {
	return config.Load(path)
}

// newEditor builds an editor from cfg that logs through log.
func newEditor(cfg *config.Config, log *logging.Logger, extra ...engine.Option) *engine.Editor {
	opts := append(cfg.Options(), engine.WithLogger(log))
	return engine.New(append(opts, extra...)...)
}

// loadDocument replaces the editor's document with the serialized one in
// data. The load is not recorded in history.
func loadDocument(e *engine.Editor, data []byte) error {
	s, err := e.ParseEditorState(data)
	if err != nil {
		return err
	}
	return e.SetEditorState(s, history.TagHistoric)
}

// readInput reads path, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
