// Package config loads inkwell settings.
//
// Settings come from three layers, each overriding the one before:
//
//   - built-in defaults (Default)
//   - a TOML or YAML file, chosen by extension (.toml, .yaml, .yml)
//   - INKWELL_* environment variables
//
// Environment variables name a section and a key joined by underscores:
// INKWELL_HISTORY_MAX_ENTRIES sets history.max_entries.
//
// A loaded Config builds the editor options it describes:
//
//	cfg, err := config.Load("inkwell.toml")
//	if err != nil {
//	    return err
//	}
//	ed := engine.New(cfg.Options()...)
//
// The watcher subpackage reloads a file when it changes on disk.
package config
