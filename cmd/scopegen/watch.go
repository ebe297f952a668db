package main

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/syssam/scopegen"
	"github.com/syssam/scopegen/compiler/gen"
)

// debounce window before re-running after a burst of file events.
const watchSettle = 250 * time.Millisecond

func newWatchCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-run generation whenever scanned sources change",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := buildConfig(flags)
			if err != nil {
				logError(logger, err)
				return err
			}
			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				logError(logger, err)
				return err
			}
			defer watcher.Close()
			if err := watchTree(watcher, cfg.Dir); err != nil {
				logError(logger, err)
				return err
			}

			run := func() {
				// A driver finalizes exactly once, so every change runs a
				// fresh scan and finalize cycle.
				if err := gen.Generate(cmd.Context(), cfg); err != nil {
					if scopegen.IsDiagnostic(err) {
						logger.Warn(err.Error())
					} else {
						logError(logger, err)
					}
				}
			}
			run()

			logger.Info("watching for changes", "dir", cfg.Dir)
			return watchLoop(cmd.Context(), watcher, run)
		},
	}
}

// watchTree registers the directory and all its non-hidden subdirectories.
func watchTree(watcher *fsnotify.Watcher, dir string) error {
	if dir == "" {
		dir = "."
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != dir && (strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// watchLoop coalesces event bursts and re-runs generation after the settle
// window. Generated files are ignored so a run does not retrigger itself.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, run func()) error {
	var timer *time.Timer
	pending := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".go") || isGenerated(event.Name) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchSettle, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		case <-pending:
			run()
		}
	}
}

func isGenerated(path string) bool {
	base := filepath.Base(path)
	return base == "scopegen_markers.go" || strings.HasSuffix(base, "_merged.go")
}
