package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"apicheck/internal/common/logging"
	"apicheck/internal/common/types"
)

const watchDebounce = 200 * time.Millisecond

func newWatchCommand(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Run feature files and rerun them whenever one changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.load(cmd)
			if err != nil {
				return err
			}
			paths := args
			if len(paths) == 0 {
				paths = cfg.Features
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var runMu sync.Mutex
			rerun := func() {
				runMu.Lock()
				defer runMu.Unlock()
				runCtx := logging.WithRunID(ctx, types.NewRunID())
				err := app.runOnce(runCtx, cfg, runOptions{paths: paths, out: cmd.OutOrStdout()})
				if err != nil && !errors.Is(err, errScenariosFailed) {
					logging.Error("Run failed", "error", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "\nWatching for changes...")
			}

			w := &featureWatcher{paths: paths, onChange: rerun}
			rerun()
			return w.Run(ctx)
		},
	}
}

// featureWatcher calls onChange, debounced, whenever a .feature file under
// paths is written, created, renamed or removed.
type featureWatcher struct {
	paths    []string
	onChange func()

	mu       sync.Mutex
	debounce *time.Timer
}

// Run blocks until ctx is done.
func (w *featureWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range watchDirs(w.paths) {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.debounce != nil {
				w.debounce.Stop()
			}
			w.mu.Unlock()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".feature") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			logging.Debug("Feature changed", "file", event.Name, "op", event.Op.String())
			w.schedule()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("Watcher error", "error", err)
		}
	}
}

func (w *featureWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(watchDebounce, w.onChange)
}

// watchDirs returns every directory to watch: the directories themselves
// (recursively) and the parent directory of each file path.
func watchDirs(paths []string) []string {
	seen := map[string]bool{}
	var dirs []string
	add := func(d string) {
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			add(filepath.Dir(p))
			continue
		}
		filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err == nil && d.IsDir() {
				add(path)
			}
			return nil
		})
	}
	return dirs
}
