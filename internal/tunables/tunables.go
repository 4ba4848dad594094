// Package tunables hot-reloads the allocator's non-correctness-affecting
// diagnostic settings — verbosity and the PrintState auto-dump period —
// from a JSON file watched with fsnotify. It never touches Alignment,
// MMAPThreshold, or MinSplitSize: those stay fixed at build time.
package tunables

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Tunables holds the reloadable diagnostic settings.
type Tunables struct {
	Verbose             bool `json:"verbose"`
	Debug               bool `json:"debug"`
	DumpIntervalSeconds int  `json:"dump_interval_seconds"`
}

// DumpInterval returns the configured auto-dump period, or zero if
// auto-dump is disabled.
func (t Tunables) DumpInterval() time.Duration {
	if t.DumpIntervalSeconds <= 0 {
		return 0
	}

	return time.Duration(t.DumpIntervalSeconds) * time.Second
}

// Load reads and parses a tunables file. A missing file yields the zero
// value (auto-dump disabled, quiet logging) rather than an error.
func Load(path string) (Tunables, error) {
	var t Tunables

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}

		return t, fmt.Errorf("read tunables file: %w", err)
	}

	if err := json.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse tunables file: %w", err)
	}

	return t, nil
}

// Watch loads path immediately and calls apply, then watches the file for
// writes and calls apply again on every change, reloading in place. The
// returned stop function shuts down the watcher; it is safe to call once.
func Watch(path string, apply func(Tunables)) (stop func(), err error) {
	if t, err := Load(path); err == nil {
		apply(t)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("start tunables watcher: %w", err)
	}

	// Watch the containing directory rather than the file itself: most
	// editors replace-on-save (unlink+create), which drops a direct watch
	// on the old inode, and the file may not exist yet on first Watch.
	watchTarget := filepath.Dir(path)
	if watchTarget == "" {
		watchTarget = "."
	}

	if err := watcher.Add(watchTarget); err != nil {
		_ = watcher.Close()

		return nil, fmt.Errorf("watch tunables directory: %w", err)
	}

	done := make(chan struct{})

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}

				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					if t, err := Load(path); err == nil {
						apply(t)
					}
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		_ = watcher.Close()
	}, nil
}
