package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"mercator-hq/banker/pkg/banker/state"
	"mercator-hq/banker/pkg/scenario"
	"mercator-hq/banker/pkg/telemetry/logging"
)

// DefaultDebounce is used when Config.Debounce is zero.
const DefaultDebounce = 100 * time.Millisecond

// Config contains configuration for the file watcher.
type Config struct {
	// Path is the scenario file to watch.
	Path string

	// Debounce is the quiet period after the last event before a reload.
	Debounce time.Duration
}

// Target receives reloaded states. *banker.Bank implements it.
type Target interface {
	Replace(st *state.State) error
}

// FileWatcher watches a single file and triggers reloads.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *logging.Logger
	path     string
	name     string
	interval time.Duration
	debounce *Debouncer

	mu       sync.Mutex
	running  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
	reloads  int
}

// NewFileWatcher creates a watcher for cfg.Path. The file must exist.
func NewFileWatcher(cfg Config, logger *logging.Logger) (*FileWatcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("watch path is required")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", cfg.Path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %q: %w", cfg.Path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%q is a directory, want a scenario file", cfg.Path)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher:  w,
		logger:   logger.WithComponent("watch"),
		path:     abs,
		name:     filepath.Base(abs),
		interval: cfg.Debounce,
		debounce: NewDebouncer(cfg.Debounce),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks until ctx is cancelled or Stop is called, running onReload
// after each debounced change to the file. The watcher cannot be restarted.
func (fw *FileWatcher) Watch(ctx context.Context, onReload func() error) error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	fw.running = true
	fw.mu.Unlock()

	defer func() {
		fw.debounce.Stop()
		fw.watcher.Close()
		fw.mu.Lock()
		fw.running = false
		fw.mu.Unlock()
		close(fw.doneCh)
	}()

	if err := fw.watcher.Add(filepath.Dir(fw.path)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", fw.path, err)
	}

	logCtx := logging.WithScenario(ctx, fw.path)
	fw.logger.InfoContext(logCtx, "scenario watcher started",
		"debounce_ms", fw.interval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			fw.logger.Info("scenario watcher stopped (context cancelled)")
			return nil

		case <-fw.stopCh:
			fw.logger.Info("scenario watcher stopped")
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !fw.shouldProcessEvent(event) {
				continue
			}

			fw.logger.Debug("file event detected", "path", event.Name, "op", event.Op.String())

			fw.debounce.Trigger(func() {
				if err := onReload(); err != nil {
					fw.logger.ErrorContext(logCtx, "scenario reload failed, keeping current state", "error", err)
					return
				}
				fw.mu.Lock()
				fw.reloads++
				fw.mu.Unlock()
				fw.logger.InfoContext(logCtx, "scenario reloaded")
			})

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			fw.logger.Error("file watcher error", "error", err)
		}
	}
}

// Stop stops a running watcher and waits for Watch to return.
func (fw *FileWatcher) Stop() {
	fw.mu.Lock()
	running := fw.running
	fw.mu.Unlock()

	fw.stopOnce.Do(func() { close(fw.stopCh) })
	if running {
		<-fw.doneCh
	}
}

// Reloads returns the number of successful reloads.
func (fw *FileWatcher) Reloads() int {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.reloads
}

func (fw *FileWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	return filepath.Base(event.Name) == fw.name
}

// ReloadFunc returns a callback that loads the scenario at path and hands
// its state to target.
func ReloadFunc(path string, target Target) func() error {
	return func() error {
		sc, err := scenario.Load(path)
		if err != nil {
			return err
		}
		st, err := sc.State()
		if err != nil {
			return err
		}
		return target.Replace(st)
	}
}
