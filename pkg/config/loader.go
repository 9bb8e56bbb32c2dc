package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Load reads path, expands environment variable references, applies
// defaults, validates, and returns the resulting Config. This is the
// file-only equivalent of the teacher's Loader.Load/unmarshalAndProcess
// pipeline (raw decode -> env expansion -> reload into the typed
// struct -> defaults -> validation).
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return parse(raw)
}

func parse(raw []byte) (*Config, error) {
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	expanded := expandEnvVarsInData(tree)

	reencoded, err := yaml.Marshal(expanded)
	if err != nil {
		return nil, fmt.Errorf("config: re-encode expanded tree: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(reencoded, cfg); err != nil {
		return nil, fmt.Errorf("config: decode into typed config: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Watcher reloads a Config from path whenever the file changes on
// disk, invoking onChange with the freshly parsed Config. Grounded on
// the teacher's pkg/config/provider/file.go FileProvider.Watch (a
// debounced fsnotify loop over a single file) and reused in the same
// shape by pkg/plan.Store for its directory watch.
type Watcher struct {
	path     string
	log      *slog.Logger
	onChange func(*Config)

	watcher *fsnotify.Watcher
}

// NewWatcher constructs a Watcher; call Start to begin watching.
func NewWatcher(path string, log *slog.Logger, onChange func(*Config)) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{path: path, log: log, onChange: onChange}
}

// Start begins watching w.path for writes, reloading and invoking
// onChange on each debounced change, until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: new watcher: %w", err)
	}
	if err := fw.Add(w.path); err != nil {
		fw.Close()
		return fmt.Errorf("config: watch %s: %w", w.path, err)
	}
	w.watcher = fw

	go w.loop(ctx, fw)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer fw.Close()

	const debounce = 150 * time.Millisecond
	var timer *time.Timer

	reload := func() {
		cfg, err := Load(w.path)
		if err != nil {
			w.log.Error("config reload failed", "path", w.path, "error", err)
			return
		}
		if w.onChange != nil {
			w.onChange(cfg)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, reload)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", "error", err)
		}
	}
}

// Stop releases the underlying fsnotify watcher. Safe to call even if
// Start failed or was never called.
func (w *Watcher) Stop() error {
	if w.watcher == nil {
		return nil
	}
	return w.watcher.Close()
}
