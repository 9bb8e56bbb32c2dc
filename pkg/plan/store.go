package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/agentcore-dev/agentcore/pkg/registry"
)

// Meta is the list() summary for one persisted plan: the fields a
// caller can inspect without loading the full step list.
type Meta struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Task        string    `json:"task,omitempty"`
	TotalSteps  int       `json:"total_steps"`
	CurrentStep int       `json:"current_step"`
}

// Store persists plans as one JSON document per plan under Dir,
// filename "<plan_id>.json", with write-to-temp+rename atomicity
// grounded on the teacher's pkg/config/provider.FileProvider
// watch-and-reload pattern adapted here to a directory of documents
// instead of a single config file.
type Store struct {
	dir string
	log *slog.Logger

	mu    sync.Mutex
	cache *registry.Store[Meta]

	watcher *fsnotify.Watcher
}

// NewStore constructs a Store rooted at dir, creating it if absent.
func NewStore(dir string, log *slog.Logger) (*Store, error) {
	if dir == "" {
		dir = "./plans"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("plan: create directory %s: %w", dir, err)
	}

	s := &Store{dir: dir, log: log, cache: registry.New[Meta]()}
	if err := s.rebuildCache(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) pathFor(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Create assigns a new plan ID, sets CreatedAt, and persists the plan.
func (s *Store) Create(steps []string, task string) (*Plan, error) {
	statuses, notes := newStepTracking(len(steps))
	p := &Plan{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now(),
		Task:         task,
		Steps:        steps,
		StepStatuses: statuses,
		StepNotes:    notes,
	}
	if err := s.Save(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Save atomically replaces the persisted document for p (write to a
// temp file in the same directory, then rename — rename is atomic on
// POSIX filesystems, preventing a reader from ever observing a torn
// write).
func (s *Store) Save(p *Plan) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("plan: marshal %s: %w", p.ID, err)
	}

	final := s.pathFor(p.ID)
	tmp, err := os.CreateTemp(s.dir, p.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("plan: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("plan: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("plan: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, final); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("plan: rename into place: %w", err)
	}

	s.updateCache(p)
	return nil
}

// Load reads plan id from disk.
func (s *Store) Load(id string) (*Plan, error) {
	data, err := os.ReadFile(s.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("plan: %s: %w", id, errNotFound)
		}
		return nil, fmt.Errorf("plan: read %s: %w", id, err)
	}
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("plan: %s: %w", id, errCorrupt)
	}
	p.normalizeStepTracking()
	return &p, nil
}

// Delete removes the persisted document for id.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.pathFor(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("plan: %s: %w", id, errNotFound)
		}
		return fmt.Errorf("plan: delete %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.cache.Unregister(id)
	return nil
}

// List enumerates persisted plans from the in-memory metadata cache,
// sorted by ID for deterministic output.
func (s *Store) List() []Meta {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.cache.List()
	out := make([]Meta, 0, len(items))
	for _, m := range items {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) updateCache(p *Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.cache.Unregister(p.ID)
	_ = s.cache.Register(p.ID, metaOf(p))
}

func metaOf(p *Plan) Meta {
	return Meta{
		ID:          p.ID,
		CreatedAt:   p.CreatedAt,
		Task:        p.Task,
		TotalSteps:  len(p.Steps),
		CurrentStep: p.CurrentStep,
	}
}

// rebuildCache scans dir and repopulates the metadata cache from
// scratch. Called at construction and whenever the watch loop detects
// external changes it can't cheaply reconcile incrementally.
func (s *Store) rebuildCache() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("plan: read directory %s: %w", s.dir, err)
	}

	fresh := registry.New[Meta]()
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		p, err := s.Load(id)
		if err != nil {
			if s.log != nil {
				s.log.Warn("plan: skipping unreadable plan file", "file", e.Name(), "error", err)
			}
			continue
		}
		_ = fresh.Register(id, metaOf(p))
	}

	s.mu.Lock()
	s.cache = fresh
	s.mu.Unlock()
	return nil
}

// Watch starts an fsnotify watch on the plan directory so external
// edits or deletions (outside this process) invalidate the metadata
// cache. This is an operational nicety: the JSON documents on disk
// remain the system of record regardless of cache freshness, per
// Load/Save/Delete above never consulting the cache for correctness.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("plan: create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("plan: watch directory %s: %w", s.dir, err)
	}

	s.mu.Lock()
	s.watcher = watcher
	s.mu.Unlock()

	go s.watchLoop(ctx, watcher)
	return nil
}

func (s *Store) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer s.closeWatcher(watcher)

	var debounce *time.Timer
	const delay = 100 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(delay, func() {
				if err := s.rebuildCache(); err != nil && s.log != nil {
					s.log.Warn("plan: cache rebuild after filesystem change failed", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if s.log != nil {
				s.log.Warn("plan: watcher error", "error", err)
			}
		}
	}
}

// Close stops the directory watch, if one is running. Safe to call
// even if Watch was never called, and safe to call concurrently with
// the watch loop's own cancellation via ctx.
func (s *Store) Close() error {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}

// closeWatcher is the watch loop's own cleanup path (ctx cancellation
// or channel closure), sharing the nil-out with Close so whichever
// runs first wins and the other is a no-op.
func (s *Store) closeWatcher(w *fsnotify.Watcher) {
	s.mu.Lock()
	if s.watcher == w {
		s.watcher = nil
	}
	s.mu.Unlock()
	w.Close()
}
