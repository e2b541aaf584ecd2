package form

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Registry holds the active schema. Reads are lock-free; replacements are
// validated first and never leave a half-applied schema visible. Changes
// made through Replace live in memory only and are lost on restart or on
// the next file reload.
type Registry struct {
	current atomic.Pointer[Schema]
	mu      sync.Mutex
	path    string
	logger  zerolog.Logger
	now     func() time.Time
}

// NewRegistry loads the schema from path, or uses DefaultSchema when path
// is empty.
func NewRegistry(path string, logger zerolog.Logger) (*Registry, error) {
	r := &Registry{path: path, logger: logger, now: time.Now}
	s := DefaultSchema()
	if path != "" {
		loaded, err := LoadSchemaFile(path)
		if err != nil {
			return nil, err
		}
		s = loaded
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = r.now().UTC()
	}
	r.current.Store(&s)
	return r, nil
}

// Schema returns a copy of the active schema.
func (r *Registry) Schema() Schema {
	return r.current.Load().Clone()
}

// Step returns one step of the active schema.
func (r *Registry) Step(id string) (FormStep, bool) {
	return r.current.Load().Step(id)
}

// Replace validates s and makes it the active schema.
func (r *Registry) Replace(s Schema) (Schema, error) {
	if err := ValidateSchema(s); err != nil {
		return Schema{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store(s.Clone()), nil
}

// ReplaceStep swaps the questions of one existing step.
func (r *Registry) ReplaceStep(stepID string, questions []Question) (Schema, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.current.Load().Clone()
	i := next.StepIndex(stepID)
	if i < 0 {
		return Schema{}, fmt.Errorf("unknown step %q", stepID)
	}
	next.Steps[i].Questions = append([]Question(nil), questions...)
	if err := ValidateSchema(next); err != nil {
		return Schema{}, err
	}
	return r.store(next), nil
}

func (r *Registry) store(s Schema) Schema {
	s.Version = r.current.Load().Version + 1
	s.UpdatedAt = r.now().UTC()
	r.current.Store(&s)
	return s.Clone()
}

// Reload re-reads the schema file. A file that fails to load leaves the
// active schema untouched.
func (r *Registry) Reload() error {
	if r.path == "" {
		return nil
	}
	s, err := LoadSchemaFile(r.path)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store(s)
	return nil
}

// Watch reloads the schema whenever its file changes. It blocks until ctx is
// cancelled. The containing directory is watched so editors that replace
// the file on save are still seen.
func (r *Registry) Watch(ctx context.Context) error {
	if r.path == "" {
		<-ctx.Done()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create schema watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(r.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	r.logger.Info().Str("path", target).Msg("watching question schema")

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounce = time.After(200 * time.Millisecond)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Error().Err(err).Msg("schema watcher error")
		case <-debounce:
			debounce = nil
			if err := r.Reload(); err != nil {
				r.logger.Error().Err(err).Str("path", target).Msg("schema reload failed, keeping previous schema")
				continue
			}
			r.logger.Info().Int("version", r.current.Load().Version).Msg("question schema reloaded")
		}
	}
}
