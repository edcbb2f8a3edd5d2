package task

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

// JSONStore is a Store backed by a single JSON document holding an array of
// tasks. The file is the source of truth: every call reads it, and every
// mutation rewrites it whole.
type JSONStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONStore opens the task file at path, creating it (and any missing
// parent directory) with an empty collection when it does not exist.
func NewJSONStore(path string) (*JSONStore, error) {
	if path == "" {
		return nil, errors.New("task file path is empty")
	}
	s := &JSONStore{path: path}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the location of the backing file.
func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) init() error {
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create task dir %s: %w", dir, err)
		}
	}
	_, err := os.Stat(s.path)
	if err == nil {
		// Surface a corrupt file now rather than on first use.
		_, err = s.load()
		return err
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat task file: %w", err)
	}
	log.Info("creating task file", "path", s.path)
	return s.write([]Task{})
}

// Save appends t to the file.
func (s *JSONStore) Save(ctx context.Context, t Task) error {
	return s.mutate(ctx, func(tasks []Task) ([]Task, bool, error) {
		for _, existing := range tasks {
			if existing.ID == t.ID {
				return nil, false, fmt.Errorf("save task %s: %w", t.ID, ErrDuplicateID)
			}
		}
		return append(tasks, t), true, nil
	})
}

// Update replaces the first task with a matching ID.
func (s *JSONStore) Update(ctx context.Context, t Task) error {
	return s.mutate(ctx, func(tasks []Task) ([]Task, bool, error) {
		for i := range tasks {
			if tasks[i].ID == t.ID {
				tasks[i] = t
				return tasks, true, nil
			}
		}
		return tasks, false, nil
	})
}

// Delete removes every task with the given ID.
func (s *JSONStore) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, func(tasks []Task) ([]Task, bool, error) {
		kept := tasks[:0]
		for _, t := range tasks {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		return kept, len(kept) != len(tasks), nil
	})
}

// FindByID returns the first task with the given ID.
func (s *JSONStore) FindByID(ctx context.Context, id string) (Task, bool, error) {
	tasks, err := s.FindAll(ctx)
	if err != nil {
		return Task{}, false, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, true, nil
		}
	}
	return Task{}, false, nil
}

// FindAll returns the tasks in file order. The slice is freshly decoded on
// every call, so callers may modify it freely.
func (s *JSONStore) FindAll(ctx context.Context) ([]Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// mutate runs a read-modify-write cycle under the store lock. fn reports
// whether it changed anything; unchanged collections are not rewritten.
func (s *JSONStore) mutate(ctx context.Context, fn func([]Task) ([]Task, bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return err
	}
	tasks, changed, err := fn(tasks)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.write(tasks)
}

func (s *JSONStore) load() ([]Task, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Task{}, nil
		}
		return nil, fmt.Errorf("read task file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []Task{}, nil
	}

	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("parse task file %s: %w: %v", s.path, ErrCorrupt, err)
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

// write replaces the file with tasks, pretty-printed with 2-space indentation
// and a trailing newline. The document is written to a temporary file in the
// same directory and renamed over the original.
func (s *JSONStore) write(tasks []Task) error {
	if tasks == nil {
		tasks = []Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp task file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write task file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp task file: %w", err)
	}
	mode := fs.FileMode(0o644)
	if fi, err := os.Stat(s.path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("chmod task file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace task file: %w", err)
	}
	log.Debug("wrote task file", "path", s.path, "tasks", len(tasks))
	return nil
}
