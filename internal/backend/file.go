package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"taskflow/internal/model"
)

// Fixed keys for the two entity arrays in the state file.
const (
	fileKeyTasks      = "taskflow.tasks"
	fileKeyCategories = "taskflow.categories"
)

type filePayload struct {
	Tasks      []model.Task     `json:"taskflow.tasks"`
	Categories []model.Category `json:"taskflow.categories"`
}

// FileBackend keeps both entity lists as JSON arrays under fixed keys in a
// single file, rewritten in full on every mutation.
type FileBackend struct {
	mu    sync.Mutex
	path  string
	state filePayload
}

func OpenFile(path string) (*FileBackend, error) {
	if path == "" {
		return nil, errors.New("backend: state file path is empty")
	}
	b := &FileBackend{path: path}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return b, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &b.state); err != nil {
			return nil, fmt.Errorf("decode state file: %w", err)
		}
	}
	return b, nil
}

func (b *FileBackend) ListTasks(ctx context.Context) ([]model.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Task(nil), b.state.Tasks...), nil
}

func (b *FileBackend) CreateTask(ctx context.Context, in model.Task) (model.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := append(append([]model.Task(nil), b.state.Tasks...), in)
	if err := b.write(filePayload{Tasks: next, Categories: b.state.Categories}); err != nil {
		return model.Task{}, err
	}
	return in, nil
}

func (b *FileBackend) UpdateTask(ctx context.Context, in model.Task) (model.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := append([]model.Task(nil), b.state.Tasks...)
	idx := -1
	for i, t := range next {
		if t.ID == in.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Task{}, ErrNotFound
	}
	next[idx] = in
	if err := b.write(filePayload{Tasks: next, Categories: b.state.Categories}); err != nil {
		return model.Task{}, err
	}
	return in, nil
}

func (b *FileBackend) DeleteTask(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := make([]model.Task, 0, len(b.state.Tasks))
	for _, t := range b.state.Tasks {
		if t.ID != id {
			next = append(next, t)
		}
	}
	return b.write(filePayload{Tasks: next, Categories: b.state.Categories})
}

func (b *FileBackend) ListCategories(ctx context.Context) ([]model.Category, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Category(nil), b.state.Categories...), nil
}

func (b *FileBackend) CreateCategory(ctx context.Context, in model.Category) (model.Category, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := append(append([]model.Category(nil), b.state.Categories...), in)
	if err := b.write(filePayload{Tasks: b.state.Tasks, Categories: next}); err != nil {
		return model.Category{}, err
	}
	return in, nil
}

func (b *FileBackend) UpdateCategory(ctx context.Context, in model.Category) (model.Category, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := append([]model.Category(nil), b.state.Categories...)
	idx := -1
	for i, c := range next {
		if c.ID == in.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Category{}, ErrNotFound
	}
	next[idx] = in
	if err := b.write(filePayload{Tasks: b.state.Tasks, Categories: next}); err != nil {
		return model.Category{}, err
	}
	return in, nil
}

func (b *FileBackend) DeleteCategory(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := make([]model.Category, 0, len(b.state.Categories))
	for _, c := range b.state.Categories {
		if c.ID != id {
			next = append(next, c)
		}
	}
	return b.write(filePayload{Tasks: b.state.Tasks, Categories: next})
}

// write persists the candidate state atomically and commits it in memory
// only on success.
func (b *FileBackend) write(next filePayload) error {
	dir := filepath.Dir(b.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	payload, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return err
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return err
	}
	b.state = next
	return nil
}
