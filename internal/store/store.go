// Package store holds the authoritative in-memory task and category lists
// for the session. It is the only component permitted to mutate them.
// Every mutation persists through the configured backend first and commits
// to memory only on success, so memory and backing store never diverge.
package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"taskflow/internal/backend"
	"taskflow/internal/model"
)

// TaskDraft carries the fields a user supplies when creating a task.
type TaskDraft struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    model.Priority
	CategoryID  string
	IsCompleted bool
}

// CategoryDraft carries the fields a user supplies when creating a category.
type CategoryDraft struct {
	Name  string
	Color string
}

type EntityStore struct {
	mu         sync.Mutex
	backend    backend.Backend
	tasks      []model.Task
	categories []model.Category
	inflight   map[string]bool
	now        func() time.Time
	newID      func() string
}

func New(b backend.Backend) *EntityStore {
	return &EntityStore{
		backend:  b,
		inflight: make(map[string]bool),
		now:      time.Now,
		newID:    model.NewID,
	}
}

// Load seeds the in-memory lists from the backend. Categories load first
// so the form controller can preselect one before tasks arrive.
func (s *EntityStore) Load(ctx context.Context) error {
	categories, err := s.backend.ListCategories(ctx)
	if err != nil {
		return &PersistenceError{Op: "list categories", Err: err}
	}
	tasks, err := s.backend.ListTasks(ctx)
	if err != nil {
		return &PersistenceError{Op: "list tasks", Err: err}
	}
	s.mu.Lock()
	s.categories = categories
	s.tasks = tasks
	s.mu.Unlock()
	return nil
}

// Tasks returns a copy of the current task list.
func (s *EntityStore) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Task(nil), s.tasks...)
}

// Categories returns a copy of the current category list.
func (s *EntityStore) Categories() []model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Category(nil), s.categories...)
}

// CategoryByID resolves a category reference. Dangling references (after a
// category delete) resolve to false, not an error.
func (s *EntityStore) CategoryByID(id string) (model.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.ID == id {
			return c, true
		}
	}
	return model.Category{}, false
}

// CreateTask assigns a fresh id and creation time, persists, and appends.
func (s *EntityStore) CreateTask(ctx context.Context, draft TaskDraft) (model.Task, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return model.Task{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	priority := draft.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	task := model.Task{
		ID:          s.newID(),
		Title:       title,
		Description: strings.TrimSpace(draft.Description),
		DueDate:     draft.DueDate,
		Priority:    priority,
		CategoryID:  draft.CategoryID,
		CreatedAt:   s.now(),
	}
	if draft.IsCompleted {
		done := s.now()
		task.IsCompleted = true
		task.CompletedAt = &done
	}
	if err := task.Validate(); err != nil {
		return model.Task{}, &ValidationError{Field: "task", Reason: err.Error()}
	}

	if err := s.acquire(task.ID); err != nil {
		return model.Task{}, err
	}
	defer s.release(task.ID)

	stored, err := s.backend.CreateTask(ctx, task)
	if err != nil {
		return model.Task{}, &PersistenceError{Op: "create task", Err: err}
	}
	s.mu.Lock()
	s.tasks = append(s.tasks, stored)
	s.mu.Unlock()
	return stored, nil
}

// UpdateTask replaces the full record matching its id. An unknown id is an
// error (ErrNotFound), not a silent no-op.
func (s *EntityStore) UpdateTask(ctx context.Context, in model.Task) (model.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return model.Task{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if err := in.Validate(); err != nil {
		return model.Task{}, &ValidationError{Field: "task", Reason: err.Error()}
	}
	idx := s.taskIndex(in.ID)
	if idx < 0 {
		return model.Task{}, ErrNotFound
	}

	if err := s.acquire(in.ID); err != nil {
		return model.Task{}, err
	}
	defer s.release(in.ID)

	stored, err := s.backend.UpdateTask(ctx, in)
	if err != nil {
		return model.Task{}, &PersistenceError{Op: "update task", Err: err}
	}
	s.mu.Lock()
	if idx = s.taskIndexLocked(stored.ID); idx >= 0 {
		s.tasks[idx] = stored
	}
	s.mu.Unlock()
	return stored, nil
}

// DeleteTask removes the record. An unknown id is a no-op, not an error.
func (s *EntityStore) DeleteTask(ctx context.Context, id string) error {
	if s.taskIndex(id) < 0 {
		return nil
	}
	if err := s.acquire(id); err != nil {
		return err
	}
	defer s.release(id)

	if err := s.backend.DeleteTask(ctx, id); err != nil {
		return &PersistenceError{Op: "delete task", Err: err}
	}
	s.mu.Lock()
	if idx := s.taskIndexLocked(id); idx >= 0 {
		s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	}
	s.mu.Unlock()
	return nil
}

// ToggleTaskCompletion flips the completion flag and sets or clears the
// completion timestamp accordingly.
func (s *EntityStore) ToggleTaskCompletion(ctx context.Context, id string) (model.Task, error) {
	idx := s.taskIndex(id)
	if idx < 0 {
		return model.Task{}, ErrNotFound
	}
	s.mu.Lock()
	task := s.tasks[idx]
	s.mu.Unlock()

	if task.IsCompleted {
		task.IsCompleted = false
		task.CompletedAt = nil
	} else {
		done := s.now()
		task.IsCompleted = true
		task.CompletedAt = &done
	}

	if err := s.acquire(id); err != nil {
		return model.Task{}, err
	}
	defer s.release(id)

	stored, err := s.backend.UpdateTask(ctx, task)
	if err != nil {
		return model.Task{}, &PersistenceError{Op: "toggle task", Err: err}
	}
	s.mu.Lock()
	if idx = s.taskIndexLocked(stored.ID); idx >= 0 {
		s.tasks[idx] = stored
	}
	s.mu.Unlock()
	return stored, nil
}

// CreateCategory assigns a fresh id, persists, and appends.
func (s *EntityStore) CreateCategory(ctx context.Context, draft CategoryDraft) (model.Category, error) {
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return model.Category{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}

	cat := model.Category{ID: s.newID(), Name: name, Color: draft.Color}
	if err := s.acquire(cat.ID); err != nil {
		return model.Category{}, err
	}
	defer s.release(cat.ID)

	stored, err := s.backend.CreateCategory(ctx, cat)
	if err != nil {
		return model.Category{}, &PersistenceError{Op: "create category", Err: err}
	}
	s.mu.Lock()
	s.categories = append(s.categories, stored)
	s.mu.Unlock()
	return stored, nil
}

// UpdateCategory replaces the full record matching its id.
func (s *EntityStore) UpdateCategory(ctx context.Context, in model.Category) (model.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.Category{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if s.categoryIndex(in.ID) < 0 {
		return model.Category{}, ErrNotFound
	}
	if err := s.acquire(in.ID); err != nil {
		return model.Category{}, err
	}
	defer s.release(in.ID)

	stored, err := s.backend.UpdateCategory(ctx, in)
	if err != nil {
		return model.Category{}, &PersistenceError{Op: "update category", Err: err}
	}
	s.mu.Lock()
	if idx := s.categoryIndexLocked(stored.ID); idx >= 0 {
		s.categories[idx] = stored
	}
	s.mu.Unlock()
	return stored, nil
}

// DeleteCategory removes the category. Tasks referencing it keep their
// stale categoryId; the reference dangles by design of the data model.
func (s *EntityStore) DeleteCategory(ctx context.Context, id string) error {
	if s.categoryIndex(id) < 0 {
		return nil
	}
	if err := s.acquire(id); err != nil {
		return err
	}
	defer s.release(id)

	if err := s.backend.DeleteCategory(ctx, id); err != nil {
		return &PersistenceError{Op: "delete category", Err: err}
	}
	s.mu.Lock()
	if idx := s.categoryIndexLocked(id); idx >= 0 {
		s.categories = append(s.categories[:idx], s.categories[idx+1:]...)
	}
	s.mu.Unlock()
	return nil
}

// MutationPending reports whether a mutation for the id is in flight.
func (s *EntityStore) MutationPending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight[id]
}

func (s *EntityStore) acquire(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[id] {
		return ErrBusy
	}
	s.inflight[id] = true
	return nil
}

func (s *EntityStore) release(id string) {
	s.mu.Lock()
	delete(s.inflight, id)
	s.mu.Unlock()
}

func (s *EntityStore) taskIndex(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taskIndexLocked(id)
}

func (s *EntityStore) taskIndexLocked(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *EntityStore) categoryIndex(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categoryIndexLocked(id)
}

func (s *EntityStore) categoryIndexLocked(id string) int {
	for i, c := range s.categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// IsNotFound reports whether err is the unknown-id error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
