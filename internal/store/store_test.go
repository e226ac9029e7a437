package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"taskflow/internal/backend"
	"taskflow/internal/derive"
	"taskflow/internal/model"
)

// memoryBackend is an in-process stand-in for the persistence contract.
// failNext makes the next call fail so rollback behavior can be observed.
type memoryBackend struct {
	tasks      []model.Task
	categories []model.Category
	failNext   bool
}

var errBackendDown = errors.New("backend down")

func (m *memoryBackend) fail() bool {
	if m.failNext {
		m.failNext = false
		return true
	}
	return false
}

func (m *memoryBackend) ListTasks(ctx context.Context) ([]model.Task, error) {
	if m.fail() {
		return nil, errBackendDown
	}
	return append([]model.Task(nil), m.tasks...), nil
}

func (m *memoryBackend) CreateTask(ctx context.Context, in model.Task) (model.Task, error) {
	if m.fail() {
		return model.Task{}, errBackendDown
	}
	m.tasks = append(m.tasks, in)
	return in, nil
}

func (m *memoryBackend) UpdateTask(ctx context.Context, in model.Task) (model.Task, error) {
	if m.fail() {
		return model.Task{}, errBackendDown
	}
	for i, t := range m.tasks {
		if t.ID == in.ID {
			m.tasks[i] = in
			return in, nil
		}
	}
	return model.Task{}, backend.ErrNotFound
}

func (m *memoryBackend) DeleteTask(ctx context.Context, id string) error {
	if m.fail() {
		return errBackendDown
	}
	for i, t := range m.tasks {
		if t.ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memoryBackend) ListCategories(ctx context.Context) ([]model.Category, error) {
	if m.fail() {
		return nil, errBackendDown
	}
	return append([]model.Category(nil), m.categories...), nil
}

func (m *memoryBackend) CreateCategory(ctx context.Context, in model.Category) (model.Category, error) {
	if m.fail() {
		return model.Category{}, errBackendDown
	}
	m.categories = append(m.categories, in)
	return in, nil
}

func (m *memoryBackend) UpdateCategory(ctx context.Context, in model.Category) (model.Category, error) {
	if m.fail() {
		return model.Category{}, errBackendDown
	}
	for i, c := range m.categories {
		if c.ID == in.ID {
			m.categories[i] = in
			return in, nil
		}
	}
	return model.Category{}, backend.ErrNotFound
}

func (m *memoryBackend) DeleteCategory(ctx context.Context, id string) error {
	if m.fail() {
		return errBackendDown
	}
	for i, c := range m.categories {
		if c.ID == id {
			m.categories = append(m.categories[:i], m.categories[i+1:]...)
			return nil
		}
	}
	return nil
}

func newTestStore(mb *memoryBackend) *EntityStore {
	s := New(mb)
	seq := 0
	s.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	s.now = func() time.Time {
		return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	}
	return s
}

func TestCreateTaskAssignsIDAndDefaults(t *testing.T) {
	s := newTestStore(&memoryBackend{})
	ctx := context.Background()

	task, err := s.CreateTask(ctx, TaskDraft{Title: "  Buy milk  "})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.ID == "" || task.CreatedAt.IsZero() {
		t.Fatalf("missing id or created_at: %#v", task)
	}
	if task.Title != "Buy milk" {
		t.Fatalf("title not trimmed: %q", task.Title)
	}
	if task.IsCompleted || task.CompletedAt != nil {
		t.Fatalf("new task should be incomplete: %#v", task)
	}
	if task.Priority != model.PriorityMedium {
		t.Fatalf("expected default medium priority, got %s", task.Priority)
	}

	other, err := s.CreateTask(ctx, TaskDraft{Title: "Another"})
	if err != nil {
		t.Fatalf("create second task: %v", err)
	}
	if other.ID == task.ID {
		t.Fatalf("ids must be unique, both %q", task.ID)
	}
}

func TestCreateTaskEmptyTitleRejected(t *testing.T) {
	s := newTestStore(&memoryBackend{})
	_, err := s.CreateTask(context.Background(), TaskDraft{Title: "   "})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got: %v", err)
	}
	if len(s.Tasks()) != 0 {
		t.Fatal("store mutated despite validation failure")
	}
}

func TestUpdateTaskUnknownIDIsError(t *testing.T) {
	s := newTestStore(&memoryBackend{})
	_, err := s.UpdateTask(context.Background(), model.Task{
		ID:        "missing",
		Title:     "Nope",
		Priority:  model.PriorityLow,
		CreatedAt: time.Now(),
	})
	if !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestDeleteTaskUnknownIDIsNoop(t *testing.T) {
	s := newTestStore(&memoryBackend{})
	if err := s.DeleteTask(context.Background(), "missing"); err != nil {
		t.Fatalf("expected no-op, got: %v", err)
	}
}

func TestToggleTaskCompletionIsItsOwnInverse(t *testing.T) {
	s := newTestStore(&memoryBackend{})
	ctx := context.Background()

	task, err := s.CreateTask(ctx, TaskDraft{Title: "Toggle me"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	toggled, err := s.ToggleTaskCompletion(ctx, task.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.IsCompleted || toggled.CompletedAt == nil {
		t.Fatalf("expected completed with timestamp: %#v", toggled)
	}

	back, err := s.ToggleTaskCompletion(ctx, task.ID)
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if back.IsCompleted != task.IsCompleted || back.CompletedAt != nil {
		t.Fatalf("double toggle did not restore original: %#v", back)
	}

	if _, err := s.ToggleTaskCompletion(ctx, "missing"); !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound for unknown id, got: %v", err)
	}
}

func TestCreateCategoryValidation(t *testing.T) {
	s := newTestStore(&memoryBackend{})
	ctx := context.Background()

	cat, err := s.CreateCategory(ctx, CategoryDraft{Name: " Work ", Color: "#818cf8"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if cat.Name != "Work" || cat.ID == "" {
		t.Fatalf("unexpected category: %#v", cat)
	}

	_, err = s.CreateCategory(ctx, CategoryDraft{Name: "  "})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got: %v", err)
	}
}

func TestFailedPersistenceLeavesMemoryUntouched(t *testing.T) {
	mb := &memoryBackend{}
	s := newTestStore(mb)
	ctx := context.Background()

	task, err := s.CreateTask(ctx, TaskDraft{Title: "Stable"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	mb.failNext = true
	_, err = s.ToggleTaskCompletion(ctx, task.ID)
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got: %v", err)
	}

	got := s.Tasks()
	if len(got) != 1 || got[0].IsCompleted {
		t.Fatalf("in-memory state diverged after failed persistence: %#v", got)
	}
	if len(mb.tasks) != 1 || mb.tasks[0].IsCompleted {
		t.Fatalf("backing store diverged: %#v", mb.tasks)
	}

	mb.failNext = true
	if err := s.DeleteTask(ctx, task.ID); err == nil {
		t.Fatal("expected delete to fail")
	}
	if len(s.Tasks()) != 1 {
		t.Fatal("task removed from memory despite failed delete")
	}
}

func TestSecondMutationForSameIDRejected(t *testing.T) {
	mb := &memoryBackend{}
	s := newTestStore(mb)
	ctx := context.Background()

	task, err := s.CreateTask(ctx, TaskDraft{Title: "Contended"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	// Simulate an in-flight mutation holding the per-id slot.
	if err := s.acquire(task.ID); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !s.MutationPending(task.ID) {
		t.Fatal("expected pending mutation")
	}
	if _, err := s.ToggleTaskCompletion(ctx, task.ID); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got: %v", err)
	}
	s.release(task.ID)

	if _, err := s.ToggleTaskCompletion(ctx, task.ID); err != nil {
		t.Fatalf("toggle after release: %v", err)
	}
}

func TestLoadSeedsFromBackend(t *testing.T) {
	created := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	mb := &memoryBackend{
		tasks:      []model.Task{{ID: "t1", Title: "Seeded", Priority: model.PriorityLow, CreatedAt: created}},
		categories: []model.Category{{ID: "c1", Name: "Work", Color: "#818cf8"}},
	}
	s := newTestStore(mb)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(s.Tasks()) != 1 || len(s.Categories()) != 1 {
		t.Fatalf("unexpected seeded state: %d tasks, %d categories", len(s.Tasks()), len(s.Categories()))
	}
}

// End-to-end scenario: categories, filtering, toggling, and a dangling
// category reference after deletion.
func TestCategoryLifecycleScenario(t *testing.T) {
	s := newTestStore(&memoryBackend{})
	ctx := context.Background()

	work, err := s.CreateCategory(ctx, CategoryDraft{Name: "Work", Color: "#818cf8"})
	if err != nil {
		t.Fatalf("create Work: %v", err)
	}
	personal, err := s.CreateCategory(ctx, CategoryDraft{Name: "Personal", Color: "#fb7185"})
	if err != nil {
		t.Fatalf("create Personal: %v", err)
	}
	_ = work

	task, err := s.CreateTask(ctx, TaskDraft{
		Title:      "Buy milk",
		Priority:   model.PriorityLow,
		CategoryID: personal.ID,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	filtered := derive.Apply(s.Tasks(), s.Categories(), derive.Query{Filter: derive.FilterKey(personal.ID)})
	if len(filtered) != 1 || filtered[0].ID != task.ID {
		t.Fatalf("expected exactly the Personal task, got %#v", filtered)
	}

	toggled, err := s.ToggleTaskCompletion(ctx, task.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.IsCompleted || toggled.CompletedAt == nil {
		t.Fatalf("expected completed task: %#v", toggled)
	}

	if err := s.DeleteCategory(ctx, personal.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	// The deleted id names no category anymore, so filtering by it
	// yields nothing even though the task still carries the reference.
	filtered = derive.Apply(s.Tasks(), s.Categories(), derive.Query{Filter: derive.FilterKey(personal.ID)})
	if len(filtered) != 0 {
		t.Fatalf("filter by deleted category should be empty, got %#v", filtered)
	}
	if _, ok := s.CategoryByID(personal.ID); ok {
		t.Fatal("deleted category should not resolve")
	}

	all := derive.Apply(s.Tasks(), s.Categories(), derive.Query{Filter: derive.FilterAll})
	if len(all) != 1 || all[0].ID != task.ID {
		t.Fatalf("task should survive category deletion: %#v", all)
	}
	if all[0].CategoryID != personal.ID {
		t.Fatalf("dangling reference should be retained, got %q", all[0].CategoryID)
	}
}
