// Package form holds the one in-progress draft a user may be editing,
// separate from the authoritative store. Submitting converts the draft
// into a create or update command; canceling discards it.
package form

import (
	"strings"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/store"
)

// DueDateLayout is the edit-friendly date-only representation drafts use.
const DueDateLayout = "2006-01-02"

const defaultCategoryColor = "#818cf8"

type Kind string

const (
	KindNone     Kind = ""
	KindTask     Kind = "task"
	KindCategory Kind = "category"
)

type TaskDraft struct {
	Title       string
	Description string
	DueDate     string // date-only text, DueDateLayout
	Priority    model.Priority
	CategoryID  string
	IsCompleted bool
}

type CategoryDraft struct {
	Name  string
	Color string
}

// TaskCommand is the result of a successful task submit: either a create
// draft or a full-record update.
type TaskCommand struct {
	IsEdit bool
	Create store.TaskDraft
	Update model.Task
}

// Controller manages at most one active draft. Opening a new draft while
// one is active replaces it.
type Controller struct {
	kind     Kind
	editing  model.Task // original record when editing a task
	isEdit   bool
	Task     TaskDraft
	Category CategoryDraft
}

func (c *Controller) Active() bool { return c.kind != KindNone }
func (c *Controller) Kind() Kind   { return c.kind }
func (c *Controller) IsEdit() bool { return c.isEdit }

// OpenTaskCreate starts a fresh task draft with the first available
// category preselected.
func (c *Controller) OpenTaskCreate(categories []model.Category) {
	c.reset()
	c.kind = KindTask
	c.Task = TaskDraft{Priority: model.PriorityMedium}
	if len(categories) > 0 {
		c.Task.CategoryID = categories[0].ID
	}
}

// OpenTaskEdit seeds the draft from an existing record, converting the
// due date to its date-only text form.
func (c *Controller) OpenTaskEdit(task model.Task) {
	c.reset()
	c.kind = KindTask
	c.isEdit = true
	c.editing = task
	c.Task = TaskDraft{
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		CategoryID:  task.CategoryID,
		IsCompleted: task.IsCompleted,
	}
	if task.DueDate != nil {
		c.Task.DueDate = task.DueDate.Format(DueDateLayout)
	}
}

// OpenCategoryCreate starts a fresh category draft.
func (c *Controller) OpenCategoryCreate() {
	c.reset()
	c.kind = KindCategory
	c.Category = CategoryDraft{Color: defaultCategoryColor}
}

// Cancel discards the active draft without touching the store.
func (c *Controller) Cancel() {
	c.reset()
}

// SubmitTask validates and converts the task draft into a store command.
// On validation failure the draft is retained so the user can fix it.
func (c *Controller) SubmitTask() (TaskCommand, error) {
	title := strings.TrimSpace(c.Task.Title)
	if title == "" {
		return TaskCommand{}, &store.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	description := strings.TrimSpace(c.Task.Description)

	var due *time.Time
	if raw := strings.TrimSpace(c.Task.DueDate); raw != "" {
		parsed, err := time.Parse(DueDateLayout, raw)
		if err != nil {
			return TaskCommand{}, &store.ValidationError{Field: "dueDate", Reason: "must be YYYY-MM-DD"}
		}
		due = &parsed
	}

	cmd := TaskCommand{IsEdit: c.isEdit}
	if c.isEdit {
		record := c.editing
		record.Title = title
		record.Description = description
		record.DueDate = due
		record.Priority = c.Task.Priority
		record.CategoryID = c.Task.CategoryID
		if c.Task.IsCompleted != record.IsCompleted {
			if c.Task.IsCompleted {
				now := time.Now()
				record.IsCompleted = true
				record.CompletedAt = &now
			} else {
				record.IsCompleted = false
				record.CompletedAt = nil
			}
		}
		cmd.Update = record
	} else {
		cmd.Create = store.TaskDraft{
			Title:       title,
			Description: description,
			DueDate:     due,
			Priority:    c.Task.Priority,
			CategoryID:  c.Task.CategoryID,
		}
	}
	c.reset()
	return cmd, nil
}

// SubmitCategory validates and converts the category draft.
func (c *Controller) SubmitCategory() (store.CategoryDraft, error) {
	name := strings.TrimSpace(c.Category.Name)
	if name == "" {
		return store.CategoryDraft{}, &store.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	draft := store.CategoryDraft{Name: name, Color: c.Category.Color}
	c.reset()
	return draft, nil
}

func (c *Controller) reset() {
	*c = Controller{}
}
