// Package backend defines the persistence contract the entity store writes
// through, and its three implementations: a JSON file, SQLite, and a
// remote HTTP API.
package backend

import (
	"context"
	"errors"

	"taskflow/internal/model"
)

var ErrNotFound = errors.New("backend: not found")

// Backend is the four-operation persistence contract per entity type.
// Create returns the stored record (the remote backend may normalize it);
// Update replaces the full record matching its id.
type Backend interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, in model.Task) (model.Task, error)
	UpdateTask(ctx context.Context, in model.Task) (model.Task, error)
	DeleteTask(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, in model.Category) (model.Category, error)
	UpdateCategory(ctx context.Context, in model.Category) (model.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}
