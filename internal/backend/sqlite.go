package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"taskflow/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

// SQLiteBackend persists both entity types in a local SQLite database.
type SQLiteBackend struct {
	db *sql.DB
}

func NewSQLiteBackend(db *sql.DB) (*SQLiteBackend, error) {
	if db == nil {
		return nil, errors.New("backend: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func OpenSQLite(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	b, err := NewSQLiteBackend(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func (b *SQLiteBackend) ListTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT id, title, description, due_date, priority, category_id, is_completed, created_at, completed_at
		FROM tasks ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (b *SQLiteBackend) CreateTask(ctx context.Context, in model.Task) (model.Task, error) {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, due_date, priority, category_id, is_completed, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Title, in.Description, nullTime(in.DueDate), string(in.Priority),
		in.CategoryID, boolInt(in.IsCompleted), mustTime(in.CreatedAt), nullTime(in.CompletedAt),
	)
	if err != nil {
		return model.Task{}, err
	}
	return in, nil
}

func (b *SQLiteBackend) UpdateTask(ctx context.Context, in model.Task) (model.Task, error) {
	res, err := b.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, due_date = ?, priority = ?, category_id = ?, is_completed = ?, completed_at = ?
		WHERE id = ?`,
		in.Title, in.Description, nullTime(in.DueDate), string(in.Priority),
		in.CategoryID, boolInt(in.IsCompleted), nullTime(in.CompletedAt), in.ID,
	)
	if err != nil {
		return model.Task{}, err
	}
	if err := checkRowsAffected(res); err != nil {
		return model.Task{}, err
	}
	return in, nil
}

func (b *SQLiteBackend) DeleteTask(ctx context.Context, id string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	return err
}

func (b *SQLiteBackend) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT id, name, color FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (b *SQLiteBackend) CreateCategory(ctx context.Context, in model.Category) (model.Category, error) {
	_, err := b.db.ExecContext(ctx, `INSERT INTO categories (id, name, color) VALUES (?, ?, ?)`,
		in.ID, in.Name, in.Color)
	if err != nil {
		return model.Category{}, err
	}
	return in, nil
}

func (b *SQLiteBackend) UpdateCategory(ctx context.Context, in model.Category) (model.Category, error) {
	res, err := b.db.ExecContext(ctx, `UPDATE categories SET name = ?, color = ? WHERE id = ?`,
		in.Name, in.Color, in.ID)
	if err != nil {
		return model.Category{}, err
	}
	if err := checkRowsAffected(res); err != nil {
		return model.Category{}, err
	}
	return in, nil
}

func (b *SQLiteBackend) DeleteCategory(ctx context.Context, id string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.Task, error) {
	var out model.Task
	var due sql.NullString
	var priority string
	var completed int
	var created string
	var completedAt sql.NullString
	if err := s.Scan(&out.ID, &out.Title, &out.Description, &due, &priority, &out.CategoryID, &completed, &created, &completedAt); err != nil {
		return model.Task{}, err
	}
	createdAt, err := time.Parse(sqliteTimeLayout, created)
	if err != nil {
		return model.Task{}, err
	}
	dueDate, err := parseNullableTime(due)
	if err != nil {
		return model.Task{}, err
	}
	doneAt, err := parseNullableTime(completedAt)
	if err != nil {
		return model.Task{}, err
	}
	out.Priority = model.Priority(priority)
	out.IsCompleted = completed == 1
	out.CreatedAt = createdAt
	out.DueDate = dueDate
	out.CompletedAt = doneAt
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
