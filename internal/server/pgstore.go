package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"taskflow/internal/model"
)

var (
	ErrNotFound   = errors.New("server: record not found")
	ErrEmailTaken = errors.New("server: email already registered")
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS categories (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users (id),
    name TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users (id),
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    due_date TIMESTAMPTZ,
    priority TEXT NOT NULL DEFAULT 'medium',
    category_id TEXT NOT NULL DEFAULT '',
    is_completed BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL,
    completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks (user_id);
CREATE INDEX IF NOT EXISTS idx_categories_user_id ON categories (user_id);
`

// Store is the server's per-user Postgres persistence layer.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func OpenStore(dsn string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return NewStore(db), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

type taskRow struct {
	ID          string       `db:"id"`
	UserID      string       `db:"user_id"`
	Title       string       `db:"title"`
	Description string       `db:"description"`
	DueDate     sql.NullTime `db:"due_date"`
	Priority    string       `db:"priority"`
	CategoryID  string       `db:"category_id"`
	IsCompleted bool         `db:"is_completed"`
	CreatedAt   time.Time    `db:"created_at"`
	CompletedAt sql.NullTime `db:"completed_at"`
}

func (r taskRow) toModel() model.Task {
	out := model.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    model.Priority(r.Priority),
		CategoryID:  r.CategoryID,
		IsCompleted: r.IsCompleted,
		CreatedAt:   r.CreatedAt,
	}
	if r.DueDate.Valid {
		due := r.DueDate.Time
		out.DueDate = &due
	}
	if r.CompletedAt.Valid {
		done := r.CompletedAt.Time
		out.CompletedAt = &done
	}
	return out
}

func nullable(v *time.Time) any {
	if v == nil {
		return nil
	}
	return *v
}

func (s *Store) CreateUser(ctx context.Context, u User) error {
	query, args, err := psql.Insert("users").
		Columns("id", "email", "password_hash").
		Values(u.ID, u.Email, u.PasswordHash).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	query, args, err := psql.Select("id", "email", "password_hash", "created_at").
		From("users").
		Where(squirrel.Eq{"email": email}).
		ToSql()
	if err != nil {
		return User{}, err
	}
	var u User
	if err := s.db.GetContext(ctx, &u, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (User, error) {
	query, args, err := psql.Select("id", "email", "password_hash", "created_at").
		From("users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return User{}, err
	}
	var u User
	if err := s.db.GetContext(ctx, &u, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (s *Store) ListTasks(ctx context.Context, userID string) ([]model.Task, error) {
	query, args, err := psql.Select("id", "user_id", "title", "description", "due_date",
		"priority", "category_id", "is_completed", "created_at", "completed_at").
		From("tasks").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *Store) CreateTask(ctx context.Context, userID string, in model.Task) (model.Task, error) {
	query, args, err := psql.Insert("tasks").
		Columns("id", "user_id", "title", "description", "due_date",
			"priority", "category_id", "is_completed", "created_at", "completed_at").
		Values(in.ID, userID, in.Title, in.Description, nullable(in.DueDate),
			string(in.Priority), in.CategoryID, in.IsCompleted, in.CreatedAt, nullable(in.CompletedAt)).
		ToSql()
	if err != nil {
		return model.Task{}, err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return model.Task{}, err
	}
	return in, nil
}

func (s *Store) UpdateTask(ctx context.Context, userID string, in model.Task) (model.Task, error) {
	query, args, err := psql.Update("tasks").
		Set("title", in.Title).
		Set("description", in.Description).
		Set("due_date", nullable(in.DueDate)).
		Set("priority", string(in.Priority)).
		Set("category_id", in.CategoryID).
		Set("is_completed", in.IsCompleted).
		Set("completed_at", nullable(in.CompletedAt)).
		Where(squirrel.Eq{"id": in.ID, "user_id": userID}).
		ToSql()
	if err != nil {
		return model.Task{}, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return model.Task{}, err
	}
	if err := requireRows(res); err != nil {
		return model.Task{}, err
	}
	return in, nil
}

func (s *Store) DeleteTask(ctx context.Context, userID, id string) error {
	query, args, err := psql.Delete("tasks").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *Store) ListCategories(ctx context.Context, userID string) ([]model.Category, error) {
	query, args, err := psql.Select("id", "name", "color").
		From("categories").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	var out []model.Category
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Category{}
	}
	return out, nil
}

func (s *Store) CreateCategory(ctx context.Context, userID string, in model.Category) (model.Category, error) {
	query, args, err := psql.Insert("categories").
		Columns("id", "user_id", "name", "color").
		Values(in.ID, userID, in.Name, in.Color).
		ToSql()
	if err != nil {
		return model.Category{}, err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return model.Category{}, err
	}
	return in, nil
}

func (s *Store) UpdateCategory(ctx context.Context, userID string, in model.Category) (model.Category, error) {
	query, args, err := psql.Update("categories").
		Set("name", in.Name).
		Set("color", in.Color).
		Where(squirrel.Eq{"id": in.ID, "user_id": userID}).
		ToSql()
	if err != nil {
		return model.Category{}, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return model.Category{}, err
	}
	if err := requireRows(res); err != nil {
		return model.Category{}, err
	}
	return in, nil
}

func (s *Store) DeleteCategory(ctx context.Context, userID, id string) error {
	query, args, err := psql.Delete("categories").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func requireRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
