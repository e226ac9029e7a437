package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/auth"
	"taskflow/internal/model"
)

var testSecret = []byte("test-secret")

func newTestServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(NewStore(sqlx.NewDb(db, "postgres")), testSecret, nil), mock
}

func bearerFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, userID)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestSignupIssuesToken(t *testing.T) {
	srv, mock := newTestServer(t)
	handler := srv.Handler()

	mock.ExpectExec(`INSERT INTO users .*`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"email":"A@B.C","password":"hunter2"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var user auth.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "a@b.c", user.Email)
	require.NotEmpty(t, user.Token)

	userID, err := auth.ParseToken(testSecret, user.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupRequiresCredentials(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"email":"","password":""}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	srv, mock := newTestServer(t)
	handler := srv.Handler()

	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)
	userRow := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}).
			AddRow("user-1", "a@b.c", hash, time.Now())
	}

	mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
		WithArgs("a@b.c").
		WillReturnRows(userRow())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"a@b.c","password":"hunter2"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var user auth.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "user-1", user.ID)
	assert.NotEmpty(t, user.Token)

	// Wrong password fails even though the user exists.
	mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
		WithArgs("a@b.c").
		WillReturnRows(userRow())

	req = httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"a@b.c","password":"wrong"}`))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionEndpoint(t *testing.T) {
	srv, mock := newTestServer(t)
	handler := srv.Handler()

	// No token.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}).
			AddRow("user-1", "a@b.c", "x", time.Now()))

	req = httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.Header.Set("Authorization", bearerFor(t, "user-1"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var user auth.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "user-1", user.ID)
	assert.Empty(t, user.Token)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTasksEndpointRequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListTasksEndpoint(t *testing.T) {
	srv, mock := newTestServer(t)
	handler := srv.Handler()

	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* FROM tasks WHERE user_id = \$1 ORDER BY created_at ASC`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "description", "due_date",
			"priority", "category_id", "is_completed", "created_at", "completed_at"}).
			AddRow("task-1", "user-1", "One", "", nil, "medium", "", false, created, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", bearerFor(t, "user-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tasks []model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "task-1", tasks[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTaskEndpointValidates(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/tasks",
		strings.NewReader(`{"title":"","priority":"medium"}`))
	req.Header.Set("Authorization", bearerFor(t, "user-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateUnknownTaskEndpoint(t *testing.T) {
	srv, mock := newTestServer(t)
	handler := srv.Handler()

	mock.ExpectExec(`UPDATE tasks SET .*`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	body := `{"title":"Ghost","priority":"low","createdAt":"2026-08-01T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPut, "/api/tasks/ghost", strings.NewReader(body))
	req.Header.Set("Authorization", bearerFor(t, "user-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTaskEndpoint(t *testing.T) {
	srv, mock := newTestServer(t)
	handler := srv.Handler()

	mock.ExpectExec(`DELETE FROM tasks WHERE id = \$1 AND user_id = \$2`).
		WithArgs("task-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodDelete, "/api/tasks/task-1", nil)
	req.Header.Set("Authorization", bearerFor(t, "user-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryEndpoints(t *testing.T) {
	srv, mock := newTestServer(t)
	handler := srv.Handler()

	mock.ExpectExec(`INSERT INTO categories .*`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodPost, "/api/categories",
		strings.NewReader(`{"id":"cat-1","name":"Work","color":"#818cf8"}`))
	req.Header.Set("Authorization", bearerFor(t, "user-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cat model.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cat))
	assert.Equal(t, "Work", cat.Name)

	mock.ExpectExec(`DELETE FROM categories WHERE id = \$1 AND user_id = \$2`).
		WithArgs("cat-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req = httptest.NewRequest(http.MethodDelete, "/api/categories/cat-1", nil)
	req.Header.Set("Authorization", bearerFor(t, "user-1"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	require.NoError(t, mock.ExpectationsWereMet())
}
