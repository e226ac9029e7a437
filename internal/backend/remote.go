package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"taskflow/internal/model"
)

// RemoteBackend speaks the taskflow API server's JSON contract. All calls
// carry the session's Bearer token.
type RemoteBackend struct {
	baseURL string
	client  *http.Client

	mu    sync.Mutex
	token string
}

func NewRemoteBackend(baseURL, token string) *RemoteBackend {
	return &RemoteBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken swaps the Bearer token after a login or session refresh.
// Requests may be in flight on other goroutines while this runs.
func (b *RemoteBackend) SetToken(token string) {
	b.mu.Lock()
	b.token = token
	b.mu.Unlock()
}

func (b *RemoteBackend) bearer() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token
}

func (b *RemoteBackend) ListTasks(ctx context.Context) ([]model.Task, error) {
	var out []model.Task
	if err := b.do(ctx, http.MethodGet, "/api/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *RemoteBackend) CreateTask(ctx context.Context, in model.Task) (model.Task, error) {
	var out model.Task
	if err := b.do(ctx, http.MethodPost, "/api/tasks", in, &out); err != nil {
		return model.Task{}, err
	}
	return out, nil
}

func (b *RemoteBackend) UpdateTask(ctx context.Context, in model.Task) (model.Task, error) {
	var out model.Task
	if err := b.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(in.ID), in, &out); err != nil {
		return model.Task{}, err
	}
	return out, nil
}

func (b *RemoteBackend) DeleteTask(ctx context.Context, id string) error {
	return b.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
}

func (b *RemoteBackend) ListCategories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	if err := b.do(ctx, http.MethodGet, "/api/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *RemoteBackend) CreateCategory(ctx context.Context, in model.Category) (model.Category, error) {
	var out model.Category
	if err := b.do(ctx, http.MethodPost, "/api/categories", in, &out); err != nil {
		return model.Category{}, err
	}
	return out, nil
}

func (b *RemoteBackend) UpdateCategory(ctx context.Context, in model.Category) (model.Category, error) {
	var out model.Category
	if err := b.do(ctx, http.MethodPut, "/api/categories/"+url.PathEscape(in.ID), in, &out); err != nil {
		return model.Category{}, err
	}
	return out, nil
}

func (b *RemoteBackend) DeleteCategory(ctx context.Context, id string) error {
	return b.do(ctx, http.MethodDelete, "/api/categories/"+url.PathEscape(id), nil, nil)
}

func (b *RemoteBackend) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := b.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("backend: %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
