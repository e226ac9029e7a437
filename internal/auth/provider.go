package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ErrBadCredentials = errors.New("auth: invalid email or password")

// RemoteProvider authenticates against the taskflow API server and keeps
// the issued token on disk so later runs can restore the session.
type RemoteProvider struct {
	baseURL   string
	tokenPath string
	client    *http.Client
}

func NewRemoteProvider(baseURL, tokenPath string) *RemoteProvider {
	return &RemoteProvider{
		baseURL:   strings.TrimRight(baseURL, "/"),
		tokenPath: tokenPath,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *RemoteProvider) Login(ctx context.Context, email, password string) (User, error) {
	return p.credentialCall(ctx, "/api/auth/login", email, password)
}

// Signup registers a new account; the server logs the user straight in.
func (p *RemoteProvider) Signup(ctx context.Context, email, password string) (User, error) {
	return p.credentialCall(ctx, "/api/auth/signup", email, password)
}

// Restore checks whether a previously saved token is still accepted by
// the server. A missing or rejected token is not an error, just no
// session.
func (p *RemoteProvider) Restore(ctx context.Context) (User, bool, error) {
	token, err := p.readToken()
	if err != nil || token == "" {
		return User{}, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/auth/session", nil)
	if err != nil {
		return User{}, false, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return User{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		_ = p.clearToken()
		return User{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return User{}, false, fmt.Errorf("auth: session check failed with status %d", resp.StatusCode)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return User{}, false, err
	}
	user.Token = token
	return user, true, nil
}

func (p *RemoteProvider) Logout(ctx context.Context) error {
	return p.clearToken()
}

func (p *RemoteProvider) credentialCall(ctx context.Context, path, email, password string) (User, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return User{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return User{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		return User{}, ErrBadCredentials
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return User{}, fmt.Errorf("auth: %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return User{}, err
	}
	if err := p.saveToken(user.Token); err != nil {
		return User{}, err
	}
	return user, nil
}

func (p *RemoteProvider) readToken() (string, error) {
	raw, err := os.ReadFile(p.tokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func (p *RemoteProvider) saveToken(token string) error {
	dir := filepath.Dir(p.tokenPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := p.tokenPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(token+"\n"), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, p.tokenPath)
}

func (p *RemoteProvider) clearToken() error {
	if err := os.Remove(p.tokenPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
