package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken(secret, "user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	userID, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %q", userID)
	}
}

func TestTokenWrongSecretRejected(t *testing.T) {
	token, err := GenerateToken([]byte("right"), "user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken([]byte("wrong"), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got: %v", err)
	}
	if _, err := ParseToken([]byte("right"), "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got: %v", err)
	}
}

func TestPasswordHashVerify(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter2" {
		t.Fatal("password stored in clear")
	}
	if !VerifyPassword(hash, "hunter2") {
		t.Fatal("correct password rejected")
	}
	if VerifyPassword(hash, "hunter3") {
		t.Fatal("wrong password accepted")
	}
	if VerifyPassword("malformed", "hunter2") {
		t.Fatal("malformed hash accepted")
	}

	// Salts differ, so two hashes of the same password do too.
	again, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == again {
		t.Fatal("expected distinct salts")
	}
}

func TestSessionLoginFlow(t *testing.T) {
	s := NewSession()
	if s.State() != Anonymous {
		t.Fatalf("fresh session should be anonymous, got %s", s.State())
	}

	// Heading for the dashboard while anonymous lands on login first.
	if route := s.Require(RouteDashboard); route != RouteLogin {
		t.Fatalf("expected login route, got %s", route)
	}

	if route, err := s.Begin(); err != nil || route != RouteLogin {
		t.Fatalf("begin: route=%s err=%v", route, err)
	}
	if s.State() != Authenticating {
		t.Fatalf("expected authenticating, got %s", s.State())
	}
	if _, err := s.Begin(); err == nil {
		t.Fatal("second begin while in flight should fail")
	}

	route := s.Succeed(User{ID: "user-1", Email: "a@b.c"})
	if route != RouteDashboard {
		t.Fatalf("expected recorded destination, got %s", route)
	}
	if s.State() != Authenticated || s.User().ID != "user-1" {
		t.Fatalf("unexpected session: state=%s user=%#v", s.State(), s.User())
	}

	// Authenticated sessions pass Require through unchanged.
	if route := s.Require(RouteDashboard); route != RouteDashboard {
		t.Fatalf("expected pass-through, got %s", route)
	}
}

func TestSessionFailReturnsToAnonymous(t *testing.T) {
	s := NewSession()
	if _, err := s.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if route := s.Fail(); route != RouteLogin {
		t.Fatalf("expected to stay on login, got %s", route)
	}
	if s.State() != Anonymous || s.User().ID != "" {
		t.Fatalf("failed login should clear the session: %#v", s)
	}
}

func TestSessionLogout(t *testing.T) {
	s := NewSession()
	if _, err := s.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	s.Succeed(User{ID: "user-1"})
	if route := s.Logout(); route != RouteHome {
		t.Fatalf("expected home after logout, got %s", route)
	}
	if s.State() != Anonymous {
		t.Fatalf("expected anonymous after logout, got %s", s.State())
	}
}

func TestRemoteProviderLoginSavesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var body struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "hunter2" {
			http.Error(w, "invalid login", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(User{ID: "user-1", Email: body.Email, Token: "tok-abc"})
	}))
	defer srv.Close()

	tokenPath := filepath.Join(t.TempDir(), "session", "token")
	p := NewRemoteProvider(srv.URL, tokenPath)

	user, err := p.Login(context.Background(), "a@b.c", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != "user-1" || user.Token != "tok-abc" {
		t.Fatalf("unexpected user: %#v", user)
	}
	raw, err := os.ReadFile(tokenPath)
	if err != nil {
		t.Fatalf("token not saved: %v", err)
	}
	if string(raw) != "tok-abc\n" {
		t.Fatalf("unexpected token file contents %q", raw)
	}

	if _, err := p.Login(context.Background(), "a@b.c", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got: %v", err)
	}
}

func TestRemoteProviderRestore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/session" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok-abc" {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(User{ID: "user-1", Email: "a@b.c"})
	}))
	defer srv.Close()

	tokenPath := filepath.Join(t.TempDir(), "token")
	p := NewRemoteProvider(srv.URL, tokenPath)

	// No saved token: no session, no error.
	if _, ok, err := p.Restore(context.Background()); ok || err != nil {
		t.Fatalf("expected no session, got ok=%v err=%v", ok, err)
	}

	if err := os.WriteFile(tokenPath, []byte("tok-abc\n"), 0o600); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	user, ok, err := p.Restore(context.Background())
	if err != nil || !ok {
		t.Fatalf("restore: ok=%v err=%v", ok, err)
	}
	if user.ID != "user-1" || user.Token != "tok-abc" {
		t.Fatalf("unexpected user: %#v", user)
	}

	// A rejected token is cleared so the next run starts clean.
	if err := os.WriteFile(tokenPath, []byte("stale\n"), 0o600); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	if _, ok, err := p.Restore(context.Background()); ok || err != nil {
		t.Fatalf("expected stale token rejected, got ok=%v err=%v", ok, err)
	}
	if _, err := os.Stat(tokenPath); !os.IsNotExist(err) {
		t.Fatal("stale token file should have been removed")
	}
}

func TestRemoteProviderLogoutClearsToken(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(tokenPath, []byte("tok\n"), 0o600); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	p := NewRemoteProvider("http://unused", tokenPath)
	if err := p.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := os.Stat(tokenPath); !os.IsNotExist(err) {
		t.Fatal("token file should be gone")
	}
	// Logging out twice is fine.
	if err := p.Logout(context.Background()); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	secret := []byte("test-secret")
	m := NewMiddleware(secret)

	var gotUserID string
	handler := m.Wrap(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	// No token.
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	// Garbage token.
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}

	// Valid token.
	token, err := GenerateToken(secret, "user-7")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotUserID != "user-7" {
		t.Fatalf("expected user id in context, got %q", gotUserID)
	}
}
