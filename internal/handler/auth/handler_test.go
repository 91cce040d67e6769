package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/vedpatil1345/codetalk/internal/middleware"
	authservice "github.com/vedpatil1345/codetalk/internal/service/auth"
	"github.com/vedpatil1345/codetalk/internal/service/history"
)

type fixture struct {
	router    *chi.Mux
	sessions  *authservice.Sessions
	histories *history.Registry
}

func setupRouter(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()

	local, err := authservice.NewLocalProvider(filepath.Join(dir, "accounts.db"))
	if err != nil {
		t.Fatalf("NewLocalProvider err: %v", err)
	}
	t.Cleanup(func() { _ = local.Close() })

	histories, err := history.OpenRegistry(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("OpenRegistry err: %v", err)
	}
	t.Cleanup(func() { _ = histories.Shutdown() })

	sessions := authservice.NewSessions()
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(sessions))
	New(local, sessions, histories, false).RegisterRoutes(r)
	return fixture{router: r, sessions: sessions, histories: histories}
}

func post(r http.Handler, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func sessionCookie(t *testing.T, resp *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range resp.Result().Cookies() {
		if c.Name == authservice.CookieName && c.Value != "" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

func TestSignUpSignInMeSignOut(t *testing.T) {
	f := setupRouter(t)

	resp := post(f.router, "/auth/signup", `{"email":"dev@example.com","password":"secret1","from":"/playground"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("signup: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var out authResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Redirect != "/playground" || out.User.Email != "dev@example.com" {
		t.Fatalf("unexpected response %+v", out)
	}

	resp = post(f.router, "/auth/signin", `{"email":"dev@example.com","password":"secret1"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("signin: expected 200, got %d", resp.Code)
	}
	cookie := sessionCookie(t, resp)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(cookie)
	me := httptest.NewRecorder()
	f.router.ServeHTTP(me, req)
	if me.Code != http.StatusOK || !strings.Contains(me.Body.String(), "dev@example.com") {
		t.Fatalf("me: unexpected %d %s", me.Code, me.Body.String())
	}

	resp = post(f.router, "/auth/signout", ``, cookie)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("signout: expected 204, got %d", resp.Code)
	}
	if _, ok := f.sessions.Lookup(cookie.Value); ok {
		t.Fatal("session token still valid after sign out")
	}
}

func TestSignInWrongPassword(t *testing.T) {
	f := setupRouter(t)
	post(f.router, "/auth/signup", `{"email":"dev@example.com","password":"secret1"}`)

	resp := post(f.router, "/auth/signin", `{"email":"dev@example.com","password":"nope-nope"}`)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Invalid email or password.") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestSignUpMissingField(t *testing.T) {
	f := setupRouter(t)
	resp := post(f.router, "/auth/signup", `{"email":"dev@example.com"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSignUpDuplicate(t *testing.T) {
	f := setupRouter(t)
	post(f.router, "/auth/signup", `{"email":"dev@example.com","password":"secret1"}`)
	resp := post(f.router, "/auth/signup", `{"email":"dev@example.com","password":"secret1"}`)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestMeWithoutSession(t *testing.T) {
	f := setupRouter(t)
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}
