package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	modelauth "github.com/vedpatil1345/codetalk/internal/model/auth"
	"github.com/vedpatil1345/codetalk/internal/service/auth"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestCORSExplicitOrigin(t *testing.T) {
	h := CORS([]string{"http://localhost:5173"})(ok)

	req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if resp.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("origin not echoed")
	}
	if resp.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("expected credentials for explicit origin")
	}
}

func TestCORSWildcardWithoutCredentials(t *testing.T) {
	h := CORS([]string{"*"})(ok)

	req := httptest.NewRequest(http.MethodOptions, "/api/x", nil)
	req.Header.Set("Origin", "https://elsewhere.dev")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected preflight 200, got %d", resp.Code)
	}
	if resp.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Fatalf("wildcard must not allow credentials")
	}
}

func TestGateRedirectsAnonymous(t *testing.T) {
	sessions := auth.NewSessions()
	h := Authenticate(sessions)(Gate(ok))

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/playground", nil))

	if resp.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", resp.Code)
	}
	if loc := resp.Header().Get("Location"); loc != "/auth?from=%2Fplayground" {
		t.Fatalf("unexpected location %q", loc)
	}
}

func TestGateRedirectsSignedInAwayFromAuth(t *testing.T) {
	sessions := auth.NewSessions()
	token, err := sessions.Issue(modelauth.User{UID: "u1", Email: "a@b.co"})
	if err != nil {
		t.Fatalf("Issue err: %v", err)
	}
	h := Authenticate(sessions)(Gate(ok))

	req := httptest.NewRequest(http.MethodGet, "/auth", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if resp.Code != http.StatusSeeOther || resp.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect home, got %d %q", resp.Code, resp.Header().Get("Location"))
	}
}

func TestRequireUser(t *testing.T) {
	h := RequireUser(ok)

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	req = req.WithContext(WithUser(req.Context(), modelauth.User{UID: "u1"}))
	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected pass through, got %d", resp.Code)
	}
}
