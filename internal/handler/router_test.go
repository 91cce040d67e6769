package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	modelauth "github.com/vedpatil1345/codetalk/internal/model/auth"
	"github.com/vedpatil1345/codetalk/internal/provider/gemini"
	"github.com/vedpatil1345/codetalk/internal/service/auth"
	"github.com/vedpatil1345/codetalk/internal/service/history"
	"github.com/vedpatil1345/codetalk/internal/service/mail"
	"github.com/vedpatil1345/codetalk/internal/service/render"
	"github.com/vedpatil1345/codetalk/internal/service/vision"
)

type echoStreamer struct{}

func (echoStreamer) Stream(context.Context, string) (*schema.StreamReader[*schema.Message], error) {
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage("echo", nil)}), nil
}

type noopGenerator struct{}

func (noopGenerator) GenerateContent(context.Context, string, *gemini.InlineImage) (string, error) {
	return "", nil
}

func authUser() modelauth.User {
	return modelauth.User{UID: "u1", Email: "dev@example.com"}
}

func setupRouter(t *testing.T) (http.Handler, *auth.Sessions) {
	t.Helper()
	dir := t.TempDir()

	identity, err := auth.NewLocalProvider(filepath.Join(dir, "accounts.db"))
	if err != nil {
		t.Fatalf("NewLocalProvider err: %v", err)
	}
	t.Cleanup(func() { _ = identity.Close() })

	histories, err := history.OpenRegistry(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("OpenRegistry err: %v", err)
	}
	t.Cleanup(func() { _ = histories.Shutdown() })

	sessions := auth.NewSessions()
	pages := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("page " + r.URL.Path))
	})

	return NewRouter(Dependencies{
		AllowedOrigins: []string{"*"},
		Streamer:       echoStreamer{},
		Converter:      vision.NewService(noopGenerator{}),
		Mailer:         mail.NewSender(mail.Config{}),
		Renderer:       render.New(),
		Identity:       identity,
		Sessions:       sessions,
		Histories:      histories,
		Pages:          pages,
	}), sessions
}

func TestHealthz(t *testing.T) {
	r, _ := setupRouter(t)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestPrivateAPIRequiresSession(t *testing.T) {
	r, _ := setupRouter(t)
	for _, path := range []string{"/api/stream?query=hi", "/api/sessions"} {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, resp.Code)
		}
	}
}

func TestPagesAreGated(t *testing.T) {
	r, sessions := setupRouter(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/playground", nil))
	if resp.Code != http.StatusSeeOther || resp.Header().Get("Location") != "/auth?from=%2Fplayground" {
		t.Fatalf("expected redirect to auth, got %d %q", resp.Code, resp.Header().Get("Location"))
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("home must be public, got %d", resp.Code)
	}

	token, err := sessions.Issue(authUser())
	if err != nil {
		t.Fatalf("Issue err: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/playground", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "page /playground") {
		t.Fatalf("expected page for signed in user, got %d", resp.Code)
	}
}

func TestSignedInStream(t *testing.T) {
	r, sessions := setupRouter(t)
	token, err := sessions.Issue(authUser())
	if err != nil {
		t.Fatalf("Issue err: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stream?query=hi", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if !strings.Contains(resp.Body.String(), `"content":"echo"`) {
		t.Fatalf("unexpected stream %s", resp.Body.String())
	}
}
