package render

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	renderservice "github.com/vedpatil1345/codetalk/internal/service/render"
)

func setupRouter() *chi.Mux {
	r := chi.NewRouter()
	New(renderservice.New()).RegisterRoutes(r)
	return r
}

func TestRenderPartialMarkdown(t *testing.T) {
	r := setupRouter()
	body := `{"text":"Try this:\n\n` + "```go" + `\nfmt.Println(1)"}`
	req := httptest.NewRequest(http.MethodPost, "/render", strings.NewReader(body))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out renderservice.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.CodeBlocks) != 1 || out.CodeBlocks[0].Complete {
		t.Fatalf("expected one open block, got %+v", out.CodeBlocks)
	}
	if out.CodeBlocks[0].Code != "fmt.Println(1)" {
		t.Fatalf("unexpected code %q", out.CodeBlocks[0].Code)
	}
}

func TestStyles(t *testing.T) {
	r := setupRouter()
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/render/styles.css", nil))

	if resp.Code != http.StatusOK || !strings.HasPrefix(resp.Header().Get("Content-Type"), "text/css") {
		t.Fatalf("unexpected response %d %q", resp.Code, resp.Header().Get("Content-Type"))
	}
}
