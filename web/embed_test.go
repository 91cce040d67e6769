package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSPAHandlerFallsBackToIndex(t *testing.T) {
	h := SPAHandler()

	for _, path := range []string{"/", "/playground", "/analysis/error"} {
		resp := httptest.NewRecorder()
		h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))

		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.Code)
		}
		if !strings.Contains(resp.Body.String(), "<title>CodeTalk</title>") {
			t.Fatalf("%s: expected index.html", path)
		}
	}
}
