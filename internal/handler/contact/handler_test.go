package contact

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/vedpatil1345/codetalk/internal/service/mail"
)

type fakeSender struct {
	got mail.ContactForm
	err error
}

func (f *fakeSender) Send(_ context.Context, form mail.ContactForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	f.got = form
	return f.err
}

func post(sender *fakeSender, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	New(sender).RegisterRoutes(r)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(body)))
	return resp
}

func TestContactSent(t *testing.T) {
	sender := &fakeSender{}
	resp := post(sender, `{"name":"Dev","email":"dev@example.com","message":"Hi"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if sender.got.Name != "Dev" {
		t.Fatalf("form not forwarded: %+v", sender.got)
	}
}

func TestContactValidation(t *testing.T) {
	resp := post(&fakeSender{}, `{"name":"Dev","email":"dev@example.com"}`)
	if resp.Code != http.StatusBadRequest || !strings.Contains(resp.Body.String(), "message is required") {
		t.Fatalf("unexpected %d %s", resp.Code, resp.Body.String())
	}
}

func TestContactFailure(t *testing.T) {
	resp := post(&fakeSender{err: errors.New("emailjs returned 500")}, `{"name":"a","email":"b","message":"c"}`)
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
}
