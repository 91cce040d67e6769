// Package mail delivers contact form messages through EmailJS.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vedpatil1345/codetalk/internal/service/prompt"
)

// DefaultBaseURL is the EmailJS REST endpoint.
const DefaultBaseURL = "https://api.emailjs.com"

// ErrNotConfigured is returned when the EmailJS identifiers are missing.
var ErrNotConfigured = errors.New("contact form is not configured")

// ContactForm is a message submitted from the contact page.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Validate rejects blank fields.
func (f ContactForm) Validate() error {
	return prompt.Require("name", f.Name, "email", f.Email, "message", f.Message)
}

// Config identifies the EmailJS service, template and public key.
type Config struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
	BaseURL    string
	HTTPClient *http.Client
}

// Sender posts contact forms.
type Sender struct {
	cfg    Config
	client *http.Client
}

// NewSender applies defaults to cfg.
func NewSender(cfg Config) *Sender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Sender{cfg: cfg, client: client}
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

// Send validates and delivers form.
func (s *Sender) Send(ctx context.Context, form ContactForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	if s.cfg.ServiceID == "" || s.cfg.TemplateID == "" || s.cfg.PublicKey == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(sendRequest{
		ServiceID:  s.cfg.ServiceID,
		TemplateID: s.cfg.TemplateID,
		UserID:     s.cfg.PublicKey,
		TemplateParams: map[string]string{
			"from_name":  form.Name,
			"from_email": form.Email,
			"message":    form.Message,
		},
	})
	if err != nil {
		return fmt.Errorf("encode emailjs request: %w", err)
	}

	endpoint := strings.TrimRight(s.cfg.BaseURL, "/") + "/api/v1.0/email/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build emailjs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("emailjs returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
