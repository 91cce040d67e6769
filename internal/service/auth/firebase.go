package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/vedpatil1345/codetalk/internal/model/auth"
	"github.com/vedpatil1345/codetalk/internal/provider"
)

// DefaultFirebaseBaseURL is the Identity Toolkit endpoint.
const DefaultFirebaseBaseURL = "https://identitytoolkit.googleapis.com"

// FirebaseProvider signs users in through Firebase Authentication's REST API
// using the project's web API key.
type FirebaseProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewFirebaseProvider builds a provider. client may be nil.
func NewFirebaseProvider(apiKey, baseURL string, client *http.Client) *FirebaseProvider {
	if baseURL == "" {
		baseURL = DefaultFirebaseBaseURL
	}
	if client == nil {
		client = &http.Client{}
	}
	return &FirebaseProvider{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type passwordResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
}

type firebaseError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignUp creates a Firebase account.
func (p *FirebaseProvider) SignUp(ctx context.Context, email, password string) (auth.User, error) {
	return p.call(ctx, "accounts:signUp", email, password)
}

// SignIn verifies a Firebase email and password.
func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (auth.User, error) {
	return p.call(ctx, "accounts:signInWithPassword", email, password)
}

// SignOut is client side only for Firebase; the cached session is dropped by the caller.
func (p *FirebaseProvider) SignOut(context.Context, auth.User) error {
	return nil
}

func (p *FirebaseProvider) call(ctx context.Context, method, email, password string) (auth.User, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return auth.User{}, err
	}
	if strings.TrimSpace(p.apiKey) == "" {
		return auth.User{}, provider.ErrMissingCredential
	}

	body, err := json.Marshal(passwordRequest{Email: strings.TrimSpace(email), Password: password, ReturnSecureToken: true})
	if err != nil {
		return auth.User{}, fmt.Errorf("encode firebase request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/%s?key=%s", p.baseURL, method, url.QueryEscape(p.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return auth.User{}, fmt.Errorf("build firebase request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return auth.User{}, fmt.Errorf("firebase request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return auth.User{}, fmt.Errorf("read firebase response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var fbErr firebaseError
		if json.Unmarshal(raw, &fbErr) == nil && fbErr.Error.Message != "" {
			return auth.User{}, mapFirebaseCode(fbErr.Error.Message)
		}
		return auth.User{}, &provider.Error{Provider: "firebase", StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var out passwordResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return auth.User{}, provider.Malformed("firebase", err)
	}
	if out.LocalID == "" {
		return auth.User{}, provider.Malformed("firebase", fmt.Errorf("response without localId"))
	}
	return auth.User{UID: out.LocalID, Email: out.Email}, nil
}

// mapFirebaseCode translates Identity Toolkit error codes. Codes may carry a
// suffix such as "WEAK_PASSWORD : Password should be at least 6 characters".
func mapFirebaseCode(message string) error {
	code := strings.TrimSpace(strings.SplitN(message, ":", 2)[0])
	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return ErrInvalidCredentials
	case "EMAIL_EXISTS":
		return ErrEmailInUse
	case "WEAK_PASSWORD":
		return ErrWeakPassword
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return ErrInvalidEmail
	case "USER_DISABLED":
		return ErrUserDisabled
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return ErrTooManyAttempts
	default:
		return fmt.Errorf("firebase: %s", code)
	}
}
