// Package authn handles email/password authentication against the Firebase
// Identity Toolkit REST API and holds the in-memory session registry.
package authn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	applog "github.com/estexav/Flowly/internal/log"
)

const defaultBaseURL = "https://identitytoolkit.googleapis.com/v1"

// Sentinel errors mapped from identity toolkit error codes so handlers can
// pick the right status and message.
var (
	ErrEmailExists   = errors.New("email already registered")
	ErrEmailNotFound = errors.New("email not registered")
	ErrWrongPassword = errors.New("wrong password")
	ErrUserDisabled  = errors.New("user disabled")
	ErrWeakPassword  = errors.New("password must be at least 6 characters")
)

// Session is what a successful signup or login yields.
type Session struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *applog.Logger
}

// Option configures the client. Tests use WithBaseURL to point at a local
// fake.
type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(apiKey string, logger *applog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.WithComponent(applog.ComponentAuth),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type credentialsRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type tokenResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SignUp registers a new account and returns its session.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	return c.exchange(ctx, "accounts:signUp", email, password)
}

// SignIn authenticates an existing account.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return c.exchange(ctx, "accounts:signInWithPassword", email, password)
}

func (c *Client) exchange(ctx context.Context, endpoint, email, password string) (*Session, error) {
	body, err := json.Marshal(credentialsRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, fmt.Errorf("encode credentials: %w", err)
	}

	url := fmt.Sprintf("%s/%s?key=%s", c.baseURL, endpoint, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var ae apiError
		if err := json.NewDecoder(resp.Body).Decode(&ae); err != nil {
			return nil, fmt.Errorf("auth failed with status %d", resp.StatusCode)
		}
		c.logger.WarnContext(ctx, "Authentication rejected",
			applog.FieldOperation, endpoint,
			"code", ae.Error.Message)
		return nil, mapAPIError(ae.Error.Message)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}
	return &Session{
		UserID:       tr.LocalID,
		Email:        tr.Email,
		IDToken:      tr.IDToken,
		RefreshToken: tr.RefreshToken,
	}, nil
}

// mapAPIError translates identity toolkit error codes. Weak-password codes
// arrive with a trailing explanation ("WEAK_PASSWORD : ..."), so match the
// prefix.
func mapAPIError(code string) error {
	switch {
	case code == "EMAIL_EXISTS":
		return ErrEmailExists
	case code == "EMAIL_NOT_FOUND":
		return ErrEmailNotFound
	case code == "INVALID_PASSWORD" || code == "INVALID_LOGIN_CREDENTIALS":
		return ErrWrongPassword
	case code == "USER_DISABLED":
		return ErrUserDisabled
	case strings.HasPrefix(code, "WEAK_PASSWORD"):
		return ErrWeakPassword
	default:
		return fmt.Errorf("auth error: %s", code)
	}
}
