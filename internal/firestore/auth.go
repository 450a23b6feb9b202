package firestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Firebase Auth REST endpoints.
const (
	DefaultAuthURL  = "https://identitytoolkit.googleapis.com/v1"
	DefaultTokenURL = "https://securetoken.googleapis.com/v1/token"
)

// ErrNoAPIKey is returned when email sign-in is attempted without a web API key.
var ErrNoAPIKey = errors.New("firebase web API key not configured")

// AuthConfig configures Firebase email/password authentication.
type AuthConfig struct {
	APIKey   string
	AuthURL  string
	TokenURL string
}

// Account is a signed-in Firebase user.
type Account struct {
	UserID string
	Email  string
	Token  *oauth2.Token
}

// AuthError is an error reported by Firebase Auth, e.g. EMAIL_NOT_FOUND.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("firebase auth error %d: %s", e.Status, e.Message)
}

// Authenticator signs users in and refreshes their ID tokens.
type Authenticator struct {
	cfg        AuthConfig
	httpClient *http.Client
}

// NewAuthenticator creates an authenticator.
func NewAuthenticator(cfg AuthConfig) *Authenticator {
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	return &Authenticator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SignIn signs an existing user in with email and password.
func (a *Authenticator) SignIn(ctx context.Context, email, password string) (*Account, error) {
	return a.passwordRequest(ctx, "accounts:signInWithPassword", email, password)
}

// SignUp creates a new user and signs them in.
func (a *Authenticator) SignUp(ctx context.Context, email, password string) (*Account, error) {
	return a.passwordRequest(ctx, "accounts:signUp", email, password)
}

// TokenSource returns a source that serves the account's ID token and
// refreshes it shortly before it expires.
func (a *Authenticator) TokenSource(acct *Account) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(acct.Token, &refresher{auth: a, refreshToken: acct.Token.RefreshToken})
}

type passwordResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

func (a *Authenticator) passwordRequest(ctx context.Context, method, email, password string) (*Account, error) {
	if a.cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	body, err := json.Marshal(map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/%s?key=%s", a.cfg.AuthURL, method, url.QueryEscape(a.cfg.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp passwordResponse
	if err := a.do(req, &resp); err != nil {
		return nil, err
	}

	return &Account{
		UserID: resp.LocalID,
		Email:  resp.Email,
		Token:  newToken(resp.IDToken, resp.RefreshToken, resp.ExpiresIn),
	}, nil
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

// refresher exchanges a refresh token for a new ID token. Calls are
// serialized by the wrapping ReuseTokenSource.
type refresher struct {
	auth         *Authenticator
	refreshToken string
}

func (r *refresher) Token() (*oauth2.Token, error) {
	if r.refreshToken == "" {
		return nil, errors.New("firebase ID token expired and no refresh token available")
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", r.refreshToken)

	reqURL := fmt.Sprintf("%s?key=%s", r.auth.cfg.TokenURL, url.QueryEscape(r.auth.cfg.APIKey))
	req, err := http.NewRequest(http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp refreshResponse
	if err := r.auth.do(req, &resp); err != nil {
		return nil, fmt.Errorf("refreshing ID token: %w", err)
	}

	if resp.RefreshToken != "" {
		r.refreshToken = resp.RefreshToken
	}
	return newToken(resp.IDToken, r.refreshToken, resp.ExpiresIn), nil
}

func newToken(idToken, refreshToken, expiresIn string) *oauth2.Token {
	t := &oauth2.Token{
		AccessToken:  idToken,
		TokenType:    "Bearer",
		RefreshToken: refreshToken,
	}
	if secs, err := strconv.Atoi(expiresIn); err == nil && secs > 0 {
		t.Expiry = time.Now().Add(time.Duration(secs) * time.Second)
	}
	return t
}

func (a *Authenticator) do(req *http.Request, out any) error {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error.Message != "" {
			msg = e.Error.Message
		}
		return &AuthError{Status: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding auth response: %w", err)
	}
	return nil
}
