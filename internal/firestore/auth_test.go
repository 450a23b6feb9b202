package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestAuthenticator_SignIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts:signInWithPassword", r.URL.Path)
		assert.Equal(t, "web-key", r.URL.Query().Get("key"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.c", body["email"])
		assert.Equal(t, "secret", body["password"])
		assert.Equal(t, true, body["returnSecureToken"])

		_, _ = w.Write([]byte(`{"localId":"u42","email":"a@b.c","idToken":"id-1","refreshToken":"rt-1","expiresIn":"3600"}`))
	}))
	defer srv.Close()

	a := NewAuthenticator(AuthConfig{APIKey: "web-key", AuthURL: srv.URL})
	acct, err := a.SignIn(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)

	assert.Equal(t, "u42", acct.UserID)
	assert.Equal(t, "a@b.c", acct.Email)
	assert.Equal(t, "id-1", acct.Token.AccessToken)
	assert.Equal(t, "rt-1", acct.Token.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), acct.Token.Expiry, time.Minute)
}

func TestAuthenticator_SignUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts:signUp", r.URL.Path)
		_, _ = w.Write([]byte(`{"localId":"new","idToken":"id","refreshToken":"rt","expiresIn":"3600"}`))
	}))
	defer srv.Close()

	acct, err := NewAuthenticator(AuthConfig{APIKey: "k", AuthURL: srv.URL}).SignUp(context.Background(), "x@y.z", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, "new", acct.UserID)
}

func TestAuthenticator_SignInError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"INVALID_PASSWORD"}}`))
	}))
	defer srv.Close()

	_, err := NewAuthenticator(AuthConfig{APIKey: "k", AuthURL: srv.URL}).SignIn(context.Background(), "a@b.c", "wrong")

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusBadRequest, authErr.Status)
	assert.Equal(t, "INVALID_PASSWORD", authErr.Message)
}

func TestAuthenticator_NoAPIKey(t *testing.T) {
	_, err := NewAuthenticator(AuthConfig{}).SignIn(context.Background(), "a@b.c", "pw")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestAuthenticator_TokenSourceRefreshes(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "rt-1", r.PostForm.Get("refresh_token"))
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`{"id_token":"id-2","refresh_token":"rt-2","expires_in":"3600","user_id":"u42"}`))
	}))
	defer srv.Close()

	a := NewAuthenticator(AuthConfig{APIKey: "k", TokenURL: srv.URL})
	expired := &oauth2.Token{AccessToken: "id-1", RefreshToken: "rt-1", Expiry: time.Now().Add(-time.Minute)}
	ts := a.TokenSource(&Account{UserID: "u42", Token: expired})

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "id-2", tok.AccessToken)
	assert.Equal(t, "rt-2", tok.RefreshToken)

	// a valid token is reused without another round trip
	tok, err = ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "id-2", tok.AccessToken)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAuthenticator_TokenSourceValidTokenNoRefresh(t *testing.T) {
	a := NewAuthenticator(AuthConfig{APIKey: "k", TokenURL: "http://127.0.0.1:1"})
	valid := &oauth2.Token{AccessToken: "id-1", Expiry: time.Now().Add(time.Hour)}

	tok, err := a.TokenSource(&Account{Token: valid}).Token()
	require.NoError(t, err)
	assert.Equal(t, "id-1", tok.AccessToken)
}
