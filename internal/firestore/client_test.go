package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/ayusman/repcoach/internal/store"
)

const collectionPath = "/projects/demo/databases/(default)/documents/user_logs_u42"

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(
		Config{ProjectID: "demo", UserID: "u42", BaseURL: srv.URL},
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "id-token"}),
	)
}

func TestClient_CollectionURL(t *testing.T) {
	c := NewClient(Config{ProjectID: "demo", UserID: "u42"}, oauth2.StaticTokenSource(&oauth2.Token{}))
	assert.Equal(t,
		"https://firestore.googleapis.com/v1/projects/demo/databases/(default)/documents/user_logs_u42",
		c.CollectionURL())
	assert.Equal(t, "u42", c.UserID())
}

func TestClient_Save(t *testing.T) {
	var got map[string]map[string]map[string]any

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, collectionPath, r.URL.Path)
		assert.Equal(t, "Bearer id-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name": "projects/demo/databases/(default)/documents/user_logs_u42/abc123"}`))
	})

	l := &store.WorkoutLog{
		Exercise:   "Bicep Curls",
		Side:       "left",
		RepsLeft:   10,
		RepsRight:  0,
		Duration:   42.5,
		SetNumber:  2,
		TargetReps: 10,
		TargetSets: 3,
		Timestamp:  time.Date(2025, 3, 1, 4, 0, 0, 0, time.UTC),
	}
	require.NoError(t, c.Save(context.Background(), l))

	assert.Equal(t, "abc123", l.ID)

	f := got["fields"]
	assert.Equal(t, "Bicep Curls", f["exercise"]["stringValue"])
	assert.Equal(t, "left", f["side"]["stringValue"])
	assert.Equal(t, "10", f["reps_left"]["integerValue"])
	assert.Equal(t, "0", f["reps_right"]["integerValue"])
	assert.Equal(t, 42.5, f["duration"]["doubleValue"])
	assert.Equal(t, "2", f["set_number"]["integerValue"])
	assert.Equal(t, "10", f["target_reps"]["integerValue"])
	assert.Equal(t, "2025-03-01T04:00:00Z", f["timestamp"]["timestampValue"])
}

func TestClient_SaveAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"status": "PERMISSION_DENIED"}}`, http.StatusForbidden)
	})

	err := c.Save(context.Background(), &store.WorkoutLog{Exercise: "Squats"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Contains(t, apiErr.Body, "PERMISSION_DENIED")
}

func TestClient_List(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, collectionPath, r.URL.Path)
		assert.Equal(t, "timestamp desc", r.URL.Query().Get("orderBy"))
		assert.Equal(t, "5", r.URL.Query().Get("pageSize"))

		_, _ = w.Write([]byte(`{
			"documents": [
				{
					"name": "projects/demo/databases/(default)/documents/user_logs_u42/new",
					"fields": {
						"exercise": {"stringValue": "Squats"},
						"side": {"stringValue": "both"},
						"reps_left": {"integerValue": "12"},
						"reps_right": {"integerValue": 11},
						"duration": {"doubleValue": 80.25},
						"set_number": {"integerValue": "3"},
						"target_reps": {"integerValue": "12"},
						"timestamp": {"timestampValue": "2025-03-02T10:00:00.123Z"}
					}
				},
				{
					"name": "projects/demo/databases/(default)/documents/user_logs_u42/old",
					"fields": {}
				}
			]
		}`))
	})

	logs, err := c.List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	first := logs[0]
	assert.Equal(t, "new", first.ID)
	assert.Equal(t, "u42", first.UserID)
	assert.Equal(t, "Squats", first.Exercise)
	assert.Equal(t, "both", first.Side)
	assert.Equal(t, 12, first.RepsLeft)
	assert.Equal(t, 11, first.RepsRight)
	assert.Equal(t, 80.25, first.Duration)
	assert.Equal(t, 3, first.SetNumber)
	assert.Equal(t, 12, first.TargetReps)
	assert.Equal(t, time.Date(2025, 3, 2, 10, 0, 0, 123000000, time.UTC), first.Timestamp.UTC())

	// missing fields fall back to defaults
	old := logs[1]
	assert.Equal(t, "old", old.ID)
	assert.Equal(t, "N/A", old.Exercise)
	assert.Equal(t, "N/A", old.Side)
	assert.Zero(t, old.RepsLeft)
	assert.Zero(t, old.Duration)
	assert.Equal(t, 1, old.SetNumber)
	assert.Equal(t, 10, old.TargetReps)
	assert.True(t, old.Timestamp.IsZero())
}

func TestClient_ListEmptyCollection(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("pageSize"))
		_, _ = w.Write([]byte(`{}`))
	})

	logs, err := c.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestDecodeLog_DoubleStoredAsInteger(t *testing.T) {
	n := intString("30")
	l := decodeLog(document{Fields: map[string]value{"duration": {IntegerValue: &n}}})
	assert.Equal(t, 30.0, l.Duration)
}
