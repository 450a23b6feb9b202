package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepository(t *testing.T) {
	repo := newTestStore(t).Settings()

	_, err := repo.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Set("lang", "hi-IN"))
	require.NoError(t, repo.Set("lang", "en-US"))

	got, err := repo.Get("lang")
	require.NoError(t, err)
	assert.Equal(t, "en-US", got)
}

func TestSettingsRepository_JSON(t *testing.T) {
	repo := newTestStore(t).Settings()

	type voice struct {
		Enabled bool   `json:"enabled"`
		Lang    string `json:"lang"`
	}

	require.NoError(t, repo.SetJSON("voice", voice{Enabled: true, Lang: "en-US"}))

	var got voice
	require.NoError(t, repo.GetJSON("voice", &got))
	assert.Equal(t, voice{Enabled: true, Lang: "en-US"}, got)

	require.NoError(t, repo.Set("broken", "{"))
	assert.Error(t, repo.GetJSON("broken", &got))
	assert.ErrorIs(t, repo.GetJSON("absent", &got), ErrNotFound)
}
