package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcoach/internal/speech"
)

// VoiceSettingsKey is the settings key the voice preferences are stored under.
const VoiceSettingsKey = "voice"

// SettingsStore persists JSON-encoded settings.
type SettingsStore interface {
	GetJSON(key string, v any) error
	SetJSON(key string, v any) error
}

// VoiceHandler serves the voice catalog and the voice preferences.
type VoiceHandler struct {
	announcer *speech.Announcer
	settings  SettingsStore
}

// NewVoiceHandler creates a VoiceHandler. settings may be nil, in which case
// changes last until restart.
func NewVoiceHandler(a *speech.Announcer, settings SettingsStore) *VoiceHandler {
	return &VoiceHandler{announcer: a, settings: settings}
}

// Voices handles GET /api/voices.
func (h *VoiceHandler) Voices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default_lang": speech.DefaultLang,
		"languages":    speech.Languages,
	})
}

// GetSettings handles GET /api/settings/voice.
func (h *VoiceHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.announcer.Settings())
}

// PutSettings handles PUT /api/settings/voice. An unknown voice falls back to
// the language default; an unknown language is rejected.
func (h *VoiceHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var s speech.Settings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if _, ok := speech.LookupLanguage(s.Lang); !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown language %q", s.Lang))
		return
	}

	h.announcer.SetSettings(s)
	applied := h.announcer.Settings()

	if h.settings != nil {
		if err := h.settings.SetJSON(VoiceSettingsKey, applied); err != nil {
			log.Errorf("api: save voice settings: %s", err)
			writeError(w, http.StatusInternalServerError, "failed to save voice settings")
			return
		}
	}
	writeJSON(w, http.StatusOK, applied)
}
