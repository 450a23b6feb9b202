package speech

import "sync"

// Settings are the user's voice preferences.
type Settings struct {
	Enabled bool   `json:"enabled"`
	Lang    string `json:"lang"`
	Voice   string `json:"voice"`
}

// DefaultSettings returns voice enabled with the default Hindi voice.
func DefaultSettings() Settings {
	return Settings{Enabled: true, Lang: DefaultLang, Voice: DefaultVoice(DefaultLang)}
}

// Announcer speaks feedback through a Speaker, skipping repeats of the last
// announced line and everything while voice is disabled.
type Announcer struct {
	speaker Speaker

	mu       sync.Mutex
	settings Settings
	last     string
}

// NewAnnouncer creates an announcer. Unknown languages fall back to the default.
func NewAnnouncer(speaker Speaker, settings Settings) *Announcer {
	a := &Announcer{speaker: speaker}
	a.SetSettings(settings)
	return a
}

// Settings returns the current voice preferences.
func (a *Announcer) Settings() Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings
}

// SetSettings replaces the voice preferences.
func (a *Announcer) SetSettings(s Settings) {
	if _, ok := LookupLanguage(s.Lang); !ok {
		s.Lang = DefaultLang
	}
	s.Voice = ResolveVoice(s.Lang, s.Voice)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.settings = s
}

// Announce speaks text if it differs from the previously announced line.
// Lines arriving while voice is disabled are not remembered.
// It reports whether anything was spoken.
func (a *Announcer) Announce(text string) bool {
	a.mu.Lock()
	if !a.settings.Enabled || text == "" || text == a.last {
		a.mu.Unlock()
		return false
	}
	a.last = text
	a.mu.Unlock()

	return a.Say(text)
}

// Say speaks text unconditionally, subject only to voice being enabled.
func (a *Announcer) Say(text string) bool {
	a.mu.Lock()
	s := a.settings
	a.mu.Unlock()

	text = Clean(text)
	if !s.Enabled || text == "" || a.speaker == nil {
		return false
	}
	a.speaker.Speak(Utterance{Text: text, Lang: s.Lang, Voice: s.Voice})
	return true
}

// Reset forgets the last announced line so the next Announce always speaks.
func (a *Announcer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last = ""
}
