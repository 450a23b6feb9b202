// Package speech delivers spoken coaching feedback.
package speech

import "strings"

// Utterance is one line of feedback to be spoken.
type Utterance struct {
	Text  string `json:"text"`
	Lang  string `json:"lang"`
	Voice string `json:"voice,omitempty"`
}

// Speaker speaks utterances. Implementations must not block the caller for
// longer than it takes to hand the utterance off; failures are logged, not returned.
type Speaker interface {
	Speak(u Utterance)
}

// SpeakerFunc adapts a function to the Speaker interface.
type SpeakerFunc func(u Utterance)

// Speak calls f(u).
func (f SpeakerFunc) Speak(u Utterance) { f(u) }

// Multi fans an utterance out to every speaker.
type Multi []Speaker

// Speak forwards u to each speaker in order.
func (m Multi) Speak(u Utterance) {
	for _, s := range m {
		if s != nil {
			s.Speak(u)
		}
	}
}

var quoteStripper = strings.NewReplacer(`'`, "", `"`, "")

// Clean removes quote characters, which break the browser speech bridge.
func Clean(text string) string {
	return strings.TrimSpace(quoteStripper.Replace(text))
}
