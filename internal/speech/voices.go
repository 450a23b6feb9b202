package speech

// Voice is a named speech synthesis voice.
type Voice struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Language groups the voices offered for one language tag.
type Language struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	// Engine is the voice argument passed to the local TTS command.
	Engine string  `json:"engine"`
	Voices []Voice `json:"voices"`
}

// DefaultLang is the language used when none is configured.
const DefaultLang = "hi-IN"

// Languages is the voice catalog. The first voice of each language is its default.
var Languages = []Language{
	{
		Code:   "hi-IN",
		Label:  "Hindi",
		Engine: "hi",
		Voices: []Voice{
			{Name: "Google हिन्दी", Label: "Hindi (Male - Default)"},
			{Name: "Microsoft Kalpana - Hindi (India)", Label: "Hindi (Female - Realistic)"},
		},
	},
	{
		Code:   "en-US",
		Label:  "English",
		Engine: "en-us",
		Voices: []Voice{
			{Name: "Google US English", Label: "English (Female - Default)"},
			{Name: "Microsoft Zira - English (United States)", Label: "English (Female - Realistic)"},
			{Name: "Microsoft David - English (United States)", Label: "English (Male - Realistic)"},
		},
	},
}

// LookupLanguage finds a language by its tag.
func LookupLanguage(code string) (Language, bool) {
	for _, l := range Languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// DefaultVoice returns the default voice name of a language, or "" if unknown.
func DefaultVoice(code string) string {
	l, ok := LookupLanguage(code)
	if !ok || len(l.Voices) == 0 {
		return ""
	}
	return l.Voices[0].Name
}

// ResolveVoice returns name if the language offers it, else the language default.
func ResolveVoice(code, name string) string {
	l, ok := LookupLanguage(code)
	if !ok {
		return ""
	}
	for _, v := range l.Voices {
		if v.Name == name {
			return name
		}
	}
	return DefaultVoice(code)
}
