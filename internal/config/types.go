// Package config resolves, parses, validates, and defaults voicesearch configuration.
package config

// Config is the fully materialized runtime configuration.
type Config struct {
	Search    SearchConfig
	Speech    SpeechConfig
	Audio     AudioConfig
	Indicator IndicatorConfig
	Vocab     VocabConfig
	Debug     DebugConfig
}

// SearchConfig locates the lesson-search service.
type SearchConfig struct {
	URL        string
	TimeoutMS  int
	DetailPath string
}

// SpeechConfig controls the recognition backend and request hints.
type SpeechConfig struct {
	Backend         string
	LanguageCode    string
	Model           string
	CredentialsFile string
	ListenTimeoutMS int
	Probe           bool
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// IndicatorConfig controls desktop notifications and audio cues.
type IndicatorConfig struct {
	Enable         bool
	Backend        string
	DesktopAppName string
	SoundEnable    bool
	ErrorTimeoutMS int
}

// VocabConfig controls enabled speech phrase sets and dedupe limits.
type VocabConfig struct {
	GlobalSets []string
	Sets       map[string]VocabSet
	MaxPhrases int
}

// VocabSet is one named phrase group with a shared boost value.
type VocabSet struct {
	Name    string
	Boost   float64
	Phrases []string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableGRPCDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

// SpeechPhrase is the normalized phrase payload sent to the recognizer.
type SpeechPhrase struct {
	Phrase string
	Boost  float32
}

const (
	SpeechBackendGoogle = "google"
	SpeechBackendNone   = "none"

	IndicatorBackendDesktop = "desktop"
	IndicatorBackendNone    = "none"
)
