package config

// monthsSet biases recognition toward spoken Italian dates.
const monthsSet = "mesi"

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Search: SearchConfig{
			URL:        "http://127.0.0.1:5000/cerca_lezioni_vocale",
			TimeoutMS:  8000,
			DetailPath: "/modifica_lezione/",
		},
		Speech: SpeechConfig{
			Backend:         SpeechBackendGoogle,
			LanguageCode:    "it-IT",
			ListenTimeoutMS: 8000,
			Probe:           true,
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        IndicatorBackendDesktop,
			DesktopAppName: "voicesearch",
			SoundEnable:    true,
			ErrorTimeoutMS: 1600,
		},
		Vocab: VocabConfig{
			GlobalSets: []string{monthsSet},
			Sets: map[string]VocabSet{
				monthsSet: {
					Name:  monthsSet,
					Boost: 10,
					Phrases: []string{
						"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno",
						"luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre",
						"oggi", "domani", "ieri",
					},
				},
			},
			MaxPhrases: 1024,
		},
		Debug: DebugConfig{},
	}
}
