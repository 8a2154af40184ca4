package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// document is the on-disk overlay shared by the JSONC and YAML formats.
// Nil fields keep the base value.
type document struct {
	Search    *documentSearch    `json:"search" yaml:"search"`
	Speech    *documentSpeech    `json:"speech" yaml:"speech"`
	Audio     *documentAudio     `json:"audio" yaml:"audio"`
	Indicator *documentIndicator `json:"indicator" yaml:"indicator"`
	Vocab     *documentVocab     `json:"vocab" yaml:"vocab"`
	Debug     *documentDebug     `json:"debug" yaml:"debug"`
}

type documentSearch struct {
	URL        *string `json:"url" yaml:"url"`
	TimeoutMS  *int    `json:"timeout_ms" yaml:"timeout_ms"`
	DetailPath *string `json:"detail_path" yaml:"detail_path"`
}

type documentSpeech struct {
	Backend         *string `json:"backend" yaml:"backend"`
	LanguageCode    *string `json:"language_code" yaml:"language_code"`
	Model           *string `json:"model" yaml:"model"`
	CredentialsFile *string `json:"credentials_file" yaml:"credentials_file"`
	ListenTimeoutMS *int    `json:"listen_timeout_ms" yaml:"listen_timeout_ms"`
	Probe           *bool   `json:"probe" yaml:"probe"`
}

type documentAudio struct {
	Input    *string `json:"input" yaml:"input"`
	Fallback *string `json:"fallback" yaml:"fallback"`
}

type documentIndicator struct {
	Enable         *bool   `json:"enable" yaml:"enable"`
	Backend        *string `json:"backend" yaml:"backend"`
	DesktopAppName *string `json:"desktop_app_name" yaml:"desktop_app_name"`
	SoundEnable    *bool   `json:"sound_enable" yaml:"sound_enable"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms" yaml:"error_timeout_ms"`
}

type documentVocab struct {
	Global     *stringList                 `json:"global" yaml:"global"`
	MaxPhrases *int                        `json:"max_phrases" yaml:"max_phrases"`
	Sets       map[string]documentVocabSet `json:"sets" yaml:"sets"`
}

type documentVocabSet struct {
	Boost   *float64 `json:"boost" yaml:"boost"`
	Phrases []string `json:"phrases" yaml:"phrases"`
}

type documentDebug struct {
	GRPCDump *bool `json:"grpc_dump" yaml:"grpc_dump"`
}

// stringList accepts either a list or a comma-delimited string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = splitList(single)
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	case yaml.ScalarNode:
		*l = splitList(node.Value)
		return nil
	default:
		return fmt.Errorf("line %d: expected string list or comma-delimited string", node.Line)
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func (doc document) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if doc.Search != nil {
		if doc.Search.URL != nil {
			cfg.Search.URL = strings.TrimSpace(*doc.Search.URL)
		}
		if doc.Search.TimeoutMS != nil {
			cfg.Search.TimeoutMS = *doc.Search.TimeoutMS
		}
		if doc.Search.DetailPath != nil {
			cfg.Search.DetailPath = strings.TrimSpace(*doc.Search.DetailPath)
		}
	}

	if doc.Speech != nil {
		if doc.Speech.Backend != nil {
			cfg.Speech.Backend = strings.ToLower(strings.TrimSpace(*doc.Speech.Backend))
		}
		if doc.Speech.LanguageCode != nil {
			cfg.Speech.LanguageCode = strings.TrimSpace(*doc.Speech.LanguageCode)
		}
		if doc.Speech.Model != nil {
			cfg.Speech.Model = strings.TrimSpace(*doc.Speech.Model)
		}
		if doc.Speech.CredentialsFile != nil {
			cfg.Speech.CredentialsFile = strings.TrimSpace(*doc.Speech.CredentialsFile)
		}
		if doc.Speech.ListenTimeoutMS != nil {
			cfg.Speech.ListenTimeoutMS = *doc.Speech.ListenTimeoutMS
		}
		if doc.Speech.Probe != nil {
			cfg.Speech.Probe = *doc.Speech.Probe
		}
	}

	if doc.Audio != nil {
		if doc.Audio.Input != nil {
			cfg.Audio.Input = *doc.Audio.Input
		}
		if doc.Audio.Fallback != nil {
			cfg.Audio.Fallback = *doc.Audio.Fallback
		}
	}

	if doc.Indicator != nil {
		if doc.Indicator.Enable != nil {
			cfg.Indicator.Enable = *doc.Indicator.Enable
		}
		if doc.Indicator.Backend != nil {
			cfg.Indicator.Backend = strings.ToLower(strings.TrimSpace(*doc.Indicator.Backend))
		}
		if doc.Indicator.DesktopAppName != nil {
			cfg.Indicator.DesktopAppName = strings.TrimSpace(*doc.Indicator.DesktopAppName)
		}
		if doc.Indicator.SoundEnable != nil {
			cfg.Indicator.SoundEnable = *doc.Indicator.SoundEnable
		}
		if doc.Indicator.ErrorTimeoutMS != nil {
			cfg.Indicator.ErrorTimeoutMS = *doc.Indicator.ErrorTimeoutMS
		}
	}

	if doc.Vocab != nil {
		if doc.Vocab.Global != nil {
			global := make([]string, 0, len(*doc.Vocab.Global))
			for _, name := range *doc.Vocab.Global {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				global = append(global, name)
			}
			cfg.Vocab.GlobalSets = global
		}
		if doc.Vocab.MaxPhrases != nil {
			cfg.Vocab.MaxPhrases = *doc.Vocab.MaxPhrases
		}
		if doc.Vocab.Sets != nil {
			sets := make(map[string]VocabSet, len(cfg.Vocab.Sets)+len(doc.Vocab.Sets))
			for name, set := range cfg.Vocab.Sets {
				sets[name] = set
			}
			for name, set := range doc.Vocab.Sets {
				trimmedName := strings.TrimSpace(name)
				if trimmedName == "" {
					return nil, fmt.Errorf("vocab.sets contains an empty set name")
				}

				entry := VocabSet{Name: trimmedName, Phrases: append([]string(nil), set.Phrases...)}
				if set.Boost != nil {
					entry.Boost = *set.Boost
				}
				if _, exists := sets[trimmedName]; exists {
					warnings = append(warnings, Warning{Message: fmt.Sprintf("vocab set %q overrides the built-in set", trimmedName)})
				}
				sets[trimmedName] = entry
			}
			cfg.Vocab.Sets = sets
		}
	}

	if doc.Debug != nil && doc.Debug.GRPCDump != nil {
		cfg.Debug.EnableGRPCDump = *doc.Debug.GRPCDump
	}

	return warnings, nil
}
