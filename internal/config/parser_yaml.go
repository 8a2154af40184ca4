package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// parseYAML decodes the YAML form of the config document. Unknown keys are rejected.
func parseYAML(content string, base Config) (Config, []Warning, error) {
	if strings.TrimSpace(content) == "" {
		return finish(base, nil)
	}

	decoder := yaml.NewDecoder(strings.NewReader(content))
	decoder.KnownFields(true)

	var doc document
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			// Comments only.
			return finish(base, nil)
		}
		return Config{}, nil, fmt.Errorf("yaml: %w", err)
	}

	var extra yaml.Node
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return Config{}, nil, fmt.Errorf("yaml: %w", err)
		}
		return Config{}, nil, fmt.Errorf("multiple YAML documents are not allowed")
	}

	cfg := base
	warnings, err := doc.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return finish(cfg, warnings)
}
