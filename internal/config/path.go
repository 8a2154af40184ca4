package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	appDir       = "voicesearch"
	jsoncName    = "config.jsonc"
	yamlFileName = "config.yaml"
)

// ResolvePath applies CLI/XDG/home fallback rules for the config location.
// Without an explicit path, config.yaml is used when config.jsonc is absent.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}

	dir, err := configDir()
	if err != nil {
		return "", err
	}

	primary := filepath.Join(dir, jsoncName)
	if _, err := os.Stat(primary); err == nil {
		return primary, nil
	}
	alternate := filepath.Join(dir, yamlFileName)
	if _, err := os.Stat(alternate); err == nil {
		return alternate, nil
	}
	return primary, nil
}

func configDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, appDir), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}
	return filepath.Join(home, ".config", appDir), nil
}

// isYAMLPath reports whether the file extension selects the YAML format.
func isYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
