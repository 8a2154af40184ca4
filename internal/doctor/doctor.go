// Package doctor runs runtime readiness diagnostics for config, audio, speech, and the search service.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/gestionelezioni/voicesearch/internal/audio"
	"github.com/gestionelezioni/voicesearch/internal/config"
	"github.com/gestionelezioni/voicesearch/internal/search"
)

const endpointProbeTimeout = 2 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// selectDevice is swapped in tests that must not depend on a live Pulse server.
var selectDevice = audio.SelectDevice

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded) Report {
	checks := []Check{}

	configMessage := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		configMessage = fmt.Sprintf("using defaults (%q not found)", cfg.Path)
	}
	if len(cfg.Warnings) > 0 {
		configMessage += fmt.Sprintf(", %d warning(s)", len(cfg.Warnings))
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: configMessage})

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "runtime dir available for the session socket", "XDG_RUNTIME_DIR is empty"))

	if cfg.Config.Indicator.Enable && cfg.Config.Indicator.Backend == config.IndicatorBackendDesktop {
		checks = append(checks, checkBinary("busctl", "desktop notifications require busctl"))
	}

	if cfg.Config.Speech.Backend == config.SpeechBackendNone {
		checks = append(checks, Check{Name: "speech", Pass: true, Message: "speech backend disabled; voice search unavailable"})
	} else {
		checks = append(checks, checkSpeechCredentials(cfg.Config.Speech))
		checks = append(checks, checkAudioSelection(ctx, cfg.Config))
	}

	checks = append(checks, checkSearchEndpoint(ctx, cfg.Config.Search))

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkSpeechCredentials looks for a readable credentials file, configured or from the environment.
func checkSpeechCredentials(cfg config.SpeechConfig) Check {
	const name = "speech.credentials"

	path := strings.TrimSpace(cfg.CredentialsFile)
	source := "speech.credentials_file"
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		source = "GOOGLE_APPLICATION_CREDENTIALS"
	}
	if path == "" {
		return Check{Name: name, Pass: false, Message: "no credentials file; set speech.credentials_file or GOOGLE_APPLICATION_CREDENTIALS"}
	}

	info, err := os.Stat(path)
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("%s: %v", source, err)}
	}
	if info.IsDir() {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("%s points at a directory: %s", source, path)}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("using %s from %s", path, source)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := selectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkSearchEndpoint confirms an HTTP server answers at the search URL.
// A GET against the POST-only route still proves reachability, so only 5xx fails.
func checkSearchEndpoint(ctx context.Context, cfg config.SearchConfig) Check {
	const name = "search.endpoint"

	url := search.NewClient(cfg.URL, nil).Endpoint()
	if url == "" {
		return Check{Name: name, Pass: false, Message: "search.url is empty"}
	}

	probeCtx, cancel := context.WithTimeout(ctx, endpointProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("invalid url: %v", err)}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url)}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("reachable at %s (HTTP %d)", url, resp.StatusCode)}
}
