package doctor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gestionelezioni/voicesearch/internal/audio"
	"github.com/gestionelezioni/voicesearch/internal/config"
	"github.com/stretchr/testify/require"
)

func stubSelectDevice(t *testing.T, selection audio.Selection, err error) {
	t.Helper()
	previous := selectDevice
	selectDevice = func(context.Context, string, string) (audio.Selection, error) {
		return selection, err
	}
	t.Cleanup(func() { selectDevice = previous })
}

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestReportOKAllPassing(t *testing.T) {
	report := Report{Checks: []Check{{Name: "one", Pass: true}, {Name: "two", Pass: true}}}
	require.True(t, report.OK())
}

func TestCheckEnv(t *testing.T) {
	t.Setenv("TEST_DOCTOR_ENV", "/run/user/1000")

	check := checkEnv(
		"TEST_DOCTOR_ENV",
		func(v string) bool { return strings.HasPrefix(v, "/run") },
		"looks good",
		"unexpected",
	)

	require.True(t, check.Pass)
	require.Equal(t, "looks good", check.Message)
}

func TestCheckBinaryFound(t *testing.T) {
	check := checkBinary("sh", "shell available")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "shell available")
}

func TestCheckBinaryMissing(t *testing.T) {
	check := checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}

func TestCheckSearchEndpointReachableOnMethodNotAllowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cerca_lezioni_vocale", r.URL.Path)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	t.Cleanup(server.Close)

	check := checkSearchEndpoint(context.Background(), config.SearchConfig{URL: server.URL + "/cerca_lezioni_vocale"})
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "HTTP 405")
}

func TestCheckSearchEndpointFailsOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	check := checkSearchEndpoint(context.Background(), config.SearchConfig{URL: server.URL})
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "HTTP 502")
}

func TestCheckSearchEndpointTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	check := checkSearchEndpoint(context.Background(), config.SearchConfig{URL: url})
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "request failed")
}

func TestCheckSearchEndpointEmptyURL(t *testing.T) {
	check := checkSearchEndpoint(context.Background(), config.SearchConfig{})
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "search.url is empty")

	check = checkSearchEndpoint(context.Background(), config.SearchConfig{URL: "  \t"})
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "search.url is empty")
}

func TestCheckSearchEndpointTrimsURLLikeClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	t.Cleanup(server.Close)

	check := checkSearchEndpoint(context.Background(), config.SearchConfig{URL: "  " + server.URL + "\n"})
	require.True(t, check.Pass)
	require.Equal(t, "reachable at "+server.URL+" (HTTP 405)", check.Message)
}

func TestCheckSpeechCredentials(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "key.json")
	require.NoError(t, os.WriteFile(keyPath, []byte("{}"), 0o600))

	t.Run("configured file", func(t *testing.T) {
		t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
		check := checkSpeechCredentials(config.SpeechConfig{CredentialsFile: keyPath})
		require.True(t, check.Pass)
		require.Contains(t, check.Message, "speech.credentials_file")
	})

	t.Run("environment file", func(t *testing.T) {
		t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", keyPath)
		check := checkSpeechCredentials(config.SpeechConfig{})
		require.True(t, check.Pass)
		require.Contains(t, check.Message, "GOOGLE_APPLICATION_CREDENTIALS")
	})

	t.Run("missing file", func(t *testing.T) {
		t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
		check := checkSpeechCredentials(config.SpeechConfig{CredentialsFile: filepath.Join(dir, "absent.json")})
		require.False(t, check.Pass)
	})

	t.Run("directory", func(t *testing.T) {
		t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", dir)
		check := checkSpeechCredentials(config.SpeechConfig{})
		require.False(t, check.Pass)
		require.Contains(t, check.Message, "directory")
	})

	t.Run("unset", func(t *testing.T) {
		t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
		check := checkSpeechCredentials(config.SpeechConfig{})
		require.False(t, check.Pass)
		require.Contains(t, check.Message, "no credentials file")
	})
}

func TestCheckAudioSelectionReportsWarning(t *testing.T) {
	stubSelectDevice(t, audio.Selection{
		Device:  audio.Device{ID: "usb-mic"},
		Warning: "preferred input muted; using fallback",
	}, nil)

	check := checkAudioSelection(context.Background(), config.Default())
	require.True(t, check.Pass)
	require.Contains(t, check.Message, `"usb-mic"`)
	require.Contains(t, check.Message, "fallback")
}

func TestCheckAudioSelectionFailure(t *testing.T) {
	stubSelectDevice(t, audio.Selection{}, audio.ErrNoInput)

	check := checkAudioSelection(context.Background(), config.Default())
	require.False(t, check.Pass)
	require.Equal(t, "audio.device", check.Name)
}

func TestRunSkipsSpeechChecksWhenBackendDisabled(t *testing.T) {
	stubSelectDevice(t, audio.Selection{}, errors.New("must not be called"))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	t.Cleanup(server.Close)
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	cfg := config.Default()
	cfg.Speech.Backend = config.SpeechBackendNone
	cfg.Indicator.Enable = false
	cfg.Search.URL = server.URL

	report := Run(context.Background(), config.Loaded{Path: "/tmp/config.jsonc", Config: cfg, Exists: true})
	require.True(t, report.OK(), report.String())

	names := make([]string, 0, len(report.Checks))
	for _, check := range report.Checks {
		names = append(names, check.Name)
	}
	require.Equal(t, []string{"config", "XDG_RUNTIME_DIR", "speech", "search.endpoint"}, names)
}

func TestRunIncludesDesktopAndSpeechChecks(t *testing.T) {
	binDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "busctl"), []byte("#!/usr/bin/env sh\nexit 0\n"), 0o755))
	t.Setenv("PATH", binDir+":"+os.Getenv("PATH"))
	t.Setenv("XDG_RUNTIME_DIR", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	stubSelectDevice(t, audio.Selection{Device: audio.Device{ID: "default"}}, nil)

	cfg := config.Default()
	cfg.Search.URL = ""

	report := Run(context.Background(), config.Loaded{
		Path:     "/tmp/config.jsonc",
		Config:   cfg,
		Warnings: []config.Warning{{Message: "config file not found"}},
	})
	require.False(t, report.OK())

	byName := map[string]Check{}
	for _, check := range report.Checks {
		byName[check.Name] = check
	}
	require.Contains(t, byName["config"].Message, "using defaults")
	require.Contains(t, byName["config"].Message, "1 warning(s)")
	require.False(t, byName["XDG_RUNTIME_DIR"].Pass)
	require.True(t, byName["busctl"].Pass)
	require.False(t, byName["speech.credentials"].Pass)
	require.True(t, byName["audio.device"].Pass)
	require.False(t, byName["search.endpoint"].Pass)
}
