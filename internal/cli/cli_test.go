package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Equal(t, CommandHelp, parsed.Command)
}

func TestParseCommandWithConfig(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/voicesearch.jsonc", "doctor"})
	require.NoError(t, err)
	require.Equal(t, CommandDoctor, parsed.Command)
	require.Equal(t, "/tmp/voicesearch.jsonc", parsed.ConfigPath)
	require.False(t, parsed.ShowHelp)
}

func TestParseArgMatrix(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantErr   string
		wantCmd   Command
		wantHelp  bool
		wantPath  string
		wantQuery string
	}{
		{
			name:     "help short flag",
			args:     []string{"-h"},
			wantCmd:  CommandHelp,
			wantHelp: true,
		},
		{
			name:     "help long flag",
			args:     []string{"--help"},
			wantCmd:  CommandHelp,
			wantHelp: true,
		},
		{
			name:     "version flag",
			args:     []string{"--version"},
			wantCmd:  CommandVersion,
			wantHelp: false,
		},
		{
			name:    "config after command",
			args:    []string{"status", "--config", "/tmp/cfg"},
			wantErr: "unexpected arguments after command",
		},
		{
			name:    "missing config path",
			args:    []string{"--config"},
			wantErr: "requires a path",
		},
		{
			name:    "unknown flag",
			args:    []string{"--bogus"},
			wantErr: "unknown flag",
		},
		{
			name:    "unknown command",
			args:    []string{"bogus"},
			wantErr: "unknown command",
		},
		{
			name:    "extra args after command",
			args:    []string{"doctor", "extra"},
			wantErr: "unexpected arguments",
		},
		{
			name:     "search command",
			args:     []string{"search"},
			wantCmd:  CommandSearch,
			wantHelp: false,
		},
		{
			name:     "close with config",
			args:     []string{"--config", "/tmp/cfg", "close"},
			wantCmd:  CommandClose,
			wantHelp: false,
			wantPath: "/tmp/cfg",
		},
		{
			name:      "query joins remaining words",
			args:      []string{"--config", "/tmp/cfg", "query", "15", "maggio", "2023"},
			wantCmd:   CommandQuery,
			wantPath:  "/tmp/cfg",
			wantQuery: "15 maggio 2023",
		},
		{
			name:      "query keeps flag-like words",
			args:      []string{"query", "--help"},
			wantCmd:   CommandQuery,
			wantQuery: "--help",
		},
		{
			name:    "query without text",
			args:    []string{"query", "  "},
			wantErr: "query requires text",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(tc.args)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.wantCmd, parsed.Command)
			require.Equal(t, tc.wantHelp, parsed.ShowHelp)
			require.Equal(t, tc.wantPath, parsed.ConfigPath)
			require.Equal(t, tc.wantQuery, parsed.Query)
		})
	}
}

func TestCommandForwarded(t *testing.T) {
	for _, cmd := range []Command{CommandStatus, CommandOpen, CommandStart, CommandClose} {
		require.True(t, cmd.Forwarded(), cmd)
	}
	for _, cmd := range []Command{CommandSearch, CommandPanel, CommandQuery, CommandDoctor} {
		require.False(t, cmd.Forwarded(), cmd)
	}
}

func TestHelpTextIncludesCoreCommands(t *testing.T) {
	text := HelpText("voicesearch")
	require.Contains(t, text, "search")
	require.Contains(t, text, "panel")
	require.Contains(t, text, "query TEXT")
	require.Contains(t, text, "doctor")
	require.Contains(t, text, "--config PATH")
}
