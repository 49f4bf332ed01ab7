package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func generateEnvExample(cmd *cobra.Command) error {
	fmt.Println("Generating .env.example file from current configuration...")

	content := generateEnvExampleContent(cmd)

	if err := os.WriteFile(".env.example", []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write .env.example: %w", err)
	}

	fmt.Println("Successfully generated .env.example file")
	return nil
}

func generateEnvExampleContent(cmd *cobra.Command) string {
	var content strings.Builder

	content.WriteString("# =============================================================================\n")
	content.WriteString("# spotifystatus Configuration\n")
	content.WriteString("# =============================================================================\n")
	content.WriteString("#\n")
	content.WriteString("# Copy this file to .env and update with your values\n")
	content.WriteString("# All environment variables have CLI flag equivalents (use --help to see them)\n")
	content.WriteString("#\n")
	fmt.Fprintf(&content, "# Format: %s_<SETTING>=value\n", envPrefix)
	content.WriteString("# CLI equivalent: --<setting>\n")
	content.WriteString("#\n\n")

	writeSection(&content, cmd, "SPOTIFY - Required, from https://developer.spotify.com/dashboard", []envEntry{
		{flag: "spotify-client-id", example: "your_spotify_client_id_here", help: "Spotify app client ID"},
		{flag: "spotify-client-secret", example: "your_spotify_client_secret_here", help: "Spotify app client secret"},
		{flag: "spotify-redirect-url", help: "OAuth callback URL"},
		{flag: "spotify-token-path", help: "Token storage path"},
	})
	writeSection(&content, cmd, "MONITOR", []envEntry{
		{flag: "poll-interval-secs", help: "Player poll interval in seconds"},
	})
	writeSection(&content, cmd, "CANVAS AND LYRICS", []envEntry{
		{flag: "canvas-enabled", help: "Fetch canvas videos"},
		{flag: "lyrics-enabled", help: "Fetch synchronized lyrics"},
		{flag: "canvas-endpoint", help: "Canvas page endpoint"},
		{flag: "lyrics-endpoint", help: "Lyrics API endpoint"},
		{flag: "fetch-timeout-secs", help: "Deadline per fetch, 0 disables it"},
	})
	writeSection(&content, cmd, "HTTP SERVER", []envEntry{
		{flag: "server-enabled", help: "Serve /status, /metrics, /healthz and /readyz"},
		{flag: "server-host", help: "Bind address"},
		{flag: "server-port", help: "Port, also used by the default OAuth callback"},
	})
	writeSection(&content, cmd, "LOGGING", []envEntry{
		{flag: "log-level", help: "debug, info, warn or error"},
	})

	return content.String()
}

type envEntry struct {
	flag    string
	example string
	help    string
}

func writeSection(content *strings.Builder, cmd *cobra.Command, title string, entries []envEntry) {
	content.WriteString("# -----------------------------------------------------------------------------\n")
	fmt.Fprintf(content, "# %s\n", title)
	content.WriteString("# -----------------------------------------------------------------------------\n")

	for _, entry := range entries {
		defaultValue := getDefaultValueString(cmd, entry.flag)
		value := entry.example
		if value == "" {
			value = defaultValue
		}
		fmt.Fprintf(content, "%s=%s  # %s (default: %q)\n", flagToEnvVar(entry.flag), value, entry.help, defaultValue)
	}
	content.WriteString("\n")
}

func flagToEnvVar(flagName string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

func getDefaultValueString(cmd *cobra.Command, flagName string) string {
	if f := cmd.PersistentFlags().Lookup(flagName); f != nil {
		return f.DefValue
	}
	return ""
}
