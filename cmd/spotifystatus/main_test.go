package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"spotifystatus/internal/core"
	"spotifystatus/pkg/info"
	"spotifystatus/pkg/repeat"
)

func TestFlagToEnvVar(t *testing.T) {
	tests := []struct {
		flag     string
		expected string
	}{
		{"log-level", "SPOTIFYSTATUS_LOG_LEVEL"},
		{"spotify-client-id", "SPOTIFYSTATUS_SPOTIFY_CLIENT_ID"},
		{"fetch-timeout-secs", "SPOTIFYSTATUS_FETCH_TIMEOUT_SECS"},
	}

	for _, tt := range tests {
		if got := flagToEnvVar(tt.flag); got != tt.expected {
			t.Errorf("flagToEnvVar(%q) = %q, expected %q", tt.flag, got, tt.expected)
		}
	}
}

func TestGenerateEnvExampleContent(t *testing.T) {
	content := generateEnvExampleContent(rootCmd)

	expected := []string{
		"SPOTIFYSTATUS_SPOTIFY_CLIENT_ID=your_spotify_client_id_here",
		"SPOTIFYSTATUS_POLL_INTERVAL_SECS=2",
		"SPOTIFYSTATUS_CANVAS_ENABLED=true",
		"SPOTIFYSTATUS_SERVER_PORT=8080",
		"SPOTIFYSTATUS_FETCH_TIMEOUT_SECS=20",
		"SPOTIFYSTATUS_LOG_LEVEL=info",
	}
	for _, line := range expected {
		if !strings.Contains(content, line) {
			t.Errorf("env example missing %q", line)
		}
	}
}

func TestBuildConfig_Defaults(t *testing.T) {
	cfg := buildConfig()
	defaults := core.DefaultConfig()

	if cfg.Monitor.PollIntervalSecs != defaults.Monitor.PollIntervalSecs {
		t.Errorf("PollIntervalSecs = %d, expected %d", cfg.Monitor.PollIntervalSecs, defaults.Monitor.PollIntervalSecs)
	}
	if cfg.Server.Port != defaults.Server.Port {
		t.Errorf("Server.Port = %d, expected %d", cfg.Server.Port, defaults.Server.Port)
	}
	if !cfg.Fetch.CanvasEnabled || !cfg.Fetch.LyricsEnabled {
		t.Error("canvas and lyrics should be enabled by default")
	}
	if cfg.Fetch.LyricsEndpoint != core.DefaultLyricsEndpoint {
		t.Errorf("LyricsEndpoint = %q", cfg.Fetch.LyricsEndpoint)
	}
	if cfg.Spotify.TokenPath != defaults.Spotify.TokenPath {
		t.Errorf("TokenPath = %q", cfg.Spotify.TokenPath)
	}
}

func TestBuildConfig_InvalidValuesFallBack(t *testing.T) {
	viper.Set("poll-interval-secs", -3)
	viper.Set("fetch-timeout-secs", -1)
	t.Cleanup(func() {
		viper.Set("poll-interval-secs", core.DefaultPollIntervalSecs)
		viper.Set("fetch-timeout-secs", core.DefaultFetchTimeoutSecs)
	})

	cfg := buildConfig()

	if cfg.Monitor.PollIntervalSecs != core.DefaultPollIntervalSecs {
		t.Errorf("PollIntervalSecs = %d, expected default", cfg.Monitor.PollIntervalSecs)
	}
	if cfg.Fetch.TimeoutSecs != core.DefaultFetchTimeoutSecs {
		t.Errorf("TimeoutSecs = %d, expected default", cfg.Fetch.TimeoutSecs)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*core.Config)
		wantErr bool
	}{
		{
			name: "valid",
			modify: func(c *core.Config) {
				c.Spotify.ClientID = "id"
				c.Spotify.ClientSecret = "secret"
			},
		},
		{
			name:    "missing client id",
			modify:  func(c *core.Config) { c.Spotify.ClientSecret = "secret" },
			wantErr: true,
		},
		{
			name:    "missing client secret",
			modify:  func(c *core.Config) { c.Spotify.ClientID = "id" },
			wantErr: true,
		},
		{
			name: "invalid port",
			modify: func(c *core.Config) {
				c.Spotify.ClientID = "id"
				c.Spotify.ClientSecret = "secret"
				c.Server.Port = 70000
			},
			wantErr: true,
		},
		{
			name: "invalid port with server disabled",
			modify: func(c *core.Config) {
				c.Spotify.ClientID = "id"
				c.Spotify.ClientSecret = "secret"
				c.Server.Enabled = false
				c.Server.Port = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := core.DefaultConfig()
			tt.modify(cfg)

			err := validateConfig(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTrackArgument(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{input: "4uLU6hMCjMI75M1A2tKUQC", expected: "4uLU6hMCjMI75M1A2tKUQC"},
		{input: "spotify:track:4uLU6hMCjMI75M1A2tKUQC", expected: "4uLU6hMCjMI75M1A2tKUQC"},
		{input: "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc", expected: "4uLU6hMCjMI75M1A2tKUQC"},
		{input: "spotify:episode:512ojhOuo1ktJprKbVcKyQ", wantErr: true},
		{input: "not a track", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := trackArgument(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("trackArgument(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("trackArgument(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPrintSink(t *testing.T) {
	var buf bytes.Buffer
	sink := printSink(&buf)

	sink(info.ClearLyrics, "")
	sink(info.LyricsLine, "Never gonna give you up")

	expected := "11\tclear_lyrics\t\n12\tlyrics_line\tNever gonna give you up\n"
	if buf.String() != expected {
		t.Errorf("printSink output = %q, expected %q", buf.String(), expected)
	}
}

func TestFetchContext(t *testing.T) {
	previous := config
	t.Cleanup(func() { config = previous })

	config = core.DefaultConfig()
	ctx, cancel := fetchContext(context.Background())
	deadline, ok := ctx.Deadline()
	cancel()
	if !ok {
		t.Fatal("fetchContext() has no deadline with a positive timeout")
	}
	if remaining := time.Until(deadline); remaining > config.Fetch.Timeout() {
		t.Errorf("deadline %v further away than timeout %v", remaining, config.Fetch.Timeout())
	}

	config.Fetch.TimeoutSecs = 0
	ctx, cancel = fetchContext(context.Background())
	defer cancel()
	if _, ok := ctx.Deadline(); ok {
		t.Error("fetchContext() set a deadline with the timeout disabled")
	}
}

type fakePlayer struct {
	repeatState repeat.State
	shuffle     bool
	err         error
	calls       []string
}

func (p *fakePlayer) SetRepeat(_ context.Context, state repeat.State) error {
	p.calls = append(p.calls, "set-repeat:"+state.String())
	p.repeatState = state
	return p.err
}

func (p *fakePlayer) CycleRepeat(context.Context) (repeat.State, error) {
	p.calls = append(p.calls, "cycle-repeat")
	if p.err != nil {
		return 0, p.err
	}
	p.repeatState = p.repeatState.Next()
	return p.repeatState, nil
}

func (p *fakePlayer) SetShuffle(_ context.Context, shuffle bool) error {
	p.calls = append(p.calls, "set-shuffle")
	p.shuffle = shuffle
	return p.err
}

func (p *fakePlayer) ToggleShuffle(context.Context) (bool, error) {
	p.calls = append(p.calls, "toggle-shuffle")
	if p.err != nil {
		return false, p.err
	}
	p.shuffle = !p.shuffle
	return p.shuffle, nil
}

func TestRunRepeat(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
		wantErr  bool
	}{
		{name: "cycle", args: nil, expected: "off\n"},
		{name: "set", args: []string{"track"}, expected: "track\n"},
		{name: "unknown state", args: []string{"forever"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			player := &fakePlayer{repeatState: repeat.Context}
			var out bytes.Buffer

			err := runRepeat(context.Background(), player, tt.args, &out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("runRepeat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if out.String() != tt.expected {
				t.Errorf("runRepeat() output = %q, expected %q", out.String(), tt.expected)
			}
			if tt.wantErr && len(player.calls) != 0 {
				t.Errorf("player called %v despite invalid argument", player.calls)
			}
		})
	}
}

func TestRunShuffle(t *testing.T) {
	tests := []struct {
		name     string
		current  bool
		args     []string
		expected string
		calls    []string
		wantErr  bool
	}{
		{name: "toggle on", current: false, expected: "on\n", calls: []string{"toggle-shuffle"}},
		{name: "toggle off", current: true, expected: "off\n", calls: []string{"toggle-shuffle"}},
		{name: "set on", args: []string{"on"}, expected: "on\n", calls: []string{"set-shuffle"}},
		{name: "set off", current: true, args: []string{"OFF"}, expected: "off\n", calls: []string{"set-shuffle"}},
		{name: "invalid", args: []string{"maybe"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			player := &fakePlayer{shuffle: tt.current}
			var out bytes.Buffer

			err := runShuffle(context.Background(), player, tt.args, &out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("runShuffle() error = %v, wantErr %v", err, tt.wantErr)
			}
			if out.String() != tt.expected {
				t.Errorf("runShuffle() output = %q, expected %q", out.String(), tt.expected)
			}
			if strings.Join(player.calls, ",") != strings.Join(tt.calls, ",") {
				t.Errorf("player calls = %v, expected %v", player.calls, tt.calls)
			}
		})
	}
}

func TestRunShuffle_PlayerError(t *testing.T) {
	player := &fakePlayer{err: errors.New("no active device")}
	var out bytes.Buffer

	if err := runShuffle(context.Background(), player, nil, &out); err == nil {
		t.Fatal("runShuffle() expected error from player")
	}
	if out.Len() != 0 {
		t.Errorf("runShuffle() printed %q on error", out.String())
	}
}
