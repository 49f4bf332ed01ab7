package core

import (
	"time"
)

const (
	// DefaultServerHost is the bind address of the status server
	DefaultServerHost = "127.0.0.1"
	// DefaultServerPort is the port of the status server and the OAuth callback
	DefaultServerPort = 8080
	// DefaultServerTimeout bounds reads and writes on the status server
	DefaultServerTimeout = 10 * time.Second
	// DefaultPollIntervalSecs is how often the player state is polled
	DefaultPollIntervalSecs = 2
	// DefaultFetchTimeoutSecs bounds a single canvas or lyrics fetch; 0 disables the deadline
	DefaultFetchTimeoutSecs = 20
	// DefaultCanvasEndpoint is the page scraped for canvas download links
	DefaultCanvasEndpoint = "https://www.canvasdownloader.com/canvas"
	// DefaultLyricsEndpoint is the synchronized lyrics API
	DefaultLyricsEndpoint = "https://spotify-lyrics-api-umber.vercel.app/"
	// DefaultUserAgent is sent with canvas and lyrics requests
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type Config struct {
	Spotify SpotifyConfig
	Server  ServerConfig
	Log     LogConfig
	Fetch   FetchConfig
	Monitor MonitorConfig
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenPath    string
}

type ServerConfig struct {
	Enabled      bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// FetchConfig configures the canvas and lyrics fetchers.
type FetchConfig struct {
	CanvasEnabled  bool
	LyricsEnabled  bool
	CanvasEndpoint string
	LyricsEndpoint string
	UserAgent      string
	TimeoutSecs    int
}

// Timeout returns the per-fetch deadline, or 0 when fetches run unbounded.
func (c FetchConfig) Timeout() time.Duration {
	if c.TimeoutSecs <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

type MonitorConfig struct {
	PollIntervalSecs int
}

// PollInterval returns the poll interval, falling back to the default for non-positive values.
func (c MonitorConfig) PollInterval() time.Duration {
	if c.PollIntervalSecs <= 0 {
		return DefaultPollIntervalSecs * time.Second
	}
	return time.Duration(c.PollIntervalSecs) * time.Second
}

func DefaultConfig() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			RedirectURL: "http://127.0.0.1:8080/callback",
			TokenPath:   "./spotify_token.json",
		},
		Server: ServerConfig{
			Enabled:      true,
			Host:         DefaultServerHost,
			Port:         DefaultServerPort,
			ReadTimeout:  DefaultServerTimeout,
			WriteTimeout: DefaultServerTimeout,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Fetch: FetchConfig{
			CanvasEnabled:  true,
			LyricsEnabled:  true,
			CanvasEndpoint: DefaultCanvasEndpoint,
			LyricsEndpoint: DefaultLyricsEndpoint,
			UserAgent:      DefaultUserAgent,
			TimeoutSecs:    DefaultFetchTimeoutSecs,
		},
		Monitor: MonitorConfig{
			PollIntervalSecs: DefaultPollIntervalSecs,
		},
	}
}
