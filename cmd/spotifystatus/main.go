// Package main provides the spotifystatus CLI application entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"spotifystatus/internal/core"
	httpserver "spotifystatus/internal/http"
	"spotifystatus/internal/spotify"
	"spotifystatus/internal/status"
	"spotifystatus/pkg/canvas"
	"spotifystatus/pkg/lyrics"
)

const envPrefix = "SPOTIFYSTATUS"

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "spotifystatus",
	Short: "spotifystatus - Spotify now-playing status with canvas and lyrics",
	Long: `spotifystatus polls the Spotify player, publishes what is playing to a status board
together with the track's canvas video and synchronized lyrics, and serves the board over HTTP.`,
	RunE: runSpotifyStatus,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := core.DefaultConfig()
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&cfgFile, "config", "", "config file (default is .env)")
	flags.String("log-level", defaults.Log.Level, "log level (debug, info, warn, error)")
	flags.String("spotify-client-id", "", "Spotify client ID")
	flags.String("spotify-client-secret", "", "Spotify client secret")
	flags.String("spotify-redirect-url", defaults.Spotify.RedirectURL, "Spotify OAuth redirect URL")
	flags.String("spotify-token-path", defaults.Spotify.TokenPath, "Spotify token storage path")
	flags.Bool("server-enabled", defaults.Server.Enabled, "Serve the status board over HTTP")
	flags.String("server-host", defaults.Server.Host, "HTTP server host")
	flags.Int("server-port", defaults.Server.Port, "HTTP server port")
	flags.Int("poll-interval-secs", defaults.Monitor.PollIntervalSecs, "Player poll interval in seconds")
	flags.Bool("canvas-enabled", defaults.Fetch.CanvasEnabled, "Fetch canvas videos for tracks")
	flags.Bool("lyrics-enabled", defaults.Fetch.LyricsEnabled, "Fetch synchronized lyrics for tracks")
	flags.String("canvas-endpoint", defaults.Fetch.CanvasEndpoint, "Canvas page endpoint")
	flags.String("lyrics-endpoint", defaults.Fetch.LyricsEndpoint, "Lyrics API endpoint")
	flags.String("user-agent", defaults.Fetch.UserAgent, "User agent for canvas and lyrics requests")
	flags.Int("fetch-timeout-secs", defaults.Fetch.TimeoutSecs, "Deadline for a single canvas or lyrics fetch, 0 disables it")
	flags.Bool("generate-env-example", false, "Generate .env.example file from current configuration and exit")

	if err := viper.BindPFlags(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(canvasCmd, lyricsCmd, repeatCmd, shuffleCmd)
}

func initConfig() {
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	configureSpotify(cfg)
	configureServer(cfg)
	configureFetch(cfg)
	configureMonitor(cfg)
	cfg.Log.Level = viper.GetString("log-level")

	return cfg
}

func configureSpotify(cfg *core.Config) {
	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.ClientSecret = viper.GetString("spotify-client-secret")
	if redirectURL := viper.GetString("spotify-redirect-url"); redirectURL != "" {
		cfg.Spotify.RedirectURL = redirectURL
	}
	if tokenPath := viper.GetString("spotify-token-path"); tokenPath != "" {
		cfg.Spotify.TokenPath = tokenPath
	}
}

func configureServer(cfg *core.Config) {
	cfg.Server.Enabled = viper.GetBool("server-enabled")
	if host := viper.GetString("server-host"); host != "" {
		cfg.Server.Host = host
	}
	if port := viper.GetInt("server-port"); port > 0 {
		cfg.Server.Port = port
	}
}

func configureFetch(cfg *core.Config) {
	cfg.Fetch.CanvasEnabled = viper.GetBool("canvas-enabled")
	cfg.Fetch.LyricsEnabled = viper.GetBool("lyrics-enabled")
	if endpoint := viper.GetString("canvas-endpoint"); endpoint != "" {
		cfg.Fetch.CanvasEndpoint = endpoint
	}
	if endpoint := viper.GetString("lyrics-endpoint"); endpoint != "" {
		cfg.Fetch.LyricsEndpoint = endpoint
	}
	if userAgent := viper.GetString("user-agent"); userAgent != "" {
		cfg.Fetch.UserAgent = userAgent
	}
	cfg.Fetch.TimeoutSecs = viper.GetInt("fetch-timeout-secs")
	if cfg.Fetch.TimeoutSecs < 0 {
		fmt.Printf("Warning: Invalid fetch timeout (%d), using default (%d)\n",
			cfg.Fetch.TimeoutSecs, core.DefaultFetchTimeoutSecs)
		cfg.Fetch.TimeoutSecs = core.DefaultFetchTimeoutSecs
	}
}

func configureMonitor(cfg *core.Config) {
	cfg.Monitor.PollIntervalSecs = viper.GetInt("poll-interval-secs")
	if cfg.Monitor.PollIntervalSecs <= 0 {
		fmt.Printf("Warning: Invalid poll interval (%d), using default (%d)\n",
			cfg.Monitor.PollIntervalSecs, core.DefaultPollIntervalSecs)
		cfg.Monitor.PollIntervalSecs = core.DefaultPollIntervalSecs
	}
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

// newHTTPClient returns the client shared by the canvas and lyrics fetchers.
// Deadlines come from the request context, so the client sets none.
func newHTTPClient() *http.Client {
	return &http.Client{Transport: http.DefaultTransport}
}

func runSpotifyStatus(cmd *cobra.Command, _ []string) error {
	if viper.GetBool("generate-env-example") {
		return generateEnvExample(cmd)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting spotifystatus",
		zap.Bool("server_enabled", config.Server.Enabled),
		zap.Bool("canvas_enabled", config.Fetch.CanvasEnabled),
		zap.Bool("lyrics_enabled", config.Fetch.LyricsEnabled),
		zap.Duration("poll_interval", config.Monitor.PollInterval()))

	if err := validateConfig(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	svcs, err := initializeServices(ctx)
	if err != nil {
		return err
	}

	return runServices(ctx, svcs)
}

type services struct {
	spotify    *spotify.Client
	board      *status.Board
	monitor    *status.Monitor
	httpServer *httpserver.Server
}

func initializeServices(ctx context.Context) (*services, error) {
	spotifyClient := spotify.NewClient(&config.Spotify, logger.Named("spotify"))
	if err := spotifyClient.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("failed to authenticate with Spotify: %w", err)
	}

	metrics := httpserver.NewMetrics()
	board := status.NewBoard(logger.Named("board"), metrics)
	httpClient := newHTTPClient()

	opts := []status.Option{
		status.WithRecorder(metrics),
		status.WithFetchTimeout(config.Fetch.Timeout()),
	}
	if config.Fetch.CanvasEnabled {
		opts = append(opts, status.WithCanvas(newCanvasFetcher(httpClient, metrics)))
	}
	if config.Fetch.LyricsEnabled {
		opts = append(opts, status.WithLyrics(newLyricsFetcher(httpClient, metrics)))
	}

	monitor := status.NewMonitor(spotifyClient, board.Update, config.Monitor.PollInterval(),
		logger.Named("monitor"), opts...)

	var httpServer *httpserver.Server
	if config.Server.Enabled {
		httpServer = httpserver.NewServer(&config.Server, metrics, board, logger.Named("http"))
	}

	return &services{
		spotify:    spotifyClient,
		board:      board,
		monitor:    monitor,
		httpServer: httpServer,
	}, nil
}

func newCanvasFetcher(client *http.Client, recorder core.Recorder) *canvas.Fetcher {
	return canvas.NewFetcher(client, logger.Named("canvas"),
		canvas.WithEndpoint(config.Fetch.CanvasEndpoint),
		canvas.WithUserAgent(config.Fetch.UserAgent),
		canvas.WithRecorder(recorder))
}

func newLyricsFetcher(client *http.Client, recorder core.Recorder) *lyrics.Fetcher {
	return lyrics.NewFetcher(client, logger.Named("lyrics"),
		lyrics.WithEndpoint(config.Fetch.LyricsEndpoint),
		lyrics.WithUserAgent(config.Fetch.UserAgent),
		lyrics.WithRecorder(recorder))
}

func runServices(ctx context.Context, svcs *services) error {
	g, gCtx := errgroup.WithContext(ctx)

	if svcs.httpServer != nil {
		g.Go(func() error {
			return svcs.httpServer.Start(gCtx)
		})
	}

	g.Go(func() error {
		return svcs.monitor.Run(gCtx)
	})

	logger.Info("spotifystatus started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("spotifystatus stopped with error", zap.Error(err))
		return err
	}

	logger.Info("spotifystatus stopped gracefully")
	return nil
}

func validateConfig(cfg *core.Config) error {
	if err := validateSpotifyConfig(cfg); err != nil {
		return err
	}

	if cfg.Server.Enabled && (cfg.Server.Port <= 0 || cfg.Server.Port > 65535) {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	return nil
}

func validateSpotifyConfig(cfg *core.Config) error {
	if cfg.Spotify.ClientID == "" {
		return errors.New("spotify client ID is required")
	}
	if cfg.Spotify.ClientSecret == "" {
		return errors.New("spotify client secret is required")
	}
	return nil
}
