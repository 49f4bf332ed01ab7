// Package spotify provides the Spotify Web API player source: authentication,
// playback polling and repeat/shuffle control.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"spotifystatus/internal/core"
	"spotifystatus/pkg/playable"
	"spotifystatus/pkg/repeat"
)

const (
	// FilePermission is the permission for token files
	FilePermission = 0600
	// EpisodeCacheSize bounds the number of episode lookups kept between polls
	EpisodeCacheSize = 64
	// episodeURIPrefix marks player items that are podcast episodes
	episodeURIPrefix = "spotify:episode:"
	oauthState       = "spotifystatus-auth-state"
)

type Client struct {
	config   *core.SpotifyConfig
	logger   *zap.Logger
	client   *spotify.Client
	auth     *spotifyauth.Authenticator
	episodes *lru.Cache[spotify.ID, *spotify.EpisodePage]
}

type TokenData struct {
	Token *oauth2.Token `json:"token"`
}

func NewClient(config *core.SpotifyConfig, logger *zap.Logger) *Client {
	auth := spotifyauth.New(
		spotifyauth.WithRedirectURL(config.RedirectURL),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserReadCurrentlyPlaying,
			spotifyauth.ScopeUserReadPlaybackState,
			spotifyauth.ScopeUserModifyPlaybackState,
		),
		spotifyauth.WithClientID(config.ClientID),
		spotifyauth.WithClientSecret(config.ClientSecret),
	)

	return &Client{
		config:   config,
		logger:   logger,
		auth:     auth,
		episodes: newEpisodeCache(),
	}
}

// newClientFromAPI wraps an already authenticated API client.
func newClientFromAPI(api *spotify.Client, logger *zap.Logger) *Client {
	return &Client{
		config:   &core.SpotifyConfig{},
		logger:   logger,
		client:   api,
		episodes: newEpisodeCache(),
	}
}

func newEpisodeCache() *lru.Cache[spotify.ID, *spotify.EpisodePage] {
	cache, err := lru.New[spotify.ID, *spotify.EpisodePage](EpisodeCacheSize)
	if err != nil {
		panic(fmt.Sprintf("failed to create episode cache: %v", err))
	}
	return cache
}

func (c *Client) Authenticate(ctx context.Context) error {
	token, err := c.loadToken()
	if err != nil {
		c.logger.Info("No saved token found, starting OAuth flow")
		return c.startOAuthFlow(ctx)
	}

	client := spotify.New(c.auth.Client(ctx, token))
	c.client = client

	user, err := client.CurrentUser(ctx)
	if err != nil {
		c.logger.Warn("Saved token invalid, starting OAuth flow", zap.Error(err))
		return c.startOAuthFlow(ctx)
	}

	c.logger.Info("Authenticated successfully", zap.String("user", user.DisplayName))
	return nil
}

// Playback returns the current player state, or nil when no device is playing anything.
func (c *Client) Playback(ctx context.Context) (*core.Playback, error) {
	if c.client == nil {
		return nil, fmt.Errorf("client not authenticated")
	}

	state, err := c.client.PlayerState(ctx, spotify.AdditionalTypes(spotify.EpisodeAdditionalType))
	if err != nil {
		return nil, fmt.Errorf("failed to get player state: %w", err)
	}

	if state == nil || state.Item == nil {
		return nil, nil
	}

	repeatState, err := repeat.Parse(state.RepeatState)
	if err != nil {
		c.logger.Debug("Unrecognized repeat state, treating as off",
			zap.String("repeatState", state.RepeatState))
		repeatState = repeat.Off
	}

	return &core.Playback{
		Item:       c.resolveItem(ctx, state.Item),
		Playing:    state.Playing,
		ProgressMs: state.Progress,
		Shuffle:    state.ShuffleState,
		Repeat:     repeatState,
	}, nil
}

// resolveItem turns the player item into a playable item. The player endpoint
// decodes episodes into the track shape, so episodes are looked up separately.
func (c *Client) resolveItem(ctx context.Context, item *spotify.FullTrack) playable.Item {
	if !strings.HasPrefix(string(item.URI), episodeURIPrefix) {
		return playable.FromTrack(item)
	}

	if episode, ok := c.episodes.Get(item.ID); ok {
		return playable.FromEpisode(episode)
	}

	episode, err := c.client.GetEpisode(ctx, string(item.ID))
	if err != nil {
		c.logger.Warn("Failed to get episode details, using player item",
			zap.String("episodeID", string(item.ID)),
			zap.Error(err))
		return playable.FromEpisode(&spotify.EpisodePage{
			ID:           item.ID,
			Name:         item.Name,
			Duration_ms:  item.Duration,
			ExternalURLs: item.ExternalURLs,
		})
	}

	c.episodes.Add(item.ID, episode)
	return playable.FromEpisode(episode)
}

// SetShuffle turns shuffle on the active device on or off.
func (c *Client) SetShuffle(ctx context.Context, shuffle bool) error {
	if c.client == nil {
		return fmt.Errorf("spotify client not initialized")
	}

	if err := c.client.Shuffle(ctx, shuffle); err != nil {
		return fmt.Errorf("failed to set shuffle to %t: %w", shuffle, err)
	}

	c.logger.Debug("Set Spotify shuffle", zap.Bool("shuffle", shuffle))
	return nil
}

// ToggleShuffle flips shuffle on the active device and returns the new setting.
func (c *Client) ToggleShuffle(ctx context.Context) (bool, error) {
	if c.client == nil {
		return false, fmt.Errorf("spotify client not initialized")
	}

	state, err := c.client.PlayerState(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get player state: %w", err)
	}

	next := !state.ShuffleState
	if err := c.SetShuffle(ctx, next); err != nil {
		return false, err
	}

	c.logger.Info("Toggled shuffle", zap.Bool("shuffle", next))
	return next, nil
}

// SetRepeat sets the repeat state for the user's playback
func (c *Client) SetRepeat(ctx context.Context, state repeat.State) error {
	if c.client == nil {
		return fmt.Errorf("spotify client not initialized")
	}

	err := c.client.Repeat(ctx, state.String())
	if err != nil {
		return fmt.Errorf("failed to set repeat to %s: %w", state, err)
	}

	c.logger.Debug("Set Spotify repeat",
		zap.String("state", state.String()))

	return nil
}

// CycleRepeat advances the repeat state of the active device one step and returns the new state.
func (c *Client) CycleRepeat(ctx context.Context) (repeat.State, error) {
	if c.client == nil {
		return 0, fmt.Errorf("spotify client not initialized")
	}

	state, err := c.client.PlayerState(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get player state: %w", err)
	}

	current, err := repeat.Parse(state.RepeatState)
	if err != nil {
		return 0, err
	}

	next := current.Next()
	if err := c.SetRepeat(ctx, next); err != nil {
		return 0, err
	}

	c.logger.Info("Cycled repeat state",
		zap.String("from", current.String()),
		zap.String("to", next.String()))

	return next, nil
}

func (c *Client) startOAuthFlow(ctx context.Context) error {
	authURL := c.auth.AuthURL(oauthState)

	fmt.Printf("Please visit the following URL to authorize the application:\n%s\n", authURL)
	fmt.Print("Enter the authorization code: ")

	var code string
	if _, err := fmt.Scanln(&code); err != nil {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}

	token, err := c.auth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code for token: %w", err)
	}

	if saveErr := c.saveToken(token); saveErr != nil {
		c.logger.Warn("Failed to save token", zap.Error(saveErr))
	}

	client := spotify.New(c.auth.Client(ctx, token))
	c.client = client

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	c.logger.Info("OAuth flow completed successfully", zap.String("user", user.DisplayName))
	return nil
}

func (c *Client) loadToken() (*oauth2.Token, error) {
	file, err := os.Open(c.config.TokenPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	var tokenData TokenData
	if err := json.Unmarshal(data, &tokenData); err != nil {
		return nil, err
	}

	if tokenData.Token == nil {
		return nil, fmt.Errorf("token file %s holds no token", c.config.TokenPath)
	}

	return tokenData.Token, nil
}

func (c *Client) saveToken(token *oauth2.Token) error {
	tokenData := TokenData{Token: token}

	data, err := json.MarshalIndent(tokenData, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.config.TokenPath, data, FilePermission)
}
