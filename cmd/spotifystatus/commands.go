package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"spotifystatus/internal/core"
	"spotifystatus/internal/spotify"
	"spotifystatus/pkg/info"
	"spotifystatus/pkg/repeat"
	"spotifystatus/pkg/text"
)

var canvasCmd = &cobra.Command{
	Use:   "canvas <track>",
	Short: "Print the canvas video URL of a track",
	Long:  "Looks up the canvas of a track given as id, spotify:track URI or open.spotify.com link and prints the updates it produces.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		trackID, err := trackArgument(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := fetchContext(cmd.Context())
		defer cancel()

		fetcher := newCanvasFetcher(newHTTPClient(), core.NopRecorder{})
		fetcher.Send(ctx, trackID, printSink(cmd.OutOrStdout()))
		return nil
	},
}

var lyricsCmd = &cobra.Command{
	Use:   "lyrics <track>",
	Short: "Print the synchronized lyrics of a track",
	Long:  "Looks up the lyrics of a track given as id, spotify:track URI or open.spotify.com link and prints the updates it produces.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		trackID, err := trackArgument(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := fetchContext(cmd.Context())
		defer cancel()

		fetcher := newLyricsFetcher(newHTTPClient(), core.NopRecorder{})
		fetcher.Send(ctx, trackID, printSink(cmd.OutOrStdout()))
		return nil
	},
}

var repeatCmd = &cobra.Command{
	Use:   "repeat [track|context|off]",
	Short: "Cycle or set the repeat state of the active device",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			if _, err := repeat.Parse(args[0]); err != nil {
				return err
			}
		}

		ctx := commandContext(cmd)
		client, err := authenticatedClient(ctx)
		if err != nil {
			return err
		}
		return runRepeat(ctx, client, args, cmd.OutOrStdout())
	},
}

var shuffleCmd = &cobra.Command{
	Use:   "shuffle [on|off]",
	Short: "Toggle or set shuffle on the active device",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			if _, err := parseShuffle(args[0]); err != nil {
				return err
			}
		}

		ctx := commandContext(cmd)
		client, err := authenticatedClient(ctx)
		if err != nil {
			return err
		}
		return runShuffle(ctx, client, args, cmd.OutOrStdout())
	},
}

// playerController is the part of the Spotify client the player commands use.
type playerController interface {
	SetRepeat(ctx context.Context, state repeat.State) error
	CycleRepeat(ctx context.Context) (repeat.State, error)
	SetShuffle(ctx context.Context, shuffle bool) error
	ToggleShuffle(ctx context.Context) (bool, error)
}

func authenticatedClient(ctx context.Context) (*spotify.Client, error) {
	if err := validateSpotifyConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	client := spotify.NewClient(&config.Spotify, logger.Named("spotify"))
	if err := client.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("failed to authenticate with Spotify: %w", err)
	}
	return client, nil
}

// runRepeat sets the repeat state named in args, or cycles it when args is empty,
// and prints the resulting state.
func runRepeat(ctx context.Context, player playerController, args []string, w io.Writer) error {
	if len(args) == 0 {
		next, err := player.CycleRepeat(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, next)
		return err
	}

	state, err := repeat.Parse(args[0])
	if err != nil {
		return err
	}
	if err := player.SetRepeat(ctx, state); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, state)
	return err
}

// runShuffle sets shuffle as given in args, or toggles it when args is empty,
// and prints "on" or "off".
func runShuffle(ctx context.Context, player playerController, args []string, w io.Writer) error {
	var shuffle bool
	if len(args) == 0 {
		next, err := player.ToggleShuffle(ctx)
		if err != nil {
			return err
		}
		shuffle = next
	} else {
		parsed, err := parseShuffle(args[0])
		if err != nil {
			return err
		}
		if err := player.SetShuffle(ctx, parsed); err != nil {
			return err
		}
		shuffle = parsed
	}

	_, err := fmt.Fprintln(w, shuffleName(shuffle))
	return err
}

func parseShuffle(arg string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "on", "true":
		return true, nil
	case "off", "false":
		return false, nil
	default:
		return false, fmt.Errorf("unknown shuffle setting %q, expected on or off", arg)
	}
}

func shuffleName(shuffle bool) string {
	if shuffle {
		return "on"
	}
	return "off"
}

// trackArgument resolves a command line track reference to a track id.
func trackArgument(arg string) (string, error) {
	ref, err := text.NewParser().ParseReference(arg)
	if err != nil {
		return "", err
	}
	if ref.Type != text.TypeTrack {
		return "", fmt.Errorf("%s is not a track", ref)
	}
	return ref.ID, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// fetchContext applies the configured fetch deadline to parent.
func fetchContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if timeout := config.Fetch.Timeout(); timeout > 0 {
		return context.WithTimeout(parent, timeout)
	}
	return context.WithCancel(parent)
}

// printSink writes every update as "<index>\t<kind>\t<value>".
func printSink(w io.Writer) info.Sink {
	var mu sync.Mutex
	return func(kind info.Kind, value string) {
		mu.Lock()
		defer mu.Unlock()
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\n", kind.ToUpdateInt(), kind, value); err != nil {
			logger.Debug("Failed to print update", zap.Error(err))
		}
	}
}
