// Package lyrics fetches synchronized lyrics for a Spotify track and streams the
// lines to an info.Sink.
package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"spotifystatus/internal/core"
	"spotifystatus/pkg/info"
)

const (
	fetcherName = "lyrics"
	// outcomeNoLyrics is recorded for null or error-flagged responses.
	outcomeNoLyrics = "no_lyrics"
)

// ErrUnexpectedStatus is returned when the lyrics API answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status from lyrics API")

// Fetcher queries the lyrics API. It is safe for concurrent use.
type Fetcher struct {
	client    *http.Client
	endpoint  string
	userAgent string
	logger    *zap.Logger
	recorder  core.Recorder
}

type Option func(*Fetcher)

// WithEndpoint overrides the lyrics API URL (without query).
func WithEndpoint(endpoint string) Option {
	return func(f *Fetcher) {
		f.endpoint = endpoint
	}
}

func WithUserAgent(userAgent string) Option {
	return func(f *Fetcher) {
		f.userAgent = userAgent
	}
}

func WithRecorder(recorder core.Recorder) Option {
	return func(f *Fetcher) {
		f.recorder = recorder
	}
}

// NewFetcher creates a lyrics fetcher using client for every request.
func NewFetcher(client *http.Client, logger *zap.Logger, opts ...Option) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &Fetcher{
		client:    client,
		endpoint:  core.DefaultLyricsEndpoint,
		userAgent: core.DefaultUserAgent,
		logger:    logger,
		recorder:  core.NopRecorder{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch requests the lyrics of trackID. A JSON null body yields a nil result and no error.
func (f *Fetcher) Fetch(ctx context.Context, trackID string) (*Result, error) {
	reqURL := fmt.Sprintf("%s?trackid=%s", f.endpoint, url.QueryEscape(trackID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var result *Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode lyrics response: %w", err)
	}

	return result, nil
}

// Send clears the lyrics on sink, then emits one info.LyricsLine per line in
// order. The clear is sent even when trackID is empty. Missing lyrics and
// failures are logged and emit nothing further.
func (f *Fetcher) Send(ctx context.Context, trackID string, sink info.Sink) {
	sink(info.ClearLyrics, "")

	if trackID == "" {
		return
	}

	start := time.Now()
	result, err := f.Fetch(ctx, trackID)
	elapsed := time.Since(start)

	if err != nil {
		f.recorder.RecordFetch(fetcherName, core.OutcomeError, elapsed)
		f.logger.Warn("Error while getting lyrics",
			zap.String("trackID", trackID),
			zap.Error(err))
		return
	}

	if result == nil || result.Error {
		f.recorder.RecordFetch(fetcherName, outcomeNoLyrics, elapsed)
		fields := []zap.Field{zap.String("trackID", trackID)}
		if result != nil && result.Message != "" {
			fields = append(fields, zap.String("message", result.Message))
		}
		f.logger.Debug("No lyrics for track found", fields...)
		return
	}

	f.recorder.RecordFetch(fetcherName, core.OutcomeFound, elapsed)
	f.logger.Debug("Sending lyrics",
		zap.String("trackID", trackID),
		zap.String("syncType", result.SyncType),
		zap.Int("lines", len(result.Lines)))

	for i := range result.Lines {
		sink(info.LyricsLine, result.Lines[i].String())
	}
}

// SendAsync runs Send in its own goroutine and returns immediately. There is no
// handle to wait on; results arrive only through sink and the log.
func (f *Fetcher) SendAsync(ctx context.Context, trackID string, sink info.Sink) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.recorder.RecordError(fetcherName, "panic")
				f.logger.Error("Lyrics send panicked",
					zap.String("trackID", trackID),
					zap.Any("panic", r))
			}
		}()
		f.Send(ctx, trackID, sink)
	}()
}
