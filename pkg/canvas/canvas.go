// Package canvas looks up the looping background video of a Spotify track by
// scraping a third-party canvas download page.
package canvas

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"spotifystatus/internal/core"
	"spotifystatus/pkg/info"
)

const (
	// MaxReadSize limits the amount of HTML read from the canvas page.
	MaxReadSize = 2 * 1024 * 1024
	// trackLinkPrefix is the track link the canvas page is queried with.
	trackLinkPrefix = "https://open.spotify.com/track/"
	fetcherName     = "canvas"
)

// ErrUnexpectedStatus is returned when the canvas page answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status from canvas page")

// Fetcher resolves canvas URLs. It is safe for concurrent use; the HTTP client is
// shared and supplied by the caller.
type Fetcher struct {
	client    *http.Client
	endpoint  string
	userAgent string
	extractor Extractor
	logger    *zap.Logger
	recorder  core.Recorder
}

type Option func(*Fetcher)

// WithEndpoint overrides the canvas page URL (without query).
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

// WithExtractor swaps the scraping strategy.
func WithExtractor(extractor Extractor) Option {
	return func(f *Fetcher) {
		f.extractor = extractor
	}
}

func WithRecorder(recorder core.Recorder) Option {
	return func(f *Fetcher) {
		f.recorder = recorder
	}
}

// NewFetcher creates a canvas fetcher using client for every request.
func NewFetcher(client *http.Client, logger *zap.Logger, opts ...Option) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &Fetcher{
		client:    client,
		endpoint:  core.DefaultCanvasEndpoint,
		userAgent: core.DefaultUserAgent,
		extractor: NewPatternExtractor(),
		logger:    logger,
		recorder:  core.NopRecorder{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchURL scrapes the canvas page for trackID. found is false when the page has no
// download button; err is set for transport failures and non-2xx answers.
func (f *Fetcher) FetchURL(ctx context.Context, trackID string) (canvasURL string, found bool, err error) {
	html, err := f.fetchHTML(ctx, f.pageURL(trackID))
	if err != nil {
		return "", false, fmt.Errorf("failed to fetch canvas page: %w", err)
	}

	canvasURL, found = f.extractor.Extract(html)
	return canvasURL, found, nil
}

// Send looks up the canvas of trackID and reports it on sink as info.Canvas.
// A blank canvas URL is reported as "" to signal that the track has no canvas.
// Failures and pages without a download button are logged and produce no update.
func (f *Fetcher) Send(ctx context.Context, trackID string, sink info.Sink) {
	if trackID == "" {
		return
	}

	start := time.Now()
	canvasURL, found, err := f.FetchURL(ctx, trackID)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		f.recorder.RecordFetch(fetcherName, core.OutcomeError, elapsed)
		f.logger.Warn("Error while getting canvas url",
			zap.String("trackID", trackID),
			zap.Error(err))
	case !found:
		f.recorder.RecordFetch(fetcherName, core.OutcomeNotFound, elapsed)
		f.logger.Debug("Download button not found in canvas page",
			zap.String("trackID", trackID))
	case strings.TrimSpace(canvasURL) == "":
		f.recorder.RecordFetch(fetcherName, core.OutcomeEmpty, elapsed)
		f.logger.Debug("No canvas for track found", zap.String("trackID", trackID))
		sink(info.Canvas, "")
	default:
		f.recorder.RecordFetch(fetcherName, core.OutcomeFound, elapsed)
		f.logger.Debug("Found canvas",
			zap.String("trackID", trackID),
			zap.String("url", canvasURL))
		sink(info.Canvas, canvasURL)
	}
}

// SendAsync runs Send in its own goroutine and returns immediately. There is no
// handle to wait on; results arrive only through sink and the log.
func (f *Fetcher) SendAsync(ctx context.Context, trackID string, sink info.Sink) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.recorder.RecordError(fetcherName, "panic")
				f.logger.Error("Canvas send panicked",
					zap.String("trackID", trackID),
					zap.Any("panic", r))
			}
		}()
		f.Send(ctx, trackID, sink)
	}()
}

func (f *Fetcher) pageURL(trackID string) string {
	return f.endpoint + "?link=" + trackLinkPrefix + url.PathEscape(trackID)
}

// fetchHTML fetches the canvas page body.
func (f *Fetcher) fetchHTML(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return "", err
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, MaxReadSize))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(bodyBytes), nil
}
