package status

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"spotifystatus/internal/core"
	"spotifystatus/pkg/info"
	"spotifystatus/pkg/playable"
)

const componentName = "monitor"

// Sender delivers a fetcher's results for one track to a sink.
type Sender interface {
	Send(ctx context.Context, trackID string, sink info.Sink)
}

// Monitor polls a player source and publishes what changed.
type Monitor struct {
	source       core.PlayerSource
	sink         info.Sink
	canvas       Sender
	lyrics       Sender
	interval     time.Duration
	fetchTimeout time.Duration
	logger       *zap.Logger
	recorder     core.Recorder

	mu         sync.RWMutex
	currentID  string
	currentKey string
	hasItem    bool
	last       published
	fetches    sync.WaitGroup
}

// published remembers the last value sent for the kinds that only go out on change.
type published struct {
	valid   bool
	playing bool
	shuffle bool
	repeat  string
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithCanvas enables canvas fetches on item change.
func WithCanvas(sender Sender) Option {
	return func(m *Monitor) { m.canvas = sender }
}

// WithLyrics enables lyrics fetches on item change.
func WithLyrics(sender Sender) Option {
	return func(m *Monitor) { m.lyrics = sender }
}

func WithRecorder(recorder core.Recorder) Option {
	return func(m *Monitor) { m.recorder = recorder }
}

// WithFetchTimeout bounds each canvas and lyrics fetch. Zero means no bound.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(m *Monitor) { m.fetchTimeout = timeout }
}

func NewMonitor(source core.PlayerSource, sink info.Sink, interval time.Duration, logger *zap.Logger, opts ...Option) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Monitor{
		source:   source,
		sink:     sink,
		interval: interval,
		logger:   logger,
		recorder: core.NopRecorder{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run polls until ctx is done, then waits for in-flight fetches.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("Starting status monitoring", zap.Duration("interval", m.interval))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			m.fetches.Wait()
			m.logger.Info("Status monitoring stopped")
			return nil
		case <-ticker.C:
			m.Poll(ctx)
		}
	}
}

// Poll reads the player once and publishes the result.
func (m *Monitor) Poll(ctx context.Context) {
	playback, err := m.source.Playback(ctx)
	if err != nil {
		m.recorder.RecordError(componentName, "playback")
		m.logger.Debug("Could not get playback state", zap.Error(err))
		return
	}

	if playback == nil || playback.Item == nil {
		m.clear()
		return
	}

	id := playable.ID(playback.Item)
	key := itemKey(playback.Item)
	if m.switchItem(id, key) {
		m.publishItem(ctx, id, key, playback.Item)
	}

	m.publishState(playback)
}

// CurrentID returns the id of the item last published.
func (m *Monitor) CurrentID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentID
}

// Wait blocks until every fetch started so far has finished.
func (m *Monitor) Wait() {
	m.fetches.Wait()
}

// switchItem records the item as current and reports whether it differs from before.
func (m *Monitor) switchItem(id, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hasItem && m.currentKey == key {
		return false
	}
	m.currentID = id
	m.currentKey = key
	m.hasItem = true
	return true
}

// itemKey identifies an item across polls. Local files have no id, so the
// name and link are part of the key.
func itemKey(item playable.Item) string {
	key := playable.ID(item)
	if self := playable.AsResource(item); self != nil {
		key += "\x00" + self.Name + "\x00" + self.URL
	}
	return key
}

func (m *Monitor) currentItemKey() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentKey
}

func (m *Monitor) clear() {
	m.mu.Lock()
	if !m.hasItem {
		m.mu.Unlock()
		return
	}
	m.currentID = ""
	m.currentKey = ""
	m.hasItem = false
	m.last = published{}
	m.mu.Unlock()

	m.logger.Info("Nothing playing, clearing status")
	m.recorder.SetPlaying(false)
	m.sink(info.Clear, "")
}

func (m *Monitor) publishItem(ctx context.Context, id, key string, item playable.Item) {
	m.logger.Info("Now playing",
		zap.String("id", id),
		zap.String("title", resourceName(playable.AsResource(item))))

	m.sink(info.Title, encode(playable.AsResource(item)))
	m.sink(info.Creators, encode(playable.Creators(item)))
	m.sink(info.Grouping, encode(playable.Grouping(item)))
	m.sink(info.Cover, playable.CoverURL(item))
	m.sink(info.Duration, strconv.Itoa(playable.DurationMs(item)))

	guarded := m.guard(id, key)
	if m.canvas != nil {
		// The fetcher stays silent on misses, so the old canvas goes first.
		m.sink(info.Canvas, "")
		if id != "" {
			m.fetch(ctx, "canvas", m.canvas, id, guarded)
		}
	}
	if m.lyrics != nil {
		m.fetch(ctx, "lyrics", m.lyrics, id, guarded)
	}
}

func (m *Monitor) publishState(playback *core.Playback) {
	m.sink(info.Progress, strconv.Itoa(playback.ProgressMs))

	m.mu.Lock()
	last := m.last
	repeatName := playback.Repeat.String()
	m.last = published{
		valid:   true,
		playing: playback.Playing,
		shuffle: playback.Shuffle,
		repeat:  repeatName,
	}
	m.mu.Unlock()

	if !last.valid || last.playing != playback.Playing {
		m.recorder.SetPlaying(playback.Playing)
		m.sink(info.Playing, strconv.FormatBool(playback.Playing))
	}
	if !last.valid || last.shuffle != playback.Shuffle {
		m.sink(info.Shuffle, strconv.FormatBool(playback.Shuffle))
	}
	if !last.valid || last.repeat != repeatName {
		m.sink(info.Repeat, repeatName)
	}
}

// guard wraps the sink so that results for an item that is no longer current are dropped.
func (m *Monitor) guard(id, key string) info.Sink {
	return func(kind info.Kind, value string) {
		if m.currentItemKey() != key {
			m.logger.Debug("Dropping stale update",
				zap.String("kind", kind.String()),
				zap.String("id", id))
			return
		}
		m.sink(kind, value)
	}
}

func (m *Monitor) fetch(ctx context.Context, name string, sender Sender, id string, sink info.Sink) {
	m.fetches.Add(1)
	go func() {
		defer m.fetches.Done()
		defer func() {
			if r := recover(); r != nil {
				m.recorder.RecordError(name, "panic")
				m.logger.Error("Fetch panicked",
					zap.String("fetcher", name),
					zap.String("id", id),
					zap.Any("panic", r))
			}
		}()

		fetchCtx := ctx
		if m.fetchTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(ctx, m.fetchTimeout)
			defer cancel()
		}
		sender.Send(fetchCtx, id, sink)
	}()
}

func encode(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func resourceName(r *playable.Resource) string {
	if r == nil {
		return ""
	}
	return r.Name
}
