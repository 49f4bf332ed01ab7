// Package status turns player snapshots into sink updates and keeps the latest
// published values for the HTTP surface.
package status

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"spotifystatus/internal/core"
	"spotifystatus/pkg/info"
)

// Board holds the most recent value per kind and the current lyric lines.
type Board struct {
	logger   *zap.Logger
	recorder core.Recorder

	mu        sync.RWMutex
	values    map[info.Kind]string
	lyrics    []string
	updatedAt time.Time
}

// Snapshot is a point-in-time copy of the board.
type Snapshot struct {
	Values    map[string]string `json:"values"`
	Lyrics    []string          `json:"lyrics"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func NewBoard(logger *zap.Logger, recorder core.Recorder) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = core.NopRecorder{}
	}

	return &Board{
		logger:   logger,
		recorder: recorder,
		values:   make(map[info.Kind]string),
	}
}

// Update is an info.Sink.
func (b *Board) Update(kind info.Kind, value string) {
	b.mu.Lock()
	switch kind {
	case info.Clear:
		b.values = make(map[info.Kind]string)
		b.lyrics = nil
	case info.ClearLyrics:
		b.lyrics = nil
	case info.LyricsLine:
		b.lyrics = append(b.lyrics, value)
	default:
		b.values[kind] = value
	}
	b.updatedAt = time.Now()
	b.mu.Unlock()

	b.recorder.RecordUpdate(kind.String())
	b.logger.Debug("Status update",
		zap.String("kind", kind.String()),
		zap.Int("index", kind.ToUpdateInt()),
		zap.String("value", value))
}

// Ready reports whether any update has been received.
func (b *Board) Ready() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return !b.updatedAt.IsZero()
}

func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	values := make(map[string]string, len(b.values))
	for kind, value := range b.values {
		values[kind.String()] = value
	}

	lyrics := make([]string, len(b.lyrics))
	copy(lyrics, b.lyrics)

	return Snapshot{
		Values:    values,
		Lyrics:    lyrics,
		UpdatedAt: b.updatedAt,
	}
}
