// Package core holds the configuration model and the types shared between the
// player source, the fetchers and the status monitor.
package core

import (
	"context"
	"time"

	"spotifystatus/pkg/playable"
	"spotifystatus/pkg/repeat"
)

// Playback is one snapshot of the player state.
type Playback struct {
	Item       playable.Item
	Playing    bool
	ProgressMs int
	Shuffle    bool
	Repeat     repeat.State
}

// PlayerSource reports the current player state. A nil Playback with a nil error
// means nothing is active.
type PlayerSource interface {
	Playback(ctx context.Context) (*Playback, error)
}

// Fetch outcomes reported to a Recorder.
const (
	OutcomeFound    = "found"
	OutcomeEmpty    = "empty"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Recorder collects service metrics.
type Recorder interface {
	RecordUpdate(kind string)
	RecordFetch(fetcher, outcome string, duration time.Duration)
	RecordError(component, errorType string)
	SetPlaying(playing bool)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) RecordUpdate(string)                       {}
func (NopRecorder) RecordFetch(string, string, time.Duration) {}
func (NopRecorder) RecordError(string, string)                {}
func (NopRecorder) SetPlaying(bool)                           {}
