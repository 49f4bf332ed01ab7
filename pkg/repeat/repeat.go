// Package repeat maps Spotify repeat state names to an ordered state and cycles through them.
package repeat

import (
	"errors"
	"fmt"
)

// State is a player repeat mode. The ordinals must stay contiguous from 0 because
// Next cycles with modulo arithmetic.
type State int

const (
	// Track repeats the current item
	Track State = iota
	// Context repeats the current album or playlist
	Context
	// Off disables repeat
	Off

	stateCount = 3
)

// ErrUnknownState is returned by Parse for names outside the fixed table.
var ErrUnknownState = errors.New("unknown repeat state")

var states = map[string]State{
	"track":   Track,
	"context": Context,
	"off":     Off,
}

// Parse looks up one of "track", "context" or "off". There is no fallback.
func Parse(name string) (State, error) {
	state, ok := states[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownState, name)
	}
	return state, nil
}

// Next returns the following state: Track -> Context -> Off -> Track.
func (s State) Next() State {
	return State((int(s) + 1) % stateCount)
}

// String returns the name the Spotify API uses for the state.
func (s State) String() string {
	switch s {
	case Track:
		return "track"
	case Context:
		return "context"
	case Off:
		return "off"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
