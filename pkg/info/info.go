// Package info defines the update channels a status consumer listens on and the
// callback type used to deliver updates to it.
package info

import (
	"math/bits"
)

// Kind identifies which display channel an update targets.
// Every kind except Clear is a distinct power of two.
type Kind uint32

const (
	// Clear resets every channel.
	Clear Kind = 0
	// Playing carries "true" or "false".
	Playing Kind = 1 << (iota - 1)
	// Title carries the item itself as a JSON encoded resource.
	Title
	// Creators carries the artists or show as a JSON encoded resource list.
	Creators
	// Grouping carries the album or show as a JSON encoded resource.
	Grouping
	// Cover carries the cover image URL.
	Cover
	// Duration carries the item duration in milliseconds.
	Duration
	// Progress carries the playback position in milliseconds.
	Progress
	// Shuffle carries "true" or "false".
	Shuffle
	// Repeat carries the repeat state name.
	Repeat
	// Canvas carries the looping video URL, or "" when the item has none.
	Canvas
	// ClearLyrics tells the consumer to drop any lyric lines it holds.
	ClearLyrics
	// LyricsLine carries a single lyric line.
	LyricsLine
)

var kindNames = map[Kind]string{
	Clear:       "clear",
	Playing:     "playing",
	Title:       "title",
	Creators:    "creators",
	Grouping:    "grouping",
	Cover:       "cover",
	Duration:    "duration",
	Progress:    "progress",
	Shuffle:     "shuffle",
	Repeat:      "repeat",
	Canvas:      "canvas",
	ClearLyrics: "clear_lyrics",
	LyricsLine:  "lyrics_line",
}

// Sink receives updates. It may be called from several goroutines at once.
type Sink func(kind Kind, value string)

// Kinds returns every kind except Clear, in bit order.
func Kinds() []Kind {
	return []Kind{
		Playing, Title, Creators, Grouping, Cover, Duration,
		Progress, Shuffle, Repeat, Canvas, ClearLyrics, LyricsLine,
	}
}

// ToUpdateInt converts a kind into its sequential channel index.
// Clear maps to 0 and a single-bit kind v maps to log2(v)+1.
// Only single-bit kinds and Clear are meaningful; for combined masks the result is
// the index of the highest set bit.
func (k Kind) ToUpdateInt() int {
	if k == Clear {
		return 0
	}
	return bits.Len32(uint32(k))
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}
