package lyrics

import (
	"encoding/json"
	"time"

	"spotifystatus/pkg/text"
)

var lineNormalizer = text.NewParser()

// Result is the lyrics API response. Absent or error-flagged results mean "no lyrics".
type Result struct {
	Error    bool   `json:"error"`
	Message  string `json:"message,omitempty"`
	SyncType string `json:"syncType,omitempty"`
	Lines    []Line `json:"lines"`
}

// Line is one lyric line. The API sends timings as strings; json.Number accepts
// both quoted and bare numbers.
type Line struct {
	StartTimeMs json.Number `json:"startTimeMs,omitempty"`
	EndTimeMs   json.Number `json:"endTimeMs,omitempty"`
	Words       string      `json:"words,omitempty"`
	Text        string      `json:"text,omitempty"`
	Syllables   []string    `json:"syllables,omitempty"`
}

// Start returns the line start offset, or 0 when the line is unsynced.
func (l Line) Start() time.Duration {
	ms, err := l.StartTimeMs.Int64()
	if err != nil {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// String renders the line text.
func (l Line) String() string {
	if l.Words != "" {
		return lineNormalizer.NormalizeLine(l.Words)
	}
	return lineNormalizer.NormalizeLine(l.Text)
}
