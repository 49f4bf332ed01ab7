package lyrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"spotifystatus/pkg/info"
)

type update struct {
	kind  info.Kind
	value string
}

type sinkRecorder struct {
	mu      sync.Mutex
	updates []update
}

func (r *sinkRecorder) sink(kind info.Kind, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, update{kind: kind, value: value})
}

func (r *sinkRecorder) snapshot() []update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]update(nil), r.updates...)
}

func newTestFetcher(t *testing.T, status int, body string) *Fetcher {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return NewFetcher(server.Client(), zap.NewNop(), WithEndpoint(server.URL+"/"))
}

func assertUpdates(t *testing.T, got, expected []update) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("emitted %+v, want %+v", got, expected)
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Errorf("update %d = %+v, want %+v", i, got[i], expected[i])
		}
	}
}

func TestFetcher_Send(t *testing.T) {
	clearUpdate := update{kind: info.ClearLyrics, value: ""}

	tests := []struct {
		name     string
		status   int
		body     string
		expected []update
	}{
		{
			name:   "Lines in order",
			status: http.StatusOK,
			body:   `{"error": false, "lines": [{"text":"a"},{"text":"b"}]}`,
			expected: []update{
				clearUpdate,
				{kind: info.LyricsLine, value: "a"},
				{kind: info.LyricsLine, value: "b"},
			},
		},
		{
			name:   "Synced API shape",
			status: http.StatusOK,
			body: `{"error": false, "syncType": "LINE_SYNCED", "lines": [` +
				`{"startTimeMs": "960", "words": "Never gonna give you up", "syllables": [], "endTimeMs": "0"},` +
				`{"startTimeMs": "4020", "words": "♪", "syllables": [], "endTimeMs": "0"}]}`,
			expected: []update{
				clearUpdate,
				{kind: info.LyricsLine, value: "Never gonna give you up"},
				{kind: info.LyricsLine, value: "♪"},
			},
		},
		{
			name:     "Error flag",
			status:   http.StatusOK,
			body:     `{"error": true}`,
			expected: []update{clearUpdate},
		},
		{
			name:     "Error flag with message",
			status:   http.StatusOK,
			body:     `{"error": true, "message": "lyrics for this track is not available on spotify!"}`,
			expected: []update{clearUpdate},
		},
		{
			name:     "Null body",
			status:   http.StatusOK,
			body:     `null`,
			expected: []update{clearUpdate},
		},
		{
			name:     "Malformed body",
			status:   http.StatusOK,
			body:     `{"error": false, "lines": [`,
			expected: []update{clearUpdate},
		},
		{
			name:     "Not found status",
			status:   http.StatusNotFound,
			body:     `{"error": false, "lines": [{"text":"a"}]}`,
			expected: []update{clearUpdate},
		},
		{
			name:     "No lines",
			status:   http.StatusOK,
			body:     `{"error": false, "lines": []}`,
			expected: []update{clearUpdate},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := newTestFetcher(t, tt.status, tt.body)
			recorder := &sinkRecorder{}

			fetcher.Send(context.Background(), "4uLU6hMCjMI75M1A2tKUQC", recorder.sink)

			assertUpdates(t, recorder.snapshot(), tt.expected)
		})
	}
}

func TestFetcher_Send_EmptyTrackIDOnlyClears(t *testing.T) {
	requests := 0
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		_, _ = w.Write([]byte(`{"error": false, "lines": [{"text":"a"}]}`))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), zap.NewNop(), WithEndpoint(server.URL+"/"))
	recorder := &sinkRecorder{}
	fetcher.Send(context.Background(), "", recorder.sink)

	assertUpdates(t, recorder.snapshot(), []update{{kind: info.ClearLyrics, value: ""}})

	mu.Lock()
	defer mu.Unlock()
	if requests != 0 {
		t.Errorf("Send() with empty id issued %d requests", requests)
	}
}

func TestFetcher_Send_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := server.URL + "/"
	server.Close()

	fetcher := NewFetcher(&http.Client{Timeout: time.Second}, nil, WithEndpoint(endpoint))
	recorder := &sinkRecorder{}
	fetcher.Send(context.Background(), "4uLU6hMCjMI75M1A2tKUQC", recorder.sink)

	assertUpdates(t, recorder.snapshot(), []update{{kind: info.ClearLyrics, value: ""}})
}

func TestFetcher_Fetch_Request(t *testing.T) {
	var mu sync.Mutex
	var gotTrackID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotTrackID = r.URL.Query().Get("trackid")
		mu.Unlock()
		_, _ = w.Write([]byte(`{"error": false, "syncType": "UNSYNCED", "lines": [{"startTimeMs": 1500, "words": "x"}]}`))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), zap.NewNop(), WithEndpoint(server.URL+"/"))
	result, err := fetcher.Fetch(context.Background(), "4uLU6hMCjMI75M1A2tKUQC")
	if err != nil {
		t.Fatalf("Fetch() unexpected error: %v", err)
	}
	if result == nil || result.SyncType != "UNSYNCED" || len(result.Lines) != 1 {
		t.Fatalf("Fetch() = %+v, want one unsynced line", result)
	}
	if got := result.Lines[0].Start(); got != 1500*time.Millisecond {
		t.Errorf("Start() = %v, want 1.5s", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotTrackID != "4uLU6hMCjMI75M1A2tKUQC" {
		t.Errorf("trackid parameter = %q", gotTrackID)
	}
}

func TestFetcher_Fetch_NonSuccessStatus(t *testing.T) {
	fetcher := newTestFetcher(t, http.StatusServiceUnavailable, `{}`)

	_, err := fetcher.Fetch(context.Background(), "abc")
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("Fetch() error = %v, want ErrUnexpectedStatus", err)
	}
}

func TestFetcher_SendAsync(t *testing.T) {
	fetcher := newTestFetcher(t, http.StatusOK, `{"error": false, "lines": [{"text":"a"},{"text":"b"}]}`)

	done := make(chan struct{})
	recorder := &sinkRecorder{}
	sink := func(kind info.Kind, value string) {
		recorder.sink(kind, value)
		if kind == info.LyricsLine && value == "b" {
			close(done)
		}
	}

	fetcher.SendAsync(context.Background(), "4uLU6hMCjMI75M1A2tKUQC", sink)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("SendAsync() did not deliver all lines")
	}

	assertUpdates(t, recorder.snapshot(), []update{
		{kind: info.ClearLyrics, value: ""},
		{kind: info.LyricsLine, value: "a"},
		{kind: info.LyricsLine, value: "b"},
	})
}

func TestLine_String(t *testing.T) {
	tests := []struct {
		name     string
		line     Line
		expected string
	}{
		{"Words preferred", Line{Words: "words", Text: "text"}, "words"},
		{"Text fallback", Line{Text: "text"}, "text"},
		{"Trimmed, inner spacing kept", Line{Words: "  spaced   out "}, "spaced   out"},
		{"Empty", Line{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.line.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestLine_StartUnsynced(t *testing.T) {
	if got := (Line{}).Start(); got != 0 {
		t.Errorf("Start() = %v, want 0", got)
	}
}
