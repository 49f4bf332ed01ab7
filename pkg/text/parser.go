// Package text parses Spotify item references and normalizes display text.
package text

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	// MinPartsForURI is the number of colon separated parts of a spotify:<type>:<id> URI
	MinPartsForURI = 3
	// SpotifyIDLength is the length of a Spotify base62 id
	SpotifyIDLength = 22
)

// Item types a reference can point at.
const (
	TypeTrack   = "track"
	TypeEpisode = "episode"
)

// ErrNoReference is returned when the input holds no track or episode reference.
var ErrNoReference = errors.New("no Spotify track or episode reference found")

var (
	spotifyIDRegex = regexp.MustCompile(`^[0-9A-Za-z]{22}$`)

	spotifyDomains = map[string]bool{
		"open.spotify.com": true,
		"play.spotify.com": true,
		"spotify.com":      true,
	}
)

// Reference points at a single Spotify track or episode.
type Reference struct {
	Type string
	ID   string
}

func (r Reference) String() string {
	return "spotify:" + r.Type + ":" + r.ID
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// ParseReference accepts a bare id (taken as a track), a spotify:track:/spotify:episode: URI,
// or an open.spotify.com link, with or without locale prefix and tracking parameters.
func (p *Parser) ParseReference(input string) (Reference, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Reference{}, ErrNoReference
	}

	if spotifyIDRegex.MatchString(input) {
		return Reference{Type: TypeTrack, ID: input}, nil
	}

	if strings.HasPrefix(input, "spotify:") {
		return p.parseURI(input)
	}

	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return Reference{}, fmt.Errorf("%w: %q", ErrNoReference, input)
	}

	return p.parseURL(input)
}

func (p *Parser) parseURI(uri string) (Reference, error) {
	parts := strings.Split(uri, ":")
	if len(parts) < MinPartsForURI {
		return Reference{}, fmt.Errorf("%w: %q", ErrNoReference, uri)
	}

	ref := Reference{Type: parts[1], ID: parts[2]}
	if !isItemType(ref.Type) || !spotifyIDRegex.MatchString(ref.ID) {
		return Reference{}, fmt.Errorf("%w: %q", ErrNoReference, uri)
	}
	return ref, nil
}

func (p *Parser) parseURL(rawURL string) (Reference, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Reference{}, fmt.Errorf("invalid URL: %w", err)
	}

	if !spotifyDomains[strings.ToLower(u.Hostname())] {
		return Reference{}, fmt.Errorf("%w: %q is not a Spotify link", ErrNoReference, rawURL)
	}

	// Paths look like /track/<id> or /intl-de/track/<id>.
	pathParts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, part := range pathParts {
		if isItemType(part) && i+1 < len(pathParts) && spotifyIDRegex.MatchString(pathParts[i+1]) {
			return Reference{Type: part, ID: pathParts[i+1]}, nil
		}
	}

	return Reference{}, fmt.Errorf("%w: %q", ErrNoReference, rawURL)
}

// NormalizeLine composes a display line to NFC and trims its ends. Inner
// spacing is kept as sent.
func (p *Parser) NormalizeLine(line string) string {
	return strings.TrimSpace(norm.NFC.String(line))
}

func isItemType(s string) bool {
	return s == TypeTrack || s == TypeEpisode
}
