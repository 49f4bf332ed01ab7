// Package playable projects the item a Spotify player reports (a track or a podcast
// episode) onto the flat fields a status display renders.
package playable

import (
	"github.com/zmb3/spotify/v2"
)

// spotifyURLKey is the external_urls entry holding the open.spotify.com link.
const spotifyURLKey = "spotify"

// Item is the currently active track or episode. The set of variants is closed:
// Track and Episode. Anything else, including nil, projects to the defaults.
type Item interface {
	playable()
}

// Track is a music track.
type Track struct {
	*spotify.FullTrack
}

// Episode is a podcast episode.
type Episode struct {
	*spotify.EpisodePage
}

func (Track) playable()   {}
func (Episode) playable() {}

// FromTrack wraps a track. A nil track yields a nil Item.
func FromTrack(track *spotify.FullTrack) Item {
	if track == nil {
		return nil
	}
	return Track{FullTrack: track}
}

// FromEpisode wraps an episode. A nil episode yields a nil Item.
func FromEpisode(episode *spotify.EpisodePage) Item {
	if episode == nil {
		return nil
	}
	return Episode{EpisodePage: episode}
}

// Resource is a named, linkable entity: an artist, album, show or the item itself.
type Resource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func newResource(name string, externalURLs map[string]string) Resource {
	return Resource{Name: name, URL: externalURLs[spotifyURLKey]}
}
