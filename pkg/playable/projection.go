package playable

import (
	"github.com/zmb3/spotify/v2"
)

// UnknownDurationMs is returned by DurationMs for unrecognized items.
// It is a placeholder, not a real duration.
const UnknownDurationMs = 100

// CoverURL returns the first image of the track's album or of the episode.
func CoverURL(item Item) string {
	switch v := item.(type) {
	case Track:
		if v.FullTrack != nil {
			return firstImageURL(v.Album.Images)
		}
	case Episode:
		if v.EpisodePage != nil {
			return firstImageURL(v.Images)
		}
	}
	return ""
}

// Creators returns one resource per artist of a track, in artist order, or the show of an episode.
func Creators(item Item) []Resource {
	switch v := item.(type) {
	case Track:
		if v.FullTrack == nil {
			return nil
		}
		creators := make([]Resource, 0, len(v.Artists))
		for i := range v.Artists {
			creators = append(creators, newResource(v.Artists[i].Name, v.Artists[i].ExternalURLs))
		}
		return creators
	case Episode:
		if v.EpisodePage == nil {
			return nil
		}
		return []Resource{newResource(v.Show.Name, v.Show.ExternalURLs)}
	default:
		return nil
	}
}

// DurationMs returns the item duration in milliseconds, or UnknownDurationMs.
func DurationMs(item Item) int {
	switch v := item.(type) {
	case Track:
		if v.FullTrack != nil {
			return v.Duration
		}
	case Episode:
		if v.EpisodePage != nil {
			return v.Duration_ms
		}
	}
	return UnknownDurationMs
}

// Grouping returns the album of a track or the show of an episode.
func Grouping(item Item) *Resource {
	var grouping Resource
	switch v := item.(type) {
	case Track:
		if v.FullTrack == nil {
			return nil
		}
		grouping = newResource(v.Album.Name, v.Album.ExternalURLs)
	case Episode:
		if v.EpisodePage == nil {
			return nil
		}
		grouping = newResource(v.Show.Name, v.Show.ExternalURLs)
	default:
		return nil
	}
	return &grouping
}

// ID returns the Spotify id of the item, or "".
func ID(item Item) string {
	switch v := item.(type) {
	case Track:
		if v.FullTrack != nil {
			return string(v.FullTrack.ID)
		}
	case Episode:
		if v.EpisodePage != nil {
			return string(v.EpisodePage.ID)
		}
	}
	return ""
}

// AsResource returns the item itself as a resource.
func AsResource(item Item) *Resource {
	var self Resource
	switch v := item.(type) {
	case Track:
		if v.FullTrack == nil {
			return nil
		}
		self = newResource(v.FullTrack.Name, v.FullTrack.ExternalURLs)
	case Episode:
		if v.EpisodePage == nil {
			return nil
		}
		self = newResource(v.EpisodePage.Name, v.EpisodePage.ExternalURLs)
	default:
		return nil
	}
	return &self
}

func firstImageURL(images []spotify.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}
