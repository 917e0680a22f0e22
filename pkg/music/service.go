// Package music defines the track descriptor and the search interface shared
// by every catalog provider. The bot only depends on this package so the
// underlying platform (Spotify, YouTube, SoundCloud, Apple Music) can be swapped through
// configuration.
package music

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Catalog sources. The downloader uses Source to pick the tool able to fetch
// a track's audio.
const (
	SourceSpotify    = "spotify"
	SourceYouTube    = "youtube"
	SourceSoundCloud = "soundcloud"
	SourceAppleMusic = "applemusic"
)

// ErrNoTracks is returned by a Service when the query matched nothing.
var ErrNoTracks = errors.New("no tracks found")

// Track is the metadata record returned by a catalog search.
type Track struct {
	ID       string
	Name     string
	Artists  []string
	Duration time.Duration
	// URL is the public link handed to the download tool.
	URL      string
	CoverURL string
	Source   string
}

// Artist joins the artist names the way they are shown to users.
func (t Track) Artist() string {
	return strings.Join(t.Artists, ", ")
}

// Label is the text of the track's inline keyboard button.
func (t Track) Label() string {
	return fmt.Sprintf("%s — %s [%s]", t.Name, t.Artist(), FormatDuration(t.Duration))
}

// FormatDuration renders d as m:ss. Negative durations render as 0:00.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// Service exposes catalog search.
type Service interface {
	// SearchTrack returns tracks matching the query string. The context is
	// used for request cancellation. ErrNoTracks is returned when nothing
	// matched; any other error means the external call failed.
	SearchTrack(ctx context.Context, query string) ([]Track, error)
}
