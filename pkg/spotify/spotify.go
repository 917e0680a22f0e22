// Package spotify wraps the official Spotify client library and exposes it as
// a music.Service. It authenticates using the client credentials flow, which
// is enough for catalog search without a user login.
//
// The wrapped library does not accept a context, so cancellation is checked
// explicitly before each call.
package spotify

import (
	"context"
	"fmt"
	"time"

	"github.com/zmb3/spotify"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"Smart-Music-Bot/pkg/music"
)

// DefaultLimit is the number of tracks requested per search.
const DefaultLimit = 50

// searcher defines the subset of the spotify.Client used by this package.
// It allows the concrete client to be replaced in tests.
type searcher interface {
	SearchOpt(query string, t spotify.SearchType, opt *spotify.Options) (*spotify.SearchResult, error)
}

// SpotifyClient searches the Spotify catalog.
type SpotifyClient struct {
	client searcher
	limit  int
}

var _ music.Service = (*SpotifyClient)(nil)

// NewSpotifyClient authenticates using the client credentials flow and returns
// a SpotifyClient ready for API calls. limit bounds the number of tracks per
// search; values outside 1..50 fall back to DefaultLimit.
func NewSpotifyClient(ctx context.Context, clientID, clientSecret string, limit int) (*SpotifyClient, error) {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotify.TokenURL,
	}

	// The first token is fetched eagerly so bad credentials fail at startup.
	token, err := config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("spotify token: %w", err)
	}

	// Client credentials carry no refresh token; the token source requests
	// a new one whenever the current token expires.
	ts := oauth2.ReuseTokenSource(token, config.TokenSource(ctx))
	c := spotify.NewClient(oauth2.NewClient(ctx, ts))
	return &SpotifyClient{client: &c, limit: normalizeLimit(limit)}, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > DefaultLimit {
		return DefaultLimit
	}
	return limit
}

// SearchTrack implements music.Service by querying the Spotify API for the
// supplied text. music.ErrNoTracks is returned when the result set is empty.
func (sc *SpotifyClient) SearchTrack(ctx context.Context, query string) ([]music.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit := normalizeLimit(sc.limit)
	results, err := sc.client.SearchOpt(query, spotify.SearchTypeTrack, &spotify.Options{Limit: &limit})
	if err != nil {
		return nil, fmt.Errorf("spotify search: %w", err)
	}
	if results == nil || results.Tracks == nil || len(results.Tracks.Tracks) == 0 {
		return nil, music.ErrNoTracks
	}

	tracks := make([]music.Track, len(results.Tracks.Tracks))
	for i, ft := range results.Tracks.Tracks {
		tracks[i] = convert(ft)
	}
	return tracks, nil
}

// convert maps a Spotify track onto the catalog-neutral descriptor.
func convert(ft spotify.FullTrack) music.Track {
	artists := make([]string, len(ft.Artists))
	for i, a := range ft.Artists {
		artists[i] = a.Name
	}
	t := music.Track{
		ID:       string(ft.ID),
		Name:     ft.Name,
		Artists:  artists,
		Duration: time.Duration(ft.Duration) * time.Millisecond,
		URL:      ft.ExternalURLs["spotify"],
		Source:   music.SourceSpotify,
	}
	if t.URL == "" && ft.ID != "" {
		t.URL = "https://open.spotify.com/track/" + string(ft.ID)
	}
	if len(ft.Album.Images) > 0 {
		t.CoverURL = ft.Album.Images[0].URL
	}
	return t
}
