// Package applemusic implements the music.Service interface using the public
// iTunes Search API. It needs no credentials. The zero value Client is ready
// for use; a shared http.Client with a 10 second timeout is used when HTTP
// is nil.
//
// Apple Music links cannot be downloaded directly, so tracks from this
// catalog are fetched by searching YouTube for the artist and title.
package applemusic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"Smart-Music-Bot/pkg/music"
)

const searchURL = "https://itunes.apple.com/search"

// defaultClient is used when Client.HTTP is nil.
var defaultClient = &http.Client{Timeout: 10 * time.Second}

// Client provides access to Apple's iTunes Search API. Limit defaults to 25;
// the API allows up to 200 but the bot never shows more than 50.
type Client struct {
	Limit   int
	Country string
	HTTP    *http.Client
}

// Ensure interface compliance at compile time.
var _ music.Service = (*Client)(nil)

type searchResponse struct {
	Results []struct {
		TrackID       int64  `json:"trackId"`
		TrackName     string `json:"trackName"`
		ArtistName    string `json:"artistName"`
		TrackTimeMs   int64  `json:"trackTimeMillis"`
		TrackViewURL  string `json:"trackViewUrl"`
		ArtworkURL100 string `json:"artworkUrl100"`
	} `json:"results"`
}

// SearchTrack queries the iTunes endpoint for songs matching q.
func (c *Client) SearchTrack(ctx context.Context, q string) ([]music.Track, error) {
	hc := c.HTTP
	if hc == nil {
		hc = defaultClient
	}
	limit := c.Limit
	if limit <= 0 {
		limit = 25
	}
	params := url.Values{
		"term":   {q},
		"entity": {"song"},
		"media":  {"music"},
		"limit":  {strconv.Itoa(limit)},
	}
	if c.Country != "" {
		params.Set("country", c.Country)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("itunes search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("itunes search error: %s", resp.Status)
	}
	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("itunes search: decode: %w", err)
	}
	if len(body.Results) == 0 {
		return nil, music.ErrNoTracks
	}
	tracks := make([]music.Track, len(body.Results))
	for i, item := range body.Results {
		link := item.TrackViewURL
		if link == "" {
			link = fmt.Sprintf("https://music.apple.com/song/%d", item.TrackID)
		}
		tracks[i] = music.Track{
			ID:       strconv.FormatInt(item.TrackID, 10),
			Name:     item.TrackName,
			Artists:  []string{item.ArtistName},
			Duration: time.Duration(item.TrackTimeMs) * time.Millisecond,
			URL:      link,
			CoverURL: largeArtwork(item.ArtworkURL100),
			Source:   music.SourceAppleMusic,
		}
	}
	return tracks, nil
}

// largeArtwork swaps the 100px thumbnail for the 600px rendition the CDN
// serves from the same path.
func largeArtwork(u string) string {
	return strings.Replace(u, "100x100bb", "600x600bb", 1)
}
