// Package soundcloud implements the music.Service interface using the
// SoundCloud public API. A client_id must be supplied via configuration.
package soundcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"Smart-Music-Bot/pkg/music"
)

// Client talks to the SoundCloud API. If HTTP is nil a client with a 10 second
// timeout is used.
type Client struct {
	ClientID string
	Limit    int
	HTTP     *http.Client
}

var defaultClient = &http.Client{Timeout: 10 * time.Second}

// Ensure interface compliance at compile time.
var _ music.Service = (*Client)(nil)

// SearchTrack queries the SoundCloud search API and converts results.
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
		"q":         {q},
		"client_id": {c.ClientID},
		"limit":     {fmt.Sprint(limit)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api-v2.soundcloud.com/search/tracks?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("soundcloud search error: %s", resp.Status)
	}
	var body struct {
		Collection []struct {
			ID           int64  `json:"id"`
			Title        string `json:"title"`
			Duration     int64  `json:"duration"`
			PermalinkURL string `json:"permalink_url"`
			ArtworkURL   string `json:"artwork_url"`
			User         struct {
				Username string `json:"username"`
			} `json:"user"`
		} `json:"collection"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if len(body.Collection) == 0 {
		return nil, music.ErrNoTracks
	}
	tracks := make([]music.Track, len(body.Collection))
	for i, item := range body.Collection {
		link := item.PermalinkURL
		if link == "" {
			link = fmt.Sprintf("https://api.soundcloud.com/tracks/%d", item.ID)
		}
		tracks[i] = music.Track{
			ID:       fmt.Sprint(item.ID),
			Name:     item.Title,
			Artists:  []string{item.User.Username},
			Duration: time.Duration(item.Duration) * time.Millisecond,
			URL:      link,
			CoverURL: item.ArtworkURL,
			Source:   music.SourceSoundCloud,
		}
	}
	return tracks, nil
}
