// Package youtube implements the music.Service interface using the
// YouTube Data API. An API key must be provided when constructing the client.
//
// Network calls are performed using the provided http.Client allowing
// callers to substitute a test client.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"Smart-Music-Bot/pkg/music"
)

const searchURL = "https://www.googleapis.com/youtube/v3/search"

var defaultClient = &http.Client{Timeout: 10 * time.Second}

// Client provides access to the YouTube Data API. MaxResults defaults to 25
// when zero; the API caps it at 50.
type Client struct {
	Key        string
	MaxResults int
	Client     *http.Client
}

// ensure Client implements the music.Service interface.
var _ music.Service = (*Client)(nil)

// SearchTrack queries the YouTube search API and converts results into
// music.Track values. Only the first page of results is returned. The API
// does not report durations in search results so Duration stays zero.
func (c *Client) SearchTrack(ctx context.Context, q string) ([]music.Track, error) {
	if c.Key == "" {
		return nil, fmt.Errorf("youtube api key required")
	}
	hc := c.Client
	if hc == nil {
		hc = defaultClient
	}
	max := c.MaxResults
	if max <= 0 {
		max = 25
	}
	params := url.Values{
		"part":            {"snippet"},
		"type":            {"video"},
		"videoCategoryId": {"10"},
		"maxResults":      {strconv.Itoa(max)},
		"q":               {q},
		"key":             {c.Key},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube search error: %s", resp.Status)
	}
	var body struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title        string `json:"title"`
				ChannelTitle string `json:"channelTitle"`
				Thumbnails   struct {
					High struct {
						URL string `json:"url"`
					} `json:"high"`
				} `json:"thumbnails"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if len(body.Items) == 0 {
		return nil, music.ErrNoTracks
	}
	tracks := make([]music.Track, 0, len(body.Items))
	for _, item := range body.Items {
		if item.ID.VideoID == "" {
			continue
		}
		tracks = append(tracks, music.Track{
			ID:       item.ID.VideoID,
			Name:     item.Snippet.Title,
			Artists:  []string{item.Snippet.ChannelTitle},
			URL:      "https://www.youtube.com/watch?v=" + item.ID.VideoID,
			CoverURL: item.Snippet.Thumbnails.High.URL,
			Source:   music.SourceYouTube,
		})
	}
	if len(tracks) == 0 {
		return nil, music.ErrNoTracks
	}
	return tracks, nil
}
