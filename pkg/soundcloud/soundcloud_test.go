package soundcloud

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// roundTripper allows mocking HTTP responses for tests.
type roundTripper struct {
	status int
	data   string
}

func (rt roundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	resp := httptest.NewRecorder()
	if rt.status != 0 {
		resp.WriteHeader(rt.status)
	}
	resp.WriteString(rt.data)
	return resp.Result(), nil
}

// TestSearchTrack checks that the client decodes search results.
func TestSearchTrack(t *testing.T) {
	data := `{"collection":[{"id":1,"title":"Song","duration":61000,"permalink_url":"https://soundcloud.com/a/song","user":{"username":"Artist"}}]}`
	c := &Client{ClientID: "x", HTTP: &http.Client{Transport: roundTripper{data: data}}}
	res, err := c.SearchTrack(context.Background(), "test")
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].Name != "Song" || res[0].Artist() != "Artist" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res[0].Duration != 61*time.Second || res[0].URL != "https://soundcloud.com/a/song" {
		t.Fatalf("unexpected metadata %+v", res[0])
	}
}

func TestSearchTrackStatus(t *testing.T) {
	c := &Client{ClientID: "x", HTTP: &http.Client{Transport: roundTripper{status: http.StatusTooManyRequests}}}
	if _, err := c.SearchTrack(context.Background(), "test"); err == nil {
		t.Fatal("expected error for rate limited response")
	}
}

func TestSearchTrackConcurrentZeroClient(t *testing.T) {
	saved := defaultClient
	defaultClient = &http.Client{Transport: roundTripper{data: `{"collection":[{"id":1,"title":"Song","user":{"username":"A"}}]}`}}
	defer func() { defaultClient = saved }()

	c := &Client{ClientID: "x"}
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.SearchTrack(context.Background(), "q")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if c.HTTP != nil {
		t.Error("SearchTrack must not modify the client")
	}
}
