package music

import (
	"context"
	"errors"
	"sync"
)

// Aggregator queries each configured Service and merges the results.
// It is used when the bot should search several catalogs at once.
type Aggregator struct {
	Services []Service
}

// SearchTrack returns the union of results from all underlying services in
// the order the services are configured. Duplicates are removed based on the
// source and track ID. Failure of one service does not prevent results from
// the others; an error is only returned when every service failed.
func (a Aggregator) SearchTrack(ctx context.Context, q string) ([]Track, error) {
	if len(a.Services) == 0 {
		return nil, ErrNoTracks
	}
	type result struct {
		tracks []Track
		err    error
	}
	results := make([]result, len(a.Services))
	var wg sync.WaitGroup
	for i, svc := range a.Services {
		wg.Add(1)
		go func(i int, svc Service) {
			defer wg.Done()
			tracks, err := svc.SearchTrack(ctx, q)
			results[i] = result{tracks: tracks, err: err}
		}(i, svc)
	}
	wg.Wait()

	seen := make(map[string]struct{})
	var merged []Track
	var firstErr error
	successes := 0
	for _, r := range results {
		if r.err != nil {
			// An empty catalog still counts as a successful call.
			if errors.Is(r.err, ErrNoTracks) {
				successes++
			} else if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		successes++
		for _, t := range r.tracks {
			key := t.Source + ":" + t.ID
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				merged = append(merged, t)
			}
		}
	}
	if successes == 0 && firstErr != nil {
		return nil, firstErr
	}
	if len(merged) == 0 {
		return nil, ErrNoTracks
	}
	return merged, nil
}
