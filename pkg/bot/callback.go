package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// Inline keyboard callback data. Track buttons carry the absolute index of
// the track in the cached result list.
const (
	dataPrev        = "prev_page"
	dataNext        = "next_page"
	dataPage        = "download_page"
	trackDataPrefix = "track_"
)

type action int

const (
	actionPrev action = iota + 1
	actionNext
	actionTrack
	actionDownloadPage
)

func trackData(index int) string {
	return trackDataPrefix + strconv.Itoa(index)
}

// parseCallback decodes button data. The index is only meaningful for
// actionTrack.
func parseCallback(data string) (action, int, error) {
	switch data {
	case dataPrev:
		return actionPrev, 0, nil
	case dataNext:
		return actionNext, 0, nil
	case dataPage:
		return actionDownloadPage, 0, nil
	}
	if rest, ok := strings.CutPrefix(data, trackDataPrefix); ok {
		idx, err := strconv.Atoi(rest)
		if err != nil || idx < 0 {
			return 0, 0, fmt.Errorf("bad track index in callback %q", data)
		}
		return actionTrack, idx, nil
	}
	return 0, 0, fmt.Errorf("unknown callback %q", data)
}
