// Package downloader fetches a track's audio by shelling out to an external
// tool. spotdl handles Spotify links and yt-dlp handles everything else; both
// write an MP3 into a caller supplied directory which the caller owns and
// removes afterwards.
package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"
	"time"

	"Smart-Music-Bot/pkg/music"
)

// DefaultTimeout bounds a single tool run.
const DefaultTimeout = 60 * time.Second

var (
	// ErrTimeout reports that the tool did not finish in time and was killed.
	ErrTimeout = errors.New("download timed out")
	// ErrNoAudio reports that the tool succeeded but produced no MP3.
	ErrNoAudio = errors.New("no mp3 file produced")
)

// ToolError describes a tool that exited unsuccessfully.
type ToolError struct {
	Tool   string
	Err    error
	Stderr string
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// Downloader writes the audio of track into dir and returns the file path.
type Downloader interface {
	Download(ctx context.Context, track music.Track, dir string) (string, error)
}

// Spotdl runs `spotdl download <url> --output <dir>`.
type Spotdl struct {
	Path    string
	Timeout time.Duration
}

// Download implements Downloader.
func (s Spotdl) Download(ctx context.Context, track music.Track, dir string) (string, error) {
	return run(ctx, orDefault(s.Path, "spotdl"), s.Timeout, dir,
		"download", track.URL, "--output", dir)
}

// YtDlp runs yt-dlp extracting the audio stream to MP3. With Search set the
// track's URL is ignored and yt-dlp fetches the best YouTube match for
// "artist - name", for catalogs whose links it cannot download.
type YtDlp struct {
	Path    string
	Timeout time.Duration
	Search  bool
}

// Download implements Downloader.
func (y YtDlp) Download(ctx context.Context, track music.Track, dir string) (string, error) {
	return run(ctx, orDefault(y.Path, "yt-dlp"), y.Timeout, dir,
		"--no-playlist", "-x", "--audio-format", "mp3",
		"-o", filepath.Join(dir, "%(title)s.%(ext)s"), y.target(track))
}

func (y YtDlp) target(track music.Track) string {
	if y.Search || track.URL == "" {
		return "ytsearch1:" + track.Artist() + " - " + track.Name
	}
	return track.URL
}

// Router picks a Downloader by the track's catalog source.
type Router struct {
	BySource map[string]Downloader
	Default  Downloader
}

// Download implements Downloader.
func (r Router) Download(ctx context.Context, track music.Track, dir string) (string, error) {
	d, ok := r.BySource[track.Source]
	if !ok {
		d = r.Default
	}
	if d == nil {
		return "", fmt.Errorf("no downloader for source %q", track.Source)
	}
	return d.Download(ctx, track, dir)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func run(ctx context.Context, tool string, timeout time.Duration, dir string, args ...string) (string, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &ToolError{Tool: filepath.Base(tool), Err: err, Stderr: tail(stderr.String(), 500)}
	}

	path, err := FindAudio(dir)
	if err != nil {
		return "", fmt.Errorf("%w (stdout: %s)", err, tail(stdout.String(), 200))
	}
	return path, nil
}

// FindAudio returns the first .mp3 file found under dir, walking it
// recursively in lexical order.
func FindAudio(dir string) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".mp3") {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", ErrNoAudio
	}
	return found, nil
}

// tail keeps at most the last n bytes of s, starting on a rune boundary;
// tool output ends with the useful part.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return "…" + s[i:]
}
