// Package config loads the bot's settings from the environment. A .env file
// is read first when present; variables already set in the environment win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Music services selectable through MUSIC_SERVICE.
const (
	ServiceSpotify    = "spotify"
	ServiceYouTube    = "youtube"
	ServiceSoundCloud = "soundcloud"
	ServiceAppleMusic = "applemusic"
	ServiceAggregate  = "aggregate"
)

// Config holds all configuration for the bot.
type Config struct {
	BotToken string
	BotDebug bool

	MusicService        string
	SpotifyClientID     string
	SpotifyClientSecret string
	YouTubeAPIKey       string
	SoundCloudClientID  string
	AppleMusicCountry   string
	SearchLimit         int

	SpotdlPath       string
	YtDlpPath        string
	DownloadTimeout  time.Duration
	DownloadCooldown time.Duration

	PageSize             int
	ResultTTL            time.Duration
	MaxConcurrentUpdates int

	DatabasePath string
	MetricsAddr  string
	LogLevel     string
	LogFormat    string
}

// Load reads envFile (if it exists) and then the environment. An empty
// envFile means ".env".
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	var env envParser
	cfg := &Config{
		BotToken:             os.Getenv("BOT_TOKEN"),
		BotDebug:             env.bool("BOT_DEBUG", false),
		MusicService:         getEnv("MUSIC_SERVICE", ServiceSpotify),
		SpotifyClientID:      os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret:  os.Getenv("SPOTIFY_CLIENT_SECRET"),
		YouTubeAPIKey:        os.Getenv("YOUTUBE_API_KEY"),
		SoundCloudClientID:   os.Getenv("SOUNDCLOUD_CLIENT_ID"),
		AppleMusicCountry:    os.Getenv("APPLE_MUSIC_COUNTRY"),
		SearchLimit:          env.int("SEARCH_LIMIT", 50),
		SpotdlPath:           getEnv("SPOTDL_PATH", "spotdl"),
		YtDlpPath:            getEnv("YTDLP_PATH", "yt-dlp"),
		DownloadTimeout:      env.duration("DOWNLOAD_TIMEOUT", 60*time.Second),
		DownloadCooldown:     env.duration("DOWNLOAD_COOLDOWN", 30*time.Second),
		PageSize:             env.int("PAGE_SIZE", 5),
		ResultTTL:            env.duration("RESULT_TTL", 60*time.Second),
		MaxConcurrentUpdates: env.int("MAX_CONCURRENT_UPDATES", 10),
		DatabasePath:         getEnv("DATABASE_PATH", "musicbot.db"),
		MetricsAddr:          os.Getenv("METRICS_ADDR"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
	}
	if err := errors.Join(env.errs...); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Validate checks required credentials and value ranges.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return errors.New("BOT_TOKEN must be set")
	}
	switch c.MusicService {
	case ServiceSpotify, ServiceAggregate:
		if c.SpotifyClientID == "" || c.SpotifyClientSecret == "" {
			return errors.New("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set")
		}
	case ServiceYouTube:
		if c.YouTubeAPIKey == "" {
			return errors.New("YOUTUBE_API_KEY must be set for MUSIC_SERVICE=youtube")
		}
	case ServiceSoundCloud:
		if c.SoundCloudClientID == "" {
			return errors.New("SOUNDCLOUD_CLIENT_ID must be set for MUSIC_SERVICE=soundcloud")
		}
	case ServiceAppleMusic:
	default:
		return fmt.Errorf("unknown MUSIC_SERVICE %q", c.MusicService)
	}
	if c.PageSize < 1 || c.PageSize > 10 {
		return fmt.Errorf("PAGE_SIZE must be 1-10, got %d", c.PageSize)
	}
	if c.SearchLimit < 1 || c.SearchLimit > 50 {
		return fmt.Errorf("SEARCH_LIMIT must be 1-50, got %d", c.SearchLimit)
	}
	if c.DownloadTimeout <= 0 {
		return fmt.Errorf("DOWNLOAD_TIMEOUT must be positive, got %s", c.DownloadTimeout)
	}
	if c.DownloadCooldown < 0 || c.ResultTTL < 0 {
		return errors.New("DOWNLOAD_COOLDOWN and RESULT_TTL must not be negative")
	}
	if c.MaxConcurrentUpdates < 1 {
		return fmt.Errorf("MAX_CONCURRENT_UPDATES must be positive, got %d", c.MaxConcurrentUpdates)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// envParser reads typed variables and collects malformed values instead of
// silently using the default.
type envParser struct {
	errs []error
}

func (p *envParser) bool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a boolean", key, v))
		return defaultVal
	}
	return b
}

func (p *envParser) int(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return defaultVal
	}
	return i
}

// duration requires a unit ("60s", "1m"); a bare number is rejected.
func (p *envParser) duration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a duration such as 60s", key, v))
		return defaultVal
	}
	return d
}
