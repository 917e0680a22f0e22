package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"BOT_TOKEN", "BOT_DEBUG", "MUSIC_SERVICE", "SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET",
	"YOUTUBE_API_KEY", "SOUNDCLOUD_CLIENT_ID", "APPLE_MUSIC_COUNTRY", "SEARCH_LIMIT", "SPOTDL_PATH", "YTDLP_PATH",
	"DOWNLOAD_TIMEOUT", "DOWNLOAD_COOLDOWN", "PAGE_SIZE", "RESULT_TTL",
	"MAX_CONCURRENT_UPDATES", "DATABASE_PATH", "METRICS_ADDR", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test. t.Setenv restores the originals afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "tok")
	t.Setenv("SPOTIFY_CLIENT_ID", "id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")

	cfg, err := Load(missingEnvFile(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PageSize != 5 || cfg.SearchLimit != 50 || cfg.DownloadCooldown != 30*time.Second ||
		cfg.DownloadTimeout != 60*time.Second || cfg.ResultTTL != 60*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.MusicService != ServiceSpotify || cfg.DatabasePath != "musicbot.db" || cfg.SpotdlPath != "spotdl" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bot.env")
	data := "BOT_TOKEN=file-token\nMUSIC_SERVICE=youtube\nYOUTUBE_API_KEY=yt\nPAGE_SIZE=8\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	// Values already in the environment take precedence over the file.
	t.Setenv("PAGE_SIZE", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BotToken != "file-token" || cfg.MusicService != ServiceYouTube || cfg.PageSize != 3 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

// TestLoadMalformedNumbers rejects values that do not parse instead of
// running with the default.
func TestLoadMalformedNumbers(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PAGE_SIZE", "abc"},
		{"SEARCH_LIMIT", "1e3"},
		{"DOWNLOAD_TIMEOUT", "60"},
		{"RESULT_TTL", "soon"},
		{"BOT_DEBUG", "yes"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("BOT_TOKEN", "tok")
			t.Setenv("SPOTIFY_CLIENT_ID", "id")
			t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")
			t.Setenv(tt.key, tt.value)

			cfg, err := Load(missingEnvFile(t))
			if err == nil {
				t.Fatalf("expected an error for %s=%s, got %+v", tt.key, tt.value, cfg)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q does not name %s", err, tt.key)
			}
		})
	}
}

func TestLoadReportsEveryMalformedValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "tok")
	t.Setenv("SPOTIFY_CLIENT_ID", "id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")
	t.Setenv("PAGE_SIZE", "abc")
	t.Setenv("DOWNLOAD_TIMEOUT", "60")

	_, err := Load(missingEnvFile(t))
	if err == nil || !strings.Contains(err.Error(), "PAGE_SIZE") || !strings.Contains(err.Error(), "DOWNLOAD_TIMEOUT") {
		t.Fatalf("expected both variables in the error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			BotToken: "t", MusicService: ServiceSpotify, SpotifyClientID: "i", SpotifyClientSecret: "s",
			PageSize: 5, SearchLimit: 50, DownloadTimeout: time.Minute, MaxConcurrentUpdates: 1,
		}
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	apple := base()
	apple.MusicService, apple.SpotifyClientID = ServiceAppleMusic, ""
	if err := apple.Validate(); err != nil {
		t.Fatalf("applemusic needs no credentials: %v", err)
	}
	cases := map[string]func(*Config){
		"BOT_TOKEN":        func(c *Config) { c.BotToken = "" },
		"SPOTIFY":          func(c *Config) { c.SpotifyClientSecret = "" },
		"MUSIC_SERVICE":    func(c *Config) { c.MusicService = "napster" },
		"PAGE_SIZE":        func(c *Config) { c.PageSize = 0 },
		"SEARCH_LIMIT":     func(c *Config) { c.SearchLimit = 51 },
		"SOUNDCLOUD":       func(c *Config) { c.MusicService = ServiceSoundCloud },
		"DOWNLOAD_TIMEOUT": func(c *Config) { c.DownloadTimeout = 0 },
	}
	for want, mutate := range cases {
		c := base()
		mutate(c)
		err := c.Validate()
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("%s: expected error mentioning it, got %v", want, err)
		}
	}
}
