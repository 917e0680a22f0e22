// Command bot runs Smart Music Bot: a Telegram bot that searches a music
// catalog, shows paginated results and sends the chosen tracks back as MP3.
// Configuration comes from the environment, optionally seeded by a .env file.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"Smart-Music-Bot/pkg/applemusic"
	"Smart-Music-Bot/pkg/bot"
	"Smart-Music-Bot/pkg/config"
	"Smart-Music-Bot/pkg/db"
	"Smart-Music-Bot/pkg/downloader"
	"Smart-Music-Bot/pkg/handlers"
	"Smart-Music-Bot/pkg/metrics"
	"Smart-Music-Bot/pkg/music"
	"Smart-Music-Bot/pkg/soundcloud"
	"Smart-Music-Bot/pkg/spotify"
	"Smart-Music-Bot/pkg/youtube"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		envFile string
		debug   bool
	)
	cmd := &cobra.Command{
		Use:           "musicbot",
		Short:         "Telegram bot that finds songs and sends them as MP3",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if debug {
				cfg.BotDebug = true
				cfg.LogLevel = "debug"
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, log)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.Flags().BoolVar(&debug, "debug", false, "log at debug level and trace Bot API calls")
	return cmd
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	log := logrus.New()
	log.SetLevel(level)
	switch cfg.LogFormat {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown LOG_FORMAT %q", cfg.LogFormat)
	}
	return log, nil
}

// newMusicService selects the catalog named by MUSIC_SERVICE. Only the
// Spotify client talks to the network while being built.
func newMusicService(ctx context.Context, cfg *config.Config) (music.Service, error) {
	yt := &youtube.Client{Key: cfg.YouTubeAPIKey, MaxResults: cfg.SearchLimit}
	sc := &soundcloud.Client{ClientID: cfg.SoundCloudClientID, Limit: cfg.SearchLimit}
	am := &applemusic.Client{Limit: cfg.SearchLimit, Country: cfg.AppleMusicCountry}
	switch cfg.MusicService {
	case config.ServiceYouTube:
		return yt, nil
	case config.ServiceSoundCloud:
		return sc, nil
	case config.ServiceAppleMusic:
		return am, nil
	case config.ServiceSpotify, config.ServiceAggregate:
	default:
		return nil, fmt.Errorf("unknown music service %q", cfg.MusicService)
	}

	sp, err := spotify.NewSpotifyClient(ctx, cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.SearchLimit)
	if err != nil {
		return nil, err
	}
	if cfg.MusicService == config.ServiceSpotify {
		return sp, nil
	}
	services := []music.Service{sp}
	if cfg.YouTubeAPIKey != "" {
		services = append(services, yt)
	}
	if cfg.SoundCloudClientID != "" {
		services = append(services, sc)
	}
	services = append(services, am)
	return music.Aggregator{Services: services}, nil
}

// newDownloader routes Spotify tracks to spotdl, Apple Music tracks to a
// yt-dlp search and everything else to yt-dlp with the track link.
func newDownloader(cfg *config.Config) downloader.Downloader {
	return downloader.Router{
		BySource: map[string]downloader.Downloader{
			music.SourceSpotify:    downloader.Spotdl{Path: cfg.SpotdlPath, Timeout: cfg.DownloadTimeout},
			music.SourceAppleMusic: downloader.YtDlp{Path: cfg.YtDlpPath, Timeout: cfg.DownloadTimeout, Search: true},
		},
		Default: downloader.YtDlp{Path: cfg.YtDlpPath, Timeout: cfg.DownloadTimeout},
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	store, err := db.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("db init: %w", err)
	}
	defer store.Close()

	svc, err := newMusicService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("music service init: %w", err)
	}

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           (&handlers.Application{Metrics: m.Handler(), DB: store, Logger: log}).Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.WithField("addr", cfg.MetricsAddr).Info("serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	if err := tgbotapi.SetLogger(log.WithField("component", "telegram")); err != nil {
		return err
	}
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("telegram login: %w", err)
	}
	api.Debug = cfg.BotDebug
	log.WithFields(logrus.Fields{
		"bot":     api.Self.UserName,
		"service": cfg.MusicService,
	}).Info("bot authorised")

	b := bot.New(api, svc, newDownloader(cfg), bot.Options{
		PageSize:         cfg.PageSize,
		DownloadCooldown: cfg.DownloadCooldown,
		ResultTTL:        cfg.ResultTTL,
		MaxConcurrent:    cfg.MaxConcurrentUpdates,
		History:          store,
		Metrics:          m,
		Logger:           log,
	})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	err = b.Run(ctx, updates)
	if errors.Is(err, context.Canceled) {
		log.Info("shutting down")
		return nil
	}
	return err
}
