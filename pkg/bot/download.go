package bot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"Smart-Music-Bot/pkg/db"
	"Smart-Music-Bot/pkg/downloader"
	"Smart-Music-Bot/pkg/metrics"
	"Smart-Music-Bot/pkg/music"
	"Smart-Music-Bot/pkg/session"
)

var errTooLarge = errors.New("file exceeds upload limit")

// sendError wraps a failed audio upload.
type sendError struct{ err error }

func (e *sendError) Error() string { return "send audio: " + e.err.Error() }
func (e *sendError) Unwrap() error { return e.err }

// claim loads the chat's session and reserves a download slot. It replies to
// the chat and returns false when either is unavailable.
func (b *Bot) claim(chatID int64) (session.Session, bool) {
	sess, ok := b.sessions.Get(chatID)
	if !ok {
		b.reply(chatID, sessionExpiredText, "")
		return session.Session{}, false
	}
	if wait, ok := b.sessions.Reserve(chatID, b.now(), b.opts.DownloadCooldown); !ok {
		b.metrics.Throttled()
		secs := int(math.Ceil(wait.Seconds()))
		b.reply(chatID, fmt.Sprintf("⏳ Please wait %d seconds before downloading again.", secs), "")
		return session.Session{}, false
	}
	return sess, true
}

func (b *Bot) downloadTrack(ctx context.Context, chatID int64, msgID, idx int) {
	sess, ok := b.claim(chatID)
	if !ok {
		return
	}
	if idx >= len(sess.Tracks) {
		b.reply(chatID, trackGoneText, "")
		return
	}
	track := sess.Tracks[idx]
	b.status(chatID, msgID, fmt.Sprintf("🎶 Selected: *%s* by *%s*\n\n⏳ Downloading...", escape(track.Name), escape(track.Artist())))

	caption := "✅ *Downloaded successfully!*"
	if err := b.deliver(ctx, chatID, track, caption); err != nil {
		b.reply(chatID, failureText(err), "")
	}
}

func (b *Bot) downloadPage(ctx context.Context, chatID int64, msgID int) {
	sess, ok := b.claim(chatID)
	if !ok {
		return
	}
	tracks, _ := b.sessions.PageTracks(sess)
	b.status(chatID, msgID, fmt.Sprintf("⬇️ Downloading all songs on page %d...\n\n⏳ Please wait...", sess.Page+1))

	for _, track := range tracks {
		if ctx.Err() != nil {
			return
		}
		caption := fmt.Sprintf("✅ *Downloaded: %s*\n👤 *Artist:* %s", escape(track.Name), escape(track.Artist()))
		if err := b.deliver(ctx, chatID, track, caption); err != nil {
			b.reply(chatID, fmt.Sprintf("%s (%s)", failureText(err), track.Name), "")
		}
	}
	b.reply(chatID, pageDoneText, "")
}

// status replaces the pressed keyboard message with a progress note.
func (b *Bot) status(chatID int64, msgID int, text string) {
	if msgID == 0 {
		return
	}
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Request(edit); err != nil {
		b.log.WithError(err).WithField("chat_id", chatID).Debug("edit status message")
	}
}

// deliver downloads track into a private temporary directory, uploads the
// audio to the chat and removes the directory. The outcome is logged,
// counted and recorded in the history.
func (b *Bot) deliver(ctx context.Context, chatID int64, track music.Track, caption string) (err error) {
	log := b.log.WithFields(logrus.Fields{
		"chat_id": chatID,
		"job":     uuid.NewString(),
		"track":   track.Name,
		"source":  track.Source,
	})
	done := b.metrics.StartDownload()
	defer func() {
		outcome := outcomeOf(err)
		done(outcome)
		status := db.StatusSent
		if err != nil {
			status = db.StatusFailed
			log.WithError(err).WithField("outcome", outcome).Error("download failed")
		} else {
			log.Info("audio delivered")
		}
		b.record(ctx, chatID, track, status)
	}()

	dir, err := os.MkdirTemp(b.opts.TempDir, "musicbot-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			log.WithError(rmErr).Warn("remove temp dir")
		}
	}()

	log.WithField("dir", dir).Debug("downloading")
	path, err := b.downloader.Download(ctx, track, dir)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > b.opts.MaxUploadSize {
		return fmt.Errorf("%w: %d bytes", errTooLarge, info.Size())
	}

	b.chatAction(chatID, tgbotapi.ChatUploadDocument)
	audio := tgbotapi.NewAudio(chatID, tgbotapi.FilePath(path))
	audio.Title = track.Name
	audio.Performer = track.Artist()
	audio.Duration = int(track.Duration.Seconds())
	audio.Caption = caption
	audio.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(audio); err != nil {
		return &sendError{err: err}
	}
	return nil
}

func (b *Bot) record(ctx context.Context, chatID int64, track music.Track, status string) {
	if b.history == nil {
		return
	}
	// The download may have been cut short by ctx; the log entry is still
	// worth keeping.
	err := b.history.AddDownload(context.WithoutCancel(ctx), db.Download{
		ChatID:     chatID,
		TrackID:    track.ID,
		TrackName:  track.Name,
		ArtistName: track.Artist(),
		Source:     track.Source,
		Status:     status,
		At:         b.now(),
	})
	if err != nil {
		b.log.WithError(err).WithField("chat_id", chatID).Warn("record download")
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, downloader.ErrTimeout):
		return metrics.OutcomeTimeout
	case errors.Is(err, errTooLarge):
		return metrics.OutcomeTooLarge
	default:
		return metrics.OutcomeError
	}
}

// failureText turns a delivery error into the message shown in chat.
func failureText(err error) string {
	var toolErr *downloader.ToolError
	var sendErr *sendError
	switch {
	case errors.Is(err, downloader.ErrTimeout):
		return "❌ Download timed out."
	case errors.Is(err, downloader.ErrNoAudio):
		return "❌ Download failed. No MP3 file was produced."
	case errors.Is(err, errTooLarge):
		return "⚠️ The file is larger than Telegram allows bots to send."
	case errors.As(err, &toolErr):
		return "❌ Download failed. The track may be unavailable."
	case errors.As(err, &sendErr):
		return "⚠️ Error sending audio to Telegram."
	case errors.Is(err, context.Canceled):
		return "⚠️ Download cancelled."
	default:
		return "⚠️ An error occurred while downloading."
	}
}
