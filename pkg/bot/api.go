// Package bot implements the Telegram surface of the music bot: command and
// search handling, paginated result keyboards and the download flow that
// streams audio files back to the chat.
package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"Smart-Music-Bot/pkg/db"
)

// API is the subset of tgbotapi.BotAPI used by the bot. It allows the
// Telegram client to be replaced in tests.
type API interface {
	// Send delivers a message-producing request and returns the message.
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	// Request performs calls that do not return a message such as chat
	// actions, callback answers, edits and deletions.
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// History persists recent searches and the download log. *db.DB implements
// it; a nil History disables /recent and /top.
type History interface {
	AddRecentQuery(ctx context.Context, chatID int64, query string) error
	RecentQueries(ctx context.Context, chatID int64, n int) ([]string, error)
	AddDownload(ctx context.Context, d db.Download) error
	TopTracksSince(ctx context.Context, since time.Time, n int) ([]db.TrackCount, error)
}

var _ History = (*db.DB)(nil)
