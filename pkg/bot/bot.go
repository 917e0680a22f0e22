package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"Smart-Music-Bot/pkg/downloader"
	"Smart-Music-Bot/pkg/metrics"
	"Smart-Music-Bot/pkg/music"
	"Smart-Music-Bot/pkg/session"
)

// MaxUploadSize is the largest file a bot may upload through the Bot API.
const MaxUploadSize = 50 << 20

// Options configures a Bot. Zero values pick the defaults noted per field.
type Options struct {
	// PageSize is the number of tracks per keyboard page (5).
	PageSize int
	// DownloadCooldown is the minimum time between downloads of a chat.
	DownloadCooldown time.Duration
	// ResultTTL is how long result messages stay before they are deleted.
	// Zero keeps them.
	ResultTTL time.Duration
	// MaxConcurrent bounds the updates handled at once by Run (10).
	MaxConcurrent int
	// MaxUploadSize overrides the upload limit (MaxUploadSize).
	MaxUploadSize int64
	// TempDir is where download directories are created (os.TempDir).
	TempDir string

	History History
	Metrics *metrics.Metrics
	Logger  logrus.FieldLogger
}

// Bot handles Telegram updates. It is safe for concurrent use.
type Bot struct {
	api        API
	music      music.Service
	downloader downloader.Downloader
	history    History
	metrics    *metrics.Metrics
	sessions   *session.Store
	opts       Options
	log        logrus.FieldLogger
	now        func() time.Time
}

// New wires a Bot around the Telegram client, the catalog and the download
// tool.
func New(api API, svc music.Service, dl downloader.Downloader, opts Options) *Bot {
	if opts.PageSize < 1 {
		opts.PageSize = 5
	}
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 10
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = MaxUploadSize
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Bot{
		api:        api,
		music:      svc,
		downloader: dl,
		history:    opts.History,
		metrics:    opts.Metrics,
		sessions:   session.NewStore(opts.PageSize),
		opts:       opts,
		log:        opts.Logger,
		now:        time.Now,
	}
}

// Run dispatches updates until ctx is cancelled or the channel is closed.
// Each update is handled on its own goroutine; at most MaxConcurrent run at
// once. Run waits for in-flight handlers before returning.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	sem := make(chan struct{}, b.opts.MaxConcurrent)
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			wg.Add(1)
			go func(u tgbotapi.Update) {
				defer wg.Done()
				defer func() { <-sem }()
				b.HandleUpdate(ctx, u)
			}(u)
		}
	}
}

// HandleUpdate processes a single update. Panics are recovered and logged so
// one bad update cannot take the bot down.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithFields(logrus.Fields{"update_id": u.UpdateID, "panic": r}).
				Errorf("recovered from panic handling update\n%s", debug.Stack())
		}
	}()
	switch {
	case u.Message != nil:
		b.handleMessage(ctx, u.Message)
	case u.CallbackQuery != nil:
		b.metrics.Update("callback")
		b.handleCallback(ctx, u.CallbackQuery)
	default:
		b.metrics.Update("other")
	}
}

func (b *Bot) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	if m.Chat == nil {
		return
	}
	chatID := m.Chat.ID
	if m.IsCommand() {
		b.metrics.Update("command")
		b.typing(chatID)
		switch m.Command() {
		case "start":
			b.reply(chatID, welcomeText, tgbotapi.ModeMarkdown)
		case "help":
			b.reply(chatID, helpText, tgbotapi.ModeMarkdown)
		case "recent":
			b.recent(ctx, chatID)
		case "top":
			b.top(ctx, chatID)
		default:
			b.reply(chatID, unknownCommandText, "")
		}
		return
	}

	b.metrics.Update("message")
	if m.Text == "" {
		// Stickers, photos and other non-text messages are not searches.
		return
	}
	b.typing(chatID)
	query := strings.TrimSpace(m.Text)
	if query == "" {
		b.reply(chatID, emptyQueryText, "")
		return
	}
	b.search(ctx, chatID, query)
}

func (b *Bot) recent(ctx context.Context, chatID int64) {
	if b.history == nil {
		b.reply(chatID, noHistoryText, "")
		return
	}
	qs, err := b.history.RecentQueries(ctx, chatID, 5)
	if err != nil {
		b.log.WithError(err).WithField("chat_id", chatID).Error("load recent queries")
		b.reply(chatID, noHistoryText, "")
		return
	}
	if len(qs) == 0 {
		b.reply(chatID, noRecentText, "")
		return
	}
	var sb strings.Builder
	sb.WriteString("🕘 Your recent searches:")
	for _, q := range qs {
		sb.WriteString("\n- ")
		sb.WriteString(q)
	}
	b.reply(chatID, sb.String(), "")
}

func (b *Bot) top(ctx context.Context, chatID int64) {
	if b.history == nil {
		b.reply(chatID, noHistoryText, "")
		return
	}
	top, err := b.history.TopTracksSince(ctx, b.now().AddDate(0, 0, -7), 10)
	if err != nil {
		b.log.WithError(err).Error("load top tracks")
		b.reply(chatID, noHistoryText, "")
		return
	}
	if len(top) == 0 {
		b.reply(chatID, noTopText, "")
		return
	}
	var sb strings.Builder
	sb.WriteString("🔥 Most downloaded this week:")
	for i, tc := range top {
		fmt.Fprintf(&sb, "\n%d. %s — %s (%d)", i+1, tc.TrackName, tc.ArtistName, tc.Count)
	}
	b.reply(chatID, sb.String(), "")
}

// reply sends a plain message, logging failures.
func (b *Bot) reply(chatID int64, text, parseMode string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	if _, err := b.api.Send(msg); err != nil {
		b.log.WithError(err).WithField("chat_id", chatID).Warn("send message")
	}
}

func (b *Bot) typing(chatID int64) {
	b.chatAction(chatID, tgbotapi.ChatTyping)
}

func (b *Bot) chatAction(chatID int64, action string) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, action)); err != nil {
		b.log.WithError(err).WithField("chat_id", chatID).Debug("send chat action")
	}
}

// deleteMessage removes a message and forgets it in the session.
func (b *Bot) deleteMessage(chatID int64, msgID int) {
	if msgID == 0 {
		return
	}
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, msgID)); err != nil {
		b.log.WithError(err).WithFields(logrus.Fields{"chat_id": chatID, "message_id": msgID}).Debug("delete message")
	}
	b.sessions.ForgetMessage(chatID, msgID)
}

// expire schedules deletion of a result message after ResultTTL.
func (b *Bot) expire(chatID int64, msgID int) {
	if b.opts.ResultTTL <= 0 || msgID == 0 {
		return
	}
	time.AfterFunc(b.opts.ResultTTL, func() { b.deleteMessage(chatID, msgID) })
}
