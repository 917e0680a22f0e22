package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"Smart-Music-Bot/pkg/metrics"
	"Smart-Music-Bot/pkg/music"
	"Smart-Music-Bot/pkg/paging"
	"Smart-Music-Bot/pkg/session"
)

// search runs a catalog query for the chat and shows the first page.
func (b *Bot) search(ctx context.Context, chatID int64, query string) {
	log := b.log.WithFields(logrus.Fields{"chat_id": chatID, "query": query})
	if b.history != nil {
		if err := b.history.AddRecentQuery(ctx, chatID, query); err != nil {
			log.WithError(err).Warn("record recent query")
		}
	}

	tracks, err := b.music.SearchTrack(ctx, query)
	switch {
	case errors.Is(err, music.ErrNoTracks) || (err == nil && len(tracks) == 0):
		b.metrics.Search(metrics.OutcomeEmpty)
		log.Info("search returned no results")
		b.reply(chatID, noResultsText, "")
		return
	case err != nil:
		b.metrics.Search(metrics.OutcomeError)
		log.WithError(err).Error("search failed")
		b.reply(chatID, searchFailedText, "")
		return
	}

	b.metrics.Search(metrics.OutcomeOK)
	log.WithField("results", len(tracks)).Info("search completed")
	sess := b.sessions.Start(chatID, query, tracks)
	b.render(chatID, sess)
}

// render replaces the chat's result messages with the session's current
// page: an optional cover photo followed by the keyboard message.
func (b *Bot) render(chatID int64, sess session.Session) {
	oldResult, oldPhoto := b.sessions.Messages(chatID)
	b.deleteMessage(chatID, oldResult)
	b.deleteMessage(chatID, oldPhoto)

	pages := paging.Count(len(sess.Tracks), b.sessions.PageSize())
	pageTracks, offset := b.sessions.PageTracks(sess)
	if len(pageTracks) == 0 {
		b.reply(chatID, noResultsText, "")
		return
	}

	photoID := 0
	if cover := sess.Tracks[0].CoverURL; cover != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(cover))
		photo.Caption = fmt.Sprintf(resultsCaptionText, codeSpan(sess.Query), sess.Page+1, pages)
		photo.ParseMode = tgbotapi.ModeMarkdown
		if m, err := b.api.Send(photo); err != nil {
			b.log.WithError(err).WithField("chat_id", chatID).Warn("could not send cover photo")
		} else {
			photoID = m.MessageID
		}
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(resultsPromptText, sess.Page+1, pages))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = renderKeyboard(pageTracks, offset, sess.Page, pages)
	m, err := b.api.Send(msg)
	if err != nil {
		b.log.WithError(err).WithField("chat_id", chatID).Error("send result keyboard")
	}
	b.sessions.SetMessages(chatID, m.MessageID, photoID)
	b.expire(chatID, photoID)
	b.expire(chatID, m.MessageID)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.WithError(err).Debug("answer callback")
	}
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	act, idx, err := parseCallback(cb.Data)
	if err != nil {
		b.log.WithError(err).WithField("chat_id", chatID).Warn("ignoring callback")
		return
	}

	switch act {
	case actionPrev, actionNext:
		delta := 1
		if act == actionPrev {
			delta = -1
		}
		sess, ok := b.sessions.Move(chatID, delta)
		if !ok {
			b.reply(chatID, sessionExpiredText, "")
			return
		}
		b.render(chatID, sess)
	case actionTrack:
		b.downloadTrack(ctx, chatID, cb.Message.MessageID, idx)
	case actionDownloadPage:
		b.downloadPage(ctx, chatID, cb.Message.MessageID)
	}
}
