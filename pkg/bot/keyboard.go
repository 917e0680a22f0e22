package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"Smart-Music-Bot/pkg/music"
)

// renderKeyboard builds the result keyboard for one page: a row per track,
// a navigation row when there is somewhere to go and the page download row.
// tracks is the page slice and offset the absolute index of its first item.
// The output depends only on its arguments.
func renderKeyboard(tracks []music.Track, offset, page, pages int) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(tracks)+2)
	for i, t := range tracks {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(t.Label(), trackData(offset+i)),
		))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", dataPrev))
	}
	if page < pages-1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", dataNext))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬇️ Download This Page", dataPage),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
