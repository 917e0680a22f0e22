package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	welcomeText = "🎵 *Welcome to Smart Music Bot!*\n" +
		"Search for songs and download them as MP3.\n\n" +
		"Commands:\n" +
		"/start - Show welcome message\n" +
		"/help - Show usage instructions\n" +
		"/recent - Show your last 5 searches\n" +
		"/top - Most downloaded tracks this week"

	helpText = "📖 *How to use the bot:*\n\n" +
		"1. Send a song name to search.\n" +
		"2. Browse pages of tracks.\n" +
		"3. Click a track button to download that song.\n" +
		"4. Or click \"Download This Page\" to download every song on the current page.\n" +
		"5. Use /recent to see your recent searches.\n\n" +
		"_Please wait between downloads._"

	unknownCommandText = "🤔 Unknown command. Use /help to see what I can do."
	emptyQueryText     = "❗ Please provide a search term."
	noResultsText      = "❌ No results found."
	searchFailedText   = "⚠️ Search failed, the music service did not answer. Please try again later."
	sessionExpiredText = "❗ Session expired. Please search again."
	trackGoneText      = "❗ That track is no longer in your results. Please search again."
	noRecentText       = "😕 You have no recent searches yet."
	noHistoryText      = "😕 Search history is not available."
	noTopText          = "📭 Nothing has been downloaded this week."
	pageDoneText       = "✔️ Finished downloading all songs on this page."
	resultsPromptText  = "📍 *Page %d/%d* · choose a track to download or download the entire page:"
	resultsCaptionText = "🎧 *Results for:* `%s` (Page %d/%d)"
)

// escape quotes user or catalog supplied text for legacy Markdown.
func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// codeSpan makes s safe to place between backticks; legacy Markdown has no
// escape inside code spans.
func codeSpan(s string) string {
	return strings.ReplaceAll(s, "`", "'")
}
