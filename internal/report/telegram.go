package report

import (
	"fmt"

	"extractor-engine/internal/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram pushes a compact end-of-run summary to a chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram report: init bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) WriteReport(m metrics.RunMetrics) error {
	text := fmt.Sprintf(
		"<b>Extraction run %s</b>\n"+
			"Candidate: %s\n"+
			"Found: %d | Saved: %d | Dup: %d | Failed: %d\n"+
			"Pages: %d | Scrolls: %d | Errors: %d",
		m.RunID,
		m.CandidateID,
		m.JobsFound, m.JobsSaved, m.SkippedDuplicate, m.FailedToSave,
		m.PagesVisited, m.ScrollAttempts, len(m.Errors),
	)
	return t.send(text)
}

// Notify sends a short progress line (used for live item_saved events).
func (t *Telegram) Notify(text string) error {
	return t.send(text)
}

func (t *Telegram) send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "HTML"
	_, err := t.bot.Send(msg)
	return err
}
