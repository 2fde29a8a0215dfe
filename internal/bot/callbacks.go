package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Inline keyboard buttons carry "cmd:/<command>" as callback data.
const callbackPrefix = "cmd:"

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	data, ok := strings.CutPrefix(cb.Data, callbackPrefix)
	if !ok {
		return
	}

	b.dispatchCommand(cb.Message.Chat.ID, ParseCommand(data))
}
