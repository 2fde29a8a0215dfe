package bot

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"seat_tracker/internal/model"
)

func (b *Bot) handleCommand(chatID int64, cmd Command) {
	switch cmd {
	case CommandStart:
		b.handleStart(chatID)
	case CommandHelp:
		b.reply(chatID, commandList)
	case CommandBoth, CommandUni, CommandHome:
		pref, _ := cmd.Preference()
		b.handlePreference(chatID, pref)
	case CommandStatus:
		b.handleStatus(chatID)
	case CommandStop:
		b.handleStop(chatID)
	}
}

// handleStart (re)subscribes the chat. Re-subscribing resets the preference.
func (b *Bot) handleStart(chatID int64) {
	b.registry.Upsert(subscriberID(chatID), model.PreferenceBoth)

	msg := newMessage(chatID, FormatWelcome(chatID))
	msg.ReplyMarkup = preferenceKeyboard()
	b.send(msg)
}

// handlePreference only updates chats that already sent /start.
func (b *Bot) handlePreference(chatID int64, pref model.Preference) {
	if !b.registry.SetPreference(subscriberID(chatID), pref) {
		b.reply(chatID, msgNotSubscribed)
		return
	}
	b.reply(chatID, FormatPreferenceSet(pref))
}

func (b *Bot) handleStatus(chatID int64) {
	b.reply(chatID, FormatStatus(b.status.Snapshot(), b.registry.Count()))
}

func (b *Bot) handleStop(chatID int64) {
	b.registry.Remove(subscriberID(chatID))
	b.reply(chatID, msgStopped)
}

func preferenceKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Both", callbackPrefix+"/both"),
			tgbotapi.NewInlineKeyboardButtonData("@UNI", callbackPrefix+"/uni"),
			tgbotapi.NewInlineKeyboardButtonData("@HOME", callbackPrefix+"/home"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Status", callbackPrefix+"/status"),
		),
	)
}

func subscriberID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
