// Package bot implements the Telegram side of the tracker: the command loop
// that keeps the subscriber registry up to date, and message delivery.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"seat_tracker/internal/config"
	"seat_tracker/internal/registry"
	"seat_tracker/internal/status"
)

const (
	longPollTimeout = 30 // seconds
	clientTimeout   = 40 * time.Second
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// Bot handles subscriber commands and sends alerts.
type Bot struct {
	api      telegramAPI
	registry *registry.Registry
	status   *status.Tracker
	cfg      *config.Config
	log      *slog.Logger
	backoff  time.Duration

	// offset is the next update ID to request. Only Run touches it.
	offset int
}

// New creates a Bot for cfg.TelegramBotToken.
func New(cfg *config.Config, reg *registry.Registry, st *status.Tracker, log *slog.Logger) (*Bot, error) {
	client := &http.Client{Timeout: clientTimeout}
	api, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramBotToken, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:      api,
		registry: reg,
		status:   st,
		cfg:      cfg,
		log:      log,
		backoff:  cfg.PollBackoff,
	}, nil
}

// Run long-polls Telegram for updates until ctx is cancelled.
// Transport errors are logged and retried after the backoff delay.
func (b *Bot) Run(ctx context.Context) {
	for ctx.Err() == nil {
		if err := b.poll(); err != nil {
			b.log.Error("get updates", "offset", b.offset, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(b.backoff):
			}
		}
	}
}

func (b *Bot) poll() error {
	u := tgbotapi.NewUpdate(b.offset)
	u.Timeout = longPollTimeout
	u.AllowedUpdates = []string{"message", "callback_query"}

	updates, err := b.api.GetUpdates(u)
	if err != nil {
		return err
	}

	next := b.offset
	for _, update := range updates {
		b.handleUpdate(update)
		if update.UpdateID >= next {
			next = update.UpdateID + 1
		}
	}
	b.offset = next
	return nil
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
		return
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Chat.ID == 0 {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	b.dispatchCommand(msg.Chat.ID, ParseCommand(text))
}

func (b *Bot) dispatchCommand(chatID int64, cmd Command) {
	if cmd == CommandUnknown {
		return
	}
	if !b.cfg.IsUserAllowed(chatID) {
		b.reply(chatID, msgAccessDenied)
		return
	}
	b.log.Info("command", "cmd", cmd.String(), "chat_id", chatID)
	b.handleCommand(chatID, cmd)
}

// SendMessage sends a Markdown message to the chat with the given ID.
func (b *Bot) SendMessage(chatID, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}
	if _, err := b.api.Send(newMessage(id, text)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(newMessage(chatID, text))
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", msg.ChatID, "error", err)
	}
}

func newMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	return msg
}
