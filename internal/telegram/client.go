// Package telegram delivers rendered dictation messages to a Telegram chat.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/dictant/internal/logger"
)

// DefaultTimeout bounds a single sendMessage call when none is configured.
const DefaultTimeout = 10 * time.Second

// ErrNotConfigured is returned when the bot token or chat id is missing.
var ErrNotConfigured = errors.New("telegram delivery is not configured")

// Delivery describes a message accepted by Telegram.
type Delivery struct {
	MessageID int
	ChatID    int64
	SentAt    time.Time
}

// Client posts HTML messages to a single chat.
type Client struct {
	api     *bot.Bot
	chatID  any
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a delivery client. Missing credentials do not fail here: the
// resulting client reports ErrNotConfigured from Send. Extra bot options are
// applied after the defaults, so tests can point the client at a fake server.
func New(token, chatID string, timeout time.Duration, log *slog.Logger, opts ...bot.Option) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		chatID:  ParseChatID(chatID),
		timeout: timeout,
		logger:  log.With("component", "telegram"),
	}

	token = strings.TrimSpace(token)
	if token == "" || c.chatID == nil {
		c.logger.Warn("Telegram credentials missing, delivery disabled")
		return c, nil
	}

	defaults := []bot.Option{
		bot.WithSkipGetMe(),
		bot.WithHTTPClient(timeout, &http.Client{Timeout: timeout}),
	}
	api, err := bot.New(token, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	c.api = api

	c.logger.Debug("Telegram client ready", "token", logger.Truncate(token, 11), "chat_id", c.chatID)
	return c, nil
}

// Configured reports whether Send can reach Telegram at all.
func (c *Client) Configured() bool {
	return c != nil && c.api != nil
}

// Send posts text with HTML parse mode to the configured chat.
func (c *Client) Send(ctx context.Context, text string) (Delivery, error) {
	if !c.Configured() {
		return Delivery{}, ErrNotConfigured
	}

	sendCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.DebugContext(ctx, "Sending message", "chat_id", c.chatID, "length", len(text))
	msg, err := c.api.SendMessage(sendCtx, &bot.SendMessageParams{
		ChatID:    c.chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return Delivery{}, fmt.Errorf("failed to send message: %w", err)
	}
	if msg == nil {
		return Delivery{}, fmt.Errorf("failed to send message: empty response")
	}

	d := Delivery{
		MessageID: msg.ID,
		ChatID:    msg.Chat.ID,
		SentAt:    time.Now(),
	}
	c.logger.InfoContext(ctx, "Message delivered", "message_id", d.MessageID, "chat_id", d.ChatID)
	return d, nil
}

// ParseChatID converts a configured chat id into the form Telegram expects:
// numeric ids become int64, anything else (an @channel name) stays a string.
// It returns nil for an empty id.
func ParseChatID(raw string) any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return id
	}
	return raw
}
