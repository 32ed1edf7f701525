package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/raykavin/dexscout/pkg/core"
	"github.com/raykavin/dexscout/pkg/logger"
	tb "gopkg.in/tucnak/telebot.v2"
)

var ErrNoIdentity = errors.New("telegram bot identity unknown")

// chat addresses a channel, group or user by id or @username
type chat string

func (c chat) Recipient() string {
	return string(c)
}

// Telegram delivers Markdown messages through the Bot API
type Telegram struct {
	client *tb.Bot
	log    logger.Logger
}

type telegramConfig struct {
	apiURL  string
	timeout time.Duration
	log     logger.Logger
}

// TelegramOption configures a Telegram notifier
type TelegramOption func(*telegramConfig)

// WithAPIURL points the bot at another Bot API server
func WithAPIURL(url string) TelegramOption {
	return func(c *telegramConfig) {
		c.apiURL = url
	}
}

// WithRequestTimeout bounds every Bot API call
func WithRequestTimeout(timeout time.Duration) TelegramOption {
	return func(c *telegramConfig) {
		c.timeout = timeout
	}
}

// WithLogger sets the notifier logger
func WithLogger(log logger.Logger) TelegramOption {
	return func(c *telegramConfig) {
		c.log = log
	}
}

// NewTelegram creates the notifier. The token is checked against getMe, so an invalid
// token fails here.
func NewTelegram(token string, options ...TelegramOption) (*Telegram, error) {
	config := telegramConfig{
		timeout: 30 * time.Second,
		log:     logger.Nop{},
	}
	for _, option := range options {
		option(&config)
	}

	client, err := tb.NewBot(tb.Settings{
		URL:       config.apiURL,
		Token:     token,
		ParseMode: tb.ModeMarkdown,
		Client:    &http.Client{Timeout: config.timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Telegram{client: client, log: config.log}, nil
}

// Start confirms the bot identity resolved at construction
func (t *Telegram) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if t.client.Me == nil || t.client.Me.Username == "" {
		return ErrNoIdentity
	}

	t.log.WithField("bot", "@"+t.client.Me.Username).Info("telegram bot ready")
	return nil
}

// Send posts text to chatID with link previews enabled
func (t *Telegram) Send(ctx context.Context, chatID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := t.client.Send(chat(chatID), text, &tb.SendOptions{ParseMode: tb.ModeMarkdown})
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	return nil
}

var _ core.NotifierWithStart = (*Telegram)(nil)
