package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-card-counter/internal/domain/ports/adapter"
	"telegram-card-counter/internal/infra/metrics"
)

// botAPI is the part of *tgbotapi.BotAPI the adapter relies on.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

var _ adapter.Messenger = (*BotClient)(nil)

// BotClient is the outbound side of the bot.
type BotClient struct {
	api  botAPI
	self tgbotapi.User
	log  *zerolog.Logger
}

// NewBotClient authenticates with getMe. An invalid token fails here, before
// any polling starts.
func NewBotClient(token string, logger *zerolog.Logger) (*BotClient, error) {
	if token == "" {
		return nil, errors.New("telegram token is empty")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	l := logger.With().Str("component", "BotClient").Logger()
	l.Info().Str("username", api.Self.UserName).Int64("bot_id", api.Self.ID).Msg("authorized on telegram")
	return &BotClient{api: api, self: api.Self, log: &l}, nil
}

// Self is the bot's own account.
func (c *BotClient) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		metrics.IncSendError()
		return fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return nil
}

func (c *BotClient) SendDocument(ctx context.Context, chatID int64, doc adapter.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: doc.Name, Bytes: doc.Data})
	cfg.Caption = doc.Caption
	if _, err := c.api.Send(cfg); err != nil {
		metrics.IncSendError()
		return fmt.Errorf("send document to %d: %w", chatID, err)
	}
	return nil
}

// SetCommands publishes the command menu shown by Telegram clients.
func (c *BotClient) SetCommands(ctx context.Context, descriptions map[string]string) error {
	names := make([]string, 0, len(descriptions))
	for name := range descriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	cmds := make([]tgbotapi.BotCommand, 0, len(names))
	for _, name := range names {
		cmds = append(cmds, tgbotapi.BotCommand{Command: name, Description: descriptions[name]})
	}
	_, err := c.api.Request(tgbotapi.NewSetMyCommands(cmds...))
	return err
}
