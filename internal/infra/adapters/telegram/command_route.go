package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-card-counter/internal/infra/logging"
	"telegram-card-counter/internal/infra/metrics"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":   r.handleStartCommand,
		"help":    r.handleStartCommand,
		"reset":   r.handleResetCommand,
		"time":    r.handleTimeCommand,
		"deposer": r.handleDeposerCommand,
	}
}

// runCommand applies the per-chat rate limit, then runs h.
func (r *RealTelegramBotAdapter) runCommand(ctx context.Context, msg *tgbotapi.Message, h commandHandler) error {
	defer logging.TraceDuration(r.log, "TelegramAdapter."+msg.Command())()
	metrics.IncTelegramCommand("/" + msg.Command())

	if r.limiter != nil {
		allowed, err := r.limiter.Allow(ctx, ChatCommandKey(msg.Chat.ID, msg.Command()), r.limit, time.Minute)
		if err != nil {
			r.log.Warn().Err(err).Msg("rate limiter unavailable")
		} else if !allowed {
			metrics.IncRateLimitTriggered()
			return r.client.SendMessage(ctx, msg.Chat.ID, r.facade.RateLimitedReply())
		}
	}
	return h(ctx, msg)
}

// ChatCommandKey is the rate limit bucket of one command in one chat.
func ChatCommandKey(chatID int64, command string) string {
	return fmt.Sprintf("rate_limit:%d:%s", chatID, command)
}

func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.client.SendMessage(ctx, message.Chat.ID, r.facade.HandleStart(ctx, message.Chat.ID))
}

func (r *RealTelegramBotAdapter) handleResetCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleReset(ctx, message.Chat.ID)
	if err != nil {
		r.log.Error().Err(err).Int64("chat_id", message.Chat.ID).Msg("reset failed")
		if text == "" {
			text = r.facade.ErrorReply()
		}
	}
	return r.client.SendMessage(ctx, message.Chat.ID, text)
}

func (r *RealTelegramBotAdapter) handleTimeCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleTime(ctx, message.Chat.ID, message.CommandArguments())
	if err != nil {
		r.log.Error().Err(err).Int64("chat_id", message.Chat.ID).Msg("time command failed")
		text = r.facade.ErrorReply()
	}
	return r.client.SendMessage(ctx, message.Chat.ID, text)
}

func (r *RealTelegramBotAdapter) handleDeposerCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.facade.HandleDeploy(ctx, message.Chat.ID)
}
