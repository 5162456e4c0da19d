package telegram

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-card-counter/internal/application"
	"telegram-card-counter/internal/infra/logging"
	"telegram-card-counter/internal/infra/metrics"
	"telegram-card-counter/internal/infra/worker"
)

// RateLimiter caps commands per chat. Implemented by the Redis limiter.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// EditSubmitter delays edited posts. Implemented by sched.EditDebouncer.
type EditSubmitter interface {
	Submit(chatID int64, messageID int, fn func(ctx context.Context))
}

// RealTelegramBotAdapter polls updates and delegates to BotFacade.
type RealTelegramBotAdapter struct {
	client  *BotClient
	facade  *application.BotFacade
	edits   EditSubmitter
	pool    *worker.Pool
	limiter RateLimiter // optional
	limit   int
	log     *zerolog.Logger
}

func NewRealTelegramBotAdapter(
	client *BotClient,
	facade *application.BotFacade,
	edits EditSubmitter,
	pool *worker.Pool,
	limiter RateLimiter,
	limit int,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if client == nil {
		return nil, errors.New("bot client is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	if edits == nil {
		return nil, errors.New("edit debouncer is nil")
	}
	if pool == nil {
		return nil, errors.New("worker pool is nil")
	}
	if limit <= 0 {
		limiter = nil
	}
	l := logger.With().Str("component", "TelegramAdapter").Logger()
	return &RealTelegramBotAdapter{
		client:  client,
		facade:  facade,
		edits:   edits,
		pool:    pool,
		limiter: limiter,
		limit:   limit,
		log:     &l,
	}, nil
}

// StartPolling long-polls Telegram and hands each update to the worker pool.
// Updates of one chat go to the same worker, so they are handled in the order
// Telegram sent them. It returns when ctx is cancelled.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.client.api.GetUpdatesChan(u)
	defer r.client.api.StopReceivingUpdates()

	r.log.Info().Msg("polling started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("polling stopped")
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			err := r.pool.SubmitKeyed(ctx, updateChatID(up), func(ctx context.Context) error {
				return r.handleUpdate(ctx, up)
			})
			if err != nil && ctx.Err() == nil {
				r.log.Error().Err(err).Int("update_id", up.UpdateID).Msg("update dropped")
			}
		}
	}
}

// updateChatID is the ordering key of an update; updates without a chat share key 0.
func updateChatID(up tgbotapi.Update) int64 {
	if c := up.FromChat(); c != nil {
		return c.ID
	}
	return 0
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.EditedChannelPost != nil:
		metrics.IncTelegramUpdate("edited_channel_post")
		r.handleEditedPost(update.EditedChannelPost)
		return nil
	case update.Message != nil:
		metrics.IncTelegramUpdate("message")
		return r.handleMessage(ctx, update.Message)
	case update.ChannelPost != nil:
		metrics.IncTelegramUpdate("channel_post")
		return r.handleMessage(ctx, update.ChannelPost)
	default:
		metrics.IncTelegramUpdate("other")
		return nil
	}
}

func (r *RealTelegramBotAdapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.Chat == nil {
		return nil
	}
	chatID := msg.Chat.ID
	ctx = logging.WithChatID(ctx, chatID)

	if len(msg.NewChatMembers) > 0 {
		for _, m := range msg.NewChatMembers {
			if m.ID == r.client.self.ID {
				return r.client.SendMessage(ctx, chatID, r.facade.HandleBotAdded(ctx, chatID))
			}
		}
		return nil
	}

	if msg.IsCommand() {
		if h, ok := r.commandRoutes()[msg.Command()]; ok {
			return r.runCommand(ctx, msg, h)
		}
	}

	if msg.Text == "" {
		return nil
	}
	return r.countAndReply(ctx, chatID, msg.Text)
}

// handleEditedPost recounts an edited channel post once the edits settle.
func (r *RealTelegramBotAdapter) handleEditedPost(msg *tgbotapi.Message) {
	if msg.Chat == nil || msg.Text == "" {
		return
	}
	chatID, text := msg.Chat.ID, msg.Text
	r.edits.Submit(chatID, msg.MessageID, func(ctx context.Context) {
		ctx = logging.WithChatID(ctx, chatID)
		if err := r.countAndReply(ctx, chatID, text); err != nil {
			r.log.Error().Err(err).Int64("chat_id", chatID).Int("message_id", msg.MessageID).Msg("edited post failed")
		}
	})
}

func (r *RealTelegramBotAdapter) countAndReply(ctx context.Context, chatID int64, text string) error {
	reply, err := r.facade.HandleText(ctx, chatID, text)
	if err != nil {
		return err
	}
	if reply == "" {
		return nil
	}
	return r.client.SendMessage(ctx, chatID, reply)
}
