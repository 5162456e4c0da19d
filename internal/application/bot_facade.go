package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"telegram-card-counter/internal/domain"
	"telegram-card-counter/internal/domain/ports/adapter"
	"telegram-card-counter/internal/infra/i18n"
	"telegram-card-counter/internal/infra/metrics"
	"telegram-card-counter/internal/usecase"

	"github.com/rs/zerolog"
)

// ReportJob sends one report for a chat. The scheduler calls it every interval.
type ReportJob = func(ctx context.Context, chatID int64) error

// ReportScheduler runs one periodic report per chat.
type ReportScheduler interface {
	Schedule(chatID int64, every time.Duration, job ReportJob)
	Stop(chatID int64) bool
}

// EditCanceller drops pending edited posts of a chat.
type EditCanceller interface {
	CancelChat(chatID int64) int
}

// Options are the presentation settings of the facade.
type Options struct {
	DisplayStyle int
	MinMinutes   int
	MaxMinutes   int
	Location     *time.Location
}

// BotFacade composes usecases into high-level bot commands.
// Methods return the reply text so the Telegram adapter just forwards it to the chat;
// an empty string means nothing to send.
type BotFacade struct {
	Counting usecase.CountingUseCase
	Status   usecase.StatusUseCase
	Deploy   usecase.DeployUseCase
	Reports  ReportScheduler
	Edits    EditCanceller

	messenger adapter.Messenger
	tr        *i18n.Translator
	opts      Options
	now       func() time.Time
	log       *zerolog.Logger
}

func NewBotFacade(
	counting usecase.CountingUseCase,
	status usecase.StatusUseCase,
	deploy usecase.DeployUseCase,
	reports ReportScheduler,
	edits EditCanceller,
	messenger adapter.Messenger,
	tr *i18n.Translator,
	opts Options,
	logger *zerolog.Logger,
) *BotFacade {
	if opts.Location == nil {
		opts.Location = time.FixedZone("UTC+1", 3600)
	}
	if opts.MinMinutes <= 0 {
		opts.MinMinutes = 5
	}
	if opts.MaxMinutes < opts.MinMinutes {
		opts.MaxMinutes = 32
	}
	return &BotFacade{
		Counting:  counting,
		Status:    status,
		Deploy:    deploy,
		Reports:   reports,
		Edits:     edits,
		messenger: messenger,
		tr:        tr,
		opts:      opts,
		now:       time.Now,
		log:       logger,
	}
}

// HandleStart returns the help text.
func (b *BotFacade) HandleStart(ctx context.Context, chatID int64) string {
	b.record(ctx, true, "Commande /start reçue", nil)
	return b.tr.T("welcome_message", b.opts.MinMinutes, b.opts.MaxMinutes)
}

// HandleBotAdded greets a chat the bot was just added to.
func (b *BotFacade) HandleBotAdded(ctx context.Context, chatID int64) string {
	b.log.Info().Int64("chat_id", chatID).Msg("bot added to chat")
	b.record(ctx, true, fmt.Sprintf("Ajouté au chat %d", chatID), nil)
	return b.tr.T("bot_added_message", b.opts.MinMinutes, b.opts.MaxMinutes)
}

// HandleReset stops the chat's report, drops its pending edits and clears its tally
// and processed numbers. Other chats are untouched. On a store error the
// returned text is still meant for the chat.
func (b *BotFacade) HandleReset(ctx context.Context, chatID int64) (string, error) {
	if b.Reports != nil {
		b.Reports.Stop(chatID)
	}
	if b.Edits != nil {
		if n := b.Edits.CancelChat(chatID); n > 0 {
			b.log.Debug().Int64("chat_id", chatID).Int("edits", n).Msg("pending edits cancelled")
		}
	}
	if err := b.Counting.Reset(ctx, chatID); err != nil {
		// the schedule is already gone; say so instead of a generic error
		return b.tr.T("reset_failed"), fmt.Errorf("reset chat %d: %w", chatID, err)
	}
	b.record(ctx, true, fmt.Sprintf("Reset du chat %d", chatID), nil)
	return b.tr.T("reset_done"), nil
}

// HandleTime configures the automatic report of a chat. args is the raw
// command argument; anything that is not a number shows the usage.
func (b *BotFacade) HandleTime(ctx context.Context, chatID int64, args string) (string, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return b.tr.T("time_usage", b.opts.MinMinutes, b.opts.MaxMinutes), nil
	}
	if !isDigits(fields[0]) {
		return b.tr.T("time_usage", b.opts.MinMinutes, b.opts.MaxMinutes), nil
	}
	minutes, err := strconv.Atoi(fields[0])
	if err != nil {
		return b.tr.T("time_usage", b.opts.MinMinutes, b.opts.MaxMinutes), nil
	}
	if minutes < b.opts.MinMinutes || minutes > b.opts.MaxMinutes {
		return b.tr.T("time_out_of_range", b.opts.MinMinutes, b.opts.MaxMinutes, minutes), nil
	}
	if b.Reports == nil {
		return "", fmt.Errorf("%w: report scheduler not available", domain.ErrInvalidArgument)
	}

	b.Reports.Schedule(chatID, time.Duration(minutes)*time.Minute, b.SendReport)
	b.log.Info().Int64("chat_id", chatID).Int("minutes", minutes).Msg("automatic report configured")
	b.record(ctx, true, fmt.Sprintf("Bilan automatique: %d min (chat %d)", minutes, chatID), nil)
	return b.tr.T("time_configured", minutes, minutes), nil
}

// HandleText counts the cards of a message and returns the rendered tally when
// something was counted.
func (b *BotFacade) HandleText(ctx context.Context, chatID int64, text string) (string, error) {
	res, err := b.Counting.ProcessMessage(ctx, chatID, text)
	if err != nil {
		return "", err
	}
	if res.Outcome != usecase.OutcomeCounted {
		return "", nil
	}
	b.record(ctx, true, fmt.Sprintf("%d carte(s) comptée(s) dans le chat %d", res.Found.Total(), chatID), nil)
	return usecase.RenderCounts(b.tr, res.Totals, b.opts.DisplayStyle), nil
}

// HandleDeploy builds the deployment package and sends it to the chat.
// Progress and failures are reported to the chat directly.
func (b *BotFacade) HandleDeploy(ctx context.Context, chatID int64) error {
	if err := b.messenger.SendMessage(ctx, chatID, b.tr.T("deploy_in_progress")); err != nil {
		return err
	}
	pkg, err := b.Deploy.Build(ctx)
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("deploy package failed")
		msg := b.tr.T("deploy_error", err.Error())
		if errors.Is(err, domain.ErrEmptyPackage) {
			msg = b.tr.T("deploy_error", "aucun fichier à empaqueter")
		}
		return b.messenger.SendMessage(ctx, chatID, msg)
	}
	doc := adapter.Document{Name: pkg.Name, Data: pkg.Data, Caption: b.tr.T("deploy_caption")}
	if err := b.messenger.SendDocument(ctx, chatID, doc); err != nil {
		return b.messenger.SendMessage(ctx, chatID, b.tr.T("deploy_error", err.Error()))
	}
	b.record(ctx, true, fmt.Sprintf("Package %s envoyé au chat %d", pkg.Name, chatID), nil)
	return nil
}

// SendReport sends the chat's tally with the local time, then resets the chat.
// The tally is kept when the send fails so the next cycle can retry.
func (b *BotFacade) SendReport(ctx context.Context, chatID int64) error {
	counts, err := b.Counting.Snapshot(ctx, chatID)
	if err != nil {
		metrics.IncReport("failed")
		return fmt.Errorf("snapshot: %w", err)
	}
	text := usecase.RenderReport(b.tr, counts, b.now().In(b.opts.Location))
	if err := b.messenger.SendMessage(ctx, chatID, text); err != nil {
		metrics.IncReport("failed")
		return fmt.Errorf("send report: %w", err)
	}
	if err := b.Counting.Reset(ctx, chatID); err != nil {
		metrics.IncReport("failed")
		return err
	}
	metrics.IncReport("sent")
	b.record(ctx, true, fmt.Sprintf("Bilan envoyé au chat %d", chatID), nil)
	return nil
}

// ErrorReply is the text sent when a handler failed.
func (b *BotFacade) ErrorReply() string { return b.tr.T("error_generic") }

// RateLimitedReply is the text sent when a chat exceeded its command budget.
func (b *BotFacade) RateLimitedReply() string { return b.tr.T("rate_limited") }

// CommandDescriptions lists the bot menu, in the configured language.
func (b *BotFacade) CommandDescriptions() map[string]string {
	return map[string]string{
		"start":   b.tr.T("cmd_start"),
		"reset":   b.tr.T("cmd_reset"),
		"time":    b.tr.T("cmd_time"),
		"deposer": b.tr.T("cmd_deposer"),
	}
}

func (b *BotFacade) record(ctx context.Context, running bool, msg string, cause error) {
	if b.Status == nil {
		return
	}
	_ = b.Status.Record(ctx, running, msg, cause)
}

// isDigits rejects signs, which strconv.Atoi would accept.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
