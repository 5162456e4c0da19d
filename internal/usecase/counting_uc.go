package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"telegram-card-counter/internal/domain/model"
	"telegram-card-counter/internal/domain/ports/repository"
	"telegram-card-counter/internal/infra/logging"
	"telegram-card-counter/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ CountingUseCase = (*countingUC)(nil)

// Outcome tells what ProcessMessage did with a message.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeDuplicate
	OutcomeCounted
)

// Skip reasons, also used as metric labels.
const (
	ReasonNoConfirmation = "no_confirmation"
	ReasonDuplicate      = "duplicate"
	ReasonNoGroup        = "no_group"
	ReasonNoCards        = "no_cards"
)

// confirmationMarks must appear somewhere in a message for it to be counted.
var confirmationMarks = []string{"✅", "🔰"}

var (
	numberRe = regexp.MustCompile(`#n(\d+)`)
	groupRe  = regexp.MustCompile(`\(([^()]*)\)`)
)

// CountResult is the outcome of one message.
type CountResult struct {
	Outcome Outcome
	Reason  string
	Number  string       // "#n" marker, empty when absent
	Found   model.Counts // suits found in this message
	Totals  model.Counts // chat tally after the update, set when Counted
}

type CountingUseCase interface {
	ProcessMessage(ctx context.Context, chatID int64, text string) (*CountResult, error)
	Snapshot(ctx context.Context, chatID int64) (model.Counts, error)
	Reset(ctx context.Context, chatID int64) error
	ListChats(ctx context.Context) ([]model.ChatCounts, error)
}

type countingUC struct {
	counters repository.CounterRepository
	log      *zerolog.Logger
}

func NewCountingUseCase(counters repository.CounterRepository, logger *zerolog.Logger) *countingUC {
	return &countingUC{counters: counters, log: logger}
}

// HasConfirmation reports whether text carries ✅ or 🔰.
func HasConfirmation(text string) bool {
	for _, m := range confirmationMarks {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// MessageNumber extracts the digits of the first "#n<digits>" marker, without
// leading zeros. ok is false when there is no marker.
func MessageNumber(text string) (string, bool) {
	m := numberRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	n := strings.TrimLeft(m[1], "0")
	if n == "" {
		n = "0"
	}
	return n, true
}

// FirstGroup returns the content of the first parenthesised group that has no
// nested parentheses.
func FirstGroup(text string) (string, bool) {
	m := groupRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// variationSelector is U+FE0F, the emoji presentation selector. Only glyphs
// followed by it count: "♦️" is a card, a bare "♦" is not.
const variationSelector = '\uFE0F'

// CountSuits tallies suit emojis in content.
func CountSuits(content string) model.Counts {
	counts := model.Counts{}
	runes := []rune(content)
	for i := 0; i+1 < len(runes); i++ {
		if runes[i+1] != variationSelector {
			continue
		}
		if s, ok := model.SuitOf(runes[i]); ok {
			counts[s]++
			i++
		}
	}
	return counts
}

func (c *countingUC) ProcessMessage(ctx context.Context, chatID int64, text string) (*CountResult, error) {
	defer logging.TraceDuration(c.log, "CountingUC.ProcessMessage")()

	res := &CountResult{Outcome: OutcomeSkipped}
	if !HasConfirmation(text) {
		res.Reason = ReasonNoConfirmation
		metrics.IncSkipped(res.Reason)
		return res, nil
	}

	// The number is claimed before the content is inspected: a numbered
	// message without cards still consumes its number.
	if n, ok := MessageNumber(text); ok {
		res.Number = n
		fresh, err := c.counters.MarkProcessed(ctx, chatID, n)
		if err != nil {
			return nil, fmt.Errorf("mark processed: %w", err)
		}
		if !fresh {
			res.Outcome = OutcomeDuplicate
			res.Reason = ReasonDuplicate
			metrics.IncSkipped(res.Reason)
			c.log.Debug().Int64("chat_id", chatID).Str("number", n).Msg("message already processed")
			return res, nil
		}
	}

	content, ok := FirstGroup(text)
	if !ok {
		res.Reason = ReasonNoGroup
		metrics.IncSkipped(res.Reason)
		return res, nil
	}

	found := CountSuits(content)
	if found.IsZero() {
		res.Reason = ReasonNoCards
		metrics.IncSkipped(res.Reason)
		return res, nil
	}
	res.Found = found

	totals, err := c.counters.Add(ctx, chatID, found)
	if err != nil {
		return nil, fmt.Errorf("add counts: %w", err)
	}
	for s, n := range found {
		metrics.AddCards(string(s), n)
	}
	res.Outcome = OutcomeCounted
	res.Totals = totals.Clone()

	c.log.Info().Int64("chat_id", chatID).Interface("found", found).Msg("cards counted")
	return res, nil
}

func (c *countingUC) Snapshot(ctx context.Context, chatID int64) (model.Counts, error) {
	counts, err := c.counters.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return counts.Clone(), nil
}

func (c *countingUC) Reset(ctx context.Context, chatID int64) error {
	if err := c.counters.Reset(ctx, chatID); err != nil {
		return fmt.Errorf("reset chat %d: %w", chatID, err)
	}
	c.log.Info().Int64("chat_id", chatID).Msg("chat counters reset")
	return nil
}

func (c *countingUC) ListChats(ctx context.Context) ([]model.ChatCounts, error) {
	chats, err := c.counters.ListChats(ctx)
	if err != nil {
		return nil, err
	}
	for i := range chats {
		chats[i].Counts = chats[i].Counts.Clone()
		chats[i].Total = chats[i].Counts.Total()
	}
	return chats, nil
}
