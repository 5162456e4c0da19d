package usecase

import (
	"fmt"
	"strings"
	"time"

	"telegram-card-counter/internal/domain/model"
	"telegram-card-counter/internal/infra/i18n"
)

const (
	StyleDetailed = 1
	StyleCompact  = 2
)

func suitName(tr *i18n.Translator, s model.Suit) string {
	return tr.T("suit_" + string(s))
}

// RenderCounts formats a chat tally for a reply.
func RenderCounts(tr *i18n.Translator, counts model.Counts, style int) string {
	if style == StyleCompact {
		parts := make([]string, 0, len(model.Suits))
		for _, s := range model.Suits {
			parts = append(parts, fmt.Sprintf("%s %d", s.Symbol(), counts.Get(s)))
		}
		return strings.Join(parts, " | ")
	}

	var b strings.Builder
	b.WriteString(tr.T("counts_header"))
	b.WriteString("\n\n")
	for _, s := range model.Suits {
		b.WriteString(tr.T("counts_line", s.Symbol(), suitName(tr, s), counts.Get(s)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(tr.T("counts_total", counts.Total()))
	return b.String()
}

// RenderReport formats the automatic report sent before a tally is reset.
// at must already be in the report time zone.
func RenderReport(tr *i18n.Translator, counts model.Counts, at time.Time) string {
	var b strings.Builder
	b.WriteString(tr.T("report_header"))
	b.WriteString("\n\n")
	b.WriteString(tr.T("report_time", at.Format("15:04:05")))
	b.WriteString("\n\n")
	for _, s := range model.Suits {
		b.WriteString(tr.T("report_line", s.Symbol(), suitName(tr, s), counts.Get(s)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(tr.T("report_footer"))
	return b.String()
}
