package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(cardsCountedTotal, messagesSkippedTotal, reportsSentTotal, editsDebouncedTotal)
}

var (
	cardsCountedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cards_counted_total",
			Help: "Card symbols added to chat tallies, by suit.",
		},
		[]string{"suit"},
	)

	messagesSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_skipped_total",
			Help: "Messages that did not change a tally, by reason.",
		},
		[]string{"reason"}, // no_confirmation, duplicate, no_group, no_cards
	)

	reportsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auto_reports_total",
			Help: "Automatic reports, labeled by status.",
		},
		[]string{"status"}, // sent, failed, skipped
	)

	editsDebouncedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edited_posts_total",
			Help: "Edited channel posts, by outcome.",
		},
		[]string{"outcome"}, // scheduled, replaced, processed, cancelled
	)
)

func AddCards(suit string, n int) {
	cardsCountedTotal.WithLabelValues(norm(suit)).Add(float64(n))
}

func IncSkipped(reason string) {
	messagesSkippedTotal.WithLabelValues(norm(reason)).Inc()
}

func IncReport(status string) {
	reportsSentTotal.WithLabelValues(norm(status)).Inc()
}

func IncEdit(outcome string) {
	editsDebouncedTotal.WithLabelValues(norm(outcome)).Inc()
}
