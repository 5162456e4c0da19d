package model

// Counts is a per-chat tally of suits. Missing suits read as zero.
type Counts map[Suit]int

// Get returns the tally for s.
func (c Counts) Get(s Suit) int {
	if c == nil {
		return 0
	}
	return c[s]
}

// Total sums every suit.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// IsZero reports whether no suit has a positive tally.
func (c Counts) IsZero() bool {
	for _, v := range c {
		if v > 0 {
			return false
		}
	}
	return true
}

// Add merges other into c and returns c.
func (c Counts) Add(other Counts) Counts {
	for s, v := range other {
		c[s] += v
	}
	return c
}

// Clone returns a copy holding an entry for every suit.
func (c Counts) Clone() Counts {
	out := make(Counts, len(Suits))
	for _, s := range Suits {
		out[s] = c.Get(s)
	}
	return out
}

// ChatCounts pairs a chat with its tally.
type ChatCounts struct {
	ChatID int64  `json:"chat_id"`
	Counts Counts `json:"counts"`
	Total  int    `json:"total"`
}
