package model

// Suit is one of the four card suits tallied per chat.
type Suit string

const (
	Clubs    Suit = "clubs"
	Diamonds Suit = "diamonds"
	Spades   Suit = "spades"
	Hearts   Suit = "hearts"
)

// Suits lists every suit in display order.
var Suits = []Suit{Clubs, Diamonds, Spades, Hearts}

// Symbol returns the emoji used when rendering the suit.
func (s Suit) Symbol() string {
	switch s {
	case Clubs:
		return "♣️"
	case Diamonds:
		return "♦️"
	case Spades:
		return "♠️"
	case Hearts:
		return "❤️"
	}
	return "?"
}

// Valid reports whether s names a known suit.
func (s Suit) Valid() bool {
	for _, v := range Suits {
		if v == s {
			return true
		}
	}
	return false
}

// SuitOf maps the base glyph of a suit emoji to its suit. Both the heavy
// heart (U+2764) and the card heart (U+2665) are hearts.
func SuitOf(r rune) (Suit, bool) {
	switch r {
	case '♣':
		return Clubs, true
	case '♦':
		return Diamonds, true
	case '♠':
		return Spades, true
	case '❤', '♥':
		return Hearts, true
	}
	return "", false
}
