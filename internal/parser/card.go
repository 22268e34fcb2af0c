package parser

import "strings"

// Suit is the colour of a card. The zero value is SuitUndefined.
type Suit int

const (
	SuitUndefined Suit = iota
	SuitHearts
	SuitClubs
	SuitSpades
	SuitDiamonds
)

func (s Suit) String() string {
	switch s {
	case SuitHearts:
		return "h"
	case SuitClubs:
		return "c"
	case SuitSpades:
		return "s"
	case SuitDiamonds:
		return "d"
	default:
		return "?"
	}
}

// Rank is the face value of a card. The zero value is RankUndefined.
type Rank int

const (
	RankUndefined Rank = iota
	RankTwo
	RankThree
	RankFour
	RankFive
	RankSix
	RankSeven
	RankEight
	RankNine
	RankTen
	RankJack
	RankQueen
	RankKing
	RankAce
)

func (r Rank) String() string {
	switch {
	case r >= RankTwo && r <= RankNine:
		return string(rune('0' + int(r) + 1))
	case r == RankTen:
		return "T"
	case r == RankJack:
		return "J"
	case r == RankQueen:
		return "Q"
	case r == RankKing:
		return "K"
	case r == RankAce:
		return "A"
	default:
		return "?"
	}
}

// Value returns the numeric strength of the rank (2..14, ace high), 0 when undefined.
func (r Rank) Value() int {
	if r == RankUndefined {
		return 0
	}
	return int(r) + 1
}

// Card represents a playing card. Cards compare with ==.
type Card struct {
	Rank Rank
	Suit Suit
}

// UnknownCard is the placeholder used for hole cards never observed in the text.
var UnknownCard = Card{}

func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// Known reports whether both rank and suit were recognised.
func (c Card) Known() bool {
	return c.Rank != RankUndefined && c.Suit != SuitUndefined
}

func (c Card) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Card) UnmarshalText(b []byte) error {
	*c = ParseCard(string(b))
	return nil
}

// ParseSuit maps a single suit character to a Suit. Unknown input yields SuitUndefined.
func ParseSuit(s string) Suit {
	switch s {
	case "h":
		return SuitHearts
	case "c":
		return SuitClubs
	case "s":
		return SuitSpades
	case "d":
		return SuitDiamonds
	default:
		return SuitUndefined
	}
}

// ParseRank maps a rank token ("2".."9", "T" or "10", "J", "Q", "K", "A") to a Rank.
// Unknown input yields RankUndefined.
func ParseRank(s string) Rank {
	switch s {
	case "2", "3", "4", "5", "6", "7", "8", "9":
		return Rank(int(s[0]-'0') - 1)
	case "T", "10":
		return RankTen
	case "J":
		return RankJack
	case "Q":
		return RankQueen
	case "K":
		return RankKing
	case "A":
		return RankAce
	default:
		return RankUndefined
	}
}

// ParseCard transcodes a card token such as "Th" or "2s". It never fails:
// unrecognised parts stay undefined.
func ParseCard(s string) Card {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Card{}
	}
	return Card{
		Rank: ParseRank(s[:len(s)-1]),
		Suit: ParseSuit(s[len(s)-1:]),
	}
}

// ParseCards transcodes a space separated card group ("Th Ac 8h").
func ParseCards(s string) []Card {
	fields := strings.Fields(s)
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		cards = append(cards, ParseCard(f))
	}
	return cards
}

// unknownPair is the default hole-card pair for seats never observed.
func unknownPair() []Card {
	return []Card{UnknownCard, UnknownCard}
}
