package parser

import (
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

// Parser holds the state of one hand while its sections are extracted. Each
// step may be called on its own and tolerates a missing section; Parse runs
// them in order. A Parser must not be shared between goroutines; use one per
// hand.
type Parser struct {
	text     string
	sections Sections

	header  headerInfo
	seats   seating
	cards   map[Position][]Card
	flop    []Card
	turn    []Card
	river   []Card
	actions [4][]Action

	totalPot decimal.Decimal
	potRake  decimal.Decimal
	winnings map[Position]decimal.Decimal
	returned map[Position]decimal.Decimal

	anomalies []HandAnomaly
}

// NewParser prepares a parser for one hand's text.
func NewParser(text string) *Parser {
	return &Parser{
		text:     strings.TrimPrefix(text, "\ufeff"),
		sections: make(Sections),
		seats:    newSeating(),
		cards:    make(map[Position][]Card),
		winnings: make(map[Position]decimal.Decimal),
		returned: make(map[Position]decimal.Decimal),
	}
}

// Parse runs every step on text and assembles the hand. The only error is a
// seat that cannot be resolved to a position.
func Parse(text string) (Hand, error) {
	p := NewParser(text)
	if err := p.Run(); err != nil {
		return Hand{}, err
	}
	return p.Load(), nil
}

// Run executes the steps in their fixed order.
func (p *Parser) Run() error {
	p.ParseSections()
	p.ParseHeader()
	if err := p.ParseSetup(); err != nil {
		return err
	}
	p.ParsePreflop()
	p.ParseFlop()
	p.ParseTurn()
	p.ParseRiver()
	p.ParseShowdown()
	p.ParseSummary()
	p.Conclude()
	return nil
}

// Sections exposes the split input, mainly for diagnostics.
func (p *Parser) Sections() Sections {
	return p.sections
}

// SetSection replaces the text of one section.
func (p *Parser) SetSection(name, text string) {
	p.sections[name] = text
}

func (p *Parser) ParseSections() {
	sections, anomalies := splitSections(p.text)
	p.sections = sections
	p.anomalies = append(p.anomalies, anomalies...)
}

func (p *Parser) ParseHeader() {
	text, ok := p.sections.Get(SectionHeader)
	if !ok {
		slog.Warn("hand has no header section")
		p.anomalies = append(p.anomalies, newAnomaly(AnomalyMissingHeader, SeverityWarn, "no header section"))
		return
	}
	h, anomalies := extractHeader(text)
	p.header = h
	p.anomalies = append(p.anomalies, anomalies...)
}

// ParseSetup resolves the seat lines of the header. It needs ParseHeader to
// have set the player count and button seat.
func (p *Parser) ParseSetup() error {
	text, ok := p.sections.Get(SectionHeader)
	if !ok {
		return nil
	}
	s, anomalies, err := extractSetup(text, p.header.PlayerCount, p.header.ButtonSeat)
	p.anomalies = append(p.anomalies, anomalies...)
	if err != nil {
		return err
	}
	p.seats = s
	return nil
}

func (p *Parser) ParsePreflop() {
	res := p.parseStreet(StreetPreflop, SectionHoleCards)
	for pos, cards := range res.dealt {
		p.cards[pos] = cards
	}
}

func (p *Parser) ParseFlop() {
	p.flop = p.parseStreet(StreetFlop, SectionFlop).board
}

func (p *Parser) ParseTurn() {
	p.turn = p.parseStreet(StreetTurn, SectionTurn).board
}

func (p *Parser) ParseRiver() {
	p.river = p.parseStreet(StreetRiver, SectionRiver).board
}

func (p *Parser) parseStreet(street Street, section string) streetResult {
	text, ok := p.sections.Get(section)
	if !ok {
		return streetResult{}
	}
	res := extractStreet(street, text, p.seats)
	p.actions[street] = res.actions
	for pos, amount := range res.returned {
		p.returned[pos] = p.returned[pos].Add(amount)
	}
	p.anomalies = append(p.anomalies, res.anomalies...)
	return res
}

func (p *Parser) ParseShowdown() {
	text, ok := p.sections.Get(SectionShowDown)
	if !ok {
		return
	}
	shown, anomalies := extractShowdown(text, p.seats)
	p.anomalies = append(p.anomalies, anomalies...)
	for _, r := range shown {
		recordCards(p.cards, r.pos, r.cards)
	}
}

// ParseSummary reads pot size, rake, winnings and cards shown or mucked at the
// end of the hand.
func (p *Parser) ParseSummary() {
	text, ok := p.sections.Get(SectionSummary)
	if !ok {
		return
	}
	sum, anomalies := extractSummary(text, p.seats)
	p.anomalies = append(p.anomalies, anomalies...)
	p.totalPot = sum.totalPot
	p.potRake = sum.rake
	for pos, won := range sum.winnings {
		p.winnings[pos] = won
	}
	for _, r := range sum.shown {
		recordCards(p.cards, r.pos, r.cards)
	}
}

// Conclude gives every seated position exactly two hole cards: seats never
// observed get the unknown pair, partial reveals are padded with UnknownCard.
func (p *Parser) Conclude() {
	for pos := range p.seats.pseudos {
		cards := p.cards[pos]
		switch {
		case len(cards) == 0:
			p.cards[pos] = unknownPair()
		case len(cards) < 2:
			padded := append([]Card(nil), cards...)
			for len(padded) < 2 {
				padded = append(padded, UnknownCard)
			}
			p.cards[pos] = padded
		}
	}
}

// Anomalies returns the problems recorded so far.
func (p *Parser) Anomalies() []HandAnomaly {
	return append([]HandAnomaly(nil), p.anomalies...)
}

// Load assembles the hand record from the accumulated state. Nothing is
// validated here; the returned value shares no memory with the parser.
func (p *Parser) Load() Hand {
	h := Hand{
		HandID:      p.header.HandID,
		GameID:      p.header.GameID,
		TableName:   p.header.TableName,
		TableSize:   p.header.TableSize,
		ButtonSeat:  p.header.ButtonSeat,
		PlayerCount: p.header.PlayerCount,
		GameFormat:  p.header.GameFormat,
		BuyIn:       p.header.BuyIn,
		Rake:        p.header.Rake,
		Date:        p.header.Date,
		Hour:        p.header.Hour,
		SmallBlind:  p.header.SmallBlind,
		BigBlind:    p.header.BigBlind,
		Ante:        p.header.Ante,

		Seats:       make(map[Position]SeatInfo, len(p.seats.pseudos)),
		PseudoSeats: make(map[string]Position, len(p.seats.positions)),

		BoardFlop:  append([]Card(nil), p.flop...),
		BoardTurn:  append([]Card(nil), p.turn...),
		BoardRiver: append([]Card(nil), p.river...),

		ActionsPreflop: append([]Action(nil), p.actions[StreetPreflop]...),
		ActionsFlop:    append([]Action(nil), p.actions[StreetFlop]...),
		ActionsTurn:    append([]Action(nil), p.actions[StreetTurn]...),
		ActionsRiver:   append([]Action(nil), p.actions[StreetRiver]...),

		TotalPot:  p.totalPot,
		PotRake:   p.potRake,
		Winnings:  make(map[Position]decimal.Decimal, len(p.winnings)),
		Returned:  make(map[Position]decimal.Decimal, len(p.returned)),
		Anomalies: append([]HandAnomaly(nil), p.anomalies...),
	}

	for pos, pseudo := range p.seats.pseudos {
		h.Seats[pos] = SeatInfo{
			Seat:   p.seats.seats[pos],
			Pseudo: pseudo,
			Stack:  p.seats.stacks[pos],
			Cards:  append([]Card(nil), p.cards[pos]...),
		}
	}
	for pseudo, pos := range p.seats.positions {
		h.PseudoSeats[pseudo] = pos
	}
	for pos, won := range p.winnings {
		h.Winnings[pos] = won
	}
	for pos, amount := range p.returned {
		h.Returned[pos] = amount
	}
	if pseudo, ok := p.seats.pseudos[PosBTN]; ok {
		h.Dealer = PosBTN
		h.DealerPseudo = pseudo
	}
	return h
}
