package stats

import "github.com/AkatukiSora/pokertracker/internal/parser"

// PocketCategory classifies a two-card preflop holding.
type PocketCategory int

const (
	PocketPremium         PocketCategory = iota // AA, KK, QQ, AK
	PocketSecondPremium                         // JJ, TT, AQ, AJs, KQ
	PocketPair                                  // any pocket pair
	PocketSuitedConnector                       // suited, one rank apart
	PocketSuitedOneGapper                       // suited, two ranks apart
	PocketSuited                                // any suited holding
	PocketAx                                    // holds an ace
	PocketKx                                    // holds a king
	PocketBroadwayOffsuit                       // two offsuit unpaired cards T-A
	PocketConnector                             // one rank apart, any suit
	pocketCategoryCount
)

// pocket is a holding normalised so hi >= lo (values 2..14).
type pocket struct {
	hi, lo int
	suited bool
}

func (p pocket) pair() bool { return p.hi == p.lo }
func (p pocket) gap() int { return p.hi - p.lo }
func (p pocket) has(v int) bool { return p.hi == v || p.lo == v }
func (p pocket) both(a, b int) bool { return p.hi == a && p.lo == b }

type pocketRule struct {
	code  string
	label string
	match func(pocket) bool
}

// pocketRules is indexed by PocketCategory and is also the display order.
var pocketRules = [pocketCategoryCount]pocketRule{
	PocketPremium: {"premium", "Premium", func(p pocket) bool {
		return (p.pair() && p.hi >= 12) || p.both(14, 13)
	}},
	PocketSecondPremium: {"second_premium", "2nd Premium", func(p pocket) bool {
		return (p.pair() && (p.hi == 11 || p.hi == 10)) ||
			p.both(14, 12) || p.both(13, 12) || (p.suited && p.both(14, 11))
	}},
	PocketPair:            {"pair", "Pocket Pair", pocket.pair},
	PocketSuitedConnector: {"suited_connector", "Suited Connector", func(p pocket) bool { return p.suited && p.gap() == 1 }},
	PocketSuitedOneGapper: {"suited_one_gapper", "Suited 1-Gap", func(p pocket) bool { return p.suited && p.gap() == 2 }},
	PocketSuited:          {"suited", "Suited", func(p pocket) bool { return p.suited }},
	PocketAx:              {"ax", "Ax", func(p pocket) bool { return p.has(14) }},
	PocketKx:              {"kx", "Kx", func(p pocket) bool { return p.has(13) }},
	PocketBroadwayOffsuit: {"broadway_offsuit", "Broadway Offsuit", func(p pocket) bool {
		return !p.suited && !p.pair() && p.lo >= 10
	}},
	PocketConnector: {"connector", "Connector", func(p pocket) bool { return p.gap() == 1 }},
}

// ClassifyPocketHand returns every category the holding belongs to, in
// display order. AKs is both PocketPremium and PocketSuited, for example.
// Unknown cards never classify.
func ClassifyPocketHand(c1, c2 parser.Card) []PocketCategory {
	if !c1.Known() || !c2.Known() {
		return nil
	}
	p := pocket{hi: c1.Rank.Value(), lo: c2.Rank.Value(), suited: c1.Suit == c2.Suit}
	if p.lo > p.hi {
		p.hi, p.lo = p.lo, p.hi
	}

	var cats []PocketCategory
	for cat, rule := range pocketRules {
		if rule.match(p) {
			cats = append(cats, PocketCategory(cat))
		}
	}
	return cats
}

// ComboKey returns the range-grid name of a holding ("AKs", "77", "T9o").
func ComboKey(c1, c2 parser.Card) string {
	if !c1.Known() || !c2.Known() {
		return ""
	}
	hi, lo := c1, c2
	if lo.Rank > hi.Rank {
		hi, lo = lo, hi
	}
	switch {
	case hi.Rank == lo.Rank:
		return hi.Rank.String() + lo.Rank.String()
	case hi.Suit == lo.Suit:
		return hi.Rank.String() + lo.Rank.String() + "s"
	default:
		return hi.Rank.String() + lo.Rank.String() + "o"
	}
}

func (c PocketCategory) valid() bool {
	return c >= 0 && c < pocketCategoryCount
}

// PocketCategoryLabel returns a short display label for a PocketCategory.
func PocketCategoryLabel(c PocketCategory) string {
	if !c.valid() {
		return ""
	}
	return pocketRules[c].label
}

// PocketCategoryCode returns the stable storage code of a PocketCategory.
func PocketCategoryCode(c PocketCategory) string {
	if !c.valid() {
		return ""
	}
	return pocketRules[c].code
}

// AllPocketCategories returns all PocketCategory values in display order.
func AllPocketCategories() []PocketCategory {
	out := make([]PocketCategory, pocketCategoryCount)
	for i := range out {
		out[i] = PocketCategory(i)
	}
	return out
}
