package parser

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ActionKind represents a player action
type ActionKind int

const (
	ActionUndefined ActionKind = iota
	ActionBet
	ActionRaise
	ActionCheck
	ActionFold
	ActionCall
)

func (k ActionKind) String() string {
	switch k {
	case ActionBet:
		return "bet"
	case ActionRaise:
		return "raise"
	case ActionCheck:
		return "check"
	case ActionFold:
		return "fold"
	case ActionCall:
		return "call"
	default:
		return "undefined"
	}
}

func (k ActionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ActionKind) UnmarshalText(b []byte) error {
	*k = ParseActionKind(string(b))
	return nil
}

// ParseActionKind maps a verb as written in the export ("calls", "raise", ...)
// to an ActionKind. Unknown verbs yield ActionUndefined.
func ParseActionKind(verb string) ActionKind {
	switch verb {
	case "bets", "bet":
		return ActionBet
	case "raises", "raise":
		return ActionRaise
	case "checks", "check":
		return ActionCheck
	case "folds", "fold":
		return ActionFold
	case "calls", "call":
		return ActionCall
	default:
		return ActionUndefined
	}
}

// Street represents the betting round
type Street int

const (
	StreetPreflop Street = iota
	StreetFlop
	StreetTurn
	StreetRiver
)

func (s Street) String() string {
	switch s {
	case StreetPreflop:
		return "preflop"
	case StreetFlop:
		return "flop"
	case StreetTurn:
		return "turn"
	case StreetRiver:
		return "river"
	default:
		return "unknown"
	}
}

// Streets lists the betting rounds in play order.
var Streets = []Street{StreetPreflop, StreetFlop, StreetTurn, StreetRiver}

// Action is a single decision taken by the player sitting at Position.
// Raise amounts are the total raised to, not the increment.
type Action struct {
	Position Position
	Kind     ActionKind
	Amount   decimal.Decimal
}

// NewAction builds an Action from an integer amount.
func NewAction(pos Position, kind ActionKind, amount int64) Action {
	return Action{Position: pos, Kind: kind, Amount: decimal.NewFromInt(amount)}
}

// Equal compares all fields; amounts compare numerically so 20 equals 20.00.
func (a Action) Equal(b Action) bool {
	return a.Position == b.Position && a.Kind == b.Kind && a.Amount.Equal(b.Amount)
}

func (a Action) String() string {
	switch a.Kind {
	case ActionCheck, ActionFold:
		return fmt.Sprintf("%s %s", a.Position, a.Kind)
	default:
		return fmt.Sprintf("%s %s %s", a.Position, a.Kind, a.Amount.String())
	}
}

// ActionsEqual reports whether two action lists hold equal actions in the same order.
func ActionsEqual(a, b []Action) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
