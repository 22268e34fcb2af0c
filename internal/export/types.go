package export

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// HandHistory represents a single poker hand encoded in PHH format.
type HandHistory struct {
	Variant           string         `toml:"variant"`
	Table             string         `toml:"table,omitempty"`
	SeatCount         int            `toml:"seat_count,omitempty"`
	Seats             []int          `toml:"seats,omitempty"`
	Antes             []Amount       `toml:"antes"`
	BlindsOrStraddles []Amount       `toml:"blinds_or_straddles"`
	MinBet            Amount         `toml:"min_bet"`
	StartingStacks    []Amount       `toml:"starting_stacks"`
	Winnings          []Amount       `toml:"winnings,omitempty"`
	Actions           []string       `toml:"actions"`
	Players           []string       `toml:"players,omitempty"`
	HandID            string         `toml:"hand"`
	Time              string         `toml:"time,omitempty"`
	Day               int            `toml:"day,omitempty"`
	Month             int            `toml:"month,omitempty"`
	Year              int            `toml:"year,omitempty"`
	Metadata          map[string]any `toml:"metadata,omitempty"`
}

// Amount is a chip or money amount written as a bare TOML number.
// Whole amounts are written as integers.
type Amount struct {
	decimal.Decimal
}

func amountOf(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func (a Amount) MarshalTOML() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a *Amount) UnmarshalTOML(v any) error {
	switch n := v.(type) {
	case int64:
		a.Decimal = decimal.NewFromInt(n)
	case float64:
		a.Decimal = decimal.NewFromFloat(n)
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return fmt.Errorf("phh: amount %q: %w", n, err)
		}
		a.Decimal = d
	default:
		return fmt.Errorf("phh: unsupported amount type %T", v)
	}
	return nil
}
