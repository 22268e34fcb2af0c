package parser

import (
	"errors"
	"fmt"
	"sort"
)

// Position is a table-relative seat label such as "BTN" or "CO".
type Position string

const (
	PosBTN  Position = "BTN"
	PosSB   Position = "SB"
	PosBB   Position = "BB"
	PosUTG  Position = "UTG"
	PosUTG1 Position = "UTG+1"
	PosUTG2 Position = "UTG+2"
	PosMP1  Position = "MP1"
	PosMP2  Position = "MP2"
	PosMP3  Position = "MP3"
	PosCO   Position = "CO"
)

const (
	MinPlayers = 2
	MaxPlayers = 10
)

// ErrPositionOutOfRange is returned when a seat cannot be mapped to a position
// label for the given player count.
var ErrPositionOutOfRange = errors.New("position out of range")

// positionNames is indexed by player count. Each list starts at the button and
// follows the deal order.
var positionNames = [MaxPlayers + 1][]Position{
	2:  {PosBTN, PosBB},
	3:  {PosBTN, PosSB, PosBB},
	4:  {PosBTN, PosSB, PosBB, PosCO},
	5:  {PosBTN, PosSB, PosBB, PosUTG, PosCO},
	6:  {PosBTN, PosSB, PosBB, PosUTG, PosMP1, PosCO},
	7:  {PosBTN, PosSB, PosBB, PosUTG, PosMP1, PosMP2, PosCO},
	8:  {PosBTN, PosSB, PosBB, PosUTG, PosMP1, PosMP2, PosMP3, PosCO},
	9:  {PosBTN, PosSB, PosBB, PosUTG, PosUTG1, PosMP1, PosMP2, PosMP3, PosCO},
	10: {PosBTN, PosSB, PosBB, PosUTG, PosUTG1, PosUTG2, PosMP1, PosMP2, PosMP3, PosCO},
}

// PositionNames returns the ordered label list for n players, or nil when n is
// outside MinPlayers..MaxPlayers.
func PositionNames(n int) []Position {
	if n < MinPlayers || n > MaxPlayers {
		return nil
	}
	return append([]Position(nil), positionNames[n]...)
}

// PositionFor resolves a seat to its label for an n-handed table whose button
// sits at seat button. Seats are numbered from 1 and the index wraps modulo n.
func PositionFor(n, seat, button int) (Position, error) {
	if n < MinPlayers || n > MaxPlayers {
		return "", fmt.Errorf("%w: %d players", ErrPositionOutOfRange, n)
	}
	if seat < 1 || button < 1 {
		return "", fmt.Errorf("%w: seat %d button %d", ErrPositionOutOfRange, seat, button)
	}
	idx := ((seat-button)%n + n) % n
	return positionNames[n][idx], nil
}

// ValidPosition reports whether p is one of the known labels.
func ValidPosition(p Position) bool {
	for _, name := range positionNames[MaxPlayers] {
		if name == p {
			return true
		}
	}
	return false
}

// assignPositions maps each occupied seat to a label. Seat numbers are first
// compacted to their rank among occupied seats so gaps in the seating do not
// shift labels. When the button seat is empty the nearest occupied seat before
// it takes the button.
func assignPositions(seats []int, button int) (map[int]Position, bool, error) {
	sorted := append([]int(nil), seats...)
	sort.Ints(sorted)

	n := len(sorted)
	if n == 0 {
		return map[int]Position{}, false, nil
	}

	btnOrd := -1
	deadButton := false
	for i, s := range sorted {
		if s == button {
			btnOrd = i
			break
		}
	}
	if btnOrd < 0 {
		deadButton = true
		btnOrd = n - 1
		for i := n - 1; i >= 0; i-- {
			if sorted[i] < button {
				btnOrd = i
				break
			}
		}
	}

	out := make(map[int]Position, n)
	for i, s := range sorted {
		pos, err := PositionFor(n, i+1, btnOrd+1)
		if err != nil {
			return nil, deadButton, fmt.Errorf("seat %d: %w", s, err)
		}
		out[s] = pos
	}
	return out, deadButton, nil
}
