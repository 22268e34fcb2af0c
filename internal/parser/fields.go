package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrLocaleAmount is returned for amounts written with a comma separator
// ("1,000" or "0,50"). They are rejected instead of guessed.
var ErrLocaleAmount = errors.New("locale formatted amount")

// amountPattern matches one amount token with an optional currency prefix.
// Commas are captured so they can be rejected explicitly.
const amountPattern = `[€$£]?[0-9][0-9.,]*`

// chatMarker separates a pseudo from a chat message: `name said, "..."`.
const chatMarker = ` said, "`

var (
	reHandID       = regexp.MustCompile(`Hand #([0-9]+):`)
	reTournamentID = regexp.MustCompile(`Tournament #([0-9]+),`)
	reBlinds       = regexp.MustCompile(`\((` + amountPattern + `)/(` + amountPattern + `)(?: [A-Z]{3})?\)`)
	reBuyIn        = regexp.MustCompile(`(` + amountPattern + `(?:\+` + amountPattern + `)+)`)
	reDateHour     = regexp.MustCompile(`(\d{4}/\d{2}/\d{2}) (\d{1,2}:\d{2}:\d{2})`)
	reGameFormat   = regexp.MustCompile(`((?:Hold'em|Omaha(?: Hi/Lo)?|7 Card Stud|Razz) (?:No Limit|Pot Limit|Limit))`)

	reTableName   = regexp.MustCompile(`Table '([^']+)'`)
	reTableSize   = regexp.MustCompile(`([0-9]+)-max`)
	reButtonSeat  = regexp.MustCompile(`Seat #([0-9]+)`)
	reAnte        = regexp.MustCompile(`: posts the ante (` + amountPattern + `)`)
	reSeatLine    = regexp.MustCompile(`^Seat ([0-9]+): (.+) \((` + amountPattern + `) in chips`)
	reDealtTo     = regexp.MustCompile(`^Dealt to (.+?) \[([^\]]*)\]`)
	reActionLine  = regexp.MustCompile(`^(.+?): ([a-z]+)(.*)$`)
	reLeadAmount  = regexp.MustCompile(`^ (` + amountPattern + `)`)
	reRaiseTo     = regexp.MustCompile(` to (` + amountPattern + `)`)
	reUncalled    = regexp.MustCompile(`^Uncalled bet \((` + amountPattern + `)\) returned to (.+)$`)
	reBracket     = regexp.MustCompile(`\[([^\]]*)\]`)
	reShows       = regexp.MustCompile(`^(.+?): shows \[([^\]]*)\]`)
	reSummarySeat = regexp.MustCompile(`^Seat ([0-9]+): `)
	reShowedCards = regexp.MustCompile(` (?:showed|mucked) \[([^\]]*)\]`)
	reWon         = regexp.MustCompile(` (?:won|collected) \((` + amountPattern + `)\)`)
	reTotalPot    = regexp.MustCompile(`^Total pot (` + amountPattern + `)`)
	rePotRake     = regexp.MustCompile(`\| Rake (` + amountPattern + `)`)
)

// parseAmount converts one amount token into a decimal, dropping a currency prefix.
func parseAmount(tok string) (decimal.Decimal, error) {
	tok = strings.TrimLeft(strings.TrimSpace(tok), "€$£")
	tok = strings.TrimRight(tok, ".")
	if strings.Contains(tok, ",") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrLocaleAmount, tok)
	}
	d, err := decimal.NewFromString(tok)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", tok, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative amount %q", tok)
	}
	return d, nil
}

// matchInt returns the first capture of re in line as an int64.
func matchInt(re *regexp.Regexp, line string) (int64, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// matchString returns the first capture of re in line.
func matchString(re *regexp.Regexp, line string) (string, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// matchAmount returns the first capture of re in line as an amount. A capture
// that fails to convert is reported through err with ok set.
func matchAmount(re *regexp.Regexp, line string) (d decimal.Decimal, ok bool, err error) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return decimal.Zero, false, nil
	}
	d, err = parseAmount(m[1])
	return d, true, err
}

// matchBlinds extracts the "(sb/bb)" pair.
func matchBlinds(line string) (sb, bb decimal.Decimal, ok bool, err error) {
	m := reBlinds.FindStringSubmatch(line)
	if m == nil {
		return decimal.Zero, decimal.Zero, false, nil
	}
	if sb, err = parseAmount(m[1]); err != nil {
		return decimal.Zero, decimal.Zero, true, err
	}
	if bb, err = parseAmount(m[2]); err != nil {
		return decimal.Zero, decimal.Zero, true, err
	}
	return sb, bb, true, nil
}

// matchBuyIn extracts "a+b[+c]". The buy-in is the sum of all parts and the
// rake is the last part.
func matchBuyIn(line string) (buyIn, rake decimal.Decimal, ok bool, err error) {
	m := reBuyIn.FindStringSubmatch(line)
	if m == nil {
		return decimal.Zero, decimal.Zero, false, nil
	}
	total := decimal.Zero
	var last decimal.Decimal
	for _, part := range strings.Split(m[1], "+") {
		d, err := parseAmount(part)
		if err != nil {
			return decimal.Zero, decimal.Zero, true, err
		}
		total = total.Add(d)
		last = d
	}
	return total, last, true, nil
}

// matchDateHour returns the first "YYYY/MM/DD HH:MM:SS" pair of the line.
func matchDateHour(line string) (date, hour string, ok bool) {
	m := reDateHour.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

type seatLine struct {
	seat   int
	pseudo string
	stack  decimal.Decimal
}

func matchSeatLine(line string) (seatLine, bool, error) {
	m := reSeatLine.FindStringSubmatch(line)
	if m == nil {
		return seatLine{}, false, nil
	}
	seat, err := strconv.Atoi(m[1])
	if err != nil {
		return seatLine{}, false, nil
	}
	stack, err := parseAmount(m[3])
	if err != nil {
		return seatLine{seat: seat, pseudo: m[2]}, true, err
	}
	return seatLine{seat: seat, pseudo: m[2], stack: stack}, true, nil
}

type actionLine struct {
	pseudo string
	kind   ActionKind
	amount decimal.Decimal
}

// matchAction reads "<pseudo>: <verb> ...". Check and fold carry no amount,
// call and bet take the token after the verb, raise takes the token after "to".
// Lines with an unknown verb or a missing amount do not match, nor do chat
// lines, whose message may itself look like an action.
func matchAction(line string) (actionLine, bool, error) {
	if strings.Contains(line, chatMarker) {
		return actionLine{}, false, nil
	}
	m := reActionLine.FindStringSubmatch(line)
	if m == nil {
		return actionLine{}, false, nil
	}
	kind := ParseActionKind(m[2])
	rest := m[3]
	out := actionLine{pseudo: m[1], kind: kind, amount: decimal.Zero}

	var re *regexp.Regexp
	switch kind {
	case ActionCheck, ActionFold:
		return out, true, nil
	case ActionCall, ActionBet:
		re = reLeadAmount
	case ActionRaise:
		re = reRaiseTo
	default:
		return actionLine{}, false, nil
	}

	amount, ok, err := matchAmount(re, rest)
	if !ok {
		return actionLine{}, false, nil
	}
	if err != nil {
		return actionLine{}, false, err
	}
	out.amount = amount
	return out, true, nil
}

// splitLines breaks section text into lines without trailing carriage returns.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}
