package parser

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// productName starts the first line of every hand in the export.
const productName = "PokerStars"

// headerInfo holds what the HEADER section states about the hand and table.
// Fields that could not be read keep their zero value.
type headerInfo struct {
	HandID      int64
	GameID      int64
	SmallBlind  decimal.Decimal
	BigBlind    decimal.Decimal
	Ante        decimal.Decimal
	BuyIn       decimal.Decimal
	Rake        decimal.Decimal
	GameFormat  string
	Date        string
	Hour        string
	TableName   string
	TableSize   int
	ButtonSeat  int
	PlayerCount int
}

func extractHeader(text string) (headerInfo, []HandAnomaly) {
	h := headerInfo{}
	var anomalies []HandAnomaly
	amountIssue := func(field string, err error) {
		if errors.Is(err, ErrLocaleAmount) {
			anomalies = append(anomalies, newAnomaly(AnomalyLocaleAmount, SeverityWarn, "%s: %v", field, err))
		}
	}

	sawProduct := false
	for _, line := range splitLines(text) {
		line = strings.TrimPrefix(line, "\ufeff")
		switch {
		case strings.HasPrefix(line, productName):
			sawProduct = true
			if v, ok := matchInt(reHandID, line); ok {
				h.HandID = v
			}
			if v, ok := matchInt(reTournamentID, line); ok {
				h.GameID = v
			}
			if sb, bb, ok, err := matchBlinds(line); ok {
				if err != nil {
					amountIssue("blinds", err)
				} else {
					h.SmallBlind, h.BigBlind = sb, bb
				}
			}
			if buyIn, rake, ok, err := matchBuyIn(line); ok {
				if err != nil {
					amountIssue("buy-in", err)
				} else {
					h.BuyIn, h.Rake = buyIn, rake
				}
			}
			if date, hour, ok := matchDateHour(line); ok {
				h.Date, h.Hour = date, hour
			}
			if v, ok := matchString(reGameFormat, line); ok {
				h.GameFormat = v
			}
		case strings.HasPrefix(line, "Table"):
			if v, ok := matchString(reTableName, line); ok {
				h.TableName = v
			}
			if v, ok := matchInt(reTableSize, line); ok {
				h.TableSize = int(v)
			}
			if v, ok := matchInt(reButtonSeat, line); ok {
				h.ButtonSeat = int(v)
			}
		case strings.HasPrefix(line, "Seat"):
			h.PlayerCount++
		default:
			if ante, ok, err := matchAmount(reAnte, line); ok {
				if err != nil {
					amountIssue("ante", err)
				} else if ante.GreaterThan(h.Ante) {
					h.Ante = ante
				}
			}
		}
	}

	if sawProduct && h.HandID == 0 {
		anomalies = append(anomalies, newAnomaly(AnomalyMissingHandID, SeverityWarn, "hand id not found in header"))
	}
	return h, anomalies
}
