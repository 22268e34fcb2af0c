package parser

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// HandText is the raw text of one hand inside an export file.
type HandText struct {
	Text string
	// StartOffset and EndOffset are byte offsets relative to the reader start.
	// EndOffset points just past the last line belonging to the hand.
	StartOffset int64
	EndOffset   int64
	StartLine   int
	// Terminated is set once the hand's SUMMARY section has been followed by a
	// blank line or by the next hand. An unterminated hand may still be growing.
	Terminated bool
}

// ErrStopScan may be returned by a ScanHands callback to end the scan early
// without an error.
var ErrStopScan = errors.New("stop scan")

var summaryMarker = "*** " + SectionSummary + " ***"

// ScanHands splits an export holding many hands into one HandText per hand.
// A hand starts at a line beginning with the product name. fn is called in
// file order; the last hand is reported even when unterminated.
func ScanHands(r io.Reader, fn func(HandText) error) error {
	br := bufio.NewReaderSize(r, 64*1024)

	var (
		cur        strings.Builder
		inHand     bool
		hand       HandText
		sawSummary bool
		offset     int64
		lineNo     int
	)

	flush := func(terminated bool) error {
		if !inHand {
			return nil
		}
		hand.Text = cur.String()
		hand.Terminated = terminated
		inHand = false
		cur.Reset()
		return fn(hand)
	}

	for {
		raw, err := br.ReadString('\n')
		if len(raw) > 0 {
			lineNo++
			start := offset
			offset += int64(len(raw))
			line := strings.TrimRight(raw, "\r\n")
			if lineNo == 1 {
				line = strings.TrimPrefix(line, "\ufeff")
			}

			switch {
			case strings.HasPrefix(line, productName):
				if ferr := flush(true); ferr != nil {
					return stopErr(ferr)
				}
				inHand = true
				sawSummary = false
				hand = HandText{StartOffset: start, StartLine: lineNo}
				cur.WriteString(line)
				cur.WriteByte('\n')
				hand.EndOffset = offset
			case !inHand:
			case strings.TrimSpace(line) == "":
				if sawSummary {
					if ferr := flush(true); ferr != nil {
						return stopErr(ferr)
					}
				}
			default:
				if strings.HasPrefix(line, summaryMarker) {
					sawSummary = true
				}
				cur.WriteString(line)
				cur.WriteByte('\n')
				hand.EndOffset = offset
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	return stopErr(flush(false))
}

func stopErr(err error) error {
	if errors.Is(err, ErrStopScan) {
		return nil
	}
	return err
}
