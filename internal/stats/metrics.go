package stats

import "strconv"

type MetricID string

const (
	MetricVPIP           MetricID = "vpip"
	MetricPFR            MetricID = "pfr"
	MetricGap            MetricID = "gap"
	MetricThreeBet       MetricID = "three_bet"
	MetricFoldToThreeBet MetricID = "fold_to_three_bet"
	MetricFlopCBet       MetricID = "flop_cbet"
	MetricWTSD           MetricID = "wtsd"
	MetricWSD            MetricID = "w_sd"
	MetricWWSF           MetricID = "wwsf"
	MetricAFq            MetricID = "afq"
	MetricAF             MetricID = "af"
	MetricWonWithoutSD   MetricID = "won_without_showdown"
	MetricBBPer100       MetricID = "bb_per_100"
)

type MetricSampleClass int

const (
	SampleClassHands MetricSampleClass = iota
	SampleClassSituational
)

type MetricFormat int

const (
	MetricFormatPercent MetricFormat = iota
	MetricFormatRatio
	MetricFormatBBPer100
	MetricFormatDiff
)

type MetricDefinition struct {
	ID          MetricID
	Label       string
	SampleClass MetricSampleClass
	Format      MetricFormat
}

type MetricValue struct {
	ID          MetricID
	Count       int
	Opportunity int
	Rate        float64
	Confident   bool
	MinSample   int
	Format      MetricFormat
}

const (
	handFrequencyThreshold = 200
	situationalThreshold   = 50
)

var metricRegistry = []MetricDefinition{
	{ID: MetricVPIP, Label: "VPIP", SampleClass: SampleClassHands, Format: MetricFormatPercent},
	{ID: MetricPFR, Label: "PFR", SampleClass: SampleClassHands, Format: MetricFormatPercent},
	{ID: MetricGap, Label: "Gap", SampleClass: SampleClassHands, Format: MetricFormatDiff},
	{ID: MetricThreeBet, Label: "3Bet", SampleClass: SampleClassSituational, Format: MetricFormatPercent},
	{ID: MetricFoldToThreeBet, Label: "Fold to 3Bet", SampleClass: SampleClassSituational, Format: MetricFormatPercent},
	{ID: MetricFlopCBet, Label: "Flop CBet", SampleClass: SampleClassSituational, Format: MetricFormatPercent},
	{ID: MetricWTSD, Label: "WTSD", SampleClass: SampleClassSituational, Format: MetricFormatPercent},
	{ID: MetricWSD, Label: "W$SD", SampleClass: SampleClassSituational, Format: MetricFormatPercent},
	{ID: MetricWWSF, Label: "WWSF", SampleClass: SampleClassSituational, Format: MetricFormatPercent},
	{ID: MetricAFq, Label: "AFq", SampleClass: SampleClassSituational, Format: MetricFormatPercent},
	{ID: MetricAF, Label: "AF", SampleClass: SampleClassSituational, Format: MetricFormatRatio},
	{ID: MetricWonWithoutSD, Label: "Won w/o SD", SampleClass: SampleClassHands, Format: MetricFormatPercent},
	{ID: MetricBBPer100, Label: "bb/100", SampleClass: SampleClassHands, Format: MetricFormatBBPer100},
}

// MetricDefinitions returns the registered metrics in display order.
func MetricDefinitions() []MetricDefinition {
	return append([]MetricDefinition(nil), metricRegistry...)
}

func confidenceThreshold(class MetricSampleClass) int {
	if class == SampleClassSituational {
		return situationalThreshold
	}
	return handFrequencyThreshold
}

// Display formats the rate the way its metric is usually read.
func (m MetricValue) Display() string {
	switch m.Format {
	case MetricFormatRatio:
		return strconv.FormatFloat(m.Rate, 'f', 2, 64)
	case MetricFormatBBPer100:
		return strconv.FormatFloat(m.Rate, 'f', 2, 64) + " bb/100"
	case MetricFormatDiff:
		return strconv.FormatFloat(m.Rate, 'f', 1, 64)
	default:
		return strconv.FormatFloat(m.Rate, 'f', 1, 64) + "%"
	}
}
