package parser

import "regexp"

// Section names as they appear between "***" markers.
const (
	SectionHeader    = "HEADER"
	SectionHoleCards = "HOLE CARDS"
	SectionFlop      = "FLOP"
	SectionTurn      = "TURN"
	SectionRiver     = "RIVER"
	SectionShowDown  = "SHOW DOWN"
	SectionSummary   = "SUMMARY"
)

var reSectionMarker = regexp.MustCompile(`\*\*\* ([A-Z- ]+) \*\*\*`)

var knownSections = map[string]bool{
	SectionHoleCards: true,
	SectionFlop:      true,
	SectionTurn:      true,
	SectionRiver:     true,
	SectionShowDown:  true,
	SectionSummary:   true,
}

// Sections maps a section name to its raw text. Absent sections have no key.
type Sections map[string]string

// Get returns the text of a section and whether it was present.
func (s Sections) Get(name string) (string, bool) {
	text, ok := s[name]
	return text, ok
}

// SplitSections partitions one hand's text on "*** NAME ***" markers. Text
// before the first marker is the HEADER section; each marker's text runs up to
// the next marker or the end of input. An empty input yields no sections.
func SplitSections(text string) Sections {
	sections, _ := splitSections(text)
	return sections
}

func splitSections(text string) (Sections, []HandAnomaly) {
	sections := make(Sections)
	var anomalies []HandAnomaly

	locs := reSectionMarker.FindAllStringSubmatchIndex(text, -1)
	headerEnd := len(text)
	if len(locs) > 0 {
		headerEnd = locs[0][0]
	}
	if headerEnd > 0 {
		sections[SectionHeader] = text[:headerEnd]
	}

	for i, loc := range locs {
		name := text[loc[2]:loc[3]]
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if _, dup := sections[name]; dup {
			anomalies = append(anomalies, newAnomaly(AnomalyDuplicateSection, SeverityWarn, "section %q repeated", name))
			continue
		}
		if !knownSections[name] {
			anomalies = append(anomalies, newAnomaly(AnomalyUnknownSection, SeverityInfo, "section %q not handled", name))
		}
		sections[name] = text[loc[1]:end]
	}
	return sections, anomalies
}
