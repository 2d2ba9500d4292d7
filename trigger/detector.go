// Package trigger detects the reserved marker that redirects a chat message to the AI gateway.
// Detection is plain substring containment: no word boundary, no anchoring, case sensitive.
package trigger

import (
	"fmt"
	"sort"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

const DefaultMarker = "@ai"

// Detector matches one or more trigger markers in a single pass over the message.
type Detector struct {
	matcher *goahocorasick.Machine
}

// NewDetector builds the Aho-Corasick automaton over the markers.
// The double array trie underneath expects sorted unique keys.
func NewDetector(markers ...string) (*Detector, error) {
	markers = lo.Uniq(lo.Compact(markers))
	sort.Strings(markers)
	patterns := lo.Map(markers, func(marker string, _ int) []rune {
		return []rune(marker)
	})
	if len(patterns) == 0 {
		return nil, fmt.Errorf("at least one trigger marker is required")
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, fmt.Errorf("trigger automaton: %w", err)
	}
	return &Detector{matcher: m}, nil
}

// Extract reports whether the message contains a marker and returns the prompt:
// the message with the first occurrence of a marker removed. Further occurrences
// stay in the prompt verbatim.
func (d *Detector) Extract(message string) (string, bool) {
	runes := []rune(message)
	if len(runes) == 0 {
		return "", false
	}

	terms := d.matcher.MultiPatternSearch(runes, false)
	if len(terms) == 0 {
		return "", false
	}

	// Earliest occurrence wins, the longest marker breaks a tie.
	first := terms[0]
	for _, term := range terms[1:] {
		if term.Pos < first.Pos || (term.Pos == first.Pos && len(term.Word) > len(first.Word)) {
			first = term
		}
	}

	start, end := first.Pos, first.Pos+len(first.Word)
	if start < 0 || end > len(runes) {
		return "", false
	}
	prompt := make([]rune, 0, len(runes)-len(first.Word))
	prompt = append(prompt, runes[:start]...)
	prompt = append(prompt, runes[end:]...)
	return string(prompt), true
}
