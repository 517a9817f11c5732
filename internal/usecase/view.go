package usecase

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/xavierca1/traction-hub/internal/entity"
)

// FilterAll selects every stage.
const FilterAll = 0

// SortMode selects one of the three display orderings.
type SortMode string

const (
	SortDefault   SortMode = "DEFAULT"   // stage descending
	SortIntensity SortMode = "INTENSITY" // Paid Pilots first, then stage descending
	SortAlpha     SortMode = "ALPHA"     // name ascending, locale-aware
)

// ParseSortMode maps user input to a SortMode. Empty input means DEFAULT.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(s) {
	case SortDefault, SortIntensity, SortAlpha:
		return SortMode(s), nil
	case "":
		return SortDefault, nil
	}
	return "", ErrUnknownSortMode
}

// Derive computes the display list for the given filter and sort mode. It is
// a pure function: the input is never mutated, all sorts are stable (ties
// keep their source order), and identical inputs yield identical orderings.
func Derive(leads []entity.Lead, filterStage int, mode SortMode) []entity.Lead {
	result := make([]entity.Lead, 0, len(leads))
	for _, l := range leads {
		if filterStage == FilterAll || l.Stage == filterStage {
			result = append(result, l)
		}
	}

	switch mode {
	case SortIntensity:
		// Two-way partition: Paid Pilot engagements before everything else,
		// progress within each half.
		sort.SliceStable(result, func(i, j int) bool {
			a, b := result[i], result[j]
			aPilot := a.Type == entity.LeadTypePaidPilot
			bPilot := b.Type == entity.LeadTypePaidPilot
			if aPilot != bPilot {
				return aPilot
			}
			return a.Stage > b.Stage
		})

	case SortAlpha:
		// A fresh collator per call: collators carry internal buffers and
		// Derive must stay safe for concurrent readers.
		c := collate.New(language.English)
		sort.SliceStable(result, func(i, j int) bool {
			return c.CompareString(result[i].Name, result[j].Name) < 0
		})

	default:
		// Progressed leads first.
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].Stage > result[j].Stage
		})
	}

	return result
}
