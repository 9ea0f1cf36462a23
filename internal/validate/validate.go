// Package validate grades formulas typed by a user against an answer key.
// It compares text only; computing values is the engine's job.
package validate

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/exp/maps"
	"golang.org/x/text/cases"

	"gridcalc/internal/grid"
)

// Normalize case-folds formula and drops all white space.
func Normalize(formula string) string {
	// a Caser keeps state, so each call gets its own
	folded := cases.Fold().String(formula)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, folded)
}

// IsAccepted reports whether candidate matches one of the accepted formulas
// for cellID once both sides are normalized. cellID only labels the check.
func IsAccepted(cellID, candidate string, accepted []string) bool {
	want := Normalize(candidate)
	if want == "" {
		return false
	}
	for _, a := range accepted {
		if Normalize(a) == want {
			return true
		}
	}
	return false
}

// AnswerKey lists the accepted formulas for each graded cell.
type AnswerKey map[grid.Key][]string

// Report is the outcome of checking a table against an AnswerKey. All
// slices are ordered by row, then column.
type Report struct {
	Passed  []grid.Key
	Failed  []grid.Key
	Missing []grid.Key
}

// Total is the number of graded cells.
func (r Report) Total() int { return len(r.Passed) + len(r.Failed) + len(r.Missing) }

// Check grades every cell named in the key. Empty cells are Missing.
func (k AnswerKey) Check(table grid.Table) Report {
	var rep Report
	keys := maps.Keys(k)
	SortKeys(keys)
	for _, key := range keys {
		cell, ok := table[key]
		switch {
		case !ok || strings.TrimSpace(cell.Text) == "":
			rep.Missing = append(rep.Missing, key)
		case IsAccepted(key.String(), cell.Text, k[key]):
			rep.Passed = append(rep.Passed, key)
		default:
			rep.Failed = append(rep.Failed, key)
		}
	}
	return rep
}

// SortKeys orders keys by row, then column.
func SortKeys(keys []grid.Key) {
	slices.SortFunc(keys, func(a, b grid.Key) int {
		if c := cmp.Compare(a.Row, b.Row); c != 0 {
			return c
		}
		return cmp.Compare(a.Col, b.Col)
	})
}
