// Package report summarizes signals by category and renders the cohort early
// warning report as markdown text.
package report

import (
	"cmp"
	"slices"
	"strings"

	"github.com/groupscholar/cohort-early-warning/internal/domain/model"
)

type typeTally struct {
	count         int
	severityTotal int64
}

// SummarizeByType groups signals by category label and returns one summary
// per label, ordered by count descending and then label ascending.
func SummarizeByType(signals []model.SignalRecord) []model.SignalTypeSummary {
	tallies := make(map[string]*typeTally)
	for i := range signals {
		t, ok := tallies[signals[i].SignalType]
		if !ok {
			t = &typeTally{}
			tallies[signals[i].SignalType] = t
		}
		t.count++
		t.severityTotal += int64(signals[i].Severity)
	}

	summaries := make([]model.SignalTypeSummary, 0, len(tallies))
	for signalType, t := range tallies {
		summaries = append(summaries, model.SignalTypeSummary{
			SignalType:  signalType,
			Count:       t.count,
			AvgSeverity: float64(t.severityTotal) / float64(t.count),
		})
	}

	slices.SortFunc(summaries, func(a, b model.SignalTypeSummary) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.SignalType, b.SignalType)
	})
	return summaries
}
