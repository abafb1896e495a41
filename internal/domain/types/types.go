// Package types contains the JSON shapes returned by the HTTP API.
package types

import "github.com/groupscholar/cohort-early-warning/internal/domain/model"

// ScoreEntry is one ranked scholar.
type ScoreEntry struct {
	Rank         int     `json:"rank"`
	ScholarName  string  `json:"scholar_name"`
	ScholarEmail string  `json:"scholar_email"`
	Cohort       string  `json:"cohort"`
	Score        float64 `json:"score"`
	SignalCount  int     `json:"signal_count"`
}

// SignalMixEntry is one signal category summary.
type SignalMixEntry struct {
	SignalType  string  `json:"signal_type"`
	Count       int     `json:"count"`
	AvgSeverity float64 `json:"avg_severity"`
}

// ScoreEntries ranks scores from 1, keeping at most limit entries.
// A limit <= 0 keeps all of them.
func ScoreEntries(scores []model.ScholarScore, limit int) []ScoreEntry {
	if limit <= 0 || limit > len(scores) {
		limit = len(scores)
	}
	entries := make([]ScoreEntry, limit)
	for i, s := range scores[:limit] {
		entries[i] = ScoreEntry{
			Rank:         i + 1,
			ScholarName:  s.ScholarName,
			ScholarEmail: s.ScholarEmail,
			Cohort:       s.Cohort,
			Score:        s.Score,
			SignalCount:  s.SignalCount,
		}
	}
	return entries
}

// SignalMixEntries converts type summaries for the API.
func SignalMixEntries(summaries []model.SignalTypeSummary) []SignalMixEntry {
	entries := make([]SignalMixEntry, len(summaries))
	for i, s := range summaries {
		entries[i] = SignalMixEntry{SignalType: s.SignalType, Count: s.Count, AvgSeverity: s.AvgSeverity}
	}
	return entries
}
