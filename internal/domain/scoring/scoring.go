// Package scoring turns signal observations into ranked per-scholar risk
// scores using a tiered recency decay.
//
// Everything here is pure: "today" is always passed in by the caller and
// inputs are never modified.
package scoring

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/groupscholar/cohort-early-warning/internal/domain/model"
)

// Recency tiers. Upper bounds are inclusive.
const (
	freshMaxDays  = 7
	recentMaxDays = 30
	agingMaxDays  = 60

	freshWeight  = 1.0
	recentWeight = 0.7
	agingWeight  = 0.4
	staleWeight  = 0.2

	minWindowDays = 1
)

// MaxWindowDays is the widest window honoured, roughly a thousand years.
// Larger requests are clamped so the cutoff stays a four digit year.
const MaxWindowDays = 365000

// RecencyWeight maps the age of a signal in days to its decay multiplier.
// Negative ages (signals dated after today) fall into the freshest tier.
func RecencyWeight(daysAgo int) float64 {
	switch {
	case daysAgo <= freshMaxDays:
		return freshWeight
	case daysAgo <= recentMaxDays:
		return recentWeight
	case daysAgo <= agingMaxDays:
		return agingWeight
	default:
		return staleWeight
	}
}

// WindowDays clamps a requested window to [1, MaxWindowDays].
func WindowDays(sinceDays int) int {
	return min(max(sinceDays, minWindowDays), MaxWindowDays)
}

// CutoffDate returns the earliest occurrence date still counted for a window
// of sinceDays ending at today.
func CutoffDate(sinceDays int, today time.Time) time.Time {
	return model.AddDays(today, -WindowDays(sinceDays))
}

// ScoreSignals folds signals on or after the cutoff into one score per
// scholar and returns them ranked by score.
//
// Ranking is score descending, then contact identifier ascending, then
// scholar id ascending. NaN scores rank after every number.
func ScoreSignals(signals []model.SignalRecord, sinceDays int, today time.Time) []model.ScholarScore {
	today = model.DateOf(today)
	cutoff := CutoffDate(sinceDays, today)
	book := newScoreBook(len(signals))

	for i := range signals {
		signal := &signals[i]
		if model.DateOf(signal.OccurredAt).Before(cutoff) {
			continue
		}
		weight := RecencyWeight(model.DaysBetween(signal.OccurredAt, today))
		entry := book.entry(signal)
		entry.score.Score += float64(signal.Severity) * weight
		entry.score.SignalCount++
	}

	return book.ranked()
}

// scoreBook maps a scholar id to its running accumulator.
type scoreBook struct {
	entries map[uuid.UUID]*accumulator
}

type accumulator struct {
	id    uuid.UUID
	score model.ScholarScore
}

func newScoreBook(sizeHint int) *scoreBook {
	return &scoreBook{entries: make(map[uuid.UUID]*accumulator, sizeHint)}
}

// entry returns the accumulator for the signal's scholar, creating it from
// the signal's scholar fields on first sight.
func (b *scoreBook) entry(signal *model.SignalRecord) *accumulator {
	if acc, ok := b.entries[signal.ScholarID]; ok {
		return acc
	}
	acc := &accumulator{
		id: signal.ScholarID,
		score: model.ScholarScore{
			ScholarName:  signal.ScholarName,
			ScholarEmail: signal.ScholarEmail,
			Cohort:       signal.Cohort,
		},
	}
	b.entries[signal.ScholarID] = acc
	return acc
}

func (b *scoreBook) ranked() []model.ScholarScore {
	accs := make([]*accumulator, 0, len(b.entries))
	for _, acc := range b.entries {
		accs = append(accs, acc)
	}
	slices.SortFunc(accs, compareAccumulators)

	out := make([]model.ScholarScore, len(accs))
	for i, acc := range accs {
		out[i] = acc.score
	}
	return out
}

func compareAccumulators(a, b *accumulator) int {
	// cmp.Compare orders NaN before every number, so reversing the operands
	// puts NaN last in a descending ranking.
	if c := cmp.Compare(b.score.Score, a.score.Score); c != 0 {
		return c
	}
	if c := strings.Compare(a.score.ScholarEmail, b.score.ScholarEmail); c != 0 {
		return c
	}
	return strings.Compare(a.id.String(), b.id.String())
}
