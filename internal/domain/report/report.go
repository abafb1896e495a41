package report

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/groupscholar/cohort-early-warning/internal/domain/model"
	"github.com/groupscholar/cohort-early-warning/internal/domain/scoring"
)

// Section truncation limits.
const (
	DefaultTopScholars = 10
	DefaultRecentNotes = 5
)

// AllCohortsLabel is the scope shown when no cohort or contact filter applies.
const AllCohortsLabel = "all cohorts"

// Section headings. Downstream tooling parses these.
const (
	titleHeading    = "# Cohort Early Warning Report"
	mixHeading      = "## Signal Mix"
	riskHeading     = "## Highest Risk Scholars"
	notesHeading    = "## Recent Signal Notes"
	trendHeading    = "## Weekly Signal Trend"
	noSignalsLine   = "No signals recorded for this window."
	noScholarsLine  = "No scholars with signals in this window."
	noTrendDataLine = "No weekly trend data available for this window."
)

// BuildReport renders the early warning report for the given scope.
//
// An empty scope renders as "all cohorts". Risk scores are recomputed from
// signals against the day the window ends, cutoff + WindowDays(sinceDays), so
// callers must pass the same sinceDays and cutoff they fetched signals with.
// Trends are rendered in the order supplied.
func BuildReport(scope string, sinceDays int, cutoff time.Time, signals []model.SignalRecord, trends []model.SignalTrend) string {
	if scope == "" {
		scope = AllCohortsLabel
	}
	windowEnd := model.AddDays(cutoff, scoring.WindowDays(sinceDays))

	var b strings.Builder
	fmt.Fprintln(&b, titleHeading)
	fmt.Fprintf(&b, "Generated for %s (signals since %s)\n", scope, model.FormatDate(cutoff))

	writeSignalMix(&b, SummarizeByType(signals))
	writeHighestRisk(&b, scoring.ScoreSignals(signals, sinceDays, windowEnd))
	writeRecentNotes(&b, signals)
	writeWeeklyTrend(&b, trends)

	return b.String()
}

func writeSection(b *strings.Builder, heading string) {
	fmt.Fprintln(b)
	fmt.Fprintln(b, heading)
}

func writeSignalMix(b *strings.Builder, summaries []model.SignalTypeSummary) {
	writeSection(b, mixHeading)
	if len(summaries) == 0 {
		fmt.Fprintln(b, noSignalsLine)
		return
	}
	for _, s := range summaries {
		fmt.Fprintf(b, "- %s: %d signals (avg severity %.1f)\n", s.SignalType, s.Count, s.AvgSeverity)
	}
}

func writeHighestRisk(b *strings.Builder, scores []model.ScholarScore) {
	writeSection(b, riskHeading)
	if len(scores) == 0 {
		fmt.Fprintln(b, noScholarsLine)
		return
	}
	for _, s := range scores[:min(len(scores), DefaultTopScholars)] {
		fmt.Fprintln(b, FormatScoreLine(s))
	}
}

func writeRecentNotes(b *strings.Builder, signals []model.SignalRecord) {
	writeSection(b, notesHeading)
	if len(signals) == 0 {
		fmt.Fprintln(b, noSignalsLine)
		return
	}
	for _, s := range MostRecent(signals, DefaultRecentNotes) {
		fmt.Fprintf(b, "- %s (%s) on %s: %s\n", s.ScholarName, s.SignalType, model.FormatDate(s.OccurredAt), s.Note)
	}
}

func writeWeeklyTrend(b *strings.Builder, trends []model.SignalTrend) {
	writeSection(b, trendHeading)
	if len(trends) == 0 {
		fmt.Fprintln(b, noTrendDataLine)
		return
	}
	for _, t := range trends {
		fmt.Fprintf(b, "- Week of %s: %d signals across %d scholars (avg severity %.2f)\n",
			model.FormatDate(t.WeekStart), t.SignalCount, t.ScholarCount, t.AvgSeverity)
	}
}

// FormatScoreLine renders one ranked scholar the way the report and the
// score command print it.
func FormatScoreLine(s model.ScholarScore) string {
	return fmt.Sprintf("- %s (%s, %s) score %.2f across %d signals",
		s.ScholarName, s.ScholarEmail, s.Cohort, s.Score, s.SignalCount)
}

// MostRecent returns up to n signals ordered by occurrence date, newest
// first. Signals on the same date keep their input order.
func MostRecent(signals []model.SignalRecord, n int) []model.SignalRecord {
	recent := slices.Clone(signals)
	slices.SortStableFunc(recent, func(a, b model.SignalRecord) int {
		return b.OccurredAt.Compare(a.OccurredAt)
	})
	return recent[:min(len(recent), max(n, 0))]
}
