package report_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/groupscholar/cohort-early-warning/internal/domain/model"
	"github.com/groupscholar/cohort-early-warning/internal/domain/report"
)

func typedSignal(signalType string, severity int) model.SignalRecord {
	return model.SignalRecord{
		ScholarID:    uuid.New(),
		ScholarName:  "Avery Lee",
		ScholarEmail: "avery@example.com",
		Cohort:       "2026",
		SignalType:   signalType,
		Severity:     severity,
		OccurredAt:   model.Date(2026, time.February, 2),
	}
}

func TestSummarizeByType(t *testing.T) {
	Convey("Given two signals of the same type", t, func() {
		summaries := report.SummarizeByType([]model.SignalRecord{
			typedSignal("attendance", 3),
			typedSignal("attendance", 1),
		})

		Convey("Then they collapse into one summary with the mean severity", func() {
			So(summaries, ShouldHaveLength, 1)
			So(summaries[0].SignalType, ShouldEqual, "attendance")
			So(summaries[0].Count, ShouldEqual, 2)
			So(summaries[0].AvgSeverity, ShouldAlmostEqual, 2.0, 0.01)
		})
	})

	Convey("Given a mix of signal types", t, func() {
		signals := []model.SignalRecord{
			typedSignal("engagement", 2),
			typedSignal("attendance", 3),
			typedSignal("academic", 4),
			typedSignal("attendance", 4),
			typedSignal("engagement", 1),
			typedSignal("attendance", 2),
			typedSignal("wellbeing", 5),
		}
		summaries := report.SummarizeByType(signals)

		Convey("Then summaries are ordered by count and then by label", func() {
			So(summaries, ShouldHaveLength, 4)
			So(summaries[0].SignalType, ShouldEqual, "attendance")
			So(summaries[1].SignalType, ShouldEqual, "engagement")
			So(summaries[2].SignalType, ShouldEqual, "academic")
			So(summaries[3].SignalType, ShouldEqual, "wellbeing")
		})

		Convey("Then counts add up to the number of signals", func() {
			total := 0
			for _, s := range summaries {
				total += s.Count
			}
			So(total, ShouldEqual, len(signals))
		})

		Convey("Then each average is the group mean", func() {
			So(summaries[0].AvgSeverity, ShouldAlmostEqual, 3.0, 1e-9)
			So(summaries[1].AvgSeverity, ShouldAlmostEqual, 1.5, 1e-9)
			So(summaries[2].AvgSeverity, ShouldAlmostEqual, 4.0, 1e-9)
		})

		Convey("Then no label appears twice", func() {
			seen := map[string]bool{}
			for _, s := range summaries {
				So(seen[s.SignalType], ShouldBeFalse)
				seen[s.SignalType] = true
			}
		})
	})

	Convey("Given no signals", t, func() {
		So(report.SummarizeByType(nil), ShouldBeEmpty)
	})
}
