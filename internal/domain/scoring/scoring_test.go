package scoring_test

import (
	"math"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/groupscholar/cohort-early-warning/internal/domain/model"
	scoring "github.com/groupscholar/cohort-early-warning/internal/domain/scoring"
)

var today = model.Date(2026, time.March, 1)

func signalFor(id uuid.UUID, email string, daysAgo, severity int) model.SignalRecord {
	return model.SignalRecord{
		ScholarID:    id,
		ScholarName:  "Avery Lee",
		ScholarEmail: email,
		Cohort:       "2026",
		SignalType:   "attendance",
		Severity:     severity,
		OccurredAt:   model.AddDays(today, -daysAgo),
		Note:         "missed session",
	}
}

func TestRecencyWeight(t *testing.T) {
	Convey("Given the recency weighter", t, func() {
		Convey("Then the first week is weighted fully", func() {
			So(scoring.RecencyWeight(0), ShouldEqual, 1.0)
			So(scoring.RecencyWeight(2), ShouldEqual, 1.0)
			So(scoring.RecencyWeight(7), ShouldEqual, 1.0)
		})

		Convey("And days 8 through 30 are weighted 0.7", func() {
			So(scoring.RecencyWeight(8), ShouldEqual, 0.7)
			So(scoring.RecencyWeight(15), ShouldEqual, 0.7)
			So(scoring.RecencyWeight(30), ShouldEqual, 0.7)
		})

		Convey("And days 31 through 60 are weighted 0.4", func() {
			So(scoring.RecencyWeight(31), ShouldEqual, 0.4)
			So(scoring.RecencyWeight(40), ShouldEqual, 0.4)
			So(scoring.RecencyWeight(60), ShouldEqual, 0.4)
		})

		Convey("And anything older is weighted 0.2", func() {
			So(scoring.RecencyWeight(61), ShouldEqual, 0.2)
			So(scoring.RecencyWeight(90), ShouldEqual, 0.2)
			So(scoring.RecencyWeight(1000), ShouldEqual, 0.2)
		})

		Convey("And future dated signals are treated as fresh", func() {
			So(scoring.RecencyWeight(-1), ShouldEqual, 1.0)
			So(scoring.RecencyWeight(math.MinInt), ShouldEqual, 1.0)
		})
	})
}

func TestCutoffDate(t *testing.T) {
	Convey("Given a window size", t, func() {
		Convey("When the window is positive", func() {
			So(scoring.CutoffDate(14, today).Equal(model.Date(2026, time.February, 15)), ShouldBeTrue)
		})

		Convey("When the window is zero or negative it is clamped to one day", func() {
			So(scoring.CutoffDate(0, today).Equal(model.Date(2026, time.February, 28)), ShouldBeTrue)
			So(scoring.CutoffDate(-10, today).Equal(model.Date(2026, time.February, 28)), ShouldBeTrue)
		})

		Convey("When the window exceeds the maximum it is clamped", func() {
			floor := model.AddDays(today, -scoring.MaxWindowDays)
			for _, n := range []int{scoring.MaxWindowDays + 1, math.MaxInt32, math.MaxInt} {
				cutoff := scoring.CutoffDate(n, today)
				So(cutoff.Equal(floor), ShouldBeTrue)
				So(cutoff.Before(today), ShouldBeTrue)
				So(model.FormatDate(cutoff), ShouldEqual, "1026-10-30")
			}
		})

		Convey("When today carries a time of day it is ignored", func() {
			noon := time.Date(2026, time.March, 1, 12, 30, 0, 0, time.UTC)
			So(scoring.CutoffDate(1, noon).Equal(model.Date(2026, time.February, 28)), ShouldBeTrue)
		})
	})
}

func TestScoreSignals(t *testing.T) {
	Convey("Given signals for several scholars", t, func() {
		avery := uuid.MustParse("3d7f5d6f-24f7-4e8e-8b4b-3e7e44b4a7b2")
		jules := uuid.MustParse("0c22f1f1-9184-4fd4-9b21-28c68a6a89dc")

		Convey("When one scholar has two signals in different tiers", func() {
			signals := []model.SignalRecord{
				signalFor(avery, "avery@example.com", 3, 3),
				signalFor(avery, "avery@example.com", 12, 2),
			}
			signals[1].SignalType = "engagement"

			scores := scoring.ScoreSignals(signals, 30, today)

			Convey("Then their weighted severities accumulate", func() {
				So(scores, ShouldHaveLength, 1)
				So(scores[0].Score, ShouldAlmostEqual, 3*1.0+2*0.7, 1e-9)
				So(scores[0].SignalCount, ShouldEqual, 2)
				So(scores[0].ScholarEmail, ShouldEqual, "avery@example.com")
				So(scores[0].Cohort, ShouldEqual, "2026")
			})
		})

		Convey("When a signal is older than the window", func() {
			signals := []model.SignalRecord{
				signalFor(avery, "avery@example.com", 2, 2),
				signalFor(jules, "jules@example.com", 90, 5),
			}

			scores := scoring.ScoreSignals(signals, 30, today)

			Convey("Then it is excluded from score and count", func() {
				So(scores, ShouldHaveLength, 1)
				So(scores[0].ScholarEmail, ShouldEqual, "avery@example.com")
				So(scores[0].SignalCount, ShouldEqual, 1)
				So(scores[0].Score, ShouldEqual, 2.0)
			})
		})

		Convey("When a signal falls exactly on the cutoff", func() {
			signals := []model.SignalRecord{
				signalFor(avery, "avery@example.com", 30, 4),
				signalFor(jules, "jules@example.com", 31, 4),
			}

			scores := scoring.ScoreSignals(signals, 30, today)

			Convey("Then the boundary day is included and the day before is not", func() {
				So(scores, ShouldHaveLength, 1)
				So(scores[0].ScholarEmail, ShouldEqual, "avery@example.com")
				So(scores[0].Score, ShouldAlmostEqual, 4*0.7, 1e-9)
			})
		})

		Convey("When the window is zero", func() {
			signals := []model.SignalRecord{
				signalFor(avery, "avery@example.com", 0, 1),
				signalFor(avery, "avery@example.com", 1, 1),
				signalFor(avery, "avery@example.com", 2, 1),
			}

			scores := scoring.ScoreSignals(signals, 0, today)

			Convey("Then it behaves like a one day window", func() {
				So(scores, ShouldHaveLength, 1)
				So(scores[0].SignalCount, ShouldEqual, 2)
			})
		})

		Convey("When the window is absurdly large", func() {
			signals := []model.SignalRecord{signalFor(avery, "avery@example.com", 2, 3)}

			Convey("Then recent signals are still counted", func() {
				for _, n := range []int{math.MaxInt32, math.MaxInt} {
					scores := scoring.ScoreSignals(signals, n, today)
					So(scores, ShouldHaveLength, 1)
					So(scores[0].Score, ShouldEqual, 3.0)
				}
			})
		})

		Convey("When a signal is dated after today", func() {
			signals := []model.SignalRecord{signalFor(avery, "avery@example.com", -5, 3)}

			scores := scoring.ScoreSignals(signals, 30, today)

			Convey("Then it counts at full weight", func() {
				So(scores, ShouldHaveLength, 1)
				So(scores[0].Score, ShouldEqual, 3.0)
			})
		})

		Convey("When there are no signals", func() {
			scores := scoring.ScoreSignals(nil, 30, today)

			Convey("Then the result is empty", func() {
				So(scores, ShouldNotBeNil)
				So(scores, ShouldBeEmpty)
			})
		})

		Convey("When every signal is outside the window", func() {
			signals := []model.SignalRecord{signalFor(avery, "avery@example.com", 45, 3)}

			So(scoring.ScoreSignals(signals, 30, today), ShouldBeEmpty)
		})
	})
}

func TestScoreSignalsRanking(t *testing.T) {
	Convey("Given scholars with different totals", t, func() {
		low := uuid.New()
		high := uuid.New()
		mid := uuid.New()
		signals := []model.SignalRecord{
			signalFor(low, "low@example.com", 1, 1),
			signalFor(high, "high@example.com", 1, 5),
			signalFor(mid, "mid@example.com", 1, 3),
		}

		scores := scoring.ScoreSignals(signals, 30, today)

		Convey("Then scores are ranked highest first", func() {
			So(scores, ShouldHaveLength, 3)
			So(scores[0].ScholarEmail, ShouldEqual, "high@example.com")
			So(scores[1].ScholarEmail, ShouldEqual, "mid@example.com")
			So(scores[2].ScholarEmail, ShouldEqual, "low@example.com")
		})
	})

	Convey("Given scholars tied on score", t, func() {
		signals := []model.SignalRecord{
			signalFor(uuid.New(), "zoe@example.com", 1, 2),
			signalFor(uuid.New(), "ari@example.com", 1, 2),
			signalFor(uuid.New(), "max@example.com", 1, 2),
		}

		Convey("Then ties are broken by contact identifier on every call", func() {
			for i := 0; i < 10; i++ {
				scores := scoring.ScoreSignals(signals, 30, today)
				So(scores[0].ScholarEmail, ShouldEqual, "ari@example.com")
				So(scores[1].ScholarEmail, ShouldEqual, "max@example.com")
				So(scores[2].ScholarEmail, ShouldEqual, "zoe@example.com")
			}
		})
	})

	Convey("Given scores that include NaN", t, func() {
		scores := []model.ScholarScore{
			{ScholarEmail: "nan@example.com", Score: math.NaN()},
			{ScholarEmail: "b@example.com", Score: 1},
			{ScholarEmail: "a@example.com", Score: 3},
			{ScholarEmail: "c@example.com", Score: math.NaN()},
		}

		Convey("Then ranking completes and NaN ranks last", func() {
			So(func() { slices.SortFunc(scores, scoring.CompareForTest) }, ShouldNotPanic)
			So(scores[0].ScholarEmail, ShouldEqual, "a@example.com")
			So(scores[1].ScholarEmail, ShouldEqual, "b@example.com")
			So(math.IsNaN(scores[2].Score), ShouldBeTrue)
			So(scores[2].ScholarEmail, ShouldEqual, "c@example.com")
			So(scores[3].ScholarEmail, ShouldEqual, "nan@example.com")
		})
	})
}

func TestScoreSignalsProperties(t *testing.T) {
	Convey("Given a mixed set of signals", t, func() {
		ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
		var signals []model.SignalRecord
		for i := 0; i < 40; i++ {
			id := ids[i%len(ids)]
			signals = append(signals, signalFor(id, id.String()+"@example.com", i*3, 1+i%4))
		}

		Convey("Then signal counts add up to the signals inside the window", func() {
			cutoff := scoring.CutoffDate(45, today)
			inWindow := 0
			for _, s := range signals {
				if !s.OccurredAt.Before(cutoff) {
					inWindow++
				}
			}

			total := 0
			for _, score := range scoring.ScoreSignals(signals, 45, today) {
				total += score.SignalCount
				So(score.Score, ShouldBeGreaterThanOrEqualTo, 0)
			}
			So(total, ShouldEqual, inWindow)
		})

		Convey("Then scoring twice yields identical results", func() {
			first := scoring.ScoreSignals(signals, 45, today)
			second := scoring.ScoreSignals(signals, 45, today)
			So(second, ShouldResemble, first)
		})

		Convey("Then the input order is left untouched", func() {
			snapshot := append([]model.SignalRecord(nil), signals...)
			scoring.ScoreSignals(signals, 45, today)
			So(signals, ShouldResemble, snapshot)
		})
	})
}
