package scoring

import "github.com/groupscholar/cohort-early-warning/internal/domain/model"

// CompareForTest exposes the ranking comparator to the external test package.
func CompareForTest(a, b model.ScholarScore) int {
	return compareAccumulators(&accumulator{score: a}, &accumulator{score: b})
}
