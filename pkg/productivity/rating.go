package productivity

import (
	"workpulse/pkg/constants"

	"github.com/shopspring/decimal"
)

// badThresholdRatio is the share of the project average below which a user is rated BAD
const badThresholdRatio = 0.70

// Benchmarks project-level averages for one (project, date)
type Benchmarks struct {
	ActiveUsers  int
	TotalTasks   int
	TotalMinutes float64
	AvgTasks     float64
	AvgHours     float64
	BadThreshold float64
}

// ComputeBenchmarks derives per-project averages from per-user totals.
// Callers guarantee at least one user.
func ComputeBenchmarks(totals []UserTotal) Benchmarks {
	b := Benchmarks{ActiveUsers: len(totals)}
	if b.ActiveUsers == 0 {
		return b
	}
	for _, t := range totals {
		b.TotalTasks += t.Tasks
		b.TotalMinutes += t.Minutes
	}
	n := float64(b.ActiveUsers)
	b.AvgTasks = float64(b.TotalTasks) / n
	b.AvgHours = (b.TotalMinutes / 60) / n
	b.BadThreshold = b.AvgTasks * badThresholdRatio
	return b
}

// Grade rates a user's task count against the project benchmarks.
// A lone user equals the average and is never GOOD.
func Grade(tasks int, b Benchmarks) constants.QualityRating {
	t := float64(tasks)
	switch {
	case t > b.AvgTasks:
		return constants.QualityRatingGood
	case t < b.BadThreshold:
		return constants.QualityRatingBad
	default:
		return constants.QualityRatingAverage
	}
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func minutesToHours(minutes float64) float64 {
	return decimal.NewFromFloat(minutes).Div(decimal.NewFromInt(60)).Round(2).InexactFloat64()
}
