// Package risk computes the heuristic dropout risk of a student.
//
// The rule is additive: every signal below its threshold contributes a fixed
// weight, and the sum is mapped to a Category. Inputs are not range checked.
package risk

import "math"

// Categories
const (
	Low    Category = "Low"
	Medium Category = "Medium"
	High   Category = "High"
)

// Categories lists every Category from lowest to highest risk.
var Categories = []Category{Low, Medium, High}

// Thresholds and weights; weights are in tenths of a point.
const (
	attendanceThreshold = 60
	avgGradeThreshold   = 60
	lmsThreshold        = 5

	attendanceWeight   = 4
	avgGradeWeight     = 3
	lmsWeight          = 2
	financialAidWeight = 1

	highFrom   = 7
	mediumFrom = 4
)

type Category string

// Signals are the four inputs of the rule.
type Signals struct {
	Attendance   float64 `json:"attendance"`    // 0 - 100
	AvgGrade     float64 `json:"avg_grade"`     // 0 - 100
	LMSActivity  int     `json:"lms_activity"`  // >= 0
	FinancialAid int     `json:"financial_aid"` // 0 | 1
}

type Assessment struct {
	Category Category `json:"risk"`
	Score    float64  `json:"score"`
}

// Recorded marks which Signals carry a value. An unrecorded signal never
// crosses its threshold, so it adds nothing to the score.
type Recorded struct {
	Attendance   bool
	AvgGrade     bool
	LMSActivity  bool
	FinancialAid bool
}

// AllRecorded is used when every signal is known.
var AllRecorded = Recorded{Attendance: true, AvgGrade: true, LMSActivity: true, FinancialAid: true}

// Score applies the rule to the given signals.
func Score(attendance, avgGrade float64, lmsActivity, financialAid int) (Category, float64) {
	a := Assess(Signals{Attendance: attendance, AvgGrade: avgGrade, LMSActivity: lmsActivity, FinancialAid: financialAid})
	return a.Category, a.Score
}

// Assess is Score for a Signals value.
func Assess(s Signals) Assessment {
	return AssessRecorded(s, AllRecorded)
}

// AssessRecorded is Assess skipping the signals that were not recorded.
func AssessRecorded(s Signals, rec Recorded) Assessment {
	var points int
	if rec.Attendance && s.Attendance < attendanceThreshold {
		points += attendanceWeight
	}
	if rec.AvgGrade && s.AvgGrade < avgGradeThreshold {
		points += avgGradeWeight
	}
	if rec.LMSActivity && s.LMSActivity < lmsThreshold {
		points += lmsWeight
	}
	if rec.FinancialAid && s.FinancialAid == 0 {
		points += financialAidWeight
	}

	a := Assessment{Category: Low, Score: float64(points) / 10}
	switch {
	case points >= highFrom:
		a.Category = High
	case points >= mediumFrom:
		a.Category = Medium
	}
	return a
}

// Distribution counts assessments per Category. Every Category is present.
func Distribution(assessments []Assessment) map[Category]int {
	dist := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		dist[c] = 0
	}
	for _, a := range assessments {
		dist[a.Category]++
	}
	return dist
}

// Round rounds a score to 2 decimals for display.
func Round(score float64) float64 {
	return math.Round(score*100) / 100
}
