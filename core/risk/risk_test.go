package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name         string
		attendance   float64
		avgGrade     float64
		lmsActivity  int
		financialAid int
		wantCategory Category
		wantScore    float64
	}{
		{name: "no signal", attendance: 90, avgGrade: 85, lmsActivity: 12, financialAid: 1, wantCategory: Low, wantScore: 0},
		{name: "all signals", attendance: 30, avgGrade: 40, lmsActivity: 1, financialAid: 0, wantCategory: High, wantScore: 1},
		{name: "attendance only", attendance: 59.9, avgGrade: 60, lmsActivity: 5, financialAid: 1, wantCategory: Medium, wantScore: 0.4},
		{name: "grade only", attendance: 60, avgGrade: 10, lmsActivity: 5, financialAid: 1, wantCategory: Low, wantScore: 0.3},
		{name: "lms only", attendance: 60, avgGrade: 60, lmsActivity: 4, financialAid: 1, wantCategory: Low, wantScore: 0.2},
		{name: "no aid only", attendance: 60, avgGrade: 60, lmsActivity: 5, financialAid: 0, wantCategory: Low, wantScore: 0.1},
		{name: "attendance + grade is exactly high", attendance: 10, avgGrade: 10, lmsActivity: 20, financialAid: 1, wantCategory: High, wantScore: 0.7},
		{name: "grade + lms + no aid stays medium", attendance: 100, avgGrade: 59, lmsActivity: 0, financialAid: 0, wantCategory: Medium, wantScore: 0.6},
		{name: "attendance + lms", attendance: 55, avgGrade: 70, lmsActivity: 3, financialAid: 1, wantCategory: Medium, wantScore: 0.6},
		{name: "grade + no aid", attendance: 75, avgGrade: 50, lmsActivity: 9, financialAid: 0, wantCategory: Medium, wantScore: 0.4},
		{name: "attendance + grade + lms", attendance: 0, avgGrade: 0, lmsActivity: 0, financialAid: 1, wantCategory: High, wantScore: 0.9},
		{name: "lms + no aid", attendance: 61, avgGrade: 61, lmsActivity: 2, financialAid: 0, wantCategory: Low, wantScore: 0.3},
		{name: "out of range passes through", attendance: -5, avgGrade: 150, lmsActivity: -1, financialAid: 7, wantCategory: Medium, wantScore: 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, score := Score(tt.attendance, tt.avgGrade, tt.lmsActivity, tt.financialAid)
			if cat != tt.wantCategory {
				t.Errorf("Score() category = %v, want %v", cat, tt.wantCategory)
			}
			if score != tt.wantScore {
				t.Errorf("Score() score = %v, want %v", score, tt.wantScore)
			}
		})
	}
}

func TestScore_attendanceOnlyIsAlwaysMedium(t *testing.T) {
	for att := 0.0; att < 60; att += 7.5 {
		for grade := 60.0; grade <= 100; grade += 10 {
			for lms := 5; lms <= 20; lms += 5 {
				cat, score := Score(att, grade, lms, 1)
				if cat != Medium || score != 0.4 {
					t.Fatalf("Score(%v, %v, %v, 1) = (%v, %v), want (Medium, 0.4)", att, grade, lms, cat, score)
				}
			}
		}
	}
}

func TestAssess(t *testing.T) {
	got := Assess(Signals{Attendance: 55, AvgGrade: 70, LMSActivity: 3, FinancialAid: 1})
	assert.Equal(t, Assessment{Category: Medium, Score: 0.6}, got)
}

func TestAssessRecorded(t *testing.T) {
	tests := []struct {
		name string
		rec  Recorded
		want Assessment
	}{
		{name: "nothing recorded", rec: Recorded{}, want: Assessment{Category: Low, Score: 0}},
		{name: "all recorded", rec: AllRecorded, want: Assessment{Category: High, Score: 1}},
		{name: "grade missing", rec: Recorded{Attendance: true, LMSActivity: true, FinancialAid: true}, want: Assessment{Category: High, Score: 0.7}},
		{name: "aid only", rec: Recorded{FinancialAid: true}, want: Assessment{Category: Low, Score: 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssessRecorded(Signals{}, tt.rec))
		})
	}
}

func TestDistribution(t *testing.T) {
	got := Distribution([]Assessment{
		{Category: High, Score: 1},
		{Category: High, Score: 0.7},
		{Category: Low, Score: 0},
	})
	assert.Equal(t, map[Category]int{Low: 1, Medium: 0, High: 2}, got)

	assert.Equal(t, map[Category]int{Low: 0, Medium: 0, High: 0}, Distribution(nil))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.6, Round(0.6000000000000001))
	assert.Equal(t, 0.33, Round(1.0/3))
}
