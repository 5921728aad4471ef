package service

import "fmt"

// gradeBand maps a total score threshold to its letter and grade point.
type gradeBand struct {
	min    float64
	letter string
	point  string
}

// bands are checked top-down; the first threshold the total reaches wins.
var bands = []gradeBand{
	{min: 80, letter: "A", point: "5.00"},
	{min: 70, letter: "B", point: "4.00"},
	{min: 60, letter: "C", point: "3.00"},
	{min: 50, letter: "D", point: "2.00"},
	{min: 40, letter: "E", point: "1.00"},
}

// DeriveGrade computes the total, letter grade and grade point from the
// continuous assessment and exam scores. A missing score counts as zero
// so partially entered grades still derive consistently. All three
// outputs are produced together; callers must never store one without
// the others.
func DeriveGrade(catScore, examScore *float64) (total, letter, point string) {
	sum := 0.0
	if catScore != nil {
		sum += *catScore
	}
	if examScore != nil {
		sum += *examScore
	}
	total = fmt.Sprintf("%.2f", sum)
	for _, band := range bands {
		if sum >= band.min {
			return total, band.letter, band.point
		}
	}
	return total, "F", "0.00"
}
