package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestDeriveGradeBoundaries(t *testing.T) {
	cases := []struct {
		cat    *float64
		exam   *float64
		total  string
		letter string
		point  string
	}{
		{floatPtr(40), floatPtr(40), "80.00", "A", "5.00"},
		{floatPtr(40), floatPtr(39.99), "79.99", "B", "4.00"},
		{floatPtr(35), floatPtr(35), "70.00", "B", "4.00"},
		{floatPtr(30), floatPtr(39.99), "69.99", "C", "3.00"},
		{floatPtr(30), floatPtr(30), "60.00", "C", "3.00"},
		{floatPtr(20), floatPtr(39.99), "59.99", "D", "2.00"},
		{floatPtr(25), floatPtr(25), "50.00", "D", "2.00"},
		{floatPtr(10), floatPtr(39.99), "49.99", "E", "1.00"},
		{floatPtr(20), floatPtr(20), "40.00", "E", "1.00"},
		{floatPtr(19.99), floatPtr(20), "39.99", "F", "0.00"},
		{floatPtr(0), floatPtr(0), "0.00", "F", "0.00"},
		{floatPtr(60), floatPtr(40), "100.00", "A", "5.00"},
	}

	for _, tc := range cases {
		t.Run(tc.total, func(t *testing.T) {
			total, letter, point := DeriveGrade(tc.cat, tc.exam)
			require.Equal(t, tc.total, total)
			require.Equal(t, tc.letter, letter)
			require.Equal(t, tc.point, point)
		})
	}
}

func TestDeriveGradeMissingScoresCountAsZero(t *testing.T) {
	total, letter, point := DeriveGrade(floatPtr(35), nil)
	require.Equal(t, "35.00", total)
	require.Equal(t, "F", letter)
	require.Equal(t, "0.00", point)

	total, letter, point = DeriveGrade(nil, floatPtr(62))
	require.Equal(t, "62.00", total)
	require.Equal(t, "C", letter)
	require.Equal(t, "3.00", point)

	total, letter, point = DeriveGrade(nil, nil)
	require.Equal(t, "0.00", total)
	require.Equal(t, "F", letter)
	require.Equal(t, "0.00", point)
}

func TestDeriveGradeFormatsTotalWithTwoDecimals(t *testing.T) {
	total, letter, point := DeriveGrade(floatPtr(35), floatPtr(38))
	require.Equal(t, "73.00", total)
	require.Equal(t, "B", letter)
	require.Equal(t, "4.00", point)
}
