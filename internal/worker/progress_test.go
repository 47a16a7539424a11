package worker

import (
	"testing"
	"time"
)

func TestEstimateProgress(t *testing.T) {
	cases := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 10},
		{30 * time.Second, 17},
		{100 * time.Second, 30},
		{2 * time.Minute, 30},
		{3 * time.Minute, 40},
		{5 * time.Minute, 60},
		{7 * time.Minute, 70},
		{10 * time.Minute, 85},
		{20 * time.Minute, 90},
		{time.Hour, 95},
		{24 * time.Hour, 95},
		{-time.Minute, 10},
	}
	for _, tc := range cases {
		if got := EstimateProgress(tc.elapsed); got != tc.want {
			t.Errorf("EstimateProgress(%v) = %d, want %d", tc.elapsed, got, tc.want)
		}
	}
}

func TestEstimateProgressNeverDecreases(t *testing.T) {
	prev := 0
	for s := 0; s <= 7200; s += 10 {
		got := EstimateProgress(time.Duration(s) * time.Second)
		if got < prev {
			t.Fatalf("progress decreased at %ds: %d < %d", s, got, prev)
		}
		prev = got
	}
}
