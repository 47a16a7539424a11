package worker

import "time"

// EstimateProgress maps elapsed processing time onto a percentage for jobs
// whose vendor reports no real progress. The curve rises quickly in the first
// two minutes, slows through minute ten, then crawls toward a 95 ceiling so a
// stalled job never reads as complete.
func EstimateProgress(elapsed time.Duration) int {
	if elapsed < 0 {
		elapsed = 0
	}
	seconds := elapsed.Seconds()
	minutes := elapsed.Minutes()

	switch {
	case minutes < 2:
		return minInt(30, 10+int(seconds/4))
	case minutes < 5:
		return minInt(60, 30+int((minutes-2)*10))
	case minutes < 10:
		return minInt(85, 60+int((minutes-5)*5))
	default:
		return minInt(95, 85+int((minutes-10)*0.5))
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
