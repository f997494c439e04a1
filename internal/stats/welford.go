package stats

// runningMean accumulates a mean in one pass (Welford's update)
type runningMean struct {
	count int
	mean  float64
}

func (w *runningMean) add(v float64) {
	w.count++
	w.mean += (v - w.mean) / float64(w.count)
}

// value returns the mean, 0 when nothing was added
func (w *runningMean) value() float64 {
	return w.mean
}
