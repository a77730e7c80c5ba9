package hardware

import "time"

// transit is a timed movement that started at start and lasts duration.
type transit struct {
	start    time.Time
	duration time.Duration
	active   bool
}

func (t *transit) begin(now time.Time, d time.Duration) {
	t.start = now
	t.duration = d
	t.active = true
}

func (t *transit) clear() {
	t.active = false
}

// done reports whether the movement has settled at now.
func (t transit) done(now time.Time) bool {
	return !t.active || now.Sub(t.start) >= t.duration
}

// fraction is the completed share of the movement, clamped to [0, 1].
func (t transit) fraction(now time.Time) float64 {
	if t.done(now) || t.duration <= 0 {
		return 1
	}
	f := float64(now.Sub(t.start)) / float64(t.duration)
	if f < 0 {
		return 0
	}
	return f
}
