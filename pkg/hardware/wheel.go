package hardware

import (
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Wheel state codes.
const (
	WheelLocked      = "00"
	WheelPositioning = "03"
)

// Wheel is a filter wheel with numbered slots.
type Wheel struct {
	name     string
	duration time.Duration
	slots    int
	rotating string
	logger   log.FieldLogger

	position string
	pending  *string
	move     transit
}

// NewWheel returns a locked wheel at slot 0. While rotating the wheel
// reports the rotating sentinel as its position.
func NewWheel(name string, duration time.Duration, slots int, rotating string, logger log.FieldLogger) *Wheel {
	return &Wheel{
		name:     name,
		duration: duration,
		slots:    slots,
		rotating: rotating,
		logger:   logger,
		position: "0",
	}
}

// SetPosition loads a target slot.
func (w *Wheel) SetPosition(pos string) error {
	n, err := strconv.Atoi(pos)
	if err != nil || n < 0 || n >= w.slots {
		return fmt.Errorf("%s position %q: %w", w.name, pos, ErrInvalidParameter)
	}
	s := strconv.Itoa(n)
	w.pending = &s
	return nil
}

// Go starts rotation to the loaded slot.
func (w *Wheel) Go(now time.Time) error {
	if w.pending == nil {
		return fmt.Errorf("%s position: %w", w.name, ErrNotSet)
	}
	w.position = *w.pending
	w.pending = nil
	w.move.begin(now, w.duration)
	w.logger.Infof("Rotating %s to slot %s", w.name, w.position)
	return nil
}

// State returns the wheel state code at now.
func (w *Wheel) State(now time.Time) string {
	if w.move.done(now) {
		if w.move.active {
			w.logger.Infof("%s locked at slot %s", w.name, w.position)
		}
		w.move.clear()
		return WheelLocked
	}
	return WheelPositioning
}

// Position returns the slot at now, or the rotating sentinel while moving.
func (w *Wheel) Position(now time.Time) string {
	if w.State(now) != WheelLocked {
		return w.rotating
	}
	return w.position
}
