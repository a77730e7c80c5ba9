package hardware

import (
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"
)

// Focuser state codes.
const (
	FocusIdle           = "00"
	FocusMovingPositive = "01"
	FocusMovingNegative = "02"
)

// Focuser travel limits.
const (
	FocusMin = -50.0
	FocusMax = 50.0
)

// Focuser models the secondary mirror focus drive.
type Focuser struct {
	duration time.Duration
	logger   log.FieldLogger

	position float64
	from     float64
	target   float64
	pending  *float64
	move     transit
}

// NewFocuser returns an idle focuser at 0.
func NewFocuser(duration time.Duration, logger log.FieldLogger) *Focuser {
	return &Focuser{duration: duration, logger: logger}
}

// SetAbsolute loads an absolute focus target.
func (f *Focuser) SetAbsolute(pos float64) error {
	if math.IsNaN(pos) || pos < FocusMin || pos > FocusMax {
		return fmt.Errorf("focus position %v outside [%v, %v]: %w", pos, FocusMin, FocusMax, ErrInvalidParameter)
	}
	f.pending = &pos
	return nil
}

// SetRelative loads a target offset from the position at now.
func (f *Focuser) SetRelative(now time.Time, delta float64) error {
	return f.SetAbsolute(f.Position(now) + delta)
}

// Go starts the move to the loaded target.
func (f *Focuser) Go(now time.Time) error {
	if f.pending == nil {
		return fmt.Errorf("focus position: %w, use FOSA or FOSR first", ErrNotSet)
	}
	f.from = f.Position(now)
	f.target = *f.pending
	f.pending = nil
	f.move.begin(now, f.duration)
	f.logger.Infof("Focusing %.2f -> %.2f", f.from, f.target)
	return nil
}

// Stop halts the focuser where it is.
func (f *Focuser) Stop(now time.Time) {
	f.position = f.Position(now)
	if f.move.active {
		f.logger.Infof("Focuser stopped at %.2f", f.position)
	}
	f.move.clear()
	f.pending = nil
}

// Position returns the focus position at now.
func (f *Focuser) Position(now time.Time) float64 {
	if !f.move.active {
		return f.position
	}
	if f.move.done(now) {
		f.position = f.target
		f.move.clear()
		f.logger.Infof("Focus reached %.2f", f.position)
		return f.position
	}
	return f.from + (f.target-f.from)*f.move.fraction(now)
}

// State returns the focuser state code at now.
func (f *Focuser) State(now time.Time) string {
	f.Position(now)
	switch {
	case !f.move.active:
		return FocusIdle
	case f.target >= f.from:
		return FocusMovingPositive
	default:
		return FocusMovingNegative
	}
}
