package hardware

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Flap and dome slit state codes.
const (
	FlapStopped = "00"
	FlapOpening = "01"
	FlapClosing = "02"
	FlapOpen    = "03"
	FlapClosed  = "04"
)

// Flap is a two-position cover that takes a fixed time to open or close.
// It models the Cassegrain flap, the mirror flap and the dome slit.
type Flap struct {
	name     string
	duration time.Duration
	logger   log.FieldLogger

	state   string
	opening bool
	move    transit
}

// NewFlap returns a settled flap in the given state.
func NewFlap(name string, duration time.Duration, initial string, logger log.FieldLogger) *Flap {
	return &Flap{
		name:     name,
		duration: duration,
		logger:   logger,
		state:    initial,
	}
}

// Command applies an open, close or stop token. "1" and "0" are accepted as
// open and close.
func (f *Flap) Command(now time.Time, token string) error {
	switch token {
	case "open", "1":
		f.opening = true
		f.move.begin(now, f.duration)
		f.logger.Infof("Opening %s", f.name)
	case "close", "0":
		f.opening = false
		f.move.begin(now, f.duration)
		f.logger.Infof("Closing %s", f.name)
	case "stop":
		f.move.clear()
		f.state = FlapStopped
		f.logger.Infof("Stopped %s", f.name)
	default:
		return fmt.Errorf("%s token %q: %w", f.name, token, ErrInvalidParameter)
	}
	return nil
}

// State returns the flap state code at now.
func (f *Flap) State(now time.Time) string {
	if !f.move.active {
		return f.state
	}
	if !f.move.done(now) {
		if f.opening {
			return FlapOpening
		}
		return FlapClosing
	}
	f.move.clear()
	if f.opening {
		f.state = FlapOpen
		f.logger.Infof("%s open", f.name)
	} else {
		f.state = FlapClosed
		f.logger.Infof("%s closed", f.name)
	}
	return f.state
}
