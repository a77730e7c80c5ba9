package hardware

import (
	"fmt"
	"math"
	"time"

	"dk154mock/pkg/astro"

	log "github.com/sirupsen/logrus"
)

// Dome state codes as reported by DORS.
const (
	DomeMovingNegative     = "01"
	DomeMovingPositive     = "02"
	DomeStopped            = "03"
	DomeParking            = "04"
	DomeAuto               = "05"
	DomeAutoMovingNegative = "06"
	DomeAutoMovingPositive = "07"
)

// Dome models the rotating dome. Position is interpolated linearly between
// the start of a move and its end.
type Dome struct {
	logger log.FieldLogger
	timing Timing

	azimuth float64
	auto    bool
	parking bool

	moving  bool
	startAz float64
	delta   float64
	move    transit

	pendingAbs *float64
	pendingRel *float64
}

// NewDome returns a stopped dome at azimuth 0.
func NewDome(timing Timing, logger log.FieldLogger) *Dome {
	return &Dome{
		logger: logger,
		timing: timing,
	}
}

// SetAbsolute loads an absolute azimuth target.
func (d *Dome) SetAbsolute(az float64) error {
	if math.IsNaN(az) || az < 0 || az >= 360 {
		return fmt.Errorf("dome azimuth %v: %w", az, ErrInvalidParameter)
	}
	d.pendingAbs = &az
	return nil
}

// GoAbsolute starts the move to the loaded absolute target.
func (d *Dome) GoAbsolute(now time.Time) error {
	if d.pendingAbs == nil {
		return fmt.Errorf("dome azimuth: %w, use DOSA first", ErrNotSet)
	}
	target := *d.pendingAbs
	d.pendingAbs = nil
	d.Update(now)
	d.auto = false
	d.parking = false
	d.startMove(now, astro.ShortestArc(d.azimuth, target))
	return nil
}

// SetRelative loads a signed relative move.
func (d *Dome) SetRelative(delta float64) error {
	if math.IsNaN(delta) || delta < -360 || delta > 360 {
		return fmt.Errorf("dome offset %v: %w", delta, ErrInvalidParameter)
	}
	d.pendingRel = &delta
	return nil
}

// GoRelative starts the loaded relative move.
func (d *Dome) GoRelative(now time.Time) error {
	if d.pendingRel == nil {
		return fmt.Errorf("dome offset: %w, use DOSR first", ErrNotSet)
	}
	delta := *d.pendingRel
	d.pendingRel = nil
	d.Update(now)
	d.auto = false
	d.parking = false
	d.startMove(now, delta)
	return nil
}

// SetAuto makes the dome follow the telescope azimuth.
func (d *Dome) SetAuto(now time.Time) {
	d.Update(now)
	d.parking = false
	d.auto = true
	d.logger.Info("Dome in auto mode")
}

// Auto reports whether the dome follows the telescope.
func (d *Dome) Auto() bool {
	return d.auto
}

// Park rotates the dome to the park azimuth.
func (d *Dome) Park(now time.Time, az float64) {
	d.Update(now)
	d.auto = false
	d.parking = true
	d.startMove(now, astro.ShortestArc(d.azimuth, astro.NormalizeAngle(az)))
	if !d.moving {
		d.parking = false
	}
	d.logger.Infof("Dome parking at %.1f", az)
}

// Stop halts the dome where it is and leaves auto mode.
func (d *Dome) Stop(now time.Time) {
	d.Update(now)
	d.moving = false
	d.move.clear()
	d.auto = false
	d.parking = false
	d.pendingAbs = nil
	d.pendingRel = nil
}

// Track re-centres an auto-mode dome on the telescope azimuth once the two
// differ by more than the auto offset.
func (d *Dome) Track(now time.Time, telescopeAz float64) {
	d.Update(now)
	if !d.auto || d.moving {
		return
	}
	delta := astro.ShortestArc(d.azimuth, telescopeAz)
	if math.Abs(delta) <= d.timing.DomeAutoOffset {
		return
	}
	d.logger.Debugf("Dome tracking telescope azimuth %.2f", telescopeAz)
	d.startMove(now, delta)
}

func (d *Dome) startMove(now time.Time, delta float64) {
	d.startAz = d.azimuth
	d.delta = delta
	d.moving = delta != 0
	if d.moving {
		d.move.begin(now, degreesPerSecond(math.Abs(delta), d.timing.DomeRate))
	}
}

// Update advances the dome position to now.
func (d *Dome) Update(now time.Time) {
	if !d.moving {
		return
	}
	if d.move.done(now) {
		d.azimuth = astro.NormalizeAngle(d.startAz + d.delta)
		d.moving = false
		d.move.clear()
		if d.parking {
			d.parking = false
			d.logger.Info("Dome parked")
		}
		return
	}
	d.azimuth = astro.NormalizeAngle(d.startAz + d.delta*d.move.fraction(now))
}

// Azimuth returns the dome azimuth at now, in [0, 360).
func (d *Dome) Azimuth(now time.Time) float64 {
	d.Update(now)
	return d.azimuth
}

// State returns the DORS state code at now.
func (d *Dome) State(now time.Time) string {
	d.Update(now)
	switch {
	case d.parking:
		return DomeParking
	case d.moving && d.delta < 0:
		if d.auto {
			return DomeAutoMovingNegative
		}
		return DomeMovingNegative
	case d.moving:
		if d.auto {
			return DomeAutoMovingPositive
		}
		return DomeMovingPositive
	case d.auto:
		return DomeAuto
	default:
		return DomeStopped
	}
}
