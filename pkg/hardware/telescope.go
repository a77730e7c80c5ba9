package hardware

import (
	"fmt"
	"math"
	"time"

	"dk154mock/pkg/astro"

	log "github.com/sirupsen/logrus"
)

// Telescope state codes as reported by TERS.
const (
	TelescopeOff      = "00"
	TelescopeStopped  = "04"
	TelescopeTracking = "05"
	TelescopeParking  = "06"
	TelescopeSlewing  = "07"
	TelescopeSkyFlip  = "08"
)

// Pier sides.
const (
	PierEast = "0"
	PierWest = "1"
)

// Initial pointing of a freshly started mount.
var initialPointing = astro.Equatorial{RA: 45.0, Dec: -30.50833}

type motion int

const (
	motionStopped motion = iota
	motionTracking
	motionSlewing
	motionParking
)

type pointingTarget struct {
	coord astro.Equatorial
	pier  string
}

// Telescope models the mount: power, login session and pointing.
type Telescope struct {
	logger log.FieldLogger
	timing Timing
	site   astro.Site

	power     bool
	loggedIn  bool
	loginTime time.Time

	pos    astro.Equatorial
	pier   string
	motion motion

	// active slew or park; pier changes to toPier once the flip is over
	slewStart time.Time
	flip      time.Duration
	slew      time.Duration
	from, to  astro.Equatorial
	toPier    string

	pending *pointingTarget
}

// NewTelescope returns a powered, tracking telescope at the initial pointing.
func NewTelescope(timing Timing, site astro.Site, logger log.FieldLogger) *Telescope {
	return &Telescope{
		logger: logger,
		timing: timing,
		site:   site,
		power:  true,
		pos:    initialPointing,
		pier:   PierEast,
		motion: motionTracking,
	}
}

// Powered reports whether the mount is switched on.
func (t *Telescope) Powered() bool {
	return t.power
}

// SetPower switches the mount on or off. Switching off aborts any movement
// at the current position; switching on leaves the mount stopped.
func (t *Telescope) SetPower(now time.Time, on bool) {
	t.Update(now)
	if on == t.power {
		return
	}
	t.power = on
	t.motion = motionStopped
	t.pending = nil
	t.logger.Infof("Telescope power %v", on)
}

// Login records a GLLG at now.
func (t *Telescope) Login(now time.Time) {
	t.loggedIn = true
	t.loginTime = now
}

// LoggedIn reports whether the last login is still valid at now.
func (t *Telescope) LoggedIn(now time.Time) bool {
	if t.loggedIn && now.Sub(t.loginTime) > t.timing.LoginTimeout {
		t.loggedIn = false
	}
	return t.loggedIn
}

// SetTarget loads a pointing target without moving.
func (t *Telescope) SetTarget(ra, dec float64, pier string) error {
	if pier != PierEast && pier != PierWest {
		return fmt.Errorf("pier side %q: %w", pier, ErrInvalidParameter)
	}
	if math.IsNaN(ra) || ra < 0 || ra >= 360 {
		return fmt.Errorf("right ascension %v: %w", ra, ErrInvalidParameter)
	}
	if math.IsNaN(dec) || dec < -90 || dec > 90 {
		return fmt.Errorf("declination %v: %w", dec, ErrInvalidParameter)
	}
	t.pending = &pointingTarget{coord: astro.Equatorial{RA: ra, Dec: dec}, pier: pier}
	return nil
}

// GoTarget starts the slew to the loaded target. A change of pier side
// inserts a sky-flip before the slew.
func (t *Telescope) GoTarget(now time.Time) error {
	if t.pending == nil {
		return fmt.Errorf("pointing: %w, use TSRA first", ErrNotSet)
	}
	t.Update(now)
	target := t.pending
	t.pending = nil

	flip := time.Duration(0)
	if target.pier != t.pier {
		flip = t.timing.FlipTime
	}
	t.startMotion(now, motionSlewing, target.coord, target.pier, flip)
	t.logger.Infof("Telescope slewing to RA %.4f Dec %.4f pier %s (flip %v, slew %v)",
		target.coord.RA, target.coord.Dec, target.pier, flip, t.slew)
	return nil
}

// Park moves the telescope to the given hour angle and declination and
// leaves it stopped there.
func (t *Telescope) Park(now time.Time, hourAngle, dec float64) {
	t.Update(now)
	t.pending = nil
	target := astro.FromHourAngle(hourAngle, dec, t.site, now)
	t.startMotion(now, motionParking, target, t.pier, 0)
	t.logger.Infof("Telescope parking at HA %.2f Dec %.2f", hourAngle, dec)
}

func (t *Telescope) startMotion(now time.Time, m motion, target astro.Equatorial, pier string, flip time.Duration) {
	t.from = t.pos
	t.to = target
	t.toPier = pier
	t.flip = flip
	t.slew = degreesPerSecond(astro.Separation(t.from, t.to), t.timing.SlewRate)
	t.slewStart = now
	t.motion = m
}

// Stop halts any movement at the current position and discards the loaded
// target.
func (t *Telescope) Stop(now time.Time) {
	t.Update(now)
	t.pending = nil
	t.motion = motionStopped
}

// Update advances the pointing to now.
func (t *Telescope) Update(now time.Time) {
	if t.motion != motionSlewing && t.motion != motionParking {
		return
	}
	elapsed := now.Sub(t.slewStart)
	if elapsed >= t.flip && t.pier != t.toPier {
		t.pier = t.toPier
		t.logger.Infof("Telescope sky-flip done, pier %s", t.pier)
	}
	switch {
	case elapsed >= t.flip+t.slew:
		t.pos = t.to
		if t.motion == motionParking {
			t.motion = motionStopped
			t.logger.Info("Telescope parked")
		} else {
			t.motion = motionTracking
		}
	case elapsed < t.flip:
		t.pos = t.from
	default:
		t.pos = astro.Interpolate(t.from, t.to, float64(elapsed-t.flip)/float64(t.slew))
	}
}

// State returns the TERS state code at now.
func (t *Telescope) State(now time.Time) string {
	if !t.power {
		return TelescopeOff
	}
	t.Update(now)
	switch t.motion {
	case motionTracking:
		return TelescopeTracking
	case motionParking:
		return TelescopeParking
	case motionSlewing:
		if now.Sub(t.slewStart) < t.flip {
			return TelescopeSkyFlip
		}
		return TelescopeSlewing
	default:
		return TelescopeStopped
	}
}

// Position returns the pointing and pier side at now. During a sky-flip the
// old pier side is reported until the flip finishes.
func (t *Telescope) Position(now time.Time) (astro.Equatorial, string) {
	t.Update(now)
	return t.pos, t.pier
}

// Horizontal returns the pointing as altitude and azimuth at now.
func (t *Telescope) Horizontal(now time.Time) astro.Horizontal {
	t.Update(now)
	return astro.ToHorizontal(t.pos, t.site, now)
}

// Site returns the location the telescope is at.
func (t *Telescope) Site() astro.Site {
	return t.site
}

// RemoteState is the GLRE remote-control flag. The simulator is always local.
func (t *Telescope) RemoteState() string {
	return "0"
}

// SafetyRelayState is the GLSR safety relay flag.
func (t *Telescope) SafetyRelayState() string {
	return "0"
}
