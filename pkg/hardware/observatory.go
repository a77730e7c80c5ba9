package hardware

import (
	"fmt"
	"sync"
	"time"

	"dk154mock/pkg/astro"

	log "github.com/sirupsen/logrus"
)

// Initial DFOSC slide positions.
const (
	InitialGrismPosition    = 120000
	InitialAperturePosition = 240000
	InitialFilterPosition   = 160000
)

// Wheel sizes and their rotating sentinels.
const (
	wheelASlots    = 8
	wheelBSlots    = 7
	wheelARotating = "8"
	wheelBRotating = "7"
)

// Park holds where TEPA and DOPA send the telescope and dome.
type Park struct {
	DomeAzimuth float64 `json:"dome_azimuth" yaml:"dome_azimuth"`
	HourAngle   float64 `json:"hour_angle" yaml:"hour_angle"`
	Declination float64 `json:"declination" yaml:"declination"`
}

// DefaultPark points the telescope at the south celestial pole and the dome east.
func DefaultPark() Park {
	return Park{
		DomeAzimuth: 90,
		HourAngle:   0,
		Declination: -90,
	}
}

// Validate checks the park position is reachable.
func (p Park) Validate() error {
	switch {
	case p.DomeAzimuth < 0 || p.DomeAzimuth >= 360:
		return fmt.Errorf("dome azimuth %v outside [0, 360): %w", p.DomeAzimuth, ErrInvalidParameter)
	case p.HourAngle < -180 || p.HourAngle > 180:
		return fmt.Errorf("hour angle %v outside [-180, 180]: %w", p.HourAngle, ErrInvalidParameter)
	case p.Declination < -90 || p.Declination > 90:
		return fmt.Errorf("declination %v outside [-90, 90]: %w", p.Declination, ErrInvalidParameter)
	}
	return nil
}

// Devices is the set of simulated devices owned by an Observatory. It is only
// handed out inside Exec.
type Devices struct {
	Telescope      *Telescope
	Dome           *Dome
	Slit           *Flap
	CassegrainFlap *Flap
	MirrorFlap     *Flap
	WheelA         *Wheel
	WheelB         *Wheel
	Focuser        *Focuser
	Shutter        *Shutter
	Grism          *Slide
	Aperture       *Slide
	Filter         *Slide
	Camera         *Camera

	Park Park
}

// NewDevices builds every device in its start-up state.
func NewDevices(timing Timing, site astro.Site, park Park, logger log.FieldLogger) *Devices {
	return &Devices{
		Telescope:      NewTelescope(timing, site, logger.WithField("device", "telescope")),
		Dome:           NewDome(timing, logger.WithField("device", "dome")),
		Slit:           NewFlap("dome slit", timing.SlitTime, FlapOpen, logger.WithField("device", "slit")),
		CassegrainFlap: NewFlap("cassegrain flap", timing.FlapTime, FlapClosed, logger.WithField("device", "cassegrain-flap")),
		MirrorFlap:     NewFlap("mirror flap", timing.FlapTime, FlapClosed, logger.WithField("device", "mirror-flap")),
		WheelA:         NewWheel("wheel A", timing.WheelTime, wheelASlots, wheelARotating, logger.WithField("device", "wheel-a")),
		WheelB:         NewWheel("wheel B", timing.WheelTime, wheelBSlots, wheelBRotating, logger.WithField("device", "wheel-b")),
		Focuser:        NewFocuser(timing.FocusTime, logger.WithField("device", "focuser")),
		Shutter:        NewShutter(logger.WithField("device", "shutter")),
		Grism:          NewSlide("grism", timing.SlideTime, InitialGrismPosition, logger.WithField("device", "grism")),
		Aperture:       NewSlide("aperture", timing.SlideTime, InitialAperturePosition, logger.WithField("device", "aperture")),
		Filter:         NewSlide("filter", timing.SlideTime, InitialFilterPosition, logger.WithField("device", "filter")),
		Camera:         NewCamera(timing.ReadoutTime, logger.WithField("device", "camera")),
		Park:           park,
	}
}

// refresh advances the coupled devices. An auto-mode dome follows the
// telescope azimuth.
func (d *Devices) refresh(now time.Time) {
	d.Telescope.Update(now)
	d.Dome.Update(now)
	if d.Dome.Auto() {
		d.Dome.Track(now, d.Telescope.Horizontal(now).Az)
	}
}

// Clock supplies the current time to the Observatory.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Observatory serializes all access to the devices. Every command runs
// through Exec, which holds a single lock for the whole command.
type Observatory struct {
	mu      sync.Mutex
	clock   Clock
	devices *Devices
	logger  log.FieldLogger
}

// NewObservatory wraps devices. A nil clock means the system clock.
func NewObservatory(devices *Devices, clock Clock, logger log.FieldLogger) *Observatory {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Observatory{
		clock:   clock,
		devices: devices,
		logger:  logger,
	}
}

// Exec runs fn with exclusive access to the devices at the current time.
func (o *Observatory) Exec(fn func(d *Devices, now time.Time) error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.clock.Now()
	o.devices.refresh(now)
	return fn(o.devices, now)
}

// SetPark replaces the park settings.
func (o *Observatory) SetPark(park Park) {
	_ = o.Exec(func(d *Devices, _ time.Time) error {
		d.Park = park
		return nil
	})
}

// Status returns a snapshot of every device.
func (o *Observatory) Status() Status {
	var s Status
	_ = o.Exec(func(d *Devices, now time.Time) error {
		s = d.Status(now)
		return nil
	})
	return s
}
