package hardware

import (
	"math"
	"sync"
	"testing"
	"time"

	"dk154mock/pkg/astro"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestObservatory() (*Observatory, *fakeClock) {
	clock := &fakeClock{now: t0}
	devices := NewDevices(DefaultTiming(), astro.LaSilla, DefaultPark(), testLogger())
	return NewObservatory(devices, clock, testLogger()), clock
}

func TestObservatoryExecPassesClockTime(t *testing.T) {
	obs, clock := newTestObservatory()
	clock.Advance(time.Minute)

	var seen time.Time
	require.NoError(t, obs.Exec(func(d *Devices, now time.Time) error {
		seen = now
		return nil
	}))
	assert.Equal(t, t0.Add(time.Minute), seen)

	err := obs.Exec(func(d *Devices, now time.Time) error {
		return d.Telescope.GoTarget(now)
	})
	assert.ErrorIs(t, err, ErrNotSet)
}

func TestObservatoryInitialStatus(t *testing.T) {
	obs, _ := newTestObservatory()
	s := obs.Status()

	assert.Equal(t, t0, s.Time)
	assert.Equal(t, TelescopeTracking, s.Telescope.State)
	assert.True(t, s.Telescope.Power)
	assert.Equal(t, DomeStopped, s.Dome.State)
	assert.Equal(t, FlapOpen, s.Dome.Slit)
	assert.Equal(t, FlapClosed, s.Flaps.Cassegrain)
	assert.Equal(t, WheelLocked, s.Wheels.AState)
	assert.Equal(t, "0", s.Wheels.APosition)
	assert.Equal(t, FocusIdle, s.Focuser.State)
	assert.Equal(t, InitialGrismPosition, s.DFOSC.Grism.Position)
	assert.Equal(t, InitialAperturePosition, s.DFOSC.Aperture.Position)
	assert.Equal(t, InitialFilterPosition, s.DFOSC.Filter.Position)
	assert.True(t, s.DFOSC.Filter.Ready)
	assert.Equal(t, CameraReady, s.Camera.State)
	assert.Equal(t, ShutterClosed, s.Camera.Shutter)
}

func TestObservatoryDomeFollowsTelescope(t *testing.T) {
	obs, clock := newTestObservatory()

	var telAz float64
	require.NoError(t, obs.Exec(func(d *Devices, now time.Time) error {
		d.Dome.SetAuto(now)
		telAz = d.Telescope.Horizontal(now).Az
		return nil
	}))

	offset := DefaultTiming().DomeAutoOffset
	require.NoError(t, obs.Exec(func(d *Devices, now time.Time) error {
		state := d.Dome.State(now)
		if math.Abs(astro.ShortestArc(0, telAz)) > offset {
			assert.Contains(t, []string{DomeAutoMovingNegative, DomeAutoMovingPositive}, state)
		} else {
			assert.Equal(t, DomeAuto, state)
		}
		return nil
	}))

	clock.Advance(2 * time.Minute)
	require.NoError(t, obs.Exec(func(d *Devices, now time.Time) error {
		az := d.Dome.Azimuth(now)
		telAz := d.Telescope.Horizontal(now).Az
		assert.LessOrEqual(t, math.Abs(astro.ShortestArc(az, telAz)), offset+1e-9)
		return nil
	}))
}

func TestObservatorySetPark(t *testing.T) {
	obs, clock := newTestObservatory()
	obs.SetPark(Park{DomeAzimuth: 180, HourAngle: 0, Declination: -60})

	require.NoError(t, obs.Exec(func(d *Devices, now time.Time) error {
		d.Dome.Park(now, d.Park.DomeAzimuth)
		return nil
	}))
	clock.Advance(2 * time.Minute)
	s := obs.Status()
	assert.Equal(t, DomeStopped, s.Dome.State)
	assert.InDelta(t, 180.0, s.Dome.Azimuth, 1e-9)
}

func TestObservatoryConcurrentExec(t *testing.T) {
	obs, _ := newTestObservatory()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = obs.Exec(func(d *Devices, now time.Time) error {
				counter++
				_ = d.WheelA.SetPosition("2")
				_ = d.WheelA.Go(now)
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestParkValidate(t *testing.T) {
	assert.NoError(t, DefaultPark().Validate())
	assert.ErrorIs(t, Park{DomeAzimuth: 360}.Validate(), ErrInvalidParameter)
	assert.ErrorIs(t, Park{HourAngle: -181}.Validate(), ErrInvalidParameter)
	assert.ErrorIs(t, Park{Declination: 91}.Validate(), ErrInvalidParameter)
}
