package hardware

import (
	"fmt"
	"time"
)

// Timing holds the transit durations and rates of the simulated hardware.
type Timing struct {
	LoginTimeout   time.Duration `yaml:"login_timeout" json:"login_timeout"`
	SlewRate       float64       `yaml:"slew_rate" json:"slew_rate"` // degrees per second
	FlipTime       time.Duration `yaml:"flip_time" json:"flip_time"`
	WheelTime      time.Duration `yaml:"wheel_time" json:"wheel_time"`
	FlapTime       time.Duration `yaml:"flap_time" json:"flap_time"`
	SlitTime       time.Duration `yaml:"slit_time" json:"slit_time"`
	FocusTime      time.Duration `yaml:"focus_time" json:"focus_time"`
	SlideTime      time.Duration `yaml:"slide_time" json:"slide_time"`
	ReadoutTime    time.Duration `yaml:"readout_time" json:"readout_time"`
	DomeRate       float64       `yaml:"dome_rate" json:"dome_rate"`               // degrees per second
	DomeAutoOffset float64       `yaml:"dome_auto_offset" json:"dome_auto_offset"` // degrees
}

// DefaultTiming returns the timing of the DK-1.54 hardware.
func DefaultTiming() Timing {
	return Timing{
		LoginTimeout:   120 * time.Second,
		SlewRate:       3.0,
		FlipTime:       15 * time.Second,
		WheelTime:      7 * time.Second,
		FlapTime:       8 * time.Second,
		SlitTime:       8 * time.Second,
		FocusTime:      3 * time.Second,
		SlideTime:      12 * time.Second,
		ReadoutTime:    30 * time.Second,
		DomeRate:       3.0,
		DomeAutoOffset: 4.0,
	}
}

// Validate reports the first unusable value.
func (t Timing) Validate() error {
	if t.SlewRate <= 0 {
		return fmt.Errorf("slew_rate must be positive, got %v", t.SlewRate)
	}
	if t.DomeRate <= 0 {
		return fmt.Errorf("dome_rate must be positive, got %v", t.DomeRate)
	}
	if t.DomeAutoOffset < 0 {
		return fmt.Errorf("dome_auto_offset must not be negative, got %v", t.DomeAutoOffset)
	}
	durations := map[string]time.Duration{
		"login_timeout": t.LoginTimeout,
		"flip_time":     t.FlipTime,
		"wheel_time":    t.WheelTime,
		"flap_time":     t.FlapTime,
		"slit_time":     t.SlitTime,
		"focus_time":    t.FocusTime,
		"slide_time":    t.SlideTime,
		"readout_time":  t.ReadoutTime,
	}
	for name, d := range durations {
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %v", name, d)
		}
	}
	return nil
}

// degreesPerSecond converts an angular distance into a duration at rate.
func degreesPerSecond(distance, rate float64) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(distance / rate * float64(time.Second))
}
