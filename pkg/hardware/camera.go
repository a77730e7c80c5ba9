package hardware

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Camera state codes as reported by the CCD3 controller.
const (
	CameraReady    = 0
	CameraReading  = 2
	CameraExposing = 67108865
)

// Exposure parameters accepted by LoadParameters.
const (
	ParamAsync     = "async"
	ParamExposure  = "CCD3.exposure"
	ParamImageType = "CCD3.IMAGETYP"
	ParamObject    = "CCD3.OBJECT"
	ParamBinning   = "CCD3.binning"
	ParamShutter   = "CCD3.SHUTTER"
	ParamFilterA   = "WASA.filter"
	ParamFilterB   = "WASB.filter"
)

var acceptedParameters = []string{
	ParamAsync,
	ParamExposure,
	ParamImageType,
	ParamObject,
	ParamBinning,
	ParamShutter,
	ParamFilterA,
	ParamFilterB,
}

// Parameters cleared once an exposure has been read out. Binning and shutter
// persist between exposures.
var perExposureParameters = []string{
	ParamAsync,
	ParamExposure,
	ParamImageType,
	ParamObject,
	ParamFilterA,
	ParamFilterB,
}

// IsCameraParameter reports whether name is an accepted exposure parameter.
func IsCameraParameter(name string) bool {
	return slices.Contains(acceptedParameters, name)
}

// Camera models the CCD3 exposure timer.
type Camera struct {
	logger  log.FieldLogger
	readout time.Duration

	params  map[string]any
	start   time.Time
	started bool
}

// NewCamera returns an idle camera.
func NewCamera(readout time.Duration, logger log.FieldLogger) *Camera {
	return &Camera{
		logger:  logger,
		readout: readout,
		params:  map[string]any{},
	}
}

// LoadParameters merges params into the loaded set. If any name is not
// accepted nothing is loaded.
func (c *Camera) LoadParameters(params map[string]any) error {
	for name := range params {
		if !IsCameraParameter(name) {
			return fmt.Errorf("unexpected parameter %q: %w", name, ErrInvalidParameter)
		}
	}
	maps.Copy(c.params, params)
	return nil
}

// Parameters returns a copy of the loaded parameters.
func (c *Camera) Parameters() map[string]any {
	return maps.Clone(c.params)
}

// Parameter returns a loaded parameter as a string.
func (c *Camera) Parameter(name string) (string, bool) {
	v, ok := c.params[name]
	if !ok {
		return "", false
	}
	switch v := v.(type) {
	case string:
		return v, true
	case []string:
		if len(v) == 0 {
			return "", false
		}
		return v[len(v)-1], true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return fmt.Sprint(v), true
	}
}

// ExposureTime returns the loaded exposure time in seconds.
func (c *Camera) ExposureTime() (float64, error) {
	v, ok := c.params[ParamExposure]
	if !ok {
		return 0, fmt.Errorf("%s: %w", ParamExposure, ErrNotSet)
	}
	var exptime float64
	switch v := v.(type) {
	case float64:
		exptime = v
	default:
		s, _ := c.Parameter(ParamExposure)
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%s %q: %w", ParamExposure, s, ErrInvalidParameter)
		}
		exptime = f
	}
	if err := CheckExposureTime(exptime); err != nil {
		return 0, err
	}
	return exptime, nil
}

// MaxExposureTime is the longest exposure the camera accepts.
const MaxExposureTime = 24 * time.Hour

// CheckExposureTime rejects exposure times, in seconds, that are negative,
// not finite or longer than MaxExposureTime.
func CheckExposureTime(exptime float64) error {
	if math.IsNaN(exptime) || exptime < 0 || exptime > MaxExposureTime.Seconds() {
		return fmt.Errorf("%s %v: %w", ParamExposure, exptime, ErrInvalidParameter)
	}
	return nil
}

// Start begins an exposure at now. Starting while another exposure is in
// flight restarts the timer.
func (c *Camera) Start(now time.Time) error {
	exptime, err := c.ExposureTime()
	if err != nil {
		return err
	}
	c.start = now
	c.started = true
	c.logger.Infof("Exposure started, %.2fs", exptime)
	return nil
}

// State returns the camera state code at now.
func (c *Camera) State(now time.Time) int {
	if !c.started {
		return CameraReady
	}
	exptime, err := c.ExposureTime()
	if err != nil {
		c.started = false
		return CameraReady
	}
	exposure := time.Duration(exptime * float64(time.Second))
	elapsed := now.Sub(c.start)
	switch {
	case elapsed < exposure:
		return CameraExposing
	case elapsed < exposure+c.readout:
		return CameraReading
	}
	c.started = false
	for _, name := range perExposureParameters {
		delete(c.params, name)
	}
	c.logger.Info("Exposure read out")
	return CameraReady
}
