// Package frame synthesises CCD3 frames and writes them as FITS files.
package frame

import (
	"fmt"
	"strconv"
	"strings"
)

// Sensor describes the simulated detector.
type Sensor struct {
	Gain       float64 `yaml:"gain" json:"gain"`
	Bias       float64 `yaml:"bias" json:"bias"`
	XLen       int     `yaml:"xlen" json:"xlen"`
	YLen       int     `yaml:"ylen" json:"ylen"`
	Current    float64 `yaml:"current" json:"current"` // dark current, e-/s/pixel
	BadColumns int     `yaml:"bad_columns" json:"bad_columns"`
	HotPixels  float64 `yaml:"hot_pixels" json:"hot_pixels"` // fraction of pixels
	SkyCounts  float64 `yaml:"sky_counts" json:"sky_counts"`
	Overscan   int     `yaml:"overscan" json:"overscan"`
	PlateScale float64 `yaml:"plate_scale" json:"plate_scale"` // arcsec per unbinned pixel
	PixelSize  float64 `yaml:"pixel_size" json:"pixel_size"`   // mm
	Stars      int     `yaml:"stars" json:"stars"`
	StarFlux   float64 `yaml:"star_flux" json:"star_flux"` // e-/s of the brightest star
	Seeing     float64 `yaml:"seeing" json:"seeing"`       // FWHM, arcsec
}

// DefaultSensor returns the CCD3 detector.
func DefaultSensor() Sensor {
	return Sensor{
		Gain:       1.0,
		Bias:       1200.0,
		XLen:       2148,
		YLen:       2064,
		Current:    0.1,
		BadColumns: 8,
		HotPixels:  1e-4,
		SkyCounts:  4,
		Overscan:   100,
		PlateScale: 0.396,
		PixelSize:  0.0135,
		Stars:      40,
		StarFlux:   50000,
		Seeing:     1.5,
	}
}

// Validate reports the first unusable value.
func (s Sensor) Validate() error {
	switch {
	case s.Gain <= 0:
		return fmt.Errorf("gain must be positive, got %v", s.Gain)
	case s.XLen <= 0 || s.YLen <= 0:
		return fmt.Errorf("sensor size must be positive, got %dx%d", s.XLen, s.YLen)
	case s.Overscan < 0 || s.Overscan >= s.XLen:
		return fmt.Errorf("overscan %d outside sensor width %d", s.Overscan, s.XLen)
	case s.HotPixels < 0 || s.HotPixels > 1:
		return fmt.Errorf("hot_pixels must be a fraction, got %v", s.HotPixels)
	case s.Stars < 0 || s.StarFlux < 0:
		return fmt.Errorf("stars and star_flux must not be negative, got %d and %v", s.Stars, s.StarFlux)
	case s.Stars > 0 && (s.Seeing <= 0 || s.PlateScale <= 0):
		return fmt.Errorf("stars need a positive seeing and plate_scale, got %v and %v", s.Seeing, s.PlateScale)
	}
	return nil
}

// Binning is the on-chip binning factor along each axis.
type Binning struct {
	Y, X int
}

// ParseBinning parses "YxX", e.g. "2x2". Empty means unbinned.
func ParseBinning(s string) (Binning, error) {
	if s == "" {
		return Binning{1, 1}, nil
	}
	ys, xs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return Binning{}, fmt.Errorf("binning %q: expected YxX", s)
	}
	y, err := strconv.Atoi(ys)
	if err != nil || y < 1 {
		return Binning{}, fmt.Errorf("binning %q: bad Y factor", s)
	}
	x, err := strconv.Atoi(xs)
	if err != nil || x < 1 {
		return Binning{}, fmt.Errorf("binning %q: bad X factor", s)
	}
	return Binning{Y: y, X: x}, nil
}

func (b Binning) String() string {
	return fmt.Sprintf("%dx%d", b.Y, b.X)
}

// Shape returns the binned image size.
func (s Sensor) Shape(b Binning) (ny, nx int) {
	return s.YLen / b.Y, s.XLen / b.X
}

// Scale returns the binned plate scale in arcsec per pixel.
func (s Sensor) Scale(b Binning) (yscale, xscale float64) {
	return s.PlateScale * float64(b.Y), s.PlateScale * float64(b.X)
}
