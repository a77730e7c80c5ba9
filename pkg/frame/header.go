package frame

import (
	"time"

	"dk154mock/pkg/astro"

	"github.com/astrogo/fitsio"
)

const (
	Observatory = "Mock La Silla"
	Telescope   = "DK-1.54 MOCK"
)

// Exposure is the observatory state captured when an exposure starts.
type Exposure struct {
	ID        string
	Start     time.Time
	Pointing  astro.Equatorial
	Object    string
	ImageType string
	ExpTime   float64
	Shutter   string
	FilterA   string
	FilterB   string
	Binning   Binning
}

// Header is an ordered list of FITS cards.
type Header []fitsio.Card

// Get returns the value of the first card called name.
func (h Header) Get(name string) (any, bool) {
	for _, c := range h {
		if c.Name == name {
			return c.Value, true
		}
	}
	return nil, false
}

// Header builds the primary header for e, including a TAN projection
// centred on the pointing.
func (s Sensor) Header(e Exposure) Header {
	b := e.Binning
	if b.X < 1 || b.Y < 1 {
		b = Binning{1, 1}
	}
	ny, nx := s.Shape(b)
	yscale, xscale := s.Scale(b)

	return Header{
		{Name: "EXPID", Value: e.ID, Comment: "exposure identifier"},
		{Name: "JD", Value: astro.JulianDate(e.Start), Comment: "Julian date at start"},
		{Name: "DATE-OBS", Value: e.Start.UTC().Format("2006-01-02T15:04:05.000"), Comment: "UTC at start"},
		{Name: "OBJECT", Value: e.Object},
		{Name: "OBSERVAT", Value: Observatory},
		{Name: "TELESCOP", Value: Telescope},
		{Name: "EXPTIME", Value: e.ExpTime, Comment: "[s]"},
		{Name: "IMAGETYP", Value: e.ImageType},
		{Name: "SHUTTER", Value: e.Shutter, Comment: "1 open, 0 closed"},
		{Name: "FILTA", Value: e.FilterA},
		{Name: "FILTB", Value: e.FilterB},
		{Name: "BINNING", Value: b.String()},
		{Name: "GAIN1", Value: s.Gain, Comment: "[e-/ADU]"},
		{Name: "GAIN2", Value: s.Gain, Comment: "[e-/ADU]"},
		{Name: "SECPPIX", Value: xscale, Comment: "[arcsec/pixel]"},
		{Name: "CCDPSIZ", Value: s.PixelSize, Comment: "[mm]"},
		{Name: "CTYPE1", Value: "RA---TAN"},
		{Name: "CTYPE2", Value: "DEC--TAN"},
		{Name: "CUNIT1", Value: "deg"},
		{Name: "CUNIT2", Value: "deg"},
		{Name: "CRPIX1", Value: float64(nx) / 2},
		{Name: "CRPIX2", Value: float64(ny) / 2},
		{Name: "CRVAL1", Value: e.Pointing.RA},
		{Name: "CRVAL2", Value: e.Pointing.Dec},
		{Name: "CDELT1", Value: xscale / 3600},
		{Name: "CDELT2", Value: yscale / 3600},
		{Name: "PV2_1", Value: 45.0},
	}
}
