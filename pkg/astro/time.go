package astro

import (
	"time"

	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/unit"
)

// Site is the geographic location of the observatory.
type Site struct {
	Name      string  `yaml:"name" json:"name"`
	Latitude  float64 `yaml:"latitude" json:"latitude"`   // degrees, north positive
	Longitude float64 `yaml:"longitude" json:"longitude"` // degrees, east positive
	Elevation float64 `yaml:"elevation" json:"elevation"` // metres
}

// LaSilla is the DK-1.54 site.
var LaSilla = Site{
	Name:      "La Silla",
	Latitude:  -29.2563,
	Longitude: -70.7380,
	Elevation: 2375,
}

const mjdOffset = 2400000.5

// JulianDate returns the Julian date of t.
func JulianDate(t time.Time) float64 {
	return julian.TimeToJD(t.UTC())
}

// ModifiedJulianDate returns the modified Julian date of t.
func ModifiedJulianDate(t time.Time) float64 {
	return JulianDate(t) - mjdOffset
}

// greenwich returns the Greenwich mean sidereal time at t.
func greenwich(t time.Time) unit.Time {
	return sidereal.Mean(JulianDate(t))
}

// SiderealTime returns the local mean sidereal time in degrees at the given
// east longitude.
func SiderealTime(t time.Time, longitude float64) float64 {
	return NormalizeAngle(greenwich(t).Hour()*15 + longitude)
}

// ToHorizontal converts an equatorial position to altitude and azimuth as
// seen from site at time t. Azimuth runs from north through east.
func ToHorizontal(eq Equatorial, site Site, t time.Time) Horizontal {
	// coord.EqToHz takes west-positive longitude and measures azimuth
	// westward from south.
	a, h := coord.EqToHz(
		unit.RAFromDeg(eq.RA),
		unit.AngleFromDeg(eq.Dec),
		unit.AngleFromDeg(site.Latitude),
		unit.AngleFromDeg(-site.Longitude),
		greenwich(t),
	)
	return Horizontal{Alt: h.Deg(), Az: NormalizeAngle(a.Deg() + 180)}
}

// FromHourAngle returns the equatorial position with the given hour angle
// (degrees) and declination at time t.
func FromHourAngle(ha, dec float64, site Site, t time.Time) Equatorial {
	return Equatorial{
		RA:  NormalizeAngle(SiderealTime(t, site.Longitude) - ha),
		Dec: dec,
	}
}
