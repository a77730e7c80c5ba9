// Package astro adapts the meeus routines to the simulator's degree-based
// positions and ASCOL sexagesimal strings, and adds the great-circle
// geometry used for slews.
package astro

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/soniakeys/unit"
)

const (
	deg2rad = math.Pi / 180.0
	rad2deg = 180.0 / math.Pi
)

// Equatorial is a position on the sky in degrees.
type Equatorial struct {
	RA  float64 `json:"ra"`
	Dec float64 `json:"dec"`
}

// Horizontal is a position relative to the local horizon in degrees.
// Azimuth is measured from north through east.
type Horizontal struct {
	Alt float64 `json:"alt"`
	Az  float64 `json:"az"`
}

// NormalizeAngle wraps an angle in degrees into [0, 360).
func NormalizeAngle(angle float64) float64 {
	a := unit.PMod(angle, 360.0)
	if a >= 360.0 {
		a = 0
	}
	return a
}

// ShortestArc returns the signed rotation in (-180, 180] that takes from onto to.
func ShortestArc(from, to float64) float64 {
	d := NormalizeAngle(to - from)
	if d > 180.0 {
		d -= 360.0
	}
	return d
}

// ParseRA parses an ASCOL right ascension string "HHMMSS.ss" into degrees.
func ParseRA(s string) (float64, error) {
	neg, h, m, sec, err := parseSexagesimal(s)
	if err != nil {
		return 0, fmt.Errorf("invalid right ascension %q: %v", s, err)
	}
	if neg || h >= 24 {
		return 0, fmt.Errorf("right ascension %q out of range", s)
	}
	return unit.NewRA(h, m, sec).Deg(), nil
}

// ParseDec parses an ASCOL declination string "±DDMMSS.ss" into degrees.
func ParseDec(s string) (float64, error) {
	neg, d, m, sec, err := parseSexagesimal(s)
	if err != nil {
		return 0, fmt.Errorf("invalid declination %q: %v", s, err)
	}
	if d > 90 || d == 90 && (m > 0 || sec > 0) {
		return 0, fmt.Errorf("declination %q out of range", s)
	}
	var sign byte = '+'
	if neg {
		sign = '-'
	}
	return unit.NewAngle(sign, d, m, sec).Deg(), nil
}

// parseSexagesimal splits "[±]XXMMSS[.fff]" reading minutes and seconds from
// the right, so the leading field may have any number of digits.
func parseSexagesimal(s string) (neg bool, x, m int, sec float64, err error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	intPart, frac, _ := strings.Cut(s, ".")
	if len(intPart) < 5 {
		return false, 0, 0, 0, fmt.Errorf("expected at least 5 digits")
	}
	for _, c := range intPart + frac {
		if c < '0' || c > '9' {
			return false, 0, 0, 0, fmt.Errorf("unexpected character %q", c)
		}
	}

	n := len(intPart)
	x, err = strconv.Atoi(intPart[:n-4])
	if err != nil {
		return false, 0, 0, 0, err
	}
	m, _ = strconv.Atoi(intPart[n-4 : n-2])
	secStr := intPart[n-2:]
	if frac != "" {
		secStr += "." + frac
	}
	sec, _ = strconv.ParseFloat(secStr, 64)

	if m >= 60 || sec >= 60 {
		return false, 0, 0, 0, fmt.Errorf("minutes or seconds out of range")
	}
	return neg, x, m, sec, nil
}

// FormatRA formats degrees as "HHMMSS.ss".
func FormatRA(ra float64) string {
	cs := int64(math.Round(NormalizeAngle(ra) / 15.0 * 360000.0))
	cs %= 24 * 360000
	h := cs / 360000
	m := cs / 6000 % 60
	s := cs / 100 % 60
	return fmt.Sprintf("%02d%02d%02d.%02d", h, m, s, cs%100)
}

// FormatDec formats degrees as "±DDMMSS.ss".
func FormatDec(dec float64) string {
	sign := "+"
	if dec < 0 {
		sign = "-"
		dec = -dec
	}
	cs := int64(math.Round(dec * 360000.0))
	d := cs / 360000
	m := cs / 6000 % 60
	s := cs / 100 % 60
	return fmt.Sprintf("%s%02d%02d%02d.%02d", sign, d, m, s, cs%100)
}

// FormatHours formats a time of day in hours as "HHMMSS.ffffff".
func FormatHours(hours float64) string {
	us := int64(math.Round(math.Mod(hours, 24.0) * 3600e6))
	if us < 0 {
		us += 24 * 3600e6
	}
	us %= 24 * 3600e6
	h := us / 3600e6
	m := us / 60e6 % 60
	s := us / 1e6 % 60
	return fmt.Sprintf("%02d%02d%02d.%06d", h, m, s, us%1e6)
}

type vec3 [3]float64

func toVec(c Equatorial) vec3 {
	ra, dec := c.RA*deg2rad, c.Dec*deg2rad
	return vec3{math.Cos(dec) * math.Cos(ra), math.Cos(dec) * math.Sin(ra), math.Sin(dec)}
}

func fromVec(v vec3) Equatorial {
	r := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	dec := math.Asin(math.Max(-1, math.Min(1, v[2]/r))) * rad2deg
	ra := NormalizeAngle(math.Atan2(v[1], v[0]) * rad2deg)
	return Equatorial{RA: ra, Dec: dec}
}

func dot(a, b vec3) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func cross(a, b vec3) vec3 {
	return vec3{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}

func norm(a vec3) float64 { return math.Sqrt(dot(a, a)) }

// Separation returns the angular distance between two positions in degrees.
func Separation(a, b Equatorial) float64 {
	va, vb := toVec(a), toVec(b)
	return math.Atan2(norm(cross(va, vb)), dot(va, vb)) * rad2deg
}

// Interpolate returns the point a fraction f of the way from a to b along
// the great circle joining them. f is clamped to [0, 1].
func Interpolate(a, b Equatorial, f float64) Equatorial {
	f = math.Max(0, math.Min(1, f))
	switch f {
	case 0:
		return a
	case 1:
		return b
	}

	va, vb := toVec(a), toVec(b)
	omega := math.Atan2(norm(cross(va, vb)), dot(va, vb))
	if omega < 1e-12 {
		return a
	}

	sinOmega := math.Sin(omega)
	if sinOmega < 1e-9 {
		// Antipodal: any great circle will do, rotate through a perpendicular.
		axis := vec3{0, 0, 1}
		if math.Abs(va[2]) > 0.9 {
			axis = vec3{1, 0, 0}
		}
		u := cross(va, axis)
		n := norm(u)
		u = vec3{u[0] / n, u[1] / n, u[2] / n}
		c, s := math.Cos(f*omega), math.Sin(f*omega)
		return fromVec(vec3{c*va[0] + s*u[0], c*va[1] + s*u[1], c*va[2] + s*u[2]})
	}

	wa := math.Sin((1-f)*omega) / sinOmega
	wb := math.Sin(f*omega) / sinOmega
	return fromVec(vec3{
		wa*va[0] + wb*vb[0],
		wa*va[1] + wb*vb[1],
		wa*va[2] + wb*vb[2],
	})
}
