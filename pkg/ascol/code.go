// Package ascol implements the telescope control protocol: fixed four-letter
// command codes with whitespace separated arguments, one command per line.
package ascol

// Code is an ASCOL command code.
type Code string

const (
	// Global
	GLRE Code = "GLRE" // Read remote state
	GLSR Code = "GLSR" // Read safety relay state
	GLLG Code = "GLLG" // Login
	GLLL Code = "GLLL" // Read limits
	GLUT Code = "GLUT" // Read UTC
	GLSD Code = "GLSD" // Read sidereal time

	// Telescope
	TEON Code = "TEON" // Power on/off
	TEST Code = "TEST" // Stop
	TEFL Code = "TEFL" // Flip
	TEPA Code = "TEPA" // Park
	TSRA Code = "TSRA" // Set RA/Dec/pier target
	TGRA Code = "TGRA" // Go to RA/Dec target
	TRRD Code = "TRRD" // Read RA/Dec
	TRHD Code = "TRHD" // Read alt/az
	TERS Code = "TERS" // Read telescope state

	// Dome
	DOSA Code = "DOSA" // Set absolute azimuth
	DOGA Code = "DOGA" // Go absolute azimuth
	DOSR Code = "DOSR" // Set relative azimuth
	DOGR Code = "DOGR" // Go relative azimuth
	DOAM Code = "DOAM" // Auto mode
	DOPA Code = "DOPA" // Park
	DOST Code = "DOST" // Stop
	DORA Code = "DORA" // Read azimuth
	DORS Code = "DORS" // Read dome state
	DOSO Code = "DOSO" // Open/close slit
	DOSS Code = "DOSS" // Read slit state

	// Flaps
	FCOP Code = "FCOP" // Open/close Cassegrain flap
	FCRS Code = "FCRS" // Read Cassegrain flap state
	FMOP Code = "FMOP" // Open/close mirror flap
	FMRS Code = "FMRS" // Read mirror flap state

	// Filter wheels
	WASP Code = "WASP" // Set wheel A position
	WAGP Code = "WAGP" // Go wheel A position
	WARP Code = "WARP" // Read wheel A position
	WARS Code = "WARS" // Read wheel A state
	WBSP Code = "WBSP" // Set wheel B position
	WBGP Code = "WBGP" // Go wheel B position
	WBRP Code = "WBRP" // Read wheel B position
	WBRS Code = "WBRS" // Read wheel B state

	// Focus
	FOSA Code = "FOSA" // Set absolute focus
	FOSR Code = "FOSR" // Set relative focus
	FOGA Code = "FOGA" // Go absolute focus
	FOGR Code = "FOGR" // Go relative focus
	FORA Code = "FORA" // Read focus position
	FOMI Code = "FOMI" // Read focus minimum
	FOMA Code = "FOMA" // Read focus maximum
	FORS Code = "FORS" // Read focus state
	FOST Code = "FOST" // Stop focus

	// Shutter
	SHOP Code = "SHOP" // Open/close shutter
	SHRP Code = "SHRP" // Read shutter position

	// Meteo
	MEBE Code = "MEBE" // Brightness east
	MEBN Code = "MEBN" // Brightness north
	MEBW Code = "MEBW" // Brightness west
	METW Code = "METW" // Twilight
	MEHU Code = "MEHU" // Humidity
	METE Code = "METE" // Temperature
	MEWS Code = "MEWS" // Wind speed
	MEPR Code = "MEPR" // Precipitation
	MEAP Code = "MEAP" // Atmospheric pressure
	MEPY Code = "MEPY" // Pyrgeometer
)

type arity struct {
	min, max int
}

var (
	none = arity{0, 0}
	one  = arity{1, 1}
)

var arities = map[Code]arity{
	GLRE: none, GLSR: none, GLLG: {0, 1}, GLLL: none, GLUT: none, GLSD: none,

	TEON: one, TEST: none, TEFL: none, TEPA: none,
	TSRA: {3, 3}, TGRA: none, TRRD: none, TRHD: none, TERS: none,

	DOSA: one, DOGA: none, DOSR: one, DOGR: none, DOAM: none, DOPA: none,
	DOST: none, DORA: none, DORS: none, DOSO: one, DOSS: none,

	FCOP: one, FCRS: none, FMOP: one, FMRS: none,

	WASP: one, WAGP: none, WARP: none, WARS: none,
	WBSP: one, WBGP: none, WBRP: none, WBRS: none,

	FOSA: one, FOSR: one, FOGA: none, FOGR: none, FORA: none,
	FOMI: none, FOMA: none, FORS: none, FOST: none,

	SHOP: one, SHRP: none,

	MEBE: none, MEBN: none, MEBW: none, METW: none, MEHU: none,
	METE: none, MEWS: none, MEPR: none, MEAP: none, MEPY: none,
}

// meteo holds the fixed weather readings.
var meteo = map[Code]string{
	MEBE: "100.0",
	MEBN: "200.0",
	MEBW: "400.0",
	METW: "250.0",
	MEHU: "10",
	METE: "12.5",
	MEWS: "5.0",
	MEPR: "0",
	MEAP: "678.4",
	MEPY: "5.0",
}

// Known reports whether c is part of the command set.
func (c Code) Known() bool {
	_, ok := arities[c]
	return ok
}

// RequiresLogin reports whether c is refused without a valid GLLG.
func (c Code) RequiresLogin() bool {
	switch c {
	case TSRA, TGRA, WASP, WAGP, WBSP, WBGP:
		return true
	}
	return false
}

// RequiresPower reports whether c is refused while the telescope is off.
func (c Code) RequiresPower() bool {
	return c != TEON
}
