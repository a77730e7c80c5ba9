package ascol

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"dk154mock/pkg/astro"
	"dk154mock/pkg/hardware"
)

const (
	ack = "1"
	eot = "---"
)

func acked() ([]string, error) {
	return []string{ack, eot}, nil
}

func value(v string) ([]string, error) {
	return []string{v, eot}, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number: %w", s, hardware.ErrInvalidParameter)
	}
	return f, nil
}

// Gate checks the power and login preconditions of cmd.
func Gate(d *hardware.Devices, now time.Time, code Code) error {
	if code.RequiresPower() && !d.Telescope.Powered() {
		return fmt.Errorf("%s: %w", code, ErrPowerOff)
	}
	if code.RequiresLogin() && !d.Telescope.LoggedIn(now) {
		return fmt.Errorf("%s: %w", code, ErrLoginRequired)
	}
	return nil
}

// Handle runs one command against the devices and returns the reply fields.
func Handle(d *hardware.Devices, now time.Time, cmd Command) ([]string, error) {
	switch cmd.Code {
	case GLRE:
		return value(d.Telescope.RemoteState())
	case GLSR:
		return value(d.Telescope.SafetyRelayState())
	case GLLG:
		d.Telescope.Login(now)
		return acked()
	case GLUT:
		utc := now.UTC()
		hours := float64(utc.Hour()) + float64(utc.Minute())/60 +
			(float64(utc.Second())+float64(utc.Nanosecond())/1e9)/3600
		mjd := int(astro.ModifiedJulianDate(utc))
		return []string{strconv.Itoa(mjd), astro.FormatHours(hours), eot}, nil
	case GLSD:
		lst := astro.SiderealTime(now, d.Telescope.Site().Longitude)
		return value(astro.FormatHours(lst / 15.0))
	case GLLL, TEFL:
		return nil, fmt.Errorf("%s: %w", cmd.Code, hardware.ErrNotImplemented)

	case TEON:
		switch cmd.Args[0] {
		case "1":
			d.Telescope.SetPower(now, true)
		case "0":
			d.Telescope.SetPower(now, false)
		default:
			return nil, fmt.Errorf("TEON %q: %w", cmd.Args[0], hardware.ErrInvalidParameter)
		}
		return acked()
	case TEST:
		d.Telescope.Stop(now)
		return acked()
	case TEPA:
		d.Telescope.Park(now, d.Park.HourAngle, d.Park.Declination)
		return acked()
	case TSRA:
		ra, err := astro.ParseRA(cmd.Args[0])
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, hardware.ErrInvalidParameter)
		}
		dec, err := astro.ParseDec(cmd.Args[1])
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, hardware.ErrInvalidParameter)
		}
		if err := d.Telescope.SetTarget(ra, dec, cmd.Args[2]); err != nil {
			return nil, err
		}
		return acked()
	case TGRA:
		if err := d.Telescope.GoTarget(now); err != nil {
			return nil, err
		}
		return acked()
	case TRRD:
		pos, pier := d.Telescope.Position(now)
		return []string{astro.FormatRA(pos.RA), astro.FormatDec(pos.Dec), pier, eot}, nil
	case TRHD:
		hz := d.Telescope.Horizontal(now)
		return []string{fmt.Sprintf("%.2f", hz.Alt), fmt.Sprintf("%.2f", hz.Az), eot}, nil
	case TERS:
		return value(d.Telescope.State(now))

	case DOSA:
		az, err := parseFloat(cmd.Args[0])
		if err != nil {
			return nil, err
		}
		if err := d.Dome.SetAbsolute(az); err != nil {
			return nil, err
		}
		return acked()
	case DOGA:
		if err := d.Dome.GoAbsolute(now); err != nil {
			return nil, err
		}
		return acked()
	case DOSR:
		delta, err := parseFloat(cmd.Args[0])
		if err != nil {
			return nil, err
		}
		if err := d.Dome.SetRelative(delta); err != nil {
			return nil, err
		}
		return acked()
	case DOGR:
		if err := d.Dome.GoRelative(now); err != nil {
			return nil, err
		}
		return acked()
	case DOAM:
		d.Dome.SetAuto(now)
		return acked()
	case DOPA:
		d.Dome.Park(now, d.Park.DomeAzimuth)
		return acked()
	case DOST:
		d.Dome.Stop(now)
		return acked()
	case DORA:
		// Round before wrapping so 359.999 reads as 0.00, not 360.00.
		az := astro.NormalizeAngle(math.Round(d.Dome.Azimuth(now)*100) / 100)
		return value(fmt.Sprintf("%.2f", az))
	case DORS:
		return value(d.Dome.State(now))
	case DOSO:
		if err := d.Slit.Command(now, cmd.Args[0]); err != nil {
			return nil, err
		}
		return acked()
	case DOSS:
		return value(d.Slit.State(now))

	case FCOP:
		if err := d.CassegrainFlap.Command(now, cmd.Args[0]); err != nil {
			return nil, err
		}
		return acked()
	case FCRS:
		return value(d.CassegrainFlap.State(now))
	case FMOP:
		if err := d.MirrorFlap.Command(now, cmd.Args[0]); err != nil {
			return nil, err
		}
		return acked()
	case FMRS:
		return value(d.MirrorFlap.State(now))

	case WASP, WBSP:
		if err := wheel(d, cmd.Code).SetPosition(cmd.Args[0]); err != nil {
			return nil, err
		}
		return acked()
	case WAGP, WBGP:
		if err := wheel(d, cmd.Code).Go(now); err != nil {
			return nil, err
		}
		return acked()
	case WARP, WBRP:
		return value(wheel(d, cmd.Code).Position(now))
	case WARS, WBRS:
		return value(wheel(d, cmd.Code).State(now))

	case FOSA:
		pos, err := parseFloat(cmd.Args[0])
		if err != nil {
			return nil, err
		}
		if err := d.Focuser.SetAbsolute(pos); err != nil {
			return nil, err
		}
		return acked()
	case FOSR:
		delta, err := parseFloat(cmd.Args[0])
		if err != nil {
			return nil, err
		}
		if err := d.Focuser.SetRelative(now, delta); err != nil {
			return nil, err
		}
		return acked()
	case FOGA, FOGR:
		if err := d.Focuser.Go(now); err != nil {
			return nil, err
		}
		return acked()
	case FORA:
		return []string{fmt.Sprintf("%.2f", d.Focuser.Position(now))}, nil
	case FOMI:
		return []string{fmt.Sprintf("%.2f", hardware.FocusMin)}, nil
	case FOMA:
		return []string{fmt.Sprintf("%.2f", hardware.FocusMax)}, nil
	case FORS:
		return []string{d.Focuser.State(now)}, nil
	case FOST:
		d.Focuser.Stop(now)
		return acked()

	case SHOP:
		if err := d.Shutter.Set(cmd.Args[0]); err != nil {
			return nil, err
		}
		return acked()
	case SHRP:
		return value(d.Shutter.Position())

	case MEBE, MEBN, MEBW, METW, MEHU, METE, MEWS, MEPR, MEAP, MEPY:
		return []string{meteo[cmd.Code], ack, eot}, nil
	}
	return nil, fmt.Errorf("%q: %w", cmd.Code, ErrUnknownCommand)
}

func wheel(d *hardware.Devices, code Code) *hardware.Wheel {
	if code[1] == 'B' {
		return d.WheelB
	}
	return d.WheelA
}
