package dfosc

import (
	"fmt"
	"time"

	"dk154mock/pkg/hardware"
)

// DefaultPort is the DFOSC port of the real instrument controller.
const DefaultPort = 8883

func slide(d *hardware.Devices, wheel byte) *hardware.Slide {
	switch wheel {
	case 'a':
		return d.Aperture
	case 'f':
		return d.Filter
	default:
		return d.Grism
	}
}

// Handle runs one command and returns the unterminated reply.
func Handle(d *hardware.Devices, now time.Time, cmd Command) (string, error) {
	s := slide(d, cmd.Wheel)

	switch cmd.Op {
	case OpReady:
		if s.Ready(now) {
			return "y", nil
		}
		return "n", nil
	case OpPosition:
		return fmt.Sprintf("%06d", s.Position()), nil
	case OpAbsolute:
		s.MoveTo(now, cmd.Arg)
	case OpRelative:
		s.MoveBy(now, cmd.Arg)
	case OpPreset:
		if err := s.Preset(now, cmd.Arg); err != nil {
			return "", err
		}
	case OpHome:
		s.Home(now)
	case OpInit, OpStop:
		s.Stop()
	case OpIDFOC:
		return "", fmt.Errorf("%s: %w", cmd.Key, hardware.ErrNotImplemented)
	default:
		return "", fmt.Errorf("%s: %w", cmd.Key, ErrUnknownCommand)
	}
	return cmd.Raw, nil
}
