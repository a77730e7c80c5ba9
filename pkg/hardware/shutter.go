package hardware

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Shutter positions as seen on the ASCOL side.
const (
	ShutterClosed = "0"
	ShutterOpen   = "1"
)

// Shutter is the camera shutter. It moves instantly.
type Shutter struct {
	position string
	logger   log.FieldLogger
}

// NewShutter returns a closed shutter.
func NewShutter(logger log.FieldLogger) *Shutter {
	return &Shutter{position: ShutterClosed, logger: logger}
}

// Set moves the shutter.
func (s *Shutter) Set(pos string) error {
	if pos != ShutterClosed && pos != ShutterOpen {
		return fmt.Errorf("shutter position %q, use '0' or '1': %w", pos, ErrInvalidParameter)
	}
	if pos != s.position {
		s.logger.Infof("Shutter %s", map[string]string{ShutterOpen: "open", ShutterClosed: "closed"}[pos])
	}
	s.position = pos
	return nil
}

// Position returns the shutter position.
func (s *Shutter) Position() string {
	return s.position
}
