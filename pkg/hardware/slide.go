package hardware

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Slide geometry shared by the DFOSC grism, aperture and filter wheels.
const (
	SlideMaxPosition = 320000
	SlidePresetStep  = 40000
)

// Slide is a DFOSC positioning wheel. The reported position jumps to the
// target immediately; readiness follows the transit time.
type Slide struct {
	name     string
	duration time.Duration
	logger   log.FieldLogger

	position int
	move     transit
}

// NewSlide returns a ready slide at pos.
func NewSlide(name string, duration time.Duration, pos int, logger log.FieldLogger) *Slide {
	return &Slide{
		name:     name,
		duration: duration,
		logger:   logger,
		position: wrapSlide(pos),
	}
}

func wrapSlide(pos int) int {
	pos %= SlideMaxPosition
	if pos < 0 {
		pos += SlideMaxPosition
	}
	return pos
}

// MoveTo starts an absolute move. Positions wrap modulo the slide range.
func (s *Slide) MoveTo(now time.Time, pos int) {
	s.position = wrapSlide(pos)
	s.move.begin(now, s.duration)
	s.logger.Infof("Moving %s to %d", s.name, s.position)
}

// MoveBy starts a relative move.
func (s *Slide) MoveBy(now time.Time, delta int) {
	s.MoveTo(now, s.position+delta)
}

// Preset moves to one of the fixed preset positions 0-9.
func (s *Slide) Preset(now time.Time, n int) error {
	if n < 0 || n > 9 {
		return fmt.Errorf("%s preset %d: %w", s.name, n, ErrInvalidParameter)
	}
	s.MoveTo(now, n*SlidePresetStep)
	return nil
}

// Home moves to position zero.
func (s *Slide) Home(now time.Time) {
	s.MoveTo(now, 0)
}

// Stop ends any motion and marks the slide ready.
func (s *Slide) Stop() {
	if s.move.active {
		s.logger.Infof("Stopped %s at %d", s.name, s.position)
	}
	s.move.clear()
}

// Position returns the commanded position.
func (s *Slide) Position() int {
	return s.position
}

// Ready reports whether the slide has settled at now.
func (s *Slide) Ready(now time.Time) bool {
	if s.move.done(now) {
		if s.move.active {
			s.logger.Debugf("%s ready at %d", s.name, s.position)
		}
		s.move.clear()
		return true
	}
	return false
}
