package ascol

import (
	"context"
	"errors"
	"time"

	"dk154mock/pkg/hardware"
	"dk154mock/pkg/tcpserver"

	log "github.com/sirupsen/logrus"
)

// DefaultPort is the ASCOL port of the real telescope controller.
const DefaultPort = 8888

// Responder answers ASCOL requests against an observatory.
type Responder struct {
	obs    *hardware.Observatory
	logger log.FieldLogger
}

func NewResponder(obs *hardware.Observatory, logger log.FieldLogger) *Responder {
	return &Responder{obs: obs, logger: logger}
}

// Respond decodes frame, checks the power and login gates and runs the
// command. Failures become an error token.
func (r *Responder) Respond(ctx context.Context, frame string) string {
	logger := r.logger.WithField("conn", tcpserver.ConnID(ctx))

	cmd, err := Parse(frame)
	if err != nil {
		logger.Warnf("Rejected %q: %v", frame, err)
		return ErrorToken(err)
	}

	var reply []string
	err = r.obs.Exec(func(d *hardware.Devices, now time.Time) error {
		if err := Gate(d, now, cmd.Code); err != nil {
			return err
		}
		var err error
		reply, err = Handle(d, now, cmd)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrPowerOff), errors.Is(err, ErrLoginRequired):
			logger.Warnf("Refused %s: %v", cmd, err)
		default:
			logger.Errorf("Failed %s: %v", cmd, err)
		}
		return ErrorToken(err)
	}

	logger.Debugf("%s -> %v", cmd, reply)
	return Encode(reply...)
}

// NewServer returns a TCP server speaking ASCOL on addr.
func NewServer(addr string, obs *hardware.Observatory, idle time.Duration, logger log.FieldLogger) *tcpserver.Server {
	return tcpserver.New("ascol", addr, NewResponder(obs, logger.WithField("server", "ascol")), logger,
		tcpserver.WithIdleTimeout(idle),
		tcpserver.WithErrorReply("ERR"),
	)
}
