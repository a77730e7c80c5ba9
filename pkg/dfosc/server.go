package dfosc

import (
	"context"
	"time"

	"dk154mock/pkg/hardware"
	"dk154mock/pkg/tcpserver"

	log "github.com/sirupsen/logrus"
)

const errorReply = "ERR"

// Responder answers DFOSC requests against an observatory.
type Responder struct {
	obs    *hardware.Observatory
	logger log.FieldLogger
}

func NewResponder(obs *hardware.Observatory, logger log.FieldLogger) *Responder {
	return &Responder{obs: obs, logger: logger}
}

// Respond decodes and runs one request. Every failure is reported as ERR.
func (r *Responder) Respond(ctx context.Context, frame string) string {
	logger := r.logger.WithField("conn", tcpserver.ConnID(ctx))

	cmd, err := Decode(frame)
	if err != nil {
		logger.Warnf("Rejected %q: %v", frame, err)
		return errorReply
	}

	var reply string
	err = r.obs.Exec(func(d *hardware.Devices, now time.Time) error {
		var err error
		reply, err = Handle(d, now, cmd)
		return err
	})
	if err != nil {
		logger.Errorf("Failed %q: %v", cmd.Raw, err)
		return errorReply
	}

	logger.Debugf("%q -> %q", cmd.Raw, reply)
	return Encode(reply)
}

// NewServer returns a TCP server speaking DFOSC on addr.
func NewServer(addr string, obs *hardware.Observatory, idle time.Duration, logger log.FieldLogger) *tcpserver.Server {
	return tcpserver.New("dfosc", addr, NewResponder(obs, logger.WithField("server", "dfosc")), logger,
		tcpserver.WithIdleTimeout(idle),
		tcpserver.WithErrorReply(errorReply),
	)
}
