// Package tcpserver serves line-oriented request/reply protocols over TCP.
package tcpserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultIdleTimeout = 600 * time.Second
	writeTimeout       = 10 * time.Second
	maxFrameSize       = 64 * 1024
)

// Responder turns one request frame, without its line terminator, into one
// reply line.
type Responder interface {
	Respond(ctx context.Context, frame string) string
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, frame string) string

func (f ResponderFunc) Respond(ctx context.Context, frame string) string {
	return f(ctx, frame)
}

type connIDKey struct{}

// ConnID returns the id of the connection a request arrived on.
func ConnID(ctx context.Context) string {
	id, _ := ctx.Value(connIDKey{}).(string)
	return id
}

// Option configures a Server.
type Option func(*Server)

// WithIdleTimeout closes connections that send nothing for d.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.idleTimeout = d
		}
	}
}

// WithErrorReply sets the reply sent when a responder panics.
func WithErrorReply(reply string) Option {
	return func(s *Server) {
		s.errorReply = reply
	}
}

// Server accepts connections and runs one goroutine per connection.
type Server struct {
	name        string
	addr        string
	responder   Responder
	idleTimeout time.Duration
	errorReply  string
	logger      log.FieldLogger

	listener net.Listener
	mu       sync.Mutex
	conns    map[string]net.Conn
	wg       sync.WaitGroup
}

func New(name, addr string, responder Responder, logger log.FieldLogger, opts ...Option) *Server {
	s := &Server{
		name:        name,
		addr:        addr,
		responder:   responder,
		idleTimeout: DefaultIdleTimeout,
		errorReply:  "ERR",
		logger:      logger.WithField("server", name),
		conns:       make(map[string]net.Conn),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Listen binds the listening socket. Run calls it if needed.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("%s: failed to listen on %s: %v", s.name, s.addr, err)
	}
	s.listener = l
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run accepts connections until ctx is cancelled, then closes every open
// connection and waits for their goroutines.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.logger.Infof("Listening on %s", s.listener.Addr())

	go func() {
		<-ctx.Done()
		s.listener.Close()
		s.closeConns()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Errorf("Failed to accept connection: %v", err)
			continue
		}

		id := uuid.NewString()
		s.track(id, conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(id)
			s.handle(ctx, id, conn)
		}()
	}

	s.wg.Wait()
	s.logger.Info("Stopped")
	return nil
}

func (s *Server) track(id string, conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[id] = conn
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, id)
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		conn.Close()
	}
}

func (s *Server) handle(ctx context.Context, id string, conn net.Conn) {
	defer conn.Close()

	logger := s.logger.WithFields(log.Fields{
		"conn":   id,
		"remote": conn.RemoteAddr().String(),
	})
	logger.Info("Client connected")
	ctx = context.WithValue(ctx, connIDKey{}, id)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 1024), maxFrameSize)

	for {
		conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		if !scanner.Scan() {
			break
		}

		frame := scanner.Text()
		reply := s.respond(ctx, logger, frame)

		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if _, err := conn.Write([]byte(reply + "\n")); err != nil {
			logger.Warnf("Failed to write reply: %v", err)
			return
		}
	}

	if err := scanner.Err(); err != nil {
		var netErr net.Error
		switch {
		case errors.As(err, &netErr) && netErr.Timeout():
			logger.Info("Closing idle connection")
			return
		case errors.Is(err, net.ErrClosed):
		default:
			logger.Warnf("Read failed: %v", err)
			return
		}
	}
	logger.Info("Client disconnected")
}

// respond isolates a panicking responder so the connection survives.
func (s *Server) respond(ctx context.Context, logger log.FieldLogger, frame string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Panic handling %q: %v", frame, r)
			reply = s.errorReply
		}
	}()
	logger.Debugf("<- %q", frame)
	reply = strings.TrimRight(s.responder.Respond(ctx, frame), "\r\n")
	logger.Debugf("-> %q", reply)
	return reply
}
