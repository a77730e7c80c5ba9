// Package ccd3 serves the CCD3 camera controller HTTP API.
package ccd3

import (
	"html/template"
	"net/http"

	"dk154mock/pkg/frame"
	"dk154mock/pkg/hardware"
	"dk154mock/pkg/store"

	log "github.com/sirupsen/logrus"
)

// DefaultPort is the port of the real CCD3 controller.
const DefaultPort = 8884

// Server answers CCD3 requests against an observatory.
type Server struct {
	obs    *hardware.Observatory
	store  *store.Store
	tmpl   *template.Template
	sensor frame.Sensor
	logger log.FieldLogger

	// Frame output is optional.
	synth   *frame.Synthesizer
	archive *frame.Archive
}

// Option configures a Server.
type Option func(*Server)

// WithFrames makes expose synthesise a frame and write it to archive.
func WithFrames(synth *frame.Synthesizer, archive *frame.Archive) Option {
	return func(s *Server) {
		s.synth = synth
		s.archive = archive
	}
}

// WithSensor overrides the detector used for exposure headers.
func WithSensor(sensor frame.Sensor) Option {
	return func(s *Server) {
		s.sensor = sensor
	}
}

func NewServer(obs *hardware.Observatory, st *store.Store, tmpl *template.Template, logger log.FieldLogger, opts ...Option) *Server {
	s := &Server{
		obs:    obs,
		store:  st,
		tmpl:   tmpl,
		sensor: frame.DefaultSensor(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.synth != nil {
		s.sensor = s.synth.Sensor()
	}
	return s
}

func (s *Server) AddRoutes() *http.ServeMux {
	r := http.NewServeMux()
	r.HandleFunc("GET /api/get", s.handleGet)
	r.HandleFunc("GET /api/mset", s.handleMSet)
	r.HandleFunc("GET /api/expose", s.handleExpose)
	r.HandleFunc("/api/", s.handleUnknown)
	// Without an exact /api the mux would redirect it to /api/.
	r.HandleFunc("/api", s.handleUnknown)
	r.HandleFunc("/", s.handleUnknown)

	r.HandleFunc("GET /status", s.handleStatus)
	r.HandleFunc("GET /exposures", s.handleExposures)
	r.HandleFunc("GET /setup", s.handleSetup)
	r.HandleFunc("POST /setup", s.handleSetup)
	return r
}
