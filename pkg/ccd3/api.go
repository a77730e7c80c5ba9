package ccd3

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"dk154mock/pkg/frame"
	"dk154mock/pkg/hardware"
	"dk154mock/pkg/store"

	"github.com/google/uuid"
)

// CCD3 counts its shutter the other way round from ASCOL.
var ascolShutter = map[string]string{
	"0": hardware.ShutterOpen,
	"1": hardware.ShutterClosed,
}

const defaultShutter = "0"

// parseParameters turns a query into camera parameters. Repeated keys keep
// every value and the exposure time is numeric.
func parseParameters(q url.Values) (map[string]any, error) {
	params := make(map[string]any, len(q))
	for name, values := range q {
		var v any = values[0]
		if len(values) > 1 {
			v = values
		}
		if name == hardware.ParamExposure {
			last := values[len(values)-1]
			f, err := strconv.ParseFloat(last, 64)
			if err != nil {
				return nil, fmt.Errorf("%s %q: %w", name, last, hardware.ErrInvalidParameter)
			}
			if err := hardware.CheckExposureTime(f); err != nil {
				return nil, err
			}
			v = f
		}
		params[name] = v
	}
	return params, nil
}

func (s *Server) cameraState() int {
	var state int
	_ = s.obs.Exec(func(d *hardware.Devices, now time.Time) error {
		state = d.Camera.State(now)
		return nil
	})
	return state
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	handleResponse(w, stateResponse{State: s.cameraState()})
}

func (s *Server) handleMSet(w http.ResponseWriter, r *http.Request) {
	params, err := parseParameters(r.URL.Query())
	if err != nil {
		s.logger.Errorf("mset: %v", err)
		handleError(w, http.StatusBadRequest, err.Error())
		return
	}

	var state int
	err = s.obs.Exec(func(d *hardware.Devices, now time.Time) error {
		if err := d.Camera.LoadParameters(params); err != nil {
			return err
		}
		state = d.Camera.State(now)
		return nil
	})
	if err != nil {
		s.logger.Errorf("mset: %v", err)
		handleError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Debugf("Loaded parameters %v", params)
	handleResponse(w, stateResponse{State: state})
}

func (s *Server) handleExpose(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	file := q.Get("fe")
	if file == "" {
		handleError(w, http.StatusBadRequest, "missing parameter fe")
		return
	}
	if ccd := q.Get("ccd"); ccd != "CCD3" {
		handleError(w, http.StatusBadRequest, fmt.Sprintf("parameter ccd must be CCD3, got %q", ccd))
		return
	}

	var (
		exp   frame.Exposure
		state int
	)
	err := s.obs.Exec(func(d *hardware.Devices, now time.Time) error {
		var err error
		exp, err = s.prepare(d, now)
		if err != nil {
			return err
		}
		if err := d.Shutter.Set(exp.Shutter); err != nil {
			return err
		}
		if err := d.Camera.Start(now); err != nil {
			return err
		}
		state = d.Camera.State(now)
		return nil
	})
	if err != nil {
		s.logger.Errorf("expose: %v", err)
		handleError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The camera is already exposing, so a failed frame write is logged and
	// journalled without a file rather than reported as a failed expose.
	logger := s.logger.WithField("exposure", exp.ID)
	path, err := s.writeFrame(file, exp)
	if err != nil {
		logger.Errorf("Failed to write frame: %v", err)
		path = ""
	}

	if err := s.store.RecordExposure(store.Exposure{
		ID:        exp.ID,
		Start:     exp.Start,
		File:      path,
		Object:    exp.Object,
		ImageType: exp.ImageType,
		ExpTime:   exp.ExpTime,
		Shutter:   exp.Shutter,
		Binning:   exp.Binning.String(),
		RA:        exp.Pointing.RA,
		Dec:       exp.Pointing.Dec,
	}); err != nil {
		logger.Errorf("Failed to journal exposure: %v", err)
	}

	handleResponse(w, stateResponse{State: state})
}

// prepare validates the loaded parameters and captures the header state. It
// does not change any device.
func (s *Server) prepare(d *hardware.Devices, now time.Time) (frame.Exposure, error) {
	shutter, ok := d.Camera.Parameter(hardware.ParamShutter)
	if !ok {
		s.logger.Warnf("No %s loaded, defaulting to %s (open)", hardware.ParamShutter, defaultShutter)
		shutter = defaultShutter
	}
	pos, ok := ascolShutter[shutter]
	if !ok {
		return frame.Exposure{}, fmt.Errorf("%s %q must be 0 (open) or 1 (closed): %w",
			hardware.ParamShutter, shutter, hardware.ErrInvalidParameter)
	}

	exptime, err := d.Camera.ExposureTime()
	if err != nil {
		return frame.Exposure{}, err
	}

	binning, _ := d.Camera.Parameter(hardware.ParamBinning)
	b, err := frame.ParseBinning(binning)
	if err != nil {
		return frame.Exposure{}, fmt.Errorf("%v: %w", err, hardware.ErrInvalidParameter)
	}

	object, _ := d.Camera.Parameter(hardware.ParamObject)
	imageType, _ := d.Camera.Parameter(hardware.ParamImageType)
	pointing, _ := d.Telescope.Position(now)

	return frame.Exposure{
		ID:        uuid.NewString(),
		Start:     now,
		Pointing:  pointing,
		Object:    object,
		ImageType: imageType,
		ExpTime:   exptime,
		Shutter:   pos,
		FilterA:   d.WheelA.Position(now),
		FilterB:   d.WheelB.Position(now),
		Binning:   b,
	}, nil
}

// writeFrame renders and stores the frame for exp. It returns an empty path
// when frame output is disabled.
func (s *Server) writeFrame(file string, exp frame.Exposure) (string, error) {
	if s.synth == nil || s.archive == nil {
		return "", nil
	}
	img, err := s.synth.Produce(frame.Params{
		Exposure:    exp.ExpTime,
		ShutterOpen: exp.Shutter == hardware.ShutterOpen,
		Binning:     exp.Binning,
	})
	if err != nil {
		return "", err
	}
	return s.archive.Write(file, s.sensor.Header(exp), img)
}

func (s *Server) handleUnknown(w http.ResponseWriter, r *http.Request) {
	s.logger.Errorf("Unknown command %s %s", r.Method, r.URL.Path)
	handleError(w, http.StatusBadRequest, fmt.Sprintf("unknown command %s", r.URL.Path))
}
