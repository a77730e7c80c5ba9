package ccd3

import (
	"fmt"
	"net/http"
	"strconv"

	"dk154mock/pkg/hardware"
)

const exposureListLimit = 50

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	handleResponse(w, s.obs.Status())
}

func (s *Server) handleExposures(w http.ResponseWriter, r *http.Request) {
	limit := exposureListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			handleError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}

	exposures, err := s.store.Exposures(limit)
	if err != nil {
		handleError(w, http.StatusInternalServerError, err.Error())
		return
	}
	handleResponse(w, exposures)
}

// handleSetup shows and updates the park position.
func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		park, err := s.store.GetPark()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.renderSetupForm(w, park, false, "")

	case http.MethodPost:
		park, err := parseSetupForm(r)
		if err == nil {
			err = park.Validate()
		}
		if err != nil {
			s.renderSetupForm(w, park, false, err.Error())
			return
		}

		s.logger.Infof("Setting park position: %+v", park)
		if err := s.store.SetPark(park); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.obs.SetPark(park)

		s.renderSetupForm(w, park, true, "")

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderSetupForm(w http.ResponseWriter, park hardware.Park, success bool, err string) {
	data := struct {
		hardware.Park
		Success bool
		Error   string
	}{park, success, err}

	if err := s.tmpl.ExecuteTemplate(w, "setup.html", data); err != nil {
		http.Error(w, "Error rendering template", http.StatusInternalServerError)
		s.logger.Errorf("Error rendering template: %v", err)
	}
}

func parseSetupForm(r *http.Request) (hardware.Park, error) {
	if err := r.ParseForm(); err != nil {
		return hardware.Park{}, fmt.Errorf("error parsing form: %v", err)
	}

	var (
		park hardware.Park
		err  error
	)
	fields := []struct {
		name string
		dst  *float64
	}{
		{"dome-azimuth", &park.DomeAzimuth},
		{"hour-angle", &park.HourAngle},
		{"declination", &park.Declination},
	}
	for _, f := range fields {
		*f.dst, err = strconv.ParseFloat(r.FormValue(f.name), 64)
		if err != nil {
			return park, fmt.Errorf("invalid %s %q", f.name, r.FormValue(f.name))
		}
	}
	return park, nil
}
