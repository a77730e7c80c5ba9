package hardware

import "time"

// Status is a point-in-time view of every device, used by the status page
// and telemetry.
type Status struct {
	Time      time.Time       `json:"time"`
	Telescope TelescopeStatus `json:"telescope"`
	Dome      DomeStatus      `json:"dome"`
	Flaps     FlapStatus      `json:"flaps"`
	Wheels    WheelStatus     `json:"wheels"`
	Focuser   FocuserStatus   `json:"focuser"`
	DFOSC     DFOSCStatus     `json:"dfosc"`
	Camera    CameraStatus    `json:"camera"`
}

type TelescopeStatus struct {
	State    string  `json:"state"`
	Power    bool    `json:"power"`
	LoggedIn bool    `json:"logged_in"`
	RA       float64 `json:"ra"`
	Dec      float64 `json:"dec"`
	Pier     string  `json:"pier"`
	Alt      float64 `json:"alt"`
	Az       float64 `json:"az"`
}

type DomeStatus struct {
	State   string  `json:"state"`
	Azimuth float64 `json:"azimuth"`
	Slit    string  `json:"slit"`
}

type FlapStatus struct {
	Cassegrain string `json:"cassegrain"`
	Mirror     string `json:"mirror"`
}

type WheelStatus struct {
	AState    string `json:"a_state"`
	APosition string `json:"a_position"`
	BState    string `json:"b_state"`
	BPosition string `json:"b_position"`
}

type FocuserStatus struct {
	State    string  `json:"state"`
	Position float64 `json:"position"`
}

type SlideStatus struct {
	Position int  `json:"position"`
	Ready    bool `json:"ready"`
}

type DFOSCStatus struct {
	Grism    SlideStatus `json:"grism"`
	Aperture SlideStatus `json:"aperture"`
	Filter   SlideStatus `json:"filter"`
}

type CameraStatus struct {
	State      int            `json:"state"`
	Shutter    string         `json:"shutter"`
	Parameters map[string]any `json:"parameters"`
}

func slideStatus(s *Slide, now time.Time) SlideStatus {
	return SlideStatus{Position: s.Position(), Ready: s.Ready(now)}
}

// Status derives the state of every device at now.
func (d *Devices) Status(now time.Time) Status {
	pos, pier := d.Telescope.Position(now)
	hz := d.Telescope.Horizontal(now)

	return Status{
		Time: now,
		Telescope: TelescopeStatus{
			State:    d.Telescope.State(now),
			Power:    d.Telescope.Powered(),
			LoggedIn: d.Telescope.LoggedIn(now),
			RA:       pos.RA,
			Dec:      pos.Dec,
			Pier:     pier,
			Alt:      hz.Alt,
			Az:       hz.Az,
		},
		Dome: DomeStatus{
			State:   d.Dome.State(now),
			Azimuth: d.Dome.Azimuth(now),
			Slit:    d.Slit.State(now),
		},
		Flaps: FlapStatus{
			Cassegrain: d.CassegrainFlap.State(now),
			Mirror:     d.MirrorFlap.State(now),
		},
		Wheels: WheelStatus{
			AState:    d.WheelA.State(now),
			APosition: d.WheelA.Position(now),
			BState:    d.WheelB.State(now),
			BPosition: d.WheelB.Position(now),
		},
		Focuser: FocuserStatus{
			State:    d.Focuser.State(now),
			Position: d.Focuser.Position(now),
		},
		DFOSC: DFOSCStatus{
			Grism:    slideStatus(d.Grism, now),
			Aperture: slideStatus(d.Aperture, now),
			Filter:   slideStatus(d.Filter, now),
		},
		Camera: CameraStatus{
			State:      d.Camera.State(now),
			Shutter:    d.Shutter.Position(),
			Parameters: d.Camera.Parameters(),
		},
	}
}
