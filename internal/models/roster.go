package models

// Assignment is one controller observed against a named boundary. ICAO is
// empty for the primary FIR boundary and set for an oceanic/UIR overlay.
type Assignment struct {
	ICAO       string        `json:"icao"`
	Controller ControllerRef `json:"controller"`
}

// IsUIR reports whether the assignment belongs to an overlay boundary
func (a Assignment) IsUIR() bool {
	return a.ICAO != ""
}

// FirEntry groups every assignment observed against one boundary instance
type FirEntry struct {
	Boundary    string       `json:"boundary"`    // boundary identifier in the boundaries file
	PrimaryICAO string       `json:"icao"`        // e.g. KZLA
	Callsign    string       `json:"callsign"`    // callsign prefix of the boundary, e.g. LAX_CTR
	HasBooking  bool         `json:"has_booking"` // a booking exists for this boundary
	Assignments []Assignment `json:"assignments"`
}

// Pilot is an aircraft whose controlling frequency can be resolved
type Pilot struct {
	CID       int     `json:"cid"`
	Callsign  string  `json:"callsign"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  int     `json:"altitude"` // feet
}

// Roster is one refresh generation of controller and pilot data
type Roster struct {
	Firs   []FirEntry `json:"firs"`
	Pilots []Pilot    `json:"pilots"`
}
