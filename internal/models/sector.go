package models

import (
	"fmt"

	"github.com/paulmach/orb"
)

// SectorKind identifies which of the four renderable sector variants a feature is
type SectorKind int

const (
	KindEmpty SectorKind = iota
	KindFir
	KindUir
	KindVatglasses
)

// String returns the suffix used when deriving sector ids
func (k SectorKind) String() string {
	switch k {
	case KindFir:
		return "Fir"
	case KindUir:
		return "Uir"
	case KindEmpty:
		return "Empty"
	case KindVatglasses:
		return "Vatglasses"
	default:
		return fmt.Sprintf("SectorKind(%d)", int(k))
	}
}

// ParseSectorKind is the inverse of SectorKind.String
func ParseSectorKind(s string) (SectorKind, error) {
	switch s {
	case "Fir":
		return KindFir, nil
	case "Uir":
		return KindUir, nil
	case "Empty":
		return KindEmpty, nil
	case "Vatglasses":
		return KindVatglasses, nil
	default:
		return KindEmpty, fmt.Errorf("unknown sector kind %q", s)
	}
}

// ControllerRef is the identity and display data of one online controller
type ControllerRef struct {
	CID           int    `json:"cid" msgpack:"cid"`
	Callsign      string `json:"callsign" msgpack:"callsign"`
	Frequency     string `json:"frequency" msgpack:"frequency"`
	Name          string `json:"name" msgpack:"name"`
	FacilityLevel int    `json:"facility" msgpack:"facility"` // higher is more senior (delivery < tower < approach < center)
	Duplicated    bool   `json:"duplicated" msgpack:"duplicated"`
}

// VatglassesInfo holds the fields only dynamic position sectors carry
type VatglassesInfo struct {
	CountryGroupID string
	PositionID     string
	VGSectorID     string // cache key shared by every polygon of one position
	MinAltitude    *int
	MaxAltitude    *int
	Colour         string
}

// Sector is one renderable controlled airspace region
type Sector struct {
	ID            string
	Kind          SectorKind
	Geometry      orb.Geometry // set once on creation, never replaced
	PrimaryICAO   string
	SecondaryICAO string // UIR cross-reference label
	Booked        bool
	Duplicated    bool
	Controllers   []ControllerRef

	// Vatglasses is non-nil exactly when Kind == KindVatglasses
	Vatglasses *VatglassesInfo
}

// SweepKey is the identifier checked against a pass's active set. Dynamic
// sectors are grouped by their shared cache key, everything else by id.
func (s *Sector) SweepKey() string {
	if s.Kind == KindVatglasses && s.Vatglasses != nil {
		return s.Vatglasses.VGSectorID
	}
	return s.ID
}

// AllDuplicated reports whether a non-empty controller list consists solely of
// controllers flagged as duplicated upstream
func AllDuplicated(controllers []ControllerRef) bool {
	if len(controllers) == 0 {
		return false
	}
	for _, c := range controllers {
		if !c.Duplicated {
			return false
		}
	}
	return true
}
