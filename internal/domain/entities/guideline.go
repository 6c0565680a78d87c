package entities

import (
	"fmt"
	"strings"
)

// Route is an administration route. Guideline routes are a set of this closed
// enum rather than free text.
type Route string

const (
	RoutePO Route = "PO"
	RouteIV Route = "IV"
	RouteIM Route = "IM"
	RouteSC Route = "SC"
)

// ParseRoute converts a raw token into a Route
func ParseRoute(s string) (Route, error) {
	switch Route(strings.ToUpper(strings.TrimSpace(s))) {
	case RoutePO:
		return RoutePO, nil
	case RouteIV:
		return RouteIV, nil
	case RouteIM:
		return RouteIM, nil
	case RouteSC:
		return RouteSC, nil
	}
	return "", fmt.Errorf("unknown route %q", s)
}

// DialysisType is the renal replacement modality a guideline is written for
type DialysisType string

const (
	DialysisNone DialysisType = "none"
	DialysisHD   DialysisType = "hd"
	DialysisPD   DialysisType = "pd"
	DialysisCRRT DialysisType = "crrt"
	DialysisECMO DialysisType = "ecmo"
)

// Guideline is a single dosing rule from the guideline corpus. Guidelines are
// supplied externally and read-only to the engine.
type Guideline struct {
	ID           int64        `json:"id" db:"id"`
	Antibiotic   string       `json:"antibiotic" db:"antibiotic"`
	ConditionID  int64        `json:"condition_id" db:"condition_id"`
	SeverityID   int64        `json:"severity_id" db:"severity_id"`
	PathogenIDs  []int64      `json:"pathogen_ids" db:"-"`
	CrClMin      *float64     `json:"crcl_min,omitempty" db:"crcl_min"`
	CrClMax      *float64     `json:"crcl_max,omitempty" db:"crcl_max"`
	DialysisType DialysisType `json:"dialysis_type" db:"dialysis_type"`
	PatientType  PatientType  `json:"patient_type" db:"patient_type"`
	Dose         string       `json:"dose" db:"dose"`
	Routes       []Route      `json:"routes" db:"-"`
	Interval     string       `json:"interval" db:"interval"`
	Duration     string       `json:"duration" db:"duration"`
	Remark       string       `json:"remark,omitempty" db:"remark"`
}

// HasRoute reports whether the guideline offers the given route
func (g *Guideline) HasRoute(r Route) bool {
	for _, route := range g.Routes {
		if route == r {
			return true
		}
	}
	return false
}

// CoversPathogen reports whether the guideline targets the given pathogen
func (g *Guideline) CoversPathogen(pathogenID int64) bool {
	for _, id := range g.PathogenIDs {
		if id == pathogenID {
			return true
		}
	}
	return false
}

// MatchesCrCl reports whether a creatinine clearance value falls inside the
// guideline's renal range. A missing bound is treated as open on that side.
func (g *Guideline) MatchesCrCl(crcl float64) bool {
	if g.CrClMin != nil && crcl < *g.CrClMin {
		return false
	}
	if g.CrClMax != nil && crcl > *g.CrClMax {
		return false
	}
	return true
}

// RouteDisplay renders the route set for human-readable output
func (g *Guideline) RouteDisplay() string {
	if len(g.Routes) == 0 {
		return "Not specified"
	}
	parts := make([]string, len(g.Routes))
	for i, r := range g.Routes {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}
