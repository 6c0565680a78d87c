package entities

// TherapyType distinguishes pathogen-directed from empirical therapy
type TherapyType string

const (
	TherapyTargeted  TherapyType = "targeted"
	TherapyEmpirical TherapyType = "empirical"
)

// Recommendation is one ranked dosing suggestion produced by the engine. It is
// transient output; nothing is persisted.
type Recommendation struct {
	Rank                 int         `json:"rank"`
	AntibioticName       string      `json:"antibiotic_name"`
	Dose                 string      `json:"dose"`
	Route                string      `json:"route"`
	Routes               []Route     `json:"routes_array"`
	Interval             string      `json:"interval"`
	Duration             string      `json:"duration"`
	Remark               string      `json:"remark,omitempty"`
	TherapyType          TherapyType `json:"therapy_type"`
	PreferenceScore      int         `json:"preference_score"`
	PathogenCoverage     []string    `json:"pathogen_coverage"`
	RenalAdjustment      string      `json:"renal_adjustment,omitempty"`
	ClinicalNotes        []string    `json:"clinical_notes,omitempty"`
	Rationale            string      `json:"rationale"`
	AppropriatenessLevel int         `json:"appropriateness_level"`
}
