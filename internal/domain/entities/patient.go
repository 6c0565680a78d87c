package entities

// PatientType classifies a patient for guideline selection
type PatientType string

const (
	PatientTypeAdult PatientType = "adult"
	PatientTypeChild PatientType = "child"
)

// PatientSnapshot is the read-only clinical picture of a patient at the moment
// a recommendation is requested. The engine never writes back to it.
type PatientSnapshot struct {
	PatientID          string        `json:"patient_id"`
	Age                int           `json:"age"`
	BodyWeightKg       float64       `json:"body_weight_kg,omitempty"`
	Diagnosis          string        `json:"diagnosis"`
	SecondaryDiagnosis string        `json:"secondary_diagnosis,omitempty"`
	Pathogen           string        `json:"pathogen"`
	SampleType         string        `json:"sample_type,omitempty"`
	Allergies          string        `json:"allergies"`
	CrCl               float64       `json:"crcl"`
	Dialysis           *DialysisType `json:"dialysis,omitempty"`
	CurrentAntibiotic  string        `json:"current_antibiotic,omitempty"`
	Temperature        *float64      `json:"temperature,omitempty"`
	WBC                *float64      `json:"wbc,omitempty"`
	CRP                *float64      `json:"crp,omitempty"`
}

// Type classifies the patient as adult or child based on age
func (p *PatientSnapshot) Type() PatientType {
	if p.Age >= 18 {
		return PatientTypeAdult
	}
	return PatientTypeChild
}

// IsStable reports whether the patient's vitals look stable enough for oral
// step-down therapy. Missing values are treated as stable.
func (p *PatientSnapshot) IsStable() bool {
	if p.Temperature != nil && *p.Temperature >= 38.5 {
		return false
	}
	if p.WBC != nil && *p.WBC >= 15000 {
		return false
	}
	if p.CRP != nil && *p.CRP >= 100 {
		return false
	}
	return true
}
