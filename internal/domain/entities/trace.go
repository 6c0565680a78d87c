package entities

// StepResult is the outcome of one pipeline stage
type StepResult string

const (
	StepSuccess  StepResult = "success"
	StepFailure  StepResult = "failure"
	StepFallback StepResult = "fallback"
)

// TraceStep records one stage of the recommendation pipeline for
// explainability and audit. Traces are reproducible for identical inputs.
type TraceStep struct {
	Step    float64    `json:"step"`
	Name    string     `json:"name"`
	Input   string     `json:"input"`
	Output  string     `json:"output"`
	Result  StepResult `json:"result"`
	Note    string     `json:"note,omitempty"`
	Details []string   `json:"details,omitempty"`
}

// PatientSummary echoes the patient factors the engine actually used
type PatientSummary struct {
	PatientID           string       `json:"patient_id"`
	Age                 int          `json:"age"`
	PatientType         PatientType  `json:"patient_type"`
	Diagnosis           string       `json:"diagnosis"`
	MatchedCondition    string       `json:"matched_condition,omitempty"`
	MatchedSeverity     string       `json:"matched_severity,omitempty"`
	Pathogen            string       `json:"pathogen"`
	TargetPathogens     []string     `json:"target_pathogens"`
	Allergies           string       `json:"allergies"`
	ExcludedAntibiotics []string     `json:"excluded_antibiotics"`
	CrCl                float64      `json:"crcl"`
	DialysisType        DialysisType `json:"dialysis_type"`
	BodyWeightKg        float64      `json:"body_weight_kg,omitempty"`
}

// EvaluationResult is the structured outcome of one pipeline invocation. All
// failures are folded into this shape; the engine never lets an error escape
// to the caller any other way.
type EvaluationResult struct {
	EvaluationID    string            `json:"evaluation_id"`
	Success         bool              `json:"success"`
	Recommendations []*Recommendation `json:"recommendations"`
	Trace           []TraceStep       `json:"filter_steps"`
	PatientSummary  *PatientSummary   `json:"patient_summary,omitempty"`
	TotalMatches    int               `json:"total_matches"`
	IsFallback      bool              `json:"is_fallback,omitempty"`
	Message         string            `json:"message,omitempty"`
	Reason          string            `json:"reason,omitempty"`
	Error           string            `json:"error,omitempty"`
}
