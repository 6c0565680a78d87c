package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/seunolaitan/abxguide/backend/internal/domain/entities"
)

// EligibilityService narrows the guideline corpus down to the rows a patient
// may actually receive: allergy exclusions, renal and dialysis constraints,
// and the pathogen overlap filter with its general-therapy fallback.
type EligibilityService struct {
	lexicon *Lexicon
}

// NewEligibilityService creates a new eligibility service
func NewEligibilityService(lexicon *Lexicon) *EligibilityService {
	return &EligibilityService{lexicon: lexicon}
}

// RenalStatus is the renal picture the filter runs with
type RenalStatus struct {
	CrCl         float64
	DialysisType entities.DialysisType
}

// DeriveExclusions maps the free-text allergy field onto antibiotic name
// substrings to exclude. The returned list is sorted and duplicate-free.
func (s *EligibilityService) DeriveExclusions(patient *entities.PatientSnapshot, trace *traceBuilder) []string {
	allergies := strings.ToLower(strings.TrimSpace(patient.Allergies))

	if s.lexicon.IsNoAllergy(allergies) {
		trace.add(entities.TraceStep{
			Step:   5,
			Name:   "Allergy Assessment",
			Input:  fmt.Sprintf("Patient allergies: %q", patient.Allergies),
			Output: "No allergies - no exclusions applied",
			Result: entities.StepSuccess,
		})
		return nil
	}

	seen := make(map[string]struct{})
	var details []string
	for allergyClass, excluded := range s.lexicon.AllergyExclusions {
		if !strings.Contains(allergies, allergyClass) {
			continue
		}
		for _, drug := range excluded {
			seen[drug] = struct{}{}
		}
		details = append(details, fmt.Sprintf("%s -> exclude %s", allergyClass, strings.Join(excluded, ", ")))
	}

	exclusions := make([]string, 0, len(seen))
	for drug := range seen {
		exclusions = append(exclusions, drug)
	}
	sort.Strings(exclusions)
	sort.Strings(details)

	trace.add(entities.TraceStep{
		Step:    5,
		Name:    "Allergy Assessment",
		Input:   fmt.Sprintf("Patient allergies: %q", patient.Allergies),
		Output:  fmt.Sprintf("Excluded %d antibiotic types", len(exclusions)),
		Result:  entities.StepSuccess,
		Details: details,
	})
	return exclusions
}

// AssessRenal determines the renal filter inputs. An explicit dialysis
// modality on the patient wins; otherwise a CrCl below 15 is taken to imply
// hemodialysis, with the inference recorded in the trace.
func (s *EligibilityService) AssessRenal(patient *entities.PatientSnapshot, trace *traceBuilder) RenalStatus {
	status := RenalStatus{CrCl: patient.CrCl, DialysisType: entities.DialysisNone}

	var note string
	switch {
	case patient.Dialysis != nil && *patient.Dialysis != entities.DialysisNone:
		status.DialysisType = *patient.Dialysis
		note = "Reported dialysis modality"
	case patient.Dialysis != nil:
		note = "No dialysis"
	case patient.CrCl < 15:
		status.DialysisType = entities.DialysisHD
		note = "Assumed HD for CrCl < 15"
	default:
		note = "No dialysis"
	}

	trace.add(entities.TraceStep{
		Step:   6,
		Name:   "Renal Function Assessment",
		Input:  fmt.Sprintf("CrCl: %g mL/min", patient.CrCl),
		Output: fmt.Sprintf("Dialysis type: %s, %s", status.DialysisType, note),
		Result: entities.StepSuccess,
	})
	return status
}

// Filter applies the pathogen, renal and allergy filters over the base
// guideline set for {condition, severity, patient type}. When the pathogen
// overlap filter would empty the set, it is discarded and the general set for
// the condition is used instead, recorded as a fallback substep.
func (s *EligibilityService) Filter(
	corpus *entities.Corpus,
	condition *entities.Condition,
	severity *entities.Severity,
	patientType entities.PatientType,
	targets []*entities.Pathogen,
	renal RenalStatus,
	exclusions []string,
	trace *traceBuilder,
) []*entities.Guideline {
	base := corpus.GuidelinesFor(condition.ID, severity.ID, patientType)
	initialCount := len(base)

	afterPathogen := base
	if len(targets) > 0 {
		var matched []*entities.Guideline
		for _, g := range base {
			if s.coversAny(g, targets) {
				matched = append(matched, g)
			}
		}
		if len(matched) == 0 {
			trace.add(entities.TraceStep{
				Step:   7.1,
				Name:   "Pathogen Fallback",
				Input:  fmt.Sprintf("No guidelines for specific pathogens: %s", pathogenNames(targets)),
				Output: fmt.Sprintf("Using general empirical therapy for %s", condition.Name),
				Result: entities.StepFallback,
			})
		} else {
			afterPathogen = matched
		}
	}

	var afterRenal []*entities.Guideline
	for _, g := range afterPathogen {
		if renal.DialysisType != entities.DialysisNone {
			if g.DialysisType == renal.DialysisType {
				afterRenal = append(afterRenal, g)
			}
			continue
		}
		if g.DialysisType == entities.DialysisNone && g.MatchesCrCl(renal.CrCl) {
			afterRenal = append(afterRenal, g)
		}
	}

	final := afterRenal
	if len(exclusions) > 0 {
		final = nil
		for _, g := range afterRenal {
			if !s.isExcluded(g.Antibiotic, exclusions) {
				final = append(final, g)
			}
		}
	}

	trace.add(entities.TraceStep{
		Step:   7,
		Name:   "Apply All Filters",
		Input:  fmt.Sprintf("Initial guidelines: %d", initialCount),
		Output: fmt.Sprintf("Final recommendations: %d", len(final)),
		Result: entities.StepSuccess,
		Details: []string{
			fmt.Sprintf("initial: %d", initialCount),
			fmt.Sprintf("after_pathogen_filter: %d", len(afterPathogen)),
			fmt.Sprintf("after_renal_filter: %d", len(afterRenal)),
			fmt.Sprintf("after_allergy_filter: %d", len(final)),
		},
	})
	return final
}

func (s *EligibilityService) coversAny(g *entities.Guideline, targets []*entities.Pathogen) bool {
	for _, target := range targets {
		if g.CoversPathogen(target.ID) {
			return true
		}
	}
	return false
}

func (s *EligibilityService) isExcluded(antibiotic string, exclusions []string) bool {
	lower := strings.ToLower(antibiotic)
	return containsAny(lower, exclusions)
}

func pathogenNames(pathogens []*entities.Pathogen) string {
	names := make([]string, len(pathogens))
	for i, p := range pathogens {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}
