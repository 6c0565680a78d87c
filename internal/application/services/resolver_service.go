package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/seunolaitan/abxguide/backend/internal/domain/entities"
)

// ResolverService maps free-text patient fields onto corpus entities: the
// condition, the severity tier, the patient type and the target pathogen set.
// All lookups run against an in-memory corpus snapshot; the service itself is
// stateless and safe for concurrent use.
type ResolverService struct {
	lexicon *Lexicon
}

// NewResolverService creates a new resolver service
func NewResolverService(lexicon *Lexicon) *ResolverService {
	return &ResolverService{lexicon: lexicon}
}

var pneumoniaeGenusPattern = regexp.MustCompile(`(\w+)\s+pneumoniae`)

var (
	unresolvedTermCounterOnce sync.Once
	unresolvedTermCounter     metric.Int64Counter
)

// ResolveCondition matches the patient diagnosis to a corpus condition. The
// pathogen field is consulted first: a "<genus> pneumoniae" isolate implies
// pneumonia even when the written diagnosis says something else. Then the
// ordered synonym table is scanned, and finally a word-containment fuzzy pass
// over all corpus condition names.
func (s *ResolverService) ResolveCondition(patient *entities.PatientSnapshot, corpus *entities.Corpus, trace *traceBuilder) *entities.Condition {
	diagnosis := strings.ToLower(strings.TrimSpace(patient.Diagnosis))

	if conditionName := s.conditionFromPathogen(patient.Pathogen); conditionName != "" {
		if condition := corpus.ConditionByName(conditionName); condition != nil {
			trace.add(entities.TraceStep{
				Step:   1,
				Name:   "Condition Identification",
				Input:  fmt.Sprintf("Patient diagnosis: %q, Pathogen: %q", patient.Diagnosis, patient.Pathogen),
				Output: fmt.Sprintf("Intelligent match via pathogen -> condition: %q", condition.Name),
				Result: entities.StepSuccess,
			})
			return condition
		}
	}

	for _, synonym := range s.lexicon.DiagnosisSynonyms {
		if !strings.Contains(diagnosis, synonym.Term) {
			continue
		}
		if condition := corpus.ConditionByName(synonym.Condition); condition != nil {
			trace.add(entities.TraceStep{
				Step:   1,
				Name:   "Condition Identification",
				Input:  fmt.Sprintf("Patient diagnosis: %q", patient.Diagnosis),
				Output: fmt.Sprintf("Matched condition: %q", condition.Name),
				Result: entities.StepSuccess,
			})
			return condition
		}
	}

	for _, condition := range corpus.Conditions {
		for _, word := range strings.Fields(strings.ToLower(condition.Name)) {
			word = strings.Trim(word, ",;")
			if word == "" || !strings.Contains(diagnosis, word) {
				continue
			}
			trace.add(entities.TraceStep{
				Step:   1,
				Name:   "Condition Identification",
				Input:  fmt.Sprintf("Patient diagnosis: %q", patient.Diagnosis),
				Output: fmt.Sprintf("Fuzzy matched condition: %q", condition.Name),
				Result: entities.StepSuccess,
			})
			return condition
		}
	}

	recordUnresolvedTerm("diagnosis", diagnosis)
	trace.add(entities.TraceStep{
		Step:   1,
		Name:   "Condition Identification",
		Input:  fmt.Sprintf("Patient diagnosis: %q", patient.Diagnosis),
		Output: "No matching condition found",
		Result: entities.StepFailure,
	})
	return nil
}

// ResolveSeverity selects the severity tier for the matched condition. With no
// clinical severity input we take the lowest-ranked tier and flag the choice
// in the trace so downstream readers know it was not clinically justified.
func (s *ResolverService) ResolveSeverity(condition *entities.Condition, corpus *entities.Corpus, trace *traceBuilder) *entities.Severity {
	severities := corpus.SeveritiesFor(condition.ID)
	if len(severities) == 0 {
		trace.add(entities.TraceStep{
			Step:   2,
			Name:   "Severity Assessment",
			Input:  fmt.Sprintf("Condition: %q", condition.Name),
			Output: "No severity levels found",
			Result: entities.StepFailure,
		})
		return nil
	}

	severity := severities[0]
	trace.add(entities.TraceStep{
		Step:   2,
		Name:   "Severity Assessment",
		Input:  fmt.Sprintf("Condition: %q", condition.Name),
		Output: fmt.Sprintf("Selected severity: %q", severity.Level),
		Result: entities.StepSuccess,
		Note:   "Using default severity - clinical assessment needed",
	})
	return severity
}

// ClassifyPatient determines adult vs child from age
func (s *ResolverService) ClassifyPatient(patient *entities.PatientSnapshot, trace *traceBuilder) entities.PatientType {
	patientType := patient.Type()
	trace.add(entities.TraceStep{
		Step:   3,
		Name:   "Patient Type Classification",
		Input:  fmt.Sprintf("Patient age: %d years", patient.Age),
		Output: fmt.Sprintf("Patient type: %s", patientType),
		Result: entities.StepSuccess,
	})
	return patientType
}

// ResolvePathogens identifies the target pathogen set. A recognized isolate
// yields targeted therapy against that single pathogen; indeterminate input
// (pending culture, unknown) or any lookup miss degrades to empirical therapy
// over the severity's expected pathogen set, with the reason recorded.
func (s *ResolverService) ResolvePathogens(patient *entities.PatientSnapshot, corpus *entities.Corpus, severity *entities.Severity, trace *traceBuilder) ([]*entities.Pathogen, entities.TherapyType) {
	pathogenInput := strings.ToLower(strings.TrimSpace(patient.Pathogen))

	if s.lexicon.IsIndeterminatePathogen(pathogenInput) {
		targets := corpus.PathogensByIDs(severity.PathogenIDs)
		trace.add(entities.TraceStep{
			Step:   4,
			Name:   "Pathogen Identification",
			Input:  fmt.Sprintf("Patient pathogen: %q (unknown)", patient.Pathogen),
			Output: fmt.Sprintf("Empirical therapy - targeting %d pathogens", len(targets)),
			Result: entities.StepSuccess,
		})
		return targets, entities.TherapyEmpirical
	}

	canonical := s.mapPathogenName(pathogenInput, corpus, trace)
	if canonical != "" {
		if pathogen := corpus.PathogenByName(canonical); pathogen != nil {
			trace.add(entities.TraceStep{
				Step:   4,
				Name:   "Pathogen Identification",
				Input:  fmt.Sprintf("Patient pathogen: %q", patient.Pathogen),
				Output: fmt.Sprintf("Targeted therapy - pathogen: %q", pathogen.Name),
				Result: entities.StepSuccess,
			})
			return []*entities.Pathogen{pathogen}, entities.TherapyTargeted
		}
	}

	// Not recognized or absent from the corpus: degrade to empirical
	recordUnresolvedTerm("pathogen", pathogenInput)
	targets := corpus.PathogensByIDs(severity.PathogenIDs)
	trace.add(entities.TraceStep{
		Step:   4,
		Name:   "Pathogen Identification",
		Input:  fmt.Sprintf("Patient pathogen: %q (not found in corpus)", patient.Pathogen),
		Output: fmt.Sprintf("Fallback to empirical therapy - targeting %d pathogens", len(targets)),
		Result: entities.StepFallback,
	})
	return targets, entities.TherapyEmpirical
}

// mapPathogenName maps free-text pathogen input to a canonical corpus name.
// "<genus> pneumoniae" forms are resolved through the genus inference table
// first, with alternates when the primary species is absent from the corpus.
func (s *ResolverService) mapPathogenName(input string, corpus *entities.Corpus, trace *traceBuilder) string {
	if strings.Contains(input, "pneumoniae") {
		if name := s.inferPneumoniaeSpecies(input, corpus, trace); name != "" {
			return name
		}
	}

	for _, synonym := range s.lexicon.PathogenSynonyms {
		if synonym.Term == input {
			return synonym.Canonical
		}
	}
	for _, synonym := range s.lexicon.PathogenSynonyms {
		if strings.Contains(input, synonym.Term) || strings.Contains(synonym.Term, input) {
			return synonym.Canonical
		}
	}
	return ""
}

func (s *ResolverService) inferPneumoniaeSpecies(input string, corpus *entities.Corpus, trace *traceBuilder) string {
	match := pneumoniaeGenusPattern.FindStringSubmatch(input)
	if match == nil {
		return ""
	}

	inference, ok := s.lexicon.PneumoniaeGenera[strings.ToLower(match[1])]
	if !ok {
		return ""
	}

	trace.add(entities.TraceStep{
		Step:   1.5,
		Name:   "Intelligent Pathogen Matching",
		Input:  fmt.Sprintf("Pathogen %q suggests genus %q", input, match[1]),
		Output: fmt.Sprintf("Inferred species: %q", inference.Pathogen),
		Result: entities.StepSuccess,
	})

	if corpus.PathogenByName(inference.Pathogen) != nil {
		return inference.Pathogen
	}
	for _, alternate := range inference.Alternates {
		if corpus.PathogenByName(alternate) != nil {
			return alternate
		}
	}
	return ""
}

func (s *ResolverService) conditionFromPathogen(pathogen string) string {
	lower := strings.ToLower(strings.TrimSpace(pathogen))
	if !strings.Contains(lower, "pneumoniae") {
		return ""
	}
	match := pneumoniaeGenusPattern.FindStringSubmatch(lower)
	if match == nil {
		return ""
	}
	if inference, ok := s.lexicon.PneumoniaeGenera[strings.ToLower(match[1])]; ok {
		return inference.Condition
	}
	return ""
}

func initUnresolvedTermCounter() {
	meter := otel.Meter("github.com/seunolaitan/abxguide/backend/resolver")
	counter, err := meter.Int64Counter(
		"engine.term_not_resolved.count",
		metric.WithDescription("Count of patient terms the resolver could not map to a corpus entity"),
	)
	if err == nil {
		unresolvedTermCounter = counter
	}
}

func recordUnresolvedTerm(kind, term string) {
	if term == "" || len(term) > 64 {
		return
	}
	unresolvedTermCounterOnce.Do(initUnresolvedTermCounter)
	if unresolvedTermCounter == nil {
		return
	}
	unresolvedTermCounter.Add(
		context.Background(),
		1,
		metric.WithAttributes(
			attribute.String("engine.term_kind", kind),
			attribute.String("engine.term", term),
		),
	)
}
