package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seunolaitan/abxguide/backend/internal/domain/entities"
)

func TestDeriveExclusions_PenicillinAllergy(t *testing.T) {
	svc := NewEligibilityService(DefaultLexicon())

	patient := testPatient()
	patient.Allergies = "Penicillin rash as a child"
	trace := newTraceBuilder()

	exclusions := svc.DeriveExclusions(patient, trace)

	assert.Contains(t, exclusions, "amoxicillin")
	assert.Contains(t, exclusions, "ampicillin")
	assert.Contains(t, exclusions, "penicillin")
	assert.NotContains(t, exclusions, "ciprofloxacin")
}

func TestDeriveExclusions_OverlappingClassesDeduplicate(t *testing.T) {
	svc := NewEligibilityService(DefaultLexicon())

	patient := testPatient()
	patient.Allergies = "penicillin and beta-lactam"
	trace := newTraceBuilder()

	exclusions := svc.DeriveExclusions(patient, trace)

	seen := make(map[string]int)
	for _, drug := range exclusions {
		seen[drug]++
	}
	for drug, count := range seen {
		assert.Equal(t, 1, count, "duplicate exclusion for %s", drug)
	}
	assert.Contains(t, exclusions, "ceftriaxone")
}

func TestDeriveExclusions_NoAllergies(t *testing.T) {
	svc := NewEligibilityService(DefaultLexicon())

	for _, value := range []string{"None", "NKDA", "no known allergies", ""} {
		patient := testPatient()
		patient.Allergies = value
		trace := newTraceBuilder()

		assert.Empty(t, svc.DeriveExclusions(patient, trace), "allergies=%q", value)
	}
}

func TestAssessRenal_ExplicitDialysisWins(t *testing.T) {
	svc := NewEligibilityService(DefaultLexicon())

	pd := entities.DialysisPD
	patient := testPatient()
	patient.CrCl = 40
	patient.Dialysis = &pd

	status := svc.AssessRenal(patient, newTraceBuilder())
	assert.Equal(t, entities.DialysisPD, status.DialysisType)
}

func TestAssessRenal_LowCrClImpliesHemodialysis(t *testing.T) {
	svc := NewEligibilityService(DefaultLexicon())

	patient := testPatient()
	patient.CrCl = 10

	status := svc.AssessRenal(patient, newTraceBuilder())
	assert.Equal(t, entities.DialysisHD, status.DialysisType)
}

func TestAssessRenal_ExplicitNoneSuppressesInference(t *testing.T) {
	svc := NewEligibilityService(DefaultLexicon())

	none := entities.DialysisNone
	patient := testPatient()
	patient.CrCl = 10
	patient.Dialysis = &none

	status := svc.AssessRenal(patient, newTraceBuilder())
	assert.Equal(t, entities.DialysisNone, status.DialysisType)
}

func TestFilter_SurvivorsMatchAllConstraints(t *testing.T) {
	svc := NewEligibilityService(DefaultLexicon())
	corpus := utiCorpus()
	condition := corpus.Conditions[0]
	severity := corpus.Severities[0]
	targets := []*entities.Pathogen{corpus.Pathogens[0]} // E. coli

	eligible := svc.Filter(
		corpus, condition, severity, entities.PatientTypeAdult,
		targets,
		RenalStatus{CrCl: 45, DialysisType: entities.DialysisNone},
		nil,
		newTraceBuilder(),
	)

	require.Len(t, eligible, 2)
}

func TestFilter_RenalRangeExcludes(t *testing.T) {
	svc := NewEligibilityService(DefaultLexicon())
	corpus := utiCorpus()

	// CrCl 20 is below ciprofloxacin's floor of 30 but inside ceftriaxone's range
	eligible := svc.Filter(
		corpus, corpus.Conditions[0], corpus.Severities[0], entities.PatientTypeAdult,
		[]*entities.Pathogen{corpus.Pathogens[0]},
		RenalStatus{CrCl: 20, DialysisType: entities.DialysisNone},
		nil,
		newTraceBuilder(),
	)

	require.Len(t, eligible, 1)
	assert.Contains(t, eligible[0].Antibiotic, "Ceftriaxone")
}

func TestFilter_AllergyExclusionRemovesMatches(t *testing.T) {
	svc := NewEligibilityService(DefaultLexicon())
	corpus := utiCorpus()

	eligible := svc.Filter(
		corpus, corpus.Conditions[0], corpus.Severities[0], entities.PatientTypeAdult,
		[]*entities.Pathogen{corpus.Pathogens[0]},
		RenalStatus{CrCl: 45, DialysisType: entities.DialysisNone},
		[]string{"ceftriaxone"},
		newTraceBuilder(),
	)

	require.Len(t, eligible, 1)
	assert.Contains(t, eligible[0].Antibiotic, "Ciprofloxacin")
}

func TestFilter_PathogenFallbackDiscardsFilter(t *testing.T) {
	svc := NewEligibilityService(DefaultLexicon())
	corpus := utiCorpus()
	trace := newTraceBuilder()

	// Enterococci is in the severity pathogen set but covered by no guideline
	eligible := svc.Filter(
		corpus, corpus.Conditions[0], corpus.Severities[0], entities.PatientTypeAdult,
		[]*entities.Pathogen{corpus.Pathogens[2]},
		RenalStatus{CrCl: 45, DialysisType: entities.DialysisNone},
		nil,
		trace,
	)

	require.Len(t, eligible, 2, "pathogen filter must be discarded, not empty the set")

	var sawFallback bool
	for _, step := range trace.Steps() {
		if step.Step == 7.1 {
			sawFallback = true
			assert.Equal(t, entities.StepFallback, step.Result)
		}
	}
	assert.True(t, sawFallback)
}

func TestFilter_DialysisMatchesModalityOnly(t *testing.T) {
	svc := NewEligibilityService(DefaultLexicon())
	corpus := utiCorpus()
	hdGuideline := &entities.Guideline{
		ID:           1002,
		Antibiotic:   "Ceftriaxone 1g",
		ConditionID:  1,
		SeverityID:   10,
		PathogenIDs:  []int64{100},
		DialysisType: entities.DialysisHD,
		PatientType:  entities.PatientTypeAdult,
		Dose:         "1g",
		Routes:       []entities.Route{entities.RouteIV},
		Interval:     "q24h",
	}
	corpus.Guidelines = append(corpus.Guidelines, hdGuideline)

	eligible := svc.Filter(
		corpus, corpus.Conditions[0], corpus.Severities[0], entities.PatientTypeAdult,
		[]*entities.Pathogen{corpus.Pathogens[0]},
		RenalStatus{CrCl: 8, DialysisType: entities.DialysisHD},
		nil,
		newTraceBuilder(),
	)

	require.Len(t, eligible, 1)
	assert.Equal(t, entities.DialysisHD, eligible[0].DialysisType)
}
