package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seunolaitan/abxguide/backend/internal/domain/entities"
)

func TestResolveCondition_SynonymVariantsMapToSameCondition(t *testing.T) {
	svc := NewResolverService(DefaultLexicon())
	corpus := utiCorpus()

	variants := []string{
		"urinary tract infection",
		"urinary track infection", // common misspelling
		"acute pyelonephritis",
		"UTI",
		"recurrent uti, fever",
	}

	for _, diagnosis := range variants {
		t.Run(diagnosis, func(t *testing.T) {
			patient := testPatient()
			patient.Diagnosis = diagnosis
			trace := newTraceBuilder()

			condition := svc.ResolveCondition(patient, corpus, trace)

			require.NotNil(t, condition)
			assert.Equal(t, "Pyelonephritis", condition.Name)
			require.Len(t, trace.Steps(), 1)
			assert.Equal(t, entities.StepSuccess, trace.Steps()[0].Result)
		})
	}
}

func TestResolveCondition_PathogenDrivenPneumoniaeOverride(t *testing.T) {
	svc := NewResolverService(DefaultLexicon())
	corpus := pneumoniaCorpus()

	patient := testPatient()
	patient.Diagnosis = "fever of unknown origin"
	patient.Pathogen = "Klebsiella pneumoniae"
	trace := newTraceBuilder()

	condition := svc.ResolveCondition(patient, corpus, trace)

	require.NotNil(t, condition)
	assert.Equal(t, "Pneumonia, community-acquired", condition.Name)
	assert.Contains(t, trace.Steps()[0].Output, "Intelligent match via pathogen")
}

func TestResolveCondition_FuzzyWordContainment(t *testing.T) {
	svc := NewResolverService(DefaultLexicon())
	corpus := pneumoniaCorpus()

	patient := testPatient()
	patient.Diagnosis = "possible pneumonia with effusion"
	patient.Pathogen = "unknown"
	trace := newTraceBuilder()

	condition := svc.ResolveCondition(patient, corpus, trace)

	require.NotNil(t, condition)
	assert.Equal(t, "Pneumonia, community-acquired", condition.Name)
}

func TestResolveCondition_NoMatchRecordsFailure(t *testing.T) {
	svc := NewResolverService(DefaultLexicon())
	corpus := utiCorpus()

	patient := testPatient()
	patient.Diagnosis = "fractured femur"
	patient.Pathogen = "none"
	trace := newTraceBuilder()

	condition := svc.ResolveCondition(patient, corpus, trace)

	assert.Nil(t, condition)
	require.Len(t, trace.Steps(), 1)
	assert.Equal(t, entities.StepFailure, trace.Steps()[0].Result)
}

func TestResolveSeverity_PicksLowestRankAndFlagsDefault(t *testing.T) {
	svc := NewResolverService(DefaultLexicon())
	corpus := pneumoniaCorpus()

	trace := newTraceBuilder()
	severity := svc.ResolveSeverity(corpus.Conditions[0], corpus, trace)

	require.NotNil(t, severity)
	assert.Equal(t, "Outpatient", severity.Level)
	assert.Contains(t, trace.Steps()[0].Note, "clinical assessment needed")
}

func TestResolveSeverity_NoTiersFails(t *testing.T) {
	svc := NewResolverService(DefaultLexicon())
	corpus := &entities.Corpus{
		Conditions: []*entities.Condition{{ID: 5, Name: "Cellulitis"}},
	}

	trace := newTraceBuilder()
	severity := svc.ResolveSeverity(corpus.Conditions[0], corpus, trace)

	assert.Nil(t, severity)
	assert.Equal(t, entities.StepFailure, trace.Steps()[0].Result)
}

func TestClassifyPatient_AgeBoundary(t *testing.T) {
	svc := NewResolverService(DefaultLexicon())

	adult := testPatient()
	adult.Age = 18
	child := testPatient()
	child.Age = 17

	assert.Equal(t, entities.PatientTypeAdult, svc.ClassifyPatient(adult, newTraceBuilder()))
	assert.Equal(t, entities.PatientTypeChild, svc.ClassifyPatient(child, newTraceBuilder()))
}

func TestResolvePathogens_TargetedFromSynonym(t *testing.T) {
	svc := NewResolverService(DefaultLexicon())
	corpus := utiCorpus()
	severity := corpus.Severities[0]

	patient := testPatient()
	patient.Pathogen = "Escherichia coli"
	trace := newTraceBuilder()

	targets, therapy := svc.ResolvePathogens(patient, corpus, severity, trace)

	require.Len(t, targets, 1)
	assert.Equal(t, "E. coli", targets[0].Name)
	assert.Equal(t, entities.TherapyTargeted, therapy)
}

func TestResolvePathogens_CulturePendingIsEmpirical(t *testing.T) {
	svc := NewResolverService(DefaultLexicon())
	corpus := utiCorpus()
	severity := corpus.Severities[0]

	patient := testPatient()
	patient.Pathogen = "culture pending"
	trace := newTraceBuilder()

	targets, therapy := svc.ResolvePathogens(patient, corpus, severity, trace)

	assert.Equal(t, entities.TherapyEmpirical, therapy)
	assert.Len(t, targets, 3) // full severity pathogen set
}

func TestResolvePathogens_GenusInferenceUsesAlternates(t *testing.T) {
	svc := NewResolverService(DefaultLexicon())
	corpus := pneumoniaCorpus() // has no K. pneumoniae entry
	severity := corpus.Severities[0]

	patient := testPatient()
	patient.Pathogen = "Klebsiella pneumoniae"
	trace := newTraceBuilder()

	targets, therapy := svc.ResolvePathogens(patient, corpus, severity, trace)

	require.Len(t, targets, 1)
	assert.Equal(t, "H. influenzae", targets[0].Name)
	assert.Equal(t, entities.TherapyTargeted, therapy)
}

func TestResolvePathogens_UnknownOrganismDegradesToEmpirical(t *testing.T) {
	svc := NewResolverService(DefaultLexicon())
	corpus := utiCorpus()
	severity := corpus.Severities[0]

	patient := testPatient()
	patient.Pathogen = "Serratia marcescens"
	trace := newTraceBuilder()

	targets, therapy := svc.ResolvePathogens(patient, corpus, severity, trace)

	assert.Equal(t, entities.TherapyEmpirical, therapy)
	assert.Len(t, targets, 3)

	last := trace.Steps()[len(trace.Steps())-1]
	assert.Equal(t, entities.StepFallback, last.Result)
}
