package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seunolaitan/abxguide/backend/internal/domain/entities"
	"github.com/seunolaitan/abxguide/backend/internal/domain/repositories"
)

type stubCorpusRepo struct {
	corpus *entities.Corpus
	err    error
}

func (s *stubCorpusRepo) Snapshot(ctx context.Context) (*entities.Corpus, error) {
	return s.corpus, s.err
}

func (s *stubCorpusRepo) ListConditions(ctx context.Context, search string) ([]*entities.Condition, error) {
	return s.corpus.Conditions, nil
}

func (s *stubCorpusRepo) ListPathogens(ctx context.Context, filter repositories.PathogenFilter) ([]*entities.Pathogen, error) {
	return s.corpus.Pathogens, nil
}

func (s *stubCorpusRepo) ListGuidelines(ctx context.Context, filter repositories.GuidelineFilter) ([]*entities.Guideline, error) {
	return s.corpus.Guidelines, nil
}

func (s *stubCorpusRepo) UpsertCondition(ctx context.Context, condition *entities.Condition) error {
	return nil
}

func (s *stubCorpusRepo) UpsertSeverity(ctx context.Context, severity *entities.Severity) error {
	return nil
}

func (s *stubCorpusRepo) UpsertPathogen(ctx context.Context, pathogen *entities.Pathogen) error {
	return nil
}

func (s *stubCorpusRepo) CreateGuideline(ctx context.Context, guideline *entities.Guideline) error {
	return nil
}

func newTestService(corpus *entities.Corpus) *RecommendationService {
	lexicon := DefaultLexicon()
	return NewRecommendationService(
		&stubCorpusRepo{corpus: corpus},
		NewResolverService(lexicon),
		NewEligibilityService(lexicon),
		NewScoringService(lexicon),
		nil,
		0,
	)
}

func TestEvaluate_TargetedScenario(t *testing.T) {
	svc := newTestService(utiCorpus())

	result := svc.Evaluate(context.Background(), testPatient(), Options{})

	require.True(t, result.Success)
	require.Len(t, result.Recommendations, 2)
	assert.Contains(t, result.Recommendations[0].AntibioticName, "Ciprofloxacin")
	assert.Equal(t, 34, result.Recommendations[0].PreferenceScore)
	assert.Equal(t, entities.TherapyTargeted, result.Recommendations[0].TherapyType)
	assert.False(t, result.IsFallback)
	assert.Equal(t, 2, result.TotalMatches)
	assert.NotEmpty(t, result.EvaluationID)

	require.NotNil(t, result.PatientSummary)
	assert.Equal(t, "Pyelonephritis", result.PatientSummary.MatchedCondition)
	assert.Equal(t, []string{"E. coli"}, result.PatientSummary.TargetPathogens)
}

func TestEvaluate_Deterministic(t *testing.T) {
	svc := newTestService(utiCorpus())

	first := svc.Evaluate(context.Background(), testPatient(), Options{})
	second := svc.Evaluate(context.Background(), testPatient(), Options{})

	require.Equal(t, len(first.Recommendations), len(second.Recommendations))
	for i := range first.Recommendations {
		assert.Equal(t, first.Recommendations[i].AntibioticName, second.Recommendations[i].AntibioticName)
		assert.Equal(t, first.Recommendations[i].PreferenceScore, second.Recommendations[i].PreferenceScore)
	}
	assert.Equal(t, first.Trace, second.Trace)
}

func TestEvaluate_NoConditionMatch(t *testing.T) {
	svc := newTestService(utiCorpus())

	patient := testPatient()
	patient.Diagnosis = "appendicitis"
	patient.Pathogen = "none"

	result := svc.Evaluate(context.Background(), patient, Options{})

	assert.False(t, result.Success)
	assert.Equal(t, "No matching condition found for diagnosis", result.Reason)
	assert.Empty(t, result.Recommendations)
	assert.NotEmpty(t, result.Trace, "partial trace must be carried")
}

func TestEvaluate_NoSeverityMatch(t *testing.T) {
	corpus := utiCorpus()
	corpus.Severities = nil
	svc := newTestService(corpus)

	result := svc.Evaluate(context.Background(), testPatient(), Options{})

	assert.False(t, result.Success)
	assert.Equal(t, "No matching severity found", result.Reason)
}

func TestEvaluate_GeneralFallbackOnEmptyFilter(t *testing.T) {
	corpus := utiCorpus()
	svc := newTestService(corpus)

	// Quinolone and beta-lactam allergies exclude both guidelines
	patient := testPatient()
	patient.Allergies = "quinolone, beta-lactam"

	result := svc.Evaluate(context.Background(), patient, Options{})

	require.True(t, result.Success)
	assert.True(t, result.IsFallback)
	require.NotEmpty(t, result.Recommendations, "never an empty silent result")
	for _, rec := range result.Recommendations {
		assert.Equal(t, 50, rec.PreferenceScore)
		assert.Equal(t, entities.TherapyEmpirical, rec.TherapyType)
	}
	assert.NotEmpty(t, result.Message)
}

func TestEvaluate_CorpusErrorIsStructured(t *testing.T) {
	lexicon := DefaultLexicon()
	svc := NewRecommendationService(
		&stubCorpusRepo{err: errors.New("connection refused")},
		NewResolverService(lexicon),
		NewEligibilityService(lexicon),
		NewScoringService(lexicon),
		nil,
		0,
	)

	result := svc.Evaluate(context.Background(), testPatient(), Options{})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "connection refused")
}

func TestEvaluate_LimitTruncatesRanked(t *testing.T) {
	svc := newTestService(utiCorpus())

	result := svc.Evaluate(context.Background(), testPatient(), Options{Limit: 1})

	require.True(t, result.Success)
	require.Len(t, result.Recommendations, 1)
	assert.Contains(t, result.Recommendations[0].AntibioticName, "Ciprofloxacin")
	assert.Equal(t, 2, result.TotalMatches, "total matches reports the pre-truncation count")
}

func TestEvaluate_EmpiricalOnCulturePending(t *testing.T) {
	svc := newTestService(utiCorpus())

	patient := testPatient()
	patient.Pathogen = "culture pending"

	result := svc.Evaluate(context.Background(), patient, Options{})

	require.True(t, result.Success)
	for _, rec := range result.Recommendations {
		assert.Equal(t, entities.TherapyEmpirical, rec.TherapyType)
	}
	assert.Len(t, result.PatientSummary.TargetPathogens, 3)
}
