package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/seunolaitan/abxguide/backend/internal/domain/entities"
	"github.com/seunolaitan/abxguide/backend/internal/domain/repositories"
	"github.com/seunolaitan/abxguide/backend/internal/infrastructure/observability"
)

// Options tunes one evaluation
type Options struct {
	// Limit truncates the ranked list when > 0. Zero returns everything.
	Limit int
}

// RecommendationService orchestrates the evaluation pipeline: resolve the
// clinical entities, filter the corpus, score and rank, deduplicate. Every
// outcome is folded into a structured EvaluationResult; the service never
// returns an error or lets a panic escape, since callers treat the result as
// the sole signal.
type RecommendationService struct {
	repo         repositories.GuidelineRepository
	resolver     *ResolverService
	eligibility  *EligibilityService
	scoring      *ScoringService
	metrics      *observability.Metrics
	defaultLimit int
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(
	repo repositories.GuidelineRepository,
	resolver *ResolverService,
	eligibility *EligibilityService,
	scoring *ScoringService,
	metrics *observability.Metrics,
	defaultLimit int,
) *RecommendationService {
	return &RecommendationService{
		repo:         repo,
		resolver:     resolver,
		eligibility:  eligibility,
		scoring:      scoring,
		metrics:      metrics,
		defaultLimit: defaultLimit,
	}
}

// Evaluate runs the full pipeline for one patient snapshot. Deterministic for
// identical patient and corpus inputs.
func (s *RecommendationService) Evaluate(ctx context.Context, patient *entities.PatientSnapshot, opts Options) (result *entities.EvaluationResult) {
	ctx, span := observability.StartSpan(ctx, "recommendation.evaluate")
	defer span.End()

	start := time.Now()
	evaluationID := uuid.New().String()
	trace := newTraceBuilder()

	defer func() {
		if r := recover(); r != nil {
			result = &entities.EvaluationResult{
				EvaluationID: evaluationID,
				Success:      false,
				Trace:        trace.Steps(),
				Error:        fmt.Sprintf("internal error: %v", r),
			}
		}
		outcome := "failure"
		if result.Success {
			outcome = "success"
			if result.IsFallback {
				outcome = "fallback"
			}
		}
		observability.RecordEvaluationMetric(ctx, s.metrics, outcome, time.Since(start))

		logger := observability.EvaluationLogger(ctx, evaluationID)
		logger.Info().
			Str("patient_id", patient.PatientID).
			Bool("success", result.Success).
			Bool("is_fallback", result.IsFallback).
			Int("recommendations", len(result.Recommendations)).
			Dur("duration", time.Since(start)).
			Msg("evaluation completed")
	}()

	corpus, err := s.repo.Snapshot(ctx)
	if err != nil {
		return &entities.EvaluationResult{
			EvaluationID: evaluationID,
			Success:      false,
			Trace:        trace.Steps(),
			Error:        fmt.Sprintf("failed to load guideline corpus: %v", err),
		}
	}

	condition := s.resolver.ResolveCondition(patient, corpus, trace)
	if condition == nil {
		return s.resolutionFailure(evaluationID, patient, trace, "No matching condition found for diagnosis")
	}

	severity := s.resolver.ResolveSeverity(condition, corpus, trace)
	if severity == nil {
		return s.resolutionFailure(evaluationID, patient, trace, "No matching severity found")
	}

	patientType := s.resolver.ClassifyPatient(patient, trace)
	targets, _ := s.resolver.ResolvePathogens(patient, corpus, severity, trace)
	exclusions := s.eligibility.DeriveExclusions(patient, trace)
	renal := s.eligibility.AssessRenal(patient, trace)

	eligible := s.eligibility.Filter(corpus, condition, severity, patientType, targets, renal, exclusions, trace)

	sc := ScoringContext{
		Patient:  patient,
		Severity: severity,
		Targets:  targets,
		Renal:    renal,
	}

	if len(eligible) == 0 {
		return s.generalFallback(evaluationID, patient, corpus, condition, severity, patientType, targets, renal, exclusions, trace)
	}

	recommendations := make([]*entities.Recommendation, 0, len(eligible))
	for _, g := range eligible {
		recommendations = append(recommendations, s.scoring.BuildRecommendation(g, corpus, sc))
	}
	ranked := s.scoring.RankAndFormat(recommendations)
	totalMatches := len(eligible)

	if limit := s.limit(opts); limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return &entities.EvaluationResult{
		EvaluationID:    evaluationID,
		Success:         true,
		Recommendations: ranked,
		Trace:           trace.Steps(),
		PatientSummary:  s.patientSummary(patient, condition, severity, patientType, targets, renal, exclusions),
		TotalMatches:    totalMatches,
	}
}

func (s *RecommendationService) limit(opts Options) int {
	if opts.Limit > 0 {
		return opts.Limit
	}
	return s.defaultLimit
}

func (s *RecommendationService) resolutionFailure(evaluationID string, patient *entities.PatientSnapshot, trace *traceBuilder, reason string) *entities.EvaluationResult {
	return &entities.EvaluationResult{
		EvaluationID:    evaluationID,
		Success:         false,
		Recommendations: []*entities.Recommendation{},
		Trace:           trace.Steps(),
		Reason:          reason,
		PatientSummary: &entities.PatientSummary{
			PatientID:    patient.PatientID,
			Age:          patient.Age,
			PatientType:  patient.Type(),
			Diagnosis:    patient.Diagnosis,
			Pathogen:     patient.Pathogen,
			Allergies:    patient.Allergies,
			CrCl:         patient.CrCl,
			DialysisType: entities.DialysisNone,
			BodyWeightKg: patient.BodyWeightKg,
		},
	}
}

// generalFallback re-queries by condition alone when filtering empties the
// eligible set. The results carry a neutral score and are flagged for manual
// review rather than returning an empty list.
func (s *RecommendationService) generalFallback(
	evaluationID string,
	patient *entities.PatientSnapshot,
	corpus *entities.Corpus,
	condition *entities.Condition,
	severity *entities.Severity,
	patientType entities.PatientType,
	targets []*entities.Pathogen,
	renal RenalStatus,
	exclusions []string,
	trace *traceBuilder,
) *entities.EvaluationResult {
	const neutralScore = 50

	general := corpus.GuidelinesForCondition(condition.ID)
	recommendations := make([]*entities.Recommendation, 0, len(general))
	for i, g := range general {
		dose := g.Dose
		if dose == "" {
			dose = "See guidelines"
		}
		recommendations = append(recommendations, &entities.Recommendation{
			Rank:                 i + 1,
			AntibioticName:       g.Antibiotic,
			Dose:                 dose,
			Route:                g.RouteDisplay(),
			Routes:               g.Routes,
			Interval:             g.Interval,
			Duration:             g.Duration,
			Remark:               g.Remark,
			TherapyType:          entities.TherapyEmpirical,
			PreferenceScore:      neutralScore,
			PathogenCoverage:     []string{"General coverage"},
			Rationale:            fmt.Sprintf("General empirical therapy for %s. Consider pathogen-specific therapy when culture results available.", condition.Name),
			AppropriatenessLevel: AppropriatenessLevel(neutralScore),
		})
	}

	return &entities.EvaluationResult{
		EvaluationID:    evaluationID,
		Success:         true,
		Recommendations: recommendations,
		Trace:           trace.Steps(),
		PatientSummary:  s.patientSummary(patient, condition, severity, patientType, targets, renal, exclusions),
		TotalMatches:    len(recommendations),
		IsFallback:      true,
		Reason:          "No guideline survived strict filtering",
		Message:         fmt.Sprintf("No specific pathogen match found. Showing general empirical therapy options for %s. Intended for manual review.", condition.Name),
	}
}

func (s *RecommendationService) patientSummary(
	patient *entities.PatientSnapshot,
	condition *entities.Condition,
	severity *entities.Severity,
	patientType entities.PatientType,
	targets []*entities.Pathogen,
	renal RenalStatus,
	exclusions []string,
) *entities.PatientSummary {
	targetNames := make([]string, 0, len(targets))
	for _, p := range targets {
		targetNames = append(targetNames, p.Name)
	}

	summary := &entities.PatientSummary{
		PatientID:           patient.PatientID,
		Age:                 patient.Age,
		PatientType:         patientType,
		Diagnosis:           patient.Diagnosis,
		Pathogen:            patient.Pathogen,
		TargetPathogens:     targetNames,
		Allergies:           patient.Allergies,
		ExcludedAntibiotics: exclusions,
		CrCl:                renal.CrCl,
		DialysisType:        renal.DialysisType,
		BodyWeightKg:        patient.BodyWeightKg,
	}
	if condition != nil {
		summary.MatchedCondition = condition.Name
	}
	if severity != nil {
		summary.MatchedSeverity = severity.Level
	}
	return summary
}
