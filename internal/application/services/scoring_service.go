package services

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/seunolaitan/abxguide/backend/internal/domain/entities"
)

// ScoringService computes the clinical preference score for each eligible
// guideline, assembles its rationale, and produces the ranked recommendation
// list. Scores are additive integers clamped at zero; the weights are the
// lexicon's allow-lists, so the whole heuristic is data-driven.
type ScoringService struct {
	lexicon *Lexicon
}

// NewScoringService creates a new scoring service
func NewScoringService(lexicon *Lexicon) *ScoringService {
	return &ScoringService{lexicon: lexicon}
}

// ScoringContext carries the resolved patient factors a score depends on
type ScoringContext struct {
	Patient  *entities.PatientSnapshot
	Severity *entities.Severity
	Targets  []*entities.Pathogen
	Renal    RenalStatus
}

// TherapyTypeFor classifies a guideline as targeted or empirical. Targeted
// requires exactly one resolved pathogen that the guideline actually covers.
func (s *ScoringService) TherapyTypeFor(g *entities.Guideline, targets []*entities.Pathogen) entities.TherapyType {
	if len(targets) == 1 && g.CoversPathogen(targets[0].ID) {
		return entities.TherapyTargeted
	}
	return entities.TherapyEmpirical
}

// Score computes the preference score for one guideline
func (s *ScoringService) Score(g *entities.Guideline, therapy entities.TherapyType, sc ScoringContext) int {
	score := 0

	// Therapy specificity
	if therapy == entities.TherapyTargeted {
		score += 15
	} else {
		score += 5
	}

	// Pathogen coverage quality
	coverage := len(g.PathogenIDs)
	if therapy == entities.TherapyTargeted && coverage == 1 {
		score += 10
	} else if therapy == entities.TherapyEmpirical && coverage >= 3 {
		score += 8
	}

	score += s.routeScore(g, sc.Severity)
	score += s.dosingScore(g)
	score += s.safetyScore(g, sc)
	score += s.resistanceScore(g, sc.Targets)
	score += s.severityFitScore(g, sc.Severity)

	if score < 0 {
		score = 0
	}
	return score
}

func (s *ScoringService) routeScore(g *entities.Guideline, severity *entities.Severity) int {
	switch {
	case severity != nil && severity.IsICU():
		if g.HasRoute(entities.RouteIV) {
			return 8
		}
	case g.HasRoute(entities.RoutePO) && g.HasRoute(entities.RouteIV):
		return 6
	case g.HasRoute(entities.RoutePO):
		return 5
	}
	return 0
}

func (s *ScoringService) dosingScore(g *entities.Guideline) int {
	interval := strings.ToLower(g.Interval)
	switch {
	case interval == "":
		return 0
	case strings.Contains(interval, "q24h") || strings.Contains(interval, "daily") || strings.Contains(interval, "once"):
		return 5
	case strings.Contains(interval, "q12h") || strings.Contains(interval, "twice"):
		return 3
	case strings.Contains(interval, "q8h"):
		return 1
	case strings.Contains(interval, "q6h") || strings.Contains(interval, "q4h"):
		return -2
	}
	return 0
}

func (s *ScoringService) safetyScore(g *entities.Guideline, sc ScoringContext) int {
	score := 0
	antibiotic := strings.ToLower(g.Antibiotic)

	if sc.Patient.Age >= 75 {
		if containsAny(antibiotic, s.lexicon.Scoring.GeriatricSafe) {
			score += 3
		} else if containsAny(antibiotic, s.lexicon.Scoring.Fluoroquinolones) {
			score -= 2
		}
	}

	if sc.Renal.CrCl < 30 && containsAny(antibiotic, s.lexicon.Scoring.RenalSafe) {
		score += 3
	}

	if containsAny(antibiotic, s.lexicon.Scoring.FirstLineSafe) {
		score += 2
	}

	return score
}

func (s *ScoringService) resistanceScore(g *entities.Guideline, targets []*entities.Pathogen) int {
	score := 0
	antibiotic := strings.ToLower(g.Antibiotic)

	if containsAny(antibiotic, s.lexicon.Scoring.LocallyEffective) {
		score += 3
	}

	for _, target := range targets {
		name := strings.ToLower(target.Name)
		for _, pairing := range s.lexicon.Scoring.EfficacyPairings {
			if strings.Contains(name, pairing.PathogenSubstring) && containsAny(antibiotic, pairing.AntibioticSubstrings) {
				score += 2
				break
			}
		}
	}

	return score
}

func (s *ScoringService) severityFitScore(g *entities.Guideline, severity *entities.Severity) int {
	if severity == nil {
		return 0
	}
	antibiotic := strings.ToLower(g.Antibiotic)
	switch {
	case severity.IsICU():
		if containsAny(antibiotic, s.lexicon.Scoring.BroadSpectrum) {
			return 5
		}
	case severity.IsWard():
		if containsAny(antibiotic, s.lexicon.Scoring.WardStandard) {
			return 3
		}
	case severity.IsOutpatient():
		if containsAny(antibiotic, s.lexicon.Scoring.OralFirstLine) {
			return 4
		}
	}
	return 0
}

// BuildRecommendation turns one eligible guideline into a scored, annotated
// recommendation. Rank is assigned later by RankAndFormat.
func (s *ScoringService) BuildRecommendation(g *entities.Guideline, corpus *entities.Corpus, sc ScoringContext) *entities.Recommendation {
	therapy := s.TherapyTypeFor(g, sc.Targets)
	score := s.Score(g, therapy, sc)

	dose := g.Dose
	if dose == "" {
		dose = "See guidelines"
	}

	return &entities.Recommendation{
		AntibioticName:       g.Antibiotic,
		Dose:                 dose,
		Route:                g.RouteDisplay(),
		Routes:               g.Routes,
		Interval:             g.Interval,
		Duration:             g.Duration,
		Remark:               g.Remark,
		TherapyType:          therapy,
		PreferenceScore:      score,
		PathogenCoverage:     corpus.PathogenNames(g.PathogenIDs),
		RenalAdjustment:      s.renalAdjustmentNote(sc.Renal),
		ClinicalNotes:        s.clinicalNotes(g, sc.Patient),
		Rationale:            s.rationale(g, therapy, sc),
		AppropriatenessLevel: AppropriatenessLevel(score),
	}
}

// RankAndFormat sorts recommendations by score then tier, deduplicates by base
// antibiotic name, and assigns final ranks.
func (s *ScoringService) RankAndFormat(recommendations []*entities.Recommendation) []*entities.Recommendation {
	sort.SliceStable(recommendations, func(i, j int) bool {
		if recommendations[i].PreferenceScore != recommendations[j].PreferenceScore {
			return recommendations[i].PreferenceScore > recommendations[j].PreferenceScore
		}
		return recommendations[i].AppropriatenessLevel > recommendations[j].AppropriatenessLevel
	})

	deduplicated := DeduplicateRecommendations(recommendations)
	for i, rec := range deduplicated {
		rec.Rank = i + 1
	}
	return deduplicated
}

// AppropriatenessLevel converts a preference score to the 1-5 tier used for
// tie-breaking and UI grouping.
func AppropriatenessLevel(score int) int {
	switch {
	case score >= 25:
		return 5
	case score >= 20:
		return 4
	case score >= 15:
		return 3
	case score >= 10:
		return 2
	default:
		return 1
	}
}

func (s *ScoringService) renalAdjustmentNote(renal RenalStatus) string {
	switch {
	case renal.DialysisType != entities.DialysisNone:
		return fmt.Sprintf("Dosing adjusted for %s", strings.ToUpper(string(renal.DialysisType)))
	case renal.CrCl < 50:
		return fmt.Sprintf("Dosing adjusted for CrCl %g mL/min", renal.CrCl)
	default:
		return "No renal adjustment needed"
	}
}

func (s *ScoringService) clinicalNotes(g *entities.Guideline, patient *entities.PatientSnapshot) []string {
	var notes []string
	if g.Remark != "" {
		notes = append(notes, g.Remark)
	}
	if patient.BodyWeightKg > 0 && patient.BodyWeightKg < 50 {
		notes = append(notes, "Consider weight-based dosing adjustment")
	} else if patient.BodyWeightKg > 100 {
		notes = append(notes, "Consider higher dosing for increased body weight")
	}
	if patient.Age >= 75 {
		notes = append(notes, "Monitor for age-related adverse effects")
	}
	return notes
}

func (s *ScoringService) rationale(g *entities.Guideline, therapy entities.TherapyType, sc ScoringContext) string {
	var parts []string

	if therapy == entities.TherapyTargeted {
		parts = append(parts, "targeted therapy based on identified pathogen")
	} else {
		parts = append(parts, "empirical therapy covering likely pathogens")
	}

	switch {
	case g.HasRoute(entities.RoutePO) && g.HasRoute(entities.RouteIV):
		parts = append(parts, "flexible oral/IV dosing options")
	case g.HasRoute(entities.RoutePO):
		parts = append(parts, "oral administration for outpatient management")
	case g.HasRoute(entities.RouteIV):
		parts = append(parts, "IV administration for severe infection")
	}

	if sc.Severity != nil {
		switch {
		case sc.Severity.IsICU():
			parts = append(parts, "broad-spectrum coverage for ICU setting")
		case sc.Severity.IsWard():
			parts = append(parts, "appropriate for hospitalized patients")
		case sc.Severity.IsOutpatient():
			parts = append(parts, "suitable for outpatient treatment")
		}
	}

	if sc.Patient.Age >= 75 {
		parts = append(parts, "age-appropriate safety profile")
	}
	if sc.Renal.CrCl < 50 {
		parts = append(parts, "acceptable in renal impairment")
	}

	// Fixed citation clause always closes the rationale
	parts = append(parts, "per IDSA 2024 guidelines")

	return capitalizeFirst(strings.Join(parts, "; ")) + "."
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
