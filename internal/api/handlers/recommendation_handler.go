package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/seunolaitan/abxguide/backend/internal/application/services"
	"github.com/seunolaitan/abxguide/backend/internal/domain/entities"
	"github.com/seunolaitan/abxguide/backend/internal/domain/repositories"
)

// RecommendationEvaluator runs the dosing evaluation pipeline for a patient
type RecommendationEvaluator interface {
	Evaluate(ctx context.Context, patient *entities.PatientSnapshot, opts services.Options) *entities.EvaluationResult
}

// RecommendationHandler handles recommendation-related HTTP requests
type RecommendationHandler struct {
	evaluator  RecommendationEvaluator
	matcher    *services.MatcherService
	classifier *services.DrugClassifier
	repo       repositories.GuidelineRepository
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(evaluator RecommendationEvaluator, matcher *services.MatcherService, repo repositories.GuidelineRepository) *RecommendationHandler {
	return &RecommendationHandler{
		evaluator:  evaluator,
		matcher:    matcher,
		classifier: services.NewDrugClassifier(),
		repo:       repo,
	}
}

// recommendationRequest is the POST body for an evaluation: a patient snapshot
// plus an optional cap on how many recommendations come back
type recommendationRequest struct {
	entities.PatientSnapshot
	Limit int `json:"limit,omitempty"`
}

// Evaluate handles POST /api/recommendations
func (h *RecommendationHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req recommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Diagnosis) == "" {
		respondWithError(w, http.StatusBadRequest, "diagnosis is required")
		return
	}
	if req.Age < 0 {
		respondWithError(w, http.StatusBadRequest, "age must be non-negative")
		return
	}
	if req.CrCl < 0 {
		respondWithError(w, http.StatusBadRequest, "crcl must be non-negative")
		return
	}
	if req.Limit < 0 {
		respondWithError(w, http.StatusBadRequest, "limit must be non-negative")
		return
	}

	result := h.evaluator.Evaluate(r.Context(), &req.PatientSnapshot, services.Options{Limit: req.Limit})

	respondWithJSON(w, http.StatusOK, result)
}

// matchRequest is the POST body for explaining how a free-text antibiotic
// order maps onto the guideline corpus
type matchRequest struct {
	CurrentAntibiotic string   `json:"current_antibiotic"`
	CrCl              *float64 `json:"crcl,omitempty"`
	TreatmentFailure  bool     `json:"treatment_failure,omitempty"`
}

// matchResponse augments the explain output with drug-class context for the
// current antibiotic versus the best corpus match
type matchResponse struct {
	services.MatchExplanation
	CurrentClass services.Classification   `json:"current_class"`
	ClassAdvice  *services.SameClassAdvice `json:"class_advice,omitempty"`
}

// MatchAntibiotic handles POST /api/antibiotics/match
func (h *RecommendationHandler) MatchAntibiotic(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.CurrentAntibiotic) == "" {
		respondWithError(w, http.StatusBadRequest, "current_antibiotic is required")
		return
	}

	corpus, err := h.repo.Snapshot(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load guideline corpus")
		return
	}

	explanation := h.matcher.Explain(req.CurrentAntibiotic, corpus, req.CrCl)

	currentName := h.matcher.CanonicalName(explanation.Parsed.Name)
	response := matchResponse{
		MatchExplanation: explanation,
		CurrentClass:     h.classifier.Classify(currentName),
	}
	if best := explanation.BestMatch; best != nil {
		recommendationRoute := ""
		if len(best.Guideline.Routes) > 0 {
			recommendationRoute = string(best.Guideline.Routes[0])
		}
		advice := h.classifier.ShouldAvoidSameClass(currentName, best.Guideline.Antibiotic, services.ClassContext{
			TreatmentFailure:    req.TreatmentFailure,
			CurrentRoute:        explanation.Parsed.Route,
			RecommendationRoute: recommendationRoute,
		})
		response.ClassAdvice = &advice
	}

	respondWithJSON(w, http.StatusOK, response)
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
