package handlers

import (
	"net/http"
	"strconv"

	"github.com/seunolaitan/abxguide/backend/internal/domain/repositories"
	apperrors "github.com/seunolaitan/abxguide/backend/pkg/errors"
)

// CorpusHandler handles read access to the guideline corpus
type CorpusHandler struct {
	repo repositories.GuidelineRepository
}

// NewCorpusHandler creates a new corpus handler
func NewCorpusHandler(repo repositories.GuidelineRepository) *CorpusHandler {
	return &CorpusHandler{
		repo: repo,
	}
}

// ListConditions handles GET /api/conditions
func (h *CorpusHandler) ListConditions(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")

	conditions, err := h.repo.ListConditions(r.Context(), search)
	if err != nil {
		respondWithRepoError(w, err, "failed to list conditions")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"conditions": conditions,
		"count":      len(conditions),
	})
}

// ListPathogens handles GET /api/pathogens
func (h *CorpusHandler) ListPathogens(w http.ResponseWriter, r *http.Request) {
	filter := repositories.PathogenFilter{
		GramType: r.URL.Query().Get("gram"),
		Search:   r.URL.Query().Get("search"),
		Limit:    parseIntParam(r, "limit", 50),
		Offset:   parseIntParam(r, "offset", 0),
	}

	pathogens, err := h.repo.ListPathogens(r.Context(), filter)
	if err != nil {
		respondWithRepoError(w, err, "failed to list pathogens")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"pathogens": pathogens,
		"count":     len(pathogens),
	})
}

// ListGuidelines handles GET /api/guidelines
func (h *CorpusHandler) ListGuidelines(w http.ResponseWriter, r *http.Request) {
	filter := repositories.GuidelineFilter{
		Antibiotic:  r.URL.Query().Get("antibiotic"),
		ConditionID: int64(parseIntParam(r, "condition_id", 0)),
		SeverityID:  int64(parseIntParam(r, "severity_id", 0)),
		PatientType: r.URL.Query().Get("patient_type"),
		Limit:       parseIntParam(r, "limit", 50),
		Offset:      parseIntParam(r, "offset", 0),
	}

	guidelines, err := h.repo.ListGuidelines(r.Context(), filter)
	if err != nil {
		respondWithRepoError(w, err, "failed to list guidelines")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"guidelines": guidelines,
		"count":      len(guidelines),
	})
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func respondWithRepoError(w http.ResponseWriter, err error, fallbackMessage string) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		switch appErr.Type {
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
		default:
			respondWithError(w, http.StatusInternalServerError, fallbackMessage)
		}
		return
	}
	respondWithError(w, http.StatusInternalServerError, fallbackMessage)
}
