package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/seunolaitan/abxguide/backend/internal/api/handlers"
	"github.com/seunolaitan/abxguide/backend/internal/domain/entities"
	"github.com/seunolaitan/abxguide/backend/internal/domain/repositories"
)

func TestCorpusHandler_ListConditions(t *testing.T) {
	t.Run("lists conditions with search term", func(t *testing.T) {
		mockRepo := new(MockGuidelineRepo)
		handler := handlers.NewCorpusHandler(mockRepo)

		conditions := []*entities.Condition{
			{ID: 1, Name: "Pyelonephritis"},
			{ID: 2, Name: "Pneumonia, community-acquired"},
		}
		mockRepo.On("ListConditions", mock.Anything, "pyelo").Return(conditions, nil)

		req := httptest.NewRequest("GET", "/api/conditions?search=pyelo", nil)
		w := httptest.NewRecorder()

		handler.ListConditions(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var decoded map[string]json.RawMessage
		err := json.Unmarshal(w.Body.Bytes(), &decoded)
		assert.NoError(t, err)
		assert.Contains(t, decoded, "conditions")
		assert.JSONEq(t, "2", string(decoded["count"]))
		mockRepo.AssertExpectations(t)
	})

	t.Run("returns internal error on repository failure", func(t *testing.T) {
		mockRepo := new(MockGuidelineRepo)
		handler := handlers.NewCorpusHandler(mockRepo)

		mockRepo.On("ListConditions", mock.Anything, "").Return(nil, errors.New("db down"))

		req := httptest.NewRequest("GET", "/api/conditions", nil)
		w := httptest.NewRecorder()

		handler.ListConditions(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestCorpusHandler_ListPathogens(t *testing.T) {
	t.Run("parses query filters", func(t *testing.T) {
		mockRepo := new(MockGuidelineRepo)
		handler := handlers.NewCorpusHandler(mockRepo)

		pathogens := []*entities.Pathogen{
			{ID: 100, Name: "Escherichia coli", GramType: "negative"},
		}
		mockRepo.On("ListPathogens", mock.Anything, repositories.PathogenFilter{
			GramType: "negative",
			Search:   "coli",
			Limit:    10,
			Offset:   5,
		}).Return(pathogens, nil)

		req := httptest.NewRequest("GET", "/api/pathogens?gram=negative&search=coli&limit=10&offset=5", nil)
		w := httptest.NewRecorder()

		handler.ListPathogens(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockRepo.AssertExpectations(t)
	})

	t.Run("falls back to defaults for malformed paging", func(t *testing.T) {
		mockRepo := new(MockGuidelineRepo)
		handler := handlers.NewCorpusHandler(mockRepo)

		mockRepo.On("ListPathogens", mock.Anything, repositories.PathogenFilter{
			Limit:  50,
			Offset: 0,
		}).Return([]*entities.Pathogen{}, nil)

		req := httptest.NewRequest("GET", "/api/pathogens?limit=abc&offset=-3", nil)
		w := httptest.NewRecorder()

		handler.ListPathogens(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockRepo.AssertExpectations(t)
	})
}

func TestCorpusHandler_ListGuidelines(t *testing.T) {
	t.Run("parses guideline filters", func(t *testing.T) {
		mockRepo := new(MockGuidelineRepo)
		handler := handlers.NewCorpusHandler(mockRepo)

		guidelines := []*entities.Guideline{
			{ID: 1, Antibiotic: "Ciprofloxacin 500mg"},
		}
		mockRepo.On("ListGuidelines", mock.Anything, repositories.GuidelineFilter{
			Antibiotic:  "cipro",
			ConditionID: 1,
			SeverityID:  10,
			PatientType: "adult",
			Limit:       50,
			Offset:      0,
		}).Return(guidelines, nil)

		req := httptest.NewRequest("GET", "/api/guidelines?antibiotic=cipro&condition_id=1&severity_id=10&patient_type=adult", nil)
		w := httptest.NewRecorder()

		handler.ListGuidelines(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var decoded map[string]json.RawMessage
		err := json.Unmarshal(w.Body.Bytes(), &decoded)
		assert.NoError(t, err)
		assert.JSONEq(t, "1", string(decoded["count"]))
		mockRepo.AssertExpectations(t)
	})

	t.Run("returns internal error on repository failure", func(t *testing.T) {
		mockRepo := new(MockGuidelineRepo)
		handler := handlers.NewCorpusHandler(mockRepo)

		mockRepo.On("ListGuidelines", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

		req := httptest.NewRequest("GET", "/api/guidelines", nil)
		w := httptest.NewRecorder()

		handler.ListGuidelines(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
