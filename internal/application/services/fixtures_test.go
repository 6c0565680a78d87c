package services

import (
	"github.com/seunolaitan/abxguide/backend/internal/domain/entities"
)

func floatPtr(v float64) *float64 { return &v }

// utiCorpus is the minimal corpus for the urinary tract scenario: one
// condition with a single standard severity and two guidelines, one
// flexible-route ciprofloxacin and one IV-only ceftriaxone.
func utiCorpus() *entities.Corpus {
	return &entities.Corpus{
		Conditions: []*entities.Condition{
			{ID: 1, Name: "Pyelonephritis"},
		},
		Severities: []*entities.Severity{
			{ID: 10, ConditionID: 1, Level: "Standard", Rank: 1, PathogenIDs: []int64{100, 101, 102}},
		},
		Pathogens: []*entities.Pathogen{
			{ID: 100, Name: "E. coli", GramType: entities.GramNegative},
			{ID: 101, Name: "K. pneumoniae", GramType: entities.GramNegative},
			{ID: 102, Name: "Enterococci", GramType: entities.GramPositive},
		},
		Guidelines: []*entities.Guideline{
			{
				ID:           1000,
				Antibiotic:   "Ciprofloxacin 500mg",
				ConditionID:  1,
				SeverityID:   10,
				PathogenIDs:  []int64{100},
				CrClMin:      floatPtr(30),
				CrClMax:      floatPtr(150),
				DialysisType: entities.DialysisNone,
				PatientType:  entities.PatientTypeAdult,
				Dose:         "500mg",
				Routes:       []entities.Route{entities.RoutePO, entities.RouteIV},
				Interval:     "q12h",
				Duration:     "7 days",
			},
			{
				ID:           1001,
				Antibiotic:   "Ceftriaxone 1g",
				ConditionID:  1,
				SeverityID:   10,
				PathogenIDs:  []int64{100, 101},
				CrClMin:      floatPtr(10),
				CrClMax:      floatPtr(150),
				DialysisType: entities.DialysisNone,
				PatientType:  entities.PatientTypeAdult,
				Dose:         "1g",
				Routes:       []entities.Route{entities.RouteIV},
				Interval:     "q24h",
				Duration:     "7 days",
			},
		},
	}
}

// pneumoniaCorpus covers the respiratory scenarios, including the genus
// inference alternates (no K. pneumoniae entry on purpose).
func pneumoniaCorpus() *entities.Corpus {
	return &entities.Corpus{
		Conditions: []*entities.Condition{
			{ID: 2, Name: "Pneumonia, community-acquired"},
		},
		Severities: []*entities.Severity{
			{ID: 20, ConditionID: 2, Level: "Outpatient", Rank: 1, PathogenIDs: []int64{200, 201}},
			{ID: 21, ConditionID: 2, Level: "ICU", Rank: 2, PathogenIDs: []int64{200, 201}},
		},
		Pathogens: []*entities.Pathogen{
			{ID: 200, Name: "S. pneumoniae", GramType: entities.GramPositive},
			{ID: 201, Name: "H. influenzae", GramType: entities.GramNegative},
		},
		Guidelines: []*entities.Guideline{
			{
				ID:           2000,
				Antibiotic:   "Amoxicillin 1g",
				ConditionID:  2,
				SeverityID:   20,
				PathogenIDs:  []int64{200, 201},
				CrClMin:      floatPtr(30),
				CrClMax:      floatPtr(150),
				DialysisType: entities.DialysisNone,
				PatientType:  entities.PatientTypeAdult,
				Dose:         "1g",
				Routes:       []entities.Route{entities.RoutePO},
				Interval:     "q8h",
				Duration:     "5 days",
			},
		},
	}
}

func testPatient() *entities.PatientSnapshot {
	return &entities.PatientSnapshot{
		PatientID: "P-1",
		Age:       40,
		Diagnosis: "UTI",
		Pathogen:  "Escherichia coli",
		Allergies: "None",
		CrCl:      45,
	}
}
