package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_CommonDrugs(t *testing.T) {
	classifier := NewDrugClassifier()

	cases := []struct {
		antibiotic string
		class      string
	}{
		{"Ciprofloxacin 500mg", "fluoroquinolones"},
		{"Amoxicillin", "penicillins"},
		{"amoxicillin/clavulanate 1g", "beta_lactam_combinations"},
		{"Ceftriaxone 2g", "cephalosporins"},
		{"Meropenem", "carbapenems"},
		{"azithromycin", "macrolides"},
		{"Vancomycin", "glycopeptides"},
		{"Nitrofurantoin 100mg", "nitrofurans"},
		{"Quinine", "unknown"},
		{"", "unknown"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.class, classifier.Classify(tc.antibiotic).Class, "antibiotic %q", tc.antibiotic)
	}
}

func TestAreSameClass(t *testing.T) {
	classifier := NewDrugClassifier()

	assert.True(t, classifier.AreSameClass("Ciprofloxacin 500mg", "Levofloxacin 750mg"))
	assert.False(t, classifier.AreSameClass("Ciprofloxacin", "Ceftriaxone"))
	// Two unknowns never count as the same class
	assert.False(t, classifier.AreSameClass("Quinine", "Artesunate"))
}

func TestShouldAvoidSameClass_DefaultAvoids(t *testing.T) {
	classifier := NewDrugClassifier()

	advice := classifier.ShouldAvoidSameClass("Ciprofloxacin", "Levofloxacin", ClassContext{})

	assert.True(t, advice.Avoid)
	assert.Equal(t, "fluoroquinolones", advice.CurrentClass)
	assert.Contains(t, advice.Reason, "alternative class")
}

func TestShouldAvoidSameClass_TreatmentFailureException(t *testing.T) {
	classifier := NewDrugClassifier()

	advice := classifier.ShouldAvoidSameClass("Ciprofloxacin", "Levofloxacin", ClassContext{TreatmentFailure: true})

	assert.False(t, advice.Avoid)
	assert.Contains(t, advice.Reason, "Treatment failure")
}

func TestShouldAvoidSameClass_RouteSwitchExceptions(t *testing.T) {
	classifier := NewDrugClassifier()

	escalation := classifier.ShouldAvoidSameClass("Ciprofloxacin", "Levofloxacin", ClassContext{
		CurrentRoute:        "po",
		RecommendationRoute: "iv",
	})
	assert.False(t, escalation.Avoid)
	assert.Contains(t, escalation.Reason, "oral to IV")

	deescalation := classifier.ShouldAvoidSameClass("Ciprofloxacin", "Levofloxacin", ClassContext{
		CurrentRoute:        "IV",
		RecommendationRoute: "PO",
	})
	assert.False(t, deescalation.Avoid)
	assert.Contains(t, deescalation.Reason, "De-escalation")
}

func TestShouldAvoidSameClass_DifferentClasses(t *testing.T) {
	classifier := NewDrugClassifier()

	advice := classifier.ShouldAvoidSameClass("Ciprofloxacin", "Ceftriaxone", ClassContext{})

	assert.False(t, advice.Avoid)
	assert.Equal(t, "Different antibiotic classes", advice.Reason)
}

func TestClassDiversity(t *testing.T) {
	classifier := NewDrugClassifier()

	report := classifier.ClassDiversity([]string{
		"Ciprofloxacin 500mg",
		"Levofloxacin 750mg",
		"Ceftriaxone 1g",
		"Unknownomycin",
	})

	assert.Equal(t, 2, report.UniqueClasses)
	assert.Equal(t, 4, report.TotalAntibiotics)
	assert.InDelta(t, 0.5, report.DiversityScore, 0.0001)
	assert.Equal(t, []string{"cephalosporins", "fluoroquinolones"}, report.Classes)
}

func TestClassDiversity_Empty(t *testing.T) {
	classifier := NewDrugClassifier()
	report := classifier.ClassDiversity(nil)
	assert.Zero(t, report.DiversityScore)
}
