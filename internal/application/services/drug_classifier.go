package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DrugClass describes one antibiotic class
type DrugClass struct {
	Name       string   `json:"name"`
	Drugs      []string `json:"drugs"`
	Mechanism  string   `json:"mechanism"`
	Spectrum   string   `json:"spectrum"`
	CommonUses []string `json:"common_uses"`
}

// Classification is the result of classifying one antibiotic
type Classification struct {
	Class     string `json:"class"`
	DrugName  string `json:"drug_name,omitempty"`
	Mechanism string `json:"mechanism,omitempty"`
	Spectrum  string `json:"spectrum,omitempty"`
}

// SameClassAdvice explains whether a recommendation repeating the current
// antibiotic's class should be avoided.
type SameClassAdvice struct {
	Avoid               bool   `json:"avoid"`
	Reason              string `json:"reason"`
	CurrentClass        string `json:"current_class,omitempty"`
	RecommendationClass string `json:"recommendation_class,omitempty"`
}

// ClassContext carries the clinical circumstances that make repeating a drug
// class acceptable.
type ClassContext struct {
	TreatmentFailure    bool
	CurrentRoute        string
	RecommendationRoute string
}

// DiversityReport summarizes how many distinct classes a recommendation list
// spans.
type DiversityReport struct {
	DiversityScore   float64  `json:"diversity_score"`
	UniqueClasses    int      `json:"unique_classes"`
	TotalAntibiotics int      `json:"total_antibiotics"`
	Classes          []string `json:"classes_represented"`
}

// DrugClassifier maps antibiotic names to their pharmacological class. Class
// membership is a deliberately small, ordered table of lowercase names matched
// by substring after dose text is stripped.
type DrugClassifier struct {
	classes []DrugClass
}

// NewDrugClassifier creates a classifier with the built-in class table
func NewDrugClassifier() *DrugClassifier {
	return &DrugClassifier{classes: drugClassTable}
}

var drugClassTable = []DrugClass{
	{
		Name:       "fluoroquinolones",
		Drugs:      []string{"ciprofloxacin", "levofloxacin", "moxifloxacin", "gemifloxacin", "ofloxacin", "norfloxacin"},
		Mechanism:  "DNA gyrase inhibitors",
		Spectrum:   "Broad-spectrum",
		CommonUses: []string{"UTI", "pneumonia", "gastroenteritis", "skin infections"},
	},
	{
		// Combinations come before plain penicillins so
		// "amoxicillin/clavulanate" is not swallowed by "amoxicillin".
		Name:       "beta_lactam_combinations",
		Drugs:      []string{"amoxicillin/clavulanate", "ampicillin/sulbactam", "piperacillin/tazobactam"},
		Mechanism:  "Beta-lactam + beta-lactamase inhibitor",
		Spectrum:   "Extended spectrum",
		CommonUses: []string{"polymicrobial infections", "healthcare-associated infections"},
	},
	{
		Name:       "penicillins",
		Drugs:      []string{"penicillin", "amoxicillin", "ampicillin", "piperacillin", "nafcillin"},
		Mechanism:  "Beta-lactam cell wall synthesis inhibitors",
		Spectrum:   "Variable (narrow to broad)",
		CommonUses: []string{"strep infections", "pneumonia", "skin infections"},
	},
	{
		Name:       "cephalosporins",
		Drugs:      []string{"cephalexin", "cefazolin", "ceftriaxone", "cefepime", "ceftaroline", "cefpodoxime", "cefotaxime", "ceftolozane", "cefuroxime"},
		Mechanism:  "Beta-lactam cell wall synthesis inhibitors",
		Spectrum:   "Variable by generation",
		CommonUses: []string{"pneumonia", "UTI", "skin infections", "meningitis"},
	},
	{
		Name:       "carbapenems",
		Drugs:      []string{"imipenem", "meropenem", "ertapenem", "doripenem"},
		Mechanism:  "Beta-lactam cell wall synthesis inhibitors",
		Spectrum:   "Ultra-broad spectrum",
		CommonUses: []string{"severe infections", "multidrug-resistant organisms"},
	},
	{
		Name:       "macrolides",
		Drugs:      []string{"azithromycin", "clarithromycin", "erythromycin"},
		Mechanism:  "Protein synthesis inhibitors (50S ribosome)",
		Spectrum:   "Atypical pathogens and gram-positive",
		CommonUses: []string{"atypical pneumonia", "upper respiratory infections"},
	},
	{
		Name:       "glycopeptides",
		Drugs:      []string{"vancomycin", "teicoplanin"},
		Mechanism:  "Cell wall synthesis inhibitors",
		Spectrum:   "Gram-positive",
		CommonUses: []string{"MRSA infections", "C. difficile colitis"},
	},
	{
		Name:       "oxazolidinones",
		Drugs:      []string{"linezolid", "tedizolid"},
		Mechanism:  "Protein synthesis inhibitors",
		Spectrum:   "Gram-positive including VRE and MRSA",
		CommonUses: []string{"resistant gram-positive infections"},
	},
	{
		Name:       "lincosamides",
		Drugs:      []string{"clindamycin"},
		Mechanism:  "Protein synthesis inhibitors (50S ribosome)",
		Spectrum:   "Anaerobes and gram-positive",
		CommonUses: []string{"skin infections", "anaerobic infections"},
	},
	{
		Name:       "tetracyclines",
		Drugs:      []string{"doxycycline", "minocycline", "tetracycline"},
		Mechanism:  "Protein synthesis inhibitors (30S ribosome)",
		Spectrum:   "Broad including atypicals",
		CommonUses: []string{"atypical infections", "tick-borne diseases"},
	},
	{
		Name:       "sulfonamides",
		Drugs:      []string{"trimethoprim/sulfamethoxazole", "sulfamethoxazole"},
		Mechanism:  "Folate synthesis inhibitors",
		Spectrum:   "Broad spectrum",
		CommonUses: []string{"UTI", "PCP prophylaxis", "MRSA (skin)"},
	},
	{
		Name:       "nitroimidazoles",
		Drugs:      []string{"metronidazole", "tinidazole"},
		Mechanism:  "DNA damage",
		Spectrum:   "Anaerobes and certain parasites",
		CommonUses: []string{"anaerobic infections", "C. difficile", "H. pylori"},
	},
	{
		Name:       "nitrofurans",
		Drugs:      []string{"nitrofurantoin"},
		Mechanism:  "Multiple mechanisms",
		Spectrum:   "Urinary pathogens",
		CommonUses: []string{"uncomplicated UTI"},
	},
}

var doseTextPattern = regexp.MustCompile(`\d+(\.\d+)?\s*(mg|g|mcg)`)

// Classify returns the drug class for an antibiotic name. Dose text is
// stripped before matching; unknown drugs get class "unknown".
func (c *DrugClassifier) Classify(antibiotic string) Classification {
	name := strings.ToLower(strings.TrimSpace(antibiotic))
	if name == "" {
		return Classification{Class: "unknown"}
	}

	name = doseTextPattern.ReplaceAllString(name, "")
	name = whitespacePattern.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	for _, class := range c.classes {
		for _, drug := range class.Drugs {
			if strings.Contains(name, drug) {
				return Classification{
					Class:     class.Name,
					DrugName:  drug,
					Mechanism: class.Mechanism,
					Spectrum:  class.Spectrum,
				}
			}
		}
	}
	return Classification{Class: "unknown"}
}

// AreSameClass reports whether two antibiotics share a known drug class
func (c *DrugClassifier) AreSameClass(a, b string) bool {
	ca := c.Classify(a)
	cb := c.Classify(b)
	return ca.Class != "unknown" && cb.Class != "unknown" && ca.Class == cb.Class
}

// ShouldAvoidSameClass advises whether recommending within the current drug's
// class should be avoided. Treatment failure and route switches (PO to IV
// escalation, IV to PO de-escalation) are acceptable same-class scenarios.
func (c *DrugClassifier) ShouldAvoidSameClass(current, recommendation string, ctx ClassContext) SameClassAdvice {
	if !c.AreSameClass(current, recommendation) {
		return SameClassAdvice{Avoid: false, Reason: "Different antibiotic classes"}
	}

	currentClass := c.Classify(current)
	advice := SameClassAdvice{
		Avoid:               true,
		Reason:              fmt.Sprintf("Patient already on %s - consider alternative class", currentClass.Class),
		CurrentClass:        currentClass.Class,
		RecommendationClass: c.Classify(recommendation).Class,
	}

	currentRoute := strings.ToUpper(ctx.CurrentRoute)
	recRoute := strings.ToUpper(ctx.RecommendationRoute)
	switch {
	case ctx.TreatmentFailure:
		advice.Avoid = false
		advice.Reason = "Treatment failure - same class with different pharmacokinetics may be appropriate"
	case currentRoute == "PO" && recRoute == "IV":
		advice.Avoid = false
		advice.Reason = "Route optimization (oral to IV) within same class"
	case currentRoute == "IV" && recRoute == "PO":
		advice.Avoid = false
		advice.Reason = "De-escalation to oral therapy within same class"
	}
	return advice
}

// ClassDiversity reports how many distinct classes a list of antibiotics spans
func (c *DrugClassifier) ClassDiversity(antibiotics []string) DiversityReport {
	classes := make(map[string]struct{})
	for _, antibiotic := range antibiotics {
		if classification := c.Classify(antibiotic); classification.Class != "unknown" {
			classes[classification.Class] = struct{}{}
		}
	}

	report := DiversityReport{
		UniqueClasses:    len(classes),
		TotalAntibiotics: len(antibiotics),
		Classes:          make([]string, 0, len(classes)),
	}
	for name := range classes {
		report.Classes = append(report.Classes, name)
	}
	sort.Strings(report.Classes)
	if len(antibiotics) > 0 {
		report.DiversityScore = float64(len(classes)) / float64(len(antibiotics))
	}
	return report
}
