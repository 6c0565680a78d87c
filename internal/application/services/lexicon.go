package services

import (
	"encoding/json"
	"os"
	"strings"
)

// DiagnosisSynonym maps a lowercase diagnosis substring to a canonical
// condition name. Entries are scanned in order; the first match wins.
type DiagnosisSynonym struct {
	Term      string `json:"term"`
	Condition string `json:"condition"`
}

// PathogenSynonym maps a lowercase pathogen substring to a canonical pathogen
// name.
type PathogenSynonym struct {
	Term      string `json:"term"`
	Canonical string `json:"canonical"`
}

// GenusInference maps a genus appearing before "pneumoniae" to a canonical
// species, the condition it implies, and alternate species to try when the
// primary is absent from the corpus.
type GenusInference struct {
	Pathogen   string   `json:"pathogen"`
	Condition  string   `json:"condition"`
	Alternates []string `json:"alternates,omitempty"`
}

// EfficacyPairing awards a bonus when a target pathogen and antibiotic are a
// known locally effective combination.
type EfficacyPairing struct {
	PathogenSubstring    string   `json:"pathogen_substring"`
	AntibioticSubstrings []string `json:"antibiotic_substrings"`
}

// ScoringLists holds the antibiotic allow-lists the scoring engine consults.
// All entries are lowercase substrings matched against antibiotic names.
type ScoringLists struct {
	GeriatricSafe    []string          `json:"geriatric_safe"`
	Fluoroquinolones []string          `json:"fluoroquinolones"`
	RenalSafe        []string          `json:"renal_safe"`
	FirstLineSafe    []string          `json:"first_line_safe"`
	LocallyEffective []string          `json:"locally_effective"`
	EfficacyPairings []EfficacyPairing `json:"efficacy_pairings"`
	BroadSpectrum    []string          `json:"broad_spectrum"`
	WardStandard     []string          `json:"ward_standard"`
	OralFirstLine    []string          `json:"oral_first_line"`
}

// Lexicon is the immutable lookup configuration the engine is constructed
// with. It is loaded once and shared by reference; nothing mutates it after
// construction.
type Lexicon struct {
	DiagnosisSynonyms   []DiagnosisSynonym        `json:"diagnosis_synonyms"`
	PneumoniaeGenera    map[string]GenusInference `json:"pneumoniae_genera"`
	PathogenSynonyms    []PathogenSynonym         `json:"pathogen_synonyms"`
	IndeterminateTokens []string                  `json:"indeterminate_tokens"`
	AllergyExclusions   map[string][]string       `json:"allergy_exclusions"`
	NoAllergyTokens     []string                  `json:"no_allergy_tokens"`
	Scoring             ScoringLists              `json:"scoring"`
}

// LoadLexicon reads a lexicon override from a JSON file
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lex Lexicon
	if err := json.Unmarshal(data, &lex); err != nil {
		return nil, err
	}
	return &lex, nil
}

// IsIndeterminatePathogen reports whether free text describes a pathogen that
// is not yet known (pending culture, no growth, ...).
func (l *Lexicon) IsIndeterminatePathogen(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return true
	}
	for _, token := range l.IndeterminateTokens {
		if t == token {
			return true
		}
	}
	return false
}

// IsNoAllergy reports whether free text denies any drug allergy
func (l *Lexicon) IsNoAllergy(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return true
	}
	for _, token := range l.NoAllergyTokens {
		if t == token {
			return true
		}
	}
	return false
}

// DefaultLexicon returns the built-in lookup tables
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		DiagnosisSynonyms: []DiagnosisSynonym{
			// Pyelonephritis and lower urinary tract variations, including the
			// common "track" misspelling seen in free-text diagnoses.
			{Term: "acute pyelonephritis", Condition: "Pyelonephritis"},
			{Term: "chronic pyelonephritis", Condition: "Pyelonephritis"},
			{Term: "pyelonephritis", Condition: "Pyelonephritis"},
			{Term: "kidney infection", Condition: "Pyelonephritis"},
			{Term: "upper urinary tract infection", Condition: "Pyelonephritis"},
			{Term: "upper uti", Condition: "Pyelonephritis"},
			{Term: "urinary tract infection", Condition: "Pyelonephritis"},
			{Term: "urinary track infection", Condition: "Pyelonephritis"},
			{Term: "urinary infection", Condition: "Pyelonephritis"},
			{Term: "bladder infection", Condition: "Pyelonephritis"},
			{Term: "cystitis", Condition: "Pyelonephritis"},
			{Term: "uti", Condition: "Pyelonephritis"},

			// Pneumonia variations
			{Term: "community-acquired pneumonia", Condition: "Pneumonia, community-acquired"},
			{Term: "lower respiratory tract infection", Condition: "Pneumonia, community-acquired"},
			{Term: "respiratory tract infection", Condition: "Pneumonia, community-acquired"},
			{Term: "lung infection", Condition: "Pneumonia, community-acquired"},
			{Term: "pneumonia", Condition: "Pneumonia, community-acquired"},
			{Term: "lrti", Condition: "Pneumonia, community-acquired"},
			{Term: "cap", Condition: "Pneumonia, community-acquired"},
		},
		PneumoniaeGenera: map[string]GenusInference{
			"klebsiella": {
				Pathogen:   "K. pneumoniae",
				Condition:  "Pneumonia, community-acquired",
				Alternates: []string{"H. influenzae", "S. pneumoniae"},
			},
			"streptococcus": {
				Pathogen:  "S. pneumoniae",
				Condition: "Pneumonia, community-acquired",
			},
			"mycoplasma": {
				Pathogen:  "M. pneumoniae",
				Condition: "Pneumonia, community-acquired",
			},
			"chlamydia": {
				Pathogen:  "C. pneumoniae",
				Condition: "Pneumonia, community-acquired",
			},
		},
		PathogenSynonyms: []PathogenSynonym{
			{Term: "escherichia coli", Canonical: "E. coli"},
			{Term: "e. coli", Canonical: "E. coli"},
			{Term: "e.coli", Canonical: "E. coli"},
			{Term: "e coli", Canonical: "E. coli"},
			{Term: "klebsiella pneumoniae", Canonical: "K. pneumoniae"},
			{Term: "k pneumoniae", Canonical: "K. pneumoniae"},
			{Term: "k.pneumoniae", Canonical: "K. pneumoniae"},
			{Term: "proteus mirabilis", Canonical: "P. mirabilis"},
			{Term: "p mirabilis", Canonical: "P. mirabilis"},
			{Term: "p.mirabilis", Canonical: "P. mirabilis"},
			{Term: "enterococcus", Canonical: "Enterococci"},
			{Term: "enterococci", Canonical: "Enterococci"},
			{Term: "staphylococcus saprophyticus", Canonical: "S. saprophyticus"},
			{Term: "s saprophyticus", Canonical: "S. saprophyticus"},
			{Term: "s.saprophyticus", Canonical: "S. saprophyticus"},
			{Term: "streptococcus pneumoniae", Canonical: "S. pneumoniae"},
			{Term: "s pneumoniae", Canonical: "S. pneumoniae"},
			{Term: "s.pneumoniae", Canonical: "S. pneumoniae"},
			{Term: "mycoplasma pneumoniae", Canonical: "M. pneumoniae"},
			{Term: "m pneumoniae", Canonical: "M. pneumoniae"},
			{Term: "m.pneumoniae", Canonical: "M. pneumoniae"},
			{Term: "chlamydia pneumoniae", Canonical: "C. pneumoniae"},
			{Term: "c pneumoniae", Canonical: "C. pneumoniae"},
			{Term: "c.pneumoniae", Canonical: "C. pneumoniae"},
			{Term: "haemophilus influenzae", Canonical: "H. influenzae"},
			{Term: "h influenzae", Canonical: "H. influenzae"},
			{Term: "h.influenzae", Canonical: "H. influenzae"},
			{Term: "legionella species", Canonical: "Legionella spp."},
			{Term: "legionella", Canonical: "Legionella spp."},
			{Term: "respiratory virus", Canonical: "respiratory viruses"},
			{Term: "viral", Canonical: "respiratory viruses"},
		},
		IndeterminateTokens: []string{
			"unknown", "not specified", "none", "na", "n/a",
			"pending", "culture pending", "no growth",
		},
		AllergyExclusions: map[string][]string{
			"penicillin":      {"amoxicillin", "ampicillin", "piperacillin", "penicillin"},
			"beta-lactam":     {"amoxicillin", "ampicillin", "penicillin", "cephalexin", "ceftriaxone", "cefotaxime"},
			"sulfa":           {"sulfamethoxazole", "trimethoprim"},
			"quinolone":       {"ciprofloxacin", "levofloxacin", "moxifloxacin", "gemifloxacin"},
			"fluoroquinolone": {"ciprofloxacin", "levofloxacin", "moxifloxacin", "gemifloxacin"},
		},
		NoAllergyTokens: []string{"none", "no allergies", "no known allergies", "nkda"},
		Scoring: ScoringLists{
			GeriatricSafe:    []string{"cefpodoxime", "cefuroxime", "amoxicillin"},
			Fluoroquinolones: []string{"ciprofloxacin", "levofloxacin", "moxifloxacin", "gemifloxacin"},
			RenalSafe:        []string{"ceftriaxone", "cefpodoxime"},
			FirstLineSafe:    []string{"amoxicillin", "cefpodoxime", "cefuroxime"},
			LocallyEffective: []string{"levofloxacin", "ceftriaxone"},
			EfficacyPairings: []EfficacyPairing{
				{PathogenSubstring: "coli", AntibioticSubstrings: []string{"levofloxacin", "ceftriaxone"}},
				{PathogenSubstring: "pneumoniae", AntibioticSubstrings: []string{"levofloxacin", "ceftriaxone"}},
			},
			BroadSpectrum: []string{"piperacillin", "meropenem", "imipenem"},
			WardStandard:  []string{"levofloxacin", "ceftriaxone", "cefpodoxime"},
			OralFirstLine: []string{"cefpodoxime", "amoxicillin"},
		},
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
