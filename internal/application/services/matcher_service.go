package services

import (
	"regexp"
	"sort"
	"strings"

	"github.com/seunolaitan/abxguide/backend/internal/domain/entities"
)

// MatcherService resolves free-text "current antibiotic" strings (as written
// in charts, e.g. "PO amoxicillin/clavulanate 1g bid") against the guideline
// corpus. It parses the string into components, then scores each corpus entry
// by name similarity with a clinical bonus for renal compatibility.
type MatcherService struct {
	synonyms map[string][]string
}

// NewMatcherService creates a new matcher service
func NewMatcherService() *MatcherService {
	return &MatcherService{synonyms: antibioticSynonyms}
}

// Common brand names and shorthand for antibiotics, keyed by the standard name
var antibioticSynonyms = map[string][]string{
	"amoxicillin/clavulanate":       {"augmentin", "amox/clav", "amoxiclav", "co-amoxiclav"},
	"ampicillin/sulbactam":          {"unasyn", "amp/sulb"},
	"piperacillin/tazobactam":       {"zosyn", "pip/tazo", "tazocin"},
	"trimethoprim/sulfamethoxazole": {"bactrim", "septra", "tmp/smx", "co-trimoxazole"},
	"ciprofloxacin":                 {"cipro"},
	"levofloxacin":                  {"levaquin"},
	"moxifloxacin":                  {"avelox"},
	"ceftriaxone":                   {"rocephin"},
	"cefepime":                      {"maxipime"},
	"vancomycin":                    {"vanco"},
	"linezolid":                     {"zyvox"},
	"clindamycin":                   {"cleocin"},
	"doxycycline":                   {"vibramycin"},
	"azithromycin":                  {"zithromax", "z-pack"},
	"cephalexin":                    {"keflex"},
	"nitrofurantoin":                {"macrobid", "macrodantin"},
}

// ParsedAntibiotic is the decomposition of a free-text antibiotic order
type ParsedAntibiotic struct {
	Name      string `json:"name"`
	Route     string `json:"route,omitempty"`
	Dose      string `json:"dose,omitempty"`
	DoseUnit  string `json:"dose_unit,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Original  string `json:"original"`
}

// AntibioticMatch is one scored corpus candidate for a current antibiotic
type AntibioticMatch struct {
	Guideline     *entities.Guideline `json:"guideline"`
	Score         float64             `json:"score"`
	BaseScore     float64             `json:"base_score"`
	ClinicalBonus float64             `json:"clinical_bonus"`
	MatchType     string              `json:"match_type"`
}

// MatchExplanation is the full explain output for a current antibiotic
type MatchExplanation struct {
	Original     string            `json:"original"`
	Parsed       ParsedAntibiotic  `json:"parsed"`
	Matches      []AntibioticMatch `json:"matches"`
	BestMatch    *AntibioticMatch  `json:"best_match,omitempty"`
	TotalMatches int               `json:"total_matches"`
}

var (
	routePrefixPattern = regexp.MustCompile(`^(po|iv|im|sc|top)\s+`)
	frequencyPatterns  = []*regexp.Regexp{
		regexp.MustCompile(`\b(bid|b\.i\.d\.?)\b`),
		regexp.MustCompile(`\b(tid|t\.i\.d\.?)\b`),
		regexp.MustCompile(`\b(qid|q\.i\.d\.?)\b`),
		regexp.MustCompile(`\b(q\d+h?)\b`),
		regexp.MustCompile(`\b(daily|once daily|qd)\b`),
		regexp.MustCompile(`\b(twice daily)\b`),
		regexp.MustCompile(`\b(three times daily)\b`),
		regexp.MustCompile(`\b(four times daily)\b`),
	}
	dosePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(g|mg|mcg|ug)\b`),
		regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(gram|grams|milligram|milligrams)\b`),
	}
	formSuffixPattern = regexp.MustCompile(`\b(tabs?|capsules?|injection|solution)\b`)
	separatorPattern  = regexp.MustCompile(`\s*[/\-]\s*`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Parse decomposes a current antibiotic string into its components
func (s *MatcherService) Parse(antibiotic string) ParsedAntibiotic {
	parsed := ParsedAntibiotic{Original: antibiotic}
	cleaned := strings.ToLower(strings.TrimSpace(antibiotic))
	if cleaned == "" {
		return parsed
	}

	if m := routePrefixPattern.FindStringSubmatch(cleaned); m != nil {
		parsed.Route = strings.ToUpper(m[1])
		cleaned = cleaned[len(m[0]):]
	}

	for _, pattern := range frequencyPatterns {
		if m := pattern.FindStringSubmatch(cleaned); m != nil {
			parsed.Frequency = m[1]
			cleaned = strings.TrimSpace(pattern.ReplaceAllString(cleaned, ""))
			break
		}
	}

	for _, pattern := range dosePatterns {
		if m := pattern.FindStringSubmatch(cleaned); m != nil {
			parsed.Dose = m[1]
			parsed.DoseUnit = m[2]
			cleaned = strings.TrimSpace(pattern.ReplaceAllString(cleaned, ""))
			break
		}
	}

	parsed.Name = strings.TrimSpace(cleaned)
	return parsed
}

// NormalizeName canonicalizes an antibiotic name for comparison
func NormalizeName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = formSuffixPattern.ReplaceAllString(normalized, "")
	normalized = separatorPattern.ReplaceAllString(normalized, "/")
	normalized = whitespacePattern.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// CanonicalName resolves brand names and shorthand to the standard name.
// Unrecognized names come back normalized.
func (s *MatcherService) CanonicalName(name string) string {
	normalized := NormalizeName(name)
	for standard, brands := range s.synonyms {
		if normalized == standard {
			return standard
		}
		for _, brand := range brands {
			if normalized == brand {
				return standard
			}
		}
	}
	return normalized
}

// FindMatches scores every corpus guideline against the current antibiotic.
// crcl, when non-nil, awards a large bonus to renally compatible entries so
// clinically usable matches surface first.
func (s *MatcherService) FindMatches(current string, corpus *entities.Corpus, crcl *float64) []AntibioticMatch {
	parsed := s.Parse(current)
	currentName := NormalizeName(parsed.Name)
	if currentName == "" {
		return nil
	}

	var matches []AntibioticMatch
	for _, g := range corpus.Guidelines {
		dbName := NormalizeName(g.Antibiotic)
		base := s.matchScore(currentName, dbName)
		if base <= 0 {
			continue
		}

		bonus := 0.0
		if crcl != nil && g.MatchesCrCl(*crcl) {
			bonus = 50.0
		}

		matches = append(matches, AntibioticMatch{
			Guideline:     g,
			Score:         base + bonus,
			BaseScore:     base,
			ClinicalBonus: bonus,
			MatchType:     matchType(base + bonus),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches
}

// BestMatch returns the top-scoring corpus candidate, or nil
func (s *MatcherService) BestMatch(current string, corpus *entities.Corpus, crcl *float64) *AntibioticMatch {
	matches := s.FindMatches(current, corpus, crcl)
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}

// Explain returns the parsed components plus the top candidates
func (s *MatcherService) Explain(current string, corpus *entities.Corpus, crcl *float64) MatchExplanation {
	parsed := s.Parse(current)
	matches := s.FindMatches(current, corpus, crcl)

	explanation := MatchExplanation{
		Original:     current,
		Parsed:       parsed,
		Matches:      matches,
		TotalMatches: len(matches),
	}
	if len(matches) > 5 {
		explanation.Matches = matches[:5]
	}
	if len(matches) > 0 {
		explanation.BestMatch = &matches[0]
	}
	return explanation
}

func (s *MatcherService) matchScore(currentName, dbName string) float64 {
	if currentName == dbName {
		return 100.0
	}

	score := 0.0
	if strings.Contains(dbName, currentName) {
		score += 80.0
	} else if strings.Contains(currentName, dbName) {
		score += 75.0
	}

	score += s.synonymScore(currentName, dbName)
	score += wordOverlapScore(currentName, dbName)

	if score == 0 {
		score = characterSimilarityScore(currentName, dbName)
	}
	return score
}

func (s *MatcherService) synonymScore(currentName, dbName string) float64 {
	for standard, synonyms := range s.synonyms {
		standardNorm := NormalizeName(standard)
		if standardNorm == currentName {
			for _, synonym := range synonyms {
				if strings.Contains(dbName, synonym) {
					return 90.0
				}
			}
		}
		for _, synonym := range synonyms {
			if synonym == currentName && standardNorm == dbName {
				return 90.0
			}
		}
	}
	return 0
}

func wordOverlapScore(a, b string) float64 {
	aWords := strings.Fields(a)
	bWords := strings.Fields(b)
	if len(aWords) == 0 || len(bWords) == 0 {
		return 0
	}

	bSet := make(map[string]struct{}, len(bWords))
	for _, w := range bWords {
		bSet[w] = struct{}{}
	}
	common := 0
	for _, w := range aWords {
		if _, ok := bSet[w]; ok {
			common++
		}
	}

	longest := len(aWords)
	if len(bWords) > longest {
		longest = len(bWords)
	}
	return float64(common) / float64(longest) * 60.0
}

// characterSimilarityScore is a cheap Jaccard similarity over character sets,
// only counted when the overlap is high enough to be meaningful.
func characterSimilarityScore(a, b string) float64 {
	aSet := charSet(a)
	bSet := charSet(b)
	if len(aSet) == 0 || len(bSet) == 0 {
		return 0
	}

	intersection := 0
	for r := range aSet {
		if _, ok := bSet[r]; ok {
			intersection++
		}
	}
	union := len(aSet) + len(bSet) - intersection

	similarity := float64(intersection) / float64(union)
	if similarity > 0.6 {
		return similarity * 30.0
	}
	return 0
}

func charSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{})
	for _, r := range strings.ReplaceAll(s, " ", "") {
		set[r] = struct{}{}
	}
	return set
}

func matchType(score float64) string {
	switch {
	case score >= 90:
		return "exact"
	case score >= 70:
		return "strong"
	case score >= 50:
		return "moderate"
	case score >= 30:
		return "weak"
	default:
		return "none"
	}
}
