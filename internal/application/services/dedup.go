package services

import (
	"regexp"
	"strings"

	"github.com/seunolaitan/abxguide/backend/internal/domain/entities"
)

// Guideline rows often repeat the same drug with different dose strings
// ("Levofloxacin 750mg" vs "Levofloxacin 500mg"). Deduplication works on the
// base drug name with dose text stripped.
var (
	trailingDosePattern = regexp.MustCompile(`\s+\d+(\.\d+)?\s*(mg|g|mcg|µg)\b.*$`)
	compoundDosePattern = regexp.MustCompile(`\s+\d+(-\d+)?(\s+or\s+\d+(-\d+)?)?\s*(mg|g|mcg|µg)\b.*$`)
	leadingDosePattern  = regexp.MustCompile(`^\d+(\.\d+)?(-\d+(\.\d+)?)?(\s+or\s+\d+(\.\d+)?(-\d+(\.\d+)?)?)?\s*(mg|g|mcg|µg)\s+`)
)

// BaseAntibioticName strips dose information from an antibiotic name
func BaseAntibioticName(fullName string) string {
	name := strings.TrimSpace(fullName)
	name = trailingDosePattern.ReplaceAllString(name, "")
	name = compoundDosePattern.ReplaceAllString(name, "")
	name = leadingDosePattern.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// DeduplicateRecommendations collapses entries that share a base antibiotic
// name. The input must already be sorted best-first; the first occurrence of
// each base name is the highest scoring one, so it is kept and the rest
// dropped. Relative order is preserved.
func DeduplicateRecommendations(recommendations []*entities.Recommendation) []*entities.Recommendation {
	seen := make(map[string]struct{}, len(recommendations))
	deduplicated := make([]*entities.Recommendation, 0, len(recommendations))

	for _, rec := range recommendations {
		base := strings.ToLower(BaseAntibioticName(rec.AntibioticName))
		if _, ok := seen[base]; ok {
			continue
		}
		seen[base] = struct{}{}
		deduplicated = append(deduplicated, rec)
	}
	return deduplicated
}
