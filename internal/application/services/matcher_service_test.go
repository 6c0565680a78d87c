package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FullOrderString(t *testing.T) {
	svc := NewMatcherService()

	parsed := svc.Parse("PO amoxicillin/clavulanate 1g bid")

	assert.Equal(t, "PO", parsed.Route)
	assert.Equal(t, "amoxicillin/clavulanate", parsed.Name)
	assert.Equal(t, "1", parsed.Dose)
	assert.Equal(t, "g", parsed.DoseUnit)
	assert.Equal(t, "bid", parsed.Frequency)
	assert.Equal(t, "PO amoxicillin/clavulanate 1g bid", parsed.Original)
}

func TestParse_PartialStrings(t *testing.T) {
	svc := NewMatcherService()

	cases := []struct {
		in        string
		name      string
		route     string
		frequency string
	}{
		{"IV ceftriaxone 2g daily", "ceftriaxone", "IV", "daily"},
		{"ciprofloxacin 500mg q12h", "ciprofloxacin", "", "q12h"},
		{"vancomycin", "vancomycin", "", ""},
	}

	for _, tc := range cases {
		parsed := svc.Parse(tc.in)
		assert.Equal(t, tc.name, parsed.Name, "input %q", tc.in)
		assert.Equal(t, tc.route, parsed.Route, "input %q", tc.in)
		assert.Equal(t, tc.frequency, parsed.Frequency, "input %q", tc.in)
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "amoxicillin/clavulanate", NormalizeName("Amoxicillin / Clavulanate tabs"))
	assert.Equal(t, "pip/tazo", NormalizeName("pip - tazo"))
	assert.Equal(t, "ceftriaxone", NormalizeName("  Ceftriaxone injection "))
}

func TestCanonicalName(t *testing.T) {
	svc := NewMatcherService()

	assert.Equal(t, "ciprofloxacin", svc.CanonicalName("cipro"))
	assert.Equal(t, "piperacillin/tazobactam", svc.CanonicalName("Zosyn"))
	assert.Equal(t, "trimethoprim/sulfamethoxazole", svc.CanonicalName("tmp - smx"))
	assert.Equal(t, "ceftriaxone", svc.CanonicalName("Ceftriaxone"))
	assert.Equal(t, "quinine", svc.CanonicalName("Quinine"))
}

func TestFindMatches_ExactNameWins(t *testing.T) {
	svc := NewMatcherService()
	corpus := utiCorpus()

	matches := svc.FindMatches("ciprofloxacin 500mg", corpus, nil)

	require.NotEmpty(t, matches)
	assert.Contains(t, matches[0].Guideline.Antibiotic, "Ciprofloxacin")
	assert.Equal(t, "exact", matches[0].MatchType)
}

func TestFindMatches_BrandNameSynonym(t *testing.T) {
	svc := NewMatcherService()
	corpus := utiCorpus()

	// cipro is shorthand for ciprofloxacin
	matches := svc.FindMatches("PO cipro 500mg bid", corpus, nil)

	require.NotEmpty(t, matches)
	assert.Contains(t, matches[0].Guideline.Antibiotic, "Ciprofloxacin")
}

func TestFindMatches_CrClBonusPrefersCompatibleEntry(t *testing.T) {
	svc := NewMatcherService()
	corpus := utiCorpus()

	crcl := 20.0 // inside ceftriaxone's range, below ciprofloxacin's floor
	matches := svc.FindMatches("ceftriaxone", corpus, &crcl)

	require.NotEmpty(t, matches)
	best := matches[0]
	assert.Contains(t, best.Guideline.Antibiotic, "Ceftriaxone")
	assert.Equal(t, 50.0, best.ClinicalBonus)
}

func TestBestMatch_NoInputNoMatch(t *testing.T) {
	svc := NewMatcherService()
	corpus := utiCorpus()

	assert.Nil(t, svc.BestMatch("", corpus, nil))
	assert.Nil(t, svc.BestMatch("PO", corpus, nil))
}

func TestExplain_TopFiveAndBest(t *testing.T) {
	svc := NewMatcherService()
	corpus := utiCorpus()

	explanation := svc.Explain("IV ceftriaxone 1g daily", corpus, nil)

	assert.Equal(t, "ceftriaxone", explanation.Parsed.Name)
	require.NotNil(t, explanation.BestMatch)
	assert.Contains(t, explanation.BestMatch.Guideline.Antibiotic, "Ceftriaxone")
	assert.LessOrEqual(t, len(explanation.Matches), 5)
	assert.Equal(t, explanation.TotalMatches, len(svc.FindMatches("IV ceftriaxone 1g daily", corpus, nil)))
}
