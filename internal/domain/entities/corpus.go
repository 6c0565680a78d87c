package entities

import (
	"sort"
	"strings"
)

// Corpus is one read-only snapshot of the guideline tables, fetched in a
// single batched read per evaluation so the filter and scoring stages never
// go back to the store.
type Corpus struct {
	Conditions []*Condition `json:"conditions"`
	Severities []*Severity  `json:"severities"`
	Pathogens  []*Pathogen  `json:"pathogens"`
	Guidelines []*Guideline `json:"guidelines"`
}

// ConditionByName returns the condition with the given canonical name,
// case-insensitively, or nil.
func (c *Corpus) ConditionByName(name string) *Condition {
	for _, cond := range c.Conditions {
		if strings.EqualFold(cond.Name, name) {
			return cond
		}
	}
	return nil
}

// SeveritiesFor returns the severities of a condition ordered by rank
func (c *Corpus) SeveritiesFor(conditionID int64) []*Severity {
	var out []*Severity
	for _, s := range c.Severities {
		if s.ConditionID == conditionID {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

// PathogenByName returns the pathogen with the given canonical name,
// case-insensitively, or nil.
func (c *Corpus) PathogenByName(name string) *Pathogen {
	for _, p := range c.Pathogens {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

// PathogensByIDs resolves a set of pathogen ids preserving corpus order
func (c *Corpus) PathogensByIDs(ids []int64) []*Pathogen {
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []*Pathogen
	for _, p := range c.Pathogens {
		if _, ok := want[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// PathogenNames renders pathogen ids as canonical names
func (c *Corpus) PathogenNames(ids []int64) []string {
	pathogens := c.PathogensByIDs(ids)
	names := make([]string, 0, len(pathogens))
	for _, p := range pathogens {
		names = append(names, p.Name)
	}
	return names
}

// GuidelinesForCondition returns every guideline owned by a condition
func (c *Corpus) GuidelinesForCondition(conditionID int64) []*Guideline {
	var out []*Guideline
	for _, g := range c.Guidelines {
		if g.ConditionID == conditionID {
			out = append(out, g)
		}
	}
	return out
}

// GuidelinesFor returns the base eligible set for a condition, severity and
// patient type.
func (c *Corpus) GuidelinesFor(conditionID, severityID int64, patientType PatientType) []*Guideline {
	var out []*Guideline
	for _, g := range c.Guidelines {
		if g.ConditionID == conditionID && g.SeverityID == severityID && g.PatientType == patientType {
			out = append(out, g)
		}
	}
	return out
}
