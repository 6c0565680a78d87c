package entities

import "strings"

// Condition is a canonical clinical condition the guideline corpus is organised by
type Condition struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`
}

// Severity is one severity tier of a condition. Rank orders tiers within a
// condition; the lowest rank is the default when no clinical criteria are
// available to choose among them.
type Severity struct {
	ID          int64   `json:"id" db:"id"`
	ConditionID int64   `json:"condition_id" db:"condition_id"`
	Level       string  `json:"level" db:"level"`
	Rank        int     `json:"rank" db:"severity_order"`
	PathogenIDs []int64 `json:"pathogen_ids" db:"-"`
}

// IsICU reports whether this severity tier describes an ICU-equivalent setting
func (s *Severity) IsICU() bool {
	return strings.Contains(strings.ToLower(s.Level), "icu")
}

// IsWard reports whether this severity tier describes a general-ward setting
func (s *Severity) IsWard() bool {
	return strings.Contains(strings.ToLower(s.Level), "ward")
}

// IsOutpatient reports whether this severity tier describes outpatient care
func (s *Severity) IsOutpatient() bool {
	return strings.Contains(strings.ToLower(s.Level), "outpatient")
}
