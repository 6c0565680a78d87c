package entities

// GramType groups pathogens by gram stain result
type GramType string

const (
	GramPositive GramType = "positive"
	GramNegative GramType = "negative"
	GramAtypical GramType = "atypical"
)

// Pathogen is a canonical organism name the corpus links guidelines and
// severities against.
type Pathogen struct {
	ID       int64    `json:"id" db:"id"`
	Name     string   `json:"name" db:"name"`
	GramType GramType `json:"gram_type,omitempty" db:"gram_type"`
}
