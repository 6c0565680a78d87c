package repositories

import (
	"context"

	"github.com/seunolaitan/abxguide/backend/internal/domain/entities"
)

// GuidelineRepository defines the read and import operations over the
// guideline corpus. The engine only uses Snapshot; the list queries back the
// REST surface and the upserts back the CSV importer.
type GuidelineRepository interface {
	// Snapshot fetches the whole corpus in one batched read
	Snapshot(ctx context.Context) (*entities.Corpus, error)

	// ListConditions retrieves conditions, optionally filtered by a search term
	ListConditions(ctx context.Context, search string) ([]*entities.Condition, error)

	// ListPathogens retrieves pathogens with filters
	ListPathogens(ctx context.Context, filter PathogenFilter) ([]*entities.Pathogen, error)

	// ListGuidelines retrieves guidelines with filters
	ListGuidelines(ctx context.Context, filter GuidelineFilter) ([]*entities.Guideline, error)

	// UpsertCondition creates a condition by name if absent, filling in its ID
	UpsertCondition(ctx context.Context, condition *entities.Condition) error

	// UpsertSeverity creates a severity by (condition, level) if absent, filling in its ID
	UpsertSeverity(ctx context.Context, severity *entities.Severity) error

	// UpsertPathogen creates a pathogen by name if absent, filling in its ID
	UpsertPathogen(ctx context.Context, pathogen *entities.Pathogen) error

	// CreateGuideline inserts a guideline and its pathogen links
	CreateGuideline(ctx context.Context, guideline *entities.Guideline) error
}

// PathogenFilter defines filters for listing pathogens
type PathogenFilter struct {
	GramType string
	Search   string
	Limit    int
	Offset   int
}

// GuidelineFilter defines filters for listing guidelines
type GuidelineFilter struct {
	Antibiotic  string
	ConditionID int64
	SeverityID  int64
	PatientType string
	Limit       int
	Offset      int
}
