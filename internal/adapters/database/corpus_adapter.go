package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/seunolaitan/abxguide/backend/internal/domain/entities"
	"github.com/seunolaitan/abxguide/backend/internal/domain/repositories"
	"github.com/seunolaitan/abxguide/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/seunolaitan/abxguide/backend/pkg/errors"
)

// CorpusAdapter implements GuidelineRepository over Postgres
type CorpusAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCorpusAdapter creates a new corpus adapter
func NewCorpusAdapter(client *postgres.Client) repositories.GuidelineRepository {
	return &CorpusAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Snapshot fetches the whole guideline corpus in four batched reads. The
// pathogen link tables are folded into their owners so callers never issue
// per-row queries.
func (a *CorpusAdapter) Snapshot(ctx context.Context) (*entities.Corpus, error) {
	conditions, err := a.ListConditions(ctx, "")
	if err != nil {
		return nil, err
	}

	pathogens, err := a.ListPathogens(ctx, repositories.PathogenFilter{})
	if err != nil {
		return nil, err
	}

	severities, err := a.listSeverities(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.attachSeverityPathogens(ctx, severities); err != nil {
		return nil, err
	}

	guidelines, err := a.ListGuidelines(ctx, repositories.GuidelineFilter{})
	if err != nil {
		return nil, err
	}

	return &entities.Corpus{
		Conditions: conditions,
		Severities: severities,
		Pathogens:  pathogens,
		Guidelines: guidelines,
	}, nil
}

// ListConditions retrieves conditions, optionally filtered by a search term
func (a *CorpusAdapter) ListConditions(ctx context.Context, search string) ([]*entities.Condition, error) {
	ds := a.db.Select("id", "name", "description").
		From("conditions").
		Order(goqu.I("name").Asc())

	if search != "" {
		ds = ds.Where(goqu.I("name").ILike("%" + search + "%"))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build conditions query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list conditions", err)
	}
	defer rows.Close()

	var conditions []*entities.Condition
	for rows.Next() {
		condition := &entities.Condition{}
		var description sql.NullString
		if err := rows.Scan(&condition.ID, &condition.Name, &description); err != nil {
			return nil, apperrors.NewInternalError("failed to scan condition", err)
		}
		condition.Description = description.String
		conditions = append(conditions, condition)
	}

	return conditions, rows.Err()
}

// ListPathogens retrieves pathogens with filters
func (a *CorpusAdapter) ListPathogens(ctx context.Context, filter repositories.PathogenFilter) ([]*entities.Pathogen, error) {
	ds := a.db.Select("id", "name", "gram_type").
		From("pathogens").
		Order(goqu.I("name").Asc())

	if filter.GramType != "" {
		ds = ds.Where(goqu.Ex{"gram_type": filter.GramType})
	}
	if filter.Search != "" {
		ds = ds.Where(goqu.I("name").ILike("%" + filter.Search + "%"))
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit)).Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build pathogens query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list pathogens", err)
	}
	defer rows.Close()

	var pathogens []*entities.Pathogen
	for rows.Next() {
		pathogen := &entities.Pathogen{}
		var gramType sql.NullString
		if err := rows.Scan(&pathogen.ID, &pathogen.Name, &gramType); err != nil {
			return nil, apperrors.NewInternalError("failed to scan pathogen", err)
		}
		pathogen.GramType = entities.GramType(gramType.String)
		pathogens = append(pathogens, pathogen)
	}

	return pathogens, rows.Err()
}

// ListGuidelines retrieves guidelines with filters, pathogen links attached
func (a *CorpusAdapter) ListGuidelines(ctx context.Context, filter repositories.GuidelineFilter) ([]*entities.Guideline, error) {
	ds := a.db.Select(
		"id", "antibiotic", "condition_id", "severity_id",
		"crcl_min", "crcl_max", "dialysis_type", "patient_type",
		"dose", "routes", "interval", "duration", "remark",
	).From("guidelines").
		Order(goqu.I("id").Asc())

	if filter.Antibiotic != "" {
		ds = ds.Where(goqu.I("antibiotic").ILike("%" + filter.Antibiotic + "%"))
	}
	if filter.ConditionID != 0 {
		ds = ds.Where(goqu.Ex{"condition_id": filter.ConditionID})
	}
	if filter.SeverityID != 0 {
		ds = ds.Where(goqu.Ex{"severity_id": filter.SeverityID})
	}
	if filter.PatientType != "" {
		ds = ds.Where(goqu.Ex{"patient_type": filter.PatientType})
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit)).Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build guidelines query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list guidelines", err)
	}
	defer rows.Close()

	var guidelines []*entities.Guideline
	for rows.Next() {
		guideline := &entities.Guideline{}
		var crclMin, crclMax sql.NullFloat64
		var dose, interval, duration, remark sql.NullString
		var routes []string

		err := rows.Scan(
			&guideline.ID,
			&guideline.Antibiotic,
			&guideline.ConditionID,
			&guideline.SeverityID,
			&crclMin,
			&crclMax,
			&guideline.DialysisType,
			&guideline.PatientType,
			&dose,
			pq.Array(&routes),
			&interval,
			&duration,
			&remark,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan guideline", err)
		}

		if crclMin.Valid {
			v := crclMin.Float64
			guideline.CrClMin = &v
		}
		if crclMax.Valid {
			v := crclMax.Float64
			guideline.CrClMax = &v
		}
		guideline.Dose = dose.String
		guideline.Interval = interval.String
		guideline.Duration = duration.String
		guideline.Remark = remark.String
		for _, r := range routes {
			if route, err := entities.ParseRoute(r); err == nil {
				guideline.Routes = append(guideline.Routes, route)
			}
		}

		guidelines = append(guidelines, guideline)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read guidelines", err)
	}

	if err := a.attachGuidelinePathogens(ctx, guidelines); err != nil {
		return nil, err
	}

	return guidelines, nil
}

func (a *CorpusAdapter) listSeverities(ctx context.Context) ([]*entities.Severity, error) {
	query, args, err := a.db.Select("id", "condition_id", "level", "severity_order").
		From("severities").
		Order(goqu.I("condition_id").Asc(), goqu.I("severity_order").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build severities query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list severities", err)
	}
	defer rows.Close()

	var severities []*entities.Severity
	for rows.Next() {
		severity := &entities.Severity{}
		if err := rows.Scan(&severity.ID, &severity.ConditionID, &severity.Level, &severity.Rank); err != nil {
			return nil, apperrors.NewInternalError("failed to scan severity", err)
		}
		severities = append(severities, severity)
	}

	return severities, rows.Err()
}

func (a *CorpusAdapter) attachSeverityPathogens(ctx context.Context, severities []*entities.Severity) error {
	if len(severities) == 0 {
		return nil
	}

	query, args, err := a.db.Select("severity_id", "pathogen_id").
		From("severity_pathogens").
		Order(goqu.I("pathogen_id").Asc()).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build severity pathogens query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to list severity pathogens", err)
	}
	defer rows.Close()

	links := make(map[int64][]int64)
	for rows.Next() {
		var severityID, pathogenID int64
		if err := rows.Scan(&severityID, &pathogenID); err != nil {
			return apperrors.NewInternalError("failed to scan severity pathogen link", err)
		}
		links[severityID] = append(links[severityID], pathogenID)
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewInternalError("failed to read severity pathogen links", err)
	}

	for _, severity := range severities {
		severity.PathogenIDs = links[severity.ID]
	}
	return nil
}

func (a *CorpusAdapter) attachGuidelinePathogens(ctx context.Context, guidelines []*entities.Guideline) error {
	if len(guidelines) == 0 {
		return nil
	}

	ids := make([]int64, len(guidelines))
	for i, g := range guidelines {
		ids[i] = g.ID
	}

	query, args, err := a.db.Select("guideline_id", "pathogen_id").
		From("guideline_pathogens").
		Where(goqu.Ex{"guideline_id": ids}).
		Order(goqu.I("pathogen_id").Asc()).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build guideline pathogens query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to list guideline pathogens", err)
	}
	defer rows.Close()

	links := make(map[int64][]int64)
	for rows.Next() {
		var guidelineID, pathogenID int64
		if err := rows.Scan(&guidelineID, &pathogenID); err != nil {
			return apperrors.NewInternalError("failed to scan guideline pathogen link", err)
		}
		links[guidelineID] = append(links[guidelineID], pathogenID)
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewInternalError("failed to read guideline pathogen links", err)
	}

	for _, guideline := range guidelines {
		guideline.PathogenIDs = links[guideline.ID]
	}
	return nil
}

// UpsertCondition creates a condition by name if absent, filling in its ID
func (a *CorpusAdapter) UpsertCondition(ctx context.Context, condition *entities.Condition) error {
	query, args, err := a.db.Select("id").
		From("conditions").
		Where(goqu.Ex{"name": condition.Name}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build condition lookup", err)
	}

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&condition.ID)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return apperrors.NewInternalError("failed to look up condition", err)
	}

	insert, args, err := a.db.Insert("conditions").
		Rows(goqu.Record{
			"name":        condition.Name,
			"description": sql.NullString{String: condition.Description, Valid: condition.Description != ""},
		}).
		Returning("id").
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build condition insert", err)
	}

	if err := a.client.DB().QueryRowContext(ctx, insert, args...).Scan(&condition.ID); err != nil {
		return apperrors.NewInternalError("failed to insert condition", err)
	}
	return nil
}

// UpsertSeverity creates a severity by (condition, level) if absent, filling in its ID
func (a *CorpusAdapter) UpsertSeverity(ctx context.Context, severity *entities.Severity) error {
	query, args, err := a.db.Select("id").
		From("severities").
		Where(goqu.Ex{"condition_id": severity.ConditionID, "level": severity.Level}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build severity lookup", err)
	}

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&severity.ID)
	if err == nil {
		return a.linkSeverityPathogens(ctx, severity)
	}
	if err != sql.ErrNoRows {
		return apperrors.NewInternalError("failed to look up severity", err)
	}

	insert, args, err := a.db.Insert("severities").
		Rows(goqu.Record{
			"condition_id":   severity.ConditionID,
			"level":          severity.Level,
			"severity_order": severity.Rank,
		}).
		Returning("id").
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build severity insert", err)
	}

	if err := a.client.DB().QueryRowContext(ctx, insert, args...).Scan(&severity.ID); err != nil {
		return apperrors.NewInternalError("failed to insert severity", err)
	}
	return a.linkSeverityPathogens(ctx, severity)
}

func (a *CorpusAdapter) linkSeverityPathogens(ctx context.Context, severity *entities.Severity) error {
	for _, pathogenID := range severity.PathogenIDs {
		query, args, err := a.db.Insert("severity_pathogens").
			Rows(goqu.Record{"severity_id": severity.ID, "pathogen_id": pathogenID}).
			OnConflict(goqu.DoNothing()).
			ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build severity pathogen link", err)
		}
		if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to link severity pathogen", err)
		}
	}
	return nil
}

// UpsertPathogen creates a pathogen by name if absent, filling in its ID
func (a *CorpusAdapter) UpsertPathogen(ctx context.Context, pathogen *entities.Pathogen) error {
	query, args, err := a.db.Select("id").
		From("pathogens").
		Where(goqu.Ex{"name": pathogen.Name}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build pathogen lookup", err)
	}

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&pathogen.ID)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return apperrors.NewInternalError("failed to look up pathogen", err)
	}

	insert, args, err := a.db.Insert("pathogens").
		Rows(goqu.Record{
			"name":      pathogen.Name,
			"gram_type": sql.NullString{String: string(pathogen.GramType), Valid: pathogen.GramType != ""},
		}).
		Returning("id").
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build pathogen insert", err)
	}

	if err := a.client.DB().QueryRowContext(ctx, insert, args...).Scan(&pathogen.ID); err != nil {
		return apperrors.NewInternalError("failed to insert pathogen", err)
	}
	return nil
}

// CreateGuideline inserts a guideline and its pathogen links
func (a *CorpusAdapter) CreateGuideline(ctx context.Context, guideline *entities.Guideline) error {
	routes := make([]string, len(guideline.Routes))
	for i, r := range guideline.Routes {
		routes[i] = string(r)
	}

	record := goqu.Record{
		"antibiotic":    guideline.Antibiotic,
		"condition_id":  guideline.ConditionID,
		"severity_id":   guideline.SeverityID,
		"dialysis_type": guideline.DialysisType,
		"patient_type":  guideline.PatientType,
		"dose":          sql.NullString{String: guideline.Dose, Valid: guideline.Dose != ""},
		"routes":        pq.Array(routes),
		"interval":      sql.NullString{String: guideline.Interval, Valid: guideline.Interval != ""},
		"duration":      sql.NullString{String: guideline.Duration, Valid: guideline.Duration != ""},
		"remark":        sql.NullString{String: guideline.Remark, Valid: guideline.Remark != ""},
	}
	if guideline.CrClMin != nil {
		record["crcl_min"] = *guideline.CrClMin
	}
	if guideline.CrClMax != nil {
		record["crcl_max"] = *guideline.CrClMax
	}

	insert, args, err := a.db.Insert("guidelines").Rows(record).Returning("id").ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build guideline insert", err)
	}

	if err := a.client.DB().QueryRowContext(ctx, insert, args...).Scan(&guideline.ID); err != nil {
		return apperrors.NewInternalError("failed to insert guideline", err)
	}

	for _, pathogenID := range guideline.PathogenIDs {
		query, args, err := a.db.Insert("guideline_pathogens").
			Rows(goqu.Record{"guideline_id": guideline.ID, "pathogen_id": pathogenID}).
			OnConflict(goqu.DoNothing()).
			ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build guideline pathogen link", err)
		}
		if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to link guideline pathogen", err)
		}
	}
	return nil
}
