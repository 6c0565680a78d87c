package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/seunolaitan/abxguide/backend/internal/adapters/database"
	"github.com/seunolaitan/abxguide/backend/internal/domain/entities"
	"github.com/seunolaitan/abxguide/backend/internal/domain/repositories"
	"github.com/seunolaitan/abxguide/backend/internal/infrastructure/clients/postgres"
	"github.com/seunolaitan/abxguide/backend/pkg/config"
)

func main() {
	var file string
	flag.StringVar(&file, "file", "", "path to the guideline CSV file")
	flag.Parse()

	if file == "" {
		log.Fatal("Usage: import -file <guidelines.csv>")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := importOnce(ctx, file); err != nil {
		log.Fatalf("Import failed: %v", err)
	}
}

func importOnce(ctx context.Context, file string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	repo := database.NewCorpusAdapter(pgClient)

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"condition", "severity", "patient_type", "antibiotic", "dose", "routes", "interval"} {
		if _, ok := columns[required]; !ok {
			return fmt.Errorf("missing required column %q", required)
		}
	}

	imported := 0
	failed := 0
	line := 1

	for {
		select {
		case <-ctx.Done():
			log.Println("Importer shutting down")
			return ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Printf("Line %d: malformed row: %v", line, err)
			failed++
			continue
		}

		if err := importRow(ctx, repo, columns, record); err != nil {
			log.Printf("Line %d: %v", line, err)
			failed++
			continue
		}
		imported++
	}

	log.Printf("Import complete: %d guidelines imported, %d rows failed", imported, failed)
	return nil
}

func importRow(ctx context.Context, repo repositories.GuidelineRepository, columns map[string]int, record []string) error {
	get := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	conditionName := get("condition")
	if conditionName == "" {
		return fmt.Errorf("condition is empty")
	}
	condition := &entities.Condition{
		Name:        conditionName,
		Description: get("condition_description"),
	}
	if err := repo.UpsertCondition(ctx, condition); err != nil {
		return fmt.Errorf("upserting condition %q: %w", conditionName, err)
	}

	// Severity-level pathogens define the empirical target set for the tier
	severityPathogenIDs, err := upsertPathogens(ctx, repo, splitList(get("severity_pathogens")))
	if err != nil {
		return err
	}

	rank := 1
	if raw := get("severity_order"); raw != "" {
		rank, err = strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid severity_order %q: %w", raw, err)
		}
	}
	severity := &entities.Severity{
		ConditionID: condition.ID,
		Level:       get("severity"),
		Rank:        rank,
		PathogenIDs: severityPathogenIDs,
	}
	if severity.Level == "" {
		return fmt.Errorf("severity is empty")
	}
	if err := repo.UpsertSeverity(ctx, severity); err != nil {
		return fmt.Errorf("upserting severity %q: %w", severity.Level, err)
	}

	guidelinePathogenIDs, err := upsertPathogens(ctx, repo, splitList(get("pathogens")))
	if err != nil {
		return err
	}

	routes := []entities.Route{}
	for _, token := range splitList(get("routes")) {
		route, err := entities.ParseRoute(token)
		if err != nil {
			return err
		}
		routes = append(routes, route)
	}
	if len(routes) == 0 {
		return fmt.Errorf("routes is empty")
	}

	patientType := entities.PatientType(strings.ToLower(get("patient_type")))
	if patientType != entities.PatientTypeAdult && patientType != entities.PatientTypeChild {
		return fmt.Errorf("invalid patient_type %q", get("patient_type"))
	}

	dialysisType := entities.DialysisNone
	if raw := strings.ToLower(get("dialysis")); raw != "" && raw != "none" {
		switch entities.DialysisType(raw) {
		case entities.DialysisHD, entities.DialysisPD, entities.DialysisCRRT, entities.DialysisECMO:
			dialysisType = entities.DialysisType(raw)
		default:
			return fmt.Errorf("invalid dialysis %q", raw)
		}
	}

	crclMin, err := parseOptionalFloat(get("crcl_min"))
	if err != nil {
		return fmt.Errorf("invalid crcl_min: %w", err)
	}
	crclMax, err := parseOptionalFloat(get("crcl_max"))
	if err != nil {
		return fmt.Errorf("invalid crcl_max: %w", err)
	}
	if crclMin != nil && crclMax != nil && *crclMin > *crclMax {
		return fmt.Errorf("crcl_min %g exceeds crcl_max %g", *crclMin, *crclMax)
	}
	// A null bound means any renal function, so a non-dialysis row with no
	// range at all matches every patient. Legal, but worth flagging.
	if dialysisType == entities.DialysisNone && crclMin == nil && crclMax == nil {
		log.Printf("Warning: guideline %q has no CrCl range and will match any renal function", get("antibiotic"))
	}

	guideline := &entities.Guideline{
		Antibiotic:   get("antibiotic"),
		ConditionID:  condition.ID,
		SeverityID:   severity.ID,
		PathogenIDs:  guidelinePathogenIDs,
		CrClMin:      crclMin,
		CrClMax:      crclMax,
		DialysisType: dialysisType,
		PatientType:  patientType,
		Dose:         get("dose"),
		Routes:       routes,
		Interval:     get("interval"),
		Duration:     get("duration"),
		Remark:       get("remark"),
	}
	if guideline.Antibiotic == "" {
		return fmt.Errorf("antibiotic is empty")
	}

	if err := repo.CreateGuideline(ctx, guideline); err != nil {
		return fmt.Errorf("creating guideline %q: %w", guideline.Antibiotic, err)
	}
	return nil
}

func upsertPathogens(ctx context.Context, repo repositories.GuidelineRepository, names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		pathogen := &entities.Pathogen{Name: name}
		if err := repo.UpsertPathogen(ctx, pathogen); err != nil {
			return nil, fmt.Errorf("upserting pathogen %q: %w", name, err)
		}
		ids = append(ids, pathogen.ID)
	}
	return ids, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, token := range strings.Split(raw, "|") {
		token = strings.TrimSpace(token)
		if token != "" {
			out = append(out, token)
		}
	}
	return out
}

func parseOptionalFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
