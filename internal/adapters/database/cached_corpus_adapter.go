package database

import (
	"context"
	"encoding/json"
	"log"

	"github.com/seunolaitan/abxguide/backend/internal/domain/entities"
	"github.com/seunolaitan/abxguide/backend/internal/domain/providers"
	"github.com/seunolaitan/abxguide/backend/internal/domain/repositories"
	"github.com/seunolaitan/abxguide/backend/internal/infrastructure/observability"
)

// CachedCorpusAdapter wraps a GuidelineRepository with a Redis read-through
// cache for the corpus snapshot. The snapshot is the hot path of every
// evaluation; the list and write operations pass through, and writes
// invalidate the cached snapshot.
type CachedCorpusAdapter struct {
	adapter     repositories.GuidelineRepository
	cache       providers.CacheProvider
	metrics     *observability.Metrics
	snapshotTTL int
}

const snapshotCacheKey = "corpus:snapshot"

// NewCachedCorpusAdapter creates a new cached corpus adapter. snapshotTTL is
// in seconds; metrics may be nil.
func NewCachedCorpusAdapter(adapter repositories.GuidelineRepository, cache providers.CacheProvider, metrics *observability.Metrics, snapshotTTL int) repositories.GuidelineRepository {
	return &CachedCorpusAdapter{
		adapter:     adapter,
		cache:       cache,
		metrics:     metrics,
		snapshotTTL: snapshotTTL,
	}
}

// Snapshot fetches the corpus snapshot with caching
func (a *CachedCorpusAdapter) Snapshot(ctx context.Context) (*entities.Corpus, error) {
	if cached, err := a.cache.Get(ctx, snapshotCacheKey); err == nil {
		var corpus entities.Corpus
		unmarshalErr := json.Unmarshal(cached, &corpus)
		if unmarshalErr == nil {
			observability.RecordCacheMetric(ctx, a.metrics, "corpus_snapshot", true)
			return &corpus, nil
		}
		log.Printf("Failed to unmarshal cached corpus snapshot: %v", unmarshalErr)
	}
	observability.RecordCacheMetric(ctx, a.metrics, "corpus_snapshot", false)

	corpus, err := a.adapter.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the response
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(corpus); err == nil {
			if err := a.cache.Set(bgCtx, snapshotCacheKey, data, a.snapshotTTL); err != nil {
				log.Printf("Failed to cache corpus snapshot: %v", err)
			}
		}
	}()

	return corpus, nil
}

// ListConditions passes through to the underlying adapter
func (a *CachedCorpusAdapter) ListConditions(ctx context.Context, search string) ([]*entities.Condition, error) {
	return a.adapter.ListConditions(ctx, search)
}

// ListPathogens passes through to the underlying adapter
func (a *CachedCorpusAdapter) ListPathogens(ctx context.Context, filter repositories.PathogenFilter) ([]*entities.Pathogen, error) {
	return a.adapter.ListPathogens(ctx, filter)
}

// ListGuidelines passes through to the underlying adapter
func (a *CachedCorpusAdapter) ListGuidelines(ctx context.Context, filter repositories.GuidelineFilter) ([]*entities.Guideline, error) {
	return a.adapter.ListGuidelines(ctx, filter)
}

// UpsertCondition writes through and invalidates the snapshot
func (a *CachedCorpusAdapter) UpsertCondition(ctx context.Context, condition *entities.Condition) error {
	if err := a.adapter.UpsertCondition(ctx, condition); err != nil {
		return err
	}
	a.invalidateSnapshot(ctx)
	return nil
}

// UpsertSeverity writes through and invalidates the snapshot
func (a *CachedCorpusAdapter) UpsertSeverity(ctx context.Context, severity *entities.Severity) error {
	if err := a.adapter.UpsertSeverity(ctx, severity); err != nil {
		return err
	}
	a.invalidateSnapshot(ctx)
	return nil
}

// UpsertPathogen writes through and invalidates the snapshot
func (a *CachedCorpusAdapter) UpsertPathogen(ctx context.Context, pathogen *entities.Pathogen) error {
	if err := a.adapter.UpsertPathogen(ctx, pathogen); err != nil {
		return err
	}
	a.invalidateSnapshot(ctx)
	return nil
}

// CreateGuideline writes through and invalidates the snapshot
func (a *CachedCorpusAdapter) CreateGuideline(ctx context.Context, guideline *entities.Guideline) error {
	if err := a.adapter.CreateGuideline(ctx, guideline); err != nil {
		return err
	}
	a.invalidateSnapshot(ctx)
	return nil
}

func (a *CachedCorpusAdapter) invalidateSnapshot(ctx context.Context) {
	if err := a.cache.Delete(ctx, snapshotCacheKey); err != nil {
		log.Printf("Failed to invalidate corpus snapshot cache: %v", err)
	}
}
