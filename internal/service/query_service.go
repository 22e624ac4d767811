package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/shard-legends/crafting-source-service/internal/models"
	"github.com/shard-legends/crafting-source-service/internal/storage"
	"github.com/shard-legends/crafting-source-service/pkg/logger"
	"github.com/shard-legends/crafting-source-service/pkg/mcversion"
)

// SourceKind различает рецепты и таблицы дропа в результатах запроса
type SourceKind string

const (
	SourceRecipe    SourceKind = "recipe"
	SourceLootTable SourceKind = "loot_table"
)

// ItemSource описывает один способ получить предмет в конкретной версии
type ItemSource struct {
	Version    string             `json:"version"`
	Kind       SourceKind         `json:"kind"`
	SourceFile string             `json:"fromFile"`
	Type       string             `json:"type"`
	Recipe     *models.RecipeBody `json:"recipe,omitempty"`
	Drop       *models.DropEntry  `json:"drop,omitempty"`
}

// indexedArtifact - разобранный артефакт с обратным индексом предмет -> источники.
// Индекс строится один раз при загрузке и не сохраняется.
type indexedArtifact struct {
	artifact *models.VersionedArtifact
	version  mcversion.Version
	sources  map[models.ItemReference][]ItemSource
}

// queryService реализует VersionedQuery
type queryService struct {
	repo    storage.ArtifactRepository
	metrics storage.MetricsInterface
	pins    mcversion.Pins
	loaded  *cache.Cache
}

// NewQueryService создает сервис чтения артефактов
func NewQueryService(deps *ServiceDependencies) VersionedQuery {
	ttl := deps.QueryCache.TTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	var repo storage.ArtifactRepository
	if deps.Repository != nil {
		repo = deps.Repository.Artifacts
	}

	return &queryService{
		repo:    repo,
		metrics: deps.Metrics,
		pins:    deps.Pins,
		loaded:  cache.New(ttl, deps.QueryCache.CleanupInterval),
	}
}

// Load возвращает артефакт одной версии
func (s *queryService) Load(ctx context.Context, versionID string) (*models.VersionedArtifact, error) {
	s.incQuery("load")
	entry, err := s.indexed(ctx, versionID)
	if err != nil {
		return nil, err
	}
	return entry.artifact, nil
}

// Versions возвращает версии всех сохраненных артефактов по возрастанию.
// Идентификаторы, которые не удается разобрать, пропускаются с предупреждением.
func (s *queryService) Versions(ctx context.Context) ([]mcversion.Version, error) {
	s.incQuery("versions")
	entries, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	versions := make([]mcversion.Version, 0, len(entries))
	for _, e := range entries {
		versions = append(versions, e.version)
	}
	return versions, nil
}

// Select возвращает артефакты версий, попадающих в диапазон
func (s *queryService) Select(ctx context.Context, r mcversion.Range) ([]*models.VersionedArtifact, error) {
	s.incQuery("select")
	entries, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	selected := make([]*models.VersionedArtifact, 0, len(entries))
	for _, e := range entries {
		if r.WithinBounds(e.version) {
			selected = append(selected, e.artifact)
		}
	}
	return selected, nil
}

// SourcesOf ищет предмет по обратному индексу каждой версии из диапазона
func (s *queryService) SourcesOf(ctx context.Context, r mcversion.Range, item models.ItemReference) ([]ItemSource, error) {
	s.incQuery("sources_of")
	entries, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	sources := make([]ItemSource, 0)
	for _, e := range entries {
		if r.WithinBounds(e.version) {
			sources = append(sources, e.sources[item]...)
		}
	}
	return sources, nil
}

// Available возвращает первую версию, где у предмета есть хотя бы один источник
func (s *queryService) Available(ctx context.Context, item models.ItemReference) (mcversion.Version, bool, error) {
	s.incQuery("available")
	entries, err := s.all(ctx)
	if err != nil {
		return nil, false, err
	}

	for _, e := range entries {
		if len(e.sources[item]) > 0 {
			return e.version, true, nil
		}
	}
	return nil, false, nil
}

// all загружает все артефакты с разбираемой версией, упорядоченные по версии.
// Артефакт, который не удается прочитать, пропускается с предупреждением; ошибка списка фатальна.
func (s *queryService) all(ctx context.Context) ([]*indexedArtifact, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("no artifact repository configured")
	}
	ids, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	entries := make([]*indexedArtifact, 0, len(ids))
	for _, id := range ids {
		e, err := s.indexed(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("Skipping unreadable artifact", zap.String("version", id), zap.Error(err))
			continue
		}
		if e.version == nil {
			continue
		}
		entries = append(entries, e)
	}

	sortIndexed(entries)
	return entries, nil
}

// indexed возвращает артефакт из памяти или загружает его и строит индекс
func (s *queryService) indexed(ctx context.Context, versionID string) (*indexedArtifact, error) {
	if cached, ok := s.loaded.Get(versionID); ok {
		return cached.(*indexedArtifact), nil
	}
	if s.repo == nil {
		return nil, fmt.Errorf("no artifact repository configured")
	}

	artifact, err := s.repo.Load(ctx, versionID)
	if err != nil {
		return nil, err
	}

	entry := &indexedArtifact{
		artifact: artifact,
		version:  s.resolveVersion(artifact),
		sources:  buildSourceIndex(artifact),
	}
	s.loaded.Set(versionID, entry, cache.DefaultExpiration)
	return entry, nil
}

// resolveVersion разбирает id артефакта. Снимок привязывается к релизу сначала по
// таблице из конфигурации, затем по releaseTarget из самого артефакта.
func (s *queryService) resolveVersion(a *models.VersionedArtifact) mcversion.Version {
	v, err := mcversion.Parse(a.Version)
	if err != nil {
		logger.Warn("Skipping artifact with unparseable version", zap.String("version", a.Version), zap.Error(err))
		return nil
	}

	v = s.pins.Apply(v)
	if snap, ok := v.(mcversion.Snapshot); ok && snap.ForRelease == nil && a.ReleaseTarget != "" {
		if target, err := mcversion.ParseRelease(a.ReleaseTarget); err == nil {
			v = snap.PinnedTo(target)
		}
	}
	return v
}

// sortIndexed упорядочивает по версии; равные версии (снимок и его релиз) - по id
func sortIndexed(entries []*indexedArtifact) {
	slices.SortStableFunc(entries, func(a, b *indexedArtifact) int {
		return cmp.Or(mcversion.Compare(a.version, b.version), cmp.Compare(a.artifact.Version, b.artifact.Version))
	})
}

// buildSourceIndex собирает обратный индекс по результатам рецептов и дропам
func buildSourceIndex(a *models.VersionedArtifact) map[models.ItemReference][]ItemSource {
	index := make(map[models.ItemReference][]ItemSource)

	for _, r := range a.Recipes {
		if !r.Outcome.IsOK() {
			continue
		}
		body := r.Outcome.Value
		index[body.Result.Item] = append(index[body.Result.Item], ItemSource{
			Version:    a.Version,
			Kind:       SourceRecipe,
			SourceFile: r.SourceFile,
			Type:       r.Kind,
			Recipe:     &body,
		})
	}

	for _, l := range a.LootTables {
		if !l.Outcome.IsOK() {
			continue
		}
		for _, drop := range l.Outcome.Value {
			drop := drop
			index[drop.Item] = append(index[drop.Item], ItemSource{
				Version:    a.Version,
				Kind:       SourceLootTable,
				SourceFile: l.SourceFile,
				Type:       l.Kind,
				Drop:       &drop,
			})
		}
	}
	return index
}

func (s *queryService) incQuery(operation string) {
	if s.metrics != nil {
		s.metrics.IncQuery(operation)
	}
}
