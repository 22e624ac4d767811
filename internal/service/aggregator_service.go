package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shard-legends/crafting-source-service/internal/extractor"
	"github.com/shard-legends/crafting-source-service/internal/models"
	"github.com/shard-legends/crafting-source-service/internal/storage"
	"github.com/shard-legends/crafting-source-service/pkg/logger"
)

const (
	componentRecipe    = "recipe"
	componentLootTable = "loot_table"
)

// aggregatorService реализует ItemSourceAggregator
type aggregatorService struct {
	repo    storage.ArtifactRepository
	metrics storage.MetricsInterface
	layout  Layout
	recipes *extractor.RecipeExtractor
	loot    *extractor.LootTableExtractor
}

// NewAggregatorService создает новый сервис сборки артефактов
func NewAggregatorService(deps *ServiceDependencies) ItemSourceAggregator {
	layout := deps.Layout
	if layout == (Layout{}) {
		layout = DefaultLayout
	}

	var repo storage.ArtifactRepository
	if deps.Repository != nil {
		repo = deps.Repository.Artifacts
	}

	return &aggregatorService{
		repo:    repo,
		metrics: deps.Metrics,
		layout:  layout,
		recipes: extractor.NewRecipeExtractor(deps.Workers),
		loot:    extractor.NewLootTableExtractor(deps.Workers),
	}
}

// Run собирает артефакт и сохраняет его. Запись происходит только после полной сборки.
func (s *aggregatorService) Run(ctx context.Context, versionRoot string) (*models.VersionedArtifact, error) {
	artifact, err := s.Aggregate(ctx, versionRoot)
	if err != nil {
		s.incVersionRun("failed")
		return nil, err
	}
	if s.repo == nil {
		s.incVersionRun("failed")
		return nil, fmt.Errorf("no artifact repository configured")
	}

	if err := s.repo.Save(ctx, artifact); err != nil {
		s.incVersionRun("failed")
		return nil, fmt.Errorf("failed to save artifact %s: %w", artifact.Version, err)
	}

	s.incVersionRun("success")
	logger.Info("Artifact saved", zap.String("version", artifact.Version))
	return artifact, nil
}

// Aggregate извлекает рецепты и таблицы дропа параллельно. Фатальны только
// нечитаемый корень и проблемы с version.json; остальное попадает в артефакт как Ignored/Error.
func (s *aggregatorService) Aggregate(ctx context.Context, versionRoot string) (*models.VersionedArtifact, error) {
	info, err := os.Stat(versionRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInputRoot, versionRoot)
	}

	fsys := os.DirFS(versionRoot)
	meta, err := ReadVersionMetadata(fsys, s.layout.MetadataFile)
	if err != nil {
		return nil, err
	}

	log := logger.ForRun(uuid.NewString(), meta.ID)
	log.Info("Starting version aggregation", zap.String("root", versionRoot))
	start := time.Now()

	var (
		recipes    []models.ExtractedRecipe
		lootTables []models.ExtractedLootTable
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recipes, err = extractOptionalTree(gctx, log, s.layout.RecipeDir, func() ([]models.ExtractedRecipe, error) {
			return s.recipes.ExtractTree(gctx, fsys, s.layout.RecipeDir)
		})
		return err
	})
	g.Go(func() error {
		var err error
		lootTables, err = extractOptionalTree(gctx, log, s.layout.LootTableDir, func() ([]models.ExtractedLootTable, error) {
			return s.loot.ExtractTree(gctx, fsys, s.layout.LootTableDir)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	artifact := models.NewVersionedArtifact(meta, recipes, lootTables)
	elapsed := time.Since(start)

	recipeCounts := artifact.RecipeCounts()
	lootCounts := artifact.LootTableCounts()
	s.observeExtraction(componentRecipe, recipeCounts, elapsed)
	s.observeExtraction(componentLootTable, lootCounts, elapsed)

	for _, r := range artifact.Recipes {
		if r.Outcome.IsError() {
			log.Debug("Recipe extraction error", zap.String("file", r.SourceFile), zap.String("message", r.Outcome.Message))
		}
	}
	for _, l := range artifact.LootTables {
		if l.Outcome.IsError() {
			log.Debug("Loot table extraction error", zap.String("file", l.SourceFile), zap.String("message", l.Outcome.Message))
		}
	}

	log.Info("Version aggregated",
		zap.Int("recipes_ok", recipeCounts.OK),
		zap.Int("recipes_ignored", recipeCounts.Ignored),
		zap.Int("recipes_error", recipeCounts.Error),
		zap.Int("loot_tables_ok", lootCounts.OK),
		zap.Int("loot_tables_ignored", lootCounts.Ignored),
		zap.Int("loot_tables_error", lootCounts.Error),
		zap.Duration("duration", elapsed),
	)
	return artifact, nil
}

// extractOptionalTree treats a missing subdirectory as empty: not every version ships both trees.
func extractOptionalTree[T any](ctx context.Context, log *zap.Logger, dir string, extract func() ([]T, error)) ([]T, error) {
	records, err := extract()
	switch {
	case err == nil:
		return records, nil
	case errors.Is(err, extractor.ErrUnreadableRoot) && errors.Is(err, fs.ErrNotExist):
		log.Warn("Data directory is missing, treating it as empty", zap.String("dir", dir))
		return []T{}, nil
	case errors.Is(err, extractor.ErrUnreadableRoot):
		return nil, fmt.Errorf("%w: %w", ErrInputRoot, err)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	}
	return nil, err
}

func (s *aggregatorService) observeExtraction(component string, counts models.OutcomeCounts, d time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveExtraction(component, counts, d)
	}
}

func (s *aggregatorService) incVersionRun(status string) {
	if s.metrics != nil {
		s.metrics.IncVersionRun(status)
	}
}
