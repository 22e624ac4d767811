package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shard-legends/crafting-source-service/internal/models"
	"github.com/shard-legends/crafting-source-service/internal/storage"
)

func newTestAggregator(t *testing.T, outputDir string, metrics *MockMetrics) ItemSourceAggregator {
	t.Helper()
	return NewAggregatorService(&ServiceDependencies{
		Repository: storage.NewRepository(&storage.RepositoryDependencies{
			OutputDir:        outputDir,
			MetricsCollector: metrics,
		}),
		Metrics: metrics,
		Workers: 4,
	})
}

func TestAggregatorService_Aggregate_EndToEnd(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"version.json":                     versionJSON,
		"tags/recipe/oak_planks.json":      oakPlanksRecipe,
		"tags/recipe/charcoal.json":        charcoalRecipe,
		"tags/loot_table/blocks/dirt.json": `{"type": "minecraft:block", "pools": [{"rolls": 1, "entries": [{"type": "minecraft:item", "name": "minecraft:dirt"}]}]}`,
	})

	metrics := &MockMetrics{}
	metrics.On("ObserveExtraction", componentRecipe, models.OutcomeCounts{OK: 2}, mock.Anything).Once()
	metrics.On("ObserveExtraction", componentLootTable, models.OutcomeCounts{OK: 1}, mock.Anything).Once()

	artifact, err := newTestAggregator(t, t.TempDir(), metrics).Aggregate(context.Background(), root)

	require.NoError(t, err)
	assert.Equal(t, "1.20.4", artifact.Version)
	assert.Equal(t, "22", artifact.ResourcePackVersion)
	assert.Equal(t, "26", artifact.DataPackVersion)

	require.Len(t, artifact.Recipes, 2)
	charcoal, planks := artifact.Recipes[0], artifact.Recipes[1]

	assert.Equal(t, "tags/recipe/charcoal.json", charcoal.SourceFile)
	assert.Equal(t, "minecraft:smelting", charcoal.Kind)
	require.True(t, charcoal.Outcome.IsOK())
	assert.Equal(t, models.RecipeBody{
		Requirements: []models.RequirementEntry{{Item: "minecraft:oak_log", Count: 1}},
		Result:       models.ResultEntry{Item: "minecraft:charcoal", Count: 1},
	}, charcoal.Outcome.Value)

	assert.Equal(t, "tags/recipe/oak_planks.json", planks.SourceFile)
	require.True(t, planks.Outcome.IsOK())
	assert.Equal(t, models.RecipeBody{
		Requirements: []models.RequirementEntry{{Item: "minecraft:oak_log", Count: 1}},
		Result:       models.ResultEntry{Item: "minecraft:oak_planks", Count: 4},
	}, planks.Outcome.Value)

	require.Len(t, artifact.LootTables, 1)
	assert.Equal(t, []models.DropEntry{{Item: "minecraft:dirt", CountRange: models.SingleCount}}, artifact.LootTables[0].Outcome.Value)

	metrics.AssertExpectations(t)
}

func TestAggregatorService_Aggregate_KeepsIgnoredAndErrorRecords(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"version.json":                     versionJSON,
		"tags/recipe/oak_planks.json":      oakPlanksRecipe,
		"tags/recipe/map_cloning.json":     `{"type": "minecraft:crafting_special_mapcloning"}`,
		"tags/recipe/broken.json":          `{"type": "minecraft:crafting_shaped",`,
		"tags/loot_table/empty.json":       `{"type": "minecraft:empty"}`,
		"tags/loot_table/bad_pools.json":   `{"pools": {"rolls": 1}}`,
		"tags/loot_table/notes/readme.txt": "not a loot table",
	})

	artifact, err := newTestAggregator(t, t.TempDir(), newQuietMetrics()).Aggregate(context.Background(), root)

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCounts{OK: 1, Ignored: 1, Error: 1}, artifact.RecipeCounts())
	assert.Equal(t, models.OutcomeCounts{Ignored: 1, Error: 1}, artifact.LootTableCounts())

	for _, r := range artifact.Recipes {
		if r.Outcome.IsError() {
			assert.Equal(t, "tags/recipe/broken.json", r.SourceFile)
			assert.NotEmpty(t, r.Outcome.Payload)
		}
	}
}

func TestAggregatorService_Aggregate_MissingSubdirectories(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"version.json": versionJSON,
	})

	artifact, err := newTestAggregator(t, t.TempDir(), newQuietMetrics()).Aggregate(context.Background(), root)

	require.NoError(t, err)
	assert.NotNil(t, artifact.Recipes)
	assert.Empty(t, artifact.Recipes)
	assert.NotNil(t, artifact.LootTables)
	assert.Empty(t, artifact.LootTables)
}

func TestAggregatorService_Aggregate_FatalErrors(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		_, err := newTestAggregator(t, t.TempDir(), newQuietMetrics()).
			Aggregate(context.Background(), filepath.Join(t.TempDir(), "absent"))

		assert.ErrorIs(t, err, ErrInputRoot)
	})

	t.Run("root is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "version.json")
		require.NoError(t, os.WriteFile(file, []byte(versionJSON), 0o644))

		_, err := newTestAggregator(t, t.TempDir(), newQuietMetrics()).Aggregate(context.Background(), file)

		assert.ErrorIs(t, err, ErrInputRoot)
	})

	t.Run("missing version.json", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, map[string]string{"tags/recipe/oak_planks.json": oakPlanksRecipe})

		_, err := newTestAggregator(t, t.TempDir(), newQuietMetrics()).Aggregate(context.Background(), root)

		assert.ErrorIs(t, err, ErrVersionMetadata)
	})

	t.Run("malformed version.json", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, map[string]string{"version.json": `{"id": "1.20.4"`})

		_, err := newTestAggregator(t, t.TempDir(), newQuietMetrics()).Aggregate(context.Background(), root)

		assert.ErrorIs(t, err, ErrVersionMetadata)
	})
}

func TestAggregatorService_Run_WritesArtifact(t *testing.T) {
	root := t.TempDir()
	output := t.TempDir()
	writeTree(t, root, map[string]string{
		"version.json":                versionJSON,
		"tags/recipe/oak_planks.json": oakPlanksRecipe,
		"tags/recipe/charcoal.json":   charcoalRecipe,
	})

	metrics := newQuietMetrics()
	svc := newTestAggregator(t, output, metrics)

	artifact, err := svc.Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, "1.20.4", artifact.Version)

	first, err := os.ReadFile(filepath.Join(output, "1.20.4", storage.ArtifactFileName))
	require.NoError(t, err)

	_, err = svc.Run(context.Background(), root)
	require.NoError(t, err)

	second, err := os.ReadFile(filepath.Join(output, "1.20.4", storage.ArtifactFileName))
	require.NoError(t, err)
	assert.Equal(t, first, second, "rerun over the same input must produce identical output")

	entries, err := os.ReadDir(filepath.Join(output, "1.20.4"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	metrics.AssertNumberOfCalls(t, "IncVersionRun", 2)
	metrics.AssertCalled(t, "IncVersionRun", "success")
}

func TestAggregatorService_Run_NothingWrittenOnFatalError(t *testing.T) {
	root := t.TempDir()
	output := t.TempDir()
	writeTree(t, root, map[string]string{"tags/recipe/oak_planks.json": oakPlanksRecipe})

	metrics := newQuietMetrics()

	_, err := newTestAggregator(t, output, metrics).Run(context.Background(), root)

	assert.ErrorIs(t, err, ErrVersionMetadata)
	entries, err := os.ReadDir(output)
	require.NoError(t, err)
	assert.Empty(t, entries)
	metrics.AssertCalled(t, "IncVersionRun", "failed")
}

func TestAggregatorService_Run_SaveFailure(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"version.json": versionJSON})

	repo := &MockArtifactRepository{}
	repo.On("Save", mock.Anything, mock.AnythingOfType("*models.VersionedArtifact")).Return(assert.AnError)

	svc := NewAggregatorService(&ServiceDependencies{
		Repository: &storage.Repository{Artifacts: repo},
		Metrics:    newQuietMetrics(),
		Workers:    1,
	})

	_, err := svc.Run(context.Background(), root)

	assert.ErrorIs(t, err, assert.AnError)
	repo.AssertExpectations(t)
}

func TestAggregatorService_CustomLayout(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"meta/version.json":                 versionJSON,
		"data/minecraft/recipe/planks.json": oakPlanksRecipe,
	})

	svc := NewAggregatorService(&ServiceDependencies{
		Metrics: newQuietMetrics(),
		Layout: Layout{
			RecipeDir:    "data/minecraft/recipe",
			LootTableDir: "data/minecraft/loot_table",
			MetadataFile: "meta/version.json",
		},
		Workers: 2,
	})

	artifact, err := svc.Aggregate(context.Background(), root)

	require.NoError(t, err)
	require.Len(t, artifact.Recipes, 1)
	assert.Equal(t, "data/minecraft/recipe/planks.json", artifact.Recipes[0].SourceFile)
}
