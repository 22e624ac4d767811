package storage

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/shard-legends/crafting-source-service/internal/models"
)

// MockCache мок для CacheInterface
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Del(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockMetrics мок для MetricsInterface
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) IncStoreOperation(operation string, status string) {
	m.Called(operation, status)
}

func (m *MockMetrics) ObserveStoreDuration(operation string, duration time.Duration) {
	m.Called(operation, duration)
}

func (m *MockMetrics) IncCacheHit(cacheType string) {
	m.Called(cacheType)
}

func (m *MockMetrics) IncCacheMiss(cacheType string) {
	m.Called(cacheType)
}

func (m *MockMetrics) ObserveExtraction(component string, counts models.OutcomeCounts, duration time.Duration) {
	m.Called(component, counts, duration)
}

func (m *MockMetrics) IncVersionRun(status string) {
	m.Called(status)
}

func (m *MockMetrics) IncQuery(operation string) {
	m.Called(operation)
}

// newQuietMetrics принимает любые вызовы
func newQuietMetrics() *MockMetrics {
	m := &MockMetrics{}
	m.On("IncStoreOperation", mock.Anything, mock.Anything).Maybe()
	m.On("ObserveStoreDuration", mock.Anything, mock.Anything).Maybe()
	m.On("IncCacheHit", mock.Anything).Maybe()
	m.On("IncCacheMiss", mock.Anything).Maybe()
	return m
}

func testArtifact(version string) *models.VersionedArtifact {
	return models.NewVersionedArtifact(
		models.VersionMetadata{ID: version, ResourcePackVersion: "34", DataPackVersion: "48"},
		[]models.ExtractedRecipe{{
			SourceFile: "tags/recipe/charcoal.json",
			Kind:       "minecraft:smelting",
			Outcome: models.OK(models.RecipeBody{
				Requirements: []models.RequirementEntry{{Item: "#minecraft:logs_that_burn", Count: 1}},
				Result:       models.ResultEntry{Item: "minecraft:charcoal", Count: 1},
			}),
		}},
		[]models.ExtractedLootTable{{
			SourceFile: "tags/loot_table/blocks/dirt.json",
			Kind:       "minecraft:block",
			Outcome:    models.OK([]models.DropEntry{{Item: "minecraft:dirt", CountRange: models.SingleCount}}),
		}},
	)
}
