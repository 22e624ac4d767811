package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shard-legends/crafting-source-service/internal/models"
)

// MockMetrics мок для storage.MetricsInterface
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
	m.On("ObserveExtraction", mock.Anything, mock.Anything, mock.Anything).Maybe()
	m.On("IncVersionRun", mock.Anything).Maybe()
	m.On("IncQuery", mock.Anything).Maybe()
	return m
}

// MockArtifactRepository мок для storage.ArtifactRepository
type MockArtifactRepository struct {
	mock.Mock
}

func (m *MockArtifactRepository) Save(ctx context.Context, artifact *models.VersionedArtifact) error {
	args := m.Called(ctx, artifact)
	return args.Error(0)
}

func (m *MockArtifactRepository) Load(ctx context.Context, versionID string) (*models.VersionedArtifact, error) {
	args := m.Called(ctx, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VersionedArtifact), args.Error(1)
}

func (m *MockArtifactRepository) List(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

// writeTree создает файлы относительно root
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

const versionJSON = `{
  "id": "1.20.4",
  "name": "1.20.4",
  "world_version": 3700,
  "protocol_version": 765,
  "pack_version": {"resource": 22, "data": 26},
  "stable": true
}`

const oakPlanksRecipe = `{
  "type": "minecraft:crafting_shaped",
  "category": "building",
  "group": "planks",
  "key": {"L": {"item": "minecraft:oak_log"}},
  "pattern": ["L"],
  "result": {"count": 4, "item": "minecraft:oak_planks"}
}`

const charcoalRecipe = `{
  "type": "minecraft:smelting",
  "category": "misc",
  "cookingtime": 200,
  "experience": 0.15,
  "ingredient": {"item": "minecraft:oak_log"},
  "result": "minecraft:charcoal"
}`
