package storage

import "time"

const (
	// ArtifactFileName - имя файла артефакта внутри каталога версии
	ArtifactFileName = "data.json"

	// DefaultCacheKeyPrefix - префикс ключей артефактов в Redis
	DefaultCacheKeyPrefix = "mcsrc:artifact:"

	defaultCacheTTL = 24 * time.Hour
)

// NewRepository создает новый экземпляр Repository со всеми репозиториями.
// Если кеш не передан, артефакты читаются только с диска.
func NewRepository(deps *RepositoryDependencies) *Repository {
	var artifacts ArtifactRepository = NewFileArtifactRepository(deps.OutputDir, deps.MetricsCollector)
	if deps.Cache != nil {
		artifacts = NewCachedArtifactRepository(artifacts, deps)
	}
	return &Repository{Artifacts: artifacts}
}
