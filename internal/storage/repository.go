package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shard-legends/crafting-source-service/internal/models"
)

var (
	// ErrArtifactNotFound возвращается, если для версии нет сохраненного артефакта
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrInvalidVersionID возвращается для идентификаторов, непригодных как имя каталога
	ErrInvalidVersionID = errors.New("invalid version id")
)

// ArtifactRepository определяет интерфейс для хранения артефактов версий
type ArtifactRepository interface {
	// Save атомарно записывает артефакт; частично записанный файл никогда не виден читателям
	Save(ctx context.Context, artifact *models.VersionedArtifact) error

	// Load читает артефакт версии или возвращает ErrArtifactNotFound
	Load(ctx context.Context, versionID string) (*models.VersionedArtifact, error)

	// List возвращает идентификаторы всех сохраненных версий
	List(ctx context.Context) ([]string, error)
}

// Repository объединяет все репозитории
type Repository struct {
	Artifacts ArtifactRepository
}

// RepositoryDependencies содержит зависимости для создания репозиториев
type RepositoryDependencies struct {
	OutputDir        string
	Cache            CacheInterface
	CacheTTL         time.Duration
	CacheKeyPrefix   string
	MetricsCollector MetricsInterface
}

// CacheInterface определяет интерфейс для работы с кешем
type CacheInterface interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Health(ctx context.Context) error
}

// MetricsInterface определяет интерфейс для сбора метрик
type MetricsInterface interface {
	IncStoreOperation(operation string, status string)
	ObserveStoreDuration(operation string, duration time.Duration)
	IncCacheHit(cacheType string)
	IncCacheMiss(cacheType string)
	ObserveExtraction(component string, counts models.OutcomeCounts, duration time.Duration)
	IncVersionRun(status string)
	IncQuery(operation string)
}
