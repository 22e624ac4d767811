package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shard-legends/crafting-source-service/internal/models"
	"github.com/shard-legends/crafting-source-service/pkg/logger"
	"go.uber.org/zap"
)

const artifactCacheType = "artifact"

// cachedArtifactRepository читает артефакты через Redis и публикует туда сохраненные.
// Ошибки кеша не прерывают работу: источником истины остается вложенное хранилище.
type cachedArtifactRepository struct {
	next      ArtifactRepository
	cache     CacheInterface
	metrics   MetricsInterface
	ttl       time.Duration
	keyPrefix string
}

// NewCachedArtifactRepository оборачивает хранилище кешем
func NewCachedArtifactRepository(next ArtifactRepository, deps *RepositoryDependencies) ArtifactRepository {
	r := &cachedArtifactRepository{
		next:      next,
		cache:     deps.Cache,
		metrics:   deps.MetricsCollector,
		ttl:       deps.CacheTTL,
		keyPrefix: deps.CacheKeyPrefix,
	}
	if r.ttl <= 0 {
		r.ttl = defaultCacheTTL
	}
	if r.keyPrefix == "" {
		r.keyPrefix = DefaultCacheKeyPrefix
	}
	return r
}

// Save сохраняет артефакт и публикует его в кеш
func (r *cachedArtifactRepository) Save(ctx context.Context, artifact *models.VersionedArtifact) error {
	if err := r.next.Save(ctx, artifact); err != nil {
		return err
	}

	if err := r.setCached(ctx, artifact); err != nil {
		logger.Warn("Failed to publish artifact to cache",
			zap.String("version", artifact.Version),
			zap.Error(err),
		)
		// старая копия в кеше больше не совпадает с диском
		if err := r.cache.Del(ctx, r.key(artifact.Version)); err != nil {
			logger.Warn("Failed to evict stale cached artifact",
				zap.String("version", artifact.Version),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Load возвращает артефакт из кеша, а при промахе читает его из хранилища и кеширует
func (r *cachedArtifactRepository) Load(ctx context.Context, versionID string) (*models.VersionedArtifact, error) {
	if artifact, err := r.getCached(ctx, versionID); err == nil && artifact != nil {
		r.incCacheHit()
		return artifact, nil
	} else if err != nil {
		logger.Warn("Failed to read artifact from cache",
			zap.String("version", versionID),
			zap.Error(err),
		)
	}
	r.incCacheMiss()

	artifact, err := r.next.Load(ctx, versionID)
	if err != nil {
		return nil, err
	}

	if err := r.setCached(ctx, artifact); err != nil {
		logger.Warn("Failed to cache artifact",
			zap.String("version", versionID),
			zap.Error(err),
		)
	}
	return artifact, nil
}

// List всегда обращается к хранилищу: кеш не знает полного набора версий
func (r *cachedArtifactRepository) List(ctx context.Context) ([]string, error) {
	return r.next.List(ctx)
}

func (r *cachedArtifactRepository) key(versionID string) string {
	return r.keyPrefix + versionID
}

// getCached возвращает nil без ошибки, если ключа нет
func (r *cachedArtifactRepository) getCached(ctx context.Context, versionID string) (*models.VersionedArtifact, error) {
	data, err := r.cache.Get(ctx, r.key(versionID))
	if err != nil {
		return nil, err
	}
	if data == "" {
		return nil, nil
	}

	artifact, err := models.DecodeArtifact(strings.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cached artifact %s is corrupt: %w", versionID, err)
	}
	return artifact, nil
}

func (r *cachedArtifactRepository) setCached(ctx context.Context, artifact *models.VersionedArtifact) error {
	var buf bytes.Buffer
	if err := models.EncodeArtifact(&buf, artifact); err != nil {
		return err
	}
	return r.cache.Set(ctx, r.key(artifact.Version), buf.String(), r.ttl)
}

func (r *cachedArtifactRepository) incCacheHit() {
	if r.metrics != nil {
		r.metrics.IncCacheHit(artifactCacheType)
	}
}

func (r *cachedArtifactRepository) incCacheMiss() {
	if r.metrics != nil {
		r.metrics.IncCacheMiss(artifactCacheType)
	}
}
