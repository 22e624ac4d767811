package adapters

import (
	"time"

	"github.com/shard-legends/crafting-source-service/internal/models"
	"github.com/shard-legends/crafting-source-service/internal/storage"
	"github.com/shard-legends/crafting-source-service/pkg/metrics"
)

// MetricsAdapter адаптирует metrics для storage.MetricsInterface
type MetricsAdapter struct{}

// NewMetricsAdapter создает новый адаптер для метрик
func NewMetricsAdapter() storage.MetricsInterface {
	return &MetricsAdapter{}
}

// IncStoreOperation увеличивает счетчик операций с хранилищем артефактов
func (a *MetricsAdapter) IncStoreOperation(operation string, status string) {
	metrics.RecordStoreOperation(operation, status)
}

// ObserveStoreDuration записывает время операции с хранилищем
func (a *MetricsAdapter) ObserveStoreDuration(operation string, duration time.Duration) {
	metrics.RecordStoreDuration(operation, duration.Seconds())
}

// IncCacheHit увеличивает счетчик попаданий в кеш
func (a *MetricsAdapter) IncCacheHit(cacheType string) {
	metrics.RecordCacheLookup(cacheType, "hit")
}

// IncCacheMiss увеличивает счетчик промахов кеша
func (a *MetricsAdapter) IncCacheMiss(cacheType string) {
	metrics.RecordCacheLookup(cacheType, "miss")
}

// ObserveExtraction записывает итоги извлечения одного дерева файлов
func (a *MetricsAdapter) ObserveExtraction(component string, counts models.OutcomeCounts, duration time.Duration) {
	metrics.RecordExtraction(component, counts.OK, counts.Ignored, counts.Error, duration.Seconds())
}

// IncVersionRun увеличивает счетчик запусков агрегации версии
func (a *MetricsAdapter) IncVersionRun(status string) {
	metrics.RecordVersionRun(status)
}

// IncQuery увеличивает счетчик запросов к артефактам
func (a *MetricsAdapter) IncQuery(operation string) {
	metrics.RecordQuery(operation)
}
