package service

import (
	"context"
	"errors"
	"time"

	"github.com/shard-legends/crafting-source-service/internal/models"
	"github.com/shard-legends/crafting-source-service/internal/storage"
	"github.com/shard-legends/crafting-source-service/pkg/mcversion"
)

var (
	// ErrVersionMetadata - version.json отсутствует или поврежден; артефакт не создается
	ErrVersionMetadata = errors.New("version metadata unavailable")

	// ErrInputRoot - каталог версии нельзя прочитать
	ErrInputRoot = errors.New("input root unreadable")
)

// ItemSourceAggregator определяет интерфейс сборки артефакта одной версии
type ItemSourceAggregator interface {
	// Aggregate извлекает все рецепты и таблицы дропа каталога версии в один артефакт
	Aggregate(ctx context.Context, versionRoot string) (*models.VersionedArtifact, error)

	// Run выполняет Aggregate и сохраняет результат в хранилище
	Run(ctx context.Context, versionRoot string) (*models.VersionedArtifact, error)
}

// VersionedQuery определяет интерфейс чтения артефактов по версиям
type VersionedQuery interface {
	// Load возвращает артефакт одной версии
	Load(ctx context.Context, versionID string) (*models.VersionedArtifact, error)

	// Versions возвращает все известные версии в порядке возрастания
	Versions(ctx context.Context) ([]mcversion.Version, error)

	// Select возвращает артефакты версий из диапазона в порядке возрастания версий
	Select(ctx context.Context, r mcversion.Range) ([]*models.VersionedArtifact, error)

	// SourcesOf возвращает все рецепты и дропы, дающие предмет, в версиях диапазона
	SourcesOf(ctx context.Context, r mcversion.Range, item models.ItemReference) ([]ItemSource, error)

	// Available возвращает самую раннюю версию, в которой у предмета есть источник
	Available(ctx context.Context, item models.ItemReference) (mcversion.Version, bool, error)
}

// ArtifactAuditor определяет интерфейс проверки артефакта на дрейф схемы
type ArtifactAuditor interface {
	// Audit подсчитывает исходы и собирает ошибки нераспознанных типов
	Audit(artifact *models.VersionedArtifact) *AuditReport
}

// Layout описывает расположение данных внутри каталога версии (пути через "/")
type Layout struct {
	RecipeDir    string
	LootTableDir string
	MetadataFile string
}

// DefaultLayout - расположение данных в выгрузке по умолчанию
var DefaultLayout = Layout{
	RecipeDir:    "tags/recipe",
	LootTableDir: "tags/loot_table",
	MetadataFile: "version.json",
}

// QueryCacheOptions задает время жизни разобранных артефактов в памяти
type QueryCacheOptions struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

// ServiceDependencies содержит зависимости для создания сервисов
type ServiceDependencies struct {
	Repository *storage.Repository
	Metrics    storage.MetricsInterface
	Layout     Layout
	Workers    int
	Pins       mcversion.Pins
	QueryCache QueryCacheOptions
}

// Service объединяет все сервисы
type Service struct {
	Aggregator ItemSourceAggregator
	Query      VersionedQuery
	Auditor    ArtifactAuditor
}

// NewService создает новый экземпляр Service со всеми сервисами
func NewService(deps *ServiceDependencies) *Service {
	return &Service{
		Aggregator: NewAggregatorService(deps),
		Query:      NewQueryService(deps),
		Auditor:    NewAuditService(),
	}
}
