package service

import (
	"slices"

	"github.com/shard-legends/crafting-source-service/internal/extractor"
	"github.com/shard-legends/crafting-source-service/internal/models"
)

// UnrecognizedKind - запись, тип которой экстрактор не знает; признак дрейфа схемы
type UnrecognizedKind struct {
	Component  string `json:"component"`
	SourceFile string `json:"fromFile"`
	Kind       string `json:"type"`
	Suggestion string `json:"suggestion,omitempty"`
}

// AuditFinding - одна запись с исходом Error
type AuditFinding struct {
	Component  string `json:"component"`
	SourceFile string `json:"fromFile"`
	Kind       string `json:"type"`
	Message    string `json:"message"`
}

// AuditReport - итог проверки одного артефакта
type AuditReport struct {
	Version           string                          `json:"version"`
	Recipes           models.OutcomeCounts            `json:"recipes"`
	LootTables        models.OutcomeCounts            `json:"lootTables"`
	RecipeKinds       map[string]models.OutcomeCounts `json:"recipeKinds"`
	UnrecognizedKinds []UnrecognizedKind              `json:"unrecognizedKinds"`
	Errors            []AuditFinding                  `json:"errors"`
	TagReferences     []models.ItemReference          `json:"tagReferences"`
}

// HasSchemaDrift сообщает, встретились ли неизвестные типы рецептов или записей дропа
func (r *AuditReport) HasSchemaDrift() bool {
	return len(r.UnrecognizedKinds) > 0
}

// auditService реализует ArtifactAuditor
type auditService struct{}

// NewAuditService создает сервис проверки артефактов
func NewAuditService() ArtifactAuditor {
	return &auditService{}
}

// Audit проходит по всем записям артефакта. Ссылки на теги собираются отдельно:
// они остаются непрозрачными и разворачиваются за пределами артефакта.
func (s *auditService) Audit(a *models.VersionedArtifact) *AuditReport {
	report := &AuditReport{
		Version:           a.Version,
		Recipes:           a.RecipeCounts(),
		LootTables:        a.LootTableCounts(),
		RecipeKinds:       make(map[string]models.OutcomeCounts),
		UnrecognizedKinds: []UnrecognizedKind{},
		Errors:            []AuditFinding{},
	}
	tags := make(map[models.ItemReference]struct{})

	for _, r := range a.Recipes {
		counts := report.RecipeKinds[r.Kind]
		counts.Add(r.Outcome.Status)
		report.RecipeKinds[r.Kind] = counts

		switch {
		case r.Outcome.IsOK():
			for _, req := range r.Outcome.Value.Requirements {
				collectTags(tags, req.Item)
			}
			collectTags(tags, r.Outcome.Value.Result.Item)

		case r.Outcome.IsError():
			report.Errors = append(report.Errors, AuditFinding{
				Component:  componentRecipe,
				SourceFile: r.SourceFile,
				Kind:       r.Kind,
				Message:    r.Outcome.Message,
			})
			if r.Kind != "" && extractor.ParseRecipeKind(r.Kind) == extractor.RecipeKindUnrecognized {
				report.UnrecognizedKinds = append(report.UnrecognizedKinds, UnrecognizedKind{
					Component:  componentRecipe,
					SourceFile: r.SourceFile,
					Kind:       r.Kind,
					Suggestion: extractor.SuggestRecipeKind(r.Kind),
				})
			}
		}
	}

	for _, l := range a.LootTables {
		switch {
		case l.Outcome.IsOK():
			for _, d := range l.Outcome.Value {
				collectTags(tags, d.Item)
			}

		case l.Outcome.IsError():
			report.Errors = append(report.Errors, AuditFinding{
				Component:  componentLootTable,
				SourceFile: l.SourceFile,
				Kind:       l.Kind,
				Message:    l.Outcome.Message,
			})
			if kind, ok := extractor.UnrecognizedLootEntryKind(l.Outcome.Message); ok {
				report.UnrecognizedKinds = append(report.UnrecognizedKinds, UnrecognizedKind{
					Component:  componentLootTable,
					SourceFile: l.SourceFile,
					Kind:       kind,
					Suggestion: extractor.SuggestLootEntryKind(kind),
				})
			}
		}
	}

	report.TagReferences = make([]models.ItemReference, 0, len(tags))
	for tag := range tags {
		report.TagReferences = append(report.TagReferences, tag)
	}
	slices.Sort(report.TagReferences)
	return report
}

func collectTags(tags map[models.ItemReference]struct{}, ref models.ItemReference) {
	for _, alt := range ref.Alternatives() {
		if alt.IsTag() {
			tags[alt] = struct{}{}
		}
	}
}
