package models

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"
)

// VersionMetadata представляет содержимое version.json каталога версии
type VersionMetadata struct {
	ID                  string `json:"id" validate:"required"`
	ResourcePackVersion string `json:"resourcePackVersion" validate:"required"`
	DataPackVersion     string `json:"dataPackVersion" validate:"required"`
	ReleaseTarget       string `json:"releaseTarget,omitempty"`
}

// VersionedArtifact представляет итоговый артефакт одной версии игры.
// Создается один раз за запуск и после этого не изменяется.
type VersionedArtifact struct {
	Version             string               `json:"version"`
	ResourcePackVersion string               `json:"resourcePackVersion"`
	DataPackVersion     string               `json:"dataPackVersion"`
	ReleaseTarget       string               `json:"releaseTarget,omitempty"`
	LootTables          []ExtractedLootTable `json:"lootTable"`
	Recipes             []ExtractedRecipe    `json:"recipes"`
}

// NewVersionedArtifact собирает артефакт и упорядочивает записи по исходному файлу
func NewVersionedArtifact(meta VersionMetadata, recipes []ExtractedRecipe, lootTables []ExtractedLootTable) *VersionedArtifact {
	if recipes == nil {
		recipes = []ExtractedRecipe{}
	}
	if lootTables == nil {
		lootTables = []ExtractedLootTable{}
	}

	slices.SortStableFunc(recipes, func(a, b ExtractedRecipe) int {
		return cmp.Or(cmp.Compare(a.SourceFile, b.SourceFile), cmp.Compare(a.Kind, b.Kind))
	})
	slices.SortStableFunc(lootTables, func(a, b ExtractedLootTable) int {
		return cmp.Or(cmp.Compare(a.SourceFile, b.SourceFile), cmp.Compare(a.Kind, b.Kind))
	})

	return &VersionedArtifact{
		Version:             meta.ID,
		ResourcePackVersion: meta.ResourcePackVersion,
		DataPackVersion:     meta.DataPackVersion,
		ReleaseTarget:       meta.ReleaseTarget,
		LootTables:          lootTables,
		Recipes:             recipes,
	}
}

// Metadata возвращает метаданные версии артефакта
func (a *VersionedArtifact) Metadata() VersionMetadata {
	return VersionMetadata{
		ID:                  a.Version,
		ResourcePackVersion: a.ResourcePackVersion,
		DataPackVersion:     a.DataPackVersion,
		ReleaseTarget:       a.ReleaseTarget,
	}
}

// OutcomeCounts представляет количество записей по статусам
type OutcomeCounts struct {
	OK      int `json:"ok"`
	Ignored int `json:"ignored"`
	Error   int `json:"error"`
}

// Total возвращает общее количество записей
func (c OutcomeCounts) Total() int {
	return c.OK + c.Ignored + c.Error
}

// Add учитывает одну запись со статусом s
func (c *OutcomeCounts) Add(s Status) {
	switch s {
	case StatusOK:
		c.OK++
	case StatusIgnored:
		c.Ignored++
	case StatusError:
		c.Error++
	}
}

// RecipeCounts считает рецепты по статусам
func (a *VersionedArtifact) RecipeCounts() OutcomeCounts {
	var c OutcomeCounts
	for _, r := range a.Recipes {
		c.Add(r.Outcome.Status)
	}
	return c
}

// LootTableCounts считает таблицы дропа по статусам
func (a *VersionedArtifact) LootTableCounts() OutcomeCounts {
	var c OutcomeCounts
	for _, l := range a.LootTables {
		c.Add(l.Outcome.Status)
	}
	return c
}

// EncodeArtifact сериализует артефакт в стабильной форме (отступ 2 пробела, без HTML-экранирования)
func EncodeArtifact(w io.Writer, a *VersionedArtifact) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("failed to encode artifact %s: %w", a.Version, err)
	}
	return nil
}

// DecodeArtifact читает артефакт, записанный EncodeArtifact
func DecodeArtifact(r io.Reader) (*VersionedArtifact, error) {
	var a VersionedArtifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to decode artifact: %w", err)
	}
	if a.Version == "" {
		return nil, fmt.Errorf("failed to decode artifact: missing version")
	}
	return &a, nil
}
