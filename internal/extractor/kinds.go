package extractor

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

const (
	minecraftNamespace = "minecraft:"
	specialPrefix      = "crafting_special_"

	// maxSuggestionDistance bounds how far a misspelled kind may be from a known one
	maxSuggestionDistance = 3
)

// RecipeKind is the closed set of recipe kinds the extractor knows about.
type RecipeKind int

const (
	RecipeKindUnrecognized RecipeKind = iota
	RecipeKindShaped
	RecipeKindShapeless
	RecipeKindStonecutting
	RecipeKindSmelting
	RecipeKindCampfireCooking
	RecipeKindSmoking
	RecipeKindBlasting
	RecipeKindTransmute
	RecipeKindSmithingTrim
	RecipeKindSmithingTransform
	RecipeKindSpecial
	RecipeKindDecoratedPot
)

var recipeKindNames = map[string]RecipeKind{
	"crafting_shaped":        RecipeKindShaped,
	"crafting_shapeless":     RecipeKindShapeless,
	"stonecutting":           RecipeKindStonecutting,
	"smelting":               RecipeKindSmelting,
	"campfire_cooking":       RecipeKindCampfireCooking,
	"smoking":                RecipeKindSmoking,
	"blasting":               RecipeKindBlasting,
	"crafting_transmute":     RecipeKindTransmute,
	"smithing_trim":          RecipeKindSmithingTrim,
	"smithing_transform":     RecipeKindSmithingTransform,
	"crafting_decorated_pot": RecipeKindDecoratedPot,
}

// ParseRecipeKind maps a recipe "type" value, with or without the minecraft namespace, to its kind.
func ParseRecipeKind(s string) RecipeKind {
	name := strings.TrimPrefix(s, minecraftNamespace)
	if k, ok := recipeKindNames[name]; ok {
		return k
	}
	if strings.HasPrefix(name, specialPrefix) && len(name) > len(specialPrefix) {
		return RecipeKindSpecial
	}
	return RecipeKindUnrecognized
}

// IsSingleIngredient reports whether the kind consumes exactly one ingredient.
func (k RecipeKind) IsSingleIngredient() bool {
	switch k {
	case RecipeKindStonecutting, RecipeKindSmelting, RecipeKindCampfireCooking, RecipeKindSmoking, RecipeKindBlasting:
		return true
	}
	return false
}

// IsIgnored reports whether recipes of this kind are skipped on purpose.
func (k RecipeKind) IsIgnored() bool {
	return k == RecipeKindSpecial || k == RecipeKindDecoratedPot
}

// LootEntryKind is the closed set of loot pool entry types.
type LootEntryKind int

const (
	LootEntryUnrecognized LootEntryKind = iota
	LootEntryItem
	LootEntryTag
	LootEntryAlternatives
	LootEntryGroup
	LootEntrySequence
	LootEntryLootTable
	LootEntryEmpty
	LootEntryDynamic
)

var lootEntryKindNames = map[string]LootEntryKind{
	"item":         LootEntryItem,
	"tag":          LootEntryTag,
	"alternatives": LootEntryAlternatives,
	"group":        LootEntryGroup,
	"sequence":     LootEntrySequence,
	"loot_table":   LootEntryLootTable,
	"empty":        LootEntryEmpty,
	"dynamic":      LootEntryDynamic,
}

// ParseLootEntryKind maps a loot entry "type" value to its kind.
func ParseLootEntryKind(s string) LootEntryKind {
	if k, ok := lootEntryKindNames[strings.TrimPrefix(s, minecraftNamespace)]; ok {
		return k
	}
	return LootEntryUnrecognized
}

// IsComposite reports whether the entry holds children instead of an item.
func (k LootEntryKind) IsComposite() bool {
	return k == LootEntryAlternatives || k == LootEntryGroup || k == LootEntrySequence
}

// SuggestRecipeKind returns the known recipe kind closest to s, or "" when nothing is close.
func SuggestRecipeKind(s string) string {
	return suggest(strings.TrimPrefix(s, minecraftNamespace), recipeKindNames)
}

// SuggestLootEntryKind returns the known loot entry type closest to s, or "".
func SuggestLootEntryKind(s string) string {
	return suggest(strings.TrimPrefix(s, minecraftNamespace), lootEntryKindNames)
}

func suggest[K any](name string, known map[string]K) string {
	names := make([]string, 0, len(known))
	for n := range known {
		names = append(names, n)
	}
	sort.Strings(names)

	best, bestDistance := "", maxSuggestionDistance+1
	for _, n := range names {
		if d := levenshtein.ComputeDistance(name, n); d < bestDistance {
			best, bestDistance = n, d
		}
	}
	if best == "" {
		return ""
	}
	return minecraftNamespace + best
}
