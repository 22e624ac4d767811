package extractor

import (
	"context"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shard-legends/crafting-source-service/internal/models"
)

func extractOK(t *testing.T, raw string) models.RecipeBody {
	t.Helper()
	rec := NewRecipeExtractor(1).Extract("recipe.json", []byte(raw))
	require.True(t, rec.Outcome.IsOK(), "outcome: %s %s", rec.Outcome.Status, rec.Outcome.Message)
	return rec.Outcome.Value
}

func TestRecipeExtractor_Shaped(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected models.RecipeBody
	}{
		{
			name: "ring of eight",
			raw: `{"type":"minecraft:crafting_shaped","pattern":["AAA","A A","AAA"],
				"key":{"A":"minecraft:cobblestone"},"result":{"id":"minecraft:furnace","count":1}}`,
			expected: models.RecipeBody{
				Requirements: []models.RequirementEntry{{Item: "minecraft:cobblestone", Count: 8}},
				Result:       models.ResultEntry{Item: "minecraft:furnace", Count: 1},
			},
		},
		{
			name: "single cell with legacy item object",
			raw: `{"type":"minecraft:crafting_shaped","pattern":["L"],
				"key":{"L":{"item":"minecraft:oak_log"}},"result":{"item":"minecraft:oak_planks","count":4}}`,
			expected: models.RecipeBody{
				Requirements: []models.RequirementEntry{{Item: "minecraft:oak_log", Count: 1}},
				Result:       models.ResultEntry{Item: "minecraft:oak_planks", Count: 4},
			},
		},
		{
			name: "two keys with the same item merge",
			raw: `{"type":"crafting_shaped","pattern":["AB","BA"],
				"key":{"A":"minecraft:stick","B":{"item":"minecraft:stick"}},"result":"minecraft:ladder"}`,
			expected: models.RecipeBody{
				Requirements: []models.RequirementEntry{{Item: "minecraft:stick", Count: 4}},
				Result:       models.ResultEntry{Item: "minecraft:ladder", Count: 1},
			},
		},
		{
			name: "tag and alternatives stay opaque",
			raw: `{"type":"minecraft:crafting_shaped","pattern":["PP","SS"],
				"key":{"P":{"tag":"minecraft:planks"},"S":[{"item":"minecraft:stone"},"minecraft:andesite","minecraft:stone"]},
				"result":{"id":"minecraft:thing"}}`,
			expected: models.RecipeBody{
				Requirements: []models.RequirementEntry{
					{Item: "#minecraft:planks", Count: 2},
					{Item: "minecraft:andesite|minecraft:stone", Count: 2},
				},
				Result: models.ResultEntry{Item: "minecraft:thing", Count: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractOK(t, tt.raw))
		})
	}
}

func TestRecipeExtractor_ShapelessMergesDuplicates(t *testing.T) {
	body := extractOK(t, `{"type":"minecraft:crafting_shapeless",
		"ingredients":["minecraft:sugar","minecraft:egg","minecraft:sugar"],
		"result":{"id":"minecraft:cake_mix","count":1}}`)

	assert.Equal(t, []models.RequirementEntry{
		{Item: "minecraft:sugar", Count: 2},
		{Item: "minecraft:egg", Count: 1},
	}, body.Requirements)
}

func TestRecipeExtractor_SingleIngredientKinds(t *testing.T) {
	for _, kind := range []string{"stonecutting", "smelting", "campfire_cooking", "smoking", "blasting"} {
		t.Run(kind, func(t *testing.T) {
			body := extractOK(t, fmt.Sprintf(`{"type":"minecraft:%s","ingredient":{"item":"minecraft:oak_log"},"result":{"id":"minecraft:charcoal"}}`, kind))

			assert.Equal(t, []models.RequirementEntry{{Item: "minecraft:oak_log", Count: 1}}, body.Requirements)
			assert.Equal(t, models.ResultEntry{Item: "minecraft:charcoal", Count: 1}, body.Result)
		})
	}

	// старый формат камнереза хранит количество рядом с результатом
	body := extractOK(t, `{"type":"minecraft:stonecutting","ingredient":{"item":"minecraft:stone"},"result":"minecraft:stone_slab","count":2}`)
	assert.Equal(t, 2, body.Result.Count)
}

func TestRecipeExtractor_Transmute(t *testing.T) {
	body := extractOK(t, `{"type":"minecraft:crafting_transmute","input":"#minecraft:shulker_boxes",
		"material":"minecraft:blue_dye","result":"minecraft:blue_shulker_box"}`)

	assert.Equal(t, []models.RequirementEntry{
		{Item: "#minecraft:shulker_boxes", Count: 1},
		{Item: "minecraft:blue_dye", Count: 1},
	}, body.Requirements)
	assert.Equal(t, models.ResultEntry{Item: "minecraft:blue_shulker_box", Count: 1}, body.Result)
}

func TestRecipeExtractor_IdenticalSlotsMerge(t *testing.T) {
	t.Run("transmute", func(t *testing.T) {
		body := extractOK(t, `{"type":"minecraft:crafting_transmute","input":"minecraft:blue_dye",
			"material":"minecraft:blue_dye","result":"minecraft:blue_dye"}`)

		assert.Equal(t, []models.RequirementEntry{{Item: "minecraft:blue_dye", Count: 2}}, body.Requirements)
	})

	t.Run("smithing trim", func(t *testing.T) {
		body := extractOK(t, `{"type":"minecraft:smithing_trim","template":"minecraft:coast_armor_trim_smithing_template",
			"base":"minecraft:iron_ingot","addition":"minecraft:iron_ingot"}`)

		assert.Equal(t, []models.RequirementEntry{{Item: "minecraft:iron_ingot", Count: 2}}, body.Requirements)
	})
}

func TestRecipeExtractor_Smithing(t *testing.T) {
	t.Run("trim yields the template", func(t *testing.T) {
		body := extractOK(t, `{"type":"minecraft:smithing_trim","template":"minecraft:coast_armor_trim_smithing_template",
			"base":"#minecraft:trimmable_armor","addition":"#minecraft:trim_materials"}`)

		assert.Equal(t, []models.RequirementEntry{
			{Item: "#minecraft:trimmable_armor", Count: 1},
			{Item: "#minecraft:trim_materials", Count: 1},
		}, body.Requirements)
		assert.Equal(t, models.ResultEntry{Item: "minecraft:coast_armor_trim_smithing_template", Count: 1}, body.Result)
	})

	t.Run("transform", func(t *testing.T) {
		body := extractOK(t, `{"type":"minecraft:smithing_transform","template":"minecraft:netherite_upgrade_smithing_template",
			"base":"minecraft:diamond_sword","addition":"minecraft:netherite_ingot","result":{"id":"minecraft:netherite_sword","count":1}}`)

		assert.Len(t, body.Requirements, 3)
		assert.Equal(t, models.ItemReference("minecraft:netherite_upgrade_smithing_template"), body.Requirements[2].Item)
		assert.Equal(t, models.ResultEntry{Item: "minecraft:netherite_sword", Count: 1}, body.Result)
	})
}

func TestRecipeExtractor_Ignored(t *testing.T) {
	e := NewRecipeExtractor(1)
	for _, kind := range []string{"minecraft:crafting_special_armordye", "crafting_special_mapcloning", "minecraft:crafting_decorated_pot"} {
		rec := e.Extract("x.json", []byte(fmt.Sprintf(`{"type":%q}`, kind)))

		assert.True(t, rec.Outcome.IsIgnored(), kind)
		assert.Equal(t, kind, rec.Kind)
	}
}

func TestRecipeExtractor_Errors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		message string
	}{
		{name: "malformed JSON", raw: `{"type":`, message: "malformed JSON"},
		{name: "not an object", raw: `[1,2]`, message: "not a JSON object"},
		{name: "no type", raw: `{"result":"minecraft:stone"}`, message: "no type"},
		{name: "misspelled kind gets a hint", raw: `{"type":"minecraft:crafting_shapedd"}`, message: `did you mean "minecraft:crafting_shaped"`},
		{name: "unknown kind", raw: `{"type":"mod:spinning_wheel"}`, message: "unrecognized recipe kind"},
		{name: "empty shapeless", raw: `{"type":"minecraft:crafting_shapeless","ingredients":[],"result":"minecraft:stone"}`, message: "no ingredients"},
		{name: "unknown pattern symbol", raw: `{"type":"minecraft:crafting_shaped","pattern":["X"],"key":{},"result":"minecraft:stone"}`, message: "missing field"},
		{name: "zero result count", raw: `{"type":"minecraft:smelting","ingredient":"minecraft:sand","result":{"id":"minecraft:glass","count":0}}`, message: "invalid recipe"},
		{name: "fractional count", raw: `{"type":"minecraft:smelting","ingredient":"minecraft:sand","result":{"id":"minecraft:glass","count":1.5}}`, message: "must be an integer"},
		{name: "missing result", raw: `{"type":"minecraft:smelting","ingredient":"minecraft:sand"}`, message: "result"},
	}

	e := NewRecipeExtractor(1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.Extract("bad.json", []byte(tt.raw))

			require.True(t, rec.Outcome.IsError())
			assert.Contains(t, rec.Outcome.Message, tt.message)
			assert.NotEmpty(t, rec.Outcome.Payload, "raw payload must be kept")
		})
	}
}

func TestRecipeExtractor_ExtractTree_SurvivesCorruptFile(t *testing.T) {
	fsys := fstest.MapFS{}
	for i := 0; i < 999; i++ {
		fsys[fmt.Sprintf("tags/recipe/r%03d.json", i)] = &fstest.MapFile{
			Data: []byte(fmt.Sprintf(`{"type":"minecraft:smelting","ingredient":"minecraft:i%d","result":"minecraft:o%d"}`, i, i)),
		}
	}
	fsys["tags/recipe/corrupt.json"] = &fstest.MapFile{Data: []byte(`{"type": "minecraft:smelting", "ingr`)}
	fsys["tags/recipe/README.txt"] = &fstest.MapFile{Data: []byte("not a recipe")}

	recipes, err := NewRecipeExtractor(8).ExtractTree(context.Background(), fsys, "tags/recipe")
	require.NoError(t, err)
	require.Len(t, recipes, 1000)

	var ok, failed int
	for _, r := range recipes {
		switch {
		case r.Outcome.IsOK():
			ok++
		case r.Outcome.IsError():
			failed++
			assert.Equal(t, "tags/recipe/corrupt.json", r.SourceFile)
		}
	}
	assert.Equal(t, 999, ok)
	assert.Equal(t, 1, failed)
}

func TestRecipeExtractor_ExtractTree_MissingRoot(t *testing.T) {
	_, err := NewRecipeExtractor(2).ExtractTree(context.Background(), fstest.MapFS{}, "tags/recipe")
	assert.ErrorIs(t, err, ErrUnreadableRoot)
}

func TestRecipeExtractor_ExtractTree_Cancelled(t *testing.T) {
	fsys := fstest.MapFS{"r/a.json": &fstest.MapFile{Data: []byte(`{}`)}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRecipeExtractor(2).ExtractTree(ctx, fsys, "r")
	assert.ErrorIs(t, err, context.Canceled)
}
