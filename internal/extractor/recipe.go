package extractor

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/shard-legends/crafting-source-service/internal/models"
	"github.com/tidwall/gjson"
)

// RecipeExtractor normalizes recipe definitions into requirement/result records.
type RecipeExtractor struct {
	workers int
}

// NewRecipeExtractor creates an extractor that reads up to workers files at once in ExtractTree.
func NewRecipeExtractor(workers int) *RecipeExtractor {
	if workers < 1 {
		workers = 1
	}
	return &RecipeExtractor{workers: workers}
}

// ExtractTree extracts every .json file below root. Per-file problems become Error records;
// the returned error is reserved for an unreadable root and cancellation.
func (e *RecipeExtractor) ExtractTree(ctx context.Context, fsys fs.FS, root string) ([]models.ExtractedRecipe, error) {
	return extractTree(ctx, fsys, root, e.workers, e.Extract, func(path string, err error) models.ExtractedRecipe {
		return models.ExtractedRecipe{SourceFile: path, Outcome: models.Failed[models.RecipeBody](err.Error(), nil)}
	})
}

// Extract normalizes one recipe definition. It never fails: unsupported kinds become Ignored
// and anything it cannot interpret becomes Error with the raw payload kept.
func (e *RecipeExtractor) Extract(sourceFile string, raw []byte) models.ExtractedRecipe {
	rec := models.ExtractedRecipe{SourceFile: sourceFile}

	if !gjson.ValidBytes(raw) {
		rec.Outcome = models.Failed[models.RecipeBody]("malformed JSON", raw)
		return rec
	}

	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		rec.Outcome = models.Failed[models.RecipeBody]("recipe is not a JSON object", raw)
		return rec
	}

	kindField := doc.Get("type")
	if kindField.Type != gjson.String || kindField.Str == "" {
		rec.Outcome = models.Failed[models.RecipeBody]("recipe has no type", raw)
		return rec
	}
	rec.Kind = kindField.Str

	kind := ParseRecipeKind(rec.Kind)
	if kind.IsIgnored() {
		rec.Outcome = models.Ignored[models.RecipeBody]()
		return rec
	}

	body, err := normalizeRecipe(kind, rec.Kind, doc)
	if err == nil {
		err = models.ValidateRecipeBody(body)
	}
	if err != nil {
		rec.Outcome = models.Failed[models.RecipeBody](err.Error(), raw)
		return rec
	}

	rec.Outcome = models.OK(body)
	return rec
}

func normalizeRecipe(kind RecipeKind, kindName string, doc gjson.Result) (models.RecipeBody, error) {
	switch kind {
	case RecipeKindShaped:
		return normalizeShaped(doc)
	case RecipeKindShapeless:
		return normalizeShapeless(doc)
	case RecipeKindStonecutting, RecipeKindSmelting, RecipeKindCampfireCooking, RecipeKindSmoking, RecipeKindBlasting:
		return normalizeSingleIngredient(doc)
	case RecipeKindTransmute:
		return normalizeTransmute(doc)
	case RecipeKindSmithingTrim:
		return normalizeSmithingTrim(doc)
	case RecipeKindSmithingTransform:
		return normalizeSmithingTransform(doc)
	case RecipeKindSpecial, RecipeKindDecoratedPot:
		return models.RecipeBody{}, fmt.Errorf("recipe kind %q is not normalizable", kindName)
	case RecipeKindUnrecognized:
		if hint := SuggestRecipeKind(kindName); hint != "" {
			return models.RecipeBody{}, fmt.Errorf("unrecognized recipe kind %q (did you mean %q?)", kindName, hint)
		}
		return models.RecipeBody{}, fmt.Errorf("unrecognized recipe kind %q", kindName)
	}
	return models.RecipeBody{}, fmt.Errorf("unhandled recipe kind %q", kindName)
}

// normalizeShaped counts how often each pattern symbol occurs across all rows.
func normalizeShaped(doc gjson.Result) (models.RecipeBody, error) {
	pattern := doc.Get("pattern")
	if !pattern.IsArray() {
		return models.RecipeBody{}, fmt.Errorf("%w: pattern", errMissingField)
	}
	key := doc.Get("key")
	if !key.IsObject() {
		return models.RecipeBody{}, fmt.Errorf("%w: key", errMissingField)
	}

	keys := make(map[string]gjson.Result)
	key.ForEach(func(k, v gjson.Result) bool {
		keys[k.String()] = v
		return true
	})

	symbols := make(map[rune]models.ItemReference)
	reqs := newRequirementSet()
	for i, row := range pattern.Array() {
		if row.Type != gjson.String {
			return models.RecipeBody{}, fmt.Errorf("%w: pattern[%d] is not a string", errBadField, i)
		}
		for _, symbol := range row.Str {
			if symbol == ' ' {
				continue
			}
			item, ok := symbols[symbol]
			if !ok {
				ref, err := parseIngredient(fmt.Sprintf("key[%q]", symbol), keys[string(symbol)])
				if err != nil {
					return models.RecipeBody{}, fmt.Errorf("pattern symbol %q: %w", symbol, err)
				}
				symbols[symbol] = ref
				item = ref
			}
			reqs.add(item, 1)
		}
	}

	return withResult(doc, reqs, gjson.Result{})
}

// normalizeShapeless merges repeated ingredients into a single entry.
func normalizeShapeless(doc gjson.Result) (models.RecipeBody, error) {
	ingredients := doc.Get("ingredients")
	if !ingredients.IsArray() {
		return models.RecipeBody{}, fmt.Errorf("%w: ingredients", errMissingField)
	}

	reqs := newRequirementSet()
	for i, ing := range ingredients.Array() {
		ref, err := parseIngredient(fmt.Sprintf("ingredients[%d]", i), ing)
		if err != nil {
			return models.RecipeBody{}, err
		}
		reqs.add(ref, 1)
	}

	return withResult(doc, reqs, gjson.Result{})
}

func normalizeSingleIngredient(doc gjson.Result) (models.RecipeBody, error) {
	ref, err := parseIngredient("ingredient", doc.Get("ingredient"))
	if err != nil {
		return models.RecipeBody{}, err
	}
	reqs := newRequirementSet()
	reqs.add(ref, 1)
	return withResult(doc, reqs, doc.Get("count"))
}

func normalizeTransmute(doc gjson.Result) (models.RecipeBody, error) {
	reqs, err := requireEach(doc, "input", "material")
	if err != nil {
		return models.RecipeBody{}, err
	}
	result, err := parseResultID(doc)
	if err != nil {
		return models.RecipeBody{}, err
	}
	return models.RecipeBody{Requirements: reqs.entries(), Result: models.ResultEntry{Item: result, Count: 1}}, nil
}

// normalizeSmithingTrim yields the template as the result: trimming consumes it.
func normalizeSmithingTrim(doc gjson.Result) (models.RecipeBody, error) {
	reqs, err := requireEach(doc, "base", "addition")
	if err != nil {
		return models.RecipeBody{}, err
	}
	template, err := parseIngredient("template", doc.Get("template"))
	if err != nil {
		return models.RecipeBody{}, err
	}
	return models.RecipeBody{Requirements: reqs.entries(), Result: models.ResultEntry{Item: template, Count: 1}}, nil
}

func normalizeSmithingTransform(doc gjson.Result) (models.RecipeBody, error) {
	reqs, err := requireEach(doc, "base", "addition", "template")
	if err != nil {
		return models.RecipeBody{}, err
	}
	return withResult(doc, reqs, gjson.Result{})
}

// requireEach reads one reference per field. Equal references merge into one entry.
func requireEach(doc gjson.Result, fields ...string) (*requirementSet, error) {
	reqs := newRequirementSet()
	for _, field := range fields {
		ref, err := parseIngredient(field, doc.Get(field))
		if err != nil {
			return nil, err
		}
		reqs.add(ref, 1)
	}
	return reqs, nil
}

func withResult(doc gjson.Result, reqs *requirementSet, fallbackCount gjson.Result) (models.RecipeBody, error) {
	entries := reqs.entries()
	if len(entries) == 0 {
		return models.RecipeBody{}, fmt.Errorf("recipe has no ingredients")
	}
	result, err := parseResult(doc, fallbackCount)
	if err != nil {
		return models.RecipeBody{}, err
	}
	return models.RecipeBody{Requirements: entries, Result: result}, nil
}
