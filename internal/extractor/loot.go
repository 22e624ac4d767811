package extractor

import (
	"context"
	"fmt"
	"io/fs"
	"math"
	"strconv"
	"strings"

	"github.com/shard-legends/crafting-source-service/internal/models"
	"github.com/tidwall/gjson"
)

const setCountFunction = "set_count"

// UnrecognizedLootEntry prefixes the Error message of tables holding an unknown entry type.
const UnrecognizedLootEntry = "unrecognized loot entry type"

// LootTableExtractor flattens loot table pools into drop records.
type LootTableExtractor struct {
	workers int
}

// NewLootTableExtractor creates an extractor that reads up to workers files at once in ExtractTree.
func NewLootTableExtractor(workers int) *LootTableExtractor {
	if workers < 1 {
		workers = 1
	}
	return &LootTableExtractor{workers: workers}
}

// ExtractTree extracts every .json file below root, descending into subdirectories.
func (e *LootTableExtractor) ExtractTree(ctx context.Context, fsys fs.FS, root string) ([]models.ExtractedLootTable, error) {
	return extractTree(ctx, fsys, root, e.workers, e.Extract, func(path string, err error) models.ExtractedLootTable {
		return models.ExtractedLootTable{SourceFile: path, Outcome: models.Failed[[]models.DropEntry](err.Error(), nil)}
	})
}

// Extract normalizes one loot table. Tables without pools are Ignored; a pool structure
// that cannot be interpreted becomes Error with the raw payload kept.
func (e *LootTableExtractor) Extract(sourceFile string, raw []byte) models.ExtractedLootTable {
	rec := models.ExtractedLootTable{SourceFile: sourceFile}

	if !gjson.ValidBytes(raw) {
		rec.Outcome = models.Failed[[]models.DropEntry]("malformed JSON", raw)
		return rec
	}

	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		rec.Outcome = models.Failed[[]models.DropEntry]("loot table is not a JSON object", raw)
		return rec
	}
	if kind := doc.Get("type"); kind.Type == gjson.String {
		rec.Kind = kind.Str
	}

	pools := doc.Get("pools")
	if !pools.Exists() || pools.Type == gjson.Null || (pools.IsArray() && len(pools.Array()) == 0) {
		rec.Outcome = models.Ignored[[]models.DropEntry]()
		return rec
	}
	if !pools.IsArray() {
		rec.Outcome = models.Failed[[]models.DropEntry](fmt.Sprintf("%s: pools is not a list", errBadField), raw)
		return rec
	}

	drops := make([]models.DropEntry, 0)
	for i, pool := range pools.Array() {
		poolDrops, err := flattenPool(pool)
		if err != nil {
			rec.Outcome = models.Failed[[]models.DropEntry](fmt.Sprintf("pools[%d]: %s", i, err), raw)
			return rec
		}
		drops = append(drops, poolDrops...)
	}

	rec.Outcome = models.OK(drops)
	return rec
}

func flattenPool(pool gjson.Result) ([]models.DropEntry, error) {
	if !pool.IsObject() {
		return nil, fmt.Errorf("%w: pool is not an object", errBadField)
	}

	rolls := models.SingleCount
	if r := pool.Get("rolls"); r.Exists() {
		var err error
		if rolls, err = numberRange("rolls", r); err != nil {
			return nil, err
		}
	}

	entries := pool.Get("entries")
	if !entries.IsArray() {
		return nil, fmt.Errorf("%w: entries", errMissingField)
	}

	var drops []models.DropEntry
	for i, entry := range entries.Array() {
		found, err := flattenEntry(fmt.Sprintf("entries[%d]", i), entry, pool.Get("functions"), rolls)
		if err != nil {
			return nil, err
		}
		drops = append(drops, found...)
	}
	return drops, nil
}

// flattenEntry walks an entry and its children. Pool level functions apply after the entry's own.
func flattenEntry(field string, entry, poolFunctions gjson.Result, rolls models.CountRange) ([]models.DropEntry, error) {
	if !entry.IsObject() {
		return nil, fmt.Errorf("%w: %s is not an object", errBadField, field)
	}

	kindName := entry.Get("type").String()
	kind := ParseLootEntryKind(kindName)

	switch {
	case kind.IsComposite():
		children := entry.Get("children")
		if !children.IsArray() {
			return nil, fmt.Errorf("%w: %s.children", errMissingField, field)
		}
		var drops []models.DropEntry
		for i, child := range children.Array() {
			found, err := flattenEntry(fmt.Sprintf("%s.children[%d]", field, i), child, poolFunctions, rolls)
			if err != nil {
				return nil, err
			}
			drops = append(drops, found...)
		}
		return drops, nil

	case kind == LootEntryItem, kind == LootEntryTag:
		name := entry.Get("name")
		if name.Type != gjson.String || name.Str == "" {
			return nil, fmt.Errorf("%w: %s.name", errMissingField, field)
		}
		item := models.ItemReference(name.Str)
		if kind == LootEntryTag {
			item = models.ItemReference(models.TagMarker + strings.TrimPrefix(name.Str, models.TagMarker))
		}

		count := models.SingleCount
		for _, functions := range []gjson.Result{entry.Get("functions"), poolFunctions} {
			var err error
			if count, err = applySetCount(field, functions, count); err != nil {
				return nil, err
			}
		}
		count = clampNegative(count.Scale(rolls))

		drop := models.DropEntry{Item: item, CountRange: count}
		if err := models.ValidateDropEntry(drop); err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		return []models.DropEntry{drop}, nil

	case kind == LootEntryLootTable, kind == LootEntryEmpty, kind == LootEntryDynamic:
		return nil, nil
	}

	return nil, &UnrecognizedEntryError{Field: field, Kind: kindName, Suggestion: SuggestLootEntryKind(kindName)}
}

// UnrecognizedEntryError is a loot entry whose type is outside the known set.
type UnrecognizedEntryError struct {
	Field      string
	Kind       string
	Suggestion string
}

func (e *UnrecognizedEntryError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s: %s %q (did you mean %q?)", e.Field, UnrecognizedLootEntry, e.Kind, e.Suggestion)
	}
	return fmt.Sprintf("%s: %s %q", e.Field, UnrecognizedLootEntry, e.Kind)
}

// UnrecognizedLootEntryKind recovers the unknown entry type from an Error message stored in an
// artifact. ok is false when the message is about something else.
func UnrecognizedLootEntryKind(message string) (kind string, ok bool) {
	i := strings.Index(message, UnrecognizedLootEntry+" ")
	if i < 0 {
		return "", false
	}
	quoted, err := strconv.QuotedPrefix(message[i+len(UnrecognizedLootEntry)+1:])
	if err != nil {
		return "", false
	}
	kind, err = strconv.Unquote(quoted)
	if err != nil {
		return "", false
	}
	return kind, true
}

// applySetCount folds every set_count function into count. "add" functions widen the range,
// others replace it.
func applySetCount(field string, functions gjson.Result, count models.CountRange) (models.CountRange, error) {
	if !functions.Exists() {
		return count, nil
	}
	if !functions.IsArray() {
		return count, fmt.Errorf("%w: %s.functions is not a list", errBadField, field)
	}

	for i, fn := range functions.Array() {
		if strings.TrimPrefix(fn.Get("function").String(), minecraftNamespace) != setCountFunction {
			continue
		}
		r, err := numberRange(fmt.Sprintf("%s.functions[%d].count", field, i), fn.Get("count"))
		if err != nil {
			return count, err
		}
		if fn.Get("add").Bool() {
			count = models.CountRange{Min: count.Min + r.Min, Max: count.Max + r.Max}
		} else {
			count = r
		}
	}
	return count, nil
}

// numberRange reduces a number provider to the bounds it can produce.
func numberRange(field string, v gjson.Result) (models.CountRange, error) {
	switch {
	case v.Type == gjson.Number:
		return models.CountRange{Min: int(math.Floor(v.Num)), Max: int(math.Ceil(v.Num))}, nil

	case v.IsObject():
		switch strings.TrimPrefix(v.Get("type").String(), minecraftNamespace) {
		case "constant":
			return numberRange(field+".value", v.Get("value"))

		case "uniform", "":
			if !v.Get("min").Exists() || !v.Get("max").Exists() {
				break
			}
			lo, err := numberRange(field+".min", v.Get("min"))
			if err != nil {
				return models.CountRange{}, err
			}
			hi, err := numberRange(field+".max", v.Get("max"))
			if err != nil {
				return models.CountRange{}, err
			}
			if lo.Min > hi.Max {
				return models.CountRange{}, fmt.Errorf("%w: %s has inverted bounds [%d, %d]", errBadField, field, lo.Min, hi.Max)
			}
			return models.CountRange{Min: lo.Min, Max: hi.Max}, nil

		case "binomial":
			n, err := numberRange(field+".n", v.Get("n"))
			if err != nil {
				return models.CountRange{}, err
			}
			return models.CountRange{Min: 0, Max: n.Max}, nil
		}
	}

	if !v.Exists() {
		return models.CountRange{}, fmt.Errorf("%w: %s", errMissingField, field)
	}
	return models.CountRange{}, fmt.Errorf("%w: %s is not a supported number provider: %s", errBadField, field, v.Raw)
}

func clampNegative(c models.CountRange) models.CountRange {
	return models.CountRange{Min: max(c.Min, 0), Max: max(c.Max, 0)}
}
