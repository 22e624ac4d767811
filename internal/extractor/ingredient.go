package extractor

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shard-legends/crafting-source-service/internal/models"
	"github.com/tidwall/gjson"
)

var (
	errMissingField = errors.New("missing field")
	errBadField     = errors.New("malformed field")
)

// parseIngredient normalizes every ingredient shape the recipe formats use:
// "id", "#tag", {"item": id}, {"tag": tag} and a list of alternatives.
func parseIngredient(field string, v gjson.Result) (models.ItemReference, error) {
	if !v.Exists() {
		return "", fmt.Errorf("%w: %s", errMissingField, field)
	}

	switch {
	case v.Type == gjson.String:
		if v.Str == "" {
			return "", fmt.Errorf("%w: %s is an empty string", errBadField, field)
		}
		return models.ItemReference(v.Str), nil

	case v.IsArray():
		alternatives := v.Array()
		if len(alternatives) == 0 {
			return "", fmt.Errorf("%w: %s is an empty list", errBadField, field)
		}
		seen := make(map[string]struct{}, len(alternatives))
		refs := make([]string, 0, len(alternatives))
		for i, alt := range alternatives {
			ref, err := parseIngredient(fmt.Sprintf("%s[%d]", field, i), alt)
			if err != nil {
				return "", err
			}
			for _, r := range ref.Alternatives() {
				if _, dup := seen[string(r)]; !dup {
					seen[string(r)] = struct{}{}
					refs = append(refs, string(r))
				}
			}
		}
		sort.Strings(refs)
		return models.ItemReference(strings.Join(refs, models.AlternativesSeparator)), nil

	case v.IsObject():
		if item := v.Get("item"); item.Type == gjson.String && item.Str != "" {
			return models.ItemReference(item.Str), nil
		}
		if tag := v.Get("tag"); tag.Type == gjson.String && tag.Str != "" {
			return models.ItemReference(models.TagMarker + strings.TrimPrefix(tag.Str, models.TagMarker)), nil
		}
		return "", fmt.Errorf("%w: %s has neither item nor tag", errBadField, field)
	}

	return "", fmt.Errorf("%w: %s has unsupported JSON type %s", errBadField, field, v.Type)
}

// parseResult reads "result" as a bare id or as {"id"|"item": id, "count": n}.
// fallbackCount covers older formats that keep the count next to the result.
func parseResult(doc gjson.Result, fallbackCount gjson.Result) (models.ResultEntry, error) {
	v := doc.Get("result")
	if !v.Exists() {
		return models.ResultEntry{}, fmt.Errorf("%w: result", errMissingField)
	}

	var id string
	count := 1
	countField := fallbackCount

	switch {
	case v.Type == gjson.String:
		id = v.Str
	case v.IsObject():
		id = v.Get("id").String()
		if id == "" {
			id = v.Get("item").String()
		}
		if c := v.Get("count"); c.Exists() {
			countField = c
		}
	default:
		return models.ResultEntry{}, fmt.Errorf("%w: result has unsupported JSON type %s", errBadField, v.Type)
	}

	if id == "" {
		return models.ResultEntry{}, fmt.Errorf("%w: result has no item id", errBadField)
	}
	if countField.Exists() {
		n, err := parseCount("result count", countField)
		if err != nil {
			return models.ResultEntry{}, err
		}
		count = n
	}
	return models.ResultEntry{Item: models.ItemReference(id), Count: count}, nil
}

// parseResultID reads only the result item; used by kinds whose result count is fixed at 1.
func parseResultID(doc gjson.Result) (models.ItemReference, error) {
	res, err := parseResult(doc, gjson.Result{})
	if err != nil {
		return "", err
	}
	return res.Item, nil
}

func parseCount(field string, v gjson.Result) (int, error) {
	if v.Type != gjson.Number || v.Num != float64(int(v.Num)) {
		return 0, fmt.Errorf("%w: %s must be an integer, got %s", errBadField, field, v.Raw)
	}
	return int(v.Num), nil
}

// requirementSet aggregates requirements by identical reference, keeping first-seen order.
type requirementSet struct {
	order  []models.ItemReference
	counts map[models.ItemReference]int
}

func newRequirementSet() *requirementSet {
	return &requirementSet{counts: make(map[models.ItemReference]int)}
}

func (s *requirementSet) add(item models.ItemReference, count int) {
	if _, ok := s.counts[item]; !ok {
		s.order = append(s.order, item)
	}
	s.counts[item] += count
}

func (s *requirementSet) entries() []models.RequirementEntry {
	out := make([]models.RequirementEntry, 0, len(s.order))
	for _, item := range s.order {
		out = append(out, models.RequirementEntry{Item: item, Count: s.counts[item]})
	}
	return out
}
