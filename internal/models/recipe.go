package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TagMarker помечает ссылку на тег ("любой предмет из группы"); такие ссылки не раскрываются
const TagMarker = "#"

// AlternativesSeparator разделяет варианты ингредиента, заданного списком
const AlternativesSeparator = "|"

// ItemReference представляет идентификатор предмета или тега; сравнивается по строке
type ItemReference string

// IsTag проверяет является ли ссылка ссылкой на тег
func (r ItemReference) IsTag() bool {
	return strings.HasPrefix(string(r), TagMarker)
}

// IsAlternatives проверяет является ли ссылка списком вариантов
func (r ItemReference) IsAlternatives() bool {
	return strings.Contains(string(r), AlternativesSeparator)
}

// Alternatives возвращает варианты ингредиента; для обычной ссылки это она сама
func (r ItemReference) Alternatives() []ItemReference {
	parts := strings.Split(string(r), AlternativesSeparator)
	refs := make([]ItemReference, 0, len(parts))
	for _, p := range parts {
		refs = append(refs, ItemReference(p))
	}
	return refs
}

// RequirementEntry представляет входной предмет рецепта
type RequirementEntry struct {
	Item  ItemReference `json:"item" validate:"required"`
	Count int           `json:"count" validate:"min=1"`
}

// ResultEntry представляет результат рецепта
type ResultEntry struct {
	Item  ItemReference `json:"item" validate:"required"`
	Count int           `json:"count" validate:"min=1"`
}

// RecipeBody представляет нормализованный рецепт
type RecipeBody struct {
	Requirements []RequirementEntry `json:"requirements" validate:"required,min=1,dive"`
	Result       ResultEntry        `json:"result"`
}

// ExtractedRecipe представляет результат извлечения одного файла рецепта
type ExtractedRecipe struct {
	SourceFile string
	Kind       string
	Outcome    Outcome[RecipeBody]
}

// recipeRecord - форма записи рецепта в артефакте
type recipeRecord struct {
	FromFile     string             `json:"fromFile"`
	Type         string             `json:"type"`
	Ignored      bool               `json:"ignored,omitempty"`
	Error        bool               `json:"error,omitempty"`
	Message      string             `json:"message,omitempty"`
	Data         json.RawMessage    `json:"data,omitempty"`
	Requirements []RequirementEntry `json:"requirements,omitempty"`
	Result       *ResultEntry       `json:"result,omitempty"`
}

// MarshalJSON реализует json.Marshaler
func (r ExtractedRecipe) MarshalJSON() ([]byte, error) {
	rec := recipeRecord{FromFile: r.SourceFile, Type: r.Kind}
	switch r.Outcome.Status {
	case StatusOK:
		result := r.Outcome.Value.Result
		rec.Requirements = r.Outcome.Value.Requirements
		rec.Result = &result
	case StatusIgnored:
		rec.Ignored = true
	case StatusError:
		rec.Error = true
		rec.Message = r.Outcome.Message
		rec.Data = r.Outcome.Payload
	default:
		return nil, fmt.Errorf("recipe %s: unknown outcome status %q", r.SourceFile, r.Outcome.Status)
	}
	return json.Marshal(rec)
}

// UnmarshalJSON реализует json.Unmarshaler
func (r *ExtractedRecipe) UnmarshalJSON(data []byte) error {
	var rec recipeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	r.SourceFile = rec.FromFile
	r.Kind = rec.Type
	switch {
	case rec.Error:
		r.Outcome = Outcome[RecipeBody]{Status: StatusError, Message: rec.Message, Payload: CapturePayload(rec.Data)}
	case rec.Ignored:
		r.Outcome = Ignored[RecipeBody]()
	default:
		if rec.Result == nil {
			return fmt.Errorf("recipe %s: record has neither result, ignored nor error", rec.FromFile)
		}
		r.Outcome = OK(RecipeBody{Requirements: rec.Requirements, Result: *rec.Result})
	}
	return nil
}
