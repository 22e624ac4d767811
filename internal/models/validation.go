package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidMetadata indicates that version metadata is incomplete
	ErrInvalidMetadata = errors.New("invalid version metadata")

	// ErrInvalidRecipe indicates that a normalized recipe violates its invariants
	ErrInvalidRecipe = errors.New("invalid recipe")

	// ErrInvalidDrop indicates that a normalized drop violates its invariants
	ErrInvalidDrop = errors.New("invalid drop")
)

// validate is the validator instance
var validate = validator.New()

// ValidateVersionMetadata validates fields read from version.json
func ValidateVersionMetadata(m VersionMetadata) error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidMetadata, describe(err))
	}
	return nil
}

// ValidateRecipeBody checks that a recipe has at least one requirement and that every count is positive
func ValidateRecipeBody(b RecipeBody) error {
	if err := validate.Struct(b); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRecipe, describe(err))
	}
	return nil
}

// ValidateDropEntry checks that a drop names an item and has a non-negative, ordered count range
func ValidateDropEntry(d DropEntry) error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDrop, describe(err))
	}
	return nil
}

// describe flattens validator errors into "field failed 'tag'" pairs
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed '%s'", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
