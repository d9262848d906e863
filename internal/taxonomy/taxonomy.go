// Package taxonomy defines the mapping from release note categories to the
// conventional-commit type tags each category accepts.
//
// A Taxonomy is built once (from defaults or configuration) and passed
// explicitly to the classifier and the aggregator. It is never mutated after
// construction.
package taxonomy

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// FallbackType is the type tag assigned to commits whose subject does not
// follow the conventional-commit shape or uses an unknown tag.
const FallbackType = "other"

// reservedNames are template keys used by the renderer for non-category data.
var reservedNames = []string{"version", "breaking", "sections"}

// Category is a named bucket of type tags.
type Category struct {
	Name  string   `koanf:"name" yaml:"name" json:"name"`
	Types []string `koanf:"types" yaml:"types" json:"types"`
}

// Taxonomy is an ordered, validated set of categories.
type Taxonomy struct {
	categories []Category
	index      map[string]string // type tag -> category name
}

// ValidationError describes why a set of categories is not a valid taxonomy.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Default returns the built-in taxonomy.
func Default() Taxonomy {
	t, err := New(DefaultCategories())
	if err != nil {
		panic(fmt.Sprintf("default taxonomy is invalid: %v", err))
	}
	return t
}

// DefaultCategories returns a fresh copy of the built-in category list.
func DefaultCategories() []Category {
	return []Category{
		{Name: "chore", Types: []string{"chore", "docs", "lint", "perf", "ref", "refactor", "style"}},
		{Name: "ci", Types: []string{"ci", "build"}},
		{Name: "features", Types: []string{"feature", "feat"}},
		{Name: "fixes", Types: []string{"fix"}},
		{Name: "other", Types: []string{"merge", "wip", "test", "update", FallbackType}},
	}
}

// New validates the categories and builds a Taxonomy. Type tags are
// normalized to lowercase before validation.
func New(categories []Category) (Taxonomy, error) {
	if len(categories) == 0 {
		return Taxonomy{}, &ValidationError{Field: "categories", Message: "at least one category is required"}
	}

	t := Taxonomy{
		categories: make([]Category, 0, len(categories)),
		index:      make(map[string]string),
	}
	seenNames := make(map[string]bool, len(categories))

	for i, c := range categories {
		name := strings.TrimSpace(c.Name)
		if err := validateName(name, i, seenNames); err != nil {
			return Taxonomy{}, err
		}
		seenNames[name] = true

		if len(c.Types) == 0 {
			return Taxonomy{}, &ValidationError{
				Field:   fmt.Sprintf("categories[%d].types", i),
				Message: fmt.Sprintf("category %q has no type tags", name),
			}
		}

		types := make([]string, 0, len(c.Types))
		for j, raw := range c.Types {
			tag := strings.ToLower(strings.TrimSpace(raw))
			field := fmt.Sprintf("categories[%d].types[%d]", i, j)
			if err := validateTag(tag, field); err != nil {
				return Taxonomy{}, err
			}
			if owner, ok := t.index[tag]; ok {
				return Taxonomy{}, &ValidationError{
					Field:   field,
					Message: fmt.Sprintf("type %q already belongs to category %q", tag, owner),
				}
			}
			t.index[tag] = name
			types = append(types, tag)
		}

		t.categories = append(t.categories, Category{Name: name, Types: types})
	}

	if _, ok := t.index[FallbackType]; !ok {
		return Taxonomy{}, &ValidationError{
			Field:   "categories",
			Message: fmt.Sprintf("fallback type %q must belong to a category", FallbackType),
		}
	}

	return t, nil
}

func validateName(name string, index int, seen map[string]bool) error {
	field := fmt.Sprintf("categories[%d].name", index)
	if name == "" {
		return &ValidationError{Field: field, Message: "required field is empty"}
	}
	if slices.Contains(reservedNames, name) {
		return &ValidationError{Field: field, Message: fmt.Sprintf("%q is a reserved name", name)}
	}
	if seen[name] {
		return &ValidationError{Field: field, Message: fmt.Sprintf("duplicate category %q", name)}
	}
	return nil
}

func validateTag(tag, field string) error {
	if tag == "" {
		return &ValidationError{Field: field, Message: "type tag cannot be empty"}
	}
	if strings.IndexFunc(tag, unicode.IsSpace) >= 0 {
		return &ValidationError{Field: field, Message: fmt.Sprintf("type tag %q contains whitespace", tag)}
	}
	return nil
}

// Recognizes reports whether tag belongs to any category. Matching is
// case-insensitive.
func (t Taxonomy) Recognizes(tag string) bool {
	_, ok := t.index[strings.ToLower(tag)]
	return ok
}

// CategoryOf returns the name of the category accepting tag.
func (t Taxonomy) CategoryOf(tag string) (string, bool) {
	name, ok := t.index[strings.ToLower(tag)]
	return name, ok
}

// Categories returns a copy of the categories in their configured order.
func (t Taxonomy) Categories() []Category {
	out := make([]Category, len(t.categories))
	for i, c := range t.categories {
		out[i] = Category{Name: c.Name, Types: slices.Clone(c.Types)}
	}
	return out
}

// Names returns the category names in their configured order.
func (t Taxonomy) Names() []string {
	names := make([]string, len(t.categories))
	for i, c := range t.categories {
		names[i] = c.Name
	}
	return names
}

// Tags returns every recognized type tag, grouped by category order.
func (t Taxonomy) Tags() []string {
	var tags []string
	for _, c := range t.categories {
		tags = append(tags, c.Types...)
	}
	return tags
}

// IsZero reports whether the taxonomy was never initialized.
func (t Taxonomy) IsZero() bool {
	return len(t.categories) == 0
}
