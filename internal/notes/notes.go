// Package notes aggregates classified commits into a categorized release
// note.
package notes

import (
	"github.com/ariel-frischer/relnotes/internal/commit"
	"github.com/ariel-frischer/relnotes/internal/taxonomy"
)

// Item is a single release note entry.
type Item struct {
	Scope   string `json:"scope" yaml:"scope"`
	Subject string `json:"subject" yaml:"subject"`
	Body    string `json:"body" yaml:"body"`
}

// Section holds the items of one category. Items is nil when no commit
// matched the category.
type Section struct {
	Name  string `json:"name" yaml:"name"`
	Items []Item `json:"items" yaml:"items"`
}

// ReleaseNote is the aggregated, render-ready structure. Sections follow the
// taxonomy order and every category is present; empty categories and an
// empty breaking list are nil.
type ReleaseNote struct {
	Version  string    `json:"version" yaml:"version"`
	Sections []Section `json:"sections" yaml:"sections"`
	Breaking []Item    `json:"breaking" yaml:"breaking"`
}

// Aggregate buckets commits into the categories of tax and collects the
// breaking changes across all categories. A type tax does not know lands in
// the category of taxonomy.FallbackType. Input order is preserved within
// every list; a breaking commit appears both in its category and in the
// breaking list.
func Aggregate(commits []commit.Classified, tax taxonomy.Taxonomy) ReleaseNote {
	if tax.IsZero() {
		tax = taxonomy.Default()
	}

	names := tax.Names()
	position := make(map[string]int, len(names))
	sections := make([]Section, len(names))
	for i, name := range names {
		position[name] = i
		sections[i] = Section{Name: name}
	}

	// taxonomy.New guarantees exactly one category owns the fallback type.
	fallback, _ := tax.CategoryOf(taxonomy.FallbackType)

	var breaking []Item
	for _, c := range commits {
		item := Item{Scope: c.Scope, Subject: c.Subject, Body: c.Body}

		name, ok := tax.CategoryOf(c.Type)
		if !ok {
			name = fallback
		}
		i := position[name]
		sections[i].Items = append(sections[i].Items, item)
		if c.Breaking {
			breaking = append(breaking, item)
		}
	}

	return ReleaseNote{
		Sections: sections,
		Breaking: breaking,
	}
}

// Section returns the items of the named category, or nil if the category
// is empty or unknown.
func (n ReleaseNote) Section(name string) []Item {
	for _, s := range n.Sections {
		if s.Name == name {
			return s.Items
		}
	}
	return nil
}

// Has reports whether the named category has at least one item.
func (n ReleaseNote) Has(name string) bool {
	return len(n.Section(name)) > 0
}

// HasBreaking reports whether any breaking change was found.
func (n ReleaseNote) HasBreaking() bool {
	return len(n.Breaking) > 0
}

// Count returns the number of items across all categories. Breaking items
// are not counted twice.
func (n ReleaseNote) Count() int {
	total := 0
	for _, s := range n.Sections {
		total += len(s.Items)
	}
	return total
}

// IsEmpty returns true if no category has items.
func (n ReleaseNote) IsEmpty() bool {
	return n.Count() == 0
}

// TemplateData exposes the note to templates: one key per category (nil
// when empty), plus "breaking", "version" and the ordered "sections".
func (n ReleaseNote) TemplateData() map[string]any {
	data := make(map[string]any, len(n.Sections)+3)
	for _, s := range n.Sections {
		if len(s.Items) == 0 {
			data[s.Name] = nil
			continue
		}
		data[s.Name] = s.Items
	}

	if len(n.Breaking) == 0 {
		data["breaking"] = nil
	} else {
		data["breaking"] = n.Breaking
	}
	data["version"] = n.Version
	data["sections"] = n.Sections

	return data
}
