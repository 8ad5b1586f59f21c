package service

import (
	"regexp"
	"strings"

	"github.com/pageza/fridge2fork/backend/internal/types"
)

// NormalizeIngredients lowercases and trims each name, collapses inner
// whitespace and drops empties and duplicates. First occurrence order is kept.
func NormalizeIngredients(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		name := normalizeName(item)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// normalizeName lowercases s and collapses all whitespace runs to one space
func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// placeholder allergy values sent by the frontend when nothing is declared
var ignoredAllergies = map[string]bool{
	"none":         true,
	"other":        true,
	"no allergies": true,
}

// allergenMatcher reports recipes that name a declared allergen
type allergenMatcher struct {
	allergens []allergenPattern
}

type allergenPattern struct {
	name string
	re   *regexp.Regexp
}

// Word boundaries that also hold next to non-ASCII letters and punctuation
const (
	wordStart = `(?:^|[^\p{L}\p{N}])`
	wordEnd   = `(?:[^\p{L}\p{N}]|$)`
)

func newAllergenMatcher(allergies []string) *allergenMatcher {
	m := &allergenMatcher{}
	for _, a := range NormalizeIngredients(allergies) {
		if ignoredAllergies[a] {
			continue
		}
		stem := strings.TrimSuffix(a, "s")
		if stem == "" {
			stem = a
		}
		m.allergens = append(m.allergens, allergenPattern{
			name: a,
			re:   regexp.MustCompile(wordStart + regexp.QuoteMeta(stem) + `s?` + wordEnd),
		})
	}
	return m
}

// match returns the first allergen named by r's ingredients, or ""
func (m *allergenMatcher) match(r types.Recipe) string {
	if len(m.allergens) == 0 {
		return ""
	}
	for _, ingredient := range r.Ingredients {
		name := normalizeName(ingredient)
		for _, a := range m.allergens {
			if name == a.name || a.re.MatchString(name) {
				return a.name
			}
		}
	}
	return ""
}
