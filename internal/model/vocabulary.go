package model

import (
	"sort"

	"hybridsearch/internal/utils"
)

// Vocabulary is the enumerated amenity set known to the structured store.
// Intent validation, predicate building and fusion share one instance.
type Vocabulary struct {
	names []string
	index map[string]string // normalized term or alias -> canonical name
}

// NewVocabulary builds a vocabulary from canonical names and synonym aliases.
// Aliases pointing outside the vocabulary are ignored. When aliases collide
// after normalisation the lexically smallest alias wins.
func NewVocabulary(names []string, aliases map[string]string) *Vocabulary {
	v := &Vocabulary{index: make(map[string]string, len(names)+len(aliases))}

	for _, name := range names {
		canonical := utils.NormalizeTerm(name)
		if canonical == "" {
			continue
		}
		if _, dup := v.index[canonical]; dup {
			continue
		}
		v.names = append(v.names, canonical)
		v.index[canonical] = canonical
	}

	keys := make([]string, 0, len(aliases))
	for alias := range aliases {
		keys = append(keys, alias)
	}
	sort.Strings(keys)

	for _, alias := range keys {
		target := aliases[alias]
		canonical := utils.NormalizeTerm(target)
		if !v.Contains(canonical) {
			continue
		}
		key := utils.NormalizeTerm(alias)
		if _, taken := v.index[key]; taken || key == "" {
			continue
		}
		v.index[key] = canonical
	}

	return v
}

// Canonical resolves a free-form feature term to its vocabulary name
func (v *Vocabulary) Canonical(term string) (string, bool) {
	name, ok := v.index[utils.NormalizeTerm(term)]
	return name, ok
}

// Contains reports whether name is a canonical vocabulary entry
func (v *Vocabulary) Contains(name string) bool {
	canonical, ok := v.index[name]
	return ok && canonical == name
}

// Names returns the canonical names in configuration order
func (v *Vocabulary) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Len returns the number of canonical names
func (v *Vocabulary) Len() int {
	return len(v.names)
}
