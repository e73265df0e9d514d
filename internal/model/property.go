package model

import "sort"

// Property is a read-only record owned by the structured store
type Property struct {
	ID              string   `json:"id"`
	Price           *float64 `json:"price,omitempty"`
	Rooms           *float64 `json:"rooms,omitempty"`
	Area            *float64 `json:"area,omitempty"`
	Type            string   `json:"type,omitempty"`
	URL             string   `json:"url,omitempty"`
	Zone            string   `json:"zone,omitempty"`
	Features        []string `json:"features"`
	Floor           string   `json:"floor,omitempty"`
	Luminosity      string   `json:"luminosity,omitempty"`
	Orientation     string   `json:"orientation,omitempty"`
	RenovationState string   `json:"renovation_state,omitempty"`
}

// HasFeature reports whether the property carries the named amenity
func (p *Property) HasFeature(name string) bool {
	for _, f := range p.Features {
		if f == name {
			return true
		}
	}
	return false
}

// CandidateProperty is a structured-stage row. StructuralBonus is non-zero
// when the semantic pass also suggested the property.
type CandidateProperty struct {
	Property
	StructuralBonus float64 `json:"structural_bonus"`
}

// SemanticCandidate is a vector-index hit, recomputed per query.
// Similarity is in [0,100].
type SemanticCandidate struct {
	PropertyID string  `json:"property_id"`
	Similarity float64 `json:"similarity"`
}

// VectorMatch is a raw vector-index record
type VectorMatch struct {
	ID       string   `json:"id"`
	Distance float64  `json:"distance"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// SortCandidates applies the structured-stage pre-sort in place: bonus desc,
// price asc with unknown prices last, then ID asc.
func SortCandidates(rows []CandidateProperty) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.StructuralBonus != b.StructuralBonus {
			return a.StructuralBonus > b.StructuralBonus
		}
		if c := ComparePrice(a.Price, b.Price); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}

// ComparePrice orders known prices ascending before unknown ones
func ComparePrice(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}
