package model

import "strings"

// Intent is the validated form of a user query. It is built once by the
// validator and treated as immutable afterwards.
//
// Nil numeric fields are unset; zero is a meaningful bound.
type Intent struct {
	PriceMin     *float64 `json:"price_min,omitempty"`
	PriceMax     *float64 `json:"price_max,omitempty"`
	RoomsMin     *float64 `json:"rooms_min,omitempty"`
	RoomsMax     *float64 `json:"rooms_max,omitempty"`
	AreaMin      *float64 `json:"area_min,omitempty"`
	PropertyType *string  `json:"property_type,omitempty"`

	// Canonical vocabulary names only
	RequiredFeatures []string `json:"required_features"`
	DesiredFeatures  []string `json:"desired_features"`

	// As delivered upstream, before vocabulary filtering
	RawRequiredFeatures []string `json:"raw_required_features,omitempty"`
	RawDesiredFeatures  []string `json:"raw_desired_features,omitempty"`

	// Raw feature terms the vocabulary could not resolve
	UnknownFeatures []string `json:"unknown_features,omitempty"`

	PreferredZones      []string `json:"preferred_zones"`
	SemanticDescription string   `json:"semantic_description"`
}

// SemanticQuery is the text handed to the embedding call. Feature terms the
// structured stage cannot use still inform semantic retrieval.
func (i *Intent) SemanticQuery() string {
	if len(i.UnknownFeatures) == 0 {
		return i.SemanticDescription
	}
	return strings.TrimSpace(i.SemanticDescription + " " + strings.Join(i.UnknownFeatures, " "))
}

// HasConstraints reports whether any mandatory predicate would be built
func (i *Intent) HasConstraints() bool {
	return i.PriceMin != nil || i.PriceMax != nil ||
		i.RoomsMin != nil || i.RoomsMax != nil || i.AreaMin != nil ||
		i.PropertyType != nil ||
		len(i.RequiredFeatures) > 0 || len(i.PreferredZones) > 0
}
