package model

import "strings"

// Range is an inclusive numeric bound; nil ends are open
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// IsSet reports whether either end is bounded
func (r Range) IsSet() bool {
	return r.Min != nil || r.Max != nil
}

// Contains reports whether v satisfies the range. An unknown value never
// satisfies a set range.
func (r Range) Contains(v *float64) bool {
	if !r.IsSet() {
		return true
	}
	if v == nil {
		return false
	}
	if r.Min != nil && *v < *r.Min {
		return false
	}
	if r.Max != nil && *v > *r.Max {
		return false
	}
	return true
}

// Predicate is the conjunction of mandatory constraints built from an intent.
// Every store backend must return exactly the properties Matches accepts.
type Predicate struct {
	Price            Range    `json:"price"`
	Rooms            Range    `json:"rooms"`
	Area             Range    `json:"area"`
	TypeEquals       string   `json:"type_equals,omitempty"`
	RequiredFeatures []string `json:"required_features,omitempty"`
	Zones            []string `json:"zones,omitempty"`
}

// IsEmpty reports whether the predicate accepts every property
func (p Predicate) IsEmpty() bool {
	return !p.Price.IsSet() && !p.Rooms.IsSet() && !p.Area.IsSet() &&
		p.TypeEquals == "" && len(p.RequiredFeatures) == 0 && len(p.Zones) == 0
}

// Matches evaluates the predicate against a property. Type equality and zone
// containment are case-insensitive.
func (p Predicate) Matches(prop *Property) bool {
	if !p.Price.Contains(prop.Price) || !p.Rooms.Contains(prop.Rooms) || !p.Area.Contains(prop.Area) {
		return false
	}

	if p.TypeEquals != "" && !strings.EqualFold(strings.TrimSpace(prop.Type), strings.TrimSpace(p.TypeEquals)) {
		return false
	}

	for _, f := range p.RequiredFeatures {
		if !prop.HasFeature(f) {
			return false
		}
	}

	if len(p.Zones) > 0 {
		if prop.Zone == "" {
			return false
		}
		zone := strings.ToLower(prop.Zone)
		matched := false
		for _, z := range p.Zones {
			if strings.Contains(zone, strings.ToLower(z)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

// FindQuery is what a property store receives. HintIDs are a soft hint: rows
// whose ID is hinted get Bonus as StructuralBonus, the rest get 0, and the
// result set is never reduced by them. A non-nil OnlyIDs restricts the
// result to those IDs, still subject to Predicate.
type FindQuery struct {
	Predicate Predicate
	HintIDs   []string
	Bonus     float64
	Limit     int
	OnlyIDs   []string
}
