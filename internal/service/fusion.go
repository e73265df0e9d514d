package service

import (
	"sort"
	"strings"

	"hybridsearch/internal/model"
	"hybridsearch/internal/utils"
)

// Match reason constants
const (
	ReasonSemanticMatch   = "Semantic match"
	ReasonSemanticHint    = "Suggested by semantic search"
	ReasonRequiredMatch   = "All required features"
	ReasonDesiredMatch    = "Desired features"
	ReasonLocationMatch   = "Location match"
	ReasonPriceMatch      = "Price within budget"
	ReasonTagPrefix       = "Tag: "
	ReasonStructuredMatch = "Structured match"
)

// FusionWeights are policy constants. Keep them stable across a deployment;
// scores are only comparable under the same weights.
type FusionWeights struct {
	Semantic            float64 // per similarity point
	SemanticMissPenalty float64 // subtracted when the semantic pass missed the property
	Structural          float64 // per structural bonus point
	Features            float64 // full required-feature match
	Desired             float64 // full desired-feature match
	TagBonus            float64 // per corroborated subjective tag
	PricePenalty        float64 // at price == price_max
}

// DefaultFusionWeights returns the production weights
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{
		Semantic:            0.4,
		SemanticMissPenalty: 10,
		Structural:          0.2,
		Features:            20,
		Desired:             10,
		TagBonus:            15,
		PricePenalty:        5,
	}
}

// TagRule links a subjective quality in the description to the descriptive
// attribute that can corroborate it.
type TagRule struct {
	Tag          string
	Keywords     []string
	Corroborates func(p *model.Property) bool
}

// DefaultTagRules covers luminosity, orientation, floor and renovation state
func DefaultTagRules() []TagRule {
	return []TagRule{
		{
			Tag:      "luminoso",
			Keywords: []string{"luminoso", "luminosa", "luminosos", "bright", "luminous"},
			Corroborates: func(p *model.Property) bool {
				return attrContains(p.Luminosity, "luminos", "bright")
			},
		},
		{
			Tag:      "exterior",
			Keywords: []string{"exterior", "outward facing", "outward"},
			Corroborates: func(p *model.Property) bool {
				return normAttr(p.Orientation) == "exterior"
			},
		},
		{
			Tag:      "planta baja",
			Keywords: []string{"planta baja", "ground floor"},
			Corroborates: func(p *model.Property) bool {
				return attrContains(p.Floor, "bajo", "ground")
			},
		},
		{
			Tag:      "reformado",
			Keywords: []string{"reformado", "reformada", "renovado", "renovated", "refurbished"},
			Corroborates: func(p *model.Property) bool {
				return attrContains(p.RenovationState, "reformado", "reformada", "renovated")
			},
		},
	}
}

func normAttr(s string) string {
	return strings.ToLower(utils.FoldAccents(strings.TrimSpace(s)))
}

func attrContains(attr string, needles ...string) bool {
	a := normAttr(attr)
	if a == "" {
		return false
	}
	for _, n := range needles {
		if strings.Contains(a, n) {
			return true
		}
	}
	return false
}

// Fuser merges semantic and structured signals into one ranking
type Fuser struct {
	weights FusionWeights
	tags    []TagRule
}

// NewFuser creates a new fuser with specified weights
func NewFuser(weights FusionWeights, tags []TagRule) *Fuser {
	return &Fuser{weights: weights, tags: tags}
}

// Weights returns the configured weights
func (f *Fuser) Weights() FusionWeights {
	return f.weights
}

// Fuse scores every structured row and sorts by score desc, then price asc.
// Equal keys keep the structured order. Nothing is excluded and the output is
// a pure function of the inputs.
func (f *Fuser) Fuse(
	semantic []model.SemanticCandidate,
	structured []model.CandidateProperty,
	intent *model.Intent,
) []model.FusedResult {
	similarity := make(map[string]float64, len(semantic))
	for _, c := range semantic {
		if prev, ok := similarity[c.PropertyID]; !ok || c.Similarity > prev {
			similarity[c.PropertyID] = c.Similarity
		}
	}

	var activeTags []TagRule
	for _, rule := range f.tags {
		if utils.FuzzyMatchKeyword(intent.SemanticDescription, rule.Keywords...) {
			activeTags = append(activeTags, rule)
		}
	}

	results := make([]model.FusedResult, 0, len(structured))
	for _, row := range structured {
		var c model.Contributions

		if sim, ok := similarity[row.ID]; ok {
			c.SemanticHit = true
			c.Semantic = sim * f.weights.Semantic
		} else {
			c.Semantic = -f.weights.SemanticMissPenalty
		}

		c.Structural = row.StructuralBonus * f.weights.Structural

		required := matchedCount(&row.Property, intent.RequiredFeatures)
		if len(intent.RequiredFeatures) > 0 {
			c.Features = float64(required) / float64(len(intent.RequiredFeatures)) * f.weights.Features
		}

		desired := matchedCount(&row.Property, intent.DesiredFeatures)
		if len(intent.DesiredFeatures) > 0 {
			c.Desired = float64(desired) / float64(len(intent.DesiredFeatures)) * f.weights.Desired
		}

		for _, rule := range activeTags {
			if rule.Corroborates(&row.Property) {
				c.Tags += f.weights.TagBonus
				c.MatchedTags = append(c.MatchedTags, rule.Tag)
			}
		}

		if intent.PriceMax != nil && *intent.PriceMax > 0 && row.Price != nil {
			c.PricePenalty = *row.Price / *intent.PriceMax * f.weights.PricePenalty
		}

		results = append(results, model.FusedResult{
			Property:        row.Property,
			Score:           c.Total(),
			StructuralBonus: row.StructuralBonus,
			Contributions:   c,
			MatchedReasons:  matchedReasons(&row, intent, c, required, desired),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return model.ComparePrice(results[i].Price, results[j].Price) < 0
	})

	return results
}

func matchedCount(p *model.Property, features []string) int {
	n := 0
	for _, f := range features {
		if p.HasFeature(f) {
			n++
		}
	}
	return n
}

// matchedReasons generates human-readable reasons for why this property ranked
func matchedReasons(row *model.CandidateProperty, intent *model.Intent, c model.Contributions, required, desired int) []string {
	reasons := []string{}

	if c.SemanticHit {
		reasons = append(reasons, ReasonSemanticMatch)
	} else if row.StructuralBonus > 0 {
		reasons = append(reasons, ReasonSemanticHint)
	}

	if n := len(intent.RequiredFeatures); n > 0 && required == n {
		reasons = append(reasons, ReasonRequiredMatch)
	}
	if desired > 0 {
		reasons = append(reasons, ReasonDesiredMatch)
	}
	if len(intent.PreferredZones) > 0 && row.Zone != "" {
		reasons = append(reasons, ReasonLocationMatch)
	}
	for _, tag := range c.MatchedTags {
		reasons = append(reasons, ReasonTagPrefix+tag)
	}
	if intent.PriceMax != nil && row.Price != nil && *row.Price <= *intent.PriceMax {
		reasons = append(reasons, ReasonPriceMatch)
	}

	if len(reasons) == 0 {
		reasons = append(reasons, ReasonStructuredMatch)
	}
	return reasons
}
