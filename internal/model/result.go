package model

// Contributions breaks a fusion score into its terms
type Contributions struct {
	Semantic     float64  `json:"semantic"`
	Structural   float64  `json:"structural"`
	Features     float64  `json:"features"`
	Desired      float64  `json:"desired"`
	Tags         float64  `json:"tags"`
	PricePenalty float64  `json:"price_penalty"`
	MatchedTags  []string `json:"matched_tags,omitempty"`
	SemanticHit  bool     `json:"semantic_hit"`
}

// Total is the fused score
func (c Contributions) Total() float64 {
	return c.Semantic + c.Structural + c.Features + c.Desired + c.Tags - c.PricePenalty
}

// FusedResult is created once by fusion and never mutated
type FusedResult struct {
	Property
	Score           float64       `json:"score"`
	StructuralBonus float64       `json:"structural_bonus"`
	Contributions   Contributions `json:"contributions"`
	MatchedReasons  []string      `json:"matched_reasons"`
}

// PresentedResult is the projection handed to presentation collaborators
type PresentedResult struct {
	ID             string   `json:"id"`
	Price          *float64 `json:"price,omitempty"`
	Rooms          *float64 `json:"rooms,omitempty"`
	Area           *float64 `json:"area,omitempty"`
	Type           string   `json:"type,omitempty"`
	Zone           string   `json:"zone,omitempty"`
	Features       []string `json:"features"`
	URL            string   `json:"url,omitempty"`
	Score          float64  `json:"score"`
	MatchedReasons []string `json:"matched_reasons,omitempty"`
}
