package service

import "hybridsearch/internal/model"

// DefaultPresentationSize is how many results the front end shows
const DefaultPresentationSize = 10

// Assemble truncates the fused ranking and projects each entry for
// presentation. Nothing is recomputed.
func Assemble(fused []model.FusedResult, size int) []model.PresentedResult {
	if size <= 0 {
		size = DefaultPresentationSize
	}
	if len(fused) < size {
		size = len(fused)
	}

	out := make([]model.PresentedResult, size)
	for i, r := range fused[:size] {
		features := make([]string, len(r.Features))
		copy(features, r.Features)
		reasons := make([]string, len(r.MatchedReasons))
		copy(reasons, r.MatchedReasons)

		out[i] = model.PresentedResult{
			ID:             r.ID,
			Price:          r.Price,
			Rooms:          r.Rooms,
			Area:           r.Area,
			Type:           r.Type,
			Zone:           r.Zone,
			Features:       features,
			URL:            r.URL,
			Score:          r.Score,
			MatchedReasons: reasons,
		}
	}
	return out
}
