package hotels

import "sort"

// TakeHighestPriced sorts candidates by nightly price descending and keeps
// the first limit entries. The relative order of equal prices is unspecified.
func TakeHighestPriced(cands []Candidate, limit int) []Candidate {
	out := append([]Candidate(nil), cands...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].NightlyPrice > out[j].NightlyPrice
	})
	return truncate(out, limit)
}

// TakeBestDeals keeps candidates strictly closer than distanceKM, sorts them
// by nightly price then distance ascending, and keeps the first limit
// entries. The cutoff is exclusive: a candidate at exactly distanceKM is
// dropped.
func TakeBestDeals(cands []Candidate, distanceKM float64, limit int) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.DistanceKM < distanceKM {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NightlyPrice != out[j].NightlyPrice {
			return out[i].NightlyPrice < out[j].NightlyPrice
		}
		return out[i].DistanceKM < out[j].DistanceKM
	})
	return truncate(out, limit)
}

func truncate(cands []Candidate, limit int) []Candidate {
	if limit >= 0 && len(cands) > limit {
		return cands[:limit]
	}
	return cands
}
