package matching

import (
	"fmt"
	"sort"

	"github.com/demandos/sourcing-agent/internal/types"
)

// MinScore is the post-filter threshold; weaker matches are dropped.
const MinScore = 50

// Search filters the catalog by the query's hard constraints, scores the
// survivors, and returns results sorted by descending score. Ties keep
// catalog order. Empty catalogs and empty queries yield an empty slice.
func Search(query *types.StructuredQuery, catalog []types.Candidate) ([]types.MatchResult, error) {
	if query == nil {
		return nil, fmt.Errorf("query is required")
	}
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	results := make([]types.MatchResult, 0, len(catalog))
	for i := range catalog {
		candidate := &catalog[i]
		if !passesHardFilter(query, candidate) {
			continue
		}

		score := Score(query, candidate)
		if score < MinScore {
			continue
		}

		results = append(results, types.MatchResult{
			CandidateID:          candidate.ID,
			Name:                 candidate.Name,
			Category:             candidate.Category,
			Price:                candidate.Price,
			MOQ:                  candidate.MOQ,
			Supplier:             candidate.Supplier,
			Score:                score,
			Reasons:              generateReasons(query, candidate),
			SupportsDropshipping: candidate.SupportsDropshipping,
			Certifications:       candidate.Certifications,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

// passesHardFilter applies the constraints that exclude a candidate outright.
func passesHardFilter(query *types.StructuredQuery, candidate *types.Candidate) bool {
	if query.Category != "" && candidate.Category != query.Category {
		return false
	}

	if pr := query.TargetPrice; pr != nil {
		if pr.Min != nil && candidate.Price < *pr.Min {
			return false
		}
		if pr.Max != nil && candidate.Price > *pr.Max {
			return false
		}
	}

	if ceiling := query.MOQ.Ceiling(); ceiling != nil && candidate.MOQ > *ceiling {
		return false
	}

	if query.RequiresDropshipping() && !candidate.SupportsDropshipping {
		return false
	}

	return true
}
