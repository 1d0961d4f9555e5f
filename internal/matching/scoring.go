// Package matching ranks catalog candidates against a structured sourcing query.
package matching

import (
	"math"
	"strings"

	"github.com/demandos/sourcing-agent/internal/types"
)

// Component weights. The six components sum to 100.
const (
	keywordWeight     = 40.0
	priceWeight       = 25.0
	moqWeight         = 15.0
	specialWeight     = 10.0
	certWeight        = 5.0
	supplierWeight    = 5.0
	underBudgetPoints = 20.0
)

// matchedKeywords returns the query keywords that match any candidate keyword.
// A pair matches when either side is a case-insensitive substring of the other.
func matchedKeywords(query *types.StructuredQuery, candidate *types.Candidate) []string {
	var matched []string
	for _, qk := range query.Keywords {
		qkLower := strings.ToLower(qk)
		for _, ck := range candidate.Keywords {
			ckLower := strings.ToLower(ck)
			if strings.Contains(ckLower, qkLower) || strings.Contains(qkLower, ckLower) {
				matched = append(matched, qk)
				break
			}
		}
	}
	return matched
}

// computeKeywordScore awards up to 40 points for keyword overlap.
// An empty query keyword set contributes nothing rather than full credit.
func computeKeywordScore(query *types.StructuredQuery, candidate *types.Candidate) float64 {
	if len(query.Keywords) == 0 {
		return 0
	}
	matched := matchedKeywords(query, candidate)
	return float64(len(matched)) / float64(len(query.Keywords)) * keywordWeight
}

// computePriceScore awards up to 25 points for price fit. Inside the target
// range the score decays with distance from the range midpoint; below the
// range a flat 20 rewards under-budget candidates. Prices above the range
// never reach scoring (the hard filter removes them).
func computePriceScore(query *types.StructuredQuery, candidate *types.Candidate) float64 {
	pr := query.TargetPrice
	if pr == nil {
		return 0
	}

	min := 0.0
	if pr.Min != nil {
		min = *pr.Min
	}
	if candidate.Price < min {
		return underBudgetPoints
	}

	var mid float64
	switch {
	case pr.Min != nil && pr.Max != nil:
		mid = (min + *pr.Max) / 2
	case pr.Max != nil:
		// Budget-ceiling-only queries measure fit as closeness to the ceiling.
		mid = *pr.Max
	default:
		// Open-ended budget: the candidate's own price anchors the band.
		mid = (min + candidate.Price) / 2
	}
	if mid <= 0 {
		return priceWeight
	}
	deviation := math.Abs(candidate.Price-mid) / mid
	return priceWeight * (1 - math.Min(deviation, 1))
}

// computeMOQScore awards 15/10/5 points depending on how far the candidate's
// MOQ exceeds the buyer's preferred quantity.
func computeMOQScore(query *types.StructuredQuery, candidate *types.Candidate) float64 {
	if query.MOQ == nil {
		return 0
	}
	userMOQ := query.MOQ.Floor()
	switch {
	case candidate.MOQ <= userMOQ:
		return moqWeight
	case candidate.MOQ <= 2*userMOQ:
		return 10
	case candidate.MOQ <= 5*userMOQ:
		return 5
	default:
		return 0
	}
}

// computeSpecialScore awards up to 10 points for satisfied special requirements.
func computeSpecialScore(query *types.StructuredQuery, candidate *types.Candidate) float64 {
	score := 0.0
	if query.RequiresDropshipping() && candidate.SupportsDropshipping {
		score += 5
	}
	if query.RequiresOEM() && candidate.HasTag("OEM Available") {
		score += 5
	}
	return score
}

// matchedCertifications returns the requested certifications the candidate holds.
func matchedCertifications(query *types.StructuredQuery, candidate *types.Candidate) []string {
	var matched []string
	for _, qc := range query.Certifications {
		for _, cc := range candidate.Certifications {
			if qc == cc {
				matched = append(matched, qc)
				break
			}
		}
	}
	return matched
}

// computeCertScore awards up to 5 points for certification coverage.
func computeCertScore(query *types.StructuredQuery, candidate *types.Candidate) float64 {
	if len(query.Certifications) == 0 {
		return 0
	}
	matched := matchedCertifications(query, candidate)
	return float64(len(matched)) / float64(len(query.Certifications)) * certWeight
}

// computeSupplierScore awards up to 5 points proportional to supplier rating.
func computeSupplierScore(candidate *types.Candidate) float64 {
	return candidate.Supplier.Rating / 5 * supplierWeight
}

// Score computes the deterministic 0-100 match score for one candidate.
func Score(query *types.StructuredQuery, candidate *types.Candidate) int {
	total := computeKeywordScore(query, candidate) +
		computePriceScore(query, candidate) +
		computeMOQScore(query, candidate) +
		computeSpecialScore(query, candidate) +
		computeCertScore(query, candidate) +
		computeSupplierScore(candidate)

	score := int(math.Round(total))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}
