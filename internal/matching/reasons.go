package matching

import (
	"fmt"
	"strings"

	"github.com/demandos/sourcing-agent/internal/types"
)

// priceAdvantageRatio marks a price "materially below budget" when it falls
// under this fraction of the declared maximum.
const priceAdvantageRatio = 0.8

// generateReasons produces human-readable match explanations, in a fixed
// order so output is stable for given inputs. Reasons are descriptive only
// and contribute nothing to the score.
func generateReasons(query *types.StructuredQuery, candidate *types.Candidate) []string {
	var reasons []string

	if matched := matchedKeywords(query, candidate); len(matched) > 0 {
		reasons = append(reasons, fmt.Sprintf("Keyword match: %s", strings.Join(matched, ", ")))
	}

	if pr := query.TargetPrice; pr != nil && pr.Max != nil {
		max := *pr.Max
		switch {
		case candidate.Price < max*priceAdvantageRatio:
			reasons = append(reasons, fmt.Sprintf("Significant price advantage ($%.2f vs $%.2f budget)", candidate.Price, max))
		case candidate.Price <= max:
			reasons = append(reasons, fmt.Sprintf("Within budget ($%.2f)", candidate.Price))
		}
	}

	if query.MOQ != nil && candidate.MOQ <= query.MOQ.Floor() {
		reasons = append(reasons, fmt.Sprintf("MOQ meets requirement (MOQ: %d)", candidate.MOQ))
	}

	if query.RequiresDropshipping() && candidate.SupportsDropshipping {
		reasons = append(reasons, "Supports dropshipping")
	}

	if candidate.Supplier.Rating >= 4.7 {
		reasons = append(reasons, fmt.Sprintf("Top-rated supplier (%.1f/5)", candidate.Supplier.Rating))
	}

	if len(candidate.Certifications) > 0 {
		reasons = append(reasons, fmt.Sprintf("Certified: %s", strings.Join(candidate.Certifications, ", ")))
	}

	return reasons
}
