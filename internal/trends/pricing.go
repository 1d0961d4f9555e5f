package trends

import "github.com/demandos/sourcing-agent/internal/types"

// Baseline commercial terms for a trending consumer product. Tier prices and
// MOQs follow the standard dropshipping/wholesale/exclusive ladder.
const (
	dropshippingPrice = 8.5
	wholesalePrice    = 3.2
	exclusivePrice    = 2.85

	dropshippingMOQ = 1
	wholesaleMOQ    = 500
	exclusiveMOQ    = 5000

	baseRevenue  = 125000.0
	profitMargin = 58.4
	basePayback  = 14

	// Reference score at which the baseline revenue applies
	referenceScore = 95.0
)

// CalculatePricing derives pricing tiers and an ROI prediction from a trend
// profile. The rules are deterministic: revenue scales with trend score, and
// risk rises as the score drops.
func CalculatePricing(profile *types.TrendProfile) (types.PricingTiers, types.ROIPrediction) {
	tiers := types.PricingTiers{
		Dropshipping: types.PricingTier{Price: dropshippingPrice, MOQ: dropshippingMOQ},
		Wholesale:    types.PricingTier{Price: wholesalePrice, MOQ: wholesaleMOQ},
		Exclusive:    types.PricingTier{Price: exclusivePrice, MOQ: exclusiveMOQ},
	}

	score := 0
	if profile != nil {
		score = profile.TrendScore
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	revenue := baseRevenue * float64(score) / referenceScore
	profit := revenue * profitMargin / 100

	roi := types.ROIPrediction{
		EstimatedRevenue: revenue,
		EstimatedProfit:  profit,
		ProfitMargin:     profitMargin,
		RiskLevel:        riskLevel(score),
	}

	switch roi.RiskLevel {
	case "low":
		roi.PaybackDays = basePayback
	case "medium":
		roi.PaybackDays = basePayback + 7
	default:
		roi.PaybackDays = basePayback + 14
	}

	return tiers, roi
}

func riskLevel(score int) string {
	switch {
	case score >= 75:
		return "low"
	case score >= 50:
		return "medium"
	default:
		return "high"
	}
}
