package types

import "time"

// SourcingStatus tracks a manual sourcing ticket through its lifecycle.
type SourcingStatus string

const (
	SourcingPending    SourcingStatus = "pending"
	SourcingProcessing SourcingStatus = "processing"
	SourcingQuoted     SourcingStatus = "quoted"
	SourcingClosed     SourcingStatus = "closed"
	SourcingFailed     SourcingStatus = "failed"
)

// Valid reports whether s is one of the known ticket statuses.
func (s SourcingStatus) Valid() bool {
	switch s {
	case SourcingPending, SourcingProcessing, SourcingQuoted, SourcingClosed, SourcingFailed:
		return true
	}
	return false
}

// SourcingRequest is the escalation ticket created when automated matching
// finds nothing acceptable and a human buyer takes over.
type SourcingRequest struct {
	ID                    string          `json:"id"`
	UserID                string          `json:"user_id,omitempty"`
	OriginalQuery         string          `json:"original_query"`
	ParsedRequirements    StructuredQuery `json:"parsed_requirements"`
	Status                SourcingStatus  `json:"status"`
	Priority              string          `json:"priority"`
	EstimatedResponseTime int             `json:"estimated_response_time,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// TrendProfile summarizes demand signals for a product detected from a
// social/commerce page.
type TrendProfile struct {
	ProductName string   `json:"product_name"`
	Category    string   `json:"category"`
	Views       int64    `json:"views,omitempty"`
	Likes       int64    `json:"likes,omitempty"`
	TrendScore  int      `json:"trend_score"`
	Lifecycle   string   `json:"lifecycle"`
	KeyFeatures []string `json:"key_features,omitempty"`
}

// PricingTier is one commercial offer band derived for a product.
type PricingTier struct {
	Price float64 `json:"price"`
	MOQ   int     `json:"moq"`
}

// PricingTiers groups the three standard offer bands.
type PricingTiers struct {
	Dropshipping PricingTier `json:"dropshipping"`
	Wholesale    PricingTier `json:"wholesale"`
	Exclusive    PricingTier `json:"exclusive"`
}

// ROIPrediction estimates the commercial outcome of pursuing an opportunity.
type ROIPrediction struct {
	EstimatedRevenue float64 `json:"estimated_revenue"`
	EstimatedProfit  float64 `json:"estimated_profit"`
	ProfitMargin     float64 `json:"profit_margin"`
	PaybackDays      int     `json:"payback_days"`
	RiskLevel        string  `json:"risk_level"`
}

// OpportunityReport is the aggregate output of a viral-tracker run.
type OpportunityReport struct {
	OpportunityID string        `json:"opportunity_id"`
	Trend         TrendProfile  `json:"trend"`
	Matches       []MatchResult `json:"matches"`
	Pricing       PricingTiers  `json:"pricing"`
	ROI           ROIPrediction `json:"roi"`
	GeneratedAt   time.Time     `json:"generated_at"`
}
