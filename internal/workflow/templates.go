package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/demandos/sourcing-agent/internal/intent"
	"github.com/demandos/sourcing-agent/internal/llm"
	"github.com/demandos/sourcing-agent/internal/trends"
	"github.com/demandos/sourcing-agent/internal/types"
)

// Agent is a registered workflow template: a routing identity plus a plan
// factory producing fresh step definitions per task.
type Agent struct {
	ID          string
	Name        string
	Description string
	Triggers    []string
	Plan        func() []StepDef
}

// Registry holds the available agents in registration order.
type Registry struct {
	order     []string
	agents    map[string]*Agent
	defaultID string
}

// NewRegistry creates an empty registry. defaultID is the agent used when
// routing finds no match.
func NewRegistry(defaultID string) *Registry {
	return &Registry{
		agents:    make(map[string]*Agent),
		defaultID: defaultID,
	}
}

// Register adds an agent. Later registrations with the same ID replace
// earlier ones.
func (r *Registry) Register(a *Agent) {
	if _, exists := r.agents[a.ID]; !exists {
		r.order = append(r.order, a.ID)
	}
	r.agents[a.ID] = a
}

// Get returns the agent with the given ID, or nil.
func (r *Registry) Get(id string) *Agent {
	return r.agents[id]
}

// DefaultID returns the fallback agent ID for routing.
func (r *Registry) DefaultID() string {
	return r.defaultID
}

// Routes exposes the registry to the intent router.
func (r *Registry) Routes() []intent.Route {
	routes := make([]intent.Route, 0, len(r.order))
	for _, id := range r.order {
		a := r.agents[id]
		routes = append(routes, intent.Route{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Triggers:    a.Triggers,
		})
	}
	return routes
}

// AgentViralTracker follows a trending product from demand signal to
// opportunity report. AgentFactoryODM walks a factory owner through a
// contract-manufacturing application.
const (
	AgentViralTracker = "viral-tracker"
	AgentFactoryODM   = "factory-odm"
)

// BuiltinRegistry returns the standard agent set with viral-tracker as the
// routing default.
func BuiltinRegistry() *Registry {
	r := NewRegistry(AgentViralTracker)
	r.Register(viralTrackerAgent())
	r.Register(factoryODMAgent())
	return r
}

var urlRe = regexp.MustCompile(`https?://\S+`)

func viralTrackerAgent() *Agent {
	return &Agent{
		ID:          AgentViralTracker,
		Name:        "Viral Product Tracker",
		Description: "Analyzes a trending product, matches suppliers, and projects pricing and ROI.",
		Triggers:    []string{"trend", "viral", "tiktok", "trending"},
		Plan: func() []StepDef {
			return []StepDef{
				{
					ID:          "trend_analysis",
					Name:        "Trend Analysis",
					Description: "Detect the product and score its demand trend",
					Icon:        "📈",
					Kind:        types.StepSystemAction,
					Action:      runTrendAnalysis,
					// A dead page or LLM outage should not kill the run
					FallbackToRules: true,
					Fallback:        trendAnalysisFallback,
				},
				{
					ID:          "supplier_matching",
					Name:        "Supplier Matching",
					Description: "Rank catalog candidates against the request",
					Icon:        "🏭",
					Kind:        types.StepSystemAction,
					Action:      runSupplierMatching,
				},
				{
					ID:          "pricing_roi",
					Name:        "Pricing & ROI",
					Description: "Derive offer tiers and a return prediction",
					Icon:        "💰",
					Kind:        types.StepSystemAction,
					Action:      runPricingROI,
				},
				{
					ID:              "report",
					Name:            "Opportunity Report",
					Description:     "Assemble the final opportunity report",
					Icon:            "📄",
					Kind:            types.StepSystemAction,
					Action:          runReport,
					FallbackToRules: true,
					Fallback:        reportFallback,
				},
			}
		},
	}
}

func runTrendAnalysis(ctx context.Context, sc *StepContext) (any, error) {
	if sc.Deps.Analyzer == nil {
		return nil, fmt.Errorf("trend analyzer not configured")
	}

	var profile *types.TrendProfile
	if url := firstURL(sc); url != "" {
		sc.Logf("Fetching page: %s", url)
		p, err := sc.Deps.Analyzer.AnalyzeURL(ctx, url)
		if err != nil {
			return nil, err
		}
		profile = p
	} else {
		profile = sc.Deps.Analyzer.AnalyzeText(ctx, sc.Prompt)
	}

	sc.Logf("Detected product: %s", profile.ProductName)
	if profile.Views > 0 {
		sc.Logf("Engagement metrics: %d views, %d likes", profile.Views, profile.Likes)
	}
	sc.Logf("Trend score: %d/100", profile.TrendScore)
	sc.Logf("Lifecycle stage: %s", strings.ToUpper(profile.Lifecycle))

	return profile, nil
}

func trendAnalysisFallback(_ context.Context, sc *StepContext) (any, error) {
	profile := trends.HeuristicProfile(sc.Prompt)
	sc.Logf("Detected product: %s", profile.ProductName)
	sc.Logf("Trend score: %d/100", profile.TrendScore)
	return profile, nil
}

func runSupplierMatching(ctx context.Context, sc *StepContext) (any, error) {
	if sc.Deps.Searcher == nil {
		return nil, fmt.Errorf("searcher not configured")
	}

	query := sc.parseQuery(ctx)
	if profile, ok := sc.Results["trend_analysis"].(*types.TrendProfile); ok {
		enrichQueryFromTrend(query, profile)
	}
	sc.Logf("Searching catalog for: %s", strings.Join(query.Keywords, ", "))

	matches, request, err := sc.Deps.Searcher.SearchOrEscalate(ctx, query)
	if err != nil {
		return nil, err
	}

	result := map[string]any{"matches": matches}
	if request != nil {
		sc.Logf("No qualified match; opened sourcing request %s", request.ID)
		result["sourcing_request"] = request
		return result, nil
	}

	sc.Logf("Found %d qualified matches", len(matches))
	top := matches[0]
	sc.Logf("Top match: %s (%d%% match)", top.Name, top.Score)
	sc.Logf("Match reasons: %s", strings.Join(top.Reasons, ", "))

	return result, nil
}

func runPricingROI(_ context.Context, sc *StepContext) (any, error) {
	profile, ok := sc.Results["trend_analysis"].(*types.TrendProfile)
	if !ok {
		return nil, fmt.Errorf("trend profile missing from results")
	}

	tiers, roi := trends.CalculatePricing(profile)

	sc.Logf("Dropshipping: $%.2f/unit (MOQ: %d)", tiers.Dropshipping.Price, tiers.Dropshipping.MOQ)
	sc.Logf("Wholesale: $%.2f/unit (MOQ: %d)", tiers.Wholesale.Price, tiers.Wholesale.MOQ)
	sc.Logf("Exclusive: $%.2f/unit (MOQ: %d)", tiers.Exclusive.Price, tiers.Exclusive.MOQ)
	sc.Logf("Projected ROI: %.1f%% profit margin", roi.ProfitMargin)
	sc.Logf("Payback period: %d days", roi.PaybackDays)

	return map[string]any{"pricing": tiers, "roi": roi}, nil
}

func runReport(ctx context.Context, sc *StepContext) (any, error) {
	report, err := assembleReport(sc)
	if err != nil {
		return nil, err
	}

	if sc.Deps.LLM == nil {
		return nil, fmt.Errorf("LLM not configured for report drafting")
	}

	prompt := fmt.Sprintf(
		"Write a three-sentence executive summary for a sourcing opportunity.\nProduct: %s\nTrend score: %d/100 (%s)\nQualified suppliers: %d\nProjected revenue: $%.0f at %.1f%% margin\nRisk: %s",
		report.Trend.ProductName, report.Trend.TrendScore, report.Trend.Lifecycle,
		len(report.Matches), report.ROI.EstimatedRevenue, report.ROI.ProfitMargin, report.ROI.RiskLevel,
	)
	summary, err := sc.Deps.LLM.GenerateContent(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return nil, fmt.Errorf("failed to draft summary: %w", err)
	}

	sc.Logf("Report ready: %s", report.OpportunityID)
	return map[string]any{"report": report, "summary": strings.TrimSpace(summary)}, nil
}

func reportFallback(_ context.Context, sc *StepContext) (any, error) {
	report, err := assembleReport(sc)
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf(
		"%s is in the %s stage with a trend score of %d/100. %d suppliers qualified; projected revenue $%.0f at %.1f%% margin (%s risk).",
		report.Trend.ProductName, report.Trend.Lifecycle, report.Trend.TrendScore,
		len(report.Matches), report.ROI.EstimatedRevenue, report.ROI.ProfitMargin, report.ROI.RiskLevel,
	)

	sc.Logf("Report ready: %s", report.OpportunityID)
	return map[string]any{"report": report, "summary": summary}, nil
}

func assembleReport(sc *StepContext) (*types.OpportunityReport, error) {
	profile, ok := sc.Results["trend_analysis"].(*types.TrendProfile)
	if !ok {
		return nil, fmt.Errorf("trend profile missing from results")
	}

	report := &types.OpportunityReport{
		OpportunityID: uuid.NewString(),
		Trend:         *profile,
		GeneratedAt:   time.Now(),
	}

	if matching, ok := sc.Results["supplier_matching"].(map[string]any); ok {
		if matches, ok := matching["matches"].([]types.MatchResult); ok {
			report.Matches = matches
		}
	}
	if pricing, ok := sc.Results["pricing_roi"].(map[string]any); ok {
		if tiers, ok := pricing["pricing"].(types.PricingTiers); ok {
			report.Pricing = tiers
		}
		if roi, ok := pricing["roi"].(types.ROIPrediction); ok {
			report.ROI = roi
		}
	}

	return report, nil
}

func factoryODMAgent() *Agent {
	return &Agent{
		ID:          AgentFactoryODM,
		Name:        "Factory ODM Assistant",
		Description: "Evaluates production capacity, matches buyers, and files a contract-manufacturing application.",
		Triggers:    []string{"factory", "odm", "contract manufacturing", "production capacity"},
		Plan: func() []StepDef {
			return []StepDef{
				{
					ID:          "collect_product_info",
					Name:        "Collect Product Info",
					Description: "Provide the product's basic information",
					Icon:        "📝",
					Kind:        types.StepUserInput,
				},
				{
					ID:              "market_analysis",
					Name:            "Market Analysis",
					Description:     "Assess market potential and buyer fit",
					Icon:            "📊",
					Kind:            types.StepSystemAction,
					Action:          runMarketAnalysis,
					FallbackToRules: true,
					Fallback:        marketAnalysisFallback,
				},
				{
					ID:          "define_strategy",
					Name:        "Define Strategy",
					Description: "Confirm the cooperation strategy",
					Icon:        "🎯",
					Kind:        types.StepUserInput,
				},
				{
					ID:          "factory_qualification",
					Name:        "Factory Qualification",
					Description: "Provide the factory's qualification details",
					Icon:        "🏭",
					Kind:        types.StepUserInput,
				},
				{
					ID:          "submit_application",
					Name:        "Submit Application",
					Description: "File the application for review",
					Icon:        "✅",
					Kind:        types.StepSystemAction,
					Action:      runSubmitApplication,
				},
			}
		},
	}
}

func runMarketAnalysis(ctx context.Context, sc *StepContext) (any, error) {
	productName := inputString(sc.Input, "product_name")
	if productName == "" {
		return nil, fmt.Errorf("missing product name in collected info")
	}

	if sc.Deps.LLM == nil {
		return nil, fmt.Errorf("LLM not configured for market analysis")
	}

	prompt := fmt.Sprintf(
		"Assess the global buyer demand for a factory seeking ODM contracts.\nProduct: %s\nTarget market: %s\nReply with two sentences on demand and one on the strongest buyer segment.",
		productName, inputString(sc.Input, "target_market"),
	)
	analysis, err := sc.Deps.LLM.GenerateContent(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze market: %w", err)
	}

	sc.Logf("Analyzed market potential for %s", productName)
	return map[string]any{"product_name": productName, "analysis": strings.TrimSpace(analysis)}, nil
}

func marketAnalysisFallback(_ context.Context, sc *StepContext) (any, error) {
	productName := inputString(sc.Input, "product_name")
	if productName == "" {
		return nil, fmt.Errorf("missing product name in collected info")
	}

	profile := trends.HeuristicProfile(productName)
	_, roi := trends.CalculatePricing(profile)

	sc.Logf("Analyzed market potential for %s", productName)
	return map[string]any{
		"product_name": productName,
		"analysis": fmt.Sprintf("Demand for %s rates %d/100 with %s risk for new entrants.",
			productName, profile.TrendScore, roi.RiskLevel),
	}, nil
}

func runSubmitApplication(ctx context.Context, sc *StepContext) (any, error) {
	applicationID := uuid.NewString()

	if sc.Deps.Searcher != nil && sc.Deps.Searcher.DB != nil {
		id, err := uuid.Parse(applicationID)
		if err == nil {
			_ = sc.Deps.Searcher.DB.CreateSourcingRequest(ctx, id,
				cloneMap(sc.Input), sc.Prompt, string(types.SourcingProcessing))
		}
	}

	sc.Logf("Application %s submitted for review", applicationID)
	return map[string]any{"application_id": applicationID, "status": "submitted"}, nil
}

// parseQuery normalizes the task prompt, preferring the configured parser.
func (sc *StepContext) parseQuery(ctx context.Context) *types.StructuredQuery {
	if sc.Deps.Parser != nil {
		return sc.Deps.Parser.Parse(ctx, sc.Prompt)
	}
	return intent.ParseWithRules(sc.Prompt)
}

// enrichQueryFromTrend fills gaps in a sparse query with trend findings.
func enrichQueryFromTrend(query *types.StructuredQuery, profile *types.TrendProfile) {
	if len(query.Keywords) == 0 && profile.ProductName != "" {
		query.Keywords = strings.Fields(profile.ProductName)
	}
	if query.Category == "" {
		query.Category = profile.Category
	}
}

func firstURL(sc *StepContext) string {
	if url := inputString(sc.Input, "url"); url != "" {
		return url
	}
	return urlRe.FindString(sc.Prompt)
}

func inputString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
