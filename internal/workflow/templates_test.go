package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demandos/sourcing-agent/internal/types"
)

func testStepContext(prompt string, input map[string]any, results map[string]any) (*StepContext, *[]string) {
	var logs []string
	sc := &StepContext{
		Prompt:  prompt,
		Input:   input,
		Results: results,
		Deps:    &Deps{},
	}
	sc.Logf = func(format string, args ...any) {
		logs = append(logs, format)
	}
	return sc, &logs
}

func TestBuiltinRegistry(t *testing.T) {
	r := BuiltinRegistry()

	assert.Equal(t, AgentViralTracker, r.DefaultID())
	require.NotNil(t, r.Get(AgentViralTracker))
	require.NotNil(t, r.Get(AgentFactoryODM))
	assert.Nil(t, r.Get("unknown"))

	routes := r.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, AgentViralTracker, routes[0].ID)
	assert.Equal(t, AgentFactoryODM, routes[1].ID)
	assert.Contains(t, routes[1].Triggers, "factory")
}

func TestViralTrackerPlanShape(t *testing.T) {
	defs := BuiltinRegistry().Get(AgentViralTracker).Plan()
	require.Len(t, defs, 4)

	ids := make([]string, len(defs))
	for i, def := range defs {
		ids[i] = def.ID
		assert.Equal(t, types.StepSystemAction, def.Kind, "step %s", def.ID)
		assert.NotNil(t, def.Action, "step %s", def.ID)
	}
	assert.Equal(t, []string{"trend_analysis", "supplier_matching", "pricing_roi", "report"}, ids)

	assert.True(t, defs[0].FallbackToRules)
	require.NotNil(t, defs[0].Fallback)
	assert.True(t, defs[3].FallbackToRules)
	require.NotNil(t, defs[3].Fallback)
}

func TestFactoryODMPlanShape(t *testing.T) {
	defs := BuiltinRegistry().Get(AgentFactoryODM).Plan()
	require.Len(t, defs, 5)

	kinds := make([]types.StepKind, len(defs))
	for i, def := range defs {
		kinds[i] = def.Kind
	}
	assert.Equal(t, []types.StepKind{
		types.StepUserInput,
		types.StepSystemAction,
		types.StepUserInput,
		types.StepUserInput,
		types.StepSystemAction,
	}, kinds)

	assert.Equal(t, "collect_product_info", defs[0].ID)
	assert.Equal(t, "submit_application", defs[4].ID)
	assert.True(t, defs[1].FallbackToRules)
}

func TestTrendAnalysisFallback(t *testing.T) {
	sc, _ := testStepContext("viral portable blender trending on tiktok", nil, nil)

	result, err := trendAnalysisFallback(context.Background(), sc)
	require.NoError(t, err)

	profile, ok := result.(*types.TrendProfile)
	require.True(t, ok)
	assert.NotEmpty(t, profile.ProductName)
	assert.Greater(t, profile.TrendScore, 0)
}

func TestRunPricingROI(t *testing.T) {
	profile := &types.TrendProfile{
		ProductName: "LED Dog Collar",
		Category:    "pet supplies",
		TrendScore:  85,
		Lifecycle:   "explosive",
	}
	sc, _ := testStepContext("", nil, map[string]any{"trend_analysis": profile})

	result, err := runPricingROI(context.Background(), sc)
	require.NoError(t, err)

	out, ok := result.(map[string]any)
	require.True(t, ok)

	tiers, ok := out["pricing"].(types.PricingTiers)
	require.True(t, ok)
	assert.InDelta(t, 8.5, tiers.Dropshipping.Price, 0.001)
	assert.Equal(t, 1, tiers.Dropshipping.MOQ)

	roi, ok := out["roi"].(types.ROIPrediction)
	require.True(t, ok)
	assert.Equal(t, "low", roi.RiskLevel)
	assert.Greater(t, roi.EstimatedRevenue, 0.0)
}

func TestRunPricingROIWithoutProfile(t *testing.T) {
	sc, _ := testStepContext("", nil, map[string]any{})

	_, err := runPricingROI(context.Background(), sc)
	assert.Error(t, err)
}

func TestReportFallbackAssemblesReport(t *testing.T) {
	profile := &types.TrendProfile{
		ProductName: "LED Dog Collar",
		TrendScore:  85,
		Lifecycle:   "explosive",
	}
	matches := []types.MatchResult{{CandidateID: "p1", Name: "Collar", Score: 80}}
	tiers, roi := types.PricingTiers{}, types.ROIPrediction{
		EstimatedRevenue: 100000, ProfitMargin: 58.4, RiskLevel: "low",
	}
	sc, _ := testStepContext("", nil, map[string]any{
		"trend_analysis":    profile,
		"supplier_matching": map[string]any{"matches": matches},
		"pricing_roi":       map[string]any{"pricing": tiers, "roi": roi},
	})

	result, err := reportFallback(context.Background(), sc)
	require.NoError(t, err)

	out, ok := result.(map[string]any)
	require.True(t, ok)

	report, ok := out["report"].(*types.OpportunityReport)
	require.True(t, ok)
	assert.NotEmpty(t, report.OpportunityID)
	assert.Equal(t, "LED Dog Collar", report.Trend.ProductName)
	assert.Len(t, report.Matches, 1)
	assert.Equal(t, "low", report.ROI.RiskLevel)

	summary, ok := out["summary"].(string)
	require.True(t, ok)
	assert.Contains(t, summary, "LED Dog Collar")
}

func TestMarketAnalysisFallback(t *testing.T) {
	sc, _ := testStepContext("", map[string]any{"product_name": "smart water bottle"}, nil)

	result, err := marketAnalysisFallback(context.Background(), sc)
	require.NoError(t, err)

	out, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "smart water bottle", out["product_name"])
	assert.NotEmpty(t, out["analysis"])
}

func TestMarketAnalysisFallbackRequiresProductName(t *testing.T) {
	sc, _ := testStepContext("", map[string]any{}, nil)

	_, err := marketAnalysisFallback(context.Background(), sc)
	assert.Error(t, err)
}

func TestRunSubmitApplication(t *testing.T) {
	sc, logs := testStepContext("apply for odm", map[string]any{"factory_name": "Acme"}, nil)

	result, err := runSubmitApplication(context.Background(), sc)
	require.NoError(t, err)

	out, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "submitted", out["status"])
	assert.NotEmpty(t, out["application_id"])
	assert.NotEmpty(t, *logs)
}

func TestEnrichQueryFromTrend(t *testing.T) {
	profile := &types.TrendProfile{ProductName: "LED Dog Collar", Category: "pet supplies"}

	query := &types.StructuredQuery{}
	enrichQueryFromTrend(query, profile)
	assert.Equal(t, []string{"LED", "Dog", "Collar"}, query.Keywords)
	assert.Equal(t, "pet supplies", query.Category)

	// Explicit query fields win over trend findings.
	query = &types.StructuredQuery{Keywords: []string{"collar"}, Category: "accessories"}
	enrichQueryFromTrend(query, profile)
	assert.Equal(t, []string{"collar"}, query.Keywords)
	assert.Equal(t, "accessories", query.Category)
}

func TestFirstURL(t *testing.T) {
	sc, _ := testStepContext("check https://www.tiktok.com/@shop/video/123 for me", nil, nil)
	assert.Equal(t, "https://www.tiktok.com/@shop/video/123", firstURL(sc))

	sc, _ = testStepContext("no links here", map[string]any{"url": "https://example.com/p"}, nil)
	assert.Equal(t, "https://example.com/p", firstURL(sc))

	sc, _ = testStepContext("no links here", nil, nil)
	assert.Empty(t, firstURL(sc))
}
