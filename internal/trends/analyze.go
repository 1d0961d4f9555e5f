// Package trends turns product and short-video pages into demand signals the
// workflow engine can act on: a trend profile, pricing tiers, and an ROI
// prediction.
package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/demandos/sourcing-agent/internal/fetch"
	"github.com/demandos/sourcing-agent/internal/llm"
	"github.com/demandos/sourcing-agent/internal/schemas"
	"github.com/demandos/sourcing-agent/internal/types"
)

// SchemaRelPath is where the trend profile schema lives relative to the
// repository root.
const SchemaRelPath = "schemas/trend_profile.schema.json"

// Analyzer extracts trend profiles from URLs or raw text.
type Analyzer struct {
	client     llm.Client
	fetcher    *fetch.CachedFetcher
	schema     string
	useBrowser bool
	verbose    bool
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithFetcher sets a cached fetcher for page retrieval.
func WithFetcher(f *fetch.CachedFetcher) AnalyzerOption {
	return func(a *Analyzer) { a.fetcher = f }
}

// WithBrowserRendering enables headless browser fallback for SPA pages.
func WithBrowserRendering() AnalyzerOption {
	return func(a *Analyzer) { a.useBrowser = true }
}

// WithVerbose enables progress logging.
func WithVerbose() AnalyzerOption {
	return func(a *Analyzer) { a.verbose = true }
}

// NewAnalyzer creates an analyzer. client may be nil, in which case only the
// heuristic path runs.
func NewAnalyzer(client llm.Client, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{client: client}
	if path := schemas.ResolveSchemaPath(SchemaRelPath); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			a.schema = string(data)
		}
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeURL fetches a page and extracts a trend profile from its content.
func (a *Analyzer) AnalyzeURL(ctx context.Context, urlStr string) (*types.TrendProfile, error) {
	html, err := a.fetchHTML(ctx, urlStr)
	if err != nil {
		return nil, err
	}

	platform := fetch.DetectPlatform(urlStr)
	text, err := fetch.ExtractMainText(html, fetch.PlatformContentSelectors(platform), fetch.PlatformNoiseSelectors(platform)...)
	if err != nil {
		return nil, fmt.Errorf("failed to extract page text: %w", err)
	}

	if a.useBrowser && fetch.ShouldUseBrowser(text) {
		rendered, berr := fetch.BrowserSimple(ctx, urlStr, a.verbose)
		if berr == nil {
			if rtext, terr := fetch.ExtractMainText(rendered, fetch.PlatformContentSelectors(platform), fetch.PlatformNoiseSelectors(platform)...); terr == nil {
				text = rtext
			}
		} else if a.verbose {
			log.Printf("browser rendering failed, using static HTML: %v", berr)
		}
	}

	return a.AnalyzeText(ctx, text), nil
}

// AnalyzeText extracts a trend profile from page text. The LLM path is
// preferred; extraction failures fall back to the heuristic profile, so a
// profile is always returned.
func (a *Analyzer) AnalyzeText(ctx context.Context, text string) *types.TrendProfile {
	if a.client != nil {
		profile, err := a.analyzeWithLLM(ctx, text)
		if err == nil {
			return profile
		}
		log.Printf("LLM trend analysis failed, falling back to heuristics: %v", err)
	}
	return HeuristicProfile(text)
}

func (a *Analyzer) fetchHTML(ctx context.Context, urlStr string) (string, error) {
	if a.fetcher != nil {
		result, err := a.fetcher.Fetch(ctx, urlStr)
		if err != nil {
			return "", err
		}
		return result.HTML, nil
	}
	result, err := fetch.URL(ctx, urlStr, nil)
	if err != nil {
		return "", err
	}
	return result.HTML, nil
}

func (a *Analyzer) analyzeWithLLM(ctx context.Context, text string) (*types.TrendProfile, error) {
	prompt := llm.BuildExtractionPrompt(llm.TrendProfileSchema(), text)

	raw, err := a.client.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return nil, fmt.Errorf("failed to generate trend profile: %w", err)
	}

	if a.schema != "" {
		if err := schemas.ValidateJSONString(a.schema, raw); err != nil {
			return nil, fmt.Errorf("trend profile failed schema validation: %w", err)
		}
	}

	var profile types.TrendProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("failed to decode trend profile: %w", err)
	}
	if profile.ProductName == "" {
		return nil, fmt.Errorf("trend profile has no product name")
	}

	return &profile, nil
}

// HeuristicProfile builds a deterministic trend profile from page text.
// Used when no LLM is configured or the LLM path fails.
func HeuristicProfile(text string) *types.TrendProfile {
	lower := strings.ToLower(text)

	profile := &types.TrendProfile{
		ProductName: firstLine(text),
		Category:    guessCategory(lower),
		TrendScore:  60,
		Lifecycle:   "emerging",
	}

	if strings.Contains(lower, "viral") || strings.Contains(lower, "trending") || strings.Contains(lower, "hot seller") {
		profile.TrendScore = 85
		profile.Lifecycle = "explosive"
	} else if strings.Contains(lower, "best seller") || strings.Contains(lower, "popular") {
		profile.TrendScore = 72
	}

	for _, feature := range []string{"portable", "wireless", "rechargeable", "waterproof", "foldable"} {
		if strings.Contains(lower, feature) {
			profile.KeyFeatures = append(profile.KeyFeatures, feature)
		}
	}

	return profile
}

func firstLine(text string) string {
	line := text
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		line = text[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "Unknown Product"
	}
	if len(line) > 80 {
		line = line[:80]
	}
	return line
}

func guessCategory(lower string) string {
	switch {
	case strings.Contains(lower, "earbuds") || strings.Contains(lower, "speaker") ||
		strings.Contains(lower, "watch") || strings.Contains(lower, "charger") ||
		strings.Contains(lower, "fan") || strings.Contains(lower, "electronic"):
		return "Consumer Electronics"
	case strings.Contains(lower, "shirt") || strings.Contains(lower, "jacket") || strings.Contains(lower, "apparel"):
		return "Apparel"
	case strings.Contains(lower, "lamp") || strings.Contains(lower, "kitchen") || strings.Contains(lower, "home"):
		return "Home & Garden"
	default:
		return "General Merchandise"
	}
}
