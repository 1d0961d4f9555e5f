package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/demandos/sourcing-agent/internal/types"
)

// Rule-based query extraction. Used when no LLM is configured and as the
// fallback when the LLM path fails.

var (
	priceRangeRe  = regexp.MustCompile(`\$?(\d+(?:\.\d+)?)\s*(?:-|~|to)\s*\$?(\d+(?:\.\d+)?)`)
	priceUnderRe  = regexp.MustCompile(`(?:under|below|less than|within|max)\s*\$?(\d+(?:\.\d+)?)`)
	priceAroundRe = regexp.MustCompile(`(?:around|about|roughly)\s*\$?(\d+(?:\.\d+)?)`)
	priceBareRe   = regexp.MustCompile(`\$(\d+(?:\.\d+)?)`)
	moqRe         = regexp.MustCompile(`(\d+)\s*(?:pcs|pieces|units)`)
	moqLabelRe    = regexp.MustCompile(`moq\s*(?:of|:)?\s*(\d+)`)
	certRe        = regexp.MustCompile(`\b(ce|fcc|rohs|fda|ul|iso\s?9001)\b`)
)

// productKeywords are the terms the rule parser recognizes as product search
// keywords, most specific first so extracted lists lead with the narrow terms.
var productKeywords = []string{
	"tws", "earbuds", "headphones", "smart watch", "smart band", "fitness tracker",
	"power bank", "speaker", "charger", "cable",
	"watch", "band", "lamp", "desk", "chair", "mug",
	"shoes", "jacket", "t-shirt", "backpack",
	"bluetooth", "wireless", "smart", "portable",
}

// categoryRules map prompt fragments to catalog categories.
var categoryRules = []struct {
	pattern  *regexp.Regexp
	category string
}{
	{regexp.MustCompile(`earbuds|headphones|speaker|watch|band|charger|power bank|electronic|smart|bluetooth`), "Consumer Electronics"},
	{regexp.MustCompile(`shoes|jacket|t-shirt|apparel|clothing`), "Apparel"},
	{regexp.MustCompile(`lamp|desk|chair|mug|home|garden`), "Home & Garden"},
}

// ParseWithRules extracts a structured query from free text without an LLM.
// It always returns a query; sparse input yields a sparse query.
func ParseWithRules(text string) *types.StructuredQuery {
	lower := strings.ToLower(text)

	query := &types.StructuredQuery{OriginalQuery: text}

	for _, kw := range productKeywords {
		if strings.Contains(lower, kw) {
			query.Keywords = append(query.Keywords, kw)
		}
	}

	for _, rule := range categoryRules {
		if rule.pattern.MatchString(lower) {
			query.Category = rule.category
			break
		}
	}

	query.TargetPrice = extractPrice(lower)
	query.MOQ = extractMOQ(lower)

	for _, m := range certRe.FindAllString(lower, -1) {
		query.Certifications = append(query.Certifications, strings.ToUpper(m))
	}

	if strings.Contains(lower, "dropship") {
		query.SpecialRequirements = append(query.SpecialRequirements, types.RequirementDropshipping)
		if query.MOQ == nil {
			one := 1
			query.MOQ = &types.QuantityRange{Min: &one}
		}
	}
	if strings.Contains(lower, "oem") || strings.Contains(lower, "private label") || strings.Contains(lower, "white label") {
		query.SpecialRequirements = append(query.SpecialRequirements, types.RequirementOEM)
	}

	return query
}

func extractPrice(lower string) *types.PriceRange {
	if m := priceRangeRe.FindStringSubmatch(lower); m != nil {
		min := parseFloat(m[1])
		max := parseFloat(m[2])
		return &types.PriceRange{Min: &min, Max: &max}
	}
	if m := priceUnderRe.FindStringSubmatch(lower); m != nil {
		max := parseFloat(m[1])
		return &types.PriceRange{Max: &max}
	}
	if m := priceAroundRe.FindStringSubmatch(lower); m != nil {
		mid := parseFloat(m[1])
		min, max := mid*0.8, mid*1.2
		return &types.PriceRange{Min: &min, Max: &max}
	}
	if m := priceBareRe.FindStringSubmatch(lower); m != nil {
		mid := parseFloat(m[1])
		min, max := mid*0.8, mid*1.2
		return &types.PriceRange{Min: &min, Max: &max}
	}
	return nil
}

func extractMOQ(lower string) *types.QuantityRange {
	if m := moqLabelRe.FindStringSubmatch(lower); m != nil {
		max := parseInt(m[1])
		return &types.QuantityRange{Max: &max}
	}
	if m := moqRe.FindStringSubmatch(lower); m != nil {
		min := parseInt(m[1])
		return &types.QuantityRange{Min: &min}
	}
	return nil
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
