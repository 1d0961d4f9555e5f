package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/demandos/sourcing-agent/internal/llm"
	"github.com/demandos/sourcing-agent/internal/schemas"
	"github.com/demandos/sourcing-agent/internal/types"
)

// SchemaRelPath is where the structured query schema lives relative to the
// repository root.
const SchemaRelPath = "schemas/structured_query.schema.json"

// Parser normalizes free-text buyer requests into structured queries.
// The LLM path is preferred; rule-based extraction covers LLM failures and
// deployments with no API key.
type Parser struct {
	client llm.Client
	schema string // JSON Schema content, empty disables validation
}

// NewParser creates a parser. client may be nil, in which case only the
// rule-based path is used. The structured query schema is loaded from disk
// when present; a missing schema disables output validation.
func NewParser(client llm.Client) *Parser {
	p := &Parser{client: client}
	if path := schemas.ResolveSchemaPath(SchemaRelPath); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			p.schema = string(data)
		}
	}
	return p
}

// Parse extracts a structured query from free text. It never fails outright:
// any LLM or validation error falls back to rule-based extraction.
func (p *Parser) Parse(ctx context.Context, text string) *types.StructuredQuery {
	if p.client == nil {
		return ParseWithRules(text)
	}

	query, err := p.parseWithLLM(ctx, text)
	if err != nil {
		log.Printf("LLM query parsing failed, falling back to rules: %v", err)
		return ParseWithRules(text)
	}
	return query
}

// queryWire mirrors the structured query schema for decoding LLM output.
type queryWire struct {
	Keywords    []string `json:"keywords"`
	Category    string   `json:"category"`
	TargetPrice *struct {
		Min *float64 `json:"min"`
		Max *float64 `json:"max"`
	} `json:"target_price"`
	MOQ *struct {
		Min *int `json:"min"`
		Max *int `json:"max"`
	} `json:"moq"`
	Certifications      []string `json:"certifications"`
	SpecialRequirements []string `json:"special_requirements"`
}

func (p *Parser) parseWithLLM(ctx context.Context, text string) (*types.StructuredQuery, error) {
	prompt := llm.BuildExtractionPrompt(llm.StructuredQuerySchema(), text)

	raw, err := p.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, fmt.Errorf("failed to generate structured query: %w", err)
	}

	if p.schema != "" {
		if err := schemas.ValidateJSONString(p.schema, raw); err != nil {
			return nil, fmt.Errorf("structured query failed schema validation: %w", err)
		}
	}

	var wire queryWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("failed to decode structured query: %w", err)
	}
	if len(wire.Keywords) == 0 {
		return nil, fmt.Errorf("structured query has no keywords")
	}

	query := &types.StructuredQuery{
		Keywords:       wire.Keywords,
		Category:       wire.Category,
		Certifications: wire.Certifications,
		OriginalQuery:  text,
	}
	if wire.TargetPrice != nil {
		query.TargetPrice = &types.PriceRange{Min: wire.TargetPrice.Min, Max: wire.TargetPrice.Max}
	}
	if wire.MOQ != nil {
		query.MOQ = &types.QuantityRange{Min: wire.MOQ.Min, Max: wire.MOQ.Max}
	}
	for _, req := range wire.SpecialRequirements {
		query.SpecialRequirements = append(query.SpecialRequirements, normalizeRequirement(req))
	}

	return query, nil
}

// normalizeRequirement maps legacy or free-form requirement labels onto the
// canonical tokens the matcher understands.
func normalizeRequirement(req string) string {
	switch strings.ToLower(strings.TrimSpace(req)) {
	case "dropshipping", "dropshipping-required", "dropship":
		return types.RequirementDropshipping
	case "oem", "oem-required", "private label", "white label":
		return types.RequirementOEM
	default:
		return req
	}
}
