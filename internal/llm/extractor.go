// Package llm - extractor.go provides generic LLM-based structured extraction.
package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
// It provides a reusable way to define what information to extract from text.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "StructuredQuery", "TrendProfile")
	Description string        // System prompt preamble describing the extraction task
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint: "string", "[]string", "number"
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	// System description
	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	// Output schema
	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	// Instructions
	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract information directly from the text, do not invent values.\n")
	sb.WriteString("- Omit fields that are not present in the text rather than guessing.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	// Input text
	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// --- Predefined Schemas ---

// StructuredQuerySchema returns the extraction schema for buyer sourcing requests.
// Turns free-text procurement asks into the structured query the matcher consumes.
func StructuredQuerySchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "StructuredQuery",
		Description: `You are a B2B sourcing analyst. Your task is to extract structured
procurement criteria from a buyer's free-text request.
Prices are unit prices in USD. Quantities are units per order.
Use "dropshipping-required" or "oem-required" in special_requirements when the
buyer asks for dropshipping or OEM/private-label manufacturing.`,
		Fields: []SchemaField{
			{
				Name:        "keywords",
				Type:        "[\"string\"]",
				Description: "Product search terms, most specific first",
				Required:    true,
			},
			{
				Name:        "category",
				Type:        "\"string\"",
				Description: "Product category if the buyer names or implies one",
				Required:    false,
			},
			{
				Name:        "target_price",
				Type:        "{\"min\": number, \"max\": number}",
				Description: "Acceptable unit price range, either bound may be omitted",
				Required:    false,
			},
			{
				Name:        "moq",
				Type:        "{\"min\": number, \"max\": number}",
				Description: "Order quantity range the buyer can commit to",
				Required:    false,
			},
			{
				Name:        "certifications",
				Type:        "[\"string\"]",
				Description: "Required certifications, e.g. CE, FCC, RoHS, FDA",
				Required:    false,
			},
			{
				Name:        "special_requirements",
				Type:        "[\"string\"]",
				Description: "Tokens such as dropshipping-required or oem-required",
				Required:    false,
			},
		},
	}
}

// TrendProfileSchema returns the extraction schema for market trend analysis.
func TrendProfileSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "TrendProfile",
		Description: `You are a market analyst for cross-border e-commerce. Your task is to
assess the demand trend for a product from the text of a product or video page.`,
		Fields: []SchemaField{
			{
				Name:        "product_name",
				Type:        "\"string\"",
				Description: "The product the page is about",
				Required:    true,
			},
			{
				Name:        "category",
				Type:        "\"string\"",
				Description: "Product category, e.g. Consumer Electronics",
				Required:    true,
			},
			{
				Name:        "views",
				Type:        "number",
				Description: "View count if the page shows one",
				Required:    false,
			},
			{
				Name:        "likes",
				Type:        "number",
				Description: "Like count if the page shows one",
				Required:    false,
			},
			{
				Name:        "trend_score",
				Type:        "number",
				Description: "Demand heat from 0 to 100",
				Required:    true,
			},
			{
				Name:        "lifecycle",
				Type:        "\"string\"",
				Description: "One of: emerging, explosive, mature",
				Required:    true,
			},
			{
				Name:        "key_features",
				Type:        "[\"string\"]",
				Description: "Selling points driving the trend",
				Required:    false,
			},
		},
	}
}
