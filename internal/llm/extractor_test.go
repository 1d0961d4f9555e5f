package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildExtractionPrompt(t *testing.T) {
	schema := ExtractionSchema{
		Name:        "Test",
		Description: "Extract test data.",
		Fields: []SchemaField{
			{Name: "keywords", Type: "[\"string\"]", Description: "search terms", Required: true},
			{Name: "category", Type: "\"string\""},
		},
	}

	prompt := BuildExtractionPrompt(schema, "wireless earbuds under $10")

	assert.Contains(t, prompt, "Extract test data.")
	assert.Contains(t, prompt, "\"keywords\": [\"string\"] (required)")
	assert.Contains(t, prompt, "// search terms")
	assert.Contains(t, prompt, "\"category\": \"string\"")
	assert.Contains(t, prompt, "wireless earbuds under $10")
	assert.Contains(t, prompt, "Return ONLY the JSON object")
}

func TestBuildExtractionPrompt_DefaultsTypeToString(t *testing.T) {
	schema := ExtractionSchema{
		Description: "Extract.",
		Fields:      []SchemaField{{Name: "topic"}},
	}

	prompt := BuildExtractionPrompt(schema, "input")
	assert.Contains(t, prompt, "\"topic\": string")
}

func TestStructuredQuerySchema(t *testing.T) {
	schema := StructuredQuerySchema()

	assert.Equal(t, "StructuredQuery", schema.Name)
	assert.Contains(t, schema.Description, "dropshipping-required")

	var names []string
	for _, f := range schema.Fields {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "keywords")
	assert.Contains(t, names, "target_price")
	assert.Contains(t, names, "moq")
	assert.Contains(t, names, "special_requirements")
}

func TestTrendProfileSchema(t *testing.T) {
	schema := TrendProfileSchema()

	assert.Equal(t, "TrendProfile", schema.Name)

	required := map[string]bool{}
	for _, f := range schema.Fields {
		required[f.Name] = f.Required
	}
	assert.True(t, required["product_name"])
	assert.True(t, required["trend_score"])
	assert.True(t, required["lifecycle"])
	assert.False(t, required["key_features"])
}
