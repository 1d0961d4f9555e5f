package llm

import (
	"testing"
)

func TestCleanJSONBlock_MarkdownCodeBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"keywords\": [\"bluetooth\", \"earbuds\"]}\n```",
			expected: `{"keywords": ["bluetooth", "earbuds"]}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"category\": \"Consumer Electronics\"}\n```",
			expected: `{"category": "Consumer Electronics"}`,
		},
		{
			name:     "code block with language",
			input:    "```javascript\n{\"moq\": {\"min\": 500}}\n```",
			expected: `{"moq": {"min": 500}}`,
		},
		{
			name:     "plain JSON",
			input:    `{"keywords": ["speaker"]}`,
			expected: `{"keywords": ["speaker"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CleanJSONBlock(tt.input)
			if result != tt.expected {
				t.Errorf("CleanJSONBlock() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestCleanJSONBlock_PreambleText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "preamble before JSON object",
			input:    "Here is the structured query:\n{\"keywords\": [\"earbuds\"]}",
			expected: `{"keywords": ["earbuds"]}`,
		},
		{
			name:     "conversational preamble",
			input:    "Based on the page content, I identified the trending product. Here's the structured output:\n\n{\"product_name\": \"LED Dog Collar\", \"trend_score\": 82}",
			expected: `{"product_name": "LED Dog Collar", "trend_score": 82}`,
		},
		{
			name:     "preamble with multiple sentences",
			input:    "I parsed the request. The buyer wants wireless audio. Here is the result: {\"keywords\": [\"tws\", \"anc\"]}",
			expected: `{"keywords": ["tws", "anc"]}`,
		},
		{
			name:     "preamble before JSON array",
			input:    "Top categories:\n[\"Consumer Electronics\", \"Pet Supplies\"]",
			expected: `["Consumer Electronics", "Pet Supplies"]`,
		},
		{
			name:     "JSON with trailing text",
			input:    "{\"category\": \"Home & Garden\"}\n\nLet me know if you need anything else!",
			expected: `{"category": "Home & Garden"}`,
		},
		{
			name:     "nested objects",
			input:    "Output:\n{\"target_price\": {\"min\": 5, \"max\": 12}}",
			expected: `{"target_price": {"min": 5, "max": 12}}`,
		},
		{
			name:     "JSON with escaped quotes",
			input:    "Result: {\"product_name\": \"Mini \\\"Pocket\\\" Printer\"}",
			expected: `{"product_name": "Mini \"Pocket\" Printer"}`,
		},
		{
			name:     "deeply nested",
			input:    "Here: {\"parsed\": {\"moq\": {\"range\": {\"min\": 100}}}}",
			expected: `{"parsed": {"moq": {"range": {"min": 100}}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CleanJSONBlock(tt.input)
			if result != tt.expected {
				t.Errorf("CleanJSONBlock() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple object",
			input:    `{"category": "Pet Supplies"}`,
			expected: `{"category": "Pet Supplies"}`,
		},
		{
			name:     "nested objects",
			input:    `{"moq": {"min": 500}}`,
			expected: `{"moq": {"min": 500}}`,
		},
		{
			name:     "object with array",
			input:    `{"certifications": ["CE", "FCC"]}`,
			expected: `{"certifications": ["CE", "FCC"]}`,
		},
		{
			name:     "object with trailing text",
			input:    `{"keywords": ["speaker"]} and some more text`,
			expected: `{"keywords": ["speaker"]}`,
		},
		{
			name:     "string with braces inside",
			input:    `{"note": "use {moq} placeholders"}`,
			expected: `{"note": "use {moq} placeholders"}`,
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "not starting with brace",
			input:    "not json",
			expected: "",
		},
		{
			name:     "unterminated object",
			input:    `{"keywords": ["speaker"`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractJSONObject(tt.input)
			if result != tt.expected {
				t.Errorf("extractJSONObject() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple array",
			input:    `["CE", "FCC", "RoHS"]`,
			expected: `["CE", "FCC", "RoHS"]`,
		},
		{
			name:     "nested arrays",
			input:    `[[100, 500], [1000, 5000]]`,
			expected: `[[100, 500], [1000, 5000]]`,
		},
		{
			name:     "array of objects",
			input:    `[{"id": "p1"}, {"id": "p2"}]`,
			expected: `[{"id": "p1"}, {"id": "p2"}]`,
		},
		{
			name:     "array with trailing text",
			input:    `["tws", "anc"] extra stuff`,
			expected: `["tws", "anc"]`,
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "not starting with bracket",
			input:    "not array",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractJSONArray(tt.input)
			if result != tt.expected {
				t.Errorf("extractJSONArray() = %q, want %q", result, tt.expected)
			}
		})
	}
}
