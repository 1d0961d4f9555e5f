// Package llm - util.go provides shared helpers for LLM response processing.
package llm

import "strings"

// CleanJSONBlock normalizes a model response down to its JSON payload.
// Models wrap JSON in ```json fences or lead with conversational text even
// when instructed not to; both wrappers are stripped before decoding.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	// Handle ```json ... ``` blocks
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	} else if strings.HasPrefix(text, "```") {
		// Handle generic ``` ... ``` blocks
		text = strings.TrimPrefix(text, "```")
		// Skip potential language identifier on first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			// If first line looks like a language identifier (no spaces, short), skip it
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	if payload := extractJSONPayload(text); payload != "" {
		return payload
	}
	return text
}

// extractJSONPayload returns the first complete JSON object or array in the
// text, whichever opens earlier. Empty when neither delimiter appears or the
// value never closes.
func extractJSONPayload(text string) string {
	obj := strings.IndexByte(text, '{')
	arr := strings.IndexByte(text, '[')
	switch {
	case obj < 0 && arr < 0:
		return ""
	case arr < 0 || (obj >= 0 && obj < arr):
		return extractJSONObject(text[obj:])
	default:
		return extractJSONArray(text[arr:])
	}
}

// extractJSONObject returns the balanced {...} prefix of text, or "" when
// text does not start with an object or the object never closes.
func extractJSONObject(text string) string {
	return extractBalanced(text, '{', '}')
}

// extractJSONArray returns the balanced [...] prefix of text.
func extractJSONArray(text string) string {
	return extractBalanced(text, '[', ']')
}

// extractBalanced scans for the matching closer, ignoring delimiters inside
// JSON strings and escape sequences.
func extractBalanced(text string, opener, closer byte) string {
	if len(text) == 0 || text[0] != opener {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// delimiters inside string literals don't count
		case c == opener:
			depth++
		case c == closer:
			depth--
			if depth == 0 {
				return text[:i+1]
			}
		}
	}
	return ""
}
