// Package intent turns free-text buyer input into routable, structured form.
// It decides which agent should handle a prompt and normalizes the prompt
// into the structured query the matching engine consumes.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/demandos/sourcing-agent/internal/llm"
)

// Route describes one registered agent for routing purposes.
type Route struct {
	ID          string
	Name        string
	Description string
	Triggers    []string
}

// Router picks an agent for a prompt. Keyword triggers are the fast path;
// an optional LLM breaks ties when no trigger fires.
type Router struct {
	routes    []Route
	defaultID string
	client    llm.Client
}

// NewRouter builds a router over the given routes. defaultID is returned when
// nothing matches and no LLM is configured. client may be nil.
func NewRouter(routes []Route, defaultID string, client llm.Client) *Router {
	return &Router{routes: routes, defaultID: defaultID, client: client}
}

// Match returns the agent ID that should handle the prompt.
func (r *Router) Match(ctx context.Context, prompt string) string {
	if id := matchByTriggers(prompt, r.routes); id != "" {
		return id
	}

	if r.client != nil {
		if id, err := r.matchWithLLM(ctx, prompt); err == nil && id != "" {
			return id
		}
	}

	return r.defaultID
}

// matchByTriggers returns the first route whose trigger appears in the prompt,
// case-insensitively. Registration order decides ties.
func matchByTriggers(prompt string, routes []Route) string {
	lower := strings.ToLower(prompt)
	for _, route := range routes {
		for _, trigger := range route.Triggers {
			if trigger != "" && strings.Contains(lower, strings.ToLower(trigger)) {
				return route.ID
			}
		}
	}
	return ""
}

func (r *Router) matchWithLLM(ctx context.Context, prompt string) (string, error) {
	var sb strings.Builder
	sb.WriteString("You are a dispatcher for a B2B sourcing platform. Pick the single best agent for the user's request.\n\nAgents:\n")
	for _, route := range r.routes {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", route.ID, route.Description))
	}
	sb.WriteString("\nReturn ONLY valid JSON: {\"agent_id\": \"<id>\"}\n\nUser request:\n")
	sb.WriteString(prompt)

	raw, err := r.client.GenerateJSON(ctx, sb.String(), llm.TierLite)
	if err != nil {
		return "", fmt.Errorf("failed to classify intent: %w", err)
	}

	var out struct {
		AgentID string `json:"agent_id"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", fmt.Errorf("failed to parse intent response: %w", err)
	}

	// Only accept IDs that are actually registered
	for _, route := range r.routes {
		if route.ID == out.AgentID {
			return out.AgentID, nil
		}
	}
	return "", fmt.Errorf("unknown agent id %q", out.AgentID)
}
