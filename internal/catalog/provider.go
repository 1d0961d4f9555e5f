// Package catalog supplies candidate data to the matching engine.
// Providers are injected rather than accessed through package state so tests
// and workflows can substitute fixtures.
package catalog

import (
	"context"

	"github.com/demandos/sourcing-agent/internal/types"
)

// FilterHint narrows what a provider fetches. Providers may ignore fields
// they cannot translate; the matching engine re-applies all hard constraints.
type FilterHint struct {
	Category string
	Limit    int
}

// Provider is a read-only source of candidates (products or factories).
type Provider interface {
	// FetchCandidates returns candidates matching the hint. Implementations
	// must return within a bounded time or surface an error the workflow
	// engine can treat as a step failure.
	FetchCandidates(ctx context.Context, hint FilterHint) ([]types.Candidate, error)
}
